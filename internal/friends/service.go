package friends

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/socialapp/backend/internal/directory"
	"github.com/socialapp/backend/internal/events"
	"github.com/socialapp/backend/internal/logging"
	"github.com/socialapp/backend/internal/models"
	"github.com/socialapp/backend/internal/repositories"
)

// Service runs the friend request lifecycle and maintains the symmetric friendship
// edges it produces.
type Service struct {
	store  repositories.FriendRepository
	users  directory.Resolver
	events events.Emitter

	now   func() time.Time
	newID func() string
}

// NewService constructs a Service. emitter may be nil.
func NewService(store repositories.FriendRepository, users directory.Resolver, emitter events.Emitter) *Service {
	return &Service{
		store:  store,
		users:  users,
		events: emitter,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// AcceptParams identifies the request being accepted and the sender as the client
// saw it.
type AcceptParams struct {
	RequestID  string
	SenderID   string
	SenderName string
}

// SendRequest creates a pending request from sender to receiverID. At most one pending
// request exists per pair of users: resending in the same direction returns the
// existing request, and a pending request in the opposite direction is reported as
// ErrReverseRequestPending.
func (s *Service) SendRequest(ctx context.Context, sender models.Identity, receiverID string) (req models.FriendRequest, err error) {
	ctx, span := logging.StartSpan(ctx, "friends.send_request", "receiverId", receiverID)
	defer span.EndErr(&err)

	if sender.IsZero() {
		return models.FriendRequest{}, ErrNoIdentity
	}
	receiverID = strings.TrimSpace(receiverID)
	if receiverID == "" {
		return models.FriendRequest{}, ErrMissingReceiver
	}
	if sender.UID == receiverID {
		return models.FriendRequest{}, ErrCannotFriendSelf
	}
	if strings.TrimSpace(sender.DisplayName) == "" {
		return models.FriendRequest{}, ErrMissingName
	}

	if _, err := s.users.Lookup(ctx, receiverID); err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return models.FriendRequest{}, ErrUserNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("resolve receiver: %w", err)
	}

	friends, err := s.store.AreFriends(ctx, sender.UID, receiverID)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return models.FriendRequest{}, ErrAlreadyFriends
	}

	existing, err := s.store.FindPendingBetween(ctx, sender.UID, receiverID)
	switch {
	case err == nil:
		return sameDirection(existing, sender.UID)
	case !errors.Is(err, repositories.ErrNotFound):
		return models.FriendRequest{}, fmt.Errorf("find pending request: %w", err)
	}

	request := models.FriendRequest{
		ID:         s.newID(),
		SenderID:   sender.UID,
		SenderName: sender.DisplayName,
		ReceiverID: receiverID,
		Status:     models.FriendRequestPending,
		CreatedAt:  s.now(),
	}

	if err := s.store.CreateRequest(ctx, request); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			// Lost the race against a concurrent send for the same pair.
			winner, findErr := s.store.FindPendingBetween(ctx, sender.UID, receiverID)
			if findErr != nil {
				return models.FriendRequest{}, fmt.Errorf("resolve concurrent friend request: %w", findErr)
			}
			return sameDirection(winner, sender.UID)
		case errors.Is(err, repositories.ErrNotFound):
			return models.FriendRequest{}, ErrUserNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("create friend request: %w", err)
	}

	s.emit(ctx, events.FriendRequestSent, request)
	return request, nil
}

func sameDirection(existing models.FriendRequest, senderID string) (models.FriendRequest, error) {
	if existing.SenderID == senderID {
		return existing, nil
	}
	return models.FriendRequest{}, ErrReverseRequestPending
}

// AcceptRequest marks a pending request accepted and creates both friendship edges.
// Accepting an already accepted request repairs any missing edge and never creates
// duplicates.
func (s *Service) AcceptRequest(ctx context.Context, receiver models.Identity, params AcceptParams) (req models.FriendRequest, err error) {
	ctx, span := logging.StartSpan(ctx, "friends.accept_request", "requestId", params.RequestID)
	defer span.EndErr(&err)

	if receiver.IsZero() {
		return models.FriendRequest{}, ErrNoIdentity
	}

	request, err := s.findRequest(ctx, params.RequestID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if request.ReceiverID != receiver.UID {
		return models.FriendRequest{}, ErrNotRecipient
	}
	if params.SenderID != request.SenderID {
		return models.FriendRequest{}, ErrSenderMismatch
	}
	if strings.TrimSpace(params.SenderName) == "" || strings.TrimSpace(receiver.DisplayName) == "" {
		return models.FriendRequest{}, ErrMissingName
	}
	if request.Status == models.FriendRequestDeclined {
		return models.FriendRequest{}, ErrRequestNotPending
	}

	transitioned := true
	updated, err := s.store.TransitionRequest(ctx, request.ID, models.FriendRequestPending, models.FriendRequestAccepted, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrStaleStatus):
			if updated.Status != models.FriendRequestAccepted {
				return models.FriendRequest{}, ErrRequestNotPending
			}
			transitioned = false
		case errors.Is(err, repositories.ErrNotFound):
			return models.FriendRequest{}, ErrRequestNotFound
		default:
			return models.FriendRequest{}, fmt.Errorf("accept friend request: %w", err)
		}
	}

	if err := s.insertEdges(ctx, updated, params.SenderName, receiver.DisplayName); err != nil {
		return models.FriendRequest{}, fmt.Errorf("create friendship: %w", err)
	}

	if transitioned {
		s.emit(ctx, events.FriendRequestAccepted, updated)
	}
	return updated, nil
}

func (s *Service) insertEdges(ctx context.Context, request models.FriendRequest, senderName, receiverName string) error {
	createdAt := s.now()
	if request.RespondedAt != nil {
		createdAt = *request.RespondedAt
	}

	edges := [2]models.FriendshipEdge{
		{
			UserID1:    request.ReceiverID,
			UserID2:    request.SenderID,
			FriendName: senderName,
			Status:     models.FriendshipStatusAccepted,
			RequestID:  request.ID,
			CreatedAt:  createdAt,
		},
		{
			UserID1:    request.SenderID,
			UserID2:    request.ReceiverID,
			FriendName: receiverName,
			Status:     models.FriendshipStatusAccepted,
			RequestID:  request.ID,
			CreatedAt:  createdAt,
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, edge := range edges {
		g.Go(func() error {
			return s.store.InsertFriendship(gctx, edge)
		})
	}
	return g.Wait()
}

// DeclineRequest moves a pending request to the terminal declined state. No edges are
// created.
func (s *Service) DeclineRequest(ctx context.Context, receiver models.Identity, requestID string) (req models.FriendRequest, err error) {
	ctx, span := logging.StartSpan(ctx, "friends.decline_request", "requestId", requestID)
	defer span.EndErr(&err)

	if receiver.IsZero() {
		return models.FriendRequest{}, ErrNoIdentity
	}

	request, err := s.findRequest(ctx, requestID)
	if err != nil {
		return models.FriendRequest{}, err
	}
	if request.ReceiverID != receiver.UID {
		return models.FriendRequest{}, ErrNotRecipient
	}

	updated, err := s.store.TransitionRequest(ctx, request.ID, models.FriendRequestPending, models.FriendRequestDeclined, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrStaleStatus):
			return models.FriendRequest{}, ErrRequestNotPending
		case errors.Is(err, repositories.ErrNotFound):
			return models.FriendRequest{}, ErrRequestNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("decline friend request: %w", err)
	}

	s.emit(ctx, events.FriendRequestDeclined, updated)
	return updated, nil
}

// ListPendingRequests returns the pending requests addressed to receiverID.
func (s *Service) ListPendingRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	if receiverID == "" {
		return nil, ErrNoIdentity
	}
	requests, err := s.store.ListPending(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	if requests == nil {
		requests = []models.FriendRequest{}
	}
	return requests, nil
}

// ListFriends returns the accepted friendship edges whose first endpoint is userID.
func (s *Service) ListFriends(ctx context.Context, userID string) ([]models.FriendshipEdge, error) {
	if userID == "" {
		return nil, ErrNoIdentity
	}
	edges, err := s.store.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	if edges == nil {
		edges = []models.FriendshipEdge{}
	}
	return edges, nil
}

func (s *Service) findRequest(ctx context.Context, requestID string) (models.FriendRequest, error) {
	if strings.TrimSpace(requestID) == "" {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	request, err := s.store.FindRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.FriendRequest{}, ErrRequestNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("find friend request: %w", err)
	}
	return request, nil
}

func (s *Service) emit(ctx context.Context, name string, request models.FriendRequest) {
	if s.events == nil {
		return
	}
	occurred := request.CreatedAt
	if request.RespondedAt != nil {
		occurred = *request.RespondedAt
	}
	s.events.Emit(ctx, name, events.FriendRequestEvent{
		RequestID:  request.ID,
		SenderID:   request.SenderID,
		ReceiverID: request.ReceiverID,
		Status:     string(request.Status),
		OccurredAt: occurred,
	})
}
