package handlers

import (
	"net/http"
	"strings"

	"github.com/socialapp/backend/internal/friends"
	"github.com/socialapp/backend/internal/logging"
	"github.com/socialapp/backend/internal/metrics"
	"github.com/socialapp/backend/internal/models"
)

// FriendHandler provides the friend request workflow and friend listing endpoints.
type FriendHandler struct {
	Friends FriendService
}

// List handles GET /api/v1/friends.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.ready(w, r)
	if !ok {
		return
	}

	edges, err := h.Friends.ListFriends(ctx, identity.UID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	resp := make([]friendResponse, 0, len(edges))
	for _, edge := range edges {
		resp = append(resp, toFriendResponse(edge))
	}
	respondJSON(ctx, w, http.StatusOK, map[string][]friendResponse{"friends": resp})
}

// Pending handles GET /api/v1/friends/requests, listing requests awaiting the caller.
func (h FriendHandler) Pending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.ready(w, r)
	if !ok {
		return
	}

	requests, err := h.Friends.ListPendingRequests(ctx, identity.UID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string][]friendRequestResponse{"requests": toFriendRequestResponses(requests)})
}

// Send handles POST /api/v1/friends/requests.
func (h FriendHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.ready(w, r)
	if !ok {
		return
	}

	var req sendFriendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid friend request payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Friends.SendRequest(ctx, identity, strings.TrimSpace(req.ReceiverID))
	if err != nil {
		metrics.IncFriendRequest(metrics.ActionSend, metrics.StatusFailed)
		respondServiceError(ctx, w, err)
		return
	}

	metrics.IncFriendRequest(metrics.ActionSend, metrics.StatusSuccess)
	respondJSON(ctx, w, http.StatusCreated, map[string]friendRequestResponse{"request": toFriendRequestResponse(request)})
}

// Accept handles POST /api/v1/friends/requests/accept.
func (h FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.ready(w, r)
	if !ok {
		return
	}

	var req acceptFriendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid accept payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Friends.AcceptRequest(ctx, identity, friends.AcceptParams{
		RequestID:  strings.TrimSpace(req.RequestID),
		SenderID:   strings.TrimSpace(req.SenderID),
		SenderName: strings.TrimSpace(req.SenderName),
	})
	if err != nil {
		metrics.IncFriendRequest(metrics.ActionAccept, metrics.StatusFailed)
		respondServiceError(ctx, w, err)
		return
	}

	metrics.IncFriendRequest(metrics.ActionAccept, metrics.StatusSuccess)
	respondJSON(ctx, w, http.StatusOK, map[string]friendRequestResponse{"request": toFriendRequestResponse(request)})
}

// Decline handles POST /api/v1/friends/requests/decline.
func (h FriendHandler) Decline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.ready(w, r)
	if !ok {
		return
	}

	var req declineFriendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid decline payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.Friends.DeclineRequest(ctx, identity, strings.TrimSpace(req.RequestID))
	if err != nil {
		metrics.IncFriendRequest(metrics.ActionDecline, metrics.StatusFailed)
		respondServiceError(ctx, w, err)
		return
	}

	metrics.IncFriendRequest(metrics.ActionDecline, metrics.StatusSuccess)
	respondJSON(ctx, w, http.StatusOK, map[string]friendRequestResponse{"request": toFriendRequestResponse(request)})
}

func (h FriendHandler) ready(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return models.Identity{}, false
	}
	if h.Friends == nil {
		logging.FromContext(r.Context()).Error("friend service unavailable")
		respondError(r.Context(), w, http.StatusServiceUnavailable, "friend service unavailable")
		return models.Identity{}, false
	}
	return identity, true
}

func toFriendRequestResponses(requests []models.FriendRequest) []friendRequestResponse {
	resp := make([]friendRequestResponse, 0, len(requests))
	for _, request := range requests {
		resp = append(resp, toFriendRequestResponse(request))
	}
	return resp
}

type sendFriendRequest struct {
	ReceiverID string `json:"receiverId"`
}

type acceptFriendRequest struct {
	RequestID  string `json:"requestId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
}

type declineFriendRequest struct {
	RequestID string `json:"requestId"`
}
