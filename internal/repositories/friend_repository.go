package repositories

import (
	"context"
	"time"

	"github.com/socialapp/backend/internal/models"
)

// FriendRepository defines data access for friend requests and friendship edges.
type FriendRepository interface {
	CreateRequest(ctx context.Context, request models.FriendRequest) error
	FindRequest(ctx context.Context, requestID string) (models.FriendRequest, error)
	FindPendingBetween(ctx context.Context, userA, userB string) (models.FriendRequest, error)
	TransitionRequest(ctx context.Context, requestID string, from, to models.FriendRequestStatus, at time.Time) (models.FriendRequest, error)
	ListPending(ctx context.Context, receiverID string) ([]models.FriendRequest, error)
	InsertFriendship(ctx context.Context, edge models.FriendshipEdge) error
	ListFriends(ctx context.Context, userID string) ([]models.FriendshipEdge, error)
	AreFriends(ctx context.Context, userA, userB string) (bool, error)
}
