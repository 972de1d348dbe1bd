package handlers

import (
	"context"
	"io"

	"github.com/socialapp/backend/internal/friends"
	"github.com/socialapp/backend/internal/models"
)

// UserStore captures the persistence operations required by the auth handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues, refreshes and revokes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, refreshToken string)
}

// UserDirectory lists registered users.
type UserDirectory interface {
	List(ctx context.Context, exclude string) ([]models.User, error)
}

// FriendService captures the friend-graph workflow.
type FriendService interface {
	SendRequest(ctx context.Context, sender models.Identity, receiverID string) (models.FriendRequest, error)
	AcceptRequest(ctx context.Context, receiver models.Identity, params friends.AcceptParams) (models.FriendRequest, error)
	DeclineRequest(ctx context.Context, receiver models.Identity, requestID string) (models.FriendRequest, error)
	ListPendingRequests(ctx context.Context, receiverID string) ([]models.FriendRequest, error)
	ListFriends(ctx context.Context, userID string) ([]models.FriendshipEdge, error)
}

// FeedLoader produces the enriched global feed.
type FeedLoader interface {
	Load(ctx context.Context) ([]models.EnrichedPost, error)
}

// PostPublisher writes new posts on behalf of the signed-in user.
type PostPublisher interface {
	Publish(ctx context.Context, author models.Identity, content, imageURL string) (models.Post, error)
}

// ImageUploader stores uploaded images and returns their public URL.
type ImageUploader interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
