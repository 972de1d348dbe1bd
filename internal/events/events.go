package events

import (
	"context"
	"time"
)

// Routing keys for domain events.
const (
	FriendRequestSent     = "friend.request.sent"
	FriendRequestAccepted = "friend.request.accepted"
	FriendRequestDeclined = "friend.request.declined"
	PostPublished         = "post.published"
)

// Emitter accepts domain events for asynchronous delivery. Emit never blocks on the
// broker and never reports delivery failures to the caller.
type Emitter interface {
	Emit(ctx context.Context, name string, payload any)
}

// FriendRequestEvent is the payload of the friend.request.* events.
type FriendRequestEvent struct {
	RequestID  string    `json:"requestId"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurredAt"`
}

// PostEvent is the payload of post.published.
type PostEvent struct {
	PostID     string    `json:"postId"`
	UserID     string    `json:"userId"`
	OccurredAt time.Time `json:"occurredAt"`
}
