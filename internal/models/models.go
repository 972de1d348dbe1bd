package models

import (
	"strconv"
	"time"
)

// User represents a registered account in the user directory.
type User struct {
	ID        string
	Name      string
	Email     string
	Photo     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity is the authenticated session identity passed explicitly into service calls.
type Identity struct {
	UID         string
	DisplayName string
	Email       string
	PhotoURL    string
}

// IsZero reports whether no user is signed in.
func (i Identity) IsZero() bool {
	return i.UID == ""
}

// IdentityFromUser builds the session identity for a directory user.
func IdentityFromUser(u User) Identity {
	return Identity{UID: u.ID, DisplayName: u.Name, Email: u.Email, PhotoURL: u.Photo}
}

// FriendRequestStatus is the lifecycle state of a friend request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestDeclined FriendRequestStatus = "declined"
)

// FriendRequest represents the invitation workflow between two users.
type FriendRequest struct {
	ID          string
	SenderID    string
	SenderName  string
	ReceiverID  string
	Status      FriendRequestStatus
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// PairKey returns the canonical identity of the unordered user pair. The first id is
// length-prefixed so ids containing the separator cannot collide.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return strconv.Itoa(len(a)) + ":" + a + ":" + b
}

// FriendshipStatusAccepted is the only status an edge is ever stored with.
const FriendshipStatusAccepted = "accepted"

// FriendshipEdge is one direction of a symmetric friendship. FriendName caches the
// display name of UserID2 at the time the friendship was created.
type FriendshipEdge struct {
	UserID1    string
	UserID2    string
	FriendName string
	Status     string
	RequestID  string
	CreatedAt  time.Time
}

// Post is a published status update. AuthorName and AuthorPhoto are copied from the
// author's profile when the post is written.
type Post struct {
	ID          string
	UserID      string
	AuthorName  string
	AuthorPhoto string
	Content     string
	ImageURL    string
	CreatedAt   time.Time
	Seq         int64
}

// EnrichedPost is a post joined with its author's display fields.
type EnrichedPost struct {
	Post
	UserName  string
	UserPhoto string
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
