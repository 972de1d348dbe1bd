package friends

import "errors"

var (
	ErrNoIdentity            = errors.New("no signed-in user")
	ErrMissingReceiver       = errors.New("receiver id is required")
	ErrCannotFriendSelf      = errors.New("cannot send friend request to yourself")
	ErrMissingName           = errors.New("display name is required")
	ErrUserNotFound          = errors.New("user not found")
	ErrAlreadyFriends        = errors.New("users are already friends")
	ErrReverseRequestPending = errors.New("a pending request from the other user already exists")
	ErrRequestNotFound       = errors.New("friend request not found")
	ErrNotRecipient          = errors.New("only the recipient can accept or decline")
	ErrSenderMismatch        = errors.New("sender does not match the friend request")
	ErrRequestNotPending     = errors.New("friend request is not pending")
)
