package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestManagerIssueAndRefresh(t *testing.T) {
	store := NewInMemorySessionStore()
	manager := NewManager(time.Minute, time.Hour, store, nil)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old token should have been removed")
	}
	if _, err := manager.Authenticate(context.Background(), tokens.AccessToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected rotated access token to be rejected, got %v", err)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager := NewManager(time.Minute, time.Hour, NewInMemorySessionStore(), nil)
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerAuthenticate(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	manager := NewManager(time.Minute, time.Hour, NewInMemorySessionStore(), nil)
	manager.now = func() time.Time { return now }

	tokens, err := manager.Issue(context.Background(), "user-7")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := manager.Authenticate(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if userID != "user-7" {
		t.Fatalf("expected user-7 got %s", userID)
	}

	if _, err := manager.Authenticate(context.Background(), ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected session not found got %v", err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := manager.Authenticate(context.Background(), tokens.AccessToken); !errors.Is(err, ErrAccessTokenExpired) {
		t.Fatalf("expected access token expired got %v", err)
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager := NewManager(time.Minute, time.Millisecond, NewInMemorySessionStore(), nil)

	if _, err := manager.Refresh(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrRefreshTokenExpired {
		t.Fatalf("expected refresh expired got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestManagerPublishesIdentityChanges(t *testing.T) {
	notifier := NewNotifier()
	manager := NewManager(time.Minute, time.Hour, NewInMemorySessionStore(), notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := notifier.Subscribe(ctx)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)

	first := <-changes
	if first.UserID != "user-1" || !first.SignedIn {
		t.Fatalf("expected sign-in change got %+v", first)
	}
	second := <-changes
	if second.UserID != "user-1" || second.SignedIn {
		t.Fatalf("expected sign-out change got %+v", second)
	}
}
