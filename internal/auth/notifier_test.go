package auth

import (
	"context"
	"testing"
	"time"
)

func TestNotifierReleasesSubscriptionOnCancel(t *testing.T) {
	notifier := NewNotifier()
	ctx, cancel := context.WithCancel(context.Background())

	changes := notifier.Subscribe(ctx)
	if notifier.Subscribers() != 1 {
		t.Fatalf("expected one subscriber got %d", notifier.Subscribers())
	}

	cancel()

	select {
	case _, ok := <-changes:
		if ok {
			t.Fatal("expected channel to be closed without deliveries")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription was not released after cancel")
	}

	if notifier.Subscribers() != 0 {
		t.Fatalf("expected no subscribers got %d", notifier.Subscribers())
	}

	// Publishing after release must not panic on the closed channel.
	notifier.Publish(IdentityChange{UserID: "u1", SignedIn: true})
}

func TestNotifierFanOut(t *testing.T) {
	notifier := NewNotifier()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := notifier.Subscribe(ctx)
	b := notifier.Subscribe(ctx)

	notifier.Publish(IdentityChange{UserID: "u1", SignedIn: true})

	for _, ch := range []<-chan IdentityChange{a, b} {
		select {
		case change := <-ch:
			if change.UserID != "u1" {
				t.Fatalf("unexpected change %+v", change)
			}
		case <-time.After(time.Second):
			t.Fatal("expected change to be delivered")
		}
	}
}

func TestNilNotifier(t *testing.T) {
	var notifier *Notifier
	notifier.Publish(IdentityChange{UserID: "u1"})
	if _, ok := <-notifier.Subscribe(context.Background()); ok {
		t.Fatal("expected closed channel from nil notifier")
	}
	if notifier.Subscribers() != 0 {
		t.Fatal("expected zero subscribers")
	}
}
