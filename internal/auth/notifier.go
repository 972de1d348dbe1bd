package auth

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// IdentityChange describes a sign-in or sign-out of a user.
type IdentityChange struct {
	UserID   string
	SignedIn bool
}

// Notifier fans identity changes out to subscribers. A nil *Notifier is valid and
// drops every change.
type Notifier struct {
	mu   sync.RWMutex
	subs map[*subscription]struct{}
}

type subscription struct {
	ctx context.Context
	ch  chan IdentityChange
}

// NewNotifier returns an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[*subscription]struct{})}
}

// Subscribe registers for identity changes until ctx is done. The returned channel
// is closed once the subscription has been released, so callers never need to
// unsubscribe by hand. Changes published while the buffer is full are dropped.
func (n *Notifier) Subscribe(ctx context.Context) <-chan IdentityChange {
	ch := make(chan IdentityChange, subscriberBuffer)
	if n == nil {
		close(ch)
		return ch
	}

	sub := &subscription{ctx: ctx, ch: ch}
	n.mu.Lock()
	n.subs[sub] = struct{}{}
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.mu.Lock()
		delete(n.subs, sub)
		close(sub.ch)
		n.mu.Unlock()
	}()

	return ch
}

// Publish delivers change to every live subscriber.
func (n *Notifier) Publish(change IdentityChange) {
	if n == nil {
		return
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	for sub := range n.subs {
		if sub.ctx.Err() != nil {
			continue
		}
		select {
		case sub.ch <- change:
		default:
		}
	}
}

// Subscribers reports the number of live subscriptions.
func (n *Notifier) Subscribers() int {
	if n == nil {
		return 0
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}
