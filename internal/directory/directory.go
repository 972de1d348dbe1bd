package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/socialapp/backend/internal/models"
	"github.com/socialapp/backend/internal/repositories"
)

// ErrUserNotFound indicates no user exists with the requested uid.
var ErrUserNotFound = errors.New("user not found")

// Store is the subset of user persistence the directory reads from.
type Store interface {
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

// Resolver resolves user profiles by uid.
type Resolver interface {
	Lookup(ctx context.Context, uid string) (models.User, error)
	LookupMany(ctx context.Context, uids []string) (map[string]models.User, error)
}

// Directory answers profile queries against the user store.
type Directory struct {
	store Store
}

// New constructs a Directory.
func New(store Store) *Directory {
	return &Directory{store: store}
}

// List returns every user except exclude, in the order the store provides (by name).
func (d *Directory) List(ctx context.Context, exclude string) ([]models.User, error) {
	users, err := d.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	filtered := make([]models.User, 0, len(users))
	for _, user := range users {
		if user.ID == exclude {
			continue
		}
		filtered = append(filtered, user)
	}
	return filtered, nil
}

// Lookup returns the profile for uid.
func (d *Directory) Lookup(ctx context.Context, uid string) (models.User, error) {
	if uid == "" {
		return models.User{}, ErrUserNotFound
	}

	user, err := d.store.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("lookup user %s: %w", uid, err)
	}
	return user, nil
}

// LookupMany resolves every distinct uid with a single store round-trip. Unknown uids
// are absent from the result.
func (d *Directory) LookupMany(ctx context.Context, uids []string) (map[string]models.User, error) {
	ids := distinct(uids)
	found := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	users, err := d.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup users: %w", err)
	}
	for _, user := range users {
		found[user.ID] = user
	}
	return found, nil
}

func distinct(uids []string) []string {
	seen := make(map[string]struct{}, len(uids))
	out := make([]string, 0, len(uids))
	for _, uid := range uids {
		if uid == "" {
			continue
		}
		if _, ok := seen[uid]; ok {
			continue
		}
		seen[uid] = struct{}{}
		out = append(out, uid)
	}
	return out
}
