package feed

import (
	"context"
	"fmt"
	"sort"

	"github.com/socialapp/backend/internal/directory"
	"github.com/socialapp/backend/internal/logging"
	"github.com/socialapp/backend/internal/models"
)

// UnknownAuthorName is shown for posts whose author cannot be resolved.
const UnknownAuthorName = "Unknown"

// Source lists every post, newest first.
type Source interface {
	ListFeed(ctx context.Context) ([]models.Post, error)
}

// Aggregator builds the reverse-chronological feed with author details attached.
type Aggregator struct {
	posts Source
	users directory.Resolver
}

// NewAggregator constructs an Aggregator.
func NewAggregator(posts Source, users directory.Resolver) *Aggregator {
	return &Aggregator{posts: posts, users: users}
}

// Load returns every post with its author's name and photo. Posts written with their
// author details need no directory access; the rest are resolved with one batched
// lookup. Authors that cannot be found are reported as UnknownAuthorName.
func (a *Aggregator) Load(ctx context.Context) (feed []models.EnrichedPost, err error) {
	ctx, span := logging.StartSpan(ctx, "feed.load")
	defer span.EndErr(&err)

	posts, err := a.posts.ListFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("load posts: %w", err)
	}

	var missing []string
	for _, post := range posts {
		if post.AuthorName == "" {
			missing = append(missing, post.UserID)
		}
	}

	var profiles map[string]models.User
	if len(missing) > 0 {
		profiles, err = a.users.LookupMany(ctx, missing)
		if err != nil {
			return nil, fmt.Errorf("resolve post authors: %w", err)
		}
		logging.FromContext(ctx).Debug("resolved legacy post authors", "requested", len(missing), "found", len(profiles))
	}

	feed = make([]models.EnrichedPost, 0, len(posts))
	for _, post := range posts {
		feed = append(feed, enrich(post, profiles))
	}

	sort.SliceStable(feed, func(i, j int) bool {
		if !feed[i].CreatedAt.Equal(feed[j].CreatedAt) {
			return feed[i].CreatedAt.After(feed[j].CreatedAt)
		}
		return feed[i].Seq > feed[j].Seq
	})

	return feed, nil
}

func enrich(post models.Post, profiles map[string]models.User) models.EnrichedPost {
	entry := models.EnrichedPost{Post: post}
	if post.AuthorName != "" {
		entry.UserName = post.AuthorName
		entry.UserPhoto = post.AuthorPhoto
		return entry
	}

	if user, ok := profiles[post.UserID]; ok && user.Name != "" {
		entry.UserName = user.Name
		entry.UserPhoto = user.Photo
		return entry
	}

	entry.UserName = UnknownAuthorName
	entry.UserPhoto = ""
	return entry
}
