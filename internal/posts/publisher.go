package posts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/socialapp/backend/internal/directory"
	"github.com/socialapp/backend/internal/events"
	"github.com/socialapp/backend/internal/logging"
	"github.com/socialapp/backend/internal/models"
	"github.com/socialapp/backend/internal/repositories"
)

var (
	ErrNoIdentity      = errors.New("no signed-in user")
	ErrInvalidImageURL = errors.New("image url must be an absolute http or https url")
	ErrUnknownAuthor   = errors.New("author is not a registered user")
)

// Publisher writes new posts with their author's name and photo copied in.
type Publisher struct {
	store  repositories.PostRepository
	users  directory.Resolver
	events events.Emitter

	now   func() time.Time
	newID func() string
}

// NewPublisher constructs a Publisher. emitter may be nil.
func NewPublisher(store repositories.PostRepository, users directory.Resolver, emitter events.Emitter) *Publisher {
	return &Publisher{
		store:  store,
		users:  users,
		events: emitter,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// Publish stores a post by author. Empty content is allowed. imageURL is stored
// verbatim and must be empty or an absolute http(s) URL. The creation time comes
// from the server clock.
func (p *Publisher) Publish(ctx context.Context, author models.Identity, content, imageURL string) (post models.Post, err error) {
	ctx, span := logging.StartSpan(ctx, "posts.publish")
	defer span.EndErr(&err)

	if author.IsZero() {
		return models.Post{}, ErrNoIdentity
	}

	imageURL = strings.TrimSpace(imageURL)
	if imageURL != "" && !ValidImageURL(imageURL) {
		return models.Post{}, ErrInvalidImageURL
	}

	name, photo := author.DisplayName, author.PhotoURL
	if name == "" {
		user, err := p.users.Lookup(ctx, author.UID)
		switch {
		case err == nil:
			name = user.Name
			if photo == "" {
				photo = user.Photo
			}
		case errors.Is(err, directory.ErrUserNotFound):
			return models.Post{}, ErrUnknownAuthor
		default:
			return models.Post{}, fmt.Errorf("resolve author: %w", err)
		}
	}

	post = models.Post{
		ID:          p.newID(),
		UserID:      author.UID,
		AuthorName:  name,
		AuthorPhoto: photo,
		Content:     content,
		ImageURL:    imageURL,
		CreatedAt:   p.now(),
	}

	stored, err := p.store.Create(ctx, post)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Post{}, ErrUnknownAuthor
		}
		return models.Post{}, fmt.Errorf("create post: %w", err)
	}

	if p.events != nil {
		p.events.Emit(ctx, events.PostPublished, events.PostEvent{
			PostID:     stored.ID,
			UserID:     stored.UserID,
			OccurredAt: stored.CreatedAt,
		})
	}
	return stored, nil
}

// ValidImageURL reports whether raw is an absolute http or https URL.
func ValidImageURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return parsed.Host != ""
}
