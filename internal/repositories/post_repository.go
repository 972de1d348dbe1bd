package repositories

import (
	"context"

	"github.com/socialapp/backend/internal/models"
)

// PostRepository exposes data access for published posts.
type PostRepository interface {
	Create(ctx context.Context, post models.Post) (models.Post, error)
	ListFeed(ctx context.Context) ([]models.Post, error)
}
