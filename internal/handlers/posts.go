package handlers

import (
	"net/http"
	"strings"

	"github.com/socialapp/backend/internal/logging"
	"github.com/socialapp/backend/internal/metrics"
)

// PostHandler serves the global feed and accepts new posts.
type PostHandler struct {
	Feed      FeedLoader
	Publisher PostPublisher
}

// List handles GET /api/v1/posts, newest first.
func (h PostHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := requireIdentity(w, r); !ok {
		return
	}
	if h.Feed == nil {
		logging.FromContext(ctx).Error("feed unavailable")
		respondError(ctx, w, http.StatusServiceUnavailable, "feed unavailable")
		return
	}

	feed, err := h.Feed.Load(ctx)
	if err != nil {
		metrics.IncFeedLoad(metrics.StatusFailed)
		respondServiceError(ctx, w, err)
		return
	}
	metrics.IncFeedLoad(metrics.StatusSuccess)

	resp := make([]postResponse, 0, len(feed))
	for _, post := range feed {
		resp = append(resp, toPostResponse(post))
	}
	respondJSON(ctx, w, http.StatusOK, map[string][]postResponse{"posts": resp})
}

// Create handles POST /api/v1/posts.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	if h.Publisher == nil {
		logging.FromContext(ctx).Error("post publisher unavailable")
		respondError(ctx, w, http.StatusServiceUnavailable, "post publishing unavailable")
		return
	}

	var req createPostRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid post payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	post, err := h.Publisher.Publish(ctx, identity, req.Content, strings.TrimSpace(req.ImageURL))
	if err != nil {
		metrics.IncPostPublished(metrics.StatusFailed)
		respondServiceError(ctx, w, err)
		return
	}
	metrics.IncPostPublished(metrics.StatusSuccess)

	resp := postResponse{
		ID:        post.ID,
		UserID:    post.UserID,
		UserName:  post.AuthorName,
		UserPhoto: post.AuthorPhoto,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		CreatedAt: post.CreatedAt,
	}
	respondJSON(ctx, w, http.StatusCreated, map[string]postResponse{"post": resp})
}

type createPostRequest struct {
	Content  string `json:"content"`
	ImageURL string `json:"imageUrl"`
}
