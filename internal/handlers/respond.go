package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/socialapp/backend/internal/auth"
	"github.com/socialapp/backend/internal/friends"
	"github.com/socialapp/backend/internal/logging"
	"github.com/socialapp/backend/internal/models"
	"github.com/socialapp/backend/internal/posts"
	"github.com/socialapp/backend/internal/storage"
)

const maxJSONBody = 1 << 20

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

// respondServiceError maps domain errors onto HTTP status codes. Unknown errors are
// treated as store failures and their detail is kept out of the response.
func respondServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(ctx).Error("service call failed", "error", err)
		message = "internal server error"
	}
	respondError(ctx, w, status, message)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, friends.ErrNoIdentity), errors.Is(err, posts.ErrNoIdentity), errors.Is(err, posts.ErrUnknownAuthor):
		return http.StatusUnauthorized
	case errors.Is(err, friends.ErrNotRecipient):
		return http.StatusForbidden
	case errors.Is(err, friends.ErrRequestNotFound), errors.Is(err, friends.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, friends.ErrRequestNotPending), errors.Is(err, friends.ErrReverseRequestPending), errors.Is(err, friends.ErrAlreadyFriends):
		return http.StatusConflict
	case errors.Is(err, friends.ErrMissingReceiver), errors.Is(err, friends.ErrCannotFriendSelf), errors.Is(err, friends.ErrMissingName),
		errors.Is(err, friends.ErrSenderMismatch), errors.Is(err, posts.ErrInvalidImageURL):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// requireIdentity returns the signed-in identity or writes a 401.
func requireIdentity(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(r.Context(), w, http.StatusUnauthorized, "authentication required")
		return models.Identity{}, false
	}
	return identity, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(dst)
}
