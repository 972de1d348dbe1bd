package handlers

import (
	"net/http"

	"github.com/socialapp/backend/internal/logging"
)

// UserHandler exposes the user directory.
type UserHandler struct {
	Directory UserDirectory
}

// List handles GET /api/v1/users, returning every user except the caller.
func (h UserHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	if h.Directory == nil {
		logging.FromContext(ctx).Error("user directory unavailable")
		respondError(ctx, w, http.StatusServiceUnavailable, "user directory unavailable")
		return
	}

	users, err := h.Directory.List(ctx, identity.UID)
	if err != nil {
		respondServiceError(ctx, w, err)
		return
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u, false))
	}
	respondJSON(ctx, w, http.StatusOK, map[string][]userResponse{"users": resp})
}
