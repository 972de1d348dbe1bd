package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/socialapp/backend/internal/auth"
	"github.com/socialapp/backend/internal/directory"
	"github.com/socialapp/backend/internal/logging"
	"github.com/socialapp/backend/internal/models"
)

// TokenAuthenticator resolves an access token to a user id.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// ProfileLookup resolves a user id to its directory profile.
type ProfileLookup interface {
	Lookup(ctx context.Context, uid string) (models.User, error)
}

// Authenticate resolves a bearer token into the session identity and stores it on the
// request context. Requests without an Authorization header pass through anonymously;
// handlers that need an identity reject them. A header carrying an unknown or expired
// token is rejected here.
func Authenticate(sessions TokenAuthenticator, users ProfileLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" || sessions == nil || users == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token, ok := bearerToken(header)
			if !ok {
				logger.Warn("malformed authorization header")
				writeError(w, http.StatusUnauthorized, "invalid authorization header")
				return
			}

			userID, err := sessions.Authenticate(ctx, token)
			if err != nil {
				status := http.StatusUnauthorized
				if !errors.Is(err, auth.ErrSessionNotFound) && !errors.Is(err, auth.ErrAccessTokenExpired) {
					status = http.StatusInternalServerError
				}
				logger.Warn("access token rejected", "error", err, "status", status)
				writeError(w, status, "invalid or expired access token")
				return
			}

			user, err := users.Lookup(ctx, userID)
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, directory.ErrUserNotFound) {
					status = http.StatusUnauthorized
				}
				logger.Warn("session user lookup failed", "userId", userID, "error", err, "status", status)
				writeError(w, status, "unable to resolve session user")
				return
			}

			ctx = auth.WithIdentity(ctx, models.IdentityFromUser(user))
			ctx = logging.WithAttrs(ctx, "user_id", user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
