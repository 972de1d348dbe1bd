package handlers

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/socialapp/backend/internal/auth"
	"github.com/socialapp/backend/internal/logging"
	"github.com/socialapp/backend/internal/models"
	"github.com/socialapp/backend/internal/posts"
	"github.com/socialapp/backend/internal/repositories"
)

const minPasswordLength = 8

// AuthHandler implements user authentication endpoints.
type AuthHandler struct {
	Users    UserStore
	Sessions SessionManager
	NowFunc  func() time.Time
}

// Login handles POST /api/v1/auth/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusServiceUnavailable, "authentication services unavailable")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		respondError(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.Users.FindByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("login user lookup failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to sign in")
			return
		}
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("login password mismatch", "userId", user.ID)
		respondError(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, authResponse{User: toUserResponse(user, true), Tokens: toTokensResponse(tokens)})
}

// SignUp handles POST /api/v1/auth/signup requests. The display name is required; the
// photo is optional but must be an absolute http(s) URL when present.
func (h AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Users == nil || h.Sessions == nil {
		logger.Error("authentication dependencies unavailable", "hasUsers", h.Users != nil, "hasSessions", h.Sessions != nil)
		respondError(ctx, w, http.StatusServiceUnavailable, "authentication services unavailable")
		return
	}

	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid signup payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Photo = strings.TrimSpace(req.Photo)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	switch {
	case req.Name == "":
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	case req.Email == "" || req.Password == "":
		respondError(ctx, w, http.StatusBadRequest, "email and password are required")
		return
	case req.Photo != "" && !posts.ValidImageURL(req.Photo):
		respondError(ctx, w, http.StatusBadRequest, "photo must be an absolute http or https url")
		return
	case len(req.Password) < minPasswordLength:
		respondError(ctx, w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	if _, err := mail.ParseAddress(req.Email); err != nil {
		logger.Warn("signup invalid email", "email", req.Email, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid email address")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("signup failed to hash password", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to secure password")
		return
	}

	now := h.now()
	user := models.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Photo:     req.Photo,
		Password:  string(hashed),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			respondError(ctx, w, http.StatusConflict, "account already exists")
			return
		}
		logger.Error("signup failed to create user", "error", err, "email", req.Email)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create account")
		return
	}

	tokens, err := h.Sessions.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("signup failed to issue session", "error", err, "userId", user.ID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create session")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, authResponse{User: toUserResponse(user, true), Tokens: toTokensResponse(tokens)})
}

// Refresh exchanges a refresh token for a new session.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Sessions == nil {
		logger.Error("session manager unavailable")
		respondError(ctx, w, http.StatusServiceUnavailable, "session service unavailable")
		return
	}

	token, ok := h.decodeRefreshToken(w, r)
	if !ok {
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, token)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, auth.ErrRefreshTokenExpired) || errors.Is(err, auth.ErrSessionNotFound) {
			status = http.StatusUnauthorized
		}
		logger.Warn("refresh failed", "error", err, "status", status)
		respondError(ctx, w, status, "unable to refresh session")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]tokensResponse{"tokens": toTokensResponse(tokens)})
}

// Logout revokes the session identified by the refresh token. Unknown tokens are
// not reported so the call is safe to repeat.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.Sessions == nil {
		logging.FromContext(ctx).Error("session manager unavailable")
		respondError(ctx, w, http.StatusServiceUnavailable, "session service unavailable")
		return
	}

	token, ok := h.decodeRefreshToken(w, r)
	if !ok {
		return
	}

	h.Sessions.Revoke(ctx, token)
	w.WriteHeader(http.StatusNoContent)
}

func (h AuthHandler) decodeRefreshToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	ctx := r.Context()

	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid refresh payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return "", false
	}

	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		respondError(ctx, w, http.StatusBadRequest, "refresh token is required")
		return "", false
	}
	return token, true
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Name     string `json:"name"`
	Photo    string `json:"photo"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
