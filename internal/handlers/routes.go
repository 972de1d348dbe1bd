package handlers

import (
	"net/http"

	"github.com/socialapp/backend/internal/metrics"
	"github.com/socialapp/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	DB             Pinger
	Users          UserStore
	Sessions       SessionManager
	Authenticator  middleware.TokenAuthenticator
	Directory      UserDirectory
	Profiles       middleware.ProfileLookup
	Friends        FriendService
	Feed           FeedLoader
	Posts          PostPublisher
	Uploader       ImageUploader
	MaxUploadBytes int64
	RateLimiter    middleware.RateLimiter
	TrustedProxies middleware.TrustedProxies
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Identity resolution is
// applied per route so the mux has recorded the matched pattern before it runs.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{DB: deps.DB}
	auth := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	users := UserHandler{Directory: deps.Directory}
	friends := FriendHandler{Friends: deps.Friends}
	posts := PostHandler{Feed: deps.Feed, Publisher: deps.Posts}
	media := MediaHandler{Uploader: deps.Uploader, MaxBytes: deps.MaxUploadBytes}

	authn := middleware.Authenticate(deps.Authenticator, deps.Profiles)
	authLimit := middleware.Limit(deps.RateLimiter, deps.TrustedProxies, "auth")
	sendLimit := middleware.Limit(deps.RateLimiter, deps.TrustedProxies, "friend-requests")

	protected := func(h http.HandlerFunc) http.Handler { return authn(h) }

	mux.HandleFunc("GET /healthz", health.Handle)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.Handle("POST /api/v1/auth/signup", authLimit(http.HandlerFunc(auth.SignUp)))
	mux.Handle("POST /api/v1/auth/login", authLimit(http.HandlerFunc(auth.Login)))
	mux.Handle("POST /api/v1/auth/refresh", authLimit(http.HandlerFunc(auth.Refresh)))
	mux.HandleFunc("POST /api/v1/auth/logout", auth.Logout)

	mux.Handle("GET /api/v1/users", protected(users.List))

	mux.Handle("GET /api/v1/friends", protected(friends.List))
	mux.Handle("GET /api/v1/friends/requests", protected(friends.Pending))
	mux.Handle("POST /api/v1/friends/requests", sendLimit(protected(friends.Send)))
	mux.Handle("POST /api/v1/friends/requests/accept", protected(friends.Accept))
	mux.Handle("POST /api/v1/friends/requests/decline", protected(friends.Decline))

	mux.Handle("GET /api/v1/posts", protected(posts.List))
	mux.Handle("POST /api/v1/posts", protected(posts.Create))

	mux.Handle("POST /api/v1/media", protected(media.Upload))
}
