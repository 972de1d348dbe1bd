package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/socialapp/backend/internal/auth"
	"github.com/socialapp/backend/internal/config"
	"github.com/socialapp/backend/internal/db"
	"github.com/socialapp/backend/internal/directory"
	"github.com/socialapp/backend/internal/events"
	"github.com/socialapp/backend/internal/feed"
	"github.com/socialapp/backend/internal/friends"
	"github.com/socialapp/backend/internal/handlers"
	"github.com/socialapp/backend/internal/middleware"
	"github.com/socialapp/backend/internal/posts"
	"github.com/socialapp/backend/internal/repositories"
	"github.com/socialapp/backend/internal/storage"
)

const rateLimitIdleTTL = 10 * time.Minute

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup drains background workers and must be called on shutdown.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	friendStore := repositories.NewPostgresFriendRepository(pool)
	postStore := repositories.NewPostgresPostRepository(pool)

	proxies, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return handlers.Dependencies{}, nil, fmt.Errorf("configure rate limiting: %w", err)
	}

	notifier := auth.NewNotifier()
	sessions := auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, repositories.NewPostgresSessionStore(pool), notifier)

	dir := directory.New(users)
	profiles := directory.NewCachingDirectory(dir, cfg.ProfileCacheTTL)

	publisher, err := newEventPublisher(cfg.Events, logger)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}
	dispatcher := events.NewDispatcher(publisher, events.DispatcherConfig{
		QueueSize: cfg.Events.QueueSize,
		Workers:   cfg.Events.Workers,
	}, logger)

	var uploader handlers.ImageUploader
	if cfg.ObjectStore.Enabled() {
		s3Uploader, err := storage.NewS3Uploader(ctx, cfg.ObjectStore)
		if err != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			return handlers.Dependencies{}, nil, errors.Join(fmt.Errorf("configure object storage: %w", err), dispatcher.Shutdown(shutdownCtx))
		}
		uploader = s3Uploader
	} else {
		logger.Info("object storage not configured, image uploads disabled")
	}

	watchCtx, stopWatching := context.WithCancel(context.Background())
	go forgetProfilesOnIdentityChange(watchCtx, notifier, profiles, logger)

	deps := handlers.Dependencies{
		DB:             pool,
		Users:          users,
		Sessions:       sessions,
		Authenticator:  sessions,
		Directory:      dir,
		Profiles:       profiles,
		Friends:        friends.NewService(friendStore, profiles, dispatcher),
		Feed:           feed.NewAggregator(postStore, profiles),
		Posts:          posts.NewPublisher(postStore, profiles, dispatcher),
		Uploader:       uploader,
		MaxUploadBytes: cfg.MaxUploadBytes,
		RateLimiter:    middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, rateLimitIdleTTL),
		TrustedProxies: proxies,
	}

	cleanup := func(ctx context.Context) error {
		stopWatching()
		return dispatcher.Shutdown(ctx)
	}

	return deps, cleanup, nil
}

func newEventPublisher(cfg config.EventsConfig, logger *slog.Logger) (events.Publisher, error) {
	if cfg.AMQPURL == "" {
		logger.Info("event broker not configured, domain events will be discarded")
		return events.NewNoopPublisher(logger), nil
	}
	publisher, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.Exchange)
	if err != nil {
		return nil, fmt.Errorf("connect event broker: %w", err)
	}
	return publisher, nil
}

// forgetProfilesOnIdentityChange evicts cached profiles whenever a user signs in or
// out so the next request sees their current directory entry.
func forgetProfilesOnIdentityChange(ctx context.Context, notifier *auth.Notifier, profiles *directory.CachingDirectory, logger *slog.Logger) {
	for change := range notifier.Subscribe(ctx) {
		profiles.Forget(change.UserID)
		logger.Debug("identity changed", "userId", change.UserID, "signedIn", change.SignedIn)
	}
}
