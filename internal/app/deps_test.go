package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/socialapp/backend/internal/auth"
	"github.com/socialapp/backend/internal/config"
	"github.com/socialapp/backend/internal/directory"
	"github.com/socialapp/backend/internal/models"
)

type fakePool struct {
	pingErr error
}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (p fakePool) Ping(context.Context) error { return p.pingErr }

func (fakePool) Close() {}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testConfig() config.Config {
	return config.Config{
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		ProfileCacheTTL: time.Minute,
		Events:          config.EventsConfig{QueueSize: 4, Workers: 1},
		RateLimit:       config.RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 2},
	}
}

func TestBuildDependencies(t *testing.T) {
	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, testConfig(), discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cleanup(ctx); err != nil {
			t.Fatalf("cleanup: %v", err)
		}
	}()

	checks := map[string]bool{
		"database":      deps.DB != nil,
		"users":         deps.Users != nil,
		"sessions":      deps.Sessions != nil,
		"authenticator": deps.Authenticator != nil,
		"directory":     deps.Directory != nil,
		"profiles":      deps.Profiles != nil,
		"friends":       deps.Friends != nil,
		"feed":          deps.Feed != nil,
		"posts":         deps.Posts != nil,
		"rate limiter":  deps.RateLimiter != nil,
	}
	for name, ok := range checks {
		if !ok {
			t.Fatalf("expected %s to be configured", name)
		}
	}
	if deps.Uploader != nil {
		t.Fatal("expected uploads to stay disabled without a bucket")
	}
}

func TestBuildDependenciesWithObjectStore(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := testConfig()
	cfg.ObjectStore = config.ObjectStoreConfig{Bucket: "test-bucket", Endpoint: "http://localhost:9000", Region: "us-east-1"}

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = cleanup(context.Background()) }()

	if deps.Uploader == nil {
		t.Fatal("expected uploader when a bucket is configured")
	}
}

func TestNewHandlerServesHealth(t *testing.T) {
	for name, tc := range map[string]struct {
		pool fakePool
		want int
	}{
		"healthy":  {pool: fakePool{}, want: http.StatusOK},
		"degraded": {pool: fakePool{pingErr: errors.New("refused")}, want: http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			deps, cleanup, err := buildDependencies(context.Background(), tc.pool, testConfig(), discardLogger())
			if err != nil {
				t.Fatalf("build dependencies: %v", err)
			}
			defer func() { _ = cleanup(context.Background()) }()

			rec := httptest.NewRecorder()
			newHandler(discardLogger(), deps).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, rec.Code)
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Fatal("expected request logger to assign a request id")
			}
		})
	}
}

type countingResolver struct {
	lookups atomic.Int32
}

func (r *countingResolver) Lookup(_ context.Context, uid string) (models.User, error) {
	r.lookups.Add(1)
	return models.User{ID: uid, Name: "User " + uid}, nil
}

func (r *countingResolver) LookupMany(ctx context.Context, uids []string) (map[string]models.User, error) {
	out := make(map[string]models.User, len(uids))
	for _, uid := range uids {
		user, _ := r.Lookup(ctx, uid)
		out[uid] = user
	}
	return out, nil
}

func TestForgetProfilesOnIdentityChange(t *testing.T) {
	base := &countingResolver{}
	profiles := directory.NewCachingDirectory(base, time.Hour)
	notifier := auth.NewNotifier()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		forgetProfilesOnIdentityChange(ctx, notifier, profiles, discardLogger())
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for notifier.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := profiles.Lookup(context.Background(), "u1"); err != nil {
		t.Fatalf("lookup: %v", err)
	}
	notifier.Publish(auth.IdentityChange{UserID: "u1", SignedIn: true})

	for base.lookups.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("expected cached profile to be evicted after sign-in")
		}
		if _, err := profiles.Lookup(context.Background(), "u1"); err != nil {
			t.Fatalf("lookup: %v", err)
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestBuildDependenciesRejectsInvalidTrustedProxy(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.TrustedProxies = []string{"10.0.0.0/33"}

	if _, _, err := buildDependencies(context.Background(), fakePool{}, cfg, discardLogger()); err == nil {
		t.Fatal("expected invalid trusted proxy to fail wiring")
	}
}
