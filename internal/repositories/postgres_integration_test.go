package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/socialapp/backend/internal/auth"
	"github.com/socialapp/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)

	user := models.User{
		ID:        uuid.NewString(),
		Name:      "Alice",
		Email:     "alice@example.com",
		Photo:     "https://images.example.com/alice.png",
		Password:  "secret-hash",
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		UpdatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	dup := user
	dup.ID = uuid.NewString()
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict when creating duplicate email, got %v", err)
	}

	fetched, err := repo.FindByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if fetched.ID != user.ID || fetched.Name != user.Name || fetched.Photo != user.Photo || fetched.Password != user.Password {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}

	bob := createTestUser(t, repo, "Bob", "bob@example.com")

	many, err := repo.FindByIDs(ctx, []string{user.ID, bob.ID, uuid.NewString()})
	if err != nil {
		t.Fatalf("find by ids: %v", err)
	}
	if len(many) != 2 {
		t.Fatalf("expected 2 users, got %d", len(many))
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Alice" || all[1].Name != "Bob" {
		t.Fatalf("unexpected user listing: %+v", all)
	}
}

func TestPostgresFriendRepository_RequestLifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "Alice", "alice@example.com")
	bob := createTestUser(t, userRepo, "Bob", "bob@example.com")

	repo := NewPostgresFriendRepository(testPool)

	request := models.FriendRequest{
		ID:         uuid.NewString(),
		SenderID:   alice.ID,
		SenderName: alice.Name,
		ReceiverID: bob.ID,
		Status:     models.FriendRequestPending,
		CreatedAt:  time.Now().UTC().Add(-time.Hour),
	}
	if err := repo.CreateRequest(ctx, request); err != nil {
		t.Fatalf("create friend request: %v", err)
	}

	reverse := models.FriendRequest{
		ID:         uuid.NewString(),
		SenderID:   bob.ID,
		SenderName: bob.Name,
		ReceiverID: alice.ID,
		Status:     models.FriendRequestPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := repo.CreateRequest(ctx, reverse); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for reverse pending request, got %v", err)
	}

	pending, err := repo.FindPendingBetween(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("find pending between: %v", err)
	}
	if pending.ID != request.ID {
		t.Fatalf("expected pending request %s, got %s", request.ID, pending.ID)
	}

	inbox, err := repo.ListPending(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(inbox) != 1 || inbox[0].SenderName != "Alice" {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}

	accepted, err := repo.TransitionRequest(ctx, request.ID, models.FriendRequestPending, models.FriendRequestAccepted, time.Now().UTC())
	if err != nil {
		t.Fatalf("transition request: %v", err)
	}
	if accepted.Status != models.FriendRequestAccepted || accepted.RespondedAt == nil {
		t.Fatalf("expected accepted request with response time, got %+v", accepted)
	}

	current, err := repo.TransitionRequest(ctx, request.ID, models.FriendRequestPending, models.FriendRequestAccepted, time.Now().UTC())
	if !errors.Is(err, ErrStaleStatus) {
		t.Fatalf("expected ErrStaleStatus on second transition, got %v", err)
	}
	if current.Status != models.FriendRequestAccepted {
		t.Fatalf("expected current record to be returned, got %+v", current)
	}

	if _, err := repo.TransitionRequest(ctx, uuid.NewString(), models.FriendRequestPending, models.FriendRequestAccepted, time.Now().UTC()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown request, got %v", err)
	}

	inbox, err = repo.ListPending(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list pending after accept: %v", err)
	}
	if len(inbox) != 0 {
		t.Fatalf("expected empty inbox after accept, got %d", len(inbox))
	}

	// The pair is free again once the earlier request left pending.
	reverse.ID = uuid.NewString()
	if err := repo.CreateRequest(ctx, reverse); err != nil {
		t.Fatalf("create request after accept: %v", err)
	}
}

func TestPostgresFriendRepository_Friendships(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	alice := createTestUser(t, userRepo, "Alice", "alice@example.com")
	bob := createTestUser(t, userRepo, "Bob", "bob@example.com")

	repo := NewPostgresFriendRepository(testPool)
	now := time.Now().UTC()

	edges := []models.FriendshipEdge{
		{UserID1: alice.ID, UserID2: bob.ID, FriendName: "Bob", Status: models.FriendshipStatusAccepted, RequestID: "req-1", CreatedAt: now},
		{UserID1: bob.ID, UserID2: alice.ID, FriendName: "Alice", Status: models.FriendshipStatusAccepted, RequestID: "req-1", CreatedAt: now},
	}
	for i := 0; i < 2; i++ {
		for _, edge := range edges {
			if err := repo.InsertFriendship(ctx, edge); err != nil {
				t.Fatalf("insert friendship: %v", err)
			}
		}
	}

	friends, err := repo.ListFriends(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list friends: %v", err)
	}
	if len(friends) != 1 || friends[0].UserID2 != bob.ID || friends[0].FriendName != "Bob" {
		t.Fatalf("unexpected friends for alice: %+v", friends)
	}

	ok, err := repo.AreFriends(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("are friends: %v", err)
	}
	if !ok {
		t.Fatal("expected bob and alice to be friends")
	}

	ok, err = repo.AreFriends(ctx, bob.ID, uuid.NewString())
	if err != nil {
		t.Fatalf("are friends with stranger: %v", err)
	}
	if ok {
		t.Fatal("expected no friendship with a stranger")
	}
}

func TestPostgresSessionStore_SaveFindAndDelete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, userRepo, "Owner", "owner@example.com")

	store := NewPostgresSessionStore(testPool)
	expires := time.Now().UTC().Add(24 * time.Hour)
	session := auth.Session{
		AccessToken:     uuid.NewString(),
		AccessExpiresAt: time.Now().UTC().Add(15 * time.Minute),
		RefreshToken:    uuid.NewString(),
		UserID:          user.ID,
		ExpiresAt:       expires,
	}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find session: %v", err)
	}
	if loaded.UserID != session.UserID || !timesClose(loaded.ExpiresAt, expires, time.Millisecond) {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	byAccess, err := store.FindByAccessToken(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("find session by access token: %v", err)
	}
	if byAccess.RefreshToken != session.RefreshToken {
		t.Fatalf("expected refresh token %s, got %s", session.RefreshToken, byAccess.RefreshToken)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, err := store.FindByAccessToken(ctx, session.AccessToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete, got %v", err)
	}
	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice, got %v", err)
	}
}

func TestPostgresPostRepository_ListFeed(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	postRepo := NewPostgresPostRepository(testPool)

	x := createTestUser(t, userRepo, "X", "x@example.com")
	y := createTestUser(t, userRepo, "Y", "y@example.com")

	base := time.Now().UTC().Truncate(time.Millisecond)
	posts := []models.Post{
		{ID: uuid.NewString(), UserID: x.ID, AuthorName: "X", Content: "first", CreatedAt: base},
		{ID: uuid.NewString(), UserID: y.ID, AuthorName: "Y", Content: "tied-early", CreatedAt: base.Add(time.Minute)},
		{ID: uuid.NewString(), UserID: x.ID, AuthorName: "X", Content: "tied-late", CreatedAt: base.Add(time.Minute)},
	}

	var lastSeq int64
	for _, post := range posts {
		stored, err := postRepo.Create(ctx, post)
		if err != nil {
			t.Fatalf("create post: %v", err)
		}
		if stored.Seq <= lastSeq {
			t.Fatalf("expected increasing sequence, got %d after %d", stored.Seq, lastSeq)
		}
		lastSeq = stored.Seq
	}

	feed, err := postRepo.ListFeed(ctx)
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}

	got := make([]string, 0, len(feed))
	for _, post := range feed {
		got = append(got, post.Content)
	}
	want := []string{"tied-late", "tied-early", "first"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("unexpected feed order: got %v want %v", got, want)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE posts, friends, friend_requests, sessions, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, name, email string) models.User {
	t.Helper()
	user := models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  "password-hash",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func timesClose(a, b time.Time, delta time.Duration) bool {
	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= delta
}
