package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/socialapp/backend/internal/db"
	"github.com/socialapp/backend/internal/models"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

type scanner interface {
	Scan(dest ...any) error
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, name, email, photo, password_hash, created_at, updated_at`

func scanUser(row scanner) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Photo, &user.Password, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, user.ID, user.Name, user.Email, user.Photo, user.Password, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// FindByID fetches a user by uid.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, query string, arg string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}

	return user, nil
}

// FindByIDs fetches every user whose uid is in ids with a single query. Unknown ids
// are skipped.
func (r *PostgresUserRepository) FindByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
}

// List returns every registered user ordered by display name.
func (r *PostgresUserRepository) List(ctx context.Context) ([]models.User, error) {
	return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY name, id`)
}

func (r *PostgresUserRepository) list(ctx context.Context, query string, args ...any) ([]models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// PostgresFriendRepository provides PostgreSQL-backed persistence for friend requests
// and friendship edges.
type PostgresFriendRepository struct {
	pool db.Pool
}

// NewPostgresFriendRepository constructs a friend repository backed by PostgreSQL.
func NewPostgresFriendRepository(pool db.Pool) *PostgresFriendRepository {
	return &PostgresFriendRepository{pool: pool}
}

const friendRequestColumns = `id, sender_id, sender_name, receiver_id, status, created_at, responded_at`

func scanFriendRequest(row scanner) (models.FriendRequest, error) {
	var (
		req         models.FriendRequest
		status      string
		respondedAt sql.NullTime
	)
	if err := row.Scan(&req.ID, &req.SenderID, &req.SenderName, &req.ReceiverID, &status, &req.CreatedAt, &respondedAt); err != nil {
		return models.FriendRequest{}, err
	}
	req.Status = models.FriendRequestStatus(status)
	req.CreatedAt = req.CreatedAt.UTC()
	if respondedAt.Valid {
		t := respondedAt.Time.UTC()
		req.RespondedAt = &t
	}
	return req, nil
}

// CreateRequest persists a new friend request. The partial unique index on pair_key
// rejects a second pending request for the same unordered pair with ErrConflict.
func (r *PostgresFriendRepository) CreateRequest(ctx context.Context, request models.FriendRequest) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO friend_requests (id, sender_id, sender_name, receiver_id, status, pair_key, created_at, responded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, request.ID, request.SenderID, request.SenderName, request.ReceiverID, string(request.Status),
		models.PairKey(request.SenderID, request.ReceiverID), request.CreatedAt, request.RespondedAt)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return ErrConflict
		case pgForeignKeyViolation:
			return ErrNotFound
		}
		return fmt.Errorf("insert friend request: %w", err)
	}

	return nil
}

// FindRequest loads a friend request by id.
func (r *PostgresFriendRepository) FindRequest(ctx context.Context, requestID string) (models.FriendRequest, error) {
	return r.findRequest(ctx, `SELECT `+friendRequestColumns+` FROM friend_requests WHERE id = $1`, requestID)
}

// FindPendingBetween returns the pending request between two users in either direction.
func (r *PostgresFriendRepository) FindPendingBetween(ctx context.Context, userA, userB string) (models.FriendRequest, error) {
	return r.findRequest(ctx, `
        SELECT `+friendRequestColumns+`
        FROM friend_requests
        WHERE pair_key = $1 AND status = 'pending'
        LIMIT 1
    `, models.PairKey(userA, userB))
}

func (r *PostgresFriendRepository) findRequest(ctx context.Context, query, arg string) (models.FriendRequest, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	req, err := scanFriendRequest(conn.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.FriendRequest{}, ErrNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("select friend request: %w", err)
	}
	return req, nil
}

// TransitionRequest moves a request from one status to another only if it is still in
// the expected prior status. When the record has moved on, the current record is
// returned together with ErrStaleStatus.
func (r *PostgresFriendRepository) TransitionRequest(ctx context.Context, requestID string, from, to models.FriendRequestStatus, at time.Time) (models.FriendRequest, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.FriendRequest{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		result models.FriendRequest
		stale  bool
	)
	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		stale = false
		req, err := scanFriendRequest(tx.QueryRow(ctx, `
            UPDATE friend_requests
            SET status = $3, responded_at = $4
            WHERE id = $1 AND status = $2
            RETURNING `+friendRequestColumns,
			requestID, string(from), string(to), at.UTC()))
		if err == nil {
			result = req
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		current, err := scanFriendRequest(tx.QueryRow(ctx, `SELECT `+friendRequestColumns+` FROM friend_requests WHERE id = $1`, requestID))
		if err != nil {
			return err
		}
		result = current
		stale = true
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.FriendRequest{}, ErrNotFound
		}
		return models.FriendRequest{}, fmt.Errorf("transition friend request: %w", err)
	}

	if stale {
		return result, ErrStaleStatus
	}
	return result, nil
}

// ListPending returns pending requests addressed to receiverID, newest first.
func (r *PostgresFriendRepository) ListPending(ctx context.Context, receiverID string) ([]models.FriendRequest, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT `+friendRequestColumns+`
        FROM friend_requests
        WHERE receiver_id = $1 AND status = 'pending'
        ORDER BY created_at DESC
    `, receiverID)
	if err != nil {
		return nil, fmt.Errorf("query friend requests: %w", err)
	}
	defer rows.Close()

	var requests []models.FriendRequest
	for rows.Next() {
		req, err := scanFriendRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friend requests: %w", err)
	}

	return requests, nil
}

// InsertFriendship stores one directed edge. Inserting an edge that already exists for
// the same (user_id1, user_id2) is a no-op.
func (r *PostgresFriendRepository) InsertFriendship(ctx context.Context, edge models.FriendshipEdge) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO friends (user_id1, user_id2, friend_name, status, request_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (user_id1, user_id2) DO NOTHING
    `, edge.UserID1, edge.UserID2, edge.FriendName, edge.Status, edge.RequestID, edge.CreatedAt)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return ErrNotFound
		}
		return fmt.Errorf("insert friendship: %w", err)
	}

	return nil
}

// ListFriends returns the outgoing accepted edges of userID.
func (r *PostgresFriendRepository) ListFriends(ctx context.Context, userID string) ([]models.FriendshipEdge, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT user_id1, user_id2, friend_name, status, request_id, created_at
        FROM friends
        WHERE user_id1 = $1 AND status = 'accepted'
        ORDER BY friend_name, user_id2
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	defer rows.Close()

	var edges []models.FriendshipEdge
	for rows.Next() {
		var edge models.FriendshipEdge
		if err := rows.Scan(&edge.UserID1, &edge.UserID2, &edge.FriendName, &edge.Status, &edge.RequestID, &edge.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan friendship: %w", err)
		}
		edge.CreatedAt = edge.CreatedAt.UTC()
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friends: %w", err)
	}

	return edges, nil
}

// AreFriends reports whether an accepted edge exists from userA to userB.
func (r *PostgresFriendRepository) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM friends
            WHERE user_id1 = $1 AND user_id2 = $2 AND status = 'accepted'
        )
    `, userA, userB).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return exists, nil
}

// PostgresPostRepository provides PostgreSQL-backed persistence for posts.
type PostgresPostRepository struct {
	pool db.Pool
}

// NewPostgresPostRepository constructs a post repository backed by PostgreSQL.
func NewPostgresPostRepository(pool db.Pool) *PostgresPostRepository {
	return &PostgresPostRepository{pool: pool}
}

// Create stores a new post and returns it with the store-assigned sequence number.
func (r *PostgresPostRepository) Create(ctx context.Context, post models.Post) (models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Post{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = conn.QueryRow(ctx, `
        INSERT INTO posts (id, user_id, author_name, author_photo, content, image_url, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING seq
    `, post.ID, post.UserID, post.AuthorName, post.AuthorPhoto, post.Content, post.ImageURL, post.CreatedAt).Scan(&post.Seq)
	if err != nil {
		switch pgCode(err) {
		case pgUniqueViolation:
			return models.Post{}, ErrConflict
		case pgForeignKeyViolation:
			return models.Post{}, ErrNotFound
		}
		return models.Post{}, fmt.Errorf("insert post: %w", err)
	}

	return post, nil
}

// ListFeed returns every post, newest first. Posts sharing a timestamp are ordered by
// insertion sequence, most recent insertion first.
func (r *PostgresPostRepository) ListFeed(ctx context.Context) ([]models.Post, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, author_name, author_photo, content, image_url, created_at, seq
        FROM posts
        ORDER BY created_at DESC, seq DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query post feed: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		if err := rows.Scan(&post.ID, &post.UserID, &post.AuthorName, &post.AuthorPhoto, &post.Content, &post.ImageURL, &post.CreatedAt, &post.Seq); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		post.CreatedAt = post.CreatedAt.UTC()
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post feed: %w", err)
	}

	return posts, nil
}

var _ UserRepository = (*PostgresUserRepository)(nil)
var _ FriendRepository = (*PostgresFriendRepository)(nil)
var _ PostRepository = (*PostgresPostRepository)(nil)
