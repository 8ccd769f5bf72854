package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/collabspace-server/internal/store"
)

// Schema creates every table the store needs. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE COLLATE NOCASE,
	email         TEXT NOT NULL UNIQUE COLLATE NOCASE,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS friend_requests (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	sender_id   INTEGER NOT NULL,
	receiver_id INTEGER NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (sender_id, receiver_id),
	FOREIGN KEY (sender_id) REFERENCES users(id),
	FOREIGN KEY (receiver_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS friendships (
	user_id    INTEGER NOT NULL,
	friend_id  INTEGER NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, friend_id),
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (friend_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS workspaces (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	owner_id        INTEGER NOT NULL,
	notepad_content TEXT NOT NULL DEFAULT '',
	is_live         BOOLEAN NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (owner_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS workspace_members (
	workspace_id TEXT NOT NULL,
	user_id      INTEGER NOT NULL,
	joined_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (workspace_id, user_id),
	FOREIGN KEY (workspace_id) REFERENCES workspaces(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_friend_requests_receiver ON friend_requests(receiver_id, status);
CREATE INDEX IF NOT EXISTS idx_workspace_members_user ON workspace_members(user_id);
`

// ApplySchema runs Schema against db. It matches the NewWithSetup signature.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and makes sure the schema exists.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, ApplySchema)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema against ":memory:".
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; this also keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func notFound(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, store.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", what, err)
}

// ==== UserStore implementation ====

const userColumns = `id, username, email, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*store.User, error) {
	var user store.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? COLLATE BINARY`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// GetUserByUsernameFold retrieves a user by username ignoring ASCII case.
func (s *SQLiteStore) GetUserByUsernameFold(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? COLLATE NOCASE`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// SearchUsers returns users whose username contains query, ignoring ASCII case.
func (s *SQLiteStore) SearchUsers(ctx context.Context, query string) ([]*store.User, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(query)
	sqlQuery := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username LIKE ? ESCAPE '\'
		ORDER BY username ASC
		LIMIT 50
	`
	rows, err := s.db.QueryContext(ctx, sqlQuery, "%"+escaped+"%")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*store.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// ==== FriendStore implementation ====

const friendRequestColumns = `id, sender_id, receiver_id, status, created_at, updated_at`

func scanFriendRequest(row interface{ Scan(...any) error }) (*store.FriendRequest, error) {
	var req store.FriendRequest
	var status string
	if err := row.Scan(
		&req.ID,
		&req.SenderID,
		&req.ReceiverID,
		&status,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	req.Status = store.FriendRequestStatus(status)
	return &req, nil
}

// CreateFriendRequest stores a new pending request.
func (s *SQLiteStore) CreateFriendRequest(ctx context.Context, senderID, receiverID int64) (*store.FriendRequest, error) {
	query := `
		INSERT INTO friend_requests (sender_id, receiver_id, status)
		VALUES (?, ?, 'pending')
	`
	result, err := s.db.ExecContext(ctx, query, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("insert friend request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetFriendRequest(ctx, id)
}

// GetFriendRequest retrieves a request by ID.
func (s *SQLiteStore) GetFriendRequest(ctx context.Context, id int64) (*store.FriendRequest, error) {
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE id = ?`
	req, err := scanFriendRequest(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound("friend request", err)
	}
	return req, nil
}

// FindFriendRequest retrieves the request sent from senderID to receiverID.
func (s *SQLiteStore) FindFriendRequest(ctx context.Context, senderID, receiverID int64) (*store.FriendRequest, error) {
	query := `SELECT ` + friendRequestColumns + ` FROM friend_requests WHERE sender_id = ? AND receiver_id = ?`
	req, err := scanFriendRequest(s.db.QueryRowContext(ctx, query, senderID, receiverID))
	if err != nil {
		return nil, notFound("friend request", err)
	}
	return req, nil
}

// ListPendingFriendRequests lists pending requests addressed to receiverID, newest first.
func (s *SQLiteStore) ListPendingFriendRequests(ctx context.Context, receiverID int64) ([]*store.FriendRequest, error) {
	query := `
		SELECT ` + friendRequestColumns + `
		FROM friend_requests
		WHERE receiver_id = ? AND status = 'pending'
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("query friend requests: %w", err)
	}
	defer rows.Close()

	var requests []*store.FriendRequest
	for rows.Next() {
		req, err := scanFriendRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan friend request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// UpdateFriendRequestStatus sets the status of a request.
func (s *SQLiteStore) UpdateFriendRequestStatus(ctx context.Context, id int64, status store.FriendRequestStatus) error {
	return updateFriendRequestStatus(ctx, s.db, id, status)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func updateFriendRequestStatus(ctx context.Context, db execer, id int64, status store.FriendRequestStatus) error {
	query := `
		UPDATE friend_requests
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("update friend request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("friend request %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// AcceptFriendRequest marks the request accepted and records the friendship in both directions.
func (s *SQLiteStore) AcceptFriendRequest(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	var senderID, receiverID int64
	err = tx.QueryRowContext(ctx, `SELECT sender_id, receiver_id FROM friend_requests WHERE id = ?`, id).
		Scan(&senderID, &receiverID)
	if err != nil {
		return notFound("friend request", err)
	}

	if err := updateFriendRequestStatus(ctx, tx, id, store.FriendRequestAccepted); err != nil {
		return err
	}

	insert := `INSERT OR IGNORE INTO friendships (user_id, friend_id) VALUES (?, ?)`
	if _, err := tx.ExecContext(ctx, insert, senderID, receiverID); err != nil {
		return fmt.Errorf("insert friendship: %w", err)
	}
	if _, err := tx.ExecContext(ctx, insert, receiverID, senderID); err != nil {
		return fmt.Errorf("insert friendship: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ListFriendIDs lists the friends of userID.
func (s *SQLiteStore) ListFriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT friend_id FROM friendships
		WHERE user_id = ?
		ORDER BY created_at ASC, friend_id ASC
	`
	return s.queryIDs(ctx, query, userID)
}

// AreFriends checks whether two users are friends.
func (s *SQLiteStore) AreFriends(ctx context.Context, userID, otherID int64) (bool, error) {
	query := `SELECT 1 FROM friendships WHERE user_id = ? AND friend_id = ?`
	var exists int
	err := s.db.QueryRowContext(ctx, query, userID, otherID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query friendship: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
