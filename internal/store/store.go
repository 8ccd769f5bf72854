package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is wrapped by every lookup that matches no row.
var ErrNotFound = errors.New("not found")

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FriendRequestStatus defines the lifecycle of a friend request.
type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

// FriendRequest is a directed request from Sender to Receiver.
type FriendRequest struct {
	ID         int64
	SenderID   int64
	ReceiverID int64
	Status     FriendRequestStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Workspace is a shared space with a notepad that can go live.
// OwnerID is always contained in MemberIDs.
type Workspace struct {
	ID             string
	Name           string
	OwnerID        int64
	MemberIDs      []int64
	NotepadContent string
	IsLive         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasMember reports whether userID belongs to the workspace.
func (w *Workspace) HasMember(userID int64) bool {
	for _, id := range w.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by exact username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// GetUserByUsernameFold retrieves a user by username ignoring ASCII case.
	GetUserByUsernameFold(ctx context.Context, username string) (*User, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// SearchUsers returns users whose username contains query, ignoring case.
	SearchUsers(ctx context.Context, query string) ([]*User, error)
}

// FriendStore handles friend requests and the symmetric friendship relation.
type FriendStore interface {
	// CreateFriendRequest stores a new pending request.
	CreateFriendRequest(ctx context.Context, senderID, receiverID int64) (*FriendRequest, error)

	// GetFriendRequest retrieves a request by ID.
	GetFriendRequest(ctx context.Context, id int64) (*FriendRequest, error)

	// FindFriendRequest retrieves the request sent from senderID to receiverID.
	FindFriendRequest(ctx context.Context, senderID, receiverID int64) (*FriendRequest, error)

	// ListPendingFriendRequests lists pending requests addressed to receiverID, newest first.
	ListPendingFriendRequests(ctx context.Context, receiverID int64) ([]*FriendRequest, error)

	// UpdateFriendRequestStatus sets the status of a request.
	UpdateFriendRequestStatus(ctx context.Context, id int64, status FriendRequestStatus) error

	// AcceptFriendRequest marks the request accepted and records the friendship in both directions.
	AcceptFriendRequest(ctx context.Context, id int64) error

	// ListFriendIDs lists the friends of userID.
	ListFriendIDs(ctx context.Context, userID int64) ([]int64, error)

	// AreFriends checks whether two users are friends.
	AreFriends(ctx context.Context, userID, otherID int64) (bool, error)
}

// WorkspaceStore handles workspace persistence.
type WorkspaceStore interface {
	// CreateWorkspace creates a workspace owned by ownerID with the owner as sole member.
	CreateWorkspace(ctx context.Context, id, name string, ownerID int64) (*Workspace, error)

	// GetWorkspace retrieves a workspace with its members.
	GetWorkspace(ctx context.Context, id string) (*Workspace, error)

	// SaveWorkspace overwrites name, notepad, live flag and members.
	// There is no version check: the last save wins.
	SaveWorkspace(ctx context.Context, ws *Workspace) error

	// ListWorkspacesForUser lists workspaces userID is a member of.
	ListWorkspacesForUser(ctx context.Context, userID int64) ([]*Workspace, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	FriendStore
	WorkspaceStore

	// Close closes the underlying database connection.
	Close() error
}
