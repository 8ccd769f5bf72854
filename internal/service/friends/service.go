package friends

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vovakirdan/collabspace-server/internal/store"
)

// Common errors for friend operations.
var (
	ErrCannotFriendSelf     = errors.New("cannot send friend request to yourself")
	ErrAlreadyFriends       = errors.New("already friends")
	ErrRequestAlreadyExists = errors.New("friend request already sent")
	ErrRequestNotFound      = errors.New("friend request not found")
	ErrRequestNotPending    = errors.New("friend request already answered")
	ErrUserNotFound         = errors.New("user not found")
	ErrForbidden            = errors.New("not the receiver of this request")
	ErrInvalidAction        = errors.New("action must be accept or reject")
	ErrEmptyQuery           = errors.New("username query is required")
)

// Respond actions.
const (
	ActionAccept = "accept"
	ActionReject = "reject"
)

// Repository is the storage the service needs.
type Repository interface {
	store.UserStore
	store.FriendStore
}

// OnlineChecker reports whether a user currently holds a live connection.
type OnlineChecker interface {
	IsUserOnline(userID int64) bool
}

// PendingRequest is an incoming request with its sender loaded.
type PendingRequest struct {
	*store.FriendRequest
	Sender *store.User
}

// Profile is a user together with the ids of their friends.
type Profile struct {
	*store.User
	FriendIDs []int64
}

// FriendList splits a user's friends by connection state.
type FriendList struct {
	Online  []*store.User
	Offline []*store.User
}

// Service provides friend management business logic.
type Service struct {
	store    Repository
	presence OnlineChecker
}

// New creates a new friends service. A nil presence reports everyone offline.
func New(st Repository, presence OnlineChecker) *Service {
	return &Service{
		store:    st,
		presence: presence,
	}
}

// SendRequest sends a friend request from one user to another.
func (s *Service) SendRequest(ctx context.Context, senderID, receiverID int64) (*store.FriendRequest, error) {
	if senderID == receiverID {
		return nil, ErrCannotFriendSelf
	}

	if _, err := s.store.GetUserByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get receiver: %w", err)
	}

	friends, err := s.store.AreFriends(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("check friendship: %w", err)
	}
	if friends {
		return nil, ErrAlreadyFriends
	}

	if _, err := s.store.FindFriendRequest(ctx, senderID, receiverID); err == nil {
		return nil, ErrRequestAlreadyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find friend request: %w", err)
	}

	req, err := s.store.CreateFriendRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("create friend request: %w", err)
	}
	return req, nil
}

// ListPending returns pending requests addressed to userID, newest first.
func (s *Service) ListPending(ctx context.Context, userID int64) ([]PendingRequest, error) {
	reqs, err := s.store.ListPendingFriendRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}

	out := make([]PendingRequest, 0, len(reqs))
	for _, req := range reqs {
		sender, err := s.store.GetUserByID(ctx, req.SenderID)
		if err != nil {
			return nil, fmt.Errorf("get sender %d: %w", req.SenderID, err)
		}
		out = append(out, PendingRequest{FriendRequest: req, Sender: sender})
	}
	return out, nil
}

// Respond accepts or rejects a pending request addressed to userID.
// Accepting records the friendship in both directions.
func (s *Service) Respond(ctx context.Context, userID, requestID int64, action string) (*store.FriendRequest, error) {
	if action != ActionAccept && action != ActionReject {
		return nil, ErrInvalidAction
	}

	req, err := s.store.GetFriendRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("get friend request: %w", err)
	}
	if req.ReceiverID != userID {
		return nil, ErrForbidden
	}
	if req.Status != store.FriendRequestPending {
		return nil, ErrRequestNotPending
	}

	if action == ActionAccept {
		err = s.store.AcceptFriendRequest(ctx, requestID)
	} else {
		err = s.store.UpdateFriendRequestStatus(ctx, requestID, store.FriendRequestRejected)
	}
	if err != nil {
		return nil, fmt.Errorf("%s friend request: %w", action, err)
	}

	updated, err := s.store.GetFriendRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("reload friend request: %w", err)
	}
	return updated, nil
}

// Search finds users whose username contains query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) ([]*store.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	users, err := s.store.SearchUsers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return users, nil
}

// Profile returns the user's own profile.
func (s *Service) Profile(ctx context.Context, userID int64) (*Profile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return s.profile(ctx, user)
}

// ProfileByUsername returns a profile looked up by username, ignoring case.
func (s *Service) ProfileByUsername(ctx context.Context, username string) (*Profile, error) {
	user, err := s.store.GetUserByUsernameFold(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return s.profile(ctx, user)
}

func (s *Service) profile(ctx context.Context, user *store.User) (*Profile, error) {
	ids, err := s.store.ListFriendIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return &Profile{User: user, FriendIDs: ids}, nil
}

// AllFriends returns the user's friends split into online and offline.
// Both lists are sorted by username.
func (s *Service) AllFriends(ctx context.Context, userID int64) (*FriendList, error) {
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ids, err := s.store.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	list := &FriendList{
		Online:  []*store.User{},
		Offline: []*store.User{},
	}
	for _, id := range ids {
		friend, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get friend %d: %w", id, err)
		}
		if s.presence != nil && s.presence.IsUserOnline(id) {
			list.Online = append(list.Online, friend)
		} else {
			list.Offline = append(list.Offline, friend)
		}
	}

	sortByUsername(list.Online)
	sortByUsername(list.Offline)
	return list, nil
}

func sortByUsername(users []*store.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].Username) < strings.ToLower(users[j].Username)
	})
}
