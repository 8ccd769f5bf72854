package workspaces

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/store"
)

// Common errors for workspace operations.
var (
	ErrNotFound     = errors.New("workspace not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("user is already a member")
	ErrInvalidInput = errors.New("invalid input")
)

// Repository is the storage the service needs.
type Repository interface {
	store.WorkspaceStore
	GetUserByID(ctx context.Context, id int64) (*store.User, error)
}

// Announcer fans a live-session start out to every connection.
type Announcer interface {
	AnnounceWorkspaceLive(ctx context.Context, workspaceID string) error
}

// RoomCounter reports how many connections are joined to a workspace room.
type RoomCounter interface {
	RoomSize(workspaceID string) int
}

// Details is a workspace with its owner and members loaded.
type Details struct {
	*store.Workspace
	Owner   *store.User
	Members []*store.User
}

// Service provides workspace business logic and the live-session controller.
type Service struct {
	store     Repository
	announcer Announcer
	rooms     RoomCounter
	logger    *zerolog.Logger
}

// New creates a workspace service. announcer and rooms may be nil in tests
// that don't exercise live sessions or presence.
func New(st Repository, announcer Announcer, rooms RoomCounter, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		store:     st,
		announcer: announcer,
		rooms:     rooms,
		logger:    logger,
	}
}

// Create creates a workspace owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID int64, name string) (*store.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("workspace name is required: %w", ErrInvalidInput)
	}

	ws, err := s.store.CreateWorkspace(ctx, uuid.NewString(), name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return ws, nil
}

// ListForUser lists the workspaces userID is a member of, with owners loaded.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]*Details, error) {
	list, err := s.store.ListWorkspacesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	out := make([]*Details, 0, len(list))
	owners := make(map[int64]*store.User)
	for _, ws := range list {
		owner, ok := owners[ws.OwnerID]
		if !ok {
			owner, err = s.store.GetUserByID(ctx, ws.OwnerID)
			if err != nil {
				return nil, fmt.Errorf("get owner %d: %w", ws.OwnerID, err)
			}
			owners[ws.OwnerID] = owner
		}
		out = append(out, &Details{Workspace: ws, Owner: owner})
	}
	return out, nil
}

// Get returns a workspace with owner and members loaded. Only members may read it.
func (s *Service) Get(ctx context.Context, userID int64, workspaceID string) (*Details, error) {
	ws, err := s.memberWorkspace(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}

	details := &Details{Workspace: ws, Members: make([]*store.User, 0, len(ws.MemberIDs))}
	for _, id := range ws.MemberIDs {
		u, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get member %d: %w", id, err)
		}
		if id == ws.OwnerID {
			details.Owner = u
		}
		details.Members = append(details.Members, u)
	}
	if details.Owner == nil {
		owner, err := s.store.GetUserByID(ctx, ws.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("get owner %d: %w", ws.OwnerID, err)
		}
		details.Owner = owner
	}
	return details, nil
}

// SaveNotepad persists the notepad text. This is the only durable path for notepad edits.
func (s *Service) SaveNotepad(ctx context.Context, userID int64, workspaceID, content string) (*store.Workspace, error) {
	if content == "" {
		return nil, fmt.Errorf("notepad content is required: %w", ErrInvalidInput)
	}

	ws, err := s.memberWorkspace(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}

	ws.NotepadContent = content
	if err := s.store.SaveWorkspace(ctx, ws); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}
	return ws, nil
}

// Invite adds friendID to the workspace. The inviter must already be a member.
func (s *Service) Invite(ctx context.Context, inviterID int64, workspaceID string, friendID int64) (*store.Workspace, error) {
	ws, err := s.memberWorkspace(ctx, inviterID, workspaceID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetUserByID(ctx, friendID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("user %d: %w", friendID, ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if ws.HasMember(friendID) {
		return nil, ErrConflict
	}

	ws.MemberIDs = append(slices.Clone(ws.MemberIDs), friendID)
	if err := s.store.SaveWorkspace(ctx, ws); err != nil {
		return nil, fmt.Errorf("save workspace: %w", err)
	}
	return ws, nil
}

// StartLiveSession marks the workspace live and announces it to every connection.
// Only the owner may start a session. Announce failures are logged, not returned:
// the stored flag is authoritative.
func (s *Service) StartLiveSession(ctx context.Context, userID int64, workspaceID string) (*store.Workspace, error) {
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if ws.OwnerID != userID {
		return nil, fmt.Errorf("only the owner can start a live session: %w", ErrForbidden)
	}

	ws.IsLive = true
	if err := s.store.SaveWorkspace(ctx, ws); err != nil {
		return nil, fmt.Errorf("save live flag: %w", err)
	}

	if s.announcer != nil {
		if err := s.announcer.AnnounceWorkspaceLive(ctx, ws.ID); err != nil {
			s.logger.Error().Err(err).Str("workspace_id", ws.ID).Msg("announce live session failed")
		}
	}

	s.logger.Info().
		Str("workspace_id", ws.ID).
		Int64("owner_id", userID).
		Msg("live session started")
	return ws, nil
}

// RoomSize returns the number of live connections joined to the workspace room.
func (s *Service) RoomSize(ctx context.Context, userID int64, workspaceID string) (int, error) {
	if _, err := s.memberWorkspace(ctx, userID, workspaceID); err != nil {
		return 0, err
	}
	if s.rooms == nil {
		return 0, nil
	}
	return s.rooms.RoomSize(workspaceID), nil
}

func (s *Service) load(ctx context.Context, workspaceID string) (*store.Workspace, error) {
	ws, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return ws, nil
}

func (s *Service) memberWorkspace(ctx context.Context, userID int64, workspaceID string) (*store.Workspace, error) {
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !ws.HasMember(userID) {
		return nil, fmt.Errorf("not a member of this workspace: %w", ErrForbidden)
	}
	return ws, nil
}
