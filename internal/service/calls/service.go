package calls

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/callengine"
	"github.com/vovakirdan/collabspace-server/internal/store"
)

// Common errors for live voice operations.
var (
	ErrWorkspaceNotFound = errors.New("workspace not found")
	ErrNotMember         = errors.New("not a member of this workspace")
	ErrNotLive           = errors.New("workspace is not live")
	ErrLiveKitNotEnabled = errors.New("livekit is not enabled")
)

// WorkspaceReader loads workspaces for membership and live checks.
type WorkspaceReader interface {
	GetWorkspace(ctx context.Context, id string) (*store.Workspace, error)
}

// Service hands out voice channel credentials for live workspaces.
type Service struct {
	store  WorkspaceReader
	engine callengine.Engine
	logger *zerolog.Logger
}

// New creates a new live voice service.
// engine can be nil if LiveKit is not enabled.
func New(st WorkspaceReader, engine callengine.Engine, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Service{
		store:  st,
		engine: engine,
		logger: logger,
	}
}

// Enabled reports whether a media backend is configured.
func (s *Service) Enabled() bool {
	return s.engine != nil
}

// JoinLiveVoice returns credentials for the voice room of a live workspace.
// Only workspace members may join.
func (s *Service) JoinLiveVoice(ctx context.Context, userID int64, username, workspaceID string) (*callengine.JoinInfo, error) {
	if s.engine == nil {
		return nil, ErrLiveKitNotEnabled
	}

	ws, err := s.store.GetWorkspace(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	if !ws.HasMember(userID) {
		return nil, ErrNotMember
	}
	if !ws.IsLive {
		return nil, ErrNotLive
	}

	info, err := s.engine.GenerateJoinInfo(ctx, ws.ID, userID, username)
	if err != nil {
		return nil, fmt.Errorf("generate join info: %w", err)
	}

	s.logger.Debug().
		Str("workspace_id", ws.ID).
		Int64("user_id", userID).
		Str("room", info.RoomName).
		Msg("voice join issued")
	return info, nil
}
