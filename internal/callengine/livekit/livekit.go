package livekit

import (
	"context"
	"fmt"
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/vovakirdan/collabspace-server/internal/callengine"
)

const tokenTTL = time.Hour

// LiveKitEngine implements callengine.Engine using LiveKit as the media backend.
type LiveKitEngine struct {
	apiKey    string
	apiSecret string
	wsURL     string
}

// New creates a new LiveKitEngine.
func New(apiKey, apiSecret, wsURL string) *LiveKitEngine {
	return &LiveKitEngine{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		wsURL:     wsURL,
	}
}

// RoomName returns collabspace-live-{workspaceID}.
func (e *LiveKitEngine) RoomName(workspaceID string) string {
	return "collabspace-live-" + workspaceID
}

// GenerateJoinInfo signs a room-join grant for the workspace voice room.
func (e *LiveKitEngine) GenerateJoinInfo(_ context.Context, workspaceID string, userID int64, username string) (*callengine.JoinInfo, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("empty workspace id")
	}

	roomName := e.RoomName(workspaceID)
	identity := fmt.Sprintf("user-%d", userID)

	at := auth.NewAccessToken(e.apiKey, e.apiSecret)
	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     roomName,
	}
	at.SetVideoGrant(grant).
		SetIdentity(identity).
		SetName(username).
		SetValidFor(tokenTTL)

	token, err := at.ToJWT()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &callengine.JoinInfo{
		URL:      e.wsURL,
		Token:    token,
		RoomName: roomName,
		Identity: identity,
	}, nil
}

var _ callengine.Engine = (*LiveKitEngine)(nil)
