package calls

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/collabspace-server/internal/callengine"
	"github.com/vovakirdan/collabspace-server/internal/store"
)

type memWorkspaces map[string]*store.Workspace

func (m memWorkspaces) GetWorkspace(_ context.Context, id string) (*store.Workspace, error) {
	ws, ok := m[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return ws, nil
}

type stubEngine struct{}

func (stubEngine) RoomName(id string) string { return "room-" + id }

func (e stubEngine) GenerateJoinInfo(_ context.Context, id string, userID int64, _ string) (*callengine.JoinInfo, error) {
	return &callengine.JoinInfo{URL: "ws://media", Token: "t", RoomName: e.RoomName(id), Identity: "u"}, nil
}

func TestJoinLiveVoice(t *testing.T) {
	workspaces := memWorkspaces{
		"live": {ID: "live", OwnerID: 1, MemberIDs: []int64{1, 2}, IsLive: true},
		"idle": {ID: "idle", OwnerID: 1, MemberIDs: []int64{1}},
	}
	svc := New(workspaces, stubEngine{}, nil)
	ctx := context.Background()

	info, err := svc.JoinLiveVoice(ctx, 2, "bob", "live")
	require.NoError(t, err)
	assert.Equal(t, "room-live", info.RoomName)

	_, err = svc.JoinLiveVoice(ctx, 3, "eve", "live")
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = svc.JoinLiveVoice(ctx, 1, "owner", "idle")
	assert.ErrorIs(t, err, ErrNotLive)

	_, err = svc.JoinLiveVoice(ctx, 1, "owner", "missing")
	assert.ErrorIs(t, err, ErrWorkspaceNotFound)
}

func TestJoinLiveVoiceDisabled(t *testing.T) {
	svc := New(memWorkspaces{}, nil, nil)
	assert.False(t, svc.Enabled())

	_, err := svc.JoinLiveVoice(context.Background(), 1, "a", "live")
	assert.ErrorIs(t, err, ErrLiveKitNotEnabled)
}
