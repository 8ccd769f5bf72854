package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, nil)
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func registerClient(t *testing.T, hub *Hub, id string, userID int64) *Client {
	t.Helper()

	c := NewClient(id, userID, id, 8)
	require.NoError(t, hub.RegisterClient(c))
	return c
}

func joinRoom(t *testing.T, hub *Hub, c *Client, workspaceID string, want int) {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoinRoom, WorkspaceID: workspaceID}
	require.Eventually(t, func() bool {
		return hub.Presence().RoomSize(workspaceID) == want
	}, 2*time.Second, 5*time.Millisecond)
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "event queue closed while waiting for %v", kind)
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("expected event kind %v not received", kind)
			return nil
		}
	}
}

func assertNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubNotepadUpdateReachesOthersOnly(t *testing.T) {
	hub, _ := startHub(t)

	u1 := registerClient(t, hub, "u1", 1)
	u2 := registerClient(t, hub, "u2", 2)
	joinRoom(t, hub, u1, "w", 1)
	joinRoom(t, hub, u2, "w", 2)

	u1.Commands <- &Command{Kind: CommandNotepadUpdate, WorkspaceID: "w", Text: "draft v1"}

	ev := mustEvent(t, u2.Events, EventNotepadUpdate)
	assert.Equal(t, "draft v1", ev.Text)
	assert.Equal(t, "w", ev.WorkspaceID)
	assertNoEvent(t, u1.Events)
}

func TestHubRoomsAreIsolated(t *testing.T) {
	hub, _ := startHub(t)

	a := registerClient(t, hub, "a", 1)
	b := registerClient(t, hub, "b", 2)
	c := registerClient(t, hub, "c", 3)
	joinRoom(t, hub, a, "w1", 1)
	joinRoom(t, hub, b, "w1", 2)
	joinRoom(t, hub, c, "w2", 1)

	a.Commands <- &Command{Kind: CommandNotepadUpdate, WorkspaceID: "w1", Text: "only w1"}

	mustEvent(t, b.Events, EventNotepadUpdate)
	assertNoEvent(t, c.Events)
}

func TestHubUpdatesFromOneClientKeepOrder(t *testing.T) {
	hub, _ := startHub(t)

	a := registerClient(t, hub, "a", 1)
	b := registerClient(t, hub, "b", 2)
	joinRoom(t, hub, a, "w", 1)
	joinRoom(t, hub, b, "w", 2)

	for _, text := range []string{"1", "12", "123"} {
		a.Commands <- &Command{Kind: CommandNotepadUpdate, WorkspaceID: "w", Text: text}
	}
	for _, want := range []string{"1", "12", "123"} {
		assert.Equal(t, want, mustEvent(t, b.Events, EventNotepadUpdate).Text)
	}
}

func TestHubSenderNeedNotBeMember(t *testing.T) {
	hub, _ := startHub(t)

	outsider := registerClient(t, hub, "out", 1)
	member := registerClient(t, hub, "in", 2)
	joinRoom(t, hub, member, "w", 1)

	outsider.Commands <- &Command{Kind: CommandNotepadUpdate, WorkspaceID: "w", Text: "hello"}
	assert.Equal(t, "hello", mustEvent(t, member.Events, EventNotepadUpdate).Text)
}

func TestHubDropsCommandsWithoutWorkspace(t *testing.T) {
	hub, _ := startHub(t)

	a := registerClient(t, hub, "a", 1)
	b := registerClient(t, hub, "b", 2)
	joinRoom(t, hub, b, "w", 1)

	a.Commands <- &Command{Kind: CommandJoinRoom}
	a.Commands <- &Command{Kind: CommandNotepadUpdate, Text: "lost"}
	a.Commands <- &Command{Kind: CommandNotepadUpdate, WorkspaceID: "w", Text: "kept"}

	assert.Equal(t, "kept", mustEvent(t, b.Events, EventNotepadUpdate).Text)
	assert.Equal(t, 1, hub.Presence().RoomCount())
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub, _ := startHub(t)

	a := registerClient(t, hub, "a", 1)
	b := registerClient(t, hub, "b", 2)
	joinRoom(t, hub, a, "w", 1)
	joinRoom(t, hub, b, "w", 2)

	hub.UnregisterClient(b)
	require.Eventually(t, func() bool {
		return hub.Presence().RoomSize("w") == 1
	}, 2*time.Second, 5*time.Millisecond)

	a.Commands <- &Command{Kind: CommandNotepadUpdate, WorkspaceID: "w", Text: "x"}
	_, ok := <-b.Events
	assert.False(t, ok, "unregistered client's queue is closed")
	assert.False(t, hub.Presence().IsUserOnline(2))
}

func TestHubAnnounceReachesEveryConnection(t *testing.T) {
	hub, _ := startHub(t)

	joined := registerClient(t, hub, "joined", 1)
	idle := registerClient(t, hub, "idle", 2)
	joinRoom(t, hub, joined, "w", 1)

	require.NoError(t, hub.AnnounceWorkspaceLive(context.Background(), "w"))

	for _, c := range []*Client{joined, idle} {
		ev := mustEvent(t, c.Events, EventWorkspaceLive)
		assert.Equal(t, "w", ev.WorkspaceID)
	}
}

func TestHubStopped(t *testing.T) {
	hub, cancel := startHub(t)

	a := registerClient(t, hub, "a", 1)
	cancel()

	_, ok := <-a.Events
	assert.False(t, ok, "shutdown closes client queues")

	require.Eventually(t, func() bool {
		return hub.RegisterClient(NewClient("late", 2, "late", 1)) == ErrHubStopped
	}, 2*time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, hub.AnnounceWorkspaceLive(context.Background(), "w"), ErrHubStopped)
	assert.NotPanics(t, func() { hub.UnregisterClient(a) })
}
