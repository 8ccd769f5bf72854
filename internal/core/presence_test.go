package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addClient(t *testing.T, p *Presence, id string, userID int64) *Client {
	t.Helper()

	c := NewClient(id, userID, id, 4)
	require.True(t, p.Add(c))
	return c
}

func drain(ch <-chan *Event) []*Event {
	var out []*Event
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestPresenceJoinIsIdempotent(t *testing.T) {
	p := NewPresence(nil)
	a := addClient(t, p, "a", 1)

	assert.True(t, p.Join(a, "w1"))
	assert.False(t, p.Join(a, "w1"))
	assert.Equal(t, 1, p.RoomSize("w1"))

	assert.True(t, p.Join(a, "w2"))
	assert.Equal(t, 2, p.RoomCount())
}

func TestPresenceJoinIgnoresUnregisteredClient(t *testing.T) {
	p := NewPresence(nil)
	ghost := NewClient("ghost", 1, "ghost", 1)

	assert.False(t, p.Join(ghost, "w1"))
	assert.Zero(t, p.RoomSize("w1"))
}

func TestPresenceBroadcastExcludesSender(t *testing.T) {
	p := NewPresence(nil)
	a := addClient(t, p, "a", 1)
	b := addClient(t, p, "b", 2)
	p.Join(a, "w1")
	p.Join(b, "w1")

	n := p.BroadcastToRoom("w1", &Event{Kind: EventNotepadUpdate, Text: "draft v1"}, a)
	assert.Equal(t, 1, n)

	assert.Empty(t, drain(a.Events))
	got := drain(b.Events)
	require.Len(t, got, 1)
	assert.Equal(t, "draft v1", got[0].Text)
}

func TestPresenceRoomIsolation(t *testing.T) {
	p := NewPresence(nil)
	a := addClient(t, p, "a", 1)
	b := addClient(t, p, "b", 2)
	c := addClient(t, p, "c", 3)
	p.Join(a, "w1")
	p.Join(b, "w1")
	p.Join(c, "w2")

	p.BroadcastToRoom("w1", &Event{Kind: EventNotepadUpdate, Text: "x"}, a)

	assert.Len(t, drain(b.Events), 1)
	assert.Empty(t, drain(c.Events))
}

func TestPresenceLeaveAllStopsDelivery(t *testing.T) {
	p := NewPresence(nil)
	a := addClient(t, p, "a", 1)
	b := addClient(t, p, "b", 2)
	p.Join(a, "w1")
	p.Join(a, "w2")
	p.Join(b, "w1")

	p.LeaveAll(a)
	p.LeaveAll(a)

	assert.Zero(t, p.BroadcastToRoom("w2", &Event{Kind: EventNotepadUpdate}, nil))
	assert.Equal(t, 1, p.BroadcastToRoom("w1", &Event{Kind: EventNotepadUpdate}, nil))
	assert.Empty(t, drain(a.Events))
	assert.Equal(t, 1, p.RoomSize("w1"))
	assert.Equal(t, 1, p.RoomCount(), "empty rooms are dropped")

	// Still registered, so global announcements reach it.
	assert.Equal(t, 2, p.BroadcastToAll(&Event{Kind: EventWorkspaceLive, WorkspaceID: "w9"}))
}

func TestPresenceLeaveAllNeverJoined(t *testing.T) {
	p := NewPresence(nil)
	a := addClient(t, p, "a", 1)

	assert.NotPanics(t, func() { p.LeaveAll(a) })
	assert.NotPanics(t, func() { p.LeaveAll(NewClient("x", 9, "x", 1)) })
}

func TestPresenceRemoveClosesQueue(t *testing.T) {
	p := NewPresence(nil)
	a := addClient(t, p, "a", 1)
	p.Join(a, "w1")

	assert.True(t, p.Remove(a))
	assert.False(t, p.Remove(a))

	_, ok := <-a.Events
	assert.False(t, ok)
	assert.Zero(t, p.ConnectionCount())
	assert.Zero(t, p.RoomSize("w1"))
	assert.Zero(t, p.BroadcastToAll(&Event{Kind: EventWorkspaceLive}))
}

func TestPresenceFullQueueIsSkipped(t *testing.T) {
	p := NewPresence(nil)
	slow := NewClient("slow", 1, "slow", 1)
	fast := NewClient("fast", 2, "fast", 4)
	p.Add(slow)
	p.Add(fast)
	p.Join(slow, "w1")
	p.Join(fast, "w1")

	assert.Equal(t, 2, p.BroadcastToRoom("w1", &Event{Text: "1"}, nil))
	assert.Equal(t, 1, p.BroadcastToRoom("w1", &Event{Text: "2"}, nil))

	assert.Len(t, drain(slow.Events), 1)
	assert.Len(t, drain(fast.Events), 2)
}

func TestPresenceIsUserOnline(t *testing.T) {
	p := NewPresence(nil)
	first := addClient(t, p, "a1", 1)
	addClient(t, p, "a2", 1)

	assert.True(t, p.IsUserOnline(1))
	assert.False(t, p.IsUserOnline(2))

	p.Remove(first)
	assert.True(t, p.IsUserOnline(1), "second connection keeps the user online")
}

func TestPresenceRemoveAll(t *testing.T) {
	p := NewPresence(nil)
	a := addClient(t, p, "a", 1)
	b := addClient(t, p, "b", 2)
	p.Join(a, "w1")

	assert.Equal(t, 2, p.RemoveAll())
	assert.Zero(t, p.ConnectionCount())
	assert.Zero(t, p.RoomCount())

	for _, c := range []*Client{a, b} {
		_, ok := <-c.Events
		assert.False(t, ok)
	}
}

// Broadcasts racing with joins and leaves of other connections reach a stable
// member exactly once each.
func TestPresenceBroadcastDuringChurn(t *testing.T) {
	const (
		churners    = 50
		rounds      = 200
		broadcasts  = 2000
		perRound    = 2
		stableQueue = broadcasts * perRound
	)

	p := NewPresence(nil)
	stable := NewClient("stable", 1, "stable", stableQueue)
	require.True(t, p.Add(stable))
	require.True(t, p.Join(stable, "w"))

	var wg sync.WaitGroup
	for i := 0; i < churners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				c := NewClient(fmt.Sprintf("churn-%d-%d", i, r), int64(100+i), "churn", 1)
				p.Add(c)
				p.Join(c, "w")
				p.Join(c, "w2")
				p.LeaveAll(c)
				p.Join(c, "w")
				p.Remove(c)
			}
		}(i)
	}

	ev := &Event{Kind: EventNotepadUpdate, WorkspaceID: "w", Text: "x"}
	for i := 0; i < broadcasts; i++ {
		p.BroadcastToRoom("w", ev, nil)
		p.BroadcastToAll(ev)
	}
	wg.Wait()

	assert.Len(t, drain(stable.Events), stableQueue)
	assert.Equal(t, 1, p.RoomSize("w"))
	assert.Equal(t, 1, p.RoomCount())
	assert.Equal(t, 1, p.ConnectionCount())
}
