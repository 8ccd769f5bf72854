package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// Presence tracks which connections are joined to which workspace rooms.
// It is safe for concurrent use: the hub mutates it while HTTP handlers read it.
type Presence struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	logger  *zerolog.Logger
}

// NewPresence creates an empty registry. A nil logger disables logging.
func NewPresence(logger *zerolog.Logger) *Presence {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Presence{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Add registers a connection. Returns false if it was already registered.
func (p *Presence) Add(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.clients[c]; ok {
		return false
	}
	p.clients[c] = struct{}{}
	return true
}

// Remove leaves every room, unregisters the connection and closes its event queue.
// Returns false if the connection was not registered.
func (p *Presence) Remove(c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.removeLocked(c)
}

// RemoveAll removes every registered connection.
func (p *Presence) RemoveAll() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	for c := range p.clients {
		if p.removeLocked(c) {
			n++
		}
	}
	return n
}

func (p *Presence) removeLocked(c *Client) bool {
	if _, ok := p.clients[c]; !ok {
		return false
	}
	p.leaveAllLocked(c)
	delete(p.clients, c)
	close(c.Events)
	return true
}

// Join adds the connection to the workspace room, creating the room on first use.
// Returns true only when the membership is new. Unregistered connections are ignored.
func (p *Presence) Join(c *Client, workspaceID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.clients[c]; !ok {
		return false
	}
	room, ok := p.rooms[workspaceID]
	if !ok {
		room = make(map[*Client]struct{})
		p.rooms[workspaceID] = room
	}
	if _, ok := room[c]; ok {
		return false
	}
	room[c] = struct{}{}
	c.rooms[workspaceID] = struct{}{}
	return true
}

// LeaveAll removes the connection from every room it joined.
func (p *Presence) LeaveAll(c *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.leaveAllLocked(c)
}

func (p *Presence) leaveAllLocked(c *Client) {
	for workspaceID := range c.rooms {
		if room, ok := p.rooms[workspaceID]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(p.rooms, workspaceID)
			}
		}
		delete(c.rooms, workspaceID)
	}
}

// BroadcastToRoom enqueues ev for every member of the room except exclude.
// Returns the number of connections the event was delivered to.
func (p *Presence) BroadcastToRoom(workspaceID string, ev *Event, exclude *Client) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	delivered := 0
	for c := range p.rooms[workspaceID] {
		if c == exclude {
			continue
		}
		if p.deliver(c, ev) {
			delivered++
		}
	}
	return delivered
}

// BroadcastToAll enqueues ev for every registered connection regardless of rooms.
func (p *Presence) BroadcastToAll(ev *Event) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	delivered := 0
	for c := range p.clients {
		if p.deliver(c, ev) {
			delivered++
		}
	}
	return delivered
}

// deliver must be called with at least the read lock held, so the queue cannot be closed underneath it.
func (p *Presence) deliver(c *Client, ev *Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		p.logger.Warn().
			Str("client_id", c.ID).
			Int64("user_id", c.UserID).
			Stringer("event", ev.Kind).
			Msg("client queue full, dropping event")
		return false
	}
}

// RoomSize returns the number of connections joined to the workspace room.
func (p *Presence) RoomSize(workspaceID string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.rooms[workspaceID])
}

// RoomCount returns the number of non-empty rooms.
func (p *Presence) RoomCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.rooms)
}

// ConnectionCount returns the number of registered connections.
func (p *Presence) ConnectionCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.clients)
}

// Contains reports whether the connection is registered.
func (p *Presence) Contains(c *Client) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.clients[c]
	return ok
}

// IsUserOnline reports whether the user has at least one registered connection.
func (p *Presence) IsUserOnline(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for c := range p.clients {
		if c.UserID == userID {
			return true
		}
	}
	return false
}
