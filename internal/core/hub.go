package core

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

const (
	inboxSize    = 256
	announceSize = 16
)

type clientCommand struct {
	client *Client
	cmd    *Command
}

// Hub serializes client commands and live announcements onto a single event loop.
type Hub struct {
	presence *Presence
	logger   *zerolog.Logger

	register   chan *Client
	unregister chan *Client
	inbox      chan clientCommand
	announce   chan string

	// pumps is owned by the Run goroutine.
	pumps map[*Client]chan struct{}

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub on top of the given presence registry.
func NewHub(presence *Presence, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if presence == nil {
		presence = NewPresence(logger)
	}
	return &Hub{
		presence:   presence,
		logger:     logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan clientCommand, inboxSize),
		announce:   make(chan string, announceSize),
		pumps:      make(map[*Client]chan struct{}),
		done:       make(chan struct{}),
	}
}

// Presence returns the registry the hub maintains.
func (h *Hub) Presence() *Presence {
	return h.presence
}

// Run processes hub events until ctx is cancelled.
// On return every client is removed and its event queue closed.
func (h *Hub) Run(ctx context.Context) {
	defer h.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case in := <-h.inbox:
			h.handleCommand(in.client, in.cmd)
		case workspaceID := <-h.announce:
			h.handleAnnounce(workspaceID)
		}
	}
}

// RegisterClient adds a client to the hub and starts forwarding its commands.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// UnregisterClient removes a client from every room and closes its event queue.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// AnnounceWorkspaceLive broadcasts a workspace-live event to every connection.
func (h *Hub) AnnounceWorkspaceLive(ctx context.Context, workspaceID string) error {
	select {
	case h.announce <- workspaceID:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		for c, stop := range h.pumps {
			close(stop)
			delete(h.pumps, c)
		}
		n := h.presence.RemoveAll()
		h.logger.Info().Int("clients", n).Msg("hub stopped")
	})
}

func (h *Hub) handleRegister(c *Client) {
	if !h.presence.Add(c) {
		h.logger.Warn().Str("client_id", c.ID).Msg("client already registered")
		return
	}
	stop := make(chan struct{})
	h.pumps[c] = stop
	go h.pump(c, stop)

	h.logger.Debug().
		Str("client_id", c.ID).
		Int64("user_id", c.UserID).
		Str("username", c.Username).
		Msg("client registered")
}

func (h *Hub) handleUnregister(c *Client) {
	if stop, ok := h.pumps[c]; ok {
		close(stop)
		delete(h.pumps, c)
	}
	if h.presence.Remove(c) {
		h.logger.Debug().Str("client_id", c.ID).Msg("client unregistered")
	}
}

// pump forwards one client's commands into the inbox in the order they were sent.
func (h *Hub) pump(c *Client, stop <-chan struct{}) {
	for {
		select {
		case cmd := <-c.Commands:
			if cmd == nil {
				continue
			}
			select {
			case h.inbox <- clientCommand{client: c, cmd: cmd}:
			case <-stop:
				return
			case <-h.done:
				return
			}
		case <-stop:
			return
		case <-h.done:
			return
		}
	}
}

func (h *Hub) handleCommand(c *Client, cmd *Command) {
	if !h.presence.Contains(c) {
		return
	}
	if cmd.WorkspaceID == "" {
		h.logger.Warn().
			Str("client_id", c.ID).
			Stringer("command", cmd.Kind).
			Msg("command without workspace id dropped")
		return
	}

	switch cmd.Kind {
	case CommandJoinRoom:
		joined := h.presence.Join(c, cmd.WorkspaceID)
		h.logger.Debug().
			Str("client_id", c.ID).
			Str("workspace_id", cmd.WorkspaceID).
			Bool("new", joined).
			Msg("joined room")
	case CommandNotepadUpdate:
		ev := &Event{Kind: EventNotepadUpdate, WorkspaceID: cmd.WorkspaceID, Text: cmd.Text}
		n := h.presence.BroadcastToRoom(cmd.WorkspaceID, ev, c)
		h.logger.Debug().
			Str("client_id", c.ID).
			Str("workspace_id", cmd.WorkspaceID).
			Int("delivered", n).
			Msg("notepad update relayed")
	default:
		h.logger.Warn().Str("client_id", c.ID).Int("kind", int(cmd.Kind)).Msg("unknown command")
	}
}

func (h *Hub) handleAnnounce(workspaceID string) {
	n := h.presence.BroadcastToAll(&Event{Kind: EventWorkspaceLive, WorkspaceID: workspaceID})
	h.logger.Info().
		Str("workspace_id", workspaceID).
		Int("delivered", n).
		Msg("workspace live announced")
}
