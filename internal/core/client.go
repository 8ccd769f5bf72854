package core

// DefaultQueueSize bounds a client's outbound event queue when none is given.
const DefaultQueueSize = 32

// Client is a single authenticated connection as seen by the core layer.
type Client struct {
	ID       string
	UserID   int64
	Username string
	Commands chan *Command
	Events   chan *Event

	// rooms is guarded by the owning Presence.
	rooms map[string]struct{}
}

// NewClient constructs a client with initialized channels.
func NewClient(id string, userID int64, username string, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Client{
		ID:       id,
		UserID:   userID,
		Username: username,
		Commands: make(chan *Command, queueSize),
		Events:   make(chan *Event, queueSize),
		rooms:    make(map[string]struct{}),
	}
}
