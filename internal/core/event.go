package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventNotepadUpdate carries another participant's notepad text.
	EventNotepadUpdate EventKind = iota
	// EventWorkspaceLive announces that a workspace started a live session.
	EventWorkspaceLive
)

func (k EventKind) String() string {
	switch k {
	case EventNotepadUpdate:
		return "notepad-update"
	case EventWorkspaceLive:
		return "workspace-live"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
// Events are shared between recipients and must not be mutated after broadcast.
type Event struct {
	Kind        EventKind
	WorkspaceID string
	Text        string
}
