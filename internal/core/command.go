package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a workspace room.
	CommandJoinRoom CommandKind = iota
	// CommandNotepadUpdate relays the full notepad text to the other room members.
	CommandNotepadUpdate
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join-room"
	case CommandNotepadUpdate:
		return "notepad-update"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind        CommandKind
	WorkspaceID string
	Text        string
}
