package proto

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Envelope is the frame shape in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Outbound is the frame sent to the client; Data is marshaled as-is.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

const (
	EventJoinRoom      = "join-room"
	EventNotepadUpdate = "notepad-update"
	EventWorkspaceLive = "workspace-live"
)

// ErrMissingWorkspaceID is returned when a frame does not name a workspace.
var ErrMissingWorkspaceID = errors.New("missing workspace id")

// JoinRoomData is the object form of a join-room payload.
type JoinRoomData struct {
	WorkspaceID string `json:"workspaceId"`
}

// NotepadUpdateIn is the inbound notepad-update payload.
type NotepadUpdateIn struct {
	WorkspaceID string `json:"workspaceId"`
	Text        string `json:"text"`
}

// NotepadUpdateOut is the outbound notepad-update payload.
type NotepadUpdateOut struct {
	Text string `json:"text"`
}

// DecodeJoinRoom accepts either a bare JSON string or {"workspaceId": "..."}.
func DecodeJoinRoom(data json.RawMessage) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "", ErrMissingWorkspaceID
	}

	var id string
	if data[0] == '"' {
		if err := json.Unmarshal(data, &id); err != nil {
			return "", err
		}
	} else {
		var obj JoinRoomData
		if err := json.Unmarshal(data, &obj); err != nil {
			return "", err
		}
		id = obj.WorkspaceID
	}

	if id == "" {
		return "", ErrMissingWorkspaceID
	}
	return id, nil
}

// DecodeNotepadUpdate parses an inbound notepad-update payload.
func DecodeNotepadUpdate(data json.RawMessage) (NotepadUpdateIn, error) {
	var in NotepadUpdateIn
	if err := json.Unmarshal(data, &in); err != nil {
		return in, err
	}
	if in.WorkspaceID == "" {
		return in, ErrMissingWorkspaceID
	}
	return in, nil
}
