package http

import (
	"fmt"

	"github.com/vovakirdan/collabspace-server/internal/core"
	"github.com/vovakirdan/collabspace-server/internal/proto"
)

func inboundToCommand(env proto.Envelope) (*core.Command, error) {
	switch env.Event {
	case proto.EventJoinRoom:
		workspaceID, err := proto.DecodeJoinRoom(env.Data)
		if err != nil {
			return nil, fmt.Errorf("decode join-room: %w", err)
		}
		return &core.Command{
			Kind:        core.CommandJoinRoom,
			WorkspaceID: workspaceID,
		}, nil
	case proto.EventNotepadUpdate:
		update, err := proto.DecodeNotepadUpdate(env.Data)
		if err != nil {
			return nil, fmt.Errorf("decode notepad-update: %w", err)
		}
		return &core.Command{
			Kind:        core.CommandNotepadUpdate,
			WorkspaceID: update.WorkspaceID,
			Text:        update.Text,
		}, nil
	default:
		return nil, fmt.Errorf("unknown event %q", env.Event)
	}
}

func outboundFromEvent(event *core.Event) (proto.Outbound, bool) {
	switch event.Kind {
	case core.EventNotepadUpdate:
		return proto.Outbound{
			Event: proto.EventNotepadUpdate,
			Data:  proto.NotepadUpdateOut{Text: event.Text},
		}, true
	case core.EventWorkspaceLive:
		return proto.Outbound{
			Event: proto.EventWorkspaceLive,
			Data:  event.WorkspaceID,
		}, true
	default:
		return proto.Outbound{}, false
	}
}
