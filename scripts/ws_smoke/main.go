// Command ws_smoke connects two authenticated clients to a running server,
// joins both to one workspace room and checks that a notepad update sent by
// the first arrives at the second.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/log"
	"github.com/vovakirdan/collabspace-server/internal/proto"
)

func main() {
	logger := log.New("debug", "console")
	if err := run(logger); err != nil {
		logger.Error().Err(err).Msg("ws_smoke failed")
		os.Exit(1)
	}
}

func run(logger *zerolog.Logger) error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	senderToken := flag.String("token-a", "", "JWT of the sending user")
	receiverToken := flag.String("token-b", "", "JWT of the receiving user")
	workspace := flag.String("workspace", "", "workspace id to join")
	text := flag.String("text", "hello from smoke test", "notepad text to push")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *senderToken == "" || *receiverToken == "" || *workspace == "" {
		return errors.New("-token-a, -token-b and -workspace are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sender, err := dial(ctx, *addr, *senderToken)
	if err != nil {
		return fmt.Errorf("dial sender: %w", err)
	}
	defer sender.Close(websocket.StatusNormalClosure, "bye")

	receiver, err := dial(ctx, *addr, *receiverToken)
	if err != nil {
		return fmt.Errorf("dial receiver: %w", err)
	}
	defer receiver.Close(websocket.StatusNormalClosure, "bye")

	join := proto.Outbound{Event: proto.EventJoinRoom, Data: *workspace}
	for _, conn := range []*websocket.Conn{sender, receiver} {
		if err := wsjson.Write(ctx, conn, join); err != nil {
			return fmt.Errorf("send join-room: %w", err)
		}
	}
	logger.Info().Str("workspace_id", *workspace).Msg("both clients joined")

	// Joins are processed asynchronously; give the hub a moment before relaying.
	time.Sleep(200 * time.Millisecond)

	update := proto.Outbound{
		Event: proto.EventNotepadUpdate,
		Data:  proto.NotepadUpdateIn{WorkspaceID: *workspace, Text: *text},
	}
	if err := wsjson.Write(ctx, sender, update); err != nil {
		return fmt.Errorf("send notepad-update: %w", err)
	}

	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, receiver, &env); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		logger.Info().Str("event", env.Event).RawJSON("data", env.Data).Msg("received")

		if env.Event != proto.EventNotepadUpdate {
			continue
		}
		var out proto.NotepadUpdateOut
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return fmt.Errorf("decode notepad-update: %w", err)
		}
		if out.Text != *text {
			return fmt.Errorf("unexpected text %q", out.Text)
		}
		logger.Info().Msg("notepad update relayed")
		return nil
	}
}

func dial(ctx context.Context, addr, token string) (*websocket.Conn, error) {
	conn, _, err := websocket.Dial(ctx, addr, &websocket.DialOptions{
		HTTPHeader: map[string][]string{"Authorization": {"Bearer " + token}},
	})
	return conn, err
}
