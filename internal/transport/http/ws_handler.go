package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/auth"
	"github.com/vovakirdan/collabspace-server/internal/config"
	"github.com/vovakirdan/collabspace-server/internal/core"
	"github.com/vovakirdan/collabspace-server/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to core.Client.
type WSHandler struct {
	hub  *core.Hub
	auth *auth.Service
	cfg  *config.Config
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{hub: hub, auth: authService, cfg: cfg, log: logger}
}

// authenticate accepts the token from the Authorization header or the token query parameter.
func (h *WSHandler) authenticate(r *stdhttp.Request) (*auth.Claims, error) {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, errors.New("missing token")
	}
	return h.auth.ValidateToken(token)
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	claims, err := h.authenticate(r)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws unauthorized")
		stdhttp.Error(w, "unauthorized", stdhttp.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	client := core.NewClient(uuid.NewString(), claims.UserID, claims.Username, h.cfg.ClientQueueSize)
	if err := h.hub.RegisterClient(client); err != nil {
		h.log.Warn().Err(err).Msg("ws register failed")
		conn.Close(websocket.StatusTryAgainLater, "server shutting down")
		return
	}
	defer h.hub.UnregisterClient(client)

	log := h.log.With().
		Str("client_id", client.ID).
		Int64("user_id", client.UserID).
		Logger()
	log.Info().Msg("ws connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	limiter := newRateLimiter(h.cfg.WSRateLimit)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, client, limiter, &log)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, client, &log)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		switch s := websocket.CloseStatus(err); s {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		case -1:
			status = websocket.StatusInternalError
			reason = "internal error"
			log.Warn().Err(err).Msg("ws connection closed with error")
		default:
			status = s
		}
	}

	log.Info().Msg("ws disconnected")
	conn.Close(status, reason)
}

// readLoop decodes inbound frames. Malformed or rate-limited frames are logged and dropped;
// join-room frames bypass the rate limit. Only transport errors end the loop.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, limiter *rateLimiter, log *zerolog.Logger) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var env proto.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Msg("malformed ws frame dropped")
			continue
		}

		// Joins are not counted: a dropped join would silence the room for this client.
		if env.Event != proto.EventJoinRoom && !limiter.allow() {
			log.Warn().Str("event", env.Event).Msg("ws rate limit exceeded, frame dropped")
			continue
		}

		cmd, err := inboundToCommand(env)
		if err != nil {
			log.Warn().Err(err).Str("event", env.Event).Msg("invalid ws frame dropped")
			continue
		}

		select {
		case client.Commands <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client, log *zerolog.Logger) error {
	for {
		select {
		case event, ok := <-client.Events:
			if !ok {
				return nil
			}
			out, ok := outboundFromEvent(event)
			if !ok {
				log.Warn().Stringer("event", event.Kind).Msg("unmapped event skipped")
				continue
			}
			if err := wsjson.Write(ctx, conn, out); err != nil {
				log.Error().Err(err).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
