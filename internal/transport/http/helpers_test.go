package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/collabspace-server/internal/auth"
	"github.com/vovakirdan/collabspace-server/internal/config"
	"github.com/vovakirdan/collabspace-server/internal/core"
	"github.com/vovakirdan/collabspace-server/internal/proto"
	"github.com/vovakirdan/collabspace-server/internal/service/calls"
	"github.com/vovakirdan/collabspace-server/internal/service/friends"
	"github.com/vovakirdan/collabspace-server/internal/service/workspaces"
	"github.com/vovakirdan/collabspace-server/internal/store/sqlite"
)

type testEnv struct {
	store  *sqlite.SQLiteStore
	hub    *core.Hub
	auth   *auth.Service
	router *gin.Engine
	server *httptest.Server
}

type testUser struct {
	ID    int64
	Name  string
	Token string
}

func newTestEnv(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.ApplySchema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	logger := zerolog.Nop()
	cfg := config.Default()
	cfg.WSRateLimit = 0
	for _, opt := range opts {
		opt(&cfg)
	}

	hub := core.NewHub(nil, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	})

	router := NewRouter(hub, Services{
		Auth:       authService,
		Friends:    friends.New(st, hub.Presence()),
		Workspaces: workspaces.New(st, hub, hub.Presence(), &logger),
		Calls:      calls.New(st, nil, &logger),
	}, &cfg, &logger)

	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		ts.Close()
		cancel()
		<-done
	})

	return &testEnv{store: st, hub: hub, auth: authService, router: router, server: ts}
}

func (e *testEnv) register(t *testing.T, name string) testUser {
	t.Helper()

	token, err := e.auth.Register(context.Background(), name, name+"@example.com", "password123")
	require.NoError(t, err)
	claims, err := e.auth.ValidateToken(token)
	require.NoError(t, err)
	return testUser{ID: claims.UserID, Name: name, Token: token}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) createWorkspace(t *testing.T, owner testUser, name string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/workspaces", owner.Token, CreateWorkspaceRequest{Name: name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[WorkspaceEnvelope](t, rec).Workspace.ID
}

func (e *testEnv) dial(t *testing.T, user testUser) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := strings.Replace(e.server.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + user.Token}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, proto.Outbound{Event: event, Data: data}))
}

func receive(t *testing.T, conn *websocket.Conn) proto.Envelope {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var env proto.Envelope
	require.NoError(t, wsjson.Read(ctx, conn, &env))
	return env
}

func (e *testEnv) waitRoomSize(t *testing.T, workspaceID string, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return e.hub.Presence().RoomSize(workspaceID) == n
	}, 2*time.Second, 5*time.Millisecond)
}

func (e *testEnv) waitConnections(t *testing.T, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return e.hub.Presence().ConnectionCount() == n
	}, 2*time.Second, 5*time.Millisecond)
}
