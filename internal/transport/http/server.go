package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/auth"
	"github.com/vovakirdan/collabspace-server/internal/config"
	"github.com/vovakirdan/collabspace-server/internal/core"
	"github.com/vovakirdan/collabspace-server/internal/service/calls"
	"github.com/vovakirdan/collabspace-server/internal/service/friends"
	"github.com/vovakirdan/collabspace-server/internal/service/workspaces"
)

// Services bundles the application services the router exposes.
type Services struct {
	Auth       *auth.Service
	Friends    *friends.Service
	Workspaces *workspaces.Service
	Calls      *calls.Service
}

// NewServer builds the HTTP server with REST and WebSocket routes.
func NewServer(hub *core.Hub, svc Services, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, svc, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires every route onto a gin engine.
func NewRouter(hub *core.Hub, svc Services, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, svc.Auth, cfg, logger)))

	api := router.Group("/api")
	requireAuth := AuthMiddleware(svc.Auth, logger)

	authHandlers := NewAuthHandlers(svc.Auth, logger)
	authGroup := api.Group("/auth")
	authGroup.POST("/register", authHandlers.Register)
	authGroup.POST("/login", authHandlers.Login)
	authGroup.GET("/me", requireAuth, authHandlers.Me)

	friendsHandlers := NewFriendsHandlers(svc.Friends, logger)
	userHandlers := NewUserHandlers(svc.Friends, logger)
	api.GET("/friends/recipient-profile/:username", userHandlers.RecipientProfile)
	// Older clients use this spelling.
	api.GET("/friends/recepient-profile/:username", userHandlers.RecipientProfile)
	friendsGroup := api.Group("/friends", requireAuth)
	friendsGroup.POST("/send", friendsHandlers.SendRequest)
	friendsGroup.GET("/pending", friendsHandlers.ListPending)
	friendsGroup.POST("/respond", friendsHandlers.Respond)
	friendsGroup.GET("/all", friendsHandlers.AllFriends)
	friendsGroup.GET("/search", userHandlers.SearchUsers)
	friendsGroup.GET("/profile", userHandlers.Profile)

	workspaceHandlers := NewWorkspaceHandlers(svc.Workspaces, logger)
	callsHandlers := NewCallsHandlers(svc.Calls, logger)
	wsGroup := api.Group("/workspaces", requireAuth)
	wsGroup.POST("", workspaceHandlers.Create)
	wsGroup.GET("", workspaceHandlers.List)
	wsGroup.POST("/invite", workspaceHandlers.Invite)
	wsGroup.POST("/live", workspaceHandlers.StartLive)
	wsGroup.GET("/:id", workspaceHandlers.Get)
	wsGroup.POST("/:id/save", workspaceHandlers.SaveNotepad)
	wsGroup.GET("/:id/presence", workspaceHandlers.Presence)
	wsGroup.GET("/:id/live/voice", callsHandlers.JoinLiveVoice)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
