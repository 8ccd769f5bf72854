package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/service/calls"
)

// CallsHandlers provides HTTP handlers for live voice endpoints.
type CallsHandlers struct {
	service *calls.Service
	log     *zerolog.Logger
}

// NewCallsHandlers creates a new calls handlers instance.
func NewCallsHandlers(svc *calls.Service, logger *zerolog.Logger) *CallsHandlers {
	return &CallsHandlers{
		service: svc,
		log:     logger,
	}
}

// JoinInfoResponse represents join information in API responses.
type JoinInfoResponse struct {
	URL      string `json:"url"`
	Token    string `json:"token"`
	RoomName string `json:"roomName"`
	Identity string `json:"identity"`
}

// JoinLiveVoice issues media credentials for a live workspace.
// GET /api/workspaces/:id/live/voice
func (h *CallsHandlers) JoinLiveVoice(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	workspaceID := c.Param("id")
	info, err := h.service.JoinLiveVoice(c.Request.Context(), user.UserID, user.Username, workspaceID)
	if err != nil {
		switch {
		case errors.Is(err, calls.ErrLiveKitNotEnabled):
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		case errors.Is(err, calls.ErrWorkspaceNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		case errors.Is(err, calls.ErrNotMember):
			c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
		case errors.Is(err, calls.ErrNotLive):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.log.Error().Err(err).Str("workspace_id", workspaceID).Msg("failed to issue voice join info")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, JoinInfoResponse{
		URL:      info.URL,
		Token:    info.Token,
		RoomName: info.RoomName,
		Identity: info.Identity,
	})
}
