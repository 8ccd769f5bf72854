package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/service/workspaces"
	"github.com/vovakirdan/collabspace-server/internal/store"
)

// WorkspaceHandlers provides HTTP handlers for workspace endpoints.
type WorkspaceHandlers struct {
	service *workspaces.Service
	log     *zerolog.Logger
}

// NewWorkspaceHandlers creates a new workspace handlers instance.
func NewWorkspaceHandlers(svc *workspaces.Service, logger *zerolog.Logger) *WorkspaceHandlers {
	return &WorkspaceHandlers{
		service: svc,
		log:     logger,
	}
}

// CreateWorkspaceRequest represents the request body for creating a workspace.
type CreateWorkspaceRequest struct {
	Name string `json:"name"`
}

// SaveNotepadRequest represents the request body for saving the notepad.
type SaveNotepadRequest struct {
	NotepadContent string `json:"notepadContent"`
}

// InviteRequest represents the request body for inviting a user.
type InviteRequest struct {
	WorkspaceID string `json:"workspaceId" binding:"required"`
	FriendID    int64  `json:"friendId" binding:"required"`
}

// StartLiveRequest represents the request body for starting a live session.
type StartLiveRequest struct {
	WorkspaceID string `json:"workspaceId"`
}

// WorkspaceResponse represents a workspace in API responses.
type WorkspaceResponse struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	OwnerID        int64          `json:"ownerId"`
	Owner          *UserResponse  `json:"owner,omitempty"`
	MemberIDs      []int64        `json:"memberIds"`
	Members        []UserResponse `json:"members,omitempty"`
	NotepadContent string         `json:"notepadContent"`
	IsLive         bool           `json:"isLive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// WorkspaceEnvelope wraps a single workspace with an optional message.
type WorkspaceEnvelope struct {
	Message   string            `json:"message,omitempty"`
	Workspace WorkspaceResponse `json:"workspace"`
}

// WorkspaceListResponse wraps a list of workspaces.
type WorkspaceListResponse struct {
	Workspaces []WorkspaceResponse `json:"workspaces"`
}

// SaveNotepadResponse echoes the stored notepad.
type SaveNotepadResponse struct {
	Message        string `json:"message"`
	NotepadContent string `json:"notepadContent"`
}

// PresenceResponse reports how many connections are joined to a workspace room.
type PresenceResponse struct {
	WorkspaceID string `json:"workspaceId"`
	Connections int    `json:"connections"`
}

func workspaceToResponse(ws *store.Workspace) WorkspaceResponse {
	ids := ws.MemberIDs
	if ids == nil {
		ids = []int64{}
	}
	return WorkspaceResponse{
		ID:             ws.ID,
		Name:           ws.Name,
		OwnerID:        ws.OwnerID,
		MemberIDs:      ids,
		NotepadContent: ws.NotepadContent,
		IsLive:         ws.IsLive,
		CreatedAt:      ws.CreatedAt,
		UpdatedAt:      ws.UpdatedAt,
	}
}

func detailsToResponse(d *workspaces.Details) WorkspaceResponse {
	resp := workspaceToResponse(d.Workspace)
	if d.Owner != nil {
		owner := userToResponse(d.Owner)
		resp.Owner = &owner
	}
	if d.Members != nil {
		resp.Members = usersToResponse(d.Members)
	}
	return resp
}

// writeWorkspaceError maps workspace service errors to HTTP statuses.
func writeWorkspaceError(c *gin.Context, logger *zerolog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, workspaces.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, workspaces.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, workspaces.ErrConflict),
		errors.Is(err, workspaces.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// Create handles creating a workspace.
// POST /api/workspaces
func (h *WorkspaceHandlers) Create(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	var req CreateWorkspaceRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	ws, err := h.service.Create(c.Request.Context(), user.UserID, req.Name)
	if err != nil {
		writeWorkspaceError(c, h.log, err, "failed to create workspace")
		return
	}

	h.log.Info().Str("workspace_id", ws.ID).Int64("owner_id", user.UserID).Msg("workspace created")
	c.JSON(http.StatusCreated, WorkspaceEnvelope{
		Message:   "workspace created",
		Workspace: workspaceToResponse(ws),
	})
}

// List handles listing the caller's workspaces.
// GET /api/workspaces
func (h *WorkspaceHandlers) List(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	list, err := h.service.ListForUser(c.Request.Context(), user.UserID)
	if err != nil {
		writeWorkspaceError(c, h.log, err, "failed to list workspaces")
		return
	}

	resp := WorkspaceListResponse{Workspaces: make([]WorkspaceResponse, 0, len(list))}
	for _, d := range list {
		resp.Workspaces = append(resp.Workspaces, detailsToResponse(d))
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles fetching a single workspace.
// GET /api/workspaces/:id
func (h *WorkspaceHandlers) Get(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	details, err := h.service.Get(c.Request.Context(), user.UserID, c.Param("id"))
	if err != nil {
		writeWorkspaceError(c, h.log, err, "failed to get workspace")
		return
	}
	c.JSON(http.StatusOK, WorkspaceEnvelope{Workspace: detailsToResponse(details)})
}

// SaveNotepad handles persisting the notepad.
// POST /api/workspaces/:id/save
func (h *WorkspaceHandlers) SaveNotepad(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	var req SaveNotepadRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	ws, err := h.service.SaveNotepad(c.Request.Context(), user.UserID, c.Param("id"), req.NotepadContent)
	if err != nil {
		writeWorkspaceError(c, h.log, err, "failed to save notepad")
		return
	}

	c.JSON(http.StatusOK, SaveNotepadResponse{
		Message:        "notepad saved",
		NotepadContent: ws.NotepadContent,
	})
}

// Invite handles adding a user to a workspace.
// POST /api/workspaces/invite
func (h *WorkspaceHandlers) Invite(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	var req InviteRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	ws, err := h.service.Invite(c.Request.Context(), user.UserID, req.WorkspaceID, req.FriendID)
	if err != nil {
		writeWorkspaceError(c, h.log, err, "failed to invite user")
		return
	}

	h.log.Info().
		Str("workspace_id", ws.ID).
		Int64("inviter_id", user.UserID).
		Int64("user_id", req.FriendID).
		Msg("user added to workspace")
	c.JSON(http.StatusOK, WorkspaceEnvelope{
		Message:   "user added to workspace",
		Workspace: workspaceToResponse(ws),
	})
}

// StartLive handles starting a live session.
// POST /api/workspaces/live
func (h *WorkspaceHandlers) StartLive(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	var req StartLiveRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	ws, err := h.service.StartLiveSession(c.Request.Context(), user.UserID, req.WorkspaceID)
	if err != nil {
		writeWorkspaceError(c, h.log, err, "failed to start live session")
		return
	}

	c.JSON(http.StatusOK, WorkspaceEnvelope{
		Message:   "live session started",
		Workspace: workspaceToResponse(ws),
	})
}

// Presence reports the live room size of a workspace.
// GET /api/workspaces/:id/presence
func (h *WorkspaceHandlers) Presence(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	workspaceID := c.Param("id")
	n, err := h.service.RoomSize(c.Request.Context(), user.UserID, workspaceID)
	if err != nil {
		writeWorkspaceError(c, h.log, err, "failed to read presence")
		return
	}
	c.JSON(http.StatusOK, PresenceResponse{WorkspaceID: workspaceID, Connections: n})
}
