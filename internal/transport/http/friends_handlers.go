package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/service/friends"
	"github.com/vovakirdan/collabspace-server/internal/store"
)

// FriendsHandlers provides HTTP handlers for friend request endpoints.
type FriendsHandlers struct {
	service *friends.Service
	log     *zerolog.Logger
}

// NewFriendsHandlers creates a new friends handlers instance.
func NewFriendsHandlers(svc *friends.Service, logger *zerolog.Logger) *FriendsHandlers {
	return &FriendsHandlers{
		service: svc,
		log:     logger,
	}
}

// SendFriendRequestRequest represents the request body for sending a friend request.
type SendFriendRequestRequest struct {
	ReceiverID int64 `json:"receiverId" binding:"required"`
}

// RespondFriendRequestRequest represents the request body for answering a friend request.
type RespondFriendRequestRequest struct {
	RequestID int64  `json:"requestId" binding:"required"`
	Action    string `json:"action" binding:"required"`
}

// FriendRequestResponse represents a friend request in API responses.
type FriendRequestResponse struct {
	ID         int64         `json:"id"`
	SenderID   int64         `json:"senderId"`
	ReceiverID int64         `json:"receiverId"`
	Status     string        `json:"status"`
	Sender     *UserResponse `json:"sender,omitempty"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// FriendListResponse splits friends by connection state.
type FriendListResponse struct {
	OnlineFriends  []UserResponse `json:"onlineFriends"`
	OfflineFriends []UserResponse `json:"offlineFriends"`
}

func friendRequestToResponse(r *store.FriendRequest, sender *store.User) FriendRequestResponse {
	resp := FriendRequestResponse{
		ID:         r.ID,
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if sender != nil {
		u := userToResponse(sender)
		resp.Sender = &u
	}
	return resp
}

// writeFriendsError maps friends service errors to HTTP statuses.
func writeFriendsError(c *gin.Context, logger *zerolog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, friends.ErrUserNotFound),
		errors.Is(err, friends.ErrRequestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, friends.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, friends.ErrCannotFriendSelf),
		errors.Is(err, friends.ErrAlreadyFriends),
		errors.Is(err, friends.ErrRequestAlreadyExists),
		errors.Is(err, friends.ErrRequestNotPending),
		errors.Is(err, friends.ErrInvalidAction),
		errors.Is(err, friends.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		logger.Error().Err(err).Msg(msg)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// SendRequest handles sending a friend request.
// POST /api/friends/send
func (h *FriendsHandlers) SendRequest(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	var req SendFriendRequestRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	fr, err := h.service.SendRequest(c.Request.Context(), user.UserID, req.ReceiverID)
	if err != nil {
		writeFriendsError(c, h.log, err, "failed to send friend request")
		return
	}

	h.log.Info().Int64("from_user_id", user.UserID).Int64("to_user_id", req.ReceiverID).Msg("friend request sent")
	c.JSON(http.StatusCreated, friendRequestToResponse(fr, nil))
}

// ListPending handles listing incoming pending friend requests.
// GET /api/friends/pending
func (h *FriendsHandlers) ListPending(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	pending, err := h.service.ListPending(c.Request.Context(), user.UserID)
	if err != nil {
		writeFriendsError(c, h.log, err, "failed to list pending requests")
		return
	}

	response := make([]FriendRequestResponse, 0, len(pending))
	for _, p := range pending {
		response = append(response, friendRequestToResponse(p.FriendRequest, p.Sender))
	}
	c.JSON(http.StatusOK, response)
}

// Respond handles accepting or rejecting a friend request.
// POST /api/friends/respond
func (h *FriendsHandlers) Respond(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	var req RespondFriendRequestRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	fr, err := h.service.Respond(c.Request.Context(), user.UserID, req.RequestID, req.Action)
	if err != nil {
		writeFriendsError(c, h.log, err, "failed to respond to friend request")
		return
	}

	h.log.Info().
		Int64("user_id", user.UserID).
		Int64("request_id", req.RequestID).
		Str("action", req.Action).
		Msg("friend request answered")
	c.JSON(http.StatusOK, friendRequestToResponse(fr, nil))
}

// AllFriends handles listing friends split by online state.
// GET /api/friends/all
func (h *FriendsHandlers) AllFriends(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	list, err := h.service.AllFriends(c.Request.Context(), user.UserID)
	if err != nil {
		writeFriendsError(c, h.log, err, "failed to list friends")
		return
	}

	c.JSON(http.StatusOK, FriendListResponse{
		OnlineFriends:  usersToResponse(list.Online),
		OfflineFriends: usersToResponse(list.Offline),
	})
}
