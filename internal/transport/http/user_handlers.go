package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/service/friends"
	"github.com/vovakirdan/collabspace-server/internal/store"
)

// UserHandlers provides HTTP handlers for user search and profiles.
type UserHandlers struct {
	service *friends.Service
	log     *zerolog.Logger
}

// NewUserHandlers creates a new user handlers instance.
func NewUserHandlers(svc *friends.Service, logger *zerolog.Logger) *UserHandlers {
	return &UserHandlers{
		service: svc,
		log:     logger,
	}
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProfileResponse is a user with their friend ids.
type ProfileResponse struct {
	UserResponse
	Friends []int64 `json:"friends"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Users []UserResponse `json:"users"`
}

func userToResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func usersToResponse(users []*store.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userToResponse(u))
	}
	return out
}

func profileToResponse(p *friends.Profile) ProfileResponse {
	ids := p.FriendIDs
	if ids == nil {
		ids = []int64{}
	}
	return ProfileResponse{UserResponse: userToResponse(p.User), Friends: ids}
}

// SearchUsers handles searching for users by username.
// GET /api/friends/search?username=query
func (h *UserHandlers) SearchUsers(c *gin.Context) {
	users, err := h.service.Search(c.Request.Context(), c.Query("username"))
	if err != nil {
		writeFriendsError(c, h.log, err, "failed to search users")
		return
	}
	c.JSON(http.StatusOK, SearchResponse{Users: usersToResponse(users)})
}

// Profile returns the caller's own profile.
// GET /api/friends/profile
func (h *UserHandlers) Profile(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}

	profile, err := h.service.Profile(c.Request.Context(), user.UserID)
	if err != nil {
		writeFriendsError(c, h.log, err, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, profileToResponse(profile))
}

// RecipientProfile returns a profile by username. It does not require authentication.
// GET /api/friends/recipient-profile/:username
func (h *UserHandlers) RecipientProfile(c *gin.Context) {
	profile, err := h.service.ProfileByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		writeFriendsError(c, h.log, err, "failed to load profile")
		return
	}
	c.JSON(http.StatusOK, profileToResponse(profile))
}
