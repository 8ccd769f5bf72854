package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/collabspace-server/internal/auth"
)

// AuthHandlers serves account registration, login and the caller's identity.
type AuthHandlers struct {
	auth *auth.Service
	log  *zerolog.Logger
}

// NewAuthHandlers creates the auth handlers.
func NewAuthHandlers(authService *auth.Service, logger *zerolog.Logger) *AuthHandlers {
	return &AuthHandlers{auth: authService, log: logger}
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries a freshly issued token.
type AuthResponse struct {
	Token string `json:"token"`
}

// IdentityResponse is the identity encoded in the caller's token.
type IdentityResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Register creates an account and returns a token for it.
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	token, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(c, err, req.Username)
		return
	}

	h.log.Info().Str("username", req.Username).Msg("user registered")
	c.JSON(http.StatusCreated, AuthResponse{Token: token})
}

// Login exchanges credentials for a token.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, h.log, &req) {
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err, req.Username)
		return
	}

	h.log.Debug().Str("username", req.Username).Msg("user logged in")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// Me echoes the identity AuthMiddleware resolved from the token.
func (h *AuthHandlers) Me(c *gin.Context) {
	user, ok := mustUser(c, h.log)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, IdentityResponse{ID: user.UserID, Username: user.Username, Email: user.Email})
}

func (h *AuthHandlers) writeError(c *gin.Context, err error, username string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrUserExists):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.log.Error().Err(err).Str("username", username).Msg("auth request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// bindJSON decodes the request body into dst, replying 400 when it does not fit.
func bindJSON(c *gin.Context, logger *zerolog.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logger.Debug().Err(err).Str("path", c.FullPath()).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
