package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/transport/http/middleware"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/usecase"
)

// AuthHandler exposes registration, login, and logout endpoints.
type AuthHandler struct {
	registration *usecase.RegistrationService
	sessions     *usecase.SessionManager
}

// NewAuthHandler constructs an auth handler.
func NewAuthHandler(registration *usecase.RegistrationService, sessions *usecase.SessionManager) *AuthHandler {
	return &AuthHandler{registration: registration, sessions: sessions}
}

// Register creates a new account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "username, email, and password are required"))
		return
	}

	user, err := h.registration.RegisterUser(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidUserData, Status: http.StatusBadRequest, Message: "invalid registration data"},
			{Err: usecase.ErrUsernameTaken, Status: http.StatusConflict, Message: "username already registered"},
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "registration failed")
		return
	}

	c.JSON(http.StatusCreated, UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		RegisteredAt: user.RegisteredAt,
	})
}

// Login verifies credentials and issues a bearer token. The token is returned
// both in the body and in the Authorization response header.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and password are required"))
		return
	}

	token, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
			{Err: usecase.ErrAlreadyOnline, Status: http.StatusConflict, Message: "user already logged in"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "login failed")
		return
	}

	c.Header("Authorization", "Bearer "+token)
	c.JSON(http.StatusOK, LoginResponse{Token: token})
}

// Logout ends the caller's session. Repeating it for a session already
// closed succeeds: only a malformed token is rejected.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.BearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "missing authorization header"))
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
		cases := []ErrorCase{
			{Err: usecase.ErrMalformedToken, Status: http.StatusUnauthorized, Message: "malformed token"},
		}
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "logout failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}
