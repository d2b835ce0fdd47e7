package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/http/middleware"
	"github.com/you/glucopredict/internal/logging"
)

// AuthHandlers handles account HTTP requests
type AuthHandlers struct {
	authSvc domain.AuthService
	logger  *slog.Logger
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authSvc domain.AuthService, log *slog.Logger) *AuthHandlers {
	return &AuthHandlers{
		authSvc: authSvc,
		logger:  logging.OrNop(log).With("component", "auth_handlers"),
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name,omitempty"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles user registration
func (h *AuthHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		RespondError(c, h.logger, err, "Registration failed")
		return
	}

	h.logger.InfoContext(c.Request.Context(), "user registered", "user_id", result.User.ID)
	c.JSON(http.StatusCreated, authBody(result))
}

// Login handles user login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, h.logger, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, authBody(result))
}

// Profile returns the authenticated user's account
func (h *AuthHandlers) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, h.logger, domain.ErrUnauthorized, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":               user.ID,
			"email":            user.Email,
			"name":             user.Name,
			"created_at":       user.CreatedAt,
			"last_login":       user.LastLogin,
			"login_count":      user.LoginCount,
			"prediction_count": user.PredictionCount,
			"is_active":        user.IsActive,
		},
	})
}

// Deactivate disables the authenticated user's account
func (h *AuthHandlers) Deactivate(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		RespondError(c, h.logger, domain.ErrUnauthorized, "")
		return
	}

	if err := h.authSvc.Deactivate(c.Request.Context(), user); err != nil {
		RespondError(c, h.logger, err, "Failed to deactivate account")
		return
	}

	h.logger.InfoContext(c.Request.Context(), "account deactivated", "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Account deactivated successfully"})
}

func authBody(result *domain.AuthResult) gin.H {
	return gin.H{
		"user": gin.H{
			"id":    result.User.ID,
			"email": result.User.Email,
			"name":  result.User.Name,
		},
		"token": result.Token,
	}
}
