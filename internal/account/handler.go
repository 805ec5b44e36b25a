package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/avion00/medicare-backend/pkg/auth"
	"github.com/avion00/medicare-backend/pkg/logging"
	"github.com/avion00/medicare-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Accounts is the account workflow used by Handler.
type Accounts interface {
	Register(ctx context.Context, in RegisterInput) (User, error)
	Login(ctx context.Context, username, password string) (string, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type Handler struct {
	Accounts Accounts
	Logger   logging.Logger
}

func NewHandler(accounts Accounts, logger logging.Logger) *Handler {
	return &Handler{Accounts: accounts, Logger: logger}
}

// RegisterPublicRoutes mounts the routes reachable without a session.
func RegisterPublicRoutes(router gin.IRoutes, h *Handler) {
	router.POST("/register", h.HandleRegister)
	router.POST("/login", h.HandleLogin)
	router.POST("/request_password_reset", h.HandleRequestPasswordReset)
	router.POST("/reset_password", h.HandleResetPassword)
}

// RegisterRoutes mounts the routes that require JWTAuthMiddleware.
func RegisterRoutes(router gin.IRoutes, h *Handler) {
	router.GET("/dashboard", h.HandleDashboard)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type SetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) HandleRegister(c *gin.Context) {
	var req RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	if _, err := h.Accounts.Register(c.Request.Context(), req); err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "first_name, last_name, username, email and password are required"})
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		default:
			middleware.GetContextLogger(c, h.Logger).WithError(err).Error("Registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User registered successfully",
	})
}

func (h *Handler) HandleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	token, err := h.Accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		middleware.GetContextLogger(c, h.Logger).WithError(err).Error("Login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
	})
}

func (h *Handler) HandleRequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	if err := h.Accounts.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		middleware.GetContextLogger(c, h.Logger).WithError(err).Error("Password reset request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset link has been sent to your email."})
}

func (h *Handler) HandleResetPassword(c *gin.Context) {
	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}

	if err := h.Accounts.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrMissingFields):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Token and new password are required"})
		case errors.Is(err, ErrInvalidResetToken):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
		default:
			middleware.GetContextLogger(c, h.Logger).WithError(err).Error("Password reset failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "password reset failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully."})
}

func (h *Handler) HandleDashboard(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Welcome to your dashboard, User %d!", userID)})
}
