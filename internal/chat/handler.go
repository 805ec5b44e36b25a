package chat

import (
	"context"
	"errors"
	"net/http"

	"github.com/avion00/medicare-backend/internal/knowledge"
	"github.com/avion00/medicare-backend/pkg/auth"
	"github.com/avion00/medicare-backend/pkg/logging"
	"github.com/avion00/medicare-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

const maxMessageRunes = 10000

// Answerer resolves one chat message.
type Answerer interface {
	Answer(ctx context.Context, userID, websiteID int64, message string) (string, error)
}

type ChatHandler struct {
	Resolver Answerer
	Logger   logging.Logger
}

type ChatRequest struct {
	Message   string `json:"message"`
	WebsiteID int64  `json:"website_id"`
}

func NewChatHandler(resolver Answerer, logger logging.Logger) *ChatHandler {
	return &ChatHandler{Resolver: resolver, Logger: logger}
}

func RegisterRoutes(router gin.IRoutes, handler *ChatHandler) {
	router.POST("/chat", handler.HandleChat)
}

func (h *ChatHandler) HandleChat(c *gin.Context) {
	if h == nil || h.Resolver == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "handler unavailable"})
		return
	}
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if len([]rune(req.Message)) > maxMessageRunes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message too long"})
		return
	}
	if req.WebsiteID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "website_id is required"})
		return
	}

	reply, err := h.Resolver.Answer(c.Request.Context(), userID, req.WebsiteID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, ErrMessageRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		case errors.Is(err, knowledge.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No knowledge base found for the given website."})
		case errors.Is(err, ErrGeneration):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate response"})
		default:
			middleware.GetContextLogger(c, h.Logger).WithError(err).WithFields(logging.Fields{
				"user_id":    userID,
				"website_id": req.WebsiteID,
			}).Error("Chat request failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"response": reply})
}
