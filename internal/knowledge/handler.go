package knowledge

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/avion00/medicare-backend/internal/crawl"
	"github.com/avion00/medicare-backend/pkg/auth"
	"github.com/avion00/medicare-backend/pkg/logging"
	"github.com/avion00/medicare-backend/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// SiteCrawler is the crawl entry point used by the handler.
type SiteCrawler interface {
	Crawl(ctx context.Context, base string, maxPages int) ([]crawl.PageSummary, error)
}

// TrainingRepository manages curated Q&A pairs.
type TrainingRepository interface {
	List(ctx context.Context, userID, websiteID int64) ([]TrainingPair, error)
	Add(ctx context.Context, userID, websiteID int64, question, answer string) (TrainingPair, error)
	Delete(ctx context.Context, userID, pairID int64) error
}

type Handler struct {
	Store           EntryStore
	Training        TrainingRepository
	Crawler         SiteCrawler
	Logger          logging.Logger
	DefaultMaxPages int
	PublicBaseURL   string
}

func NewHandler(store EntryStore, training TrainingRepository, crawler SiteCrawler, logger logging.Logger) *Handler {
	return &Handler{
		Store:           store,
		Training:        training,
		Crawler:         crawler,
		Logger:          logger,
		DefaultMaxPages: crawl.DefaultMaxPages,
	}
}

func RegisterRoutes(router gin.IRoutes, h *Handler) {
	router.POST("/crawl", h.HandleCrawl)
	router.GET("/summaries", h.HandleListSummaries)
	router.GET("/summary/:website_id", h.HandleGetSummary)
	router.GET("/generate_snippet/:website_id", h.HandleSnippet)
	router.POST("/training_data", h.HandleAddTraining)
	router.GET("/training_data/:website_id", h.HandleListTraining)
	router.DELETE("/training_data/:id", h.HandleDeleteTraining)
}

type CrawlRequest struct {
	BaseURL  string `json:"base_url"`
	MaxPages *int   `json:"max_pages,omitempty"`
}

type TrainingRequest struct {
	WebsiteID int64  `json:"website_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

func (h *Handler) HandleCrawl(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CrawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	req.BaseURL = strings.TrimSpace(req.BaseURL)
	if req.BaseURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_url is required"})
		return
	}
	maxPages := h.DefaultMaxPages
	if req.MaxPages != nil {
		maxPages = *req.MaxPages
	}

	log := middleware.GetContextLogger(c, h.Logger).WithFields(logging.Fields{
		"user_id":   userID,
		"base_url":  req.BaseURL,
		"max_pages": maxPages,
	})

	pages, err := h.Crawler.Crawl(c.Request.Context(), req.BaseURL, maxPages)
	if err != nil {
		if errors.Is(err, crawl.ErrInvalidTarget) {
			crawlRequestsTotal.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "base_url is not a valid URL"})
			return
		}
		crawlRequestsTotal.WithLabelValues("error").Inc()
		log.WithError(err).Error("Crawl failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "crawl failed"})
		return
	}
	if pages == nil {
		pages = []crawl.PageSummary{}
	}

	entry, err := h.Store.Create(c.Request.Context(), userID, req.BaseURL, CombineSummaries(pages))
	if err != nil {
		crawlRequestsTotal.WithLabelValues("error").Inc()
		log.WithError(err).Error("Failed to store crawl summaries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save summaries"})
		return
	}

	crawlRequestsTotal.WithLabelValues("success").Inc()
	log.WithFields(logging.Fields{"website_id": entry.ID, "pages": len(pages)}).Info("Crawl stored")
	c.JSON(http.StatusOK, gin.H{
		"message":    "Crawling completed",
		"data":       pages,
		"website_id": entry.ID,
	})
}

func (h *Handler) HandleListSummaries(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entries, err := h.Store.List(c.Request.Context(), userID)
	if err != nil {
		middleware.GetContextLogger(c, h.Logger).WithError(err).Error("Failed to list summaries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load summaries"})
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No summaries found for this user."})
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) HandleGetSummary(c *gin.Context) {
	userID, websiteID, ok := h.ownerAndID(c, "website_id")
	if !ok {
		return
	}

	entry, err := h.Store.Get(c.Request.Context(), userID, websiteID)
	if err != nil {
		h.writeLookupError(c, err, "Summary not found for this website.")
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) HandleSnippet(c *gin.Context) {
	userID, websiteID, ok := h.ownerAndID(c, "website_id")
	if !ok {
		return
	}

	if _, err := h.Store.Get(c.Request.Context(), userID, websiteID); err != nil {
		h.writeLookupError(c, err, "No knowledge base found for the given website.")
		return
	}

	snippet, err := Snippet(h.PublicBaseURL, websiteID)
	if err != nil {
		middleware.GetContextLogger(c, h.Logger).WithError(err).Error("Failed to render snippet")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate snippet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snippet": snippet})
}

func (h *Handler) HandleAddTraining(c *gin.Context) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req TrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if req.WebsiteID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "website_id is required"})
		return
	}

	pair, err := h.Training.Add(c.Request.Context(), userID, req.WebsiteID, req.Question, req.Answer)
	if err != nil {
		if errors.Is(err, ErrInvalidPair) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "question and answer are required"})
			return
		}
		h.writeLookupError(c, err, "No knowledge base found for the given website.")
		return
	}
	c.JSON(http.StatusCreated, pair)
}

func (h *Handler) HandleListTraining(c *gin.Context) {
	userID, websiteID, ok := h.ownerAndID(c, "website_id")
	if !ok {
		return
	}

	// Distinguish "no pairs yet" from "not your website".
	if _, err := h.Store.Get(c.Request.Context(), userID, websiteID); err != nil {
		h.writeLookupError(c, err, "No knowledge base found for the given website.")
		return
	}
	pairs, err := h.Training.List(c.Request.Context(), userID, websiteID)
	if err != nil {
		middleware.GetContextLogger(c, h.Logger).WithError(err).WithField("website_id", websiteID).Error("Failed to list training data")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load training data"})
		return
	}
	if pairs == nil {
		pairs = []TrainingPair{}
	}
	c.JSON(http.StatusOK, pairs)
}

func (h *Handler) HandleDeleteTraining(c *gin.Context) {
	userID, pairID, ok := h.ownerAndID(c, "id")
	if !ok {
		return
	}

	if err := h.Training.Delete(c.Request.Context(), userID, pairID); err != nil {
		h.writeLookupError(c, err, "Training pair not found.")
		return
	}
	c.Status(http.StatusNoContent)
}

// ownerAndID resolves the caller and a positive integer path parameter,
// writing the error response itself when either is missing.
func (h *Handler) ownerAndID(c *gin.Context, param string) (int64, int64, bool) {
	userID, ok := auth.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, 0, false
	}
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
		return 0, 0, false
	}
	return userID, id, true
}

func (h *Handler) writeLookupError(c *gin.Context, err error, notFoundMessage string) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFoundMessage})
		return
	}
	middleware.GetContextLogger(c, h.Logger).WithError(err).WithField("path", c.FullPath()).Error("Knowledge lookup failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
