package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/optiprice/backend/internal/domain"
)

// Version is reported by the health check
const Version = "1.0.0"

// statusClientClosedRequest is the de facto status for requests the client abandoned
const statusClientClosedRequest = 499

// CompetitorMatcher finds the closest competitor listing for a product description
type CompetitorMatcher interface {
	FindBestMatch(ctx context.Context, myDescription, keyword string) (*domain.MatchResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	matcher  CompetitorMatcher
	strategy string
}

// NewHandler creates a new HTTP handler. strategy names the embedding strategy in use.
func NewHandler(matcher CompetitorMatcher, strategy string) *Handler {
	return &Handler{
		matcher:  matcher,
		strategy: strategy,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	response := gin.H{
		"status":  "healthy",
		"service": "optiprice-backend",
		"version": Version,
	}
	if h.strategy != "" {
		response["strategy"] = h.strategy
	}
	c.JSON(http.StatusOK, response)
}

// FindCompetitor handles competitor match requests
func (h *Handler) FindCompetitor(c *gin.Context) {
	if h.matcher == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Competitor matching is not configured",
		})
		return
	}

	var req domain.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: keyword is required",
		})
		return
	}

	result, err := h.matcher.FindBestMatch(c.Request.Context(), req.Description, req.Keyword)
	if err != nil {
		h.handleMatchError(c, req.Keyword, err)
		return
	}

	if result.BestMatch == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":         "No competitors found",
			"allCandidates": result.AllCandidates,
			"strategy":      result.Strategy,
		})
		return
	}

	if result.Degraded {
		c.JSON(http.StatusOK, gin.H{
			"warning": "Similarity scoring unavailable - best match is the first listing found",
			"data":    result,
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleMatchError maps orchestrator errors to HTTP status codes
func (h *Handler) handleMatchError(c *gin.Context, keyword string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: keyword is required",
		})
	case errors.Is(err, domain.ErrCancelled):
		log.Printf("[HTTP] Match for %q cancelled: %v", keyword, err)
		c.JSON(statusClientClosedRequest, gin.H{
			"error": "Request cancelled",
		})
	case errors.Is(err, domain.ErrSearchFailed):
		log.Printf("[HTTP] Match for %q failed: %v", keyword, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Marketplace search temporarily unavailable",
		})
	default:
		log.Printf("[HTTP] Unexpected match error for %q: %v", strings.TrimSpace(keyword), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}
