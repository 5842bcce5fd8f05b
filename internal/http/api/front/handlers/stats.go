package handlers

import (
	"net/http"

	"github.com/entrefine/lifeos/internal/badges"
	"github.com/entrefine/lifeos/internal/gamification"
	"github.com/gin-gonic/gin"
)

// StatsHandler serves gamification stats and the badge catalog.
type StatsHandler struct {
	stats  *gamification.Service
	badges *badges.Service
}

// NewStatsHandler constructs a StatsHandler.
func NewStatsHandler(stats *gamification.Service, badgeSvc *badges.Service) *StatsHandler {
	return &StatsHandler{stats: stats, badges: badgeSvc}
}

// GetStats returns the caller's level, XP, and streak.
func (h *StatsHandler) GetStats(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	stats, err := h.stats.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// GetProgress returns the combined progress summary.
func (h *StatsHandler) GetProgress(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	summary, err := h.stats.GetProgressSummary(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"progress": summary})
}

// ListBadges returns the full badge catalog.
func (h *StatsHandler) ListBadges(c *gin.Context) {
	catalog, err := h.badges.ListBadges(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": catalog})
}

// ListUserBadges returns the badges the caller has earned.
func (h *StatsHandler) ListUserBadges(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	owned, err := h.badges.ListUserBadges(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"badges": owned})
}
