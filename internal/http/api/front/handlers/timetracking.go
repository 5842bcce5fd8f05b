package handlers

import (
	"net/http"
	"time"

	"github.com/entrefine/lifeos/internal/timetracking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TimeHandler serves the time tracking endpoints.
type TimeHandler struct {
	time *timetracking.Service
}

// NewTimeHandler constructs a TimeHandler.
func NewTimeHandler(timeSvc *timetracking.Service) *TimeHandler {
	return &TimeHandler{time: timeSvc}
}

// Start begins a timer on a node.
func (h *TimeHandler) Start(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		NodeID uuid.UUID `json:"node_id" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "node_id is required"})
		return
	}

	entry, err := h.time.Start(c.Request.Context(), userID, body.NodeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

// Stop ends the caller's running timer.
func (h *TimeHandler) Stop(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	entry, awarded, err := h.time.Stop(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "awarded_badges": awarded})
}

// AddManual records a finished span directly.
func (h *TimeHandler) AddManual(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		NodeID    uuid.UUID `json:"node_id" binding:"required"`
		StartedAt time.Time `json:"started_at" binding:"required"`
		EndedAt   time.Time `json:"ended_at" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "node_id, started_at, and ended_at are required"})
		return
	}

	entry, awarded, err := h.time.AddManual(c.Request.Context(), userID, body.NodeID, body.StartedAt, body.EndedAt)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry, "awarded_badges": awarded})
}

// List returns the caller's entries newest first.
func (h *TimeHandler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var nodeID *uuid.UUID
	if raw := c.Query("node_id"); raw != "" {
		id, errParse := uuid.Parse(raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid node_id"})
			return
		}
		nodeID = &id
	}

	entries, err := h.time.List(c.Request.Context(), userID, nodeID, queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// Running returns the active timer, or null when none is running.
func (h *TimeHandler) Running(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	entry, err := h.time.Running(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// Summary aggregates finished entries per node.
func (h *TimeHandler) Summary(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	rows, err := h.time.Summary(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	total, err := h.time.TotalMinutes(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": rows, "total_minutes": total})
}
