package handlers

import (
	"net/http"

	"github.com/entrefine/lifeos/internal/completions"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/entrefine/lifeos/internal/nodes"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NodeHandler serves node CRUD and completions.
type NodeHandler struct {
	nodes       *nodes.Service
	completions *completions.Service
}

// NewNodeHandler constructs a NodeHandler.
func NewNodeHandler(nodeSvc *nodes.Service, completionSvc *completions.Service) *NodeHandler {
	return &NodeHandler{nodes: nodeSvc, completions: completionSvc}
}

type scheduleBody struct {
	Frequency models.HabitFrequency `json:"frequency" binding:"required"`
	Meta      datatypes.JSON        `json:"meta"`
}

func (b *scheduleBody) toInput() *nodes.ScheduleInput {
	if b == nil {
		return nil
	}
	return &nodes.ScheduleInput{Frequency: b.Frequency, Meta: b.Meta}
}

// Create adds a node to one of the caller's tracks.
func (h *NodeHandler) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		TrackID     uuid.UUID       `json:"track_id" binding:"required"`
		Type        models.NodeType `json:"type" binding:"required"`
		Title       string          `json:"title" binding:"required"`
		Description string          `json:"description"`
		BaseXP      *int            `json:"base_xp"`
		IsLocked    bool            `json:"is_locked"`
		Position    *int            `json:"position"`
		Schedule    *scheduleBody   `json:"schedule"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "track_id, type, and title are required"})
		return
	}

	node, err := h.nodes.Create(c.Request.Context(), userID, nodes.CreateInput{
		TrackID:     body.TrackID,
		Type:        body.Type,
		Title:       body.Title,
		Description: body.Description,
		BaseXP:      body.BaseXP,
		IsLocked:    body.IsLocked,
		Position:    body.Position,
		Schedule:    body.Schedule.toInput(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"node": node})
}

// Get loads one node.
func (h *NodeHandler) Get(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	node, err := h.nodes.Get(c.Request.Context(), userID, nodeID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"node": node})
}

// Update applies a partial node update.
func (h *NodeHandler) Update(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Title         *string       `json:"title"`
		Description   *string       `json:"description"`
		BaseXP        *int          `json:"base_xp"`
		IsLocked      *bool         `json:"is_locked"`
		Position      *int          `json:"position"`
		Schedule      *scheduleBody `json:"schedule"`
		ClearSchedule bool          `json:"clear_schedule"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	node, err := h.nodes.Update(c.Request.Context(), userID, nodeID, nodes.UpdateInput{
		Title:         body.Title,
		Description:   body.Description,
		BaseXP:        body.BaseXP,
		IsLocked:      body.IsLocked,
		Position:      body.Position,
		Schedule:      body.Schedule.toInput(),
		ClearSchedule: body.ClearSchedule,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"node": node})
}

// Delete removes a node and its schedule.
func (h *NodeHandler) Delete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.nodes.Delete(c.Request.Context(), userID, nodeID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "node deleted"})
}

// Complete records a completion and returns what it changed.
func (h *NodeHandler) Complete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	nodeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Source models.CompletionSource `json:"source"`
	}
	// Body is optional; source defaults to manual.
	_ = c.ShouldBindJSON(&body)

	result, err := h.completions.Complete(c.Request.Context(), userID, nodeID, body.Source)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ListCompletions returns the caller's completion history.
func (h *NodeHandler) ListCompletions(c *gin.Context) {
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

	list, err := h.completions.List(c.Request.Context(), userID, nodeID, queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completions": list})
}
