package handlers

import (
	"net/http"

	"github.com/entrefine/lifeos/internal/nodes"
	"github.com/entrefine/lifeos/internal/tracks"
	"github.com/gin-gonic/gin"
)

// TrackHandler serves track CRUD.
type TrackHandler struct {
	tracks *tracks.Service
	nodes  *nodes.Service
}

// NewTrackHandler constructs a TrackHandler.
func NewTrackHandler(trackSvc *tracks.Service, nodeSvc *nodes.Service) *TrackHandler {
	return &TrackHandler{tracks: trackSvc, nodes: nodeSvc}
}

// Create adds a track for the caller.
func (h *TrackHandler) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		Name     string `json:"name" binding:"required"`
		Color    string `json:"color"`
		Icon     string `json:"icon"`
		Position *int   `json:"position"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	track, err := h.tracks.Create(c.Request.Context(), userID, tracks.CreateInput{
		Name:     body.Name,
		Color:    body.Color,
		Icon:     body.Icon,
		Position: body.Position,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"track": track})
}

// List returns the caller's tracks with nodes preloaded.
func (h *TrackHandler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.tracks.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tracks": list})
}

// Get loads one track.
func (h *TrackHandler) Get(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	trackID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	track, err := h.tracks.Get(c.Request.Context(), userID, trackID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"track": track})
}

// Update applies a partial track update.
func (h *TrackHandler) Update(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	trackID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Name     *string `json:"name"`
		Color    *string `json:"color"`
		Icon     *string `json:"icon"`
		Position *int    `json:"position"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	track, err := h.tracks.Update(c.Request.Context(), userID, trackID, tracks.UpdateInput{
		Name:     body.Name,
		Color:    body.Color,
		Icon:     body.Icon,
		Position: body.Position,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"track": track})
}

// Delete removes a track and its nodes.
func (h *TrackHandler) Delete(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	trackID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.tracks.Delete(c.Request.Context(), userID, trackID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "track deleted"})
}

// ListNodes returns a track's nodes in position order.
func (h *TrackHandler) ListNodes(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	trackID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.nodes.List(c.Request.Context(), userID, trackID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nodes": list})
}
