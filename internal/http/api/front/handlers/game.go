package handlers

import (
	"net/http"

	"github.com/entrefine/lifeos/internal/lifeos"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GameHandler serves the focus session game: sessions, hero state,
// inventory, and task templates.
type GameHandler struct {
	sessions  *lifeos.SessionService
	state     *lifeos.StateService
	inventory *lifeos.InventoryService
	templates *lifeos.TemplateService
}

// NewGameHandler constructs a GameHandler.
func NewGameHandler(sessions *lifeos.SessionService, state *lifeos.StateService, inventory *lifeos.InventoryService, templates *lifeos.TemplateService) *GameHandler {
	return &GameHandler{sessions: sessions, state: state, inventory: inventory, templates: templates}
}

// State returns hero, world, and the pending session.
func (h *GameHandler) State(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	state, err := h.state.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// World returns the caller's world progression.
func (h *GameHandler) World(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	world, err := h.state.World(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"world": world})
}

// UpgradeWorld raises one world layer to the requested tier.
func (h *GameHandler) UpgradeWorld(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		Target string `json:"target" binding:"required"`
		Level  int    `json:"level" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target and level are required"})
		return
	}

	world, err := h.state.UpgradeWorld(c.Request.Context(), userID, body.Target, body.Level)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"world": world})
}

// StartSession opens a pending focus session.
func (h *GameHandler) StartSession(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		TaskTemplateID  *uuid.UUID      `json:"task_template_id"`
		Room            models.RoomName `json:"room"`
		DurationMinutes *int            `json:"duration_minutes"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	session, err := h.sessions.Start(c.Request.Context(), userID, lifeos.StartInput{
		TaskTemplateID:  body.TaskTemplateID,
		Room:            body.Room,
		DurationMinutes: body.DurationMinutes,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// CompleteSession finishes a pending session and returns its rewards.
func (h *GameHandler) CompleteSession(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.sessions.Complete(c.Request.Context(), userID, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelSession abandons a pending session without rewards.
func (h *GameHandler) CancelSession(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	session, err := h.sessions.Cancel(c.Request.Context(), userID, sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// History returns the caller's sessions newest first.
func (h *GameHandler) History(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	sessions, err := h.sessions.History(c.Request.Context(), userID, queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// Inventory returns the caller's owned cosmetics.
func (h *GameHandler) Inventory(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	items, err := h.inventory.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Catalog returns every cosmetic item in the game.
func (h *GameHandler) Catalog(c *gin.Context) {
	items, err := h.inventory.Catalog(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Equip puts an owned item into its slot.
func (h *GameHandler) Equip(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		ItemID uuid.UUID `json:"item_id" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item_id is required"})
		return
	}

	hero, err := h.inventory.Equip(c.Request.Context(), userID, body.ItemID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hero": hero})
}

// Unequip clears one equipment slot.
func (h *GameHandler) Unequip(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		Slot models.CosmeticSlot `json:"slot" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slot is required"})
		return
	}

	hero, err := h.inventory.Unequip(c.Request.Context(), userID, body.Slot)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hero": hero})
}

// CreateTemplate adds a focus session preset.
func (h *GameHandler) CreateTemplate(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		Name            string          `json:"name" binding:"required"`
		Category        string          `json:"category"`
		DefaultDuration *int            `json:"default_duration"`
		Room            models.RoomName `json:"room"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	tpl, err := h.templates.Create(c.Request.Context(), userID, lifeos.TemplateInput{
		Name:            body.Name,
		Category:        body.Category,
		DefaultDuration: body.DefaultDuration,
		Room:            body.Room,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"template": tpl})
}

// ListTemplates returns the caller's presets.
func (h *GameHandler) ListTemplates(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	list, err := h.templates.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": list})
}

// UpdateTemplate applies a partial template update.
func (h *GameHandler) UpdateTemplate(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	templateID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var body struct {
		Name            *string          `json:"name"`
		Category        *string          `json:"category"`
		DefaultDuration *int             `json:"default_duration"`
		Room            *models.RoomName `json:"room"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	tpl, err := h.templates.Update(c.Request.Context(), userID, templateID, lifeos.TemplateUpdate{
		Name:            body.Name,
		Category:        body.Category,
		DefaultDuration: body.DefaultDuration,
		Room:            body.Room,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": tpl})
}

// DeleteTemplate removes a preset.
func (h *GameHandler) DeleteTemplate(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	templateID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.templates.Delete(c.Request.Context(), userID, templateID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "template deleted"})
}
