package handlers

import (
	"net/http"

	"github.com/entrefine/lifeos/internal/auth"
	"github.com/entrefine/lifeos/internal/config"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TenantHandler serves tenant, membership, and invitation endpoints.
type TenantHandler struct {
	tenants     *auth.TenantService
	invitations *auth.InvitationService
	resolver    *auth.TenantResolver
	sessions    *auth.RefreshService
	cfg         config.AuthConfig
}

// NewTenantHandler constructs a TenantHandler.
func NewTenantHandler(tenants *auth.TenantService, invitations *auth.InvitationService, resolver *auth.TenantResolver, sessions *auth.RefreshService, cfg config.AuthConfig) *TenantHandler {
	return &TenantHandler{tenants: tenants, invitations: invitations, resolver: resolver, sessions: sessions, cfg: cfg}
}

// tenantContext resolves the tenant a request acts on: the X-Tenant-ID
// header wins, then the refresh session's captured tenant, then the default
// membership.
func (h *TenantHandler) tenantContext(c *gin.Context, userID uuid.UUID) (*auth.TenantContext, bool) {
	requested, ok := requestedTenantID(c)
	if !ok {
		return nil, false
	}

	var sessionDefault *uuid.UUID
	if cookie, errCookie := c.Cookie(h.cfg.RefreshCookieName); errCookie == nil && cookie != "" {
		if session, errSession := h.sessions.GetActive(c.Request.Context(), cookie); errSession == nil {
			sessionDefault = session.DefaultTenantID
		}
	}

	tc, err := h.resolver.Resolve(c.Request.Context(), userID, requested, sessionDefault)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return tc, true
}

// Create makes a new tenant owned by the caller.
func (h *TenantHandler) Create(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		Name          string `json:"name" binding:"required"`
		BusinessImage string `json:"business_image"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	tenant, err := h.tenants.Create(c.Request.Context(), userID, body.Name, body.BusinessImage)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tenant": tenant})
}

// List returns the caller's tenants.
func (h *TenantHandler) List(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	tenants, err := h.tenants.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

// Update edits the current tenant. Requires ADMIN.
func (h *TenantHandler) Update(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	tc, ok := h.tenantContext(c, userID)
	if !ok {
		return
	}

	var body struct {
		Name          *string `json:"name"`
		BusinessImage *string `json:"business_image"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	tenant, err := h.tenants.Update(c.Request.Context(), tc, auth.TenantUpdate{
		Name:          body.Name,
		BusinessImage: body.BusinessImage,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenant})
}

// MakeDefault marks a tenant as the caller's default.
func (h *TenantHandler) MakeDefault(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	tenantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.tenants.MakeDefault(c.Request.Context(), userID, tenantID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "default updated"})
}

// ListMembers lists the current tenant's members.
func (h *TenantHandler) ListMembers(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	tc, ok := h.tenantContext(c, userID)
	if !ok {
		return
	}
	members, err := h.tenants.ListMembers(c.Request.Context(), tc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// UpdateMemberRole changes a member's role. Requires OWNER.
func (h *TenantHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	tc, ok := h.tenantContext(c, userID)
	if !ok {
		return
	}
	memberID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}

	var body struct {
		Role models.UserTenantRole `json:"role" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}

	if err := h.tenants.UpdateMemberRole(c.Request.Context(), tc, memberID, body.Role); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "role updated"})
}

// RemoveMember removes a member from the current tenant. Requires ADMIN.
func (h *TenantHandler) RemoveMember(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	tc, ok := h.tenantContext(c, userID)
	if !ok {
		return
	}
	memberID, ok := pathUUID(c, "userID")
	if !ok {
		return
	}
	if err := h.tenants.RemoveMember(c.Request.Context(), tc, userID, memberID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "member removed"})
}

// CreateInvitation invites an email into the current tenant. Requires ADMIN.
func (h *TenantHandler) CreateInvitation(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	tc, ok := h.tenantContext(c, userID)
	if !ok {
		return
	}

	var body struct {
		Email string                `json:"email" binding:"required"`
		Role  models.UserTenantRole `json:"role"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	inv, err := h.invitations.Create(c.Request.Context(), tc, userID, body.Email, body.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invitation": inv})
}

// ListInvitations lists the current tenant's invitations. Requires ADMIN.
func (h *TenantHandler) ListInvitations(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	tc, ok := h.tenantContext(c, userID)
	if !ok {
		return
	}
	list, err := h.invitations.List(c.Request.Context(), tc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invitations": list})
}

// AcceptInvitation redeems an invitation token for the caller.
func (h *TenantHandler) AcceptInvitation(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	tenant, err := h.invitations.Accept(c.Request.Context(), userID, body.Token)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenant": tenant})
}

// RevokeInvitation withdraws a pending invitation. Requires ADMIN.
func (h *TenantHandler) RevokeInvitation(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}
	tc, ok := h.tenantContext(c, userID)
	if !ok {
		return
	}
	invID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.invitations.Revoke(c.Request.Context(), tc, invID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "invitation revoked"})
}
