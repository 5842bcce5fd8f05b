package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// rolePriority orders membership roles by authority.
var rolePriority = map[models.UserTenantRole]int{
	models.RoleMember: 1,
	models.RoleAdmin:  2,
	models.RoleOwner:  3,
}

// RoleAtLeast reports whether have carries at least the authority of want.
// Unknown roles rank below every known one.
func RoleAtLeast(have, want models.UserTenantRole) bool {
	return rolePriority[have] >= rolePriority[want]
}

// TenantContext is the membership a request operates under.
type TenantContext struct {
	TenantID uuid.UUID
	Role     models.UserTenantRole
}

// TenantResolver resolves which tenant a request acts on.
type TenantResolver struct {
	db *gorm.DB
}

// NewTenantResolver constructs a TenantResolver.
func NewTenantResolver(db *gorm.DB) *TenantResolver {
	return &TenantResolver{db: db}
}

// Resolve picks the tenant context for a request. An explicitly requested
// tenant wins but must match one of the caller's memberships; otherwise the
// session's captured tenant is tried, then the membership flagged default.
// With none of those and more than one membership the context is ambiguous.
func (r *TenantResolver) Resolve(ctx context.Context, userID uuid.UUID, requested, sessionDefault *uuid.UUID) (*TenantContext, error) {
	conn := r.db.WithContext(ctx)

	if requested != nil {
		return r.membership(conn, userID, *requested)
	}

	if sessionDefault != nil {
		tc, err := r.membership(conn, userID, *sessionDefault)
		if err == nil {
			return tc, nil
		}
		if !errors.Is(err, domain.ErrForbidden) {
			return nil, err
		}
		// Membership revoked since the session was issued; fall through.
	}

	var memberships []models.UserTenant
	if err := conn.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("auth: list memberships: %w", err)
	}

	for _, m := range memberships {
		if m.IsDefault {
			return &TenantContext{TenantID: m.TenantID, Role: m.Role}, nil
		}
	}
	if len(memberships) == 1 {
		return &TenantContext{TenantID: memberships[0].TenantID, Role: memberships[0].Role}, nil
	}
	if len(memberships) == 0 {
		return nil, domain.Wrap(domain.ErrForbidden, "no tenant membership")
	}
	return nil, domain.ErrAmbiguousTenantContext
}

// membership loads one membership row, mapping absence to ErrForbidden so a
// caller cannot probe which tenants exist.
func (r *TenantResolver) membership(conn *gorm.DB, userID, tenantID uuid.UUID) (*TenantContext, error) {
	var m models.UserTenant
	err := conn.Where("user_id = ? AND tenant_id = ?", userID, tenantID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Wrap(domain.ErrForbidden, "not a member of tenant")
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load membership: %w", err)
	}
	return &TenantContext{TenantID: m.TenantID, Role: m.Role}, nil
}

// RequireRole returns ErrForbidden unless the context carries at least the
// wanted role.
func RequireRole(tc *TenantContext, want models.UserTenantRole) error {
	if tc == nil || !RoleAtLeast(tc.Role, want) {
		return domain.Wrap(domain.ErrForbidden, "insufficient role")
	}
	return nil
}
