package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantService manages workspaces and memberships.
type TenantService struct {
	db *gorm.DB
}

// NewTenantService constructs a TenantService.
func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

// TenantPublic is the tenant DTO including the caller's membership.
type TenantPublic struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	Slug          string                `json:"slug"`
	BusinessImage string                `json:"business_image,omitempty"`
	Role          models.UserTenantRole `json:"role"`
	IsDefault     bool                  `json:"is_default"`
}

// MemberPublic is the membership DTO for tenant member listings.
type MemberPublic struct {
	UserID   uuid.UUID             `json:"user_id"`
	Email    string                `json:"email"`
	FullName string                `json:"full_name,omitempty"`
	Role     models.UserTenantRole `json:"role"`
}

// Create makes a new tenant with the creator as OWNER. The creator's first
// tenant becomes their default.
func (s *TenantService) Create(ctx context.Context, creatorID uuid.UUID, name, businessImage string) (*TenantPublic, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Wrap(domain.ErrBadRequest, "tenant name is required")
	}

	var out *TenantPublic
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		slug, errSlug := uniqueSlug(tx, name)
		if errSlug != nil {
			return errSlug
		}

		tenant := models.Tenant{Name: name, Slug: slug, BusinessImage: strings.TrimSpace(businessImage)}
		if errCreate := tx.Create(&tenant).Error; errCreate != nil {
			return fmt.Errorf("auth: create tenant: %w", errCreate)
		}

		var existing int64
		if errCount := tx.Model(&models.UserTenant{}).Where("user_id = ?", creatorID).Count(&existing).Error; errCount != nil {
			return fmt.Errorf("auth: count memberships: %w", errCount)
		}

		membership := models.UserTenant{
			UserID:    creatorID,
			TenantID:  tenant.ID,
			Role:      models.RoleOwner,
			IsDefault: existing == 0,
		}
		if errMember := tx.Create(&membership).Error; errMember != nil {
			return fmt.Errorf("auth: create membership: %w", errMember)
		}

		out = &TenantPublic{
			ID:            tenant.ID,
			Name:          tenant.Name,
			Slug:          tenant.Slug,
			BusinessImage: tenant.BusinessImage,
			Role:          membership.Role,
			IsDefault:     membership.IsDefault,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all tenants the user belongs to, default first.
func (s *TenantService) List(ctx context.Context, userID uuid.UUID) ([]TenantPublic, error) {
	var memberships []models.UserTenant
	if err := s.db.WithContext(ctx).
		Preload("Tenant").
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at").
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("auth: list tenants: %w", err)
	}

	out := make([]TenantPublic, 0, len(memberships))
	for _, m := range memberships {
		if m.Tenant == nil {
			continue
		}
		out = append(out, TenantPublic{
			ID:            m.Tenant.ID,
			Name:          m.Tenant.Name,
			Slug:          m.Tenant.Slug,
			BusinessImage: m.Tenant.BusinessImage,
			Role:          m.Role,
			IsDefault:     m.IsDefault,
		})
	}
	return out, nil
}

// TenantUpdate carries the mutable tenant fields; nil means keep.
type TenantUpdate struct {
	Name          *string
	BusinessImage *string
}

// Update applies a partial tenant update. Requires ADMIN.
func (s *TenantService) Update(ctx context.Context, tc *TenantContext, upd TenantUpdate) (*TenantPublic, error) {
	if err := RequireRole(tc, models.RoleAdmin); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, domain.Wrap(domain.ErrBadRequest, "tenant name is required")
		}
		changes["name"] = name
	}
	if upd.BusinessImage != nil {
		changes["business_image"] = strings.TrimSpace(*upd.BusinessImage)
	}

	conn := s.db.WithContext(ctx)
	if len(changes) > 0 {
		if err := conn.Model(&models.Tenant{}).Where("id = ?", tc.TenantID).Updates(changes).Error; err != nil {
			return nil, fmt.Errorf("auth: update tenant: %w", err)
		}
	}

	var tenant models.Tenant
	if err := conn.First(&tenant, "id = ?", tc.TenantID).Error; err != nil {
		return nil, fmt.Errorf("auth: reload tenant: %w", err)
	}
	return &TenantPublic{
		ID:            tenant.ID,
		Name:          tenant.Name,
		Slug:          tenant.Slug,
		BusinessImage: tenant.BusinessImage,
		Role:          tc.Role,
		IsDefault:     false,
	}, nil
}

// MakeDefault marks one membership as the user's default tenant. The clear
// and the set run in one transaction so the partial unique index never sees
// two defaults.
func (s *TenantService) MakeDefault(ctx context.Context, userID, tenantID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.UserTenant
		err := tx.Where("user_id = ? AND tenant_id = ?", userID, tenantID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Wrap(domain.ErrForbidden, "not a member of tenant")
		}
		if err != nil {
			return fmt.Errorf("auth: load membership: %w", err)
		}

		if errClear := tx.Model(&models.UserTenant{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Update("is_default", false).Error; errClear != nil {
			return fmt.Errorf("auth: clear default: %w", errClear)
		}
		if errSet := tx.Model(&models.UserTenant{}).
			Where("user_id = ? AND tenant_id = ?", userID, tenantID).
			Update("is_default", true).Error; errSet != nil {
			return fmt.Errorf("auth: set default: %w", errSet)
		}
		return nil
	})
}

// ListMembers returns the members of the context tenant. Requires MEMBER.
func (s *TenantService) ListMembers(ctx context.Context, tc *TenantContext) ([]MemberPublic, error) {
	if err := RequireRole(tc, models.RoleMember); err != nil {
		return nil, err
	}

	var memberships []models.UserTenant
	if err := s.db.WithContext(ctx).
		Preload("User").
		Where("tenant_id = ?", tc.TenantID).
		Order("created_at").
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("auth: list members: %w", err)
	}

	out := make([]MemberPublic, 0, len(memberships))
	for _, m := range memberships {
		if m.User == nil {
			continue
		}
		out = append(out, MemberPublic{
			UserID:   m.UserID,
			Email:    m.User.Email,
			FullName: m.User.FullName,
			Role:     m.Role,
		})
	}
	return out, nil
}

// UpdateMemberRole changes another member's role. Requires OWNER; the last
// owner cannot be demoted.
func (s *TenantService) UpdateMemberRole(ctx context.Context, tc *TenantContext, memberID uuid.UUID, role models.UserTenantRole) error {
	if err := RequireRole(tc, models.RoleOwner); err != nil {
		return err
	}
	if _, ok := map[models.UserTenantRole]bool{models.RoleMember: true, models.RoleAdmin: true, models.RoleOwner: true}[role]; !ok {
		return domain.Wrap(domain.ErrBadRequest, "unknown role")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.UserTenant
		err := tx.Where("user_id = ? AND tenant_id = ?", memberID, tc.TenantID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Wrap(domain.ErrNotFound, "member not found")
		}
		if err != nil {
			return fmt.Errorf("auth: load member: %w", err)
		}

		if m.Role == models.RoleOwner && role != models.RoleOwner {
			var owners int64
			if errCount := tx.Model(&models.UserTenant{}).
				Where("tenant_id = ? AND role = ?", tc.TenantID, models.RoleOwner).
				Count(&owners).Error; errCount != nil {
				return fmt.Errorf("auth: count owners: %w", errCount)
			}
			if owners <= 1 {
				return domain.Wrap(domain.ErrBadRequest, "cannot demote the last owner")
			}
		}

		if errSave := tx.Model(&models.UserTenant{}).
			Where("user_id = ? AND tenant_id = ?", memberID, tc.TenantID).
			Update("role", role).Error; errSave != nil {
			return fmt.Errorf("auth: update member role: %w", errSave)
		}
		return nil
	})
}

// RemoveMember removes a member from the context tenant. Requires ADMIN;
// owners can only be removed by themselves, and never the last owner.
func (s *TenantService) RemoveMember(ctx context.Context, tc *TenantContext, callerID, memberID uuid.UUID) error {
	if err := RequireRole(tc, models.RoleAdmin); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.UserTenant
		err := tx.Where("user_id = ? AND tenant_id = ?", memberID, tc.TenantID).First(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Wrap(domain.ErrNotFound, "member not found")
		}
		if err != nil {
			return fmt.Errorf("auth: load member: %w", err)
		}

		if m.Role == models.RoleOwner {
			if memberID != callerID {
				return domain.Wrap(domain.ErrForbidden, "owners can only remove themselves")
			}
			var owners int64
			if errCount := tx.Model(&models.UserTenant{}).
				Where("tenant_id = ? AND role = ?", tc.TenantID, models.RoleOwner).
				Count(&owners).Error; errCount != nil {
				return fmt.Errorf("auth: count owners: %w", errCount)
			}
			if owners <= 1 {
				return domain.Wrap(domain.ErrBadRequest, "cannot remove the last owner")
			}
		}

		if errDel := tx.Where("user_id = ? AND tenant_id = ?", memberID, tc.TenantID).
			Delete(&models.UserTenant{}).Error; errDel != nil {
			return fmt.Errorf("auth: remove member: %w", errDel)
		}
		return nil
	})
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// uniqueSlug derives a URL slug from the name, appending a counter until it
// is free.
func uniqueSlug(tx *gorm.DB, name string) (string, error) {
	base := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if base == "" {
		base = "tenant"
	}

	slug := base
	for i := 2; ; i++ {
		var count int64
		if err := tx.Model(&models.Tenant{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
			return "", fmt.Errorf("auth: check slug: %w", err)
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
