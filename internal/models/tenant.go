package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserTenantRole represents a membership role inside a tenant.
type UserTenantRole string

// UserTenantRole constants order roles by increasing authority.
const (
	// RoleMember can read and contribute.
	RoleMember UserTenantRole = "MEMBER"
	// RoleAdmin can manage members and invitations.
	RoleAdmin UserTenantRole = "ADMIN"
	// RoleOwner has full control over the tenant.
	RoleOwner UserTenantRole = "OWNER"
)

// Tenant represents an organization workspace.
type Tenant struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	Name          string `gorm:"type:varchar(255);not null;index"`       // Display name.
	Slug          string `gorm:"type:varchar(255);not null;uniqueIndex"` // Unique URL slug.
	BusinessImage string `gorm:"type:text"`                              // Optional logo URL.

	Members []UserTenant `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"` // Memberships.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (t *Tenant) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// UserTenant joins a user to a tenant with a role and default flag.
//
// At most one membership per user may carry IsDefault=true; the partial
// unique index enforcing that is created in db.Migrate since AutoMigrate
// cannot express it.
type UserTenant struct {
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey"` // Member user ID.
	TenantID uuid.UUID `gorm:"type:uuid;primaryKey"` // Tenant ID.

	Role      UserTenantRole `gorm:"type:varchar(16);not null;default:'MEMBER'"` // Membership role.
	IsDefault bool           `gorm:"not null;default:false"`                     // Default-tenant flag.

	User   *User   `gorm:"foreignKey:UserID"`   // Member user.
	Tenant *Tenant `gorm:"foreignKey:TenantID"` // Joined tenant.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
