package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InvitationStatus represents the lifecycle state of an invitation.
type InvitationStatus string

// InvitationStatus constants define the one-directional lifecycle:
// PENDING may move to ACCEPTED, EXPIRED, or REVOKED; terminal states never revert.
const (
	// InvitationPending awaits acceptance.
	InvitationPending InvitationStatus = "PENDING"
	// InvitationAccepted was redeemed by a user.
	InvitationAccepted InvitationStatus = "ACCEPTED"
	// InvitationExpired passed its expiry before acceptance.
	InvitationExpired InvitationStatus = "EXPIRED"
	// InvitationRevoked was withdrawn by a tenant admin.
	InvitationRevoked InvitationStatus = "REVOKED"
)

// Invitation records a pending offer to join a tenant.
type Invitation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	Email    string    `gorm:"type:varchar(320);not null;index"` // Invitee email.
	TenantID uuid.UUID `gorm:"type:uuid;not null;index"`         // Target tenant ID.
	Tenant   *Tenant   `gorm:"foreignKey:TenantID"`              // Target tenant.

	Role  UserTenantRole `gorm:"type:varchar(16);not null;default:'MEMBER'"` // Role granted on acceptance.
	Token string         `gorm:"type:varchar(512);not null;uniqueIndex"`     // Signed acceptance token.

	InvitedByUserID *uuid.UUID `gorm:"type:uuid"`                  // Inviting user ID, if still present.
	InvitedBy       *User      `gorm:"foreignKey:InvitedByUserID"` // Inviting user.

	Status    InvitationStatus `gorm:"type:varchar(16);not null;default:'PENDING'"` // Lifecycle state.
	ExpiresAt time.Time        `gorm:"not null"`                                    // Expiry timestamp.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (i *Invitation) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
