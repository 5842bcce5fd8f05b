package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshSession represents one issued refresh credential.
//
// Only the SHA-256 hash of the raw token is stored. A session is active iff
// RevokedAt is nil and ExpiresAt is in the future; RotatedFromID links a
// rotated session back to the one it replaced.
type RefreshSession struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;index:ix_refresh_active,priority:1"` // Owning user ID.
	User   *User     `gorm:"foreignKey:UserID"`                                     // Owning user.

	DefaultTenantID *uuid.UUID `gorm:"type:uuid"` // Tenant context captured at issuance.

	TokenHash string `gorm:"type:varchar(128);not null;index"` // SHA-256 hex of the raw token.
	UserAgent string `gorm:"type:varchar(512)"`                // Client user agent.
	IP        string `gorm:"type:varchar(64)"`                 // Client IP address.

	ExpiresAt time.Time  `gorm:"not null;index:ix_refresh_active,priority:2"` // Expiry timestamp.
	RevokedAt *time.Time // Terminal revocation timestamp, set once.

	RotatedFromID *uuid.UUID `gorm:"type:uuid"` // Previous session in the rotation chain.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (s *RefreshSession) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Active reports whether the session is usable at the given instant.
func (s *RefreshSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}
