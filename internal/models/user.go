package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an end-user account stored in the database.
type User struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	Email          string `gorm:"type:varchar(320);not null;uniqueIndex"` // Unique login email.
	HashedPassword string `gorm:"type:text;not null"`                     // Bcrypt password hash.

	FullName       string `gorm:"type:varchar(255)"` // Display name.
	ProfilePicture string `gorm:"type:text"`         // Avatar URL.

	IsActive   bool `gorm:"not null;default:true"`  // Whether the user can sign in.
	IsVerified bool `gorm:"not null;default:false"` // Email verification flag.

	Tenants         []UserTenant     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // Tenant memberships.
	RefreshSessions []RefreshSession `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"` // Issued refresh sessions.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
