package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Badge is a catalog entry seeded lazily from the badge rule table.
type Badge struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	Slug        string `gorm:"type:varchar(255);not null;uniqueIndex"` // Unique rule slug.
	Name        string `gorm:"type:varchar(255);not null"`             // Display name.
	Description string `gorm:"type:text"`                              // Award criteria description.
	Icon        string `gorm:"type:text"`                              // Icon reference.
	BaseXP      int    `gorm:"not null;default:50"`                    // XP granted with the badge.
}

// BeforeCreate assigns a UUID primary key when missing.
func (b *Badge) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// UserBadge records one badge award. The composite primary key guarantees
// at most one award per (user, badge) pair; rows are never updated or deleted.
type UserBadge struct {
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey"` // Awarded user ID.
	BadgeID uuid.UUID `gorm:"type:uuid;primaryKey"` // Awarded badge ID.

	Badge *Badge `gorm:"foreignKey:BadgeID"` // Awarded badge.

	AwardedAt time.Time `gorm:"not null;autoCreateTime"` // Award timestamp.
}
