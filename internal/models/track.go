package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Track groups nodes into an ordered learning or habit path owned by a user.
type Track struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_track_user"` // Owning user ID.

	Name     string `gorm:"type:text;not null"` // Display name.
	Color    string `gorm:"type:text"`          // Accent color.
	Icon     string `gorm:"type:text"`          // Icon reference.
	Position int    `gorm:"not null;default:0"` // Ordering weight.

	Nodes []Node `gorm:"foreignKey:TrackID;constraint:OnDelete:CASCADE"` // Contained nodes.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (t *Track) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
