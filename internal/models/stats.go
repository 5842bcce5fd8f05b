package models

import (
	"time"

	"github.com/google/uuid"
)

// UserStats aggregates XP, level, and streak state for one user.
//
// Level is always derivable from XPTotal; completion flows mutate this row
// under a row lock so concurrent awards for the same user serialize.
type UserStats struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey"` // Owning user ID.

	Level             int `gorm:"not null;default:1"` // Current level.
	XPTotal           int `gorm:"not null;default:0"` // Lifetime XP.
	CurrentStreakDays int `gorm:"not null;default:0"` // Consecutive active days.

	LastActiveDate *time.Time `gorm:"type:date"` // Most recent qualifying activity date.
}
