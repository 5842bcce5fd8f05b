package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimeEntry records a span of focus time against a node.
//
// DurationMin is a stored generated column derived from StartedAt/EndedAt;
// db.Migrate creates it per dialect. It stays NULL while the timer runs.
type TimeEntry struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_time_entry_user"` // Owning user ID.
	NodeID uuid.UUID `gorm:"type:uuid;not null;index:idx_time_entry_node"` // Tracked node ID.
	Node   *Node     `gorm:"foreignKey:NodeID"`                            // Tracked node.

	StartedAt time.Time  `gorm:"not null"` // Timer start.
	EndedAt   *time.Time // Timer stop; nil while running.

	DurationMin *int `gorm:"->;-:migration"` // Generated minutes column, read-only; created in db.Migrate.
}

// BeforeCreate assigns a UUID primary key when missing.
func (e *TimeEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
