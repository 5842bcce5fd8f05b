package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NodeType classifies a node inside a track.
type NodeType string

// NodeType constants.
const (
	// NodeTypeTask is a one-off task.
	NodeTypeTask NodeType = "TASK"
	// NodeTypeHabit is a recurring habit with a schedule.
	NodeTypeHabit NodeType = "HABIT"
	// NodeTypeFocusSession is a timed focus block.
	NodeTypeFocusSession NodeType = "FOCUS_SESSION"
	// NodeTypeMilestone is a marker achievement.
	NodeTypeMilestone NodeType = "MILESTONE"
)

// HabitFrequency defines how often a habit recurs.
type HabitFrequency string

// HabitFrequency constants.
const (
	// HabitDaily recurs every day.
	HabitDaily HabitFrequency = "DAILY"
	// HabitWeekly recurs every week.
	HabitWeekly HabitFrequency = "WEEKLY"
	// HabitMonthly recurs every month.
	HabitMonthly HabitFrequency = "MONTHLY"
)

// Node is the atomic unit of completion and XP award within a track.
type Node struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	TrackID uuid.UUID `gorm:"type:uuid;not null;index:idx_node_track"` // Owning track ID.
	Track   *Track    `gorm:"foreignKey:TrackID"`                      // Owning track.

	Type        NodeType `gorm:"type:varchar(16);not null;index:idx_node_type"` // Node kind.
	Title       string   `gorm:"type:text;not null"`                            // Display title.
	Description string   `gorm:"type:text"`                                     // Optional details.

	BaseXP   int  `gorm:"not null;default:10"`    // XP earned per completion.
	IsLocked bool `gorm:"not null;default:false"` // Locked nodes cannot be completed.
	Position int  `gorm:"not null;default:0"`     // Ordering weight.

	HabitSchedule *HabitSchedule `gorm:"foreignKey:NodeID;constraint:OnDelete:CASCADE"` // Optional recurrence.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (n *Node) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// HabitSchedule describes the recurrence of a habit node.
type HabitSchedule struct {
	NodeID uuid.UUID `gorm:"type:uuid;primaryKey"` // Owning node ID.

	Frequency HabitFrequency `gorm:"type:varchar(16);not null"` // Recurrence frequency.
	Meta      datatypes.JSON `gorm:"type:jsonb"`                // Free-form schedule metadata.
}
