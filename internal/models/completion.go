package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompletionSource records how a completion was triggered.
type CompletionSource string

// CompletionSource constants.
const (
	// CompletionManual was recorded by the user directly.
	CompletionManual CompletionSource = "MANUAL"
	// CompletionSession was produced by finishing a focus session.
	CompletionSession CompletionSource = "SESSION"
)

// NodeCompletion records one completion event and the XP it earned.
type NodeCompletion struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_completion_user"` // Completing user ID.
	NodeID uuid.UUID `gorm:"type:uuid;not null;index:idx_completion_node"` // Completed node ID.
	Node   *Node     `gorm:"foreignKey:NodeID"`                            // Completed node.

	CompletedAt time.Time        `gorm:"not null"`                  // Completion timestamp.
	Source      CompletionSource `gorm:"type:varchar(16);not null"` // Trigger source.
	EarnedXP    int              `gorm:"not null"`                  // XP awarded.
}

// BeforeCreate assigns a UUID primary key when missing.
func (c *NodeCompletion) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
