package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomName identifies a room inside the LifeOS world.
type RoomName string

// RoomName constants.
const (
	// RoomStudy is the study room.
	RoomStudy RoomName = "study"
	// RoomBuild is the build room.
	RoomBuild RoomName = "build"
	// RoomTraining is the training room.
	RoomTraining RoomName = "training"
)

// SessionStatus is the focus-session state machine:
// pending → success or cancelled, both terminal.
type SessionStatus string

// SessionStatus constants.
const (
	// SessionPending is an in-flight session.
	SessionPending SessionStatus = "pending"
	// SessionSuccess completed and was rewarded.
	SessionSuccess SessionStatus = "success"
	// SessionCancelled was abandoned before completion.
	SessionCancelled SessionStatus = "cancelled"
)

// CosmeticSlot identifies where a cosmetic item is worn.
type CosmeticSlot string

// CosmeticSlot constants.
const (
	// SlotHat is the hat slot.
	SlotHat CosmeticSlot = "hat"
	// SlotOutfit is the outfit slot.
	SlotOutfit CosmeticSlot = "outfit"
	// SlotAccessory is the accessory slot.
	SlotAccessory CosmeticSlot = "accessory"
)

// CosmeticRarity grades cosmetic items.
type CosmeticRarity string

// CosmeticRarity constants.
const (
	// RarityCommon is the base rarity.
	RarityCommon CosmeticRarity = "common"
	// RarityRare is uncommon.
	RarityRare CosmeticRarity = "rare"
	// RarityEpic is the highest rarity.
	RarityEpic CosmeticRarity = "epic"
)

// HeroProfile is the per-user game character: level, exp, gold, equipment.
type HeroProfile struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"` // Owning user ID.

	Level int `gorm:"not null;default:1"` // Hero level.
	Exp   int `gorm:"not null;default:0"` // Exp within the current level.
	Gold  int `gorm:"not null;default:0"` // Gold balance.

	EquippedHatID       *uuid.UUID `gorm:"type:uuid"` // Equipped hat item ID.
	EquippedOutfitID    *uuid.UUID `gorm:"type:uuid"` // Equipped outfit item ID.
	EquippedAccessoryID *uuid.UUID `gorm:"type:uuid"` // Equipped accessory item ID.

	EquippedHat       *CosmeticItem `gorm:"foreignKey:EquippedHatID"`       // Equipped hat.
	EquippedOutfit    *CosmeticItem `gorm:"foreignKey:EquippedOutfitID"`    // Equipped outfit.
	EquippedAccessory *CosmeticItem `gorm:"foreignKey:EquippedAccessoryID"` // Equipped accessory.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (h *HeroProfile) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// WorldState tracks per-user world progression and session streaks.
type WorldState struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"` // Owning user ID.

	StudyRoomLevel    int `gorm:"not null;default:1"` // Study room tier.
	BuildRoomLevel    int `gorm:"not null;default:1"` // Build room tier.
	TrainingRoomLevel int `gorm:"not null;default:1"` // Training room tier.
	PlazaLevel        int `gorm:"not null;default:1"` // Plaza tier.

	TotalSessionsSuccess int `gorm:"not null;default:0"` // Completed session count.

	DayStreak       int        `gorm:"not null;default:0"` // Consecutive session days.
	LongestStreak   int        `gorm:"not null;default:0"` // Best streak ever reached.
	LastSessionDate *time.Time `gorm:"type:date"`          // Most recent session day.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (w *WorldState) BeforeCreate(*gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// CosmeticItem is a catalog entry that can drop from focus sessions.
type CosmeticItem struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	Name        string         `gorm:"type:varchar(120);not null"` // Display name.
	Slot        CosmeticSlot   `gorm:"type:varchar(16);not null"`  // Equip slot.
	Rarity      CosmeticRarity `gorm:"type:varchar(16);not null"`  // Rarity grade.
	SpriteKey   string         `gorm:"type:varchar(120);not null"` // Client sprite key.
	Description string         `gorm:"type:text"`                  // Flavor text.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (ci *CosmeticItem) BeforeCreate(*gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}

// InventoryItem records user ownership of a cosmetic item. The unique index
// on (user_id, item_id) is the backstop against duplicate drops.
type InventoryItem struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uq_inventory_user_item,priority:1;index"` // Owning user ID.
	ItemID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uq_inventory_user_item,priority:2"`       // Owned item ID.
	Item   *CosmeticItem `gorm:"foreignKey:ItemID"`                                                      // Owned item.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Acquisition timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (ii *InventoryItem) BeforeCreate(*gorm.DB) error {
	if ii.ID == uuid.Nil {
		ii.ID = uuid.New()
	}
	return nil
}

// TaskTemplate is a reusable focus-session preset.
type TaskTemplate struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;index"` // Owning user ID.

	Name            string   `gorm:"type:varchar(120);not null"`        // Display name.
	Category        string   `gorm:"type:varchar(80)"`                  // Optional grouping label.
	DefaultDuration int      `gorm:"not null;default:25"`               // Default minutes.
	Room            RoomName `gorm:"type:varchar(16);default:'study'"`  // Target room.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (t *TaskTemplate) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// FocusSession is one timed focus attempt and its reward outcome.
type FocusSession struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"` // Primary key.

	UserID uuid.UUID `gorm:"type:uuid;not null;index"` // Owning user ID.

	TaskTemplateID *uuid.UUID `gorm:"type:uuid"` // Source template, if any.

	Room            RoomName  `gorm:"type:varchar(16);default:'study'"` // Session room.
	DurationMinutes int       `gorm:"not null;default:25"`              // Planned duration.
	ExpectedEndTime *time.Time                                          // Planned end timestamp.

	Status      SessionStatus `gorm:"type:varchar(16);not null;default:'pending'"` // State machine value.
	CompletedAt *time.Time                                                         // Success timestamp.
	CancelledAt *time.Time                                                         // Cancellation timestamp.

	RewardExp            *int          // Exp granted on success.
	RewardGold           *int          // Gold granted on success.
	RewardCosmeticItemID *uuid.UUID    `gorm:"type:uuid"`                      // Dropped item ID, if any.
	RewardCosmeticItem   *CosmeticItem `gorm:"foreignKey:RewardCosmeticItemID"` // Dropped item.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// BeforeCreate assigns a UUID primary key when missing.
func (f *FocusSession) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
