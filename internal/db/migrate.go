package db

import (
	"fmt"

	"github.com/entrefine/lifeos/internal/models"
	"gorm.io/gorm"
)

// Migrate runs database migrations for the current dialect.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	switch DialectName(conn) {
	case DialectSQLite:
		return migrateSQLite(conn)
	case DialectPostgres, "":
		return migratePostgres(conn)
	default:
		return fmt.Errorf("db: unsupported dialect: %s", DialectName(conn))
	}
}

// autoMigrate applies the shared AutoMigrate set in dependency order.
func autoMigrate(conn *gorm.DB) error {
	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Tenant{},
		&models.UserTenant{},
		&models.Invitation{},
		&models.RefreshSession{},
		&models.UserStats{},
		&models.Badge{},
		&models.UserBadge{},
		&models.Track{},
		&models.Node{},
		&models.HabitSchedule{},
		&models.NodeCompletion{},
		&models.TimeEntry{},
		&models.HeroProfile{},
		&models.WorldState{},
		&models.CosmeticItem{},
		&models.InventoryItem{},
		&models.TaskTemplate{},
		&models.FocusSession{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}
	return nil
}

// migratePostgres applies PostgreSQL-specific schema updates and indexes.
func migratePostgres(conn *gorm.DB) error {
	if errAutoMigrate := autoMigrate(conn); errAutoMigrate != nil {
		return errAutoMigrate
	}

	// Partial unique index: at most one default membership per user.
	if errDefaultIdx := conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_user_default_tenant
		ON user_tenants (user_id) WHERE is_default
	`).Error; errDefaultIdx != nil {
		return fmt.Errorf("db: create default tenant index: %w", errDefaultIdx)
	}

	// Stored generated column: elapsed minutes for finished time entries.
	if errDuration := conn.Exec(`
		ALTER TABLE time_entries
		ADD COLUMN IF NOT EXISTS duration_min integer
		GENERATED ALWAYS AS ((EXTRACT(EPOCH FROM (ended_at - started_at)) / 60)::int) STORED
	`).Error; errDuration != nil {
		return fmt.Errorf("db: add time entry duration column: %w", errDuration)
	}

	if errSeed := ensureCosmeticCatalog(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// migrateSQLite applies SQLite-specific schema updates and indexes.
func migrateSQLite(conn *gorm.DB) error {
	if errAutoMigrate := autoMigrate(conn); errAutoMigrate != nil {
		return errAutoMigrate
	}

	if errDefaultIdx := conn.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uq_user_default_tenant
		ON user_tenants (user_id) WHERE is_default = 1
	`).Error; errDefaultIdx != nil {
		return fmt.Errorf("db: create default tenant index: %w", errDefaultIdx)
	}

	// SQLite only supports adding VIRTUAL generated columns after creation.
	if !conn.Migrator().HasColumn(&models.TimeEntry{}, "duration_min") {
		if errDuration := conn.Exec(`
			ALTER TABLE time_entries
			ADD COLUMN duration_min integer
			GENERATED ALWAYS AS (CAST(ROUND((julianday(ended_at) - julianday(started_at)) * 1440) AS integer)) VIRTUAL
		`).Error; errDuration != nil {
			return fmt.Errorf("db: add time entry duration column: %w", errDuration)
		}
	}

	if errSeed := ensureCosmeticCatalog(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// defaultCosmetics is the starter drop catalog inserted on first migration.
var defaultCosmetics = []models.CosmeticItem{
	{Name: "Scholar Cap", Slot: models.SlotHat, Rarity: models.RarityCommon, SpriteKey: "hat_scholar", Description: "A well-worn cap for long study nights."},
	{Name: "Builder Helmet", Slot: models.SlotHat, Rarity: models.RarityCommon, SpriteKey: "hat_builder", Description: "Keeps ideas from falling on your head."},
	{Name: "Crown of Focus", Slot: models.SlotHat, Rarity: models.RarityEpic, SpriteKey: "hat_crown", Description: "Worn by those who never break a streak."},
	{Name: "Cozy Hoodie", Slot: models.SlotOutfit, Rarity: models.RarityCommon, SpriteKey: "outfit_hoodie", Description: "Standard issue for deep work."},
	{Name: "Artisan Apron", Slot: models.SlotOutfit, Rarity: models.RarityRare, SpriteKey: "outfit_apron", Description: "Pockets for every tool."},
	{Name: "Aurora Cloak", Slot: models.SlotOutfit, Rarity: models.RarityEpic, SpriteKey: "outfit_cloak", Description: "Shimmers after a hundred sessions."},
	{Name: "Pocket Watch", Slot: models.SlotAccessory, Rarity: models.RarityCommon, SpriteKey: "acc_watch", Description: "Counts the minutes so you don't have to."},
	{Name: "Lucky Quill", Slot: models.SlotAccessory, Rarity: models.RarityRare, SpriteKey: "acc_quill", Description: "Said to improve drop luck. It doesn't."},
}

// ensureCosmeticCatalog seeds the cosmetic item catalog when empty.
func ensureCosmeticCatalog(conn *gorm.DB) error {
	var count int64
	if errCount := conn.Model(&models.CosmeticItem{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count cosmetics: %w", errCount)
	}
	if count > 0 {
		return nil
	}
	items := make([]models.CosmeticItem, len(defaultCosmetics))
	copy(items, defaultCosmetics)
	if errCreate := conn.Create(&items).Error; errCreate != nil {
		return fmt.Errorf("db: seed cosmetics: %w", errCreate)
	}
	return nil
}
