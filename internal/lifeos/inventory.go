package lifeos

import (
	"context"
	"errors"
	"fmt"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// equipField maps each slot to its equipped-item field on HeroProfile, the
// same shape roomLevelField uses for world tiers.
var equipField = map[models.CosmeticSlot]func(*models.HeroProfile) **uuid.UUID{
	models.SlotHat:       func(h *models.HeroProfile) **uuid.UUID { return &h.EquippedHatID },
	models.SlotOutfit:    func(h *models.HeroProfile) **uuid.UUID { return &h.EquippedOutfitID },
	models.SlotAccessory: func(h *models.HeroProfile) **uuid.UUID { return &h.EquippedAccessoryID },
}

// InventoryService lists owned cosmetics and manages equipment.
type InventoryService struct {
	db *gorm.DB
}

// NewInventoryService constructs an InventoryService.
func NewInventoryService(db *gorm.DB) *InventoryService {
	return &InventoryService{db: db}
}

// List returns the user's owned cosmetics with their catalog entries.
func (s *InventoryService) List(ctx context.Context, userID uuid.UUID) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	err := s.db.WithContext(ctx).
		Preload("Item").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("lifeos: list inventory: %w", err)
	}
	return out, nil
}

// Catalog returns every cosmetic item in the game.
func (s *InventoryService) Catalog(ctx context.Context) ([]models.CosmeticItem, error) {
	var out []models.CosmeticItem
	if err := s.db.WithContext(ctx).Order("rarity, name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("lifeos: list catalog: %w", err)
	}
	return out, nil
}

// Equip puts an owned item into its slot, replacing whatever was there.
func (s *InventoryService) Equip(ctx context.Context, userID, itemID uuid.UUID) (*models.HeroProfile, error) {
	var hero *models.HeroProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned models.InventoryItem
		errOwned := tx.Preload("Item").
			Where("user_id = ? AND item_id = ?", userID, itemID).
			First(&owned).Error
		if errors.Is(errOwned, gorm.ErrRecordNotFound) {
			return domain.Wrap(domain.ErrNotFound, "item not in inventory")
		}
		if errOwned != nil {
			return fmt.Errorf("lifeos: load inventory item: %w", errOwned)
		}
		if owned.Item == nil {
			return domain.Wrap(domain.ErrNotFound, "item not in inventory")
		}

		field, ok := equipField[owned.Item.Slot]
		if !ok {
			return domain.Wrap(domain.ErrBadRequest, "unknown equip slot")
		}

		loaded, errHero := EnsureHeroProfile(tx, userID, true)
		if errHero != nil {
			return errHero
		}
		id := itemID
		*field(loaded) = &id
		if errSave := tx.Save(loaded).Error; errSave != nil {
			return fmt.Errorf("lifeos: save hero: %w", errSave)
		}
		hero = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hero, nil
}

// Unequip clears one slot.
func (s *InventoryService) Unequip(ctx context.Context, userID uuid.UUID, slot models.CosmeticSlot) (*models.HeroProfile, error) {
	field, ok := equipField[slot]
	if !ok {
		return nil, domain.Wrap(domain.ErrBadRequest, "unknown equip slot")
	}

	var hero *models.HeroProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, errHero := EnsureHeroProfile(tx, userID, true)
		if errHero != nil {
			return errHero
		}
		*field(loaded) = nil
		if errSave := tx.Save(loaded).Error; errSave != nil {
			return fmt.Errorf("lifeos: save hero: %w", errSave)
		}
		hero = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hero, nil
}
