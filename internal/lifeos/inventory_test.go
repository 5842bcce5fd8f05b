package lifeos

import (
	"context"
	"errors"
	"testing"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func grantItem(t *testing.T, conn *gorm.DB, userID uuid.UUID, slot models.CosmeticSlot) models.CosmeticItem {
	t.Helper()
	var item models.CosmeticItem
	if err := conn.Where("slot = ?", slot).First(&item).Error; err != nil {
		t.Fatalf("load catalog item: %v", err)
	}
	if err := conn.Create(&models.InventoryItem{UserID: userID, ItemID: item.ID}).Error; err != nil {
		t.Fatalf("grant item: %v", err)
	}
	return item
}

func TestInventory_EquipOwnedItem(t *testing.T) {
	conn := openTestDB(t)
	svc := NewInventoryService(conn)
	userID := uuid.New()
	hat := grantItem(t, conn, userID, models.SlotHat)

	hero, err := svc.Equip(context.Background(), userID, hat.ID)
	if err != nil {
		t.Fatalf("equip: %v", err)
	}
	if hero.EquippedHatID == nil || *hero.EquippedHatID != hat.ID {
		t.Fatalf("expected hat equipped, got %+v", hero)
	}
	if hero.EquippedOutfitID != nil || hero.EquippedAccessoryID != nil {
		t.Fatal("other slots must stay empty")
	}
}

func TestInventory_EquipReplacesSameSlot(t *testing.T) {
	conn := openTestDB(t)
	svc := NewInventoryService(conn)
	userID := uuid.New()

	var hats []models.CosmeticItem
	if err := conn.Where("slot = ?", models.SlotHat).Limit(2).Find(&hats).Error; err != nil || len(hats) < 2 {
		t.Fatalf("need two catalog hats: %v", err)
	}
	for _, h := range hats {
		if err := conn.Create(&models.InventoryItem{UserID: userID, ItemID: h.ID}).Error; err != nil {
			t.Fatalf("grant: %v", err)
		}
	}

	if _, err := svc.Equip(context.Background(), userID, hats[0].ID); err != nil {
		t.Fatalf("equip first: %v", err)
	}
	hero, err := svc.Equip(context.Background(), userID, hats[1].ID)
	if err != nil {
		t.Fatalf("equip second: %v", err)
	}
	if hero.EquippedHatID == nil || *hero.EquippedHatID != hats[1].ID {
		t.Fatalf("expected second hat equipped, got %+v", hero.EquippedHatID)
	}
}

func TestInventory_EquipUnownedItemRejected(t *testing.T) {
	conn := openTestDB(t)
	svc := NewInventoryService(conn)

	var item models.CosmeticItem
	if err := conn.First(&item).Error; err != nil {
		t.Fatalf("load catalog item: %v", err)
	}
	if _, err := svc.Equip(context.Background(), uuid.New(), item.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInventory_Unequip(t *testing.T) {
	conn := openTestDB(t)
	svc := NewInventoryService(conn)
	userID := uuid.New()
	hat := grantItem(t, conn, userID, models.SlotHat)

	if _, err := svc.Equip(context.Background(), userID, hat.ID); err != nil {
		t.Fatalf("equip: %v", err)
	}
	hero, err := svc.Unequip(context.Background(), userID, models.SlotHat)
	if err != nil {
		t.Fatalf("unequip: %v", err)
	}
	if hero.EquippedHatID != nil {
		t.Fatalf("expected empty hat slot, got %v", hero.EquippedHatID)
	}

	if _, err := svc.Unequip(context.Background(), userID, models.CosmeticSlot("belt")); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for unknown slot, got %v", err)
	}
}

func TestInventory_ListAndCatalog(t *testing.T) {
	conn := openTestDB(t)
	svc := NewInventoryService(conn)
	userID := uuid.New()
	grantItem(t, conn, userID, models.SlotOutfit)

	owned, err := svc.List(context.Background(), userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(owned) != 1 || owned[0].Item == nil {
		t.Fatalf("expected one owned item with catalog entry, got %+v", owned)
	}

	catalog, err := svc.Catalog(context.Background())
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if len(catalog) == 0 {
		t.Fatal("expected seeded catalog")
	}
}
