// Package lifeos implements the game layer: hero profiles, focus sessions,
// the reward engine, cosmetic drops, and world progression.
package lifeos

import (
	"errors"
	"fmt"

	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureHeroProfile loads a user's hero profile, creating it on first touch.
// With forUpdate set the row is locked for the enclosing transaction.
func EnsureHeroProfile(tx *gorm.DB, userID uuid.UUID, forUpdate bool) (*models.HeroProfile, error) {
	q := tx
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var hero models.HeroProfile
	errFind := q.Where("user_id = ?", userID).First(&hero).Error
	if errFind == nil {
		return &hero, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lifeos: load hero: %w", errFind)
	}

	hero = models.HeroProfile{UserID: userID, Level: 1}
	if errCreate := tx.Create(&hero).Error; errCreate != nil {
		return nil, fmt.Errorf("lifeos: create hero: %w", errCreate)
	}
	return &hero, nil
}

// EnsureWorldState loads a user's world state, creating it on first touch.
// With forUpdate set the row is locked for the enclosing transaction.
func EnsureWorldState(tx *gorm.DB, userID uuid.UUID, forUpdate bool) (*models.WorldState, error) {
	q := tx
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var world models.WorldState
	errFind := q.Where("user_id = ?", userID).First(&world).Error
	if errFind == nil {
		return &world, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lifeos: load world: %w", errFind)
	}

	world = models.WorldState{
		UserID:            userID,
		StudyRoomLevel:    1,
		BuildRoomLevel:    1,
		TrainingRoomLevel: 1,
		PlazaLevel:        1,
	}
	if errCreate := tx.Create(&world).Error; errCreate != nil {
		return nil, fmt.Errorf("lifeos: create world: %w", errCreate)
	}
	return &world, nil
}
