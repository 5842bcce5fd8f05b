package lifeos

import (
	"context"
	"fmt"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GameState is the aggregate the client renders the world from.
type GameState struct {
	Hero           *models.HeroProfile  `json:"hero"`
	World          *models.WorldState   `json:"world"`
	PendingSession *models.FocusSession `json:"pending_session,omitempty"`
}

// StateService assembles the full game state for a user.
type StateService struct {
	db       *gorm.DB
	sessions *SessionService
}

// NewStateService constructs a StateService.
func NewStateService(db *gorm.DB, sessions *SessionService) *StateService {
	return &StateService{db: db, sessions: sessions}
}

// Get returns hero, world, and the pending session if one is open. Hero and
// world rows are created lazily so a brand-new user gets a level 1 state.
func (s *StateService) Get(ctx context.Context, userID uuid.UUID) (*GameState, error) {
	conn := s.db.WithContext(ctx)

	hero, err := EnsureHeroProfile(conn, userID, false)
	if err != nil {
		return nil, err
	}
	if errEquip := conn.
		Preload("EquippedHat").
		Preload("EquippedOutfit").
		Preload("EquippedAccessory").
		First(hero, "id = ?", hero.ID).Error; errEquip != nil {
		return nil, errEquip
	}

	world, err := EnsureWorldState(conn, userID, false)
	if err != nil {
		return nil, err
	}

	pending, err := s.sessions.Pending(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &GameState{Hero: hero, World: world, PendingSession: pending}, nil
}

// World returns the user's world row, creating it on first read.
func (s *StateService) World(ctx context.Context, userID uuid.UUID) (*models.WorldState, error) {
	return EnsureWorldState(s.db.WithContext(ctx), userID, false)
}

// UpgradeWorld sets one layer to the given tier. Tiers only move up;
// asking for a lower tier than the current one is rejected.
func (s *StateService) UpgradeWorld(ctx context.Context, userID uuid.UUID, target string, level int) (*models.WorldState, error) {
	field, ok := worldTargetField[target]
	if !ok {
		return nil, domain.Wrap(domain.ErrBadRequest, "unknown upgrade target")
	}

	var world *models.WorldState
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, errLoad := EnsureWorldState(tx, userID, true)
		if errLoad != nil {
			return errLoad
		}
		current := field(loaded)
		if level < *current {
			return domain.Wrap(domain.ErrBadRequest, "cannot downgrade world level")
		}
		*current = level
		if errSave := tx.Save(loaded).Error; errSave != nil {
			return fmt.Errorf("lifeos: save world: %w", errSave)
		}
		world = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return world, nil
}
