// Package tracks implements CRUD over user-owned tracks, the ordered
// containers nodes live in.
package tracks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service manages tracks. Every operation is scoped to the owning user; a
// track belonging to someone else behaves as if it does not exist.
type Service struct {
	db *gorm.DB
}

// NewService constructs a track Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput carries the fields for a new track.
type CreateInput struct {
	Name     string
	Color    string
	Icon     string
	Position *int
}

// Create adds a track for the user. Without an explicit position the track
// goes after the user's current last one.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*models.Track, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Wrap(domain.ErrBadRequest, "track name is required")
	}

	conn := s.db.WithContext(ctx)

	position := 0
	if in.Position != nil {
		position = *in.Position
	} else {
		var maxPos *int
		if err := conn.Model(&models.Track{}).
			Where("user_id = ?", userID).
			Select("MAX(position)").
			Scan(&maxPos).Error; err != nil {
			return nil, fmt.Errorf("tracks: next position: %w", err)
		}
		if maxPos != nil {
			position = *maxPos + 1
		}
	}

	track := models.Track{
		UserID:   userID,
		Name:     name,
		Color:    strings.TrimSpace(in.Color),
		Icon:     strings.TrimSpace(in.Icon),
		Position: position,
	}
	if err := conn.Create(&track).Error; err != nil {
		return nil, fmt.Errorf("tracks: create: %w", err)
	}
	return &track, nil
}

// List returns the user's tracks ordered by position with nodes preloaded
// in their own order.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]models.Track, error) {
	var out []models.Track
	err := s.db.WithContext(ctx).
		Preload("Nodes", func(tx *gorm.DB) *gorm.DB { return tx.Order("position, created_at") }).
		Preload("Nodes.HabitSchedule").
		Where("user_id = ?", userID).
		Order("position, created_at").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("tracks: list: %w", err)
	}
	return out, nil
}

// Get loads one of the user's tracks with its nodes.
func (s *Service) Get(ctx context.Context, userID, trackID uuid.UUID) (*models.Track, error) {
	var track models.Track
	err := s.db.WithContext(ctx).
		Preload("Nodes", func(tx *gorm.DB) *gorm.DB { return tx.Order("position, created_at") }).
		Preload("Nodes.HabitSchedule").
		Where("id = ? AND user_id = ?", trackID, userID).
		First(&track).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Wrap(domain.ErrNotFound, "track not found")
	}
	if err != nil {
		return nil, fmt.Errorf("tracks: load: %w", err)
	}
	return &track, nil
}

// UpdateInput carries the mutable track fields; nil means keep.
type UpdateInput struct {
	Name     *string
	Color    *string
	Icon     *string
	Position *int
}

// Update applies a partial update to one of the user's tracks.
func (s *Service) Update(ctx context.Context, userID, trackID uuid.UUID, in UpdateInput) (*models.Track, error) {
	changes := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.Wrap(domain.ErrBadRequest, "track name is required")
		}
		changes["name"] = name
	}
	if in.Color != nil {
		changes["color"] = strings.TrimSpace(*in.Color)
	}
	if in.Icon != nil {
		changes["icon"] = strings.TrimSpace(*in.Icon)
	}
	if in.Position != nil {
		changes["position"] = *in.Position
	}

	if len(changes) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Track{}).
			Where("id = ? AND user_id = ?", trackID, userID).
			Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("tracks: update: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.Wrap(domain.ErrNotFound, "track not found")
		}
	}
	return s.Get(ctx, userID, trackID)
}

// Delete removes one of the user's tracks along with its nodes.
func (s *Service) Delete(ctx context.Context, userID, trackID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var track models.Track
		err := tx.Where("id = ? AND user_id = ?", trackID, userID).First(&track).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Wrap(domain.ErrNotFound, "track not found")
		}
		if err != nil {
			return fmt.Errorf("tracks: load: %w", err)
		}

		var nodeIDs []uuid.UUID
		if errIDs := tx.Model(&models.Node{}).Where("track_id = ?", trackID).Pluck("id", &nodeIDs).Error; errIDs != nil {
			return fmt.Errorf("tracks: list nodes: %w", errIDs)
		}
		if len(nodeIDs) > 0 {
			if errSched := tx.Where("node_id IN ?", nodeIDs).Delete(&models.HabitSchedule{}).Error; errSched != nil {
				return fmt.Errorf("tracks: delete schedules: %w", errSched)
			}
			if errNodes := tx.Where("id IN ?", nodeIDs).Delete(&models.Node{}).Error; errNodes != nil {
				return fmt.Errorf("tracks: delete nodes: %w", errNodes)
			}
		}
		if errDel := tx.Delete(&track).Error; errDel != nil {
			return fmt.Errorf("tracks: delete: %w", errDel)
		}
		return nil
	})
}
