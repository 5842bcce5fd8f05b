// Package nodes implements CRUD over nodes and their habit schedules.
package nodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service manages nodes. Ownership is checked through the containing track,
// so a node in someone else's track behaves as if it does not exist.
type Service struct {
	db *gorm.DB
}

// NewService constructs a node Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ScheduleInput carries a habit schedule for create and update calls.
type ScheduleInput struct {
	Frequency models.HabitFrequency
	Meta      datatypes.JSON
}

// CreateInput carries the fields for a new node.
type CreateInput struct {
	TrackID     uuid.UUID
	Type        models.NodeType
	Title       string
	Description string
	BaseXP      *int
	IsLocked    bool
	Position    *int
	Schedule    *ScheduleInput
}

// Create adds a node to one of the user's tracks. Habit nodes may carry a
// schedule; any other type with a schedule is rejected.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*models.Node, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Wrap(domain.ErrBadRequest, "node title is required")
	}
	if !validType(in.Type) {
		return nil, domain.Wrap(domain.ErrBadRequest, "unknown node type")
	}
	if in.Schedule != nil {
		if in.Type != models.NodeTypeHabit {
			return nil, domain.Wrap(domain.ErrBadRequest, "only habit nodes take a schedule")
		}
		if !validFrequency(in.Schedule.Frequency) {
			return nil, domain.Wrap(domain.ErrBadRequest, "unknown habit frequency")
		}
	}

	var node models.Node
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errOwn := s.checkTrack(tx, userID, in.TrackID); errOwn != nil {
			return errOwn
		}

		position := 0
		if in.Position != nil {
			position = *in.Position
		} else {
			var maxPos *int
			if errPos := tx.Model(&models.Node{}).
				Where("track_id = ?", in.TrackID).
				Select("MAX(position)").
				Scan(&maxPos).Error; errPos != nil {
				return fmt.Errorf("nodes: next position: %w", errPos)
			}
			if maxPos != nil {
				position = *maxPos + 1
			}
		}

		baseXP := 10
		if in.BaseXP != nil {
			if *in.BaseXP < 0 {
				return domain.Wrap(domain.ErrBadRequest, "base xp cannot be negative")
			}
			baseXP = *in.BaseXP
		}

		node = models.Node{
			TrackID:     in.TrackID,
			Type:        in.Type,
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			BaseXP:      baseXP,
			IsLocked:    in.IsLocked,
			Position:    position,
		}
		if errCreate := tx.Create(&node).Error; errCreate != nil {
			return fmt.Errorf("nodes: create: %w", errCreate)
		}

		if in.Schedule != nil {
			sched := models.HabitSchedule{
				NodeID:    node.ID,
				Frequency: in.Schedule.Frequency,
				Meta:      in.Schedule.Meta,
			}
			if errSched := tx.Create(&sched).Error; errSched != nil {
				return fmt.Errorf("nodes: create schedule: %w", errSched)
			}
			node.HabitSchedule = &sched
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// List returns the nodes of one of the user's tracks in position order.
func (s *Service) List(ctx context.Context, userID, trackID uuid.UUID) ([]models.Node, error) {
	conn := s.db.WithContext(ctx)
	if err := s.checkTrack(conn, userID, trackID); err != nil {
		return nil, err
	}

	var out []models.Node
	err := conn.
		Preload("HabitSchedule").
		Where("track_id = ?", trackID).
		Order("position, created_at").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("nodes: list: %w", err)
	}
	return out, nil
}

// Get loads one node the user owns through its track.
func (s *Service) Get(ctx context.Context, userID, nodeID uuid.UUID) (*models.Node, error) {
	return loadOwned(s.db.WithContext(ctx), userID, nodeID)
}

// UpdateInput carries the mutable node fields; nil means keep. Schedule
// replaces the habit schedule wholesale; ClearSchedule removes it.
type UpdateInput struct {
	Title         *string
	Description   *string
	BaseXP        *int
	IsLocked      *bool
	Position      *int
	Schedule      *ScheduleInput
	ClearSchedule bool
}

// Update applies a partial update to a node.
func (s *Service) Update(ctx context.Context, userID, nodeID uuid.UUID, in UpdateInput) (*models.Node, error) {
	var out *models.Node
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, errLoad := loadOwned(tx, userID, nodeID)
		if errLoad != nil {
			return errLoad
		}

		changes := map[string]any{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return domain.Wrap(domain.ErrBadRequest, "node title is required")
			}
			changes["title"] = title
		}
		if in.Description != nil {
			changes["description"] = strings.TrimSpace(*in.Description)
		}
		if in.BaseXP != nil {
			if *in.BaseXP < 0 {
				return domain.Wrap(domain.ErrBadRequest, "base xp cannot be negative")
			}
			changes["base_xp"] = *in.BaseXP
		}
		if in.IsLocked != nil {
			changes["is_locked"] = *in.IsLocked
		}
		if in.Position != nil {
			changes["position"] = *in.Position
		}
		if len(changes) > 0 {
			if errSave := tx.Model(&models.Node{}).Where("id = ?", node.ID).Updates(changes).Error; errSave != nil {
				return fmt.Errorf("nodes: update: %w", errSave)
			}
		}

		if in.ClearSchedule {
			if errDel := tx.Where("node_id = ?", node.ID).Delete(&models.HabitSchedule{}).Error; errDel != nil {
				return fmt.Errorf("nodes: delete schedule: %w", errDel)
			}
		} else if in.Schedule != nil {
			if node.Type != models.NodeTypeHabit {
				return domain.Wrap(domain.ErrBadRequest, "only habit nodes take a schedule")
			}
			if !validFrequency(in.Schedule.Frequency) {
				return domain.Wrap(domain.ErrBadRequest, "unknown habit frequency")
			}
			if errDel := tx.Where("node_id = ?", node.ID).Delete(&models.HabitSchedule{}).Error; errDel != nil {
				return fmt.Errorf("nodes: replace schedule: %w", errDel)
			}
			sched := models.HabitSchedule{NodeID: node.ID, Frequency: in.Schedule.Frequency, Meta: in.Schedule.Meta}
			if errSched := tx.Create(&sched).Error; errSched != nil {
				return fmt.Errorf("nodes: create schedule: %w", errSched)
			}
		}

		fresh, errFresh := loadOwned(tx, userID, nodeID)
		if errFresh != nil {
			return errFresh
		}
		out = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a node and its schedule.
func (s *Service) Delete(ctx context.Context, userID, nodeID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, errLoad := loadOwned(tx, userID, nodeID)
		if errLoad != nil {
			return errLoad
		}
		if errSched := tx.Where("node_id = ?", node.ID).Delete(&models.HabitSchedule{}).Error; errSched != nil {
			return fmt.Errorf("nodes: delete schedule: %w", errSched)
		}
		if errDel := tx.Delete(&models.Node{}, "id = ?", node.ID).Error; errDel != nil {
			return fmt.Errorf("nodes: delete: %w", errDel)
		}
		return nil
	})
}

// LoadOwned resolves a node through its track's owner. Exported for the
// completion and time tracking services which share the ownership rule.
func LoadOwned(tx *gorm.DB, userID, nodeID uuid.UUID) (*models.Node, error) {
	return loadOwned(tx, userID, nodeID)
}

func loadOwned(tx *gorm.DB, userID, nodeID uuid.UUID) (*models.Node, error) {
	var node models.Node
	err := tx.
		Preload("HabitSchedule").
		Joins("JOIN tracks ON tracks.id = nodes.track_id").
		Where("nodes.id = ? AND tracks.user_id = ?", nodeID, userID).
		First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Wrap(domain.ErrNotFound, "node not found")
	}
	if err != nil {
		return nil, fmt.Errorf("nodes: load: %w", err)
	}
	return &node, nil
}

func (s *Service) checkTrack(tx *gorm.DB, userID, trackID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Track{}).
		Where("id = ? AND user_id = ?", trackID, userID).
		Count(&count).Error; err != nil {
		return fmt.Errorf("nodes: check track: %w", err)
	}
	if count == 0 {
		return domain.Wrap(domain.ErrNotFound, "track not found")
	}
	return nil
}

func validType(t models.NodeType) bool {
	switch t {
	case models.NodeTypeTask, models.NodeTypeHabit, models.NodeTypeFocusSession, models.NodeTypeMilestone:
		return true
	}
	return false
}

func validFrequency(f models.HabitFrequency) bool {
	switch f {
	case models.HabitDaily, models.HabitWeekly, models.HabitMonthly:
		return true
	}
	return false
}
