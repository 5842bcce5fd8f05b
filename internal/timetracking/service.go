// Package timetracking manages focus timers and manual time entries against
// nodes.
package timetracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrefine/lifeos/internal/badges"
	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/gamification"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/entrefine/lifeos/internal/nodes"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxManualDuration caps a single manual entry.
const maxManualDuration = 24 * time.Hour

// Service starts, stops, and aggregates time entries. A user has at most one
// running timer at a time.
type Service struct {
	db *gorm.DB
}

// NewService constructs a time tracking Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Start begins a timer on one of the user's nodes. A timer already running
// for the user is a conflict regardless of which node it tracks.
func (s *Service) Start(ctx context.Context, userID, nodeID uuid.UUID) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, errNode := nodes.LoadOwned(tx, userID, nodeID); errNode != nil {
			return errNode
		}

		var running int64
		if errCount := tx.Model(&models.TimeEntry{}).
			Where("user_id = ? AND ended_at IS NULL", userID).
			Count(&running).Error; errCount != nil {
			return fmt.Errorf("timetracking: check running: %w", errCount)
		}
		if running > 0 {
			return domain.Wrap(domain.ErrConflict, "a timer is already running")
		}

		entry = models.TimeEntry{UserID: userID, NodeID: nodeID, StartedAt: time.Now().UTC()}
		if errCreate := tx.Create(&entry).Error; errCreate != nil {
			return fmt.Errorf("timetracking: create entry: %w", errCreate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Stop ends the user's running timer and returns the closed entry with its
// duration populated. Badge thresholds on accumulated minutes are evaluated
// in the same transaction.
func (s *Service) Stop(ctx context.Context, userID uuid.UUID) (*models.TimeEntry, []badges.AwardedBadge, error) {
	var (
		entry   models.TimeEntry
		awarded []badges.AwardedBadge
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		errFind := tx.Where("user_id = ? AND ended_at IS NULL", userID).First(&entry).Error
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return domain.Wrap(domain.ErrBadRequest, "no timer is running")
		}
		if errFind != nil {
			return fmt.Errorf("timetracking: load running: %w", errFind)
		}

		now := time.Now().UTC()
		if errSave := tx.Model(&models.TimeEntry{}).
			Where("id = ?", entry.ID).
			Update("ended_at", now).Error; errSave != nil {
			return fmt.Errorf("timetracking: stop entry: %w", errSave)
		}
		if errReload := tx.First(&entry, "id = ?", entry.ID).Error; errReload != nil {
			return fmt.Errorf("timetracking: reload entry: %w", errReload)
		}

		var errBadges error
		awarded, errBadges = s.evaluateTimeBadges(tx, userID)
		return errBadges
	})
	if err != nil {
		return nil, nil, err
	}
	return &entry, awarded, nil
}

// AddManual records a finished span directly. The span must be positive, not
// in the future, and at most 24 hours long.
func (s *Service) AddManual(ctx context.Context, userID, nodeID uuid.UUID, startedAt, endedAt time.Time) (*models.TimeEntry, []badges.AwardedBadge, error) {
	startedAt = startedAt.UTC()
	endedAt = endedAt.UTC()
	if !endedAt.After(startedAt) {
		return nil, nil, domain.Wrap(domain.ErrBadRequest, "end must be after start")
	}
	if endedAt.Sub(startedAt) > maxManualDuration {
		return nil, nil, domain.Wrap(domain.ErrBadRequest, "entry exceeds 24 hours")
	}
	if endedAt.After(time.Now().UTC().Add(time.Minute)) {
		return nil, nil, domain.Wrap(domain.ErrBadRequest, "entry ends in the future")
	}

	var (
		entry   models.TimeEntry
		awarded []badges.AwardedBadge
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, errNode := nodes.LoadOwned(tx, userID, nodeID); errNode != nil {
			return errNode
		}

		entry = models.TimeEntry{UserID: userID, NodeID: nodeID, StartedAt: startedAt, EndedAt: &endedAt}
		if errCreate := tx.Create(&entry).Error; errCreate != nil {
			return fmt.Errorf("timetracking: create manual entry: %w", errCreate)
		}
		if errReload := tx.First(&entry, "id = ?", entry.ID).Error; errReload != nil {
			return fmt.Errorf("timetracking: reload entry: %w", errReload)
		}

		var errBadges error
		awarded, errBadges = s.evaluateTimeBadges(tx, userID)
		return errBadges
	})
	if err != nil {
		return nil, nil, err
	}
	return &entry, awarded, nil
}

// Running returns the user's running entry, or nil when no timer is active.
func (s *Service) Running(ctx context.Context, userID uuid.UUID) (*models.TimeEntry, error) {
	var entry models.TimeEntry
	err := s.db.WithContext(ctx).
		Preload("Node").
		Where("user_id = ? AND ended_at IS NULL", userID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("timetracking: load running: %w", err)
	}
	return &entry, nil
}

// List returns the user's entries newest first, optionally for one node.
func (s *Service) List(ctx context.Context, userID uuid.UUID, nodeID *uuid.UUID, limit int) ([]models.TimeEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.WithContext(ctx).
		Preload("Node").
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Limit(limit)
	if nodeID != nil {
		q = q.Where("node_id = ?", *nodeID)
	}

	var out []models.TimeEntry
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("timetracking: list: %w", err)
	}
	return out, nil
}

// NodeTotal is one row of the per-node time summary.
type NodeTotal struct {
	NodeID       uuid.UUID `json:"node_id"`
	TotalMinutes int       `json:"total_minutes"`
	EntryCount   int       `json:"entry_count"`
}

// Summary aggregates finished entries per node.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) ([]NodeTotal, error) {
	var out []NodeTotal
	err := s.db.WithContext(ctx).Model(&models.TimeEntry{}).
		Select("node_id, COALESCE(SUM(duration_min), 0) AS total_minutes, COUNT(*) AS entry_count").
		Where("user_id = ? AND duration_min IS NOT NULL", userID).
		Group("node_id").
		Order("total_minutes DESC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("timetracking: summary: %w", err)
	}
	return out, nil
}

// TotalMinutes sums the user's finished entries.
func (s *Service) TotalMinutes(ctx context.Context, userID uuid.UUID) (int, error) {
	return totalMinutes(s.db.WithContext(ctx), userID)
}

func totalMinutes(tx *gorm.DB, userID uuid.UUID) (int, error) {
	var minutes int64
	err := tx.Model(&models.TimeEntry{}).
		Where("user_id = ? AND duration_min IS NOT NULL", userID).
		Select("COALESCE(SUM(duration_min), 0)").
		Scan(&minutes).Error
	if err != nil {
		return 0, fmt.Errorf("timetracking: sum minutes: %w", err)
	}
	return int(minutes), nil
}

// evaluateTimeBadges re-checks time-threshold badges after entries change
// and credits any bonus XP to the user's stats in the same transaction.
func (s *Service) evaluateTimeBadges(tx *gorm.DB, userID uuid.UUID) ([]badges.AwardedBadge, error) {
	minutes, err := totalMinutes(tx, userID)
	if err != nil {
		return nil, err
	}
	awarded, err := badges.Evaluate(tx, userID, badges.Metrics{TimeMinutes: &minutes})
	if err != nil {
		return nil, err
	}

	bonus := 0
	for _, a := range awarded {
		bonus += a.BonusXP
	}
	if bonus > 0 {
		stats, errStats := gamification.GetOrCreateStats(tx, userID, true)
		if errStats != nil {
			return nil, errStats
		}
		gamification.ApplyXP(stats, bonus)
		if errSave := tx.Save(stats).Error; errSave != nil {
			return nil, fmt.Errorf("timetracking: save stats: %w", errSave)
		}
	}
	return awarded, nil
}
