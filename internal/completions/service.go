// Package completions records node completions and fans the reward side
// effects out to stats and badges.
package completions

import (
	"context"
	"fmt"
	"time"

	"github.com/entrefine/lifeos/internal/badges"
	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/gamification"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/entrefine/lifeos/internal/nodes"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service completes nodes and lists completion history.
type Service struct {
	db *gorm.DB
}

// NewService constructs a completion Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Result reports everything one completion changed.
type Result struct {
	Completion    *models.NodeCompletion `json:"completion"`
	EarnedXP      int                    `json:"earned_xp"`
	BonusXP       int                    `json:"bonus_xp"`
	Level         int                    `json:"level"`
	LeveledUp     bool                   `json:"leveled_up"`
	StreakDays    int                    `json:"streak_days"`
	AwardedBadges []badges.AwardedBadge  `json:"awarded_badges,omitempty"`
}

// Complete records a completion of one of the user's nodes and applies the
// reward pipeline: base XP, streak update, then badge evaluation whose bonus
// XP lands in the same transaction. The stats row is locked for the duration
// so concurrent completions by the same user serialize instead of losing
// updates. Locked nodes cannot be completed.
func (s *Service) Complete(ctx context.Context, userID, nodeID uuid.UUID, source models.CompletionSource) (*Result, error) {
	if source == "" {
		source = models.CompletionManual
	}
	if source != models.CompletionManual && source != models.CompletionSession {
		return nil, domain.Wrap(domain.ErrBadRequest, "unknown completion source")
	}

	var result Result
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		node, errNode := nodes.LoadOwned(tx, userID, nodeID)
		if errNode != nil {
			return errNode
		}
		if node.IsLocked {
			return domain.Wrap(domain.ErrBadRequest, "node is locked")
		}

		stats, errStats := gamification.GetOrCreateStats(tx, userID, true)
		if errStats != nil {
			return errStats
		}

		now := time.Now().UTC()
		completion := models.NodeCompletion{
			UserID:      userID,
			NodeID:      node.ID,
			CompletedAt: now,
			Source:      source,
			EarnedXP:    node.BaseXP,
		}
		if errCreate := tx.Create(&completion).Error; errCreate != nil {
			return fmt.Errorf("completions: create: %w", errCreate)
		}

		levelBefore := stats.Level
		gamification.ApplyXP(stats, node.BaseXP)
		gamification.UpdateStreak(stats, now)

		metrics, errMetrics := s.collectMetrics(tx, userID, stats)
		if errMetrics != nil {
			return errMetrics
		}
		awarded, errBadges := badges.Evaluate(tx, userID, metrics)
		if errBadges != nil {
			return errBadges
		}
		bonus := 0
		for _, a := range awarded {
			bonus += a.BonusXP
		}
		if bonus > 0 {
			gamification.ApplyXP(stats, bonus)
		}

		if errSave := tx.Save(stats).Error; errSave != nil {
			return fmt.Errorf("completions: save stats: %w", errSave)
		}

		result = Result{
			Completion:    &completion,
			EarnedXP:      node.BaseXP,
			BonusXP:       bonus,
			Level:         stats.Level,
			LeveledUp:     stats.Level > levelBefore,
			StreakDays:    stats.CurrentStreakDays,
			AwardedBadges: awarded,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"node_id": nodeID,
		"xp":      result.EarnedXP + result.BonusXP,
		"level":   result.Level,
		"badges":  len(result.AwardedBadges),
	}).Debug("node completed")
	return &result, nil
}

// collectMetrics gathers the counters badge rules watch, inside the same
// transaction so the just-created completion counts.
func (s *Service) collectMetrics(tx *gorm.DB, userID uuid.UUID, stats *models.UserStats) (badges.Metrics, error) {
	var completions int64
	if err := tx.Model(&models.NodeCompletion{}).
		Where("user_id = ?", userID).
		Count(&completions).Error; err != nil {
		return badges.Metrics{}, fmt.Errorf("completions: count: %w", err)
	}

	var minutes int64
	if err := tx.Model(&models.TimeEntry{}).
		Where("user_id = ? AND duration_min IS NOT NULL", userID).
		Select("COALESCE(SUM(duration_min), 0)").
		Scan(&minutes).Error; err != nil {
		return badges.Metrics{}, fmt.Errorf("completions: sum minutes: %w", err)
	}

	streak := stats.CurrentStreakDays
	completionCount := int(completions)
	timeMinutes := int(minutes)
	return badges.Metrics{
		StreakDays:      &streak,
		CompletionCount: &completionCount,
		TimeMinutes:     &timeMinutes,
	}, nil
}

// List returns the user's completions newest first, optionally for one node.
func (s *Service) List(ctx context.Context, userID uuid.UUID, nodeID *uuid.UUID, limit int) ([]models.NodeCompletion, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := s.db.WithContext(ctx).
		Preload("Node").
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Limit(limit)
	if nodeID != nil {
		q = q.Where("node_id = ?", *nodeID)
	}

	var out []models.NodeCompletion
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("completions: list: %w", err)
	}
	return out, nil
}
