package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStatsPublic is the stats DTO returned to clients.
type UserStatsPublic struct {
	Level             int        `json:"level"`
	XPTotal           int        `json:"xp_total"`
	XPToNext          int        `json:"xp_to_next"`
	XPProgress        int        `json:"xp_progress"`
	XPRemaining       int        `json:"xp_remaining"`
	CurrentStreakDays int        `json:"current_streak_days"`
	LastActiveDate    *time.Time `json:"last_active_date,omitempty"`
}

// ProgressSummary aggregates stats with completion and time totals.
type ProgressSummary struct {
	Level             int `json:"level"`
	XPTotal           int `json:"xp_total"`
	XPToNext          int `json:"xp_to_next"`
	CurrentStreakDays int `json:"current_streak_days"`
	TotalTimeMinutes  int `json:"total_time_minutes"`
	TotalCompletions  int `json:"total_completions"`
	TodayCompletions  int `json:"today_completions"`
}

// Service reads and maintains per-user gamification state.
type Service struct {
	db *gorm.DB
}

// NewService constructs a gamification Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// GetOrCreateStats loads a user's stats row, creating it on first touch.
// With forUpdate set the row is locked for the enclosing transaction so
// concurrent completions for the same user serialize.
func GetOrCreateStats(tx *gorm.DB, userID uuid.UUID, forUpdate bool) (*models.UserStats, error) {
	q := tx
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var stats models.UserStats
	errFind := q.Where("user_id = ?", userID).First(&stats).Error
	if errFind == nil {
		return &stats, nil
	}
	if !errors.Is(errFind, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("gamification: load stats: %w", errFind)
	}

	stats = models.UserStats{UserID: userID, Level: 1}
	if errCreate := tx.Create(&stats).Error; errCreate != nil {
		return nil, fmt.Errorf("gamification: create stats: %w", errCreate)
	}
	return &stats, nil
}

// GetUserStats returns the public stats DTO for a user.
func (s *Service) GetUserStats(ctx context.Context, userID uuid.UUID) (*UserStatsPublic, error) {
	stats, err := GetOrCreateStats(s.db.WithContext(ctx), userID, false)
	if err != nil {
		return nil, err
	}

	xpFloor := XPFloor(stats.Level)
	xpProgress := stats.XPTotal - xpFloor
	if xpProgress < 0 {
		xpProgress = 0
	}
	xpToNext := XPToNextLevel(stats.Level)
	xpRemaining := xpToNext - xpProgress
	if xpRemaining < 0 {
		xpRemaining = 0
	}

	return &UserStatsPublic{
		Level:             stats.Level,
		XPTotal:           stats.XPTotal,
		XPToNext:          xpToNext,
		XPProgress:        xpProgress,
		XPRemaining:       xpRemaining,
		CurrentStreakDays: stats.CurrentStreakDays,
		LastActiveDate:    stats.LastActiveDate,
	}, nil
}

// GetProgressSummary returns the combined progress DTO for a user.
func (s *Service) GetProgressSummary(ctx context.Context, userID uuid.UUID) (*ProgressSummary, error) {
	conn := s.db.WithContext(ctx)

	stats, err := GetOrCreateStats(conn, userID, false)
	if err != nil {
		return nil, err
	}

	var totalMinutes int64
	if errSum := conn.Model(&models.TimeEntry{}).
		Where("user_id = ? AND duration_min IS NOT NULL", userID).
		Select("COALESCE(SUM(duration_min), 0)").
		Scan(&totalMinutes).Error; errSum != nil {
		return nil, fmt.Errorf("gamification: sum minutes: %w", errSum)
	}

	totalCompletions, errTotal := s.completionCount(conn, userID, nil)
	if errTotal != nil {
		return nil, errTotal
	}
	today := time.Now().UTC()
	todayCompletions, errToday := s.completionCount(conn, userID, &today)
	if errToday != nil {
		return nil, errToday
	}

	return &ProgressSummary{
		Level:             stats.Level,
		XPTotal:           stats.XPTotal,
		XPToNext:          XPToNextLevel(stats.Level),
		CurrentStreakDays: stats.CurrentStreakDays,
		TotalTimeMinutes:  int(totalMinutes),
		TotalCompletions:  int(totalCompletions),
		TodayCompletions:  int(todayCompletions),
	}, nil
}

// completionCount counts completions, optionally restricted to one UTC day.
func (s *Service) completionCount(conn *gorm.DB, userID uuid.UUID, onDate *time.Time) (int64, error) {
	q := conn.Model(&models.NodeCompletion{}).Where("user_id = ?", userID)
	if onDate != nil {
		day := onDate.UTC()
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
		end := start.Add(24 * time.Hour)
		q = q.Where("completed_at >= ? AND completed_at < ?", start, end)
	}
	var count int64
	if errCount := q.Count(&count).Error; errCount != nil {
		return 0, fmt.Errorf("gamification: count completions: %w", errCount)
	}
	return count, nil
}
