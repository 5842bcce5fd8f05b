package lifeos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Session duration bounds in minutes.
const (
	minSessionMinutes = 5
	maxSessionMinutes = 180
)

// SessionService runs the focus session state machine: pending → success or
// cancelled. A user has at most one pending session at a time.
type SessionService struct {
	db     *gorm.DB
	engine *RewardEngine
}

// NewSessionService constructs a SessionService.
func NewSessionService(db *gorm.DB, engine *RewardEngine) *SessionService {
	return &SessionService{db: db, engine: engine}
}

// StartInput carries the parameters for a new session. Duration falls back
// to the template's default, then to 25 minutes.
type StartInput struct {
	TaskTemplateID  *uuid.UUID
	Room            models.RoomName
	DurationMinutes *int
}

// Start opens a pending session. An existing pending session is a conflict;
// the client must complete or cancel it first.
func (s *SessionService) Start(ctx context.Context, userID uuid.UUID, in StartInput) (*models.FocusSession, error) {
	var session models.FocusSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending int64
		if errCount := tx.Model(&models.FocusSession{}).
			Where("user_id = ? AND status = ?", userID, models.SessionPending).
			Count(&pending).Error; errCount != nil {
			return fmt.Errorf("lifeos: check pending: %w", errCount)
		}
		if pending > 0 {
			return domain.Wrap(domain.ErrConflict, "a session is already pending")
		}

		duration := 25
		room := in.Room

		if in.TaskTemplateID != nil {
			var tpl models.TaskTemplate
			errTpl := tx.Where("id = ? AND user_id = ?", *in.TaskTemplateID, userID).First(&tpl).Error
			if errors.Is(errTpl, gorm.ErrRecordNotFound) {
				return domain.Wrap(domain.ErrNotFound, "task template not found")
			}
			if errTpl != nil {
				return fmt.Errorf("lifeos: load template: %w", errTpl)
			}
			duration = tpl.DefaultDuration
			if room == "" {
				room = tpl.Room
			}
		}
		if in.DurationMinutes != nil {
			duration = *in.DurationMinutes
		}
		if duration < minSessionMinutes || duration > maxSessionMinutes {
			return domain.Wrap(domain.ErrBadRequest, "duration out of range")
		}
		if room == "" {
			room = models.RoomStudy
		}
		if _, ok := roomLevelField[room]; !ok {
			return domain.Wrap(domain.ErrBadRequest, "unknown room")
		}

		expectedEnd := time.Now().UTC().Add(time.Duration(duration) * time.Minute)
		session = models.FocusSession{
			UserID:          userID,
			TaskTemplateID:  in.TaskTemplateID,
			Room:            room,
			DurationMinutes: duration,
			ExpectedEndTime: &expectedEnd,
			Status:          models.SessionPending,
		}
		if errCreate := tx.Create(&session).Error; errCreate != nil {
			return fmt.Errorf("lifeos: create session: %w", errCreate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// CompleteResult pairs the finished session with its reward outcome.
type CompleteResult struct {
	Session *models.FocusSession `json:"session"`
	Reward  *RewardOutcome       `json:"reward"`
}

// Complete marks a pending session successful and applies its rewards in
// one transaction. Only the owner's pending session can be completed.
func (s *SessionService) Complete(ctx context.Context, userID, sessionID uuid.UUID) (*CompleteResult, error) {
	var result CompleteResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, errLoad := s.loadPending(tx, userID, sessionID)
		if errLoad != nil {
			return errLoad
		}

		now := time.Now().UTC()
		session.Status = models.SessionSuccess
		session.CompletedAt = &now
		if errSave := tx.Save(session).Error; errSave != nil {
			return fmt.Errorf("lifeos: save session: %w", errSave)
		}

		outcome, errReward := s.engine.ApplySuccess(tx, userID, session.DurationMinutes, now)
		if errReward != nil {
			return errReward
		}

		session.RewardExp = &outcome.ExpGained
		session.RewardGold = &outcome.GoldGained
		if outcome.Drop != nil {
			session.RewardCosmeticItemID = &outcome.Drop.ID
		}
		if errSave := tx.Save(session).Error; errSave != nil {
			return fmt.Errorf("lifeos: save session rewards: %w", errSave)
		}

		result = CompleteResult{Session: session, Reward: outcome}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"user_id":    userID,
		"session_id": sessionID,
		"exp":        result.Reward.ExpGained,
		"gold":       result.Reward.GoldGained,
		"drop":       result.Reward.Drop != nil,
	}).Debug("focus session completed")
	return &result, nil
}

// Cancel marks a pending session cancelled. No rewards are granted and the
// transition is terminal.
func (s *SessionService) Cancel(ctx context.Context, userID, sessionID uuid.UUID) (*models.FocusSession, error) {
	var session *models.FocusSession
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loaded, errLoad := s.loadPending(tx, userID, sessionID)
		if errLoad != nil {
			return errLoad
		}

		now := time.Now().UTC()
		loaded.Status = models.SessionCancelled
		loaded.CancelledAt = &now
		if errSave := tx.Save(loaded).Error; errSave != nil {
			return fmt.Errorf("lifeos: save session: %w", errSave)
		}
		session = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// Pending returns the user's pending session, or nil when none is open.
func (s *SessionService) Pending(ctx context.Context, userID uuid.UUID) (*models.FocusSession, error) {
	var session models.FocusSession
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.SessionPending).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lifeos: load pending: %w", err)
	}
	return &session, nil
}

// History returns the user's sessions newest first.
func (s *SessionService) History(ctx context.Context, userID uuid.UUID, limit int) ([]models.FocusSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.FocusSession
	err := s.db.WithContext(ctx).
		Preload("RewardCosmeticItem").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("lifeos: list sessions: %w", err)
	}
	return out, nil
}

// loadPending loads the owner's session and requires it to be pending.
func (s *SessionService) loadPending(tx *gorm.DB, userID, sessionID uuid.UUID) (*models.FocusSession, error) {
	var session models.FocusSession
	err := tx.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Wrap(domain.ErrNotFound, "session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("lifeos: load session: %w", err)
	}
	if session.Status != models.SessionPending {
		return nil, domain.Wrap(domain.ErrBadRequest, "session is not pending")
	}
	return &session, nil
}
