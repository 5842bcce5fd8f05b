package badges

import (
	"context"
	"fmt"
	"time"

	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Metrics carries the counters a badge evaluation can observe. Nil fields
// are treated as unknown and skip the rules watching them, so callers only
// pay for the counters they already have in hand.
type Metrics struct {
	StreakDays      *int
	CompletionCount *int
	TimeMinutes     *int
}

// AwardedBadge pairs a catalog badge with the bonus XP its award grants.
type AwardedBadge struct {
	Badge   models.Badge
	BonusXP int
}

// UserBadgePublic is the owned-badge DTO returned to clients.
type UserBadgePublic struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon,omitempty"`
	BaseXP      int       `json:"base_xp"`
	AwardedAt   time.Time `json:"awarded_at"`
}

// Service evaluates badge rules and maintains the badge catalog.
type Service struct {
	db *gorm.DB
}

// NewService constructs a badge Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListBadges returns the full catalog, seeding any rules that are missing.
func (s *Service) ListBadges(ctx context.Context) ([]models.Badge, error) {
	conn := s.db.WithContext(ctx)
	if err := ensureSeeded(conn); err != nil {
		return nil, err
	}
	var catalog []models.Badge
	if err := conn.Order("slug").Find(&catalog).Error; err != nil {
		return nil, fmt.Errorf("badges: list catalog: %w", err)
	}
	return catalog, nil
}

// ListUserBadges returns the badges a user has earned, newest first.
func (s *Service) ListUserBadges(ctx context.Context, userID uuid.UUID) ([]UserBadgePublic, error) {
	var owned []models.UserBadge
	if err := s.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("awarded_at DESC").
		Find(&owned).Error; err != nil {
		return nil, fmt.Errorf("badges: list user badges: %w", err)
	}

	out := make([]UserBadgePublic, 0, len(owned))
	for _, ub := range owned {
		if ub.Badge == nil {
			continue
		}
		out = append(out, UserBadgePublic{
			Slug:        ub.Badge.Slug,
			Name:        ub.Badge.Name,
			Description: ub.Badge.Description,
			Icon:        ub.Badge.Icon,
			BaseXP:      ub.Badge.BaseXP,
			AwardedAt:   ub.AwardedAt,
		})
	}
	return out, nil
}

// Evaluate checks every rule against the supplied metrics and awards the
// badges whose thresholds are met and not yet held. It runs on the caller's
// transaction so awards commit or roll back with the triggering activity.
// Awarding is idempotent: a held badge is never granted twice, and a single
// call crossing several thresholds at once awards all of them.
func Evaluate(tx *gorm.DB, userID uuid.UUID, m Metrics) ([]AwardedBadge, error) {
	if err := ensureSeeded(tx); err != nil {
		return nil, err
	}

	var awarded []AwardedBadge
	for _, rule := range Rules {
		value, known := metricFor(rule.Category, m)
		if !known || value < rule.Threshold {
			continue
		}
		badge, fresh, err := awardIfNeeded(tx, userID, rule.Slug)
		if err != nil {
			return nil, err
		}
		if fresh {
			awarded = append(awarded, AwardedBadge{Badge: *badge, BonusXP: badge.BaseXP})
		}
	}
	return awarded, nil
}

// metricFor selects the counter a category watches. The match is exhaustive
// over the Category set; an unrecognized category awards nothing.
func metricFor(c Category, m Metrics) (int, bool) {
	switch c {
	case CategoryStreak:
		if m.StreakDays != nil {
			return *m.StreakDays, true
		}
	case CategoryCompletion:
		if m.CompletionCount != nil {
			return *m.CompletionCount, true
		}
	case CategoryTime:
		if m.TimeMinutes != nil {
			return *m.TimeMinutes, true
		}
	}
	return 0, false
}

// awardIfNeeded grants the badge unless the user already holds it. The
// unique (user_id, badge_id) key absorbs a concurrent double-award.
func awardIfNeeded(tx *gorm.DB, userID uuid.UUID, slug string) (*models.Badge, bool, error) {
	var badge models.Badge
	if err := tx.Where("slug = ?", slug).First(&badge).Error; err != nil {
		return nil, false, fmt.Errorf("badges: load %s: %w", slug, err)
	}

	var held int64
	if err := tx.Model(&models.UserBadge{}).
		Where("user_id = ? AND badge_id = ?", userID, badge.ID).
		Count(&held).Error; err != nil {
		return nil, false, fmt.Errorf("badges: check %s: %w", slug, err)
	}
	if held > 0 {
		return &badge, false, nil
	}

	grant := models.UserBadge{UserID: userID, BadgeID: badge.ID, AwardedAt: time.Now().UTC()}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant)
	if res.Error != nil {
		return nil, false, fmt.Errorf("badges: award %s: %w", slug, res.Error)
	}
	return &badge, res.RowsAffected > 0, nil
}

// ensureSeeded inserts any catalog rows the rule table defines that are
// missing from the database. Existing rows are left untouched.
func ensureSeeded(tx *gorm.DB) error {
	slugs := make([]string, 0, len(Rules))
	for _, r := range Rules {
		slugs = append(slugs, r.Slug)
	}

	var existing []models.Badge
	if err := tx.Where("slug IN ?", slugs).Find(&existing).Error; err != nil {
		return fmt.Errorf("badges: load seeded: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, b := range existing {
		present[b.Slug] = true
	}

	for _, r := range Rules {
		if present[r.Slug] {
			continue
		}
		row := models.Badge{
			Slug:        r.Slug,
			Name:        r.Name,
			Description: r.Description,
			Icon:        r.Icon,
			BaseXP:      r.BaseXP,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return fmt.Errorf("badges: seed %s: %w", r.Slug, err)
		}
	}
	return nil
}
