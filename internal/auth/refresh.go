package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/entrefine/lifeos/internal/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionMeta captures client attribution recorded with each session.
type SessionMeta struct {
	UserAgent string
	IP        string
}

// RefreshService issues, rotates, and revokes refresh sessions. Raw tokens
// exist only in transit; the store holds SHA-256 hashes.
type RefreshService struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewRefreshService constructs a RefreshService with the given session TTL.
func NewRefreshService(db *gorm.DB, ttl time.Duration) *RefreshService {
	return &RefreshService{db: db, ttl: ttl}
}

// Create issues a new refresh session and returns the raw token alongside it.
func (s *RefreshService) Create(ctx context.Context, userID uuid.UUID, defaultTenantID *uuid.UUID, meta SessionMeta) (string, *models.RefreshSession, error) {
	raw, err := security.GenerateRefreshToken()
	if err != nil {
		return "", nil, err
	}

	session := models.RefreshSession{
		UserID:          userID,
		DefaultTenantID: defaultTenantID,
		TokenHash:       security.HashToken(raw),
		UserAgent:       meta.UserAgent,
		IP:              meta.IP,
		ExpiresAt:       time.Now().UTC().Add(s.ttl),
	}
	if errCreate := s.db.WithContext(ctx).Create(&session).Error; errCreate != nil {
		return "", nil, fmt.Errorf("auth: create refresh session: %w", errCreate)
	}
	return raw, &session, nil
}

// GetActive resolves a raw token to its active session. Missing, expired, and
// revoked tokens all surface as ErrRefreshTokenNotFound.
func (s *RefreshService) GetActive(ctx context.Context, rawToken string) (*models.RefreshSession, error) {
	return getActiveSession(s.db.WithContext(ctx), rawToken)
}

func getActiveSession(tx *gorm.DB, rawToken string) (*models.RefreshSession, error) {
	var session models.RefreshSession
	err := tx.Where("token_hash = ?", security.HashToken(rawToken)).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load refresh session: %w", err)
	}
	if !session.Active(time.Now().UTC()) {
		return nil, domain.ErrRefreshTokenNotFound
	}
	return &session, nil
}

// Rotate revokes the session behind rawToken and issues a successor carrying
// the same tenant context. The old row is locked for the transaction, so two
// concurrent rotations of one token produce exactly one successor; the loser
// observes the revocation and gets ErrRefreshTokenNotFound.
func (s *RefreshService) Rotate(ctx context.Context, rawToken string, meta SessionMeta) (string, *models.RefreshSession, error) {
	var (
		newRaw     string
		newSession *models.RefreshSession
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked := tx.Clauses(clause.Locking{Strength: "UPDATE"})
		old, errGet := getActiveSession(locked, rawToken)
		if errGet != nil {
			return errGet
		}

		now := time.Now().UTC()
		if errRevoke := tx.Model(&models.RefreshSession{}).
			Where("id = ? AND revoked_at IS NULL", old.ID).
			Update("revoked_at", now).Error; errRevoke != nil {
			return fmt.Errorf("auth: revoke rotated session: %w", errRevoke)
		}

		raw, errGen := security.GenerateRefreshToken()
		if errGen != nil {
			return errGen
		}
		next := models.RefreshSession{
			UserID:          old.UserID,
			DefaultTenantID: old.DefaultTenantID,
			TokenHash:       security.HashToken(raw),
			UserAgent:       meta.UserAgent,
			IP:              meta.IP,
			ExpiresAt:       now.Add(s.ttl),
			RotatedFromID:   &old.ID,
		}
		if errCreate := tx.Create(&next).Error; errCreate != nil {
			return fmt.Errorf("auth: create rotated session: %w", errCreate)
		}
		newRaw = raw
		newSession = &next
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return newRaw, newSession, nil
}

// Revoke revokes the single session behind rawToken. Unknown or already
// revoked tokens are a no-op so logout stays idempotent.
func (s *RefreshService) Revoke(ctx context.Context, rawToken string) error {
	err := s.db.WithContext(ctx).Model(&models.RefreshSession{}).
		Where("token_hash = ? AND revoked_at IS NULL", security.HashToken(rawToken)).
		Update("revoked_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("auth: revoke session: %w", err)
	}
	return nil
}

// RevokeAll revokes every active session of a user except the listed ones.
// Password change passes the current session so the device stays signed in;
// logout-everywhere passes none. Returns how many sessions were revoked.
func (s *RefreshService) RevokeAll(ctx context.Context, userID uuid.UUID, exclude ...uuid.UUID) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.RefreshSession{}).
		Where("user_id = ? AND revoked_at IS NULL", userID)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	res := q.Update("revoked_at", time.Now().UTC())
	if res.Error != nil {
		return 0, fmt.Errorf("auth: revoke all sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteExpired removes sessions whose expiry passed before the cutoff.
// Revocation markers inside the retention window stay queryable for audit.
func (s *RefreshService) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", cutoff.UTC()).
		Delete(&models.RefreshSession{})
	if res.Error != nil {
		return 0, fmt.Errorf("auth: delete expired sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateDefaultTenant repoints the tenant context carried by a session.
func (s *RefreshService) UpdateDefaultTenant(ctx context.Context, sessionID uuid.UUID, tenantID *uuid.UUID) error {
	err := s.db.WithContext(ctx).Model(&models.RefreshSession{}).
		Where("id = ?", sessionID).
		Update("default_tenant_id", tenantID).Error
	if err != nil {
		return fmt.Errorf("auth: update session tenant: %w", err)
	}
	return nil
}
