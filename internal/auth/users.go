package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/entrefine/lifeos/internal/config"
	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/entrefine/lifeos/internal/security"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// passwordResetTTL bounds how long an emailed reset link stays valid.
const passwordResetTTL = time.Hour

// ResetMailer delivers password reset links. Delivery failures are logged,
// never surfaced to the requester.
type ResetMailer interface {
	SendPasswordReset(email, link string)
}

// UserService implements account registration, login, and credential changes.
type UserService struct {
	db       *gorm.DB
	cfg      config.AuthConfig
	sessions *RefreshService
	mailer   ResetMailer
	baseURL  string
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, cfg config.AuthConfig, sessions *RefreshService, mailer ResetMailer, frontendBaseURL string) *UserService {
	return &UserService{db: db, cfg: cfg, sessions: sessions, mailer: mailer, baseURL: frontendBaseURL}
}

// TokenPair carries a signed access token and a raw refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Session      *models.RefreshSession
}

// Register creates a new account. Email uniqueness is case-insensitive; the
// address is stored lowercased.
func (s *UserService) Register(ctx context.Context, email, password, fullName string) (*models.User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Wrap(domain.ErrBadRequest, "invalid email address")
	}
	if len(password) < 8 {
		return nil, domain.Wrap(domain.ErrBadRequest, "password must be at least 8 characters")
	}

	conn := s.db.WithContext(ctx)
	var existing int64
	if err := conn.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("auth: check email: %w", err)
	}
	if existing > 0 {
		return nil, domain.Wrap(domain.ErrConflict, "email already registered")
	}

	hashed, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := models.User{
		Email:          email,
		HashedPassword: hashed,
		FullName:       strings.TrimSpace(fullName),
		IsActive:       true,
	}
	if errCreate := conn.Create(&user).Error; errCreate != nil {
		return nil, fmt.Errorf("auth: create user: %w", errCreate)
	}

	log.WithFields(log.Fields{"user_id": user.ID, "email": user.Email}).Info("user registered")
	return &user, nil
}

// Login verifies credentials and issues a token pair. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string, meta SessionMeta) (*models.User, *TokenPair, error) {
	conn := s.db.WithContext(ctx)

	var user models.User
	err := conn.Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, fmt.Errorf("auth: load user: %w", err)
	}
	if !security.CheckPassword(user.HashedPassword, password) {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, domain.Wrap(domain.ErrForbidden, "account disabled")
	}

	pair, err := s.IssueTokens(ctx, &user, s.defaultTenantID(conn, user.ID), meta)
	if err != nil {
		return nil, nil, err
	}
	return &user, pair, nil
}

// IssueTokens mints an access token and a fresh refresh session for a user.
func (s *UserService) IssueTokens(ctx context.Context, user *models.User, defaultTenantID *uuid.UUID, meta SessionMeta) (*TokenPair, error) {
	access, err := security.SignAccessToken(s.cfg.Secret, user.ID, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, err
	}
	raw, session, err := s.sessions.Create(ctx, user.ID, defaultTenantID, meta)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: raw, Session: session}, nil
}

// Refresh rotates a refresh session and mints a new access token.
func (s *UserService) Refresh(ctx context.Context, rawToken string, meta SessionMeta) (*models.User, *TokenPair, error) {
	raw, session, err := s.sessions.Rotate(ctx, rawToken, meta)
	if err != nil {
		return nil, nil, err
	}

	var user models.User
	if errLoad := s.db.WithContext(ctx).First(&user, "id = ?", session.UserID).Error; errLoad != nil {
		return nil, nil, fmt.Errorf("auth: load session user: %w", errLoad)
	}
	if !user.IsActive {
		return nil, nil, domain.Wrap(domain.ErrForbidden, "account disabled")
	}

	access, errSign := security.SignAccessToken(s.cfg.Secret, user.ID, s.cfg.AccessTokenTTL)
	if errSign != nil {
		return nil, nil, errSign
	}
	return &user, &TokenPair{AccessToken: access, RefreshToken: raw, Session: session}, nil
}

// GetUser loads one user by id.
func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Wrap(domain.ErrNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load user: %w", err)
	}
	return &user, nil
}

// ProfileUpdate carries the mutable profile fields; nil means keep.
type ProfileUpdate struct {
	FullName       *string
	ProfilePicture *string
}

// UpdateProfile applies a partial profile update and returns the fresh row.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd ProfileUpdate) (*models.User, error) {
	changes := map[string]any{}
	if upd.FullName != nil {
		changes["full_name"] = strings.TrimSpace(*upd.FullName)
	}
	if upd.ProfilePicture != nil {
		changes["profile_picture"] = strings.TrimSpace(*upd.ProfilePicture)
	}
	if len(changes) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(changes)
		if res.Error != nil {
			return nil, fmt.Errorf("auth: update profile: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.Wrap(domain.ErrNotFound, "user not found")
		}
	}
	return s.GetUser(ctx, userID)
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes every refresh session so other devices must log in again. Session
// IDs in keep survive the sweep; the handler passes the caller's own session
// so the current device stays signed in.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string, keep ...uuid.UUID) error {
	if len(next) < 8 {
		return domain.Wrap(domain.ErrBadRequest, "password must be at least 8 characters")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !security.CheckPassword(user.HashedPassword, current) {
		return domain.ErrInvalidCredentials
	}

	hashed, err := security.HashPassword(next)
	if err != nil {
		return err
	}
	if errSave := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("hashed_password", hashed).Error; errSave != nil {
		return fmt.Errorf("auth: store password: %w", errSave)
	}

	revoked, err := s.sessions.RevokeAll(ctx, userID, keep...)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"user_id": userID, "sessions_revoked": revoked}).Info("password changed")
	return nil
}

// RequestPasswordReset emails a reset link when the address is registered.
// The response is identical either way so the endpoint cannot be used to
// enumerate accounts.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("auth: load user for reset: %w", err)
	}

	token, err := security.SignPasswordResetToken(s.cfg.Secret, user.ID, passwordResetTTL)
	if err != nil {
		return err
	}
	if s.mailer != nil {
		s.mailer.SendPasswordReset(user.Email, fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token))
	}
	return nil
}

// ResetPassword redeems a reset token, stores the new hash, and revokes all
// refresh sessions.
func (s *UserService) ResetPassword(ctx context.Context, token, next string) error {
	if len(next) < 8 {
		return domain.Wrap(domain.ErrBadRequest, "password must be at least 8 characters")
	}
	userID, err := security.ParsePasswordResetToken(s.cfg.Secret, token)
	if err != nil {
		return domain.Wrap(domain.ErrBadRequest, "invalid or expired reset token")
	}

	hashed, err := security.HashPassword(next)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("hashed_password", hashed)
	if res.Error != nil {
		return fmt.Errorf("auth: store password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Wrap(domain.ErrNotFound, "user not found")
	}

	if _, errRevoke := s.sessions.RevokeAll(ctx, userID); errRevoke != nil {
		return errRevoke
	}
	return nil
}

// defaultTenantID returns the tenant flagged default for a user, if any.
func (s *UserService) defaultTenantID(conn *gorm.DB, userID uuid.UUID) *uuid.UUID {
	var m models.UserTenant
	if err := conn.Where("user_id = ? AND is_default = ?", userID, true).First(&m).Error; err != nil {
		return nil
	}
	id := m.TenantID
	return &id
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
