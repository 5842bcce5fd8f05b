package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/entrefine/lifeos/internal/config"
	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/entrefine/lifeos/internal/security"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// invitationTTL is how long an invitation stays redeemable.
const invitationTTL = 7 * 24 * time.Hour

// errInvitationExpired aborts the accept transaction; the EXPIRED status is
// written afterwards so the rollback cannot undo it.
var errInvitationExpired = errors.New("auth: invitation expired")

// InvitationMailer delivers invitation links. Delivery failures are logged,
// never surfaced to the inviter.
type InvitationMailer interface {
	SendInvitation(email, tenantName, link string)
}

// InvitationService manages tenant invitations end to end.
type InvitationService struct {
	db      *gorm.DB
	cfg     config.AuthConfig
	mailer  InvitationMailer
	baseURL string
}

// NewInvitationService constructs an InvitationService.
func NewInvitationService(db *gorm.DB, cfg config.AuthConfig, mailer InvitationMailer, frontendBaseURL string) *InvitationService {
	return &InvitationService{db: db, cfg: cfg, mailer: mailer, baseURL: frontendBaseURL}
}

// InvitationPublic is the invitation DTO for tenant admins.
type InvitationPublic struct {
	ID        uuid.UUID               `json:"id"`
	Email     string                  `json:"email"`
	Role      models.UserTenantRole   `json:"role"`
	Status    models.InvitationStatus `json:"status"`
	ExpiresAt time.Time               `json:"expires_at"`
	CreatedAt time.Time               `json:"created_at"`
}

// Create issues an invitation to join the context tenant. Requires ADMIN.
// At most one pending invitation may exist per (tenant, email); existing
// members cannot be re-invited.
func (s *InvitationService) Create(ctx context.Context, tc *TenantContext, inviterID uuid.UUID, email string, role models.UserTenantRole) (*InvitationPublic, error) {
	if err := RequireRole(tc, models.RoleAdmin); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.Wrap(domain.ErrBadRequest, "invalid email address")
	}
	if role == "" {
		role = models.RoleMember
	}
	if role == models.RoleOwner {
		return nil, domain.Wrap(domain.ErrBadRequest, "cannot invite as owner")
	}

	var out *InvitationPublic
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var member int64
		if errCount := tx.Model(&models.UserTenant{}).
			Joins("JOIN users ON users.id = user_tenants.user_id").
			Where("user_tenants.tenant_id = ? AND users.email = ?", tc.TenantID, email).
			Count(&member).Error; errCount != nil {
			return fmt.Errorf("auth: check membership: %w", errCount)
		}
		if member > 0 {
			return domain.Wrap(domain.ErrConflict, "user is already a member")
		}

		var pending int64
		if errCount := tx.Model(&models.Invitation{}).
			Where("tenant_id = ? AND email = ? AND status = ?", tc.TenantID, email, models.InvitationPending).
			Count(&pending).Error; errCount != nil {
			return fmt.Errorf("auth: check pending invitation: %w", errCount)
		}
		if pending > 0 {
			return domain.Wrap(domain.ErrConflict, "invitation already pending")
		}

		inv := models.Invitation{
			ID:              uuid.New(),
			Email:           email,
			TenantID:        tc.TenantID,
			Role:            role,
			InvitedByUserID: &inviterID,
			Status:          models.InvitationPending,
			ExpiresAt:       time.Now().UTC().Add(invitationTTL),
		}
		token, errSign := security.SignInvitationToken(s.cfg.Secret, inv.ID, invitationTTL)
		if errSign != nil {
			return errSign
		}
		inv.Token = token

		if errCreate := tx.Create(&inv).Error; errCreate != nil {
			return fmt.Errorf("auth: create invitation: %w", errCreate)
		}

		var tenant models.Tenant
		if errLoad := tx.First(&tenant, "id = ?", tc.TenantID).Error; errLoad != nil {
			return fmt.Errorf("auth: load tenant: %w", errLoad)
		}
		if s.mailer != nil {
			s.mailer.SendInvitation(email, tenant.Name, fmt.Sprintf("%s/invitations/accept?token=%s", s.baseURL, token))
		}

		out = publicInvitation(&inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"tenant_id": tc.TenantID, "email": email}).Info("invitation created")
	return out, nil
}

// List returns the context tenant's invitations, newest first. Requires ADMIN.
func (s *InvitationService) List(ctx context.Context, tc *TenantContext) ([]InvitationPublic, error) {
	if err := RequireRole(tc, models.RoleAdmin); err != nil {
		return nil, err
	}

	var rows []models.Invitation
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tc.TenantID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("auth: list invitations: %w", err)
	}

	out := make([]InvitationPublic, 0, len(rows))
	for i := range rows {
		out = append(out, *publicInvitation(&rows[i]))
	}
	return out, nil
}

// Accept redeems an invitation token for the authenticated user. The token
// must verify, the invitation must still be pending and unexpired, and the
// user's email must match the invitee address.
func (s *InvitationService) Accept(ctx context.Context, userID uuid.UUID, token string) (*TenantPublic, error) {
	invID, err := security.ParseInvitationToken(s.cfg.Secret, token)
	if err != nil {
		return nil, domain.Wrap(domain.ErrBadRequest, "invalid invitation token")
	}

	var out *TenantPublic
	errTx := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invitation
		errLoad := tx.Preload("Tenant").First(&inv, "id = ?", invID).Error
		if errors.Is(errLoad, gorm.ErrRecordNotFound) {
			return domain.Wrap(domain.ErrNotFound, "invitation not found")
		}
		if errLoad != nil {
			return fmt.Errorf("auth: load invitation: %w", errLoad)
		}

		if inv.Status != models.InvitationPending {
			return domain.Wrap(domain.ErrBadRequest, "invitation is no longer pending")
		}
		if time.Now().UTC().After(inv.ExpiresAt) {
			return errInvitationExpired
		}

		var user models.User
		if errUser := tx.First(&user, "id = ?", userID).Error; errUser != nil {
			return fmt.Errorf("auth: load user: %w", errUser)
		}
		if NormalizeEmail(user.Email) != inv.Email {
			return domain.Wrap(domain.ErrForbidden, "invitation was issued to a different email")
		}

		var member int64
		if errCount := tx.Model(&models.UserTenant{}).
			Where("user_id = ? AND tenant_id = ?", userID, inv.TenantID).
			Count(&member).Error; errCount != nil {
			return fmt.Errorf("auth: check membership: %w", errCount)
		}
		if member == 0 {
			var memberships int64
			if errAll := tx.Model(&models.UserTenant{}).Where("user_id = ?", userID).Count(&memberships).Error; errAll != nil {
				return fmt.Errorf("auth: count memberships: %w", errAll)
			}
			m := models.UserTenant{
				UserID:    userID,
				TenantID:  inv.TenantID,
				Role:      inv.Role,
				IsDefault: memberships == 0,
			}
			if errCreate := tx.Create(&m).Error; errCreate != nil {
				return fmt.Errorf("auth: create membership: %w", errCreate)
			}
		}

		if errMark := tx.Model(&models.Invitation{}).
			Where("id = ?", inv.ID).
			Update("status", models.InvitationAccepted).Error; errMark != nil {
			return fmt.Errorf("auth: accept invitation: %w", errMark)
		}

		if inv.Tenant != nil {
			out = &TenantPublic{
				ID:   inv.Tenant.ID,
				Name: inv.Tenant.Name,
				Slug: inv.Tenant.Slug,
				Role: inv.Role,
			}
		}
		return nil
	})
	if errors.Is(errTx, errInvitationExpired) {
		if errMark := s.db.WithContext(ctx).Model(&models.Invitation{}).
			Where("id = ? AND status = ?", invID, models.InvitationPending).
			Update("status", models.InvitationExpired).Error; errMark != nil {
			return nil, fmt.Errorf("auth: expire invitation: %w", errMark)
		}
		return nil, domain.Wrap(domain.ErrBadRequest, "invitation has expired")
	}
	if errTx != nil {
		return nil, errTx
	}
	return out, nil
}

// Revoke withdraws a pending invitation. Requires ADMIN; only pending
// invitations can be revoked.
func (s *InvitationService) Revoke(ctx context.Context, tc *TenantContext, invitationID uuid.UUID) error {
	if err := RequireRole(tc, models.RoleAdmin); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invitation
		err := tx.Where("id = ? AND tenant_id = ?", invitationID, tc.TenantID).First(&inv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Wrap(domain.ErrNotFound, "invitation not found")
		}
		if err != nil {
			return fmt.Errorf("auth: load invitation: %w", err)
		}
		if inv.Status != models.InvitationPending {
			return domain.Wrap(domain.ErrBadRequest, "only pending invitations can be revoked")
		}

		if errMark := tx.Model(&models.Invitation{}).
			Where("id = ?", inv.ID).
			Update("status", models.InvitationRevoked).Error; errMark != nil {
			return fmt.Errorf("auth: revoke invitation: %w", errMark)
		}
		return nil
	})
}

func publicInvitation(inv *models.Invitation) *InvitationPublic {
	return &InvitationPublic{
		ID:        inv.ID,
		Email:     inv.Email,
		Role:      inv.Role,
		Status:    inv.Status,
		ExpiresAt: inv.ExpiresAt,
		CreatedAt: inv.CreatedAt,
	}
}
