package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type invFixture struct {
	conn     *gorm.DB
	svc      *InvitationService
	tenants  *TenantService
	ownerID  uuid.UUID
	tenantID uuid.UUID
	adminCtx *TenantContext
}

func newInvFixture(t *testing.T) *invFixture {
	t.Helper()
	conn := openTestDB(t)
	owner := createTestUser(t, conn, "owner@example.com", "ownerpass")
	tenants := NewTenantService(conn)
	created, err := tenants.Create(context.Background(), owner.ID, "Workspace", "")
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return &invFixture{
		conn:     conn,
		svc:      NewInvitationService(conn, testAuthConfig(), nil, "https://app.example.com"),
		tenants:  tenants,
		ownerID:  owner.ID,
		tenantID: created.ID,
		adminCtx: &TenantContext{TenantID: created.ID, Role: models.RoleOwner},
	}
}

func TestInvitationService_CreateAndList(t *testing.T) {
	f := newInvFixture(t)

	inv, err := f.svc.Create(context.Background(), f.adminCtx, f.ownerID, "Invitee@Example.com", models.RoleMember)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inv.Email != "invitee@example.com" || inv.Status != models.InvitationPending {
		t.Fatalf("unexpected invitation: %+v", inv)
	}
	if remaining := time.Until(inv.ExpiresAt); remaining < 6*24*time.Hour || remaining > 8*24*time.Hour {
		t.Fatalf("expected roughly 7-day expiry, got %v", remaining)
	}

	if _, err := f.svc.Create(context.Background(), f.adminCtx, f.ownerID, "invitee@example.com", models.RoleMember); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate pending, got %v", err)
	}

	list, err := f.svc.List(context.Background(), f.adminCtx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 invitation, got %d", len(list))
	}
}

func TestInvitationService_CreateRejectsMembersAndOwnersRole(t *testing.T) {
	f := newInvFixture(t)

	if _, err := f.svc.Create(context.Background(), f.adminCtx, f.ownerID, "owner@example.com", models.RoleMember); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict inviting a member, got %v", err)
	}
	if _, err := f.svc.Create(context.Background(), f.adminCtx, f.ownerID, "new@example.com", models.RoleOwner); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for owner role, got %v", err)
	}

	memberCtx := &TenantContext{TenantID: f.tenantID, Role: models.RoleMember}
	if _, err := f.svc.Create(context.Background(), memberCtx, f.ownerID, "new@example.com", models.RoleMember); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member caller, got %v", err)
	}
}

func TestInvitationService_Accept(t *testing.T) {
	f := newInvFixture(t)
	invitee := createTestUser(t, f.conn, "invitee@example.com", "password1")

	if _, err := f.svc.Create(context.Background(), f.adminCtx, f.ownerID, "invitee@example.com", models.RoleAdmin); err != nil {
		t.Fatalf("create: %v", err)
	}
	var stored models.Invitation
	if err := f.conn.Where("email = ?", "invitee@example.com").First(&stored).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}

	joined, err := f.svc.Accept(context.Background(), invitee.ID, stored.Token)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if joined.ID != f.tenantID || joined.Role != models.RoleAdmin {
		t.Fatalf("unexpected joined tenant: %+v", joined)
	}

	var m models.UserTenant
	if err := f.conn.Where("user_id = ? AND tenant_id = ?", invitee.ID, f.tenantID).First(&m).Error; err != nil {
		t.Fatalf("membership missing: %v", err)
	}
	if m.Role != models.RoleAdmin || !m.IsDefault {
		t.Fatalf("unexpected membership: %+v", m)
	}

	if _, err := f.svc.Accept(context.Background(), invitee.ID, stored.Token); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest on second accept, got %v", err)
	}
}

func TestInvitationService_AcceptWrongEmail(t *testing.T) {
	f := newInvFixture(t)
	outsider := createTestUser(t, f.conn, "outsider@example.com", "password1")

	if _, err := f.svc.Create(context.Background(), f.adminCtx, f.ownerID, "invitee@example.com", models.RoleMember); err != nil {
		t.Fatalf("create: %v", err)
	}
	var stored models.Invitation
	if err := f.conn.Where("email = ?", "invitee@example.com").First(&stored).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}

	if _, err := f.svc.Accept(context.Background(), outsider.ID, stored.Token); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestInvitationService_AcceptExpired(t *testing.T) {
	f := newInvFixture(t)
	invitee := createTestUser(t, f.conn, "late@example.com", "password1")

	if _, err := f.svc.Create(context.Background(), f.adminCtx, f.ownerID, "late@example.com", models.RoleMember); err != nil {
		t.Fatalf("create: %v", err)
	}
	var stored models.Invitation
	if err := f.conn.Where("email = ?", "late@example.com").First(&stored).Error; err != nil {
		t.Fatalf("load invitation: %v", err)
	}
	if err := f.conn.Model(&models.Invitation{}).
		Where("id = ?", stored.ID).
		Update("expires_at", time.Now().UTC().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate expiry: %v", err)
	}

	if _, err := f.svc.Accept(context.Background(), invitee.ID, stored.Token); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for expired invitation, got %v", err)
	}

	var after models.Invitation
	if err := f.conn.First(&after, "id = ?", stored.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if after.Status != models.InvitationExpired {
		t.Fatalf("expected EXPIRED status, got %s", after.Status)
	}

	// The transition is one-directional: a retry hits the status check.
	if _, err := f.svc.Accept(context.Background(), invitee.ID, stored.Token); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for non-pending invitation, got %v", err)
	}
}

func TestInvitationService_Revoke(t *testing.T) {
	f := newInvFixture(t)

	inv, err := f.svc.Create(context.Background(), f.adminCtx, f.ownerID, "revokee@example.com", models.RoleMember)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := f.svc.Revoke(context.Background(), f.adminCtx, inv.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := f.svc.Revoke(context.Background(), f.adminCtx, inv.ID); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest revoking non-pending, got %v", err)
	}
	if err := f.svc.Revoke(context.Background(), f.adminCtx, uuid.New()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
