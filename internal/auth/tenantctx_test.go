package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func addMembership(t *testing.T, conn *gorm.DB, userID uuid.UUID, role models.UserTenantRole, isDefault bool) uuid.UUID {
	t.Helper()
	tenant := models.Tenant{Name: "T", Slug: uuid.NewString()}
	if err := conn.Create(&tenant).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	m := models.UserTenant{UserID: userID, TenantID: tenant.ID, Role: role, IsDefault: isDefault}
	if err := conn.Create(&m).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}
	return tenant.ID
}

func TestResolve_ExplicitTenantWins(t *testing.T) {
	conn := openTestDB(t)
	r := NewTenantResolver(conn)
	userID := uuid.New()
	tenantA := addMembership(t, conn, userID, models.RoleOwner, true)
	tenantB := addMembership(t, conn, userID, models.RoleMember, false)

	tc, err := r.Resolve(context.Background(), userID, &tenantB, &tenantA)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.TenantID != tenantB || tc.Role != models.RoleMember {
		t.Fatalf("unexpected context: %+v", tc)
	}
}

func TestResolve_ExplicitNonMemberForbidden(t *testing.T) {
	conn := openTestDB(t)
	r := NewTenantResolver(conn)
	userID := uuid.New()
	addMembership(t, conn, userID, models.RoleOwner, true)
	foreign := uuid.New()

	if _, err := r.Resolve(context.Background(), userID, &foreign, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestResolve_SessionDefaultUsed(t *testing.T) {
	conn := openTestDB(t)
	r := NewTenantResolver(conn)
	userID := uuid.New()
	addMembership(t, conn, userID, models.RoleOwner, false)
	tenantB := addMembership(t, conn, userID, models.RoleAdmin, false)

	tc, err := r.Resolve(context.Background(), userID, nil, &tenantB)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.TenantID != tenantB || tc.Role != models.RoleAdmin {
		t.Fatalf("unexpected context: %+v", tc)
	}
}

func TestResolve_DefaultMembershipFallback(t *testing.T) {
	conn := openTestDB(t)
	r := NewTenantResolver(conn)
	userID := uuid.New()
	addMembership(t, conn, userID, models.RoleMember, false)
	tenantB := addMembership(t, conn, userID, models.RoleOwner, true)

	tc, err := r.Resolve(context.Background(), userID, nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.TenantID != tenantB {
		t.Fatalf("expected default membership tenant, got %+v", tc)
	}
}

func TestResolve_SingleMembershipFallback(t *testing.T) {
	conn := openTestDB(t)
	r := NewTenantResolver(conn)
	userID := uuid.New()
	only := addMembership(t, conn, userID, models.RoleMember, false)

	tc, err := r.Resolve(context.Background(), userID, nil, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tc.TenantID != only {
		t.Fatalf("expected only membership, got %+v", tc)
	}
}

func TestResolve_Ambiguous(t *testing.T) {
	conn := openTestDB(t)
	r := NewTenantResolver(conn)
	userID := uuid.New()
	addMembership(t, conn, userID, models.RoleMember, false)
	addMembership(t, conn, userID, models.RoleMember, false)

	if _, err := r.Resolve(context.Background(), userID, nil, nil); !errors.Is(err, domain.ErrAmbiguousTenantContext) {
		t.Fatalf("expected ErrAmbiguousTenantContext, got %v", err)
	}
}

func TestResolve_NoMemberships(t *testing.T) {
	conn := openTestDB(t)
	r := NewTenantResolver(conn)

	if _, err := r.Resolve(context.Background(), uuid.New(), nil, nil); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRoleAtLeast(t *testing.T) {
	if !RoleAtLeast(models.RoleOwner, models.RoleMember) {
		t.Fatal("owner must satisfy member")
	}
	if RoleAtLeast(models.RoleMember, models.RoleAdmin) {
		t.Fatal("member must not satisfy admin")
	}
	if RoleAtLeast(models.UserTenantRole("BOGUS"), models.RoleMember) {
		t.Fatal("unknown role must rank below member")
	}
}

func TestRequireRole(t *testing.T) {
	tc := &TenantContext{TenantID: uuid.New(), Role: models.RoleAdmin}
	if err := RequireRole(tc, models.RoleAdmin); err != nil {
		t.Fatalf("admin must satisfy admin: %v", err)
	}
	if err := RequireRole(tc, models.RoleOwner); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := RequireRole(nil, models.RoleMember); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for nil context, got %v", err)
	}
}
