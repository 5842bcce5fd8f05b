package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
)

func TestRefreshService_CreateAndGetActive(t *testing.T) {
	conn := openTestDB(t)
	svc := NewRefreshService(conn, time.Hour)
	userID := uuid.New()

	raw, session, err := svc.Create(context.Background(), userID, nil, SessionMeta{UserAgent: "ua", IP: "127.0.0.1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if raw == "" {
		t.Fatal("expected a raw token")
	}
	if session.TokenHash == raw {
		t.Fatal("raw token must not be stored verbatim")
	}

	got, err := svc.GetActive(context.Background(), raw)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if got.ID != session.ID || got.UserID != userID {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestRefreshService_GetActive_UnknownToken(t *testing.T) {
	conn := openTestDB(t)
	svc := NewRefreshService(conn, time.Hour)

	if _, err := svc.GetActive(context.Background(), "no-such-token"); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		t.Fatalf("expected ErrRefreshTokenNotFound, got %v", err)
	}
}

func TestRefreshService_GetActive_Expired(t *testing.T) {
	conn := openTestDB(t)
	svc := NewRefreshService(conn, -time.Minute)

	raw, _, err := svc.Create(context.Background(), uuid.New(), nil, SessionMeta{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.GetActive(context.Background(), raw); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		t.Fatalf("expected ErrRefreshTokenNotFound for expired token, got %v", err)
	}
}

func TestRefreshService_Rotate(t *testing.T) {
	conn := openTestDB(t)
	svc := NewRefreshService(conn, time.Hour)
	userID := uuid.New()
	tenantID := uuid.New()

	oldRaw, oldSession, err := svc.Create(context.Background(), userID, &tenantID, SessionMeta{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newRaw, newSession, err := svc.Rotate(context.Background(), oldRaw, SessionMeta{UserAgent: "new-ua"})
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if newRaw == oldRaw {
		t.Fatal("rotation must issue a different token")
	}
	if newSession.RotatedFromID == nil || *newSession.RotatedFromID != oldSession.ID {
		t.Fatalf("expected rotation link to %s, got %v", oldSession.ID, newSession.RotatedFromID)
	}
	if newSession.DefaultTenantID == nil || *newSession.DefaultTenantID != tenantID {
		t.Fatal("tenant context must carry over on rotation")
	}

	if _, err := svc.GetActive(context.Background(), oldRaw); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		t.Fatalf("expected rotated-out token to be dead, got %v", err)
	}
	if _, err := svc.GetActive(context.Background(), newRaw); err != nil {
		t.Fatalf("expected successor token to work: %v", err)
	}

	if _, _, err := svc.Rotate(context.Background(), oldRaw, SessionMeta{}); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		t.Fatalf("expected second rotation of the same token to fail, got %v", err)
	}
}

func TestRefreshService_RevokeAll(t *testing.T) {
	conn := openTestDB(t)
	svc := NewRefreshService(conn, time.Hour)
	userID := uuid.New()

	raw1, _, _ := svc.Create(context.Background(), userID, nil, SessionMeta{})
	raw2, _, _ := svc.Create(context.Background(), userID, nil, SessionMeta{})
	otherRaw, _, _ := svc.Create(context.Background(), uuid.New(), nil, SessionMeta{})

	revoked, err := svc.RevokeAll(context.Background(), userID)
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if revoked != 2 {
		t.Fatalf("expected 2 revocations, got %d", revoked)
	}
	for _, raw := range []string{raw1, raw2} {
		if _, err := svc.GetActive(context.Background(), raw); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
			t.Fatalf("expected revoked token to be dead, got %v", err)
		}
	}
	if _, err := svc.GetActive(context.Background(), otherRaw); err != nil {
		t.Fatalf("other user's session must survive: %v", err)
	}
}

func TestRefreshService_RevokeAll_Exclusions(t *testing.T) {
	conn := openTestDB(t)
	svc := NewRefreshService(conn, time.Hour)
	userID := uuid.New()

	keepRaw, keepSession, _ := svc.Create(context.Background(), userID, nil, SessionMeta{})
	dropRaw, _, _ := svc.Create(context.Background(), userID, nil, SessionMeta{})

	revoked, err := svc.RevokeAll(context.Background(), userID, keepSession.ID)
	if err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if revoked != 1 {
		t.Fatalf("expected 1 revocation, got %d", revoked)
	}
	if _, err := svc.GetActive(context.Background(), keepRaw); err != nil {
		t.Fatalf("excluded session must survive: %v", err)
	}
	if _, err := svc.GetActive(context.Background(), dropRaw); !errors.Is(err, domain.ErrRefreshTokenNotFound) {
		t.Fatalf("expected non-excluded token to be dead, got %v", err)
	}
}

func TestRefreshService_DeleteExpired(t *testing.T) {
	conn := openTestDB(t)
	svc := NewRefreshService(conn, -time.Hour)
	if _, _, err := svc.Create(context.Background(), uuid.New(), nil, SessionMeta{}); err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := svc.DeleteExpired(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deletion, got %d", deleted)
	}

	var remaining int64
	if err := conn.Model(&models.RefreshSession{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected empty table, got %d rows", remaining)
	}
}
