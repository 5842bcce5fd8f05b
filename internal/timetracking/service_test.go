package timetracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/entrefine/lifeos/internal/db"
	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/entrefine/lifeos/internal/tracks"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedNode(t *testing.T, conn *gorm.DB, userID uuid.UUID) uuid.UUID {
	t.Helper()
	track, err := tracks.NewService(conn).Create(context.Background(), userID, tracks.CreateInput{Name: "Focus"})
	if err != nil {
		t.Fatalf("create track: %v", err)
	}
	node := models.Node{TrackID: track.ID, Type: models.NodeTypeFocusSession, Title: "Practice"}
	if err := conn.Create(&node).Error; err != nil {
		t.Fatalf("create node: %v", err)
	}
	return node.ID
}

func TestStartStop(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	userID := uuid.New()
	nodeID := seedNode(t, conn, userID)

	entry, err := svc.Start(context.Background(), userID, nodeID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if entry.EndedAt != nil {
		t.Fatal("fresh entry must be open")
	}

	running, err := svc.Running(context.Background(), userID)
	if err != nil {
		t.Fatalf("running: %v", err)
	}
	if running == nil || running.ID != entry.ID {
		t.Fatalf("expected running entry %s, got %+v", entry.ID, running)
	}

	stopped, _, err := svc.Stop(context.Background(), userID)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if stopped.EndedAt == nil {
		t.Fatal("stopped entry must have an end time")
	}

	if after, _ := svc.Running(context.Background(), userID); after != nil {
		t.Fatalf("expected no running entry, got %+v", after)
	}
}

func TestStart_ConflictWhileRunning(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	userID := uuid.New()
	nodeID := seedNode(t, conn, userID)
	otherNode := seedNode(t, conn, userID)

	if _, err := svc.Start(context.Background(), userID, nodeID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Start(context.Background(), userID, otherNode); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestStop_NoRunningTimer(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)

	if _, _, err := svc.Stop(context.Background(), uuid.New()); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestAddManual_DurationGenerated(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	userID := uuid.New()
	nodeID := seedNode(t, conn, userID)

	end := time.Now().UTC().Add(-time.Hour)
	start := end.Add(-50 * time.Minute)
	entry, _, err := svc.AddManual(context.Background(), userID, nodeID, start, end)
	if err != nil {
		t.Fatalf("add manual: %v", err)
	}
	if entry.DurationMin == nil || *entry.DurationMin != 50 {
		t.Fatalf("expected 50 generated minutes, got %v", entry.DurationMin)
	}

	total, err := svc.TotalMinutes(context.Background(), userID)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 50 {
		t.Fatalf("expected 50 total minutes, got %d", total)
	}
}

func TestAddManual_Validation(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	userID := uuid.New()
	nodeID := seedNode(t, conn, userID)
	now := time.Now().UTC()

	if _, _, err := svc.AddManual(context.Background(), userID, nodeID, now, now); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for zero span, got %v", err)
	}
	if _, _, err := svc.AddManual(context.Background(), userID, nodeID, now.Add(-30*time.Hour), now); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for >24h span, got %v", err)
	}
	if _, _, err := svc.AddManual(context.Background(), userID, nodeID, now, now.Add(2*time.Hour)); !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for future end, got %v", err)
	}
}

func TestAddManual_TimeBadgeAwarded(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	userID := uuid.New()
	nodeID := seedNode(t, conn, userID)

	end := time.Now().UTC().Add(-time.Hour)
	_, awarded, err := svc.AddManual(context.Background(), userID, nodeID, end.Add(-120*time.Minute), end)
	if err != nil {
		t.Fatalf("add manual: %v", err)
	}
	found := false
	for _, a := range awarded {
		if a.Badge.Slug == "time_100" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected time_100 award, got %+v", awarded)
	}

	var stats models.UserStats
	if err := conn.First(&stats, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("load stats: %v", err)
	}
	if stats.XPTotal != 50 {
		t.Fatalf("expected 50 bonus xp credited, got %d", stats.XPTotal)
	}
}

func TestSummary_GroupsByNode(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	userID := uuid.New()
	nodeA := seedNode(t, conn, userID)
	nodeB := seedNode(t, conn, userID)

	end := time.Now().UTC().Add(-time.Hour)
	if _, _, err := svc.AddManual(context.Background(), userID, nodeA, end.Add(-30*time.Minute), end); err != nil {
		t.Fatalf("manual a1: %v", err)
	}
	if _, _, err := svc.AddManual(context.Background(), userID, nodeA, end.Add(-90*time.Minute), end.Add(-60*time.Minute)); err != nil {
		t.Fatalf("manual a2: %v", err)
	}
	if _, _, err := svc.AddManual(context.Background(), userID, nodeB, end.Add(-10*time.Minute), end); err != nil {
		t.Fatalf("manual b: %v", err)
	}

	summary, err := svc.Summary(context.Background(), userID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(summary))
	}
	if summary[0].NodeID != nodeA || summary[0].TotalMinutes != 60 || summary[0].EntryCount != 2 {
		t.Fatalf("unexpected first row: %+v", summary[0])
	}
	if summary[1].NodeID != nodeB || summary[1].TotalMinutes != 10 {
		t.Fatalf("unexpected second row: %+v", summary[1])
	}
}
