package tracks

import (
	"context"
	"errors"
	"testing"

	"github.com/entrefine/lifeos/internal/domain"
	"github.com/entrefine/lifeos/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.Track{}, &models.Node{}, &models.HabitSchedule{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func strPtr(v string) *string { return &v }

func TestCreate_AppendsPosition(t *testing.T) {
	svc := NewService(openTestDB(t))
	userID := uuid.New()
	ctx := context.Background()

	first, err := svc.Create(ctx, userID, CreateInput{Name: "Health"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.Position != 0 {
		t.Fatalf("first position = %d", first.Position)
	}

	second, err := svc.Create(ctx, userID, CreateInput{Name: "Career"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.Position != 1 {
		t.Fatalf("second position = %d", second.Position)
	}
}

func TestCreate_RejectsBlankName(t *testing.T) {
	svc := NewService(openTestDB(t))

	_, err := svc.Create(context.Background(), uuid.New(), CreateInput{Name: "   "})
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestGet_ScopedToOwner(t *testing.T) {
	svc := NewService(openTestDB(t))
	ctx := context.Background()
	owner := uuid.New()

	track, err := svc.Create(ctx, owner, CreateInput{Name: "Health"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(ctx, uuid.New(), track.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other user, got %v", err)
	}
	if _, err := svc.Get(ctx, owner, track.ID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	svc := NewService(openTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	track, err := svc.Create(ctx, userID, CreateInput{Name: "Health", Color: "#ff0000"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, userID, track.ID, UpdateInput{Name: strPtr("Fitness")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Fitness" {
		t.Fatalf("name = %q", updated.Name)
	}
	if updated.Color != "#ff0000" {
		t.Fatalf("color changed to %q", updated.Color)
	}

	if _, err := svc.Update(ctx, userID, uuid.New(), UpdateInput{Name: strPtr("x")}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDelete_CascadesNodesAndSchedules(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	ctx := context.Background()
	userID := uuid.New()

	track, err := svc.Create(ctx, userID, CreateInput{Name: "Health"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	node := models.Node{TrackID: track.ID, Type: models.NodeTypeHabit, Title: "Stretch", BaseXP: 10}
	if err := conn.Create(&node).Error; err != nil {
		t.Fatalf("create node: %v", err)
	}
	sched := models.HabitSchedule{NodeID: node.ID, Frequency: models.HabitDaily}
	if err := conn.Create(&sched).Error; err != nil {
		t.Fatalf("create schedule: %v", err)
	}

	if err := svc.Delete(ctx, userID, track.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var nodeCount, schedCount int64
	conn.Model(&models.Node{}).Where("track_id = ?", track.ID).Count(&nodeCount)
	conn.Model(&models.HabitSchedule{}).Where("node_id = ?", node.ID).Count(&schedCount)
	if nodeCount != 0 || schedCount != 0 {
		t.Fatalf("leftovers: nodes=%d schedules=%d", nodeCount, schedCount)
	}
}

func TestList_OrdersByPosition(t *testing.T) {
	svc := NewService(openTestDB(t))
	ctx := context.Background()
	userID := uuid.New()

	pos := 5
	if _, err := svc.Create(ctx, userID, CreateInput{Name: "Later", Position: &pos}); err != nil {
		t.Fatalf("create: %v", err)
	}
	zero := 0
	if _, err := svc.Create(ctx, userID, CreateInput{Name: "First", Position: &zero}); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := svc.List(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(list))
	}
	if list[0].Name != "First" || list[1].Name != "Later" {
		t.Fatalf("order = %q, %q", list[0].Name, list[1].Name)
	}
}
