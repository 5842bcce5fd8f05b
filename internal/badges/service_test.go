package badges

import (
	"context"
	"testing"

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
	if err := conn.AutoMigrate(&models.Badge{}, &models.UserBadge{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func intPtr(v int) *int { return &v }

func TestEvaluate_AwardsAtThreshold(t *testing.T) {
	conn := openTestDB(t)
	userID := uuid.New()

	awarded, err := Evaluate(conn, userID, Metrics{StreakDays: intPtr(3)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(awarded) != 1 {
		t.Fatalf("expected 1 award, got %d", len(awarded))
	}
	if awarded[0].Badge.Slug != "streak_3" {
		t.Fatalf("expected streak_3, got %s", awarded[0].Badge.Slug)
	}
	if awarded[0].BonusXP != 50 {
		t.Fatalf("expected 50 bonus xp, got %d", awarded[0].BonusXP)
	}
}

func TestEvaluate_BelowThresholdAwardsNothing(t *testing.T) {
	conn := openTestDB(t)

	awarded, err := Evaluate(conn, uuid.New(), Metrics{
		StreakDays:      intPtr(2),
		CompletionCount: intPtr(9),
		TimeMinutes:     intPtr(99),
	})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(awarded) != 0 {
		t.Fatalf("expected no awards, got %d", len(awarded))
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	conn := openTestDB(t)
	userID := uuid.New()

	first, err := Evaluate(conn, userID, Metrics{CompletionCount: intPtr(12)})
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 award, got %d", len(first))
	}

	second, err := Evaluate(conn, userID, Metrics{CompletionCount: intPtr(13)})
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected held badge not re-awarded, got %d", len(second))
	}
}

func TestEvaluate_MultipleThresholdsInOneCall(t *testing.T) {
	conn := openTestDB(t)
	userID := uuid.New()

	awarded, err := Evaluate(conn, userID, Metrics{StreakDays: intPtr(8)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(awarded) != 2 {
		t.Fatalf("expected 2 awards, got %d", len(awarded))
	}
	slugs := map[string]bool{}
	for _, a := range awarded {
		slugs[a.Badge.Slug] = true
	}
	if !slugs["streak_3"] || !slugs["streak_7"] {
		t.Fatalf("expected streak_3 and streak_7, got %v", slugs)
	}
}

func TestEvaluate_NilMetricSkipsRules(t *testing.T) {
	conn := openTestDB(t)
	userID := uuid.New()

	awarded, err := Evaluate(conn, userID, Metrics{TimeMinutes: intPtr(1500)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	for _, a := range awarded {
		if a.Badge.Slug == "streak_3" || a.Badge.Slug == "completion_10" {
			t.Fatalf("unexpected award for unknown metric: %s", a.Badge.Slug)
		}
	}
	if len(awarded) != 2 {
		t.Fatalf("expected time_100 and time_1000, got %d awards", len(awarded))
	}
}

func TestListBadges_SeedsCatalog(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)

	catalog, err := svc.ListBadges(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(catalog) != len(Rules) {
		t.Fatalf("expected %d badges, got %d", len(Rules), len(catalog))
	}
}

func TestListUserBadges(t *testing.T) {
	conn := openTestDB(t)
	svc := NewService(conn)
	userID := uuid.New()

	if _, err := Evaluate(conn, userID, Metrics{StreakDays: intPtr(3)}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	owned, err := svc.ListUserBadges(context.Background(), userID)
	if err != nil {
		t.Fatalf("list user badges: %v", err)
	}
	if len(owned) != 1 {
		t.Fatalf("expected 1 owned badge, got %d", len(owned))
	}
	if owned[0].Slug != "streak_3" || owned[0].Name != "Spark Starter" {
		t.Fatalf("unexpected badge: %+v", owned[0])
	}

	other, err := svc.ListUserBadges(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("list other user: %v", err)
	}
	if len(other) != 0 {
		t.Fatalf("expected empty list for other user, got %d", len(other))
	}
}
