package lifeos

import (
	"math/rand"
	"testing"
	"time"

	"github.com/entrefine/lifeos/internal/db"
	"github.com/entrefine/lifeos/internal/models"
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

// neverDrop keeps drop rolls out of reward assertions.
func neverDrop() *rand.Rand {
	// 0.604... on the first Float64 with this seed, above the drop chance.
	return rand.New(rand.NewSource(1))
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestApplySuccess_ExpAndGoldScaleWithMinutes(t *testing.T) {
	conn := openTestDB(t)
	engine := NewRewardEngine(neverDrop())
	userID := uuid.New()

	outcome, err := engine.ApplySuccess(conn, userID, 50, day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome.ExpGained != 100 {
		t.Fatalf("expected 100 exp for 50 minutes, got %d", outcome.ExpGained)
	}
	if outcome.GoldGained != 50 {
		t.Fatalf("expected 50 gold for 50 minutes, got %d", outcome.GoldGained)
	}

	var hero models.HeroProfile
	if err := conn.First(&hero, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("load hero: %v", err)
	}
	if hero.Level != 2 || hero.Exp != 0 || hero.Gold != 50 {
		t.Fatalf("unexpected hero after level up: %+v", hero)
	}
}

func TestApplySuccess_LevelUpCarriesRemainder(t *testing.T) {
	conn := openTestDB(t)
	engine := NewRewardEngine(neverDrop())
	userID := uuid.New()

	// Pre-seed the hero just short of a level so one session tips it over.
	hero, err := EnsureHeroProfile(conn, userID, false)
	if err != nil {
		t.Fatalf("ensure hero: %v", err)
	}
	hero.Exp = expToNextHeroLevel(hero.Level) - 50
	if err := conn.Save(hero).Error; err != nil {
		t.Fatalf("seed hero: %v", err)
	}

	outcome, err := engine.ApplySuccess(conn, userID, 50, day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome.LevelsUp != 1 {
		t.Fatalf("expected one level up, got %d", outcome.LevelsUp)
	}
	if outcome.HeroLevel != 2 || outcome.HeroExp != 50 {
		t.Fatalf("expected level 2 with 50 exp left, got level=%d exp=%d", outcome.HeroLevel, outcome.HeroExp)
	}
}

func TestApplySuccess_MultiLevelJump(t *testing.T) {
	conn := openTestDB(t)
	engine := NewRewardEngine(neverDrop())
	userID := uuid.New()

	hero, _ := EnsureHeroProfile(conn, userID, false)
	hero.Exp = 250
	if err := conn.Save(hero).Error; err != nil {
		t.Fatalf("seed hero: %v", err)
	}

	outcome, err := engine.ApplySuccess(conn, userID, 60, day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	// 250 + 120 = 370: clears 100 (level 2) and 200 (level 3), leaving 70.
	if outcome.HeroLevel != 3 || outcome.HeroExp != 70 || outcome.LevelsUp != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestApplySuccess_SessionStreak(t *testing.T) {
	conn := openTestDB(t)
	engine := NewRewardEngine(neverDrop())
	userID := uuid.New()

	days := []time.Time{
		day(2025, time.June, 1),
		day(2025, time.June, 2),
		day(2025, time.June, 2),
		day(2025, time.June, 3),
	}
	var last *RewardOutcome
	for _, d := range days {
		outcome, err := engine.ApplySuccess(conn, userID, 25, d)
		if err != nil {
			t.Fatalf("apply %v: %v", d, err)
		}
		last = outcome
	}
	if last.DayStreak != 3 {
		t.Fatalf("expected streak=3, got %d", last.DayStreak)
	}

	outcome, err := engine.ApplySuccess(conn, userID, 25, day(2025, time.June, 10))
	if err != nil {
		t.Fatalf("apply after gap: %v", err)
	}
	if outcome.DayStreak != 1 {
		t.Fatalf("expected streak reset to 1, got %d", outcome.DayStreak)
	}

	var world models.WorldState
	if err := conn.First(&world, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("load world: %v", err)
	}
	if world.LongestStreak != 3 {
		t.Fatalf("expected longest streak 3, got %d", world.LongestStreak)
	}
}

func TestApplySuccess_LayerUnlocks(t *testing.T) {
	conn := openTestDB(t)
	engine := NewRewardEngine(neverDrop())
	userID := uuid.New()

	var unlocked []string
	for i := 0; i < 30; i++ {
		outcome, err := engine.ApplySuccess(conn, userID, 25, day(2025, time.June, 1))
		if err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		unlocked = append(unlocked, outcome.UnlockedLayers...)

		switch i + 1 {
		case 5:
			if len(outcome.UnlockedLayers) != 1 || outcome.UnlockedLayers[0] != "study" {
				t.Fatalf("session 5 unlocked %v, want [study]", outcome.UnlockedLayers)
			}
		case 15:
			if len(outcome.UnlockedLayers) != 1 || outcome.UnlockedLayers[0] != "build" {
				t.Fatalf("session 15 unlocked %v, want [build]", outcome.UnlockedLayers)
			}
		case 30:
			if len(outcome.UnlockedLayers) != 1 || outcome.UnlockedLayers[0] != "plaza" {
				t.Fatalf("session 30 unlocked %v, want [plaza]", outcome.UnlockedLayers)
			}
		default:
			if len(outcome.UnlockedLayers) != 0 {
				t.Fatalf("session %d unlocked %v, want none", i+1, outcome.UnlockedLayers)
			}
		}
	}
	if len(unlocked) != 3 {
		t.Fatalf("total unlocks = %v, want one per layer", unlocked)
	}

	var world models.WorldState
	if err := conn.First(&world, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("load world: %v", err)
	}
	if world.StudyRoomLevel != 2 || world.BuildRoomLevel != 2 || world.PlazaLevel != 2 {
		t.Fatalf("unexpected world tiers: %+v", world)
	}
	if world.TrainingRoomLevel != 1 {
		t.Fatalf("training room has no unlock threshold, got tier %d", world.TrainingRoomLevel)
	}
	if world.TotalSessionsSuccess != 30 {
		t.Fatalf("total sessions = %d", world.TotalSessionsSuccess)
	}
}

func TestApplySuccess_UnlockDoesNotRefire(t *testing.T) {
	conn := openTestDB(t)
	engine := NewRewardEngine(neverDrop())
	userID := uuid.New()

	// A manually maxed study room must not re-fire or regress at threshold.
	world, err := EnsureWorldState(conn, userID, false)
	if err != nil {
		t.Fatalf("ensure world: %v", err)
	}
	world.StudyRoomLevel = 3
	world.TotalSessionsSuccess = 4
	if err := conn.Save(world).Error; err != nil {
		t.Fatalf("seed world: %v", err)
	}

	outcome, err := engine.ApplySuccess(conn, userID, 25, day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(outcome.UnlockedLayers) != 0 {
		t.Fatalf("unlocked %v, want none", outcome.UnlockedLayers)
	}

	var fresh models.WorldState
	if err := conn.First(&fresh, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("load world: %v", err)
	}
	if fresh.StudyRoomLevel != 3 {
		t.Fatalf("study room tier = %d, want 3 untouched", fresh.StudyRoomLevel)
	}
}

func TestRollDrop_GrantsUnownedItemOnce(t *testing.T) {
	conn := openTestDB(t)
	userID := uuid.New()

	// Find a seed whose first Float64 lands under the drop chance.
	var winning int64
	for seed := int64(0); ; seed++ {
		if rand.New(rand.NewSource(seed)).Float64() < DropChance {
			winning = seed
			break
		}
	}

	engine := NewRewardEngine(rand.New(rand.NewSource(winning)))
	outcome, err := engine.ApplySuccess(conn, userID, 25, day(2025, time.June, 1))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if outcome.Drop == nil {
		t.Fatal("expected a drop on a winning roll")
	}

	var owned []models.InventoryItem
	if err := conn.Where("user_id = ?", userID).Find(&owned).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	if len(owned) != 1 || owned[0].ItemID != outcome.Drop.ID {
		t.Fatalf("expected the dropped item in inventory, got %+v", owned)
	}
}
