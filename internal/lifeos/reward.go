package lifeos

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/entrefine/lifeos/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Reward tuning. Exp and gold scale linearly with session length; drops are
// an independent roll per successful session.
const (
	ExpPerMinute  = 2
	GoldPerMinute = 1
	DropChance    = 0.10
)

// worldUnlock is one watched layer: once total successful sessions reach
// the threshold the layer upgrades from tier 1 to tier 2. The `< 2` gate
// makes each unlock one-shot.
type worldUnlock struct {
	layer     string
	threshold int
	field     func(*models.WorldState) *int
}

// worldUnlocks are evaluated in order on every successful session.
var worldUnlocks = []worldUnlock{
	{layer: "study", threshold: 5, field: func(w *models.WorldState) *int { return &w.StudyRoomLevel }},
	{layer: "build", threshold: 15, field: func(w *models.WorldState) *int { return &w.BuildRoomLevel }},
	{layer: "plaza", threshold: 30, field: func(w *models.WorldState) *int { return &w.PlazaLevel }},
}

// roomLevelField maps each session room to its tier field on WorldState.
// The map doubles as the set of valid session rooms.
var roomLevelField = map[models.RoomName]func(*models.WorldState) *int{
	models.RoomStudy:    func(w *models.WorldState) *int { return &w.StudyRoomLevel },
	models.RoomBuild:    func(w *models.WorldState) *int { return &w.BuildRoomLevel },
	models.RoomTraining: func(w *models.WorldState) *int { return &w.TrainingRoomLevel },
}

// worldTargetField maps upgrade targets to their tier field on WorldState.
// Targets are a superset of session rooms: the plaza can be upgraded but
// never hosts a session.
var worldTargetField = map[string]func(*models.WorldState) *int{
	"study":    func(w *models.WorldState) *int { return &w.StudyRoomLevel },
	"build":    func(w *models.WorldState) *int { return &w.BuildRoomLevel },
	"training": func(w *models.WorldState) *int { return &w.TrainingRoomLevel },
	"plaza":    func(w *models.WorldState) *int { return &w.PlazaLevel },
}

// expToNextHeroLevel is the exp needed to clear the given hero level. Hero
// exp is spent on level-up, unlike track XP which accumulates for life.
func expToNextHeroLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return level * 100
}

// RewardOutcome reports everything one successful session granted.
type RewardOutcome struct {
	ExpGained      int                  `json:"exp_gained"`
	GoldGained     int                  `json:"gold_gained"`
	LevelsUp       int                  `json:"levels_up"`
	HeroLevel      int                  `json:"hero_level"`
	HeroExp        int                  `json:"hero_exp"`
	Drop           *models.CosmeticItem `json:"drop,omitempty"`
	UnlockedLayers []string             `json:"unlocked_layers,omitempty"`
	DayStreak      int                  `json:"day_streak"`
}

// RewardEngine applies the success rewards of focus sessions. The random
// source is injected so tests can pin drop rolls.
type RewardEngine struct {
	rng *rand.Rand
}

// NewRewardEngine constructs a RewardEngine around the given source.
func NewRewardEngine(rng *rand.Rand) *RewardEngine {
	return &RewardEngine{rng: rng}
}

// ApplySuccess grants the rewards for a successful session inside the
// caller's transaction: exp and gold on the hero, a possible cosmetic drop,
// and world progression including the session day streak. Hero and world
// rows are locked so concurrent completions serialize.
func (e *RewardEngine) ApplySuccess(tx *gorm.DB, userID uuid.UUID, durationMinutes int, completedAt time.Time) (*RewardOutcome, error) {
	if durationMinutes < 0 {
		durationMinutes = 0
	}

	hero, err := EnsureHeroProfile(tx, userID, true)
	if err != nil {
		return nil, err
	}
	world, err := EnsureWorldState(tx, userID, true)
	if err != nil {
		return nil, err
	}

	outcome := &RewardOutcome{
		ExpGained:  durationMinutes * ExpPerMinute,
		GoldGained: durationMinutes * GoldPerMinute,
	}

	hero.Exp += outcome.ExpGained
	hero.Gold += outcome.GoldGained
	for hero.Exp >= expToNextHeroLevel(hero.Level) {
		hero.Exp -= expToNextHeroLevel(hero.Level)
		hero.Level++
		outcome.LevelsUp++
	}

	drop, err := e.rollDrop(tx, userID)
	if err != nil {
		return nil, err
	}
	outcome.Drop = drop

	advanceWorld(world, completedAt, outcome)

	if errSave := tx.Save(hero).Error; errSave != nil {
		return nil, fmt.Errorf("lifeos: save hero: %w", errSave)
	}
	if errSave := tx.Save(world).Error; errSave != nil {
		return nil, fmt.Errorf("lifeos: save world: %w", errSave)
	}

	outcome.HeroLevel = hero.Level
	outcome.HeroExp = hero.Exp
	outcome.DayStreak = world.DayStreak
	return outcome, nil
}

// rollDrop rolls the cosmetic drop. A winning roll grants a random catalog
// item the user does not own yet; owning everything forfeits the drop.
func (e *RewardEngine) rollDrop(tx *gorm.DB, userID uuid.UUID) (*models.CosmeticItem, error) {
	if e.rng.Float64() >= DropChance {
		return nil, nil
	}

	var candidates []models.CosmeticItem
	err := tx.
		Where("id NOT IN (?)", tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.InventoryItem{}).
			Select("item_id").
			Where("user_id = ?", userID)).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("lifeos: list drop candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	item := candidates[e.rng.Intn(len(candidates))]
	grant := models.InventoryItem{UserID: userID, ItemID: item.ID}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant)
	if res.Error != nil {
		return nil, fmt.Errorf("lifeos: grant drop: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &item, nil
}

// advanceWorld applies the day streak, the session counter, and the
// one-shot layer unlocks to the locked world row.
func advanceWorld(world *models.WorldState, completedAt time.Time, outcome *RewardOutcome) {
	advanceSessionStreak(world, completedAt)

	world.TotalSessionsSuccess++
	for _, unlock := range worldUnlocks {
		level := unlock.field(world)
		if world.TotalSessionsSuccess >= unlock.threshold && *level < 2 {
			*level = 2
			outcome.UnlockedLayers = append(outcome.UnlockedLayers, unlock.layer)
		}
	}
}

// advanceSessionStreak mirrors the activity streak rules for session days:
// consecutive days increment, gaps reset, same-day repeats and backdated
// completions leave the streak alone.
func advanceSessionStreak(world *models.WorldState, completedAt time.Time) {
	day := completedAt.UTC()
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	if world.LastSessionDate == nil {
		world.DayStreak = 1
	} else {
		last := world.LastSessionDate.UTC()
		last = time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, time.UTC)
		switch delta := int(day.Sub(last).Hours() / 24); {
		case delta < 0:
			return
		case delta == 0:
			// Same-day session, streak unchanged.
		case delta == 1:
			world.DayStreak++
		default:
			world.DayStreak = 1
		}
	}

	world.LastSessionDate = &day
	if world.DayStreak > world.LongestStreak {
		world.LongestStreak = world.DayStreak
	}
}
