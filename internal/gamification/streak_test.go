package gamification

import (
	"testing"
	"time"

	"github.com/entrefine/lifeos/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestUpdateStreak_FirstActivity(t *testing.T) {
	stats := &models.UserStats{}
	UpdateStreak(stats, day(2025, time.March, 10))
	if stats.CurrentStreakDays != 1 {
		t.Fatalf("expected streak=1, got %d", stats.CurrentStreakDays)
	}
	if stats.LastActiveDate == nil || !stats.LastActiveDate.Equal(day(2025, time.March, 10)) {
		t.Fatalf("unexpected last active date: %v", stats.LastActiveDate)
	}
}

func TestUpdateStreak_Consecutive(t *testing.T) {
	stats := &models.UserStats{}
	UpdateStreak(stats, day(2025, time.March, 10))
	UpdateStreak(stats, day(2025, time.March, 11))
	UpdateStreak(stats, day(2025, time.March, 12))
	if stats.CurrentStreakDays != 3 {
		t.Fatalf("expected streak=3, got %d", stats.CurrentStreakDays)
	}
}

func TestUpdateStreak_SameDayIdempotent(t *testing.T) {
	stats := &models.UserStats{}
	UpdateStreak(stats, day(2025, time.March, 10))
	UpdateStreak(stats, day(2025, time.March, 11))
	UpdateStreak(stats, day(2025, time.March, 11))
	UpdateStreak(stats, day(2025, time.March, 11).Add(23*time.Hour))
	if stats.CurrentStreakDays != 2 {
		t.Fatalf("expected streak=2 after same-day repeats, got %d", stats.CurrentStreakDays)
	}
}

func TestUpdateStreak_GapResets(t *testing.T) {
	stats := &models.UserStats{}
	UpdateStreak(stats, day(2025, time.March, 10))
	UpdateStreak(stats, day(2025, time.March, 11))
	UpdateStreak(stats, day(2025, time.March, 14))
	if stats.CurrentStreakDays != 1 {
		t.Fatalf("expected streak reset to 1, got %d", stats.CurrentStreakDays)
	}
	if !stats.LastActiveDate.Equal(day(2025, time.March, 14)) {
		t.Fatalf("unexpected last active date: %v", stats.LastActiveDate)
	}
}

func TestUpdateStreak_BackdatedIgnored(t *testing.T) {
	stats := &models.UserStats{}
	UpdateStreak(stats, day(2025, time.March, 10))
	UpdateStreak(stats, day(2025, time.March, 11))
	UpdateStreak(stats, day(2025, time.March, 8))
	if stats.CurrentStreakDays != 2 {
		t.Fatalf("expected streak unchanged at 2, got %d", stats.CurrentStreakDays)
	}
	if !stats.LastActiveDate.Equal(day(2025, time.March, 11)) {
		t.Fatalf("expected last active date untouched, got %v", stats.LastActiveDate)
	}
}
