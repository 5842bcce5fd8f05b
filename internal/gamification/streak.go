package gamification

import (
	"time"

	"github.com/entrefine/lifeos/internal/models"
)

// UpdateStreak advances the consecutive-day streak for an activity on the
// given date. A one-day gap increments, a longer gap resets to 1, and a
// same-day repeat leaves the streak untouched. Backdated activity (a date
// before the recorded one) is ignored entirely so an import or clock skew
// cannot corrupt a live streak.
func UpdateStreak(stats *models.UserStats, activityDate time.Time) {
	day := truncateToDay(activityDate)

	if stats.LastActiveDate == nil {
		stats.CurrentStreakDays = 1
		stats.LastActiveDate = &day
		return
	}

	last := truncateToDay(*stats.LastActiveDate)
	delta := int(day.Sub(last).Hours() / 24)
	switch {
	case delta < 0:
		return
	case delta == 0:
		// Same-day re-trigger keeps the streak unchanged.
	case delta == 1:
		stats.CurrentStreakDays++
	default:
		stats.CurrentStreakDays = 1
	}
	stats.LastActiveDate = &day
}

// truncateToDay drops the time-of-day component in UTC.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
