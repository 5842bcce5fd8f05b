package gamification

import "github.com/entrefine/lifeos/internal/models"

// XPFloor returns the total XP required to reach a level. Level 1 starts at
// zero; above that the curve is quadratic.
func XPFloor(level int) int {
	if level <= 1 {
		return 0
	}
	return 50 * level * (level - 1)
}

// XPToNextLevel returns the advertised XP delta for the next level.
//
// This linear delta does not agree with the quadratic XPFloor curve; the
// discrepancy is inherited from the product's published progression numbers
// and both values are surfaced as-is in the stats DTO.
func XPToNextLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return level * 100
}

// LevelFromXP returns the largest level whose floor is within xpTotal.
func LevelFromXP(xpTotal int) int {
	level := 1
	for xpTotal >= XPFloor(level+1) {
		level++
	}
	return level
}

// ApplyXP credits earned XP onto stats and recomputes the level. Negative
// earnings are clamped to zero, so the level never decreases.
func ApplyXP(stats *models.UserStats, earnedXP int) {
	if earnedXP < 0 {
		earnedXP = 0
	}
	total := stats.XPTotal + earnedXP
	if total < 0 {
		total = 0
	}
	stats.XPTotal = total
	stats.Level = LevelFromXP(total)
}
