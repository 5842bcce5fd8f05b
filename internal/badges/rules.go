package badges

// Category selects which metric a badge rule watches.
type Category string

// Category constants form a closed set; Evaluate matches over all of them
// explicitly.
const (
	// CategoryStreak rules trigger on consecutive active days.
	CategoryStreak Category = "streak"
	// CategoryCompletion rules trigger on lifetime node completions.
	CategoryCompletion Category = "completion"
	// CategoryTime rules trigger on lifetime logged minutes.
	CategoryTime Category = "time"
)

// Rule defines one badge: the metric it watches, the threshold that awards
// it, and the catalog fields seeded on first reference.
type Rule struct {
	Slug        string
	Name        string
	Description string
	Category    Category
	Threshold   int
	Icon        string
	BaseXP      int
}

// Rules is the fixed badge rule table. Changing it reshapes the catalog on
// the next evaluation; existing awards are never revoked.
var Rules = []Rule{
	{Slug: "streak_3", Name: "Spark Starter", Description: "Maintain a 3-day streak.", Category: CategoryStreak, Threshold: 3, BaseXP: 50},
	{Slug: "streak_7", Name: "Momentum Maker", Description: "Stay consistent for 7 consecutive days.", Category: CategoryStreak, Threshold: 7, BaseXP: 100},
	{Slug: "streak_30", Name: "Unbreakable", Description: "Reach a 30-day streak.", Category: CategoryStreak, Threshold: 30, BaseXP: 200},
	{Slug: "completion_10", Name: "Task Tinkerer", Description: "Complete 10 nodes.", Category: CategoryCompletion, Threshold: 10, BaseXP: 50},
	{Slug: "completion_50", Name: "Task Master", Description: "Complete 50 nodes.", Category: CategoryCompletion, Threshold: 50, BaseXP: 150},
	{Slug: "time_100", Name: "Centurion", Description: "Log 100 minutes of focus time.", Category: CategoryTime, Threshold: 100, BaseXP: 50},
	{Slug: "time_1000", Name: "Timekeeper", Description: "Accumulate 1,000 minutes of focus time.", Category: CategoryTime, Threshold: 1000, BaseXP: 200},
}
