package analytics

import (
	"strings"
	"time"
)

const (
	defaultActivityLabel = "Activity"
	noActivityLabel      = "None"
)

type DayTotals struct {
	Consumed      int `json:"consumed"`
	Protein       int `json:"protein"`
	Carbs         int `json:"carbs"`
	Fats          int `json:"fats"`
	Burned        int `json:"burned"`
	MealCount     int `json:"mealCount"`
	ActivityCount int `json:"activityCount"`
}

func (t DayTotals) Add(o DayTotals) DayTotals {
	return DayTotals{
		Consumed:      t.Consumed + o.Consumed,
		Protein:       t.Protein + o.Protein,
		Carbs:         t.Carbs + o.Carbs,
		Fats:          t.Fats + o.Fats,
		Burned:        t.Burned + o.Burned,
		MealCount:     t.MealCount + o.MealCount,
		ActivityCount: t.ActivityCount + o.ActivityCount,
	}
}

// Aggregation holds per-day totals for the days that had at least one
// timestamped record, plus activity-type counts over the whole input.
type Aggregation struct {
	Days           map[Date]DayTotals
	ActivityCounts map[string]int
	activityOrder  []string
}

// Aggregate buckets records by their calendar date in loc. Records without a
// timestamp are skipped.
func Aggregate(meals []MealRecord, activities []ActivityRecord, loc *time.Location) Aggregation {
	agg := Aggregation{
		Days:           make(map[Date]DayTotals),
		ActivityCounts: make(map[string]int),
	}
	for _, meal := range meals {
		if meal.LoggedAt == nil {
			continue
		}
		day := DateOf(*meal.LoggedAt, loc)
		agg.Days[day] = agg.Days[day].Add(DayTotals{
			Consumed:  intOrZero(meal.Calories),
			Protein:   intOrZero(meal.Protein),
			Carbs:     intOrZero(meal.Carbs),
			Fats:      intOrZero(meal.Fats),
			MealCount: 1,
		})
	}
	for _, activity := range activities {
		if activity.LoggedAt == nil {
			continue
		}
		day := DateOf(*activity.LoggedAt, loc)
		agg.Days[day] = agg.Days[day].Add(DayTotals{
			Burned:        intOrZero(activity.CaloriesBurned),
			ActivityCount: 1,
		})
		agg.countActivity(activityLabel(activity.Type), 1)
	}
	return agg
}

func activityLabel(raw string) string {
	label := strings.TrimSpace(raw)
	if label == "" {
		return defaultActivityLabel
	}
	return label
}

func (a *Aggregation) countActivity(label string, n int) {
	if _, seen := a.ActivityCounts[label]; !seen {
		a.activityOrder = append(a.activityOrder, label)
	}
	a.ActivityCounts[label] += n
}

// Day returns the totals for d, zero when nothing was logged.
func (a Aggregation) Day(d Date) DayTotals {
	return a.Days[d]
}

// Merge combines two aggregations over disjoint windows. Activity order keeps
// a's labels first.
func (a Aggregation) Merge(b Aggregation) Aggregation {
	out := Aggregation{
		Days:           make(map[Date]DayTotals, len(a.Days)+len(b.Days)),
		ActivityCounts: make(map[string]int, len(a.ActivityCounts)+len(b.ActivityCounts)),
	}
	for d, t := range a.Days {
		out.Days[d] = t
	}
	for d, t := range b.Days {
		out.Days[d] = out.Days[d].Add(t)
	}
	for _, part := range []Aggregation{a, b} {
		for _, label := range part.labels() {
			out.countActivity(label, part.ActivityCounts[label])
		}
	}
	return out
}

// labels lists activity types in first-seen order, falling back to map order
// for aggregations built by hand.
func (a Aggregation) labels() []string {
	if len(a.activityOrder) == len(a.ActivityCounts) {
		return a.activityOrder
	}
	labels := make([]string, 0, len(a.ActivityCounts))
	for label := range a.ActivityCounts {
		labels = append(labels, label)
	}
	return labels
}

// Total sums every bucketed day.
func (a Aggregation) Total() DayTotals {
	var total DayTotals
	for _, t := range a.Days {
		total = total.Add(t)
	}
	return total
}

// TopActivity is the most frequent activity type. Ties go to the label seen
// first; "None" when no activities were counted.
func (a Aggregation) TopActivity() string {
	top, best := noActivityLabel, 0
	for _, label := range a.labels() {
		if count := a.ActivityCounts[label]; count > best {
			top, best = label, count
		}
	}
	return top
}
