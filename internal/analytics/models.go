// Package analytics turns logged meals and activities into daily summaries,
// AI-narrated weekly insights and multi-month export reports.
//
// Everything here is pure computation over records handed back by a Store,
// except InsightGenerator which also calls an external text-generation client.
package analytics

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidWindow = errors.New("invalid date window")
)

// MealRecord is an immutable logged meal. Nutrient fields are nil when the
// source row left them empty; they count as zero in every total.
type MealRecord struct {
	ID       string
	OwnerID  string
	Name     string
	Calories *int
	Protein  *int
	Carbs    *int
	Fats     *int
	LoggedAt *time.Time
	MealType string
	Quantity *float64
	Unit     string
}

type ActivityRecord struct {
	ID              string
	OwnerID         string
	Type            string
	DurationMinutes *int
	CaloriesBurned  *int
	LoggedAt        *time.Time
}

// UserProfile is looked up once per request and never mutated here.
type UserProfile struct {
	ID                 string
	Name               string
	Email              string
	DailyCalorieTarget *int
	Goal               *string
	WeightKg           *float64
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
