package analytics

import (
	"context"
	"sort"
	"strings"
	"time"
)

const (
	DefaultReportMonths = 6
	minReportMonths     = 1
	maxReportMonths     = 24

	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPDF  = "pdf"

	fullListingLimit    = 100
	compactListingLimit = 12
)

type ReportRequest struct {
	Months int
	From   string
	To     string
	Format string
}

type ReportProfile struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Goal        string   `json:"goal"`
	DailyTarget int      `json:"dailyTarget"`
	WeightKg    *float64 `json:"weightKg"`
}

type ReportTotals struct {
	MealsLogged        int `json:"mealsLogged"`
	ActivitiesLogged   int `json:"activitiesLogged"`
	CaloriesConsumed   int `json:"caloriesConsumed"`
	CaloriesBurned     int `json:"caloriesBurned"`
	NetCalories        int `json:"netCalories"`
	Protein            int `json:"protein"`
	Carbs              int `json:"carbs"`
	Fats               int `json:"fats"`
	ActivityMinutes    int `json:"activityMinutes"`
	AverageDailyIntake int `json:"averageDailyIntake"`
	AverageDailyBurn   int `json:"averageDailyBurn"`
}

type MacroShare struct {
	Macro    string  `json:"macro"`
	Grams    int     `json:"grams"`
	Calories int     `json:"calories"`
	Percent  float64 `json:"percent"`
}

type ReportMeal struct {
	LoggedAt *time.Time `json:"loggedAt"`
	Name     string     `json:"name"`
	Calories int        `json:"calories"`
	Protein  int        `json:"protein"`
	Carbs    int        `json:"carbs"`
	Fats     int        `json:"fats"`
	MealType string     `json:"mealType"`
	Quantity float64    `json:"quantity"`
	Unit     string     `json:"unit"`
}

type ReportActivity struct {
	LoggedAt        *time.Time `json:"loggedAt"`
	Type            string     `json:"type"`
	DurationMinutes int        `json:"durationMinutes"`
	CaloriesBurned  int        `json:"caloriesBurned"`
}

type Report struct {
	Profile     ReportProfile    `json:"profile"`
	Months      int              `json:"months"`
	Window      Window           `json:"window"`
	Days        int              `json:"days"`
	Format      string           `json:"format"`
	GeneratedAt time.Time        `json:"generatedAt"`
	FileName    string           `json:"fileName"`
	Totals      ReportTotals     `json:"totals"`
	Macros      []MacroShare     `json:"macros"`
	TopActivity string           `json:"topActivity"`
	Meals       []ReportMeal     `json:"meals"`
	Activities  []ReportActivity `json:"activities"`
}

// NormalizeFormat lowercases the requested format; anything unknown is csv.
func NormalizeFormat(raw string) string {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case FormatJSON, FormatPDF:
		return f
	default:
		return FormatCSV
	}
}

func clampMonths(months int) int {
	if months < minReportMonths {
		return minReportMonths
	}
	if months > maxReportMonths {
		return maxReportMonths
	}
	return months
}

func listingLimit(format string) int {
	if format == FormatPDF {
		return compactListingLimit
	}
	return fullListingLimit
}

// BuildReport aggregates the owner's records over a month-sized window.
// Explicit From/To bounds override the month default.
func (s *Service) BuildReport(ctx context.Context, ownerID string, req ReportRequest) (Report, error) {
	months := clampMonths(req.Months)
	today := s.Today()
	w, err := ResolveMonthWindow(req.From, req.To, months, today)
	if err != nil {
		return Report{}, err
	}
	profile, err := s.profile(ctx, ownerID)
	if err != nil {
		return Report{}, err
	}
	meals, activities, err := s.fetch(ctx, ownerID, w, w)
	if err != nil {
		return Report{}, err
	}

	format := NormalizeFormat(req.Format)
	agg := Aggregate(meals, activities, s.loc)
	sum := agg.Total()
	days := w.Days()
	if days < 1 {
		days = 1
	}

	totals := ReportTotals{
		MealsLogged:        len(meals),
		ActivitiesLogged:   len(activities),
		CaloriesConsumed:   sum.Consumed,
		CaloriesBurned:     sum.Burned,
		NetCalories:        sum.Consumed - sum.Burned,
		Protein:            sum.Protein,
		Carbs:              sum.Carbs,
		Fats:               sum.Fats,
		AverageDailyIntake: sum.Consumed / days,
		AverageDailyBurn:   sum.Burned / days,
	}
	for _, a := range activities {
		totals.ActivityMinutes += intOrZero(a.DurationMinutes)
	}

	goal := ""
	if profile.Goal != nil {
		goal = *profile.Goal
	}
	limit := listingLimit(format)
	return Report{
		Profile: ReportProfile{
			Name:        profile.Name,
			Email:       profile.Email,
			Goal:        goal,
			DailyTarget: CalorieTarget(profile),
			WeightKg:    profile.WeightKg,
		},
		Months:      months,
		Window:      w,
		Days:        days,
		Format:      format,
		GeneratedAt: s.Now(),
		FileName:    reportFileName(profile, ownerID, today),
		Totals:      totals,
		Macros:      MacroSplit(sum.Protein, sum.Carbs, sum.Fats),
		TopActivity: agg.TopActivity(),
		Meals:       reportMeals(meals, limit),
		Activities:  reportActivities(activities, limit),
	}, nil
}

// MacroSplit converts gram totals to calories at 4/4/9 kcal per gram and
// each macro's share of the combined calories.
func MacroSplit(protein, carbs, fats int) []MacroShare {
	shares := []MacroShare{
		{Macro: "Protein", Grams: protein, Calories: protein * 4},
		{Macro: "Carbs", Grams: carbs, Calories: carbs * 4},
		{Macro: "Fats", Grams: fats, Calories: fats * 9},
	}
	total := 0
	for _, share := range shares {
		total += share.Calories
	}
	if total > 0 {
		for i := range shares {
			shares[i].Percent = float64(shares[i].Calories) * 100 / float64(total)
		}
	}
	return shares
}

func reportFileName(profile UserProfile, ownerID string, today Date) string {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = "user-" + ownerID
	}
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return "analytics_" + safe + "_" + today.String()
}

// newestFirst orders by timestamp descending; undated records go last.
func newestFirst(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}

func reportMeals(meals []MealRecord, limit int) []ReportMeal {
	sorted := append([]MealRecord(nil), meals...)
	sort.SliceStable(sorted, func(i, j int) bool { return newestFirst(sorted[i].LoggedAt, sorted[j].LoggedAt) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	rows := make([]ReportMeal, 0, len(sorted))
	for _, m := range sorted {
		quantity := 1.0
		if m.Quantity != nil {
			quantity = *m.Quantity
		}
		rows = append(rows, ReportMeal{
			LoggedAt: m.LoggedAt,
			Name:     m.Name,
			Calories: intOrZero(m.Calories),
			Protein:  intOrZero(m.Protein),
			Carbs:    intOrZero(m.Carbs),
			Fats:     intOrZero(m.Fats),
			MealType: m.MealType,
			Quantity: quantity,
			Unit:     m.Unit,
		})
	}
	return rows
}

func reportActivities(activities []ActivityRecord, limit int) []ReportActivity {
	sorted := append([]ActivityRecord(nil), activities...)
	sort.SliceStable(sorted, func(i, j int) bool { return newestFirst(sorted[i].LoggedAt, sorted[j].LoggedAt) })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	rows := make([]ReportActivity, 0, len(sorted))
	for _, a := range sorted {
		rows = append(rows, ReportActivity{
			LoggedAt:        a.LoggedAt,
			Type:            a.Type,
			DurationMinutes: intOrZero(a.DurationMinutes),
			CaloriesBurned:  intOrZero(a.CaloriesBurned),
		})
	}
	return rows
}
