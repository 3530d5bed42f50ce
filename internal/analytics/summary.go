package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	trendDays          = 7
	weeklyDays         = 7
	recentActivityMax  = 5
	recentActivityDays = 30
	maxTrendDays       = 31
)

// Store is the read-only record source. Implementations return
// ErrUserNotFound when the profile does not exist and list records whose
// timestamp falls in [from, to).
type Store interface {
	GetProfile(ctx context.Context, ownerID string) (UserProfile, error)
	ListMeals(ctx context.Context, ownerID string, from, to time.Time) ([]MealRecord, error)
	ListActivities(ctx context.Context, ownerID string, from, to time.Time) ([]ActivityRecord, error)
}

type Service struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

type Option func(*Service)

// WithLocation sets the zone records are bucketed in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, loc: time.Local, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Location() *time.Location { return s.loc }

func (s *Service) Now() time.Time { return s.now().In(s.loc) }

func (s *Service) Today() Date { return DateOf(s.now(), s.loc) }

type RecentActivity struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Duration string    `json:"duration"`
	Calories int       `json:"calories"`
	Time     string    `json:"time"`
	LoggedAt time.Time `json:"loggedAt"`
}

type TrendPoint struct {
	Label    string `json:"date"`
	Day      Date   `json:"isoDate"`
	Consumed int    `json:"consumed"`
	Target   int    `json:"target"`
	Burned   int    `json:"burned"`
}

type DashboardSummary struct {
	Date              Date             `json:"day"`
	DailyTarget       int              `json:"dailyTarget"`
	CaloriesConsumed  int              `json:"caloriesConsumed"`
	CaloriesBurned    int              `json:"caloriesBurned"`
	CaloriesRemaining int              `json:"caloriesRemaining"`
	ProteinConsumed   int              `json:"proteinConsumed"`
	CarbsConsumed     int              `json:"carbsConsumed"`
	FatsConsumed      int              `json:"fatsConsumed"`
	ProteinTarget     int              `json:"proteinTarget"`
	CarbsTarget       int              `json:"carbsTarget"`
	FatsTarget        int              `json:"fatsTarget"`
	CurrentWeight     *float64         `json:"currentWeight"`
	WeightGoal        float64          `json:"weightGoal"`
	RecentActivities  []RecentActivity `json:"recentActivities"`
	CalorieTrends     []TrendPoint     `json:"calorieTrends"`
}

type WeeklyStats struct {
	Window             Window      `json:"window"`
	DailyTarget        int         `json:"dailyTarget"`
	Totals             DayTotals   `json:"totals"`
	Average            DayTotals   `json:"average"`
	DaysLoggedMeals    int         `json:"daysLoggedMeals"`
	DaysLoggedActivity int         `json:"daysLoggedActivity"`
	DaysOverTarget     int         `json:"daysOverTarget"`
	TopActivity        string      `json:"topActivity"`
	Profile            UserProfile `json:"-"`
}

type DayPoint struct {
	Day        Date `json:"date"`
	OverTarget bool `json:"overTarget"`
	DayTotals
}

type RangeSummary struct {
	Window      Window     `json:"window"`
	DailyTarget int        `json:"dailyTarget"`
	Days        []DayPoint `json:"days"`
	Totals      DayTotals  `json:"totals"`
	Average     DayTotals  `json:"average"`
	DaysLogged  int        `json:"daysLogged"`
	TopActivity string     `json:"topActivity"`
}

// BuildToday assembles the dashboard for the current calendar day.
func (s *Service) BuildToday(ctx context.Context, ownerID string) (DashboardSummary, error) {
	profile, err := s.profile(ctx, ownerID)
	if err != nil {
		return DashboardSummary{}, err
	}
	now := s.Now()
	today := DateOf(now, s.loc)
	trendWindow := Window{Start: today.AddDays(-(trendDays - 1)), End: today}
	activityWindow := Window{Start: today.AddDays(-(recentActivityDays - 1)), End: today}

	meals, activities, err := s.fetch(ctx, ownerID, trendWindow, activityWindow)
	if err != nil {
		return DashboardSummary{}, err
	}
	agg := Aggregate(meals, activities, s.loc)
	targets := ResolveTargets(profile)
	day := agg.Day(today)

	summary := DashboardSummary{
		Date:              today,
		DailyTarget:       targets.Calories,
		CaloriesConsumed:  day.Consumed,
		CaloriesBurned:    day.Burned,
		CaloriesRemaining: targets.Calories - day.Consumed + day.Burned,
		ProteinConsumed:   day.Protein,
		CarbsConsumed:     day.Carbs,
		FatsConsumed:      day.Fats,
		ProteinTarget:     targets.Protein,
		CarbsTarget:       targets.Carbs,
		FatsTarget:        targets.Fats,
		CurrentWeight:     profile.WeightKg,
		RecentActivities:  recentActivities(activities, now, recentActivityMax),
		CalorieTrends:     trendPoints(agg, LastNDays(trendDays, today), targets.Calories),
	}
	if profile.WeightKg != nil {
		summary.WeightGoal = *profile.WeightKg
	}
	return summary, nil
}

// BuildTrend returns one point per day for the trailing days, oldest first.
func (s *Service) BuildTrend(ctx context.Context, ownerID string, days int) ([]TrendPoint, error) {
	if days < 1 {
		days = trendDays
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}
	profile, err := s.profile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	dates := LastNDays(days, s.Today())
	w := Window{Start: dates[0], End: dates[len(dates)-1]}
	meals, activities, err := s.fetch(ctx, ownerID, w, w)
	if err != nil {
		return nil, err
	}
	return trendPoints(Aggregate(meals, activities, s.loc), dates, CalorieTarget(profile)), nil
}

// BuildWeeklyStats summarises the trailing seven days including today.
func (s *Service) BuildWeeklyStats(ctx context.Context, ownerID string) (WeeklyStats, error) {
	profile, err := s.profile(ctx, ownerID)
	if err != nil {
		return WeeklyStats{}, err
	}
	return s.weeklyStats(ctx, ownerID, profile)
}

func (s *Service) weeklyStats(ctx context.Context, ownerID string, profile UserProfile) (WeeklyStats, error) {
	dates := LastNDays(weeklyDays, s.Today())
	w := Window{Start: dates[0], End: dates[len(dates)-1]}
	meals, activities, err := s.fetch(ctx, ownerID, w, w)
	if err != nil {
		return WeeklyStats{}, err
	}
	agg := Aggregate(meals, activities, s.loc)
	target := CalorieTarget(profile)

	stats := WeeklyStats{
		Window:      w,
		DailyTarget: target,
		TopActivity: agg.TopActivity(),
		Profile:     profile,
	}
	for _, d := range dates {
		day := agg.Day(d)
		stats.Totals = stats.Totals.Add(day)
		if day.MealCount > 0 {
			stats.DaysLoggedMeals++
		}
		if day.ActivityCount > 0 {
			stats.DaysLoggedActivity++
		}
		if day.Consumed > target {
			stats.DaysOverTarget++
		}
	}
	stats.Average = averageTotals(stats.Totals, len(dates))
	return stats, nil
}

// BuildRange reports every day of an explicit window. Bounds are YYYY-MM-DD;
// either may be empty.
func (s *Service) BuildRange(ctx context.Context, ownerID, start, end string) (RangeSummary, error) {
	w, err := ResolveWindow(start, end, trendDays, s.Today())
	if err != nil {
		return RangeSummary{}, err
	}
	profile, err := s.profile(ctx, ownerID)
	if err != nil {
		return RangeSummary{}, err
	}
	meals, activities, err := s.fetch(ctx, ownerID, w, w)
	if err != nil {
		return RangeSummary{}, err
	}
	agg := Aggregate(meals, activities, s.loc)
	target := CalorieTarget(profile)

	out := RangeSummary{
		Window:      w,
		DailyTarget: target,
		TopActivity: agg.TopActivity(),
	}
	for _, d := range w.Dates() {
		day := agg.Day(d)
		out.Days = append(out.Days, DayPoint{Day: d, OverTarget: day.Consumed > target, DayTotals: day})
		out.Totals = out.Totals.Add(day)
		if day.MealCount > 0 || day.ActivityCount > 0 {
			out.DaysLogged++
		}
	}
	out.Average = averageTotals(out.Totals, w.Days())
	return out, nil
}

func (s *Service) profile(ctx context.Context, ownerID string) (UserProfile, error) {
	profile, err := s.store.GetProfile(ctx, ownerID)
	if errors.Is(err, ErrUserNotFound) {
		return UserProfile{}, ErrUserNotFound
	}
	if err != nil {
		return UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// fetch loads meals and activities for their windows concurrently.
func (s *Service) fetch(ctx context.Context, ownerID string, mealWindow, activityWindow Window) ([]MealRecord, []ActivityRecord, error) {
	var (
		meals      []MealRecord
		activities []ActivityRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		from, to := mealWindow.Bounds(s.loc)
		rows, err := s.store.ListMeals(gctx, ownerID, from, to)
		if err != nil {
			return fmt.Errorf("list meals: %w", err)
		}
		meals = rows
		return nil
	})
	g.Go(func() error {
		from, to := activityWindow.Bounds(s.loc)
		rows, err := s.store.ListActivities(gctx, ownerID, from, to)
		if err != nil {
			return fmt.Errorf("list activities: %w", err)
		}
		activities = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return meals, activities, nil
}

func trendPoints(agg Aggregation, dates []Date, target int) []TrendPoint {
	points := make([]TrendPoint, 0, len(dates))
	for _, d := range dates {
		day := agg.Day(d)
		points = append(points, TrendPoint{
			Label:    d.Label(),
			Day:      d,
			Consumed: day.Consumed,
			Target:   target,
			Burned:   day.Burned,
		})
	}
	return points
}

func recentActivities(activities []ActivityRecord, now time.Time, limit int) []RecentActivity {
	dated := make([]ActivityRecord, 0, len(activities))
	for _, a := range activities {
		if a.LoggedAt != nil {
			dated = append(dated, a)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].LoggedAt.After(*dated[j].LoggedAt)
	})
	if len(dated) > limit {
		dated = dated[:limit]
	}
	out := make([]RecentActivity, 0, len(dated))
	for _, a := range dated {
		label := a.Type
		if label == "" {
			label = "Unknown"
		}
		out = append(out, RecentActivity{
			ID:       a.ID,
			Type:     label,
			Duration: strconv.Itoa(intOrZero(a.DurationMinutes)) + " min",
			Calories: intOrZero(a.CaloriesBurned),
			Time:     formatTimeAgo(*a.LoggedAt, now),
			LoggedAt: *a.LoggedAt,
		})
	}
	return out
}

// formatTimeAgo renders whole minutes under an hour, whole hours under a day,
// whole days otherwise. Future timestamps read as "0 minutes ago".
func formatTimeAgo(t, now time.Time) string {
	elapsed := now.Sub(t)
	if elapsed < 0 {
		elapsed = 0
	}
	if minutes := int64(elapsed / time.Minute); minutes < 60 {
		return strconv.FormatInt(minutes, 10) + " minutes ago"
	}
	if hours := int64(elapsed / time.Hour); hours < 24 {
		return strconv.FormatInt(hours, 10) + " hours ago"
	}
	return strconv.FormatInt(int64(elapsed/(24*time.Hour)), 10) + " days ago"
}

func averageTotals(total DayTotals, days int) DayTotals {
	if days <= 0 {
		return DayTotals{}
	}
	avg := func(v int) int { return roundHalfAwayFromZero(float64(v) / float64(days)) }
	return DayTotals{
		Consumed:      avg(total.Consumed),
		Protein:       avg(total.Protein),
		Carbs:         avg(total.Carbs),
		Fats:          avg(total.Fats),
		Burned:        avg(total.Burned),
		MealCount:     avg(total.MealCount),
		ActivityCount: avg(total.ActivityCount),
	}
}

func roundHalfAwayFromZero(v float64) int {
	return int(math.Round(v))
}
