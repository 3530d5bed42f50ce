package analytics

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	profiles   map[string]UserProfile
	meals      []MealRecord
	activities []ActivityRecord
	err        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[string]UserProfile{}}
}

func (f *fakeStore) GetProfile(_ context.Context, ownerID string) (UserProfile, error) {
	p, ok := f.profiles[ownerID]
	if !ok {
		return UserProfile{}, ErrUserNotFound
	}
	return p, nil
}

func (f *fakeStore) ListMeals(_ context.Context, ownerID string, from, to time.Time) ([]MealRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []MealRecord
	for _, m := range f.meals {
		if m.OwnerID == ownerID && inRange(m.LoggedAt, from, to) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListActivities(_ context.Context, ownerID string, from, to time.Time) ([]ActivityRecord, error) {
	var out []ActivityRecord
	for _, a := range f.activities {
		if a.OwnerID == ownerID && inRange(a.LoggedAt, from, to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func inRange(at *time.Time, from, to time.Time) bool {
	return at != nil && !at.Before(from) && at.Before(to)
}

func (f *fakeStore) addMeal(owner string, at time.Time, calories, protein, carbs, fats int) {
	m := meal(at, calories, protein, carbs, fats)
	m.OwnerID = owner
	f.meals = append(f.meals, m)
}

func (f *fakeStore) addActivity(owner string, at time.Time, kind string, minutes, burned int) {
	a := activity(at, kind, minutes, burned)
	a.OwnerID = owner
	f.activities = append(f.activities, a)
}

var fixedNow = time.Date(2026, 2, 15, 18, 0, 0, 0, time.UTC)

func newTestService(store Store) *Service {
	return NewService(store, WithLocation(time.UTC), WithClock(func() time.Time { return fixedNow }))
}

func TestBuildTodayRemainingCalories(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = UserProfile{ID: "u1", DailyCalorieTarget: intPtr(2000), WeightKg: floatPtr(71.5)}
	store.addMeal("u1", fixedNow.Add(-10*time.Hour), 700, 40, 80, 20)
	store.addMeal("u1", fixedNow.Add(-2*time.Hour), 500, 30, 50, 15)
	store.addActivity("u1", fixedNow.Add(-3*time.Hour), "Run", 30, 300)
	store.addMeal("u1", fixedNow.Add(-30*time.Hour), 900, 0, 0, 0)

	summary, err := newTestService(store).BuildToday(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.CaloriesConsumed != 1200 || summary.CaloriesBurned != 300 {
		t.Fatalf("unexpected totals: consumed=%d burned=%d", summary.CaloriesConsumed, summary.CaloriesBurned)
	}
	if summary.CaloriesRemaining != 1100 {
		t.Fatalf("expected remaining 1100, got %d", summary.CaloriesRemaining)
	}
	if summary.ProteinConsumed != 70 || summary.ProteinTarget != 150 || summary.FatsTarget != 66 {
		t.Fatalf("unexpected macros: %+v", summary)
	}
	if summary.WeightGoal != 71.5 || summary.CurrentWeight == nil {
		t.Fatalf("expected weight to be reported, got %+v", summary.CurrentWeight)
	}
	if len(summary.CalorieTrends) != 7 {
		t.Fatalf("expected 7 trend points, got %d", len(summary.CalorieTrends))
	}
	last := summary.CalorieTrends[6]
	if last.Label != "Feb 15" || last.Consumed != 1200 || last.Target != 2000 || last.Burned != 300 {
		t.Fatalf("unexpected last trend point: %+v", last)
	}
	if summary.CalorieTrends[5].Consumed != 900 {
		t.Fatalf("expected yesterday to carry 900 kcal, got %+v", summary.CalorieTrends[5])
	}
}

func TestBuildTodayRecentActivities(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = UserProfile{ID: "u1"}
	store.addActivity("u1", fixedNow.Add(-45*time.Minute), "Walk", 20, 80)
	store.addActivity("u1", fixedNow.Add(-5*time.Hour), "", 40, 250)
	store.addActivity("u1", fixedNow.Add(-72*time.Hour), "Swim", 60, 500)
	for i := 0; i < 4; i++ {
		store.addActivity("u1", fixedNow.Add(-time.Duration(100+i)*time.Hour), "Yoga", 15, 50)
	}
	store.addActivity("u1", fixedNow.Add(10*time.Minute), "Bike", 30, 200)

	summary, err := newTestService(store).BuildToday(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recent := summary.RecentActivities
	if len(recent) != 5 {
		t.Fatalf("expected 5 recent activities, got %d", len(recent))
	}
	if recent[0].Type != "Bike" || recent[0].Time != "0 minutes ago" {
		t.Fatalf("expected future activity clamped to 0 minutes ago, got %+v", recent[0])
	}
	if recent[1].Time != "45 minutes ago" || recent[1].Duration != "20 min" {
		t.Fatalf("unexpected walk entry: %+v", recent[1])
	}
	if recent[2].Type != "Unknown" || recent[2].Time != "5 hours ago" {
		t.Fatalf("unexpected untyped entry: %+v", recent[2])
	}
	if recent[3].Time != "3 days ago" {
		t.Fatalf("unexpected swim entry: %+v", recent[3])
	}
	if summary.DailyTarget != 2200 {
		t.Fatalf("expected default target 2200, got %d", summary.DailyTarget)
	}
}

func TestBuildSummariesUnknownUser(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeStore())
	if _, err := svc.BuildToday(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound from BuildToday, got %v", err)
	}
	if _, err := svc.BuildWeeklyStats(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound from BuildWeeklyStats, got %v", err)
	}
	if _, err := svc.BuildTrend(context.Background(), "ghost", 7); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound from BuildTrend, got %v", err)
	}
}

func TestBuildTodayPropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = UserProfile{ID: "u1"}
	store.err = errors.New("connection refused")
	_, err := newTestService(store).BuildToday(context.Background(), "u1")
	if err == nil || errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestBuildWeeklyStatsCountsLoggedDays(t *testing.T) {
	t.Parallel()

	for _, offsets := range [][]int{{0, 1, 2}, {0, 3, 6}, {1, 4, 5}, {6, 5, 2}} {
		store := newFakeStore()
		store.profiles["u1"] = UserProfile{ID: "u1", DailyCalorieTarget: intPtr(2000)}
		for _, off := range offsets {
			at := fixedNow.AddDate(0, 0, -off).Add(-time.Hour)
			store.addMeal("u1", at, 1000, 10, 10, 10)
			store.addMeal("u1", at.Add(-time.Hour), 500, 10, 10, 10)
		}
		// Outside the window.
		store.addMeal("u1", fixedNow.AddDate(0, 0, -7), 3000, 0, 0, 0)

		stats, err := newTestService(store).BuildWeeklyStats(context.Background(), "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.DaysLoggedMeals != 3 {
			t.Fatalf("offsets %v: expected 3 logged days, got %d", offsets, stats.DaysLoggedMeals)
		}
		if stats.DaysOverTarget != 0 {
			t.Fatalf("offsets %v: expected no days over target, got %d", offsets, stats.DaysOverTarget)
		}
		if stats.Totals.Consumed != 4500 {
			t.Fatalf("offsets %v: expected total 4500, got %d", offsets, stats.Totals.Consumed)
		}
		// 4500 / 7 = 642.86
		if stats.Average.Consumed != 643 {
			t.Fatalf("offsets %v: expected average 643, got %d", offsets, stats.Average.Consumed)
		}
	}
}

func TestBuildWeeklyStatsActivityAndOverTarget(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = UserProfile{ID: "u1", Goal: strPtr("Lose Weight")}
	store.addMeal("u1", fixedNow.Add(-time.Hour), 2100, 0, 0, 0)
	store.addMeal("u1", fixedNow.AddDate(0, 0, -1), 2000, 0, 0, 0)
	store.addActivity("u1", fixedNow.Add(-time.Hour), "Run", 30, 0)
	store.addActivity("u1", fixedNow.AddDate(0, 0, -2), "Run", 30, 200)
	store.addActivity("u1", fixedNow.AddDate(0, 0, -3), "Yoga", 30, 100)

	stats, err := newTestService(store).BuildWeeklyStats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.DailyTarget != 2000 || stats.DaysOverTarget != 1 {
		t.Fatalf("expected one day over 2000, got target=%d over=%d", stats.DailyTarget, stats.DaysOverTarget)
	}
	if stats.DaysLoggedActivity != 3 {
		t.Fatalf("expected a zero-calorie activity day to count, got %d", stats.DaysLoggedActivity)
	}
	if stats.TopActivity != "Run" {
		t.Fatalf("expected Run, got %q", stats.TopActivity)
	}
	if stats.Window.Start.String() != "2026-02-09" || stats.Window.End.String() != "2026-02-15" {
		t.Fatalf("unexpected window %s..%s", stats.Window.Start, stats.Window.End)
	}
}

func TestBuildTrendClampsDays(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = UserProfile{ID: "u1"}
	svc := newTestService(store)

	points, err := svc.BuildTrend(context.Background(), "u1", 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 31 {
		t.Fatalf("expected 31 points, got %d", len(points))
	}
	points, err = svc.BuildTrend(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) != 7 || points[6].Day != svc.Today() {
		t.Fatalf("expected 7 points ending today, got %d", len(points))
	}
}

func TestBuildRange(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = UserProfile{ID: "u1", DailyCalorieTarget: intPtr(1800)}
	store.addMeal("u1", time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC), 1900, 0, 0, 0)
	store.addActivity("u1", time.Date(2026, 1, 12, 9, 0, 0, 0, time.UTC), "Row", 30, 250)
	svc := newTestService(store)

	got, err := svc.BuildRange(context.Background(), "u1", "2026-01-10", "2026-01-13")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Days) != 4 {
		t.Fatalf("expected 4 days, got %d", len(got.Days))
	}
	if !got.Days[0].OverTarget || got.Days[1].OverTarget {
		t.Fatalf("unexpected over-target flags: %+v", got.Days)
	}
	if got.DaysLogged != 2 || got.Totals.Burned != 250 || got.TopActivity != "Row" {
		t.Fatalf("unexpected range summary: %+v", got)
	}

	if _, err := svc.BuildRange(context.Background(), "u1", "2026-01-13", "2026-01-10"); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestFormatTimeAgo(t *testing.T) {
	t.Parallel()

	now := fixedNow
	cases := map[time.Duration]string{
		0:                   "0 minutes ago",
		59 * time.Minute:    "59 minutes ago",
		time.Hour:           "1 hours ago",
		23 * time.Hour:      "23 hours ago",
		24 * time.Hour:      "1 days ago",
		-5 * time.Minute:    "0 minutes ago",
		10 * 24 * time.Hour: "10 days ago",
	}
	for elapsed, want := range cases {
		if got := formatTimeAgo(now.Add(-elapsed), now); got != want {
			t.Fatalf("elapsed %s: expected %q, got %q", elapsed, want, got)
		}
	}
}

func floatPtr(v float64) *float64 { return &v }
