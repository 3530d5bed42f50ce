package analytics

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestBuildReportTotalsAndMacros(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = UserProfile{ID: "u1", Name: "Jane Doe!", Email: "jane@example.com", Goal: strPtr("Gain muscle")}
	store.addMeal("u1", fixedNow.Add(-time.Hour), 800, 50, 100, 20)
	store.addMeal("u1", fixedNow.AddDate(0, -2, 0), 600, 30, 60, 20)
	store.addActivity("u1", fixedNow.AddDate(0, 0, -3), "Run", 45, 400)
	store.addActivity("u1", fixedNow.AddDate(0, 0, -4), "", 15, 100)
	store.addMeal("u1", fixedNow.AddDate(-1, 0, 0), 5000, 0, 0, 0)

	report, err := newTestService(store).BuildReport(context.Background(), "u1", ReportRequest{Months: 6, Format: " JSON "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Format != FormatJSON || report.Months != 6 {
		t.Fatalf("unexpected request echo: format=%q months=%d", report.Format, report.Months)
	}
	if report.Window.Start.String() != "2025-08-16" || report.Window.End.String() != "2026-02-15" {
		t.Fatalf("unexpected window %s..%s", report.Window.Start, report.Window.End)
	}
	totals := report.Totals
	if totals.MealsLogged != 2 || totals.ActivitiesLogged != 2 {
		t.Fatalf("unexpected counts: %+v", totals)
	}
	if totals.CaloriesConsumed != 1400 || totals.CaloriesBurned != 500 || totals.NetCalories != 900 {
		t.Fatalf("unexpected calories: %+v", totals)
	}
	if totals.ActivityMinutes != 60 {
		t.Fatalf("expected 60 activity minutes, got %d", totals.ActivityMinutes)
	}
	if totals.AverageDailyIntake != 1400/report.Days || totals.AverageDailyBurn != 500/report.Days {
		t.Fatalf("expected integer-division averages over %d days, got %+v", report.Days, totals)
	}
	if report.Profile.DailyTarget != 3000 || report.Profile.Goal != "Gain muscle" {
		t.Fatalf("unexpected profile snapshot: %+v", report.Profile)
	}
	if report.FileName != "analytics_Jane_Doe__2026-02-15" {
		t.Fatalf("unexpected file name %q", report.FileName)
	}
	if len(report.Meals) != 2 || !report.Meals[0].LoggedAt.After(*report.Meals[1].LoggedAt) {
		t.Fatalf("expected newest-first meals, got %+v", report.Meals)
	}
	if report.Meals[0].Quantity != 1 {
		t.Fatalf("expected default quantity 1, got %v", report.Meals[0].Quantity)
	}

	var share float64
	for _, m := range report.Macros {
		share += m.Percent
	}
	if math.Abs(share-100) > 1e-9 {
		t.Fatalf("expected macro shares to sum to 100, got %v", share)
	}
	if report.Macros[0].Calories != 80*4 || report.Macros[2].Calories != 40*9 {
		t.Fatalf("unexpected macro calories: %+v", report.Macros)
	}
}

func TestBuildReportListingLimits(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = UserProfile{ID: "u1"}
	for i := 0; i < 150; i++ {
		store.addMeal("u1", fixedNow.Add(-time.Duration(i)*time.Hour), 100, 0, 0, 0)
		store.addActivity("u1", fixedNow.Add(-time.Duration(i)*time.Hour), "Walk", 10, 20)
	}
	svc := newTestService(store)

	for _, tc := range []struct {
		format string
		want   int
	}{
		{format: "csv", want: 100},
		{format: "json", want: 100},
		{format: "pdf", want: 12},
		{format: "xlsx", want: 100},
	} {
		report, err := svc.BuildReport(context.Background(), "u1", ReportRequest{Months: 1, Format: tc.format})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(report.Meals) != tc.want || len(report.Activities) != tc.want {
			t.Fatalf("format %s: expected %d rows, got %d/%d", tc.format, tc.want, len(report.Meals), len(report.Activities))
		}
		if report.Totals.MealsLogged != 150 {
			t.Fatalf("format %s: expected totals over every record, got %d", tc.format, report.Totals.MealsLogged)
		}
		if !report.Meals[0].LoggedAt.Equal(fixedNow) {
			t.Fatalf("format %s: expected newest meal first", tc.format)
		}
	}
}

func TestBuildReportClampsMonthsAndHonoursExplicitBounds(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.profiles["u1"] = UserProfile{ID: "u1"}
	svc := newTestService(store)

	report, err := svc.BuildReport(context.Background(), "u1", ReportRequest{Months: 99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Months != 24 || report.Window.Start.String() != "2024-02-16" {
		t.Fatalf("expected 24 month clamp, got months=%d start=%s", report.Months, report.Window.Start)
	}
	if report.Format != FormatCSV || report.TopActivity != "None" {
		t.Fatalf("expected csv default and no activity, got %q %q", report.Format, report.TopActivity)
	}

	report, err = svc.BuildReport(context.Background(), "u1", ReportRequest{Months: -3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Months != 1 || report.Window.Start.String() != "2026-01-16" {
		t.Fatalf("expected 1 month clamp, got months=%d start=%s", report.Months, report.Window.Start)
	}

	report, err = svc.BuildReport(context.Background(), "u1", ReportRequest{Months: 6, From: "2026-01-01", To: "2026-01-31"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Days != 31 {
		t.Fatalf("expected explicit 31 day window, got %d", report.Days)
	}
	if report.Macros[0].Percent != 0 {
		t.Fatalf("expected zero share without meals, got %v", report.Macros[0].Percent)
	}

	if _, err := svc.BuildReport(context.Background(), "u1", ReportRequest{From: "2026-02-01", To: "2026-01-01"}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := svc.BuildReport(context.Background(), "ghost", ReportRequest{Months: 6}); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestReportFileNameFallsBackToOwnerID(t *testing.T) {
	t.Parallel()

	got := reportFileName(UserProfile{}, "42", Date{Year: 2026, Month: time.March, Day: 9})
	if got != "analytics_user-42_2026-03-09" {
		t.Fatalf("unexpected file name %q", got)
	}
}
