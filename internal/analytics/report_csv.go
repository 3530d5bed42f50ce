package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

const csvTimeLayout = "2006-01-02T15:04"

func timeOrEmpty(value *time.Time, loc *time.Location) string {
	if value == nil {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	return value.In(loc).Format(csvTimeLayout)
}

// WriteReportCSV lays the report out as a metadata block, a metric table and
// the two record listings, separated by blank lines.
func WriteReportCSV(w io.Writer, report Report, loc *time.Location) error {
	writer := csv.NewWriter(w)
	itoa := strconv.Itoa
	totals := report.Totals

	records := [][]string{
		{"Report Type", "Advanced Analytics"},
		{"User", report.Profile.Name},
		{"Period Months", itoa(report.Months)},
		{"Date Range", report.Window.Start.String() + " to " + report.Window.End.String()},
		{},
		{"Metric", "Value"},
		{"Meals Logged", itoa(totals.MealsLogged)},
		{"Activities Logged", itoa(totals.ActivitiesLogged)},
		{"Total Calories Consumed", itoa(totals.CaloriesConsumed)},
		{"Total Calories Burned", itoa(totals.CaloriesBurned)},
		{"Net Calories", itoa(totals.NetCalories)},
		{"Average Daily Intake", itoa(totals.AverageDailyIntake)},
		{"Average Daily Burn", itoa(totals.AverageDailyBurn)},
		{"Activity Duration (min)", itoa(totals.ActivityMinutes)},
		{"Total Protein (g)", itoa(totals.Protein)},
		{"Total Carbs (g)", itoa(totals.Carbs)},
		{"Total Fats (g)", itoa(totals.Fats)},
		{},
		{"Macro", "Grams", "Calories", "Share (%)"},
	}
	for _, m := range report.Macros {
		records = append(records, []string{m.Macro, itoa(m.Grams), itoa(m.Calories), strconv.FormatFloat(m.Percent, 'f', 1, 64)})
	}

	records = append(records,
		[]string{},
		[]string{"Recent Meals"},
		[]string{"Date", "Name", "Calories", "Protein", "Carbs", "Fats", "Meal Type", "Quantity", "Unit"},
	)
	for _, m := range report.Meals {
		records = append(records, []string{
			timeOrEmpty(m.LoggedAt, loc),
			m.Name,
			itoa(m.Calories),
			itoa(m.Protein),
			itoa(m.Carbs),
			itoa(m.Fats),
			m.MealType,
			strconv.FormatFloat(m.Quantity, 'f', -1, 64),
			m.Unit,
		})
	}

	records = append(records,
		[]string{},
		[]string{"Recent Activities"},
		[]string{"Date", "Type", "Duration (min)", "Calories Burned"},
	)
	for _, act := range report.Activities {
		records = append(records, []string{
			timeOrEmpty(act.LoggedAt, loc),
			act.Type,
			itoa(act.DurationMinutes),
			itoa(act.CaloriesBurned),
		})
	}

	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
