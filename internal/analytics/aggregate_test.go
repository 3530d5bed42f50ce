package analytics

import (
	"reflect"
	"testing"
	"time"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(v string) *string { return &v }

func meal(at time.Time, calories, protein, carbs, fats int) MealRecord {
	return MealRecord{
		Name:     "meal",
		Calories: intPtr(calories),
		Protein:  intPtr(protein),
		Carbs:    intPtr(carbs),
		Fats:     intPtr(fats),
		LoggedAt: timePtr(at),
	}
}

func activity(at time.Time, kind string, minutes, burned int) ActivityRecord {
	return ActivityRecord{
		Type:            kind,
		DurationMinutes: intPtr(minutes),
		CaloriesBurned:  intPtr(burned),
		LoggedAt:        timePtr(at),
	}
}

func TestAggregateTreatsMissingFieldsAsZero(t *testing.T) {
	t.Parallel()

	day := time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)
	agg := Aggregate(
		[]MealRecord{
			meal(day, 500, 30, 60, 10),
			{Name: "water", LoggedAt: timePtr(day.Add(time.Hour))},
			{Name: "undated", Calories: intPtr(900)},
		},
		[]ActivityRecord{
			{Type: "", LoggedAt: timePtr(day)},
			{Type: "Run", CaloriesBurned: intPtr(300)},
		},
		time.UTC,
	)

	if len(agg.Days) != 1 {
		t.Fatalf("expected one bucketed day, got %d", len(agg.Days))
	}
	got := agg.Day(DateOf(day, time.UTC))
	want := DayTotals{Consumed: 500, Protein: 30, Carbs: 60, Fats: 10, MealCount: 2, ActivityCount: 1}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if agg.ActivityCounts["Activity"] != 1 {
		t.Fatalf("expected empty type counted as Activity, got %v", agg.ActivityCounts)
	}
	if _, ok := agg.ActivityCounts["Run"]; ok {
		t.Fatalf("expected undated activity to be skipped")
	}
	if zero := agg.Day(Date{Year: 2020, Month: time.January, Day: 1}); zero != (DayTotals{}) {
		t.Fatalf("expected zero totals for absent day, got %+v", zero)
	}
}

func TestAggregateBucketsByLocalDate(t *testing.T) {
	t.Parallel()

	kst := time.FixedZone("KST", 9*60*60)
	lateUTC := time.Date(2026, 2, 15, 20, 0, 0, 0, time.UTC)
	agg := Aggregate([]MealRecord{meal(lateUTC, 400, 0, 0, 0)}, nil, kst)
	if agg.Day(Date{Year: 2026, Month: time.February, Day: 16}).Consumed != 400 {
		t.Fatalf("expected meal bucketed on the KST date, got %+v", agg.Days)
	}
}

func TestAggregateIsAdditiveOverDisjointWindows(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	var meals []MealRecord
	var activities []ActivityRecord
	kinds := []string{"Run", "Yoga", "Swim", ""}
	for i := 0; i < 20; i++ {
		at := base.Add(time.Duration(i) * 13 * time.Hour)
		meals = append(meals, meal(at, 100+i*7, i, 2*i, i%5))
		if i%3 == 0 {
			activities = append(activities, activity(at, kinds[i%len(kinds)], 20+i, 50*i))
		}
	}
	split := DateOf(base, time.UTC).AddDays(5)

	var mealsA, mealsB []MealRecord
	for _, m := range meals {
		if DateOf(*m.LoggedAt, time.UTC).Before(split) {
			mealsA = append(mealsA, m)
		} else {
			mealsB = append(mealsB, m)
		}
	}
	var actsA, actsB []ActivityRecord
	for _, a := range activities {
		if DateOf(*a.LoggedAt, time.UTC).Before(split) {
			actsA = append(actsA, a)
		} else {
			actsB = append(actsB, a)
		}
	}

	whole := Aggregate(meals, activities, time.UTC)
	merged := Aggregate(mealsA, actsA, time.UTC).Merge(Aggregate(mealsB, actsB, time.UTC))

	if !reflect.DeepEqual(whole.Days, merged.Days) {
		t.Fatalf("expected equal day buckets\nwhole:  %+v\nmerged: %+v", whole.Days, merged.Days)
	}
	if !reflect.DeepEqual(whole.ActivityCounts, merged.ActivityCounts) {
		t.Fatalf("expected equal activity counts, got %v vs %v", whole.ActivityCounts, merged.ActivityCounts)
	}
	if whole.Total() != merged.Total() {
		t.Fatalf("expected equal totals, got %+v vs %+v", whole.Total(), merged.Total())
	}
	if whole.TopActivity() != merged.TopActivity() {
		t.Fatalf("expected equal top activity, got %q vs %q", whole.TopActivity(), merged.TopActivity())
	}
}

func TestTopActivity(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)
	if got := Aggregate(nil, nil, time.UTC).TopActivity(); got != "None" {
		t.Fatalf("expected None, got %q", got)
	}

	agg := Aggregate(nil, []ActivityRecord{
		activity(at, "Yoga", 30, 100),
		activity(at, "Run", 30, 300),
		activity(at, "Run", 30, 300),
		activity(at, "Yoga", 30, 100),
		activity(at, "Swim", 30, 200),
	}, time.UTC)
	if got := agg.TopActivity(); got != "Yoga" {
		t.Fatalf("expected first-seen tie winner Yoga, got %q", got)
	}
}

func TestCalorieTarget(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		profile UserProfile
		want    int
	}{
		{name: "explicit wins", profile: UserProfile{DailyCalorieTarget: intPtr(1750), Goal: strPtr("Lose Weight")}, want: 1750},
		{name: "lose", profile: UserProfile{Goal: strPtr("Lose Weight")}, want: 2000},
		{name: "maintain", profile: UserProfile{Goal: strPtr("  MAINTAIN ")}, want: 2500},
		{name: "gain", profile: UserProfile{Goal: strPtr("gain muscle")}, want: 3000},
		{name: "lose checked before gain", profile: UserProfile{Goal: strPtr("lose fat, gain muscle")}, want: 2000},
		{name: "unknown goal", profile: UserProfile{Goal: strPtr("run a marathon")}, want: 2200},
		{name: "no goal", profile: UserProfile{}, want: 2200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalorieTarget(tc.profile); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}

func TestResolveTargetsForLoseWeightGoal(t *testing.T) {
	t.Parallel()

	got := ResolveTargets(UserProfile{Goal: strPtr("Lose Weight")})
	want := Targets{Calories: 2000, Protein: 150, Carbs: 200, Fats: 66}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestMacroTargetsStayWithinFlooringLoss(t *testing.T) {
	t.Parallel()

	for calories := 0; calories <= 6000; calories += 37 {
		m := MacroTargets(calories)
		energy := m.Protein*4 + m.Carbs*4 + m.Fats*9
		if energy > calories {
			t.Fatalf("macro energy %d exceeds target %d", energy, calories)
		}
		// Each floor drops less than one gram of its macro.
		if calories-energy >= 4+4+9 {
			t.Fatalf("macro energy %d too far below target %d", energy, calories)
		}
	}
}
