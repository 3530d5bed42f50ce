package analytics

import "strings"

const (
	loseCalorieTarget     = 2000
	maintainCalorieTarget = 2500
	gainCalorieTarget     = 3000
	defaultCalorieTarget  = 2200
)

type Targets struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fats     int `json:"fats"`
}

// ResolveTargets derives calorie and macro targets for p. Nothing is stored;
// callers recompute per request.
func ResolveTargets(p UserProfile) Targets {
	return MacroTargets(CalorieTarget(p))
}

// CalorieTarget uses the explicit target when set, otherwise classifies the
// goal label by substring in lose, maintain, gain order.
func CalorieTarget(p UserProfile) int {
	if p.DailyCalorieTarget != nil {
		return *p.DailyCalorieTarget
	}
	if p.Goal == nil {
		return defaultCalorieTarget
	}
	goal := strings.ToLower(strings.TrimSpace(*p.Goal))
	switch {
	case strings.Contains(goal, "lose"):
		return loseCalorieTarget
	case strings.Contains(goal, "maintain"):
		return maintainCalorieTarget
	case strings.Contains(goal, "gain"):
		return gainCalorieTarget
	default:
		return defaultCalorieTarget
	}
}

// MacroTargets splits calories 30/40/30 into protein/carbs/fats grams at
// 4/4/9 kcal per gram, flooring each.
func MacroTargets(calories int) Targets {
	return Targets{
		Calories: calories,
		Protein:  floorDiv(calories*30, 400),
		Carbs:    floorDiv(calories*40, 400),
		Fats:     floorDiv(calories*30, 900),
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
