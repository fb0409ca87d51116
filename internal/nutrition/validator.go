package nutrition

import (
	"fmt"
	"math"
	"strings"

	"macro-meal-planner/internal/mealplan"
)

// Plan-level calorie sanity range: each day's total must land within
// 70%-130% of the daily target.
const (
	dayCalorieFloorPct   = 0.70
	dayCalorieCeilingPct = 1.30
	mealFloorLeniency    = 0.75
)

// Result is the transient outcome of validating one day's meals. Consumed
// immediately by the retry loop, never persisted.
type Result struct {
	Valid       bool
	Reason      string
	Deviations  []Deviation
	Suggestions []string
}

// Err converts an invalid Result into a MacroValidationError for the given
// day. Returns nil for valid results.
func (r Result) Err(day int) error {
	if r.Valid {
		return nil
	}
	return &MacroValidationError{
		Day:         day,
		Reason:      r.Reason,
		Deviations:  r.Deviations,
		Suggestions: r.Suggestions,
	}
}

// ValidateDay checks one day's aggregate meals against the targets. All four
// checks (calories, protein, carbs, fat) must pass; any single failure
// invalidates the whole day.
func ValidateDay(meals []mealplan.Meal, t Targets) Result {
	var protein, carbs, fat float64
	for _, m := range meals {
		protein += m.ProteinG
		carbs += m.CarbsG
		fat += m.FatG
	}
	calories := kcalPerGramProtein*protein + kcalPerGramCarbs*carbs + kcalPerGramFat*fat

	checks := []struct {
		name   string
		unit   string
		target float64
		actual float64
	}{
		{"calories", "kcal", t.DailyCalories, calories},
		{"protein", "g", t.ProteinG, protein},
		{"carbs", "g", t.CarbsG, carbs},
		{"fat", "g", t.FatG, fat},
	}

	res := Result{Valid: true}
	var failures []string

	for _, c := range checks {
		lower := c.target * (1 - t.Tolerance)
		upper := c.target * (1 + t.Tolerance)
		if c.actual >= lower && c.actual <= upper {
			continue
		}

		res.Valid = false
		pct := 0.0
		if c.target != 0 {
			pct = (c.actual - c.target) / c.target * 100
		}
		res.Deviations = append(res.Deviations, Deviation{
			Macro:  c.name,
			Target: c.target,
			Actual: c.actual,
			Pct:    pct,
		})

		delta := math.Abs(c.target - c.actual)
		if c.actual < lower {
			res.Suggestions = append(res.Suggestions,
				fmt.Sprintf("increase %s by ~%.0f%s", c.name, delta, c.unit))
		} else {
			res.Suggestions = append(res.Suggestions,
				fmt.Sprintf("reduce %s by ~%.0f%s", c.name, delta, c.unit))
		}
		failures = append(failures, fmt.Sprintf("%s %.0f%s vs target %.0f%s (%+.1f%%)",
			c.name, c.actual, c.unit, c.target, c.unit, pct))
	}

	if !res.Valid {
		res.Reason = strings.Join(failures, ", ")
	}
	return res
}

// ValidatePlan runs the structural checks on a fully assembled plan:
// complete (day, meal type) coverage, a lenient per-meal calorie floor,
// dietary restriction keywords, and per-day calorie range. Returns the first
// failure found, or nil.
func ValidatePlan(plan *mealplan.MealPlan, t Targets, restrictions []string) error {
	var missing []string
	for day := 1; day <= mealplan.PlanDays; day++ {
		for _, mt := range mealplan.MealTypes() {
			if plan.Find(day, mt) == nil {
				missing = append(missing, fmt.Sprintf("%s day %d", mt, day))
			}
		}
	}
	if len(missing) > 0 {
		return &StructuralError{Reason: "missing meals: " + strings.Join(missing, ", ")}
	}
	if len(plan.Meals) != mealplan.PlanDays*len(mealplan.MealTypes()) {
		return &StructuralError{
			Reason: fmt.Sprintf("expected %d meals, found %d", mealplan.PlanDays*len(mealplan.MealTypes()), len(plan.Meals)),
		}
	}

	for _, m := range plan.Meals {
		if err := checkMealFloor(m, t); err != nil {
			return err
		}
		if err := CheckMeal(m, restrictions); err != nil {
			return err
		}
	}

	for day := 1; day <= mealplan.PlanDays; day++ {
		if err := checkDayRange(day, plan.MealsForDay(day), t); err != nil {
			return err
		}
	}

	return nil
}

// checkMealFloor enforces a lenient per-meal calorie floor: 75% of the meal
// type's minimum fraction of the daily target. Failures carry remediation
// hints keyed off common low-calorie naming patterns.
func checkMealFloor(m mealplan.Meal, t Targets) error {
	minCal, _, _ := t.MealCalorieBounds(m.Type)
	floor := minCal * mealFloorLeniency
	cal := m.Calories()
	if cal >= floor {
		return nil
	}

	suggestions := []string{
		fmt.Sprintf("add roughly %.0f more calories to this meal", floor-cal),
	}
	name := strings.ToLower(m.Name)
	if strings.Contains(name, "egg white") {
		suggestions = append(suggestions, "replace egg whites with whole eggs for more calories and fat")
	}
	if strings.Contains(name, "skim") || strings.Contains(name, "low-fat") || strings.Contains(name, "low fat") {
		suggestions = append(suggestions, "swap skim/low-fat items for their full-fat versions")
	}

	return &MacroValidationError{
		Day: m.Day,
		Reason: fmt.Sprintf("%s %q has only %.0f kcal, below the %.0f kcal floor for %s",
			m.Type, m.Name, cal, floor, m.Type),
		Suggestions: suggestions,
	}
}

// checkDayRange verifies the day's total calories land within 70%-130% of
// the daily target, attaching a per-meal breakdown on failure.
func checkDayRange(day int, meals []mealplan.Meal, t Targets) error {
	if t.DailyCalories == 0 {
		return nil
	}

	var total float64
	breakdown := make([]string, 0, len(meals))
	for _, m := range meals {
		total += m.Calories()
		breakdown = append(breakdown, fmt.Sprintf("%s %.0f kcal", m.Type, m.Calories()))
	}

	lower := t.DailyCalories * dayCalorieFloorPct
	upper := t.DailyCalories * dayCalorieCeilingPct
	if total >= lower && total <= upper {
		return nil
	}

	return &MacroValidationError{
		Day: day,
		Reason: fmt.Sprintf("day %d totals %.0f kcal, outside %.0f-%.0f kcal (%s)",
			day, total, lower, upper, strings.Join(breakdown, ", ")),
	}
}
