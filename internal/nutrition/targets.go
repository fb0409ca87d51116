package nutrition

import (
	"math"

	"macro-meal-planner/internal/mealplan"
)

// kcal per gram of each macro. Fixed, non-configurable.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

const (
	baseTolerance    = 0.20
	toleranceCap     = 0.05
	toleranceScale   = 0.02
	toleranceRefKcal = 2000
)

// Band holds a meal type's minimum/target/maximum calorie fractions of the
// daily total.
type Band struct {
	Min    float64
	Target float64
	Max    float64
}

// Targets is the derived per-day nutrition record for one generation run.
// Created once from the Profile and read-only afterwards.
type Targets struct {
	DailyCalories float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	MealBands     map[mealplan.MealType]Band

	// Tolerance is the allowed fractional deviation per macro: base 20%,
	// widened slightly as daily calories rise, capped at +5 points.
	Tolerance float64
}

// CalculateTargets derives per-day macro gram targets and tolerance from the
// profile. Absent input degrades to zero targets rather than erroring.
func CalculateTargets(p Profile) Targets {
	daily := p.WeekdayCalories
	proteinPct, carbsPct, fatPct := p.macroPercents()

	widening := math.Min(daily/toleranceRefKcal*toleranceScale, toleranceCap)

	return Targets{
		DailyCalories: daily,
		ProteinG:      math.Round(daily * (proteinPct / 100) / kcalPerGramProtein),
		CarbsG:        math.Round(daily * (carbsPct / 100) / kcalPerGramCarbs),
		FatG:          math.Round(daily * (fatPct / 100) / kcalPerGramFat),
		MealBands: map[mealplan.MealType]Band{
			mealplan.Breakfast: {Min: 0.25, Target: 0.30, Max: 0.35},
			mealplan.Lunch:     {Min: 0.30, Target: 0.35, Max: 0.40},
			mealplan.Dinner:    {Min: 0.30, Target: 0.35, Max: 0.40},
		},
		Tolerance: baseTolerance + widening,
	}
}

// MealCalorieBounds returns the minimum, target, and maximum calories for a
// meal slot, derived from its band and the daily target.
func (t Targets) MealCalorieBounds(mt mealplan.MealType) (min, target, max float64) {
	band := t.MealBands[mt]
	return band.Min * t.DailyCalories, band.Target * t.DailyCalories, band.Max * t.DailyCalories
}
