package planner

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"macro-meal-planner/internal/mealplan"
	"macro-meal-planner/internal/nutrition"
)

//go:embed day_system_prompt.md
var daySystemPrompt string

//go:embed day_system_compact.md
var daySystemCompact string

//go:embed day_prompt.md
var dayPrompt string

//go:embed revision_prompt.md
var revisionPrompt string

// Days 1-2 get the full system instruction; later days switch to the
// compacted one to save tokens.
const compactSystemFromDay = 3

func systemInstruction(day int) string {
	if day >= compactSystemFromDay {
		return daySystemCompact
	}
	return daySystemPrompt
}

var promptFuncs = template.FuncMap{
	"join": strings.Join,
}

type mealSlot struct {
	Type           mealplan.MealType
	MinCalories    float64
	TargetCalories float64
	MaxCalories    float64
}

type previousMeal struct {
	Day     int
	Type    mealplan.MealType
	Name    string
	Protein string
}

type dayPromptData struct {
	Day           int
	Goal          string
	Portions      int
	Restrictions  []string
	Preferences   []string
	DailyCalories float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	TolerancePct  float64
	Slots         []mealSlot
	Previous      []previousMeal
	FailureReason string
}

func buildDayPrompt(
	day int,
	targets nutrition.Targets,
	profile nutrition.Profile,
	accepted []mealplan.Meal,
	lastFailure string,
) (string, error) {
	data := dayPromptData{
		Day:           day,
		Goal:          profile.Goal,
		Portions:      profile.Portions,
		Restrictions:  profile.Restrictions,
		Preferences:   profile.Preferences,
		DailyCalories: targets.DailyCalories,
		ProteinG:      targets.ProteinG,
		CarbsG:        targets.CarbsG,
		FatG:          targets.FatG,
		TolerancePct:  targets.Tolerance * 100,
		Previous:      mealsDigest(accepted),
		FailureReason: lastFailure,
	}
	for _, mt := range mealplan.MealTypes() {
		min, target, max := targets.MealCalorieBounds(mt)
		data.Slots = append(data.Slots, mealSlot{
			Type:           mt,
			MinCalories:    min,
			TargetCalories: target,
			MaxCalories:    max,
		})
	}

	return renderPrompt("day", dayPrompt, data)
}

// mealsDigest is the compact previously-accepted-meals listing: day, slot,
// name, and principal protein only, to bound prompt size.
func mealsDigest(accepted []mealplan.Meal) []previousMeal {
	digest := make([]previousMeal, 0, len(accepted))
	for _, m := range accepted {
		digest = append(digest, previousMeal{
			Day:     m.Day,
			Type:    m.Type,
			Name:    m.Name,
			Protein: PrincipalProtein(m),
		})
	}
	return digest
}

// FormatDigestMessage renders the digest as a standalone conversation
// message, maintained by the orchestrator and retained by trimming.
func FormatDigestMessage(accepted []mealplan.Meal) string {
	if len(accepted) == 0 {
		return "No meals have been planned yet."
	}
	var b strings.Builder
	b.WriteString("Meals planned so far:\n")
	for _, d := range mealsDigest(accepted) {
		fmt.Fprintf(&b, "- Day %d %s: %s (%s)\n", d.Day, d.Type, d.Name, d.Protein)
	}
	return b.String()
}

type revisionDayData struct {
	Day   int
	Meals []revisionMealData
}

type revisionMealData struct {
	Type        mealplan.MealType
	Name        string
	Description string
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	Change      string
}

type revisionPromptData struct {
	Days          []revisionDayData
	DailyCalories float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	TolerancePct  float64
	Restrictions  []string
	FailureReason string
}

func buildRevisionPrompt(
	plan *mealplan.MealPlan,
	reqs []RevisionRequest,
	targets nutrition.Targets,
	profile nutrition.Profile,
	lastFailure string,
) (string, error) {
	changes := make(map[int]map[mealplan.MealType]string)
	for _, r := range reqs {
		if changes[r.Day] == nil {
			changes[r.Day] = make(map[mealplan.MealType]string)
		}
		changes[r.Day][r.MealType] = r.Change
	}

	data := revisionPromptData{
		DailyCalories: targets.DailyCalories,
		ProteinG:      targets.ProteinG,
		CarbsG:        targets.CarbsG,
		FatG:          targets.FatG,
		TolerancePct:  targets.Tolerance * 100,
		Restrictions:  profile.Restrictions,
		FailureReason: lastFailure,
	}

	for day := 1; day <= mealplan.PlanDays; day++ {
		dayChanges, affected := changes[day]
		if !affected {
			continue
		}
		dd := revisionDayData{Day: day}
		for _, m := range plan.MealsForDay(day) {
			md := revisionMealData{
				Type:     m.Type,
				Name:     m.Name,
				ProteinG: m.ProteinG,
				CarbsG:   m.CarbsG,
				FatG:     m.FatG,
				Change:   dayChanges[m.Type],
			}
			// Full detail only for the meals being changed; name and
			// macros suffice for the rest of the day.
			if md.Change != "" {
				md.Description = m.Description
			}
			dd.Meals = append(dd.Meals, md)
		}
		data.Days = append(data.Days, dd)
	}

	return renderPrompt("revision", revisionPrompt, data)
}

func renderPrompt(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Funcs(promptFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s prompt template: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}
