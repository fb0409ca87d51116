package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro-meal-planner/internal/mealplan"
)

func TestProfileFromRequest(t *testing.T) {
	p := profileFromRequest("7", "I want to lose weight on 1800 kcal, vegetarian, 40/30/30 split")

	assert.Equal(t, "7", p.UserID)
	assert.Equal(t, "weight loss", p.Goal)
	assert.Equal(t, 1800.0, p.WeekdayCalories)
	assert.Equal(t, "40/30/30", p.MacroSplit)
	assert.Equal(t, []string{"vegetarian"}, p.Restrictions)
}

func TestProfileFromRequestDefaults(t *testing.T) {
	p := profileFromRequest("7", "plan my meals please")

	assert.Equal(t, "maintenance", p.Goal)
	assert.Equal(t, 2000.0, p.WeekdayCalories)
	assert.Empty(t, p.MacroSplit)
	assert.Empty(t, p.Restrictions)
}

func TestReviseCommandParsing(t *testing.T) {
	m := reviseRe.FindStringSubmatch("/revise 3 lunch make it spicier and dairy-free")
	require.NotNil(t, m)
	assert.Equal(t, "3", m[1])
	assert.Equal(t, "lunch", m[2])
	assert.Equal(t, "make it spicier and dairy-free", m[3])

	assert.Nil(t, reviseRe.FindStringSubmatch("/revise lunch tomorrow"))
	assert.Nil(t, reviseRe.FindStringSubmatch("/revise 3 brunch something"))
}

func TestFormatPlanMarkdown(t *testing.T) {
	plan := &mealplan.MealPlan{
		ID: "plan-1",
		Meals: []mealplan.Meal{
			{Day: 1, Type: mealplan.Breakfast, Name: "Overnight Oats", ProteinG: 25, CarbsG: 60, FatG: 12},
			{Day: 1, Type: mealplan.Lunch, Name: "Chicken Wrap", ProteinG: 45, CarbsG: 55, FatG: 18},
		},
		Snacks: []string{"apple", "almonds"},
	}

	out := formatPlanMarkdown(plan)
	assert.Contains(t, out, "*Day 1*")
	assert.Contains(t, out, "Overnight Oats")
	assert.Contains(t, out, "448 kcal")
	assert.Contains(t, out, "25p/60c/12f")
	assert.Contains(t, out, "apple, almonds")
	assert.Contains(t, out, "/revise")
	assert.Equal(t, 1, strings.Count(out, "*Day 1*"))
	assert.NotContains(t, out, "*Day 2*")
}
