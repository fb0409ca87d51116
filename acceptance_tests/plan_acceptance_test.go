package acceptance_tests

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro-meal-planner/internal/database"
	"macro-meal-planner/internal/llm"
	"macro-meal-planner/internal/mealplan"
	"macro-meal-planner/internal/metrics"
	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/planner"
	"macro-meal-planner/internal/shared"
	"macro-meal-planner/internal/storage"
)

// --- Mock LLM client ---

type mockChatClient struct {
	responses []string
	calls     int
}

func (m *mockChatClient) GenerateChat(_ context.Context, _ llm.ChatRequest) (llm.ContentResponse, error) {
	if m.calls >= len(m.responses) {
		return llm.ContentResponse{}, errors.New("mock ran out of responses")
	}
	resp := llm.ContentResponse{
		Content: m.responses[m.calls],
		Usage: shared.TokenUsage{
			PromptTokens:     1000,
			CompletionTokens: 600,
			TotalTokens:      1600,
			Model:            "mock-model",
		},
	}
	m.calls++
	return resp, nil
}

// Fifteen mutually dissimilar meals whose daily totals hit the default
// targets for a 2000 kcal profile exactly.
var dayMenus = [mealplan.PlanDays][3]string{
	{"Scrambled Eggs on Sourdough", "Grilled Chicken Breast Quinoa Plate", "Pan Seared Salmon and Greens"},
	{"Greek Yogurt Berry Parfait", "Turkey Meatball Marinara Skillet", "Peppercorn Beef Sirloin Medallions"},
	{"Tofu Veggie Scramble", "Garlic Shrimp Zoodle Saute", "Ahi Tuna Poke Medley"},
	{"Smoked Ham Morning Hash", "Spiced Ground Beef Lettuce Cups", "Baked Cod and Root Vegetables"},
	{"Tempeh Sweet Potato Stack", "Smoky Chickpea Power Skillet", "Braised Chicken Thigh Provencal"},
}

var slotMacros = map[mealplan.MealType][3]float64{
	mealplan.Breakfast: {50, 50, 20},
	mealplan.Lunch:     {60, 60, 23},
	mealplan.Dinner:    {65, 65, 24},
}

func menuMeal(day int, slot mealplan.MealType, name string) mealplan.Meal {
	macros := slotMacros[slot]
	return mealplan.Meal{
		Day:         day,
		Type:        slot,
		Name:        name,
		Description: "A simple balanced meal.",
		Ingredients: []mealplan.Ingredient{{Name: "main ingredient", Quantity: "200", Unit: "g"}},
		Recipe:      "Cook and serve.",
		ProteinG:    macros[0],
		CarbsG:      macros[1],
		FatG:        macros[2],
	}
}

func menuDay(t *testing.T, day int) string {
	t.Helper()
	names := dayMenus[day-1]
	meals := []mealplan.Meal{
		menuMeal(day, mealplan.Breakfast, names[0]),
		menuMeal(day, mealplan.Lunch, names[1]),
		menuMeal(day, mealplan.Dinner, names[2]),
	}
	raw, err := json.Marshal(map[string]any{"meals": meals})
	require.NoError(t, err)
	return string(raw)
}

func TestPlanStoreReviseFlow(t *testing.T) {
	ctx := context.Background()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "acceptance.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := storage.NewRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	revisedDay := []mealplan.Meal{
		menuMeal(2, mealplan.Breakfast, dayMenus[1][0]),
		menuMeal(2, mealplan.Lunch, "Lemon Herb Turkey Rice Bowl"),
		menuMeal(2, mealplan.Dinner, dayMenus[1][2]),
	}
	revisionJSON, err := json.Marshal(map[string]any{"meals": revisedDay})
	require.NoError(t, err)

	chat := &mockChatClient{responses: []string{
		menuDay(t, 1), menuDay(t, 2), menuDay(t, 3), menuDay(t, 4), menuDay(t, 5),
		string(revisionJSON),
	}}

	profile := nutrition.Profile{
		UserID:          "user-1",
		Goal:            "maintenance",
		Portions:        1,
		WeekdayCalories: 2000,
		Snacks:          []string{"apple"},
	}

	// Generate.
	p := planner.NewPlanner(chat, nil, nil)
	plan, metas, err := p.GeneratePlan(ctx, profile)
	require.NoError(t, err)
	require.Len(t, plan.Meals, mealplan.PlanDays*3)
	require.Len(t, metas, mealplan.PlanDays)

	// Persist and reload.
	require.NoError(t, repo.StoreMealPlan(ctx, "user-1", "conv-1", plan))
	stored, err := repo.GetMealPlan(ctx, "user-1", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, plan, stored)

	// Revise one slot and persist again.
	reqs := []planner.RevisionRequest{{Day: 2, MealType: mealplan.Lunch, Change: "something lighter"}}
	revised, revMetas, err := p.RevisePlan(ctx, stored, reqs, profile)
	require.NoError(t, err)
	require.Len(t, revMetas, 1)
	assert.Equal(t, plan.ID, revised.ID)
	assert.Equal(t, "Lemon Herb Turkey Rice Bowl", revised.Find(2, mealplan.Lunch).Name)
	assert.Equal(t, dayMenus[0][1], revised.Find(1, mealplan.Lunch).Name)

	require.NoError(t, repo.StoreMealPlan(ctx, "user-1", "conv-1", revised))
	reloaded, err := repo.GetMealPlan(ctx, "user-1", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, revised, reloaded)

	// Token usage from every model call lands in the metrics store.
	for _, m := range append(metas, revMetas...) {
		require.NoError(t, metricsStore.RecordMeta(ctx, m))
	}
	usage, err := metricsStore.GetDailyUsage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, 6, usage[0].TotalExecution)
	assert.Equal(t, 6000, usage[0].TotalPrompt)
}
