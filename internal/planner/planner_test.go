package planner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro-meal-planner/internal/llm"
	"macro-meal-planner/internal/mealplan"
	"macro-meal-planner/internal/nutrition"
)

// scriptedChat replays canned responses in order and records every request.
type scriptedChat struct {
	responses []llm.ContentResponse
	errs      []error
	requests  []llm.ChatRequest
}

func (s *scriptedChat) GenerateChat(_ context.Context, req llm.ChatRequest) (llm.ContentResponse, error) {
	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i >= len(s.responses) {
		return llm.ContentResponse{}, errors.New("scripted chat ran out of responses")
	}
	if i < len(s.errs) && s.errs[i] != nil {
		return llm.ContentResponse{}, s.errs[i]
	}
	return s.responses[i], nil
}

func respondWith(contents ...string) []llm.ContentResponse {
	out := make([]llm.ContentResponse, 0, len(contents))
	for _, c := range contents {
		out = append(out, llm.ContentResponse{Content: c})
	}
	return out
}

func noBackOff() backoff.BackOff {
	return &backoff.ZeroBackOff{}
}

func testProfile() nutrition.Profile {
	return nutrition.Profile{
		UserID:          "user-42",
		Goal:            "maintenance",
		Portions:        1,
		WeekdayCalories: 2000,
		Snacks:          []string{"apple", "almonds"},
		Favorites:       []string{"salmon"},
	}
}

var mealMacros = map[mealplan.MealType][3]float64{
	mealplan.Breakfast: {50, 50, 20},
	mealplan.Lunch:     {60, 60, 23},
	mealplan.Dinner:    {65, 65, 24},
}

// sampleDays holds five days of mutually dissimilar meals: every meal uses a
// different principal protein and the names share almost no words.
var sampleDays = [mealplan.PlanDays][3]struct{ name, protein string }{
	{
		{"Scrambled Eggs on Sourdough", "eggs"},
		{"Grilled Chicken Breast Quinoa Plate", "chicken breast"},
		{"Pan Seared Salmon and Greens", "salmon fillet"},
	},
	{
		{"Greek Yogurt Berry Parfait", "greek yogurt"},
		{"Turkey Meatball Marinara Skillet", "turkey mince"},
		{"Peppercorn Beef Sirloin Medallions", "sirloin"},
	},
	{
		{"Tofu Veggie Scramble", "tofu"},
		{"Garlic Shrimp Zoodle Saute", "shrimp"},
		{"Ahi Tuna Poke Medley", "tuna"},
	},
	{
		{"Smoked Ham Morning Hash", "ham"},
		{"Spiced Ground Beef Lettuce Cups", "ground beef"},
		{"Baked Cod and Root Vegetables", "cod"},
	},
	{
		{"Tempeh Sweet Potato Stack", "tempeh"},
		{"Smoky Chickpea Power Skillet", "chickpeas"},
		{"Braised Chicken Thigh Provencal", "chicken thigh"},
	},
}

func buildMeal(day int, mt mealplan.MealType, name, proteinIng string) mealplan.Meal {
	macros := mealMacros[mt]
	return mealplan.Meal{
		Day:         day,
		Type:        mt,
		Name:        name,
		Description: "A simple balanced meal.",
		Ingredients: []mealplan.Ingredient{
			{Name: proteinIng, Quantity: "200", Unit: "g"},
			{Name: "olive oil", Quantity: "1", Unit: "tbsp"},
			{Name: "broccoli florets", Quantity: "80", Unit: "g"},
		},
		Recipe:   "Season, cook, and serve.",
		ProteinG: macros[0],
		CarbsG:   macros[1],
		FatG:     macros[2],
	}
}

func sampleDayMeals(day int) []mealplan.Meal {
	slots := sampleDays[day-1]
	return []mealplan.Meal{
		buildMeal(day, mealplan.Breakfast, slots[0].name, slots[0].protein),
		buildMeal(day, mealplan.Lunch, slots[1].name, slots[1].protein),
		buildMeal(day, mealplan.Dinner, slots[2].name, slots[2].protein),
	}
}

func dayResponse(t *testing.T, meals []mealplan.Meal) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"meals": meals})
	require.NoError(t, err)
	return string(raw)
}

func sampleResponses(t *testing.T) []string {
	t.Helper()
	out := make([]string, 0, mealplan.PlanDays)
	for day := 1; day <= mealplan.PlanDays; day++ {
		out = append(out, dayResponse(t, sampleDayMeals(day)))
	}
	return out
}

func TestGeneratePlan(t *testing.T) {
	chat := &scriptedChat{responses: respondWith(sampleResponses(t)...)}

	var events []ProgressEvent
	p := NewPlanner(chat, func(ev ProgressEvent) { events = append(events, ev) }, nil)

	plan, metas, err := p.GeneratePlan(context.Background(), testProfile())
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.NotEmpty(t, plan.ID)
	assert.Len(t, plan.Meals, mealplan.PlanDays*3)
	assert.Equal(t, []string{"apple", "almonds"}, plan.Snacks)
	assert.Equal(t, []string{"salmon"}, plan.Favorites)
	assert.Len(t, metas, mealplan.PlanDays)
	assert.Len(t, chat.requests, mealplan.PlanDays)

	// Sorted by day then slot.
	require.NotEmpty(t, plan.Meals)
	assert.Equal(t, 1, plan.Meals[0].Day)
	assert.Equal(t, mealplan.Breakfast, plan.Meals[0].Type)
	assert.Equal(t, mealplan.PlanDays, plan.Meals[len(plan.Meals)-1].Day)
	assert.Equal(t, mealplan.Dinner, plan.Meals[len(plan.Meals)-1].Type)

	names := make(map[string]bool)
	for _, m := range plan.Meals {
		names[m.Name] = true
	}
	assert.Len(t, names, mealplan.PlanDays*3)

	require.NotEmpty(t, events)
	assert.Equal(t, 0, events[0].Progress)
	assert.Equal(t, 1, events[0].Day)
	assert.Equal(t, 100, events[len(events)-1].Progress)
}

func TestGeneratePlanLaterDaysUseCompactSystem(t *testing.T) {
	chat := &scriptedChat{responses: respondWith(sampleResponses(t)...)}
	p := NewPlanner(chat, nil, nil)

	_, _, err := p.GeneratePlan(context.Background(), testProfile())
	require.NoError(t, err)
	require.Len(t, chat.requests, mealplan.PlanDays)

	assert.Equal(t, daySystemPrompt, chat.requests[0].System)
	assert.Equal(t, daySystemPrompt, chat.requests[1].System)
	for i := 2; i < mealplan.PlanDays; i++ {
		assert.Equal(t, daySystemCompact, chat.requests[i].System)
	}
}

func TestGeneratePlanCorrectiveRetry(t *testing.T) {
	// Day 3 burns all generator attempts on unparseable output, then the
	// planner-level corrective retry succeeds.
	responses := []string{
		dayResponse(t, sampleDayMeals(1)),
		dayResponse(t, sampleDayMeals(2)),
		"no json here", "still no json", "nothing",
		dayResponse(t, sampleDayMeals(3)),
		dayResponse(t, sampleDayMeals(4)),
		dayResponse(t, sampleDayMeals(5)),
	}
	chat := &scriptedChat{responses: respondWith(responses...)}
	p := NewPlanner(chat, nil, nil)
	p.newBackOff = noBackOff

	plan, metas, err := p.GeneratePlan(context.Background(), testProfile())
	require.NoError(t, err)
	assert.Len(t, plan.Meals, mealplan.PlanDays*3)
	assert.Len(t, metas, len(responses))
}

func TestGeneratePlanFailsWhenCorrectiveRetryExhausts(t *testing.T) {
	responses := []string{
		dayResponse(t, sampleDayMeals(1)),
		"junk", "junk", "junk",
		"junk", "junk", "junk",
	}
	chat := &scriptedChat{responses: respondWith(responses...)}
	p := NewPlanner(chat, nil, nil)
	p.newBackOff = noBackOff

	_, _, err := p.GeneratePlan(context.Background(), testProfile())
	require.Error(t, err)

	var exhausted *ExhaustedRetriesError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, exhausted.Day)
	assert.Equal(t, maxDayAttempts, exhausted.Attempts)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
