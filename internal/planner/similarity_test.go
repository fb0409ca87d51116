package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macro-meal-planner/internal/mealplan"
)

func namedMeal(day int, name string, ingredients ...string) mealplan.Meal {
	m := mealplan.Meal{
		Day:      day,
		Type:     mealplan.Lunch,
		Name:     name,
		ProteinG: 40,
		CarbsG:   50,
		FatG:     15,
	}
	for _, ing := range ingredients {
		m.Ingredients = append(m.Ingredients, mealplan.Ingredient{Name: ing})
	}
	return m
}

func TestCheckExactFingerprintMatch(t *testing.T) {
	c := NewSimilarityChecker()
	c.Seed([]mealplan.Meal{namedMeal(1, "Lentil Curry")})

	// Same name and macros is a duplicate even on the same day.
	err := c.Check(namedMeal(1, "Lentil Curry"))
	var dup *DuplicateMealError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "Lentil Curry", dup.Name)

	err = c.Check(namedMeal(3, "lentil curry "))
	assert.ErrorAs(t, err, &dup)
}

func TestCheckNameContainment(t *testing.T) {
	c := NewSimilarityChecker()
	c.Seed([]mealplan.Meal{namedMeal(1, "Chicken Stir Fry")})

	m := namedMeal(2, "Spicy Chicken Stir Fry")
	m.ProteinG = 55
	err := c.Check(m)
	var dup *DuplicateMealError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, 2, dup.Day)
}

func TestCheckNameOverlap(t *testing.T) {
	c := NewSimilarityChecker()
	c.Seed([]mealplan.Meal{namedMeal(1, "Roasted Vegetable Couscous Bowl")})

	m := namedMeal(3, "Roasted Couscous Vegetable Plate")
	m.FatG = 22
	err := c.Check(m)
	var dup *DuplicateMealError
	require.ErrorAs(t, err, &dup)
}

func TestCheckIngredientOverlapWithSimilarName(t *testing.T) {
	base := namedMeal(1, "Quinoa Power Salad", "quinoa", "cucumber", "feta", "tomato")
	c := NewSimilarityChecker()
	c.Seed([]mealplan.Meal{base})

	// Two of five significant words shared, ingredient sets nearly identical.
	m := namedMeal(4, "Mediterranean Quinoa Salad", "quinoa", "cucumber", "feta", "tomato")
	m.CarbsG = 60
	err := c.Check(m)
	var dup *DuplicateMealError
	require.ErrorAs(t, err, &dup)
	assert.Contains(t, dup.Reason, "ingredients")
}

func TestCheckCategoricalCollision(t *testing.T) {
	c := NewSimilarityChecker()
	c.Seed([]mealplan.Meal{namedMeal(1, "Grilled Chicken Pilaf")})

	// Same protein, method, and dish with no confident cuisine on one side.
	err := c.Check(namedMeal(2, "Roasted Chicken Rice Platter"))
	var dup *DuplicateMealError
	require.ErrorAs(t, err, &dup)
	assert.Contains(t, dup.Reason, "profile")
}

func TestCheckCuisineOverridesCategoricalCollision(t *testing.T) {
	c := NewSimilarityChecker()
	c.Seed([]mealplan.Meal{namedMeal(1, "Grilled Chicken Parmesan Risotto")})

	// Same structural profile, but both cuisines are confidently detected
	// and differ.
	err := c.Check(namedMeal(2, "Roasted Chicken Pilaf with Lemongrass"))
	assert.NoError(t, err)
}

func TestCheckSkipsSameDayFuzzyMatch(t *testing.T) {
	breakfast := namedMeal(1, "Protein Pancakes")
	breakfast.Type = mealplan.Breakfast

	c := NewSimilarityChecker()
	require.NoError(t, c.Check(breakfast))

	lunch := namedMeal(1, "Pancake Stack Special")
	lunch.ProteinG = 45
	assert.NoError(t, c.Check(lunch))

	// The same structural pairing across days does flag.
	otherDay := namedMeal(2, "Pancake Stack Deluxe")
	otherDay.ProteinG = 48
	err := c.Check(otherDay)
	var dup *DuplicateMealError
	assert.ErrorAs(t, err, &dup)
}

func TestCheckRegistersAcceptedMeals(t *testing.T) {
	c := NewSimilarityChecker()
	require.NoError(t, c.Check(namedMeal(1, "Lentil Curry")))

	err := c.Check(namedMeal(2, "Hearty Lentil Curry"))
	var dup *DuplicateMealError
	assert.ErrorAs(t, err, &dup)
}

func TestNameOverlapRatio(t *testing.T) {
	assert.Equal(t, 0.0, nameOverlapRatio("a an to", "beef stew"))
	assert.InDelta(t, 0.5, nameOverlapRatio("beef noodle stew soup", "beef stew"), 1e-9)
	assert.InDelta(t, 1.0, nameOverlapRatio("beef stew", "stew beef"), 1e-9)
}
