package planner

import (
	"strings"

	"macro-meal-planner/internal/mealplan"
)

// Meals are bucketed along four independent axes (protein, cooking method,
// dish type, cuisine) by keyword search over their text fields. The tables
// are static; matching is pure (text in, category out) so each axis is
// testable on its own. Order matters: the first matching category wins.

// CategoryOther is the catch-all for text matching no keywords. A cuisine of
// CategoryOther counts as "not confidently detected".
const CategoryOther = "other"

type category struct {
	name     string
	keywords []string
}

var proteinCategories = []category{
	{"chicken-breast", []string{"chicken breast", "chicken fillet"}},
	{"chicken-thigh", []string{"chicken thigh", "chicken leg", "drumstick"}},
	{"chicken", []string{"chicken"}},
	{"turkey", []string{"turkey"}},
	{"beef-ground", []string{"ground beef", "minced beef", "beef mince"}},
	{"beef-steak", []string{"steak", "sirloin", "ribeye", "beef"}},
	{"pork", []string{"pork", "bacon", "ham", "prosciutto"}},
	{"fish-salmon", []string{"salmon"}},
	{"fish-tuna", []string{"tuna"}},
	{"fish-white", []string{"cod", "tilapia", "halibut", "haddock", "sea bass", "white fish"}},
	{"shrimp", []string{"shrimp", "prawn"}},
	{"tofu", []string{"tofu"}},
	{"tempeh", []string{"tempeh"}},
	{"beans", []string{"bean", "chickpea", "lentil", "legume"}},
	{"eggs", []string{"egg"}},
	{"dairy", []string{"cottage cheese", "greek yogurt", "yogurt", "paneer"}},
}

var cookingMethodCategories = []category{
	{"dry-heat", []string{"grill", "roast", "bake", "broil", "air fry", "air-fry"}},
	{"wet-heat", []string{"boil", "steam", "poach", "simmer", "stew", "braise"}},
	{"fat-based", []string{"stir-fry", "stir fry", "pan-fry", "pan fry", "saute", "sauté", "fried", "fry"}},
	{"cold-prep", []string{"salad", "no-cook", "overnight", "raw", "chilled", "cold"}},
	{"combination", []string{"casserole", "curry", "chili", "slow cook", "slow-cook"}},
}

var dishTypeCategories = []category{
	{"soup", []string{"soup", "broth", "bisque", "chowder"}},
	{"salad", []string{"salad", "slaw"}},
	{"sandwich", []string{"sandwich", "wrap", "burger", "toast", "bagel"}},
	{"pasta", []string{"pasta", "spaghetti", "penne", "lasagna", "noodle"}},
	{"rice-dish", []string{"rice", "risotto", "paella", "fried rice", "pilaf"}},
	{"casserole", []string{"casserole", "bake", "gratin"}},
	{"stir-fry", []string{"stir-fry", "stir fry"}},
	{"roast", []string{"roast", "roasted"}},
	{"curry", []string{"curry", "masala", "tikka"}},
	{"bowl", []string{"bowl"}},
}

var cuisineCategories = []category{
	{"italian", []string{"italian", "pasta", "risotto", "parmesan", "pesto", "marinara", "lasagna"}},
	{"mexican", []string{"mexican", "taco", "burrito", "quesadilla", "salsa", "enchilada", "fajita"}},
	{"thai", []string{"thai", "pad thai", "lemongrass", "green curry", "red curry"}},
	{"japanese", []string{"japanese", "teriyaki", "sushi", "miso", "ramen", "katsu"}},
	{"indian", []string{"indian", "tikka", "masala", "tandoori", "dal", "biryani"}},
	{"middle-eastern", []string{"middle eastern", "falafel", "hummus", "shawarma", "tahini", "za'atar"}},
	{"mediterranean", []string{"mediterranean", "greek", "feta", "tzatziki", "olive"}},
	{"french", []string{"french", "ratatouille", "provencal", "au gratin", "coq au vin"}},
	{"asian", []string{"asian", "soy sauce", "ginger", "sesame", "stir-fry", "stir fry", "wok"}},
	{"american", []string{"american", "bbq", "barbecue", "burger", "mac and cheese", "meatloaf"}},
}

func classify(cats []category, text string) string {
	for _, c := range cats {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return c.name
			}
		}
	}
	return CategoryOther
}

// mealSearchText is the haystack for keyword classification: name,
// ingredients, and description, lowercased.
func mealSearchText(m mealplan.Meal) string {
	var b strings.Builder
	b.WriteString(m.Name)
	b.WriteString(" ")
	for _, ing := range m.Ingredients {
		b.WriteString(ing.Name)
		b.WriteString(" ")
	}
	b.WriteString(m.Description)
	return strings.ToLower(b.String())
}

// Signature is the categorical tuple inferred from a meal's text fields.
type Signature struct {
	Protein       string
	CookingMethod string
	DishType      string
	Cuisine       string
}

// Categorize infers the meal's categorical signature.
func Categorize(m mealplan.Meal) Signature {
	text := mealSearchText(m)
	return Signature{
		Protein:       classify(proteinCategories, text),
		CookingMethod: classify(cookingMethodCategories, text),
		DishType:      classify(dishTypeCategories, text),
		Cuisine:       classify(cuisineCategories, text),
	}
}

// PrincipalProtein returns the meal's protein category for use in compact
// prompt digests.
func PrincipalProtein(m mealplan.Meal) string {
	return classify(proteinCategories, mealSearchText(m))
}
