package nutrition

import (
	"strings"

	"macro-meal-planner/internal/mealplan"
)

// restrictionKeywords maps each supported dietary restriction to the
// ingredient keywords that violate it. Matching is a case-insensitive
// substring search over ingredient names.
var restrictionKeywords = map[string][]string{
	"vegan": {
		"chicken", "beef", "pork", "lamb", "turkey", "bacon", "ham",
		"fish", "salmon", "tuna", "shrimp", "anchovy",
		"egg", "milk", "cheese", "butter", "cream", "yogurt", "whey", "honey", "gelatin",
	},
	"vegetarian": {
		"chicken", "beef", "pork", "lamb", "turkey", "bacon", "ham",
		"fish", "salmon", "tuna", "shrimp", "anchovy", "gelatin",
	},
	"gluten-free": {
		"wheat", "flour", "bread", "pasta", "couscous", "barley", "rye",
		"soy sauce", "breadcrumb", "cracker", "tortilla",
	},
	"dairy-free": {
		"milk", "cheese", "butter", "cream", "yogurt", "whey", "ghee",
	},
}

// normalizeRestriction maps free-form profile restriction strings onto the
// keyword table's keys ("gluten free", "Gluten-Free" -> "gluten-free").
func normalizeRestriction(r string) string {
	r = strings.ToLower(strings.TrimSpace(r))
	switch {
	case strings.Contains(r, "vegan"):
		return "vegan"
	case strings.Contains(r, "vegetarian"):
		return "vegetarian"
	case strings.Contains(r, "gluten"):
		return "gluten-free"
	case strings.Contains(r, "dairy") || strings.Contains(r, "lactose"):
		return "dairy-free"
	}
	return r
}

// CheckMeal scans the meal's ingredients against the user's dietary
// restrictions. Returns a DietaryViolationError for the first restricted
// ingredient found, or nil.
func CheckMeal(m mealplan.Meal, restrictions []string) error {
	for _, restriction := range restrictions {
		keywords, ok := restrictionKeywords[normalizeRestriction(restriction)]
		if !ok {
			continue
		}
		for _, ing := range m.Ingredients {
			name := strings.ToLower(ing.Name)
			for _, kw := range keywords {
				if strings.Contains(name, kw) {
					return &DietaryViolationError{
						MealName:    m.Name,
						Ingredient:  ing.Name,
						Restriction: normalizeRestriction(restriction),
					}
				}
			}
		}
	}
	return nil
}
