package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"macro-meal-planner/internal/mealplan"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		meal mealplan.Meal
		want Signature
	}{
		{
			name: "grilled chicken breast",
			meal: mealplan.Meal{Name: "Grilled Chicken Breast with Rice"},
			want: Signature{Protein: "chicken-breast", CookingMethod: "dry-heat", DishType: "rice-dish", Cuisine: CategoryOther},
		},
		{
			name: "plain chicken falls through the cuts",
			meal: mealplan.Meal{Name: "Chicken Noodle Soup"},
			want: Signature{Protein: "chicken", CookingMethod: CategoryOther, DishType: "soup", Cuisine: CategoryOther},
		},
		{
			name: "ground beef wins over generic beef",
			meal: mealplan.Meal{Name: "Ground Beef Tacos"},
			want: Signature{Protein: "beef-ground", CookingMethod: CategoryOther, DishType: CategoryOther, Cuisine: "mexican"},
		},
		{
			name: "ingredients count toward classification",
			meal: mealplan.Meal{
				Name:        "Garden Power Plate",
				Ingredients: []mealplan.Ingredient{{Name: "tofu"}, {Name: "soy sauce"}},
			},
			want: Signature{Protein: "tofu", CookingMethod: CategoryOther, DishType: CategoryOther, Cuisine: "asian"},
		},
		{
			name: "description counts toward classification",
			meal: mealplan.Meal{
				Name:        "Morning Stack",
				Description: "Fluffy pancakes with poached eggs on the side.",
			},
			want: Signature{Protein: "eggs", CookingMethod: "wet-heat", DishType: CategoryOther, Cuisine: CategoryOther},
		},
		{
			name: "nothing recognized",
			meal: mealplan.Meal{Name: "Mystery Platter"},
			want: Signature{Protein: CategoryOther, CookingMethod: CategoryOther, DishType: CategoryOther, Cuisine: CategoryOther},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.meal))
		})
	}
}

func TestPrincipalProtein(t *testing.T) {
	assert.Equal(t, "fish-salmon", PrincipalProtein(mealplan.Meal{Name: "Teriyaki Salmon Bowl"}))
	assert.Equal(t, CategoryOther, PrincipalProtein(mealplan.Meal{Name: "Fruit Medley"}))
}
