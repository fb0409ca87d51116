package mealplan

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// PlanDays is the number of days covered by one plan.
const PlanDays = 5

// MealType identifies one of the three meal slots in a day.
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes returns the meal slots in day order.
func MealTypes() []MealType {
	return []MealType{Breakfast, Lunch, Dinner}
}

func mealTypeRank(t MealType) int {
	switch t {
	case Breakfast:
		return 0
	case Lunch:
		return 1
	case Dinner:
		return 2
	}
	return 3
}

// Quantity is a free-form ingredient amount. Models emit it as either a
// JSON string ("1/2") or a bare number (2), so both are accepted.
type Quantity string

// UnmarshalJSON accepts strings and numbers.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*q = Quantity(n.String())
		return nil
	}
	return fmt.Errorf("quantity must be a string or number, got %s", string(data))
}

// Ingredient is one entry in a meal's ordered ingredient list.
type Ingredient struct {
	Name     string   `json:"name"`
	Quantity Quantity `json:"quantity"`
	Unit     string   `json:"unit"`
}

// Meal is a single generated meal. Calories are never stored; they are
// always derived from the macro grams via the 4/4/9 kcal rule.
type Meal struct {
	Day         int          `json:"day"`
	Type        MealType     `json:"meal_type"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Ingredients []Ingredient `json:"ingredients"`
	Recipe      string       `json:"recipe"`
	ProteinG    float64      `json:"protein"`
	CarbsG      float64      `json:"carbs"`
	FatG        float64      `json:"fat"`
}

// Calories derives the meal's calories from its macros. No rounding here;
// rounding happens only in display formatting.
func (m Meal) Calories() float64 {
	return 4*m.ProteinG + 4*m.CarbsG + 9*m.FatG
}

// Fingerprint returns a cheap identity string for exact-duplicate detection:
// the lowercased name joined with the three macro gram values.
func (m Meal) Fingerprint() string {
	return fmt.Sprintf("%s_%g_%g_%g",
		strings.ToLower(strings.TrimSpace(m.Name)), m.ProteinG, m.CarbsG, m.FatG)
}

// MealPlan is a complete 5-day plan: exactly one meal per (day, meal type)
// pair once complete, plus optional snacks and favorites carried over from
// the user profile.
type MealPlan struct {
	ID        string   `json:"id"`
	Meals     []Meal   `json:"meals"`
	Snacks    []string `json:"snacks,omitempty"`
	Favorites []string `json:"favorites,omitempty"`
}

// Sort orders meals by (day, meal type) in place.
func (p *MealPlan) Sort() {
	sort.SliceStable(p.Meals, func(i, j int) bool {
		if p.Meals[i].Day != p.Meals[j].Day {
			return p.Meals[i].Day < p.Meals[j].Day
		}
		return mealTypeRank(p.Meals[i].Type) < mealTypeRank(p.Meals[j].Type)
	})
}

// Find returns the meal for the given slot, or nil when absent.
func (p *MealPlan) Find(day int, t MealType) *Meal {
	for i := range p.Meals {
		if p.Meals[i].Day == day && p.Meals[i].Type == t {
			return &p.Meals[i]
		}
	}
	return nil
}

// MealsForDay returns all meals for the given day in slot order.
func (p *MealPlan) MealsForDay(day int) []Meal {
	var meals []Meal
	for _, t := range MealTypes() {
		if m := p.Find(day, t); m != nil {
			meals = append(meals, *m)
		}
	}
	return meals
}

// Clone returns a deep copy of the plan. The Revision Merge path mutates a
// copy so a failed revision leaves the original untouched.
func (p *MealPlan) Clone() *MealPlan {
	out := &MealPlan{ID: p.ID}
	out.Meals = make([]Meal, len(p.Meals))
	copy(out.Meals, p.Meals)
	for i := range out.Meals {
		ings := make([]Ingredient, len(p.Meals[i].Ingredients))
		copy(ings, p.Meals[i].Ingredients)
		out.Meals[i].Ingredients = ings
	}
	out.Snacks = append([]string(nil), p.Snacks...)
	out.Favorites = append([]string(nil), p.Favorites...)
	return out
}
