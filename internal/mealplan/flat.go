package mealplan

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// The persistence layer stores plans as flat field-keyed records, one field
// per (meal type, day, attribute): breakfast_1_name, breakfast_1_protein, …
// Flatten and Unflatten are the bidirectional pure transform between that
// shape and the MealPlan model.

const (
	fieldPlanID    = "plan_id"
	fieldSnacks    = "snacks"
	fieldFavorites = "favorites"
)

// Flatten converts a plan into the flat field-keyed record shape.
func Flatten(plan *MealPlan) (map[string]string, error) {
	fields := map[string]string{
		fieldPlanID: plan.ID,
	}

	for _, meal := range plan.Meals {
		prefix := fmt.Sprintf("%s_%d", meal.Type, meal.Day)

		ingredients, err := json.Marshal(meal.Ingredients)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ingredients for %s: %w", prefix, err)
		}

		fields[prefix+"_name"] = meal.Name
		fields[prefix+"_description"] = meal.Description
		fields[prefix+"_ingredients"] = string(ingredients)
		fields[prefix+"_recipe"] = meal.Recipe
		fields[prefix+"_protein"] = strconv.FormatFloat(meal.ProteinG, 'f', -1, 64)
		fields[prefix+"_carbs"] = strconv.FormatFloat(meal.CarbsG, 'f', -1, 64)
		fields[prefix+"_fat"] = strconv.FormatFloat(meal.FatG, 'f', -1, 64)
	}

	if len(plan.Snacks) > 0 {
		data, err := json.Marshal(plan.Snacks)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal snacks: %w", err)
		}
		fields[fieldSnacks] = string(data)
	}
	if len(plan.Favorites) > 0 {
		data, err := json.Marshal(plan.Favorites)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal favorites: %w", err)
		}
		fields[fieldFavorites] = string(data)
	}

	return fields, nil
}

// Unflatten reconstructs a plan from the flat record shape. Slots with no
// stored name are skipped; completeness is the structural validator's job,
// not this transform's.
func Unflatten(fields map[string]string) (*MealPlan, error) {
	plan := &MealPlan{ID: fields[fieldPlanID]}

	for day := 1; day <= PlanDays; day++ {
		for _, t := range MealTypes() {
			prefix := fmt.Sprintf("%s_%d", t, day)
			name, ok := fields[prefix+"_name"]
			if !ok || name == "" {
				continue
			}

			meal := Meal{
				Day:         day,
				Type:        t,
				Name:        name,
				Description: fields[prefix+"_description"],
				Recipe:      fields[prefix+"_recipe"],
			}

			if raw := fields[prefix+"_ingredients"]; raw != "" {
				if err := json.Unmarshal([]byte(raw), &meal.Ingredients); err != nil {
					return nil, fmt.Errorf("failed to unmarshal ingredients for %s: %w", prefix, err)
				}
			}

			var err error
			if meal.ProteinG, err = parseGrams(fields[prefix+"_protein"]); err != nil {
				return nil, fmt.Errorf("invalid protein value for %s: %w", prefix, err)
			}
			if meal.CarbsG, err = parseGrams(fields[prefix+"_carbs"]); err != nil {
				return nil, fmt.Errorf("invalid carbs value for %s: %w", prefix, err)
			}
			if meal.FatG, err = parseGrams(fields[prefix+"_fat"]); err != nil {
				return nil, fmt.Errorf("invalid fat value for %s: %w", prefix, err)
			}

			plan.Meals = append(plan.Meals, meal)
		}
	}

	if raw := fields[fieldSnacks]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &plan.Snacks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal snacks: %w", err)
		}
	}
	if raw := fields[fieldFavorites]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &plan.Favorites); err != nil {
			return nil, fmt.Errorf("failed to unmarshal favorites: %w", err)
		}
	}

	return plan, nil
}

func parseGrams(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
