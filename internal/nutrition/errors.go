package nutrition

import (
	"fmt"
	"strings"
)

// Deviation is one macro's miss against its target.
type Deviation struct {
	Macro  string
	Target float64
	Actual float64
	Pct    float64
}

// MacroValidationError reports a day (or plan-level calorie check) failing
// its numeric targets. Recoverable inside the retry loop: its message is fed
// back into the next attempt's prompt.
type MacroValidationError struct {
	Day         int
	Reason      string
	Deviations  []Deviation
	Suggestions []string
}

func (e *MacroValidationError) Error() string {
	msg := fmt.Sprintf("day %d failed macro validation: %s", e.Day, e.Reason)
	if len(e.Suggestions) > 0 {
		msg += " (" + strings.Join(e.Suggestions, "; ") + ")"
	}
	return msg
}

// StructuralError reports missing (day, meal type) coverage or a malformed
// day payload.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "plan structure invalid: " + e.Reason
}

// DietaryViolationError reports a restricted ingredient keyword found in a
// meal.
type DietaryViolationError struct {
	MealName    string
	Ingredient  string
	Restriction string
}

func (e *DietaryViolationError) Error() string {
	return fmt.Sprintf("meal %q violates %s restriction: ingredient %q",
		e.MealName, e.Restriction, e.Ingredient)
}
