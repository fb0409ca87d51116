package planner

import (
	"fmt"
	"strings"

	"macro-meal-planner/internal/mealplan"
)

// Name-overlap thresholds. Significant words (longer than 3 characters)
// drive the comparison so connector words don't inflate similarity.
const (
	nameOverlapDuplicate  = 0.7
	nameOverlapSuspicious = 0.4
	ingredientJaccardMax  = 0.7
	significantWordLen    = 3
)

// SimilarityChecker detects duplicate and near-duplicate meals across days.
// One instance per generation attempt, seeded from all accepted meals; never
// shared across runs. Check registers passing meals as a side effect.
type SimilarityChecker struct {
	fingerprints map[string]struct{}
	seen         []mealplan.Meal
}

// NewSimilarityChecker creates an empty checker.
func NewSimilarityChecker() *SimilarityChecker {
	return &SimilarityChecker{fingerprints: make(map[string]struct{})}
}

// Seed registers already-accepted meals without running any checks.
func (c *SimilarityChecker) Seed(meals []mealplan.Meal) {
	for _, m := range meals {
		c.register(m)
	}
}

func (c *SimilarityChecker) register(m mealplan.Meal) {
	c.fingerprints[m.Fingerprint()] = struct{}{}
	c.seen = append(c.seen, m)
}

// Check flags the meal as a duplicate of any previously registered meal, or
// registers it and returns nil. Exact fingerprint matches are flagged
// regardless of day; the fuzzier signals never compare meals on the same day
// (same-day diversity is the prompt's job, not this checker's).
func (c *SimilarityChecker) Check(m mealplan.Meal) error {
	if _, ok := c.fingerprints[m.Fingerprint()]; ok {
		return &DuplicateMealError{
			Day:    m.Day,
			Name:   m.Name,
			Reason: "identical name and macros",
		}
	}

	for _, prev := range c.seen {
		if prev.Day == m.Day {
			continue
		}
		if reason, dup := mealsSimilar(m, prev); dup {
			return &DuplicateMealError{Day: m.Day, Name: m.Name, Reason: reason}
		}
	}

	c.register(m)
	return nil
}

// mealsSimilar applies the non-exact duplicate signals between two meals on
// different days.
func mealsSimilar(a, b mealplan.Meal) (string, bool) {
	nameA := normalizeName(a.Name)
	nameB := normalizeName(b.Name)

	if nameA == nameB {
		return fmt.Sprintf("same name as day %d's %q", b.Day, b.Name), true
	}
	if nameA != "" && nameB != "" &&
		(strings.Contains(nameA, nameB) || strings.Contains(nameB, nameA)) {
		return fmt.Sprintf("name contains day %d's %q", b.Day, b.Name), true
	}

	overlap := nameOverlapRatio(nameA, nameB)
	if overlap >= nameOverlapDuplicate {
		return fmt.Sprintf("name overlaps %.0f%% with day %d's %q", overlap*100, b.Day, b.Name), true
	}

	// Somewhat-similar names plus near-identical ingredient sets.
	if overlap > nameOverlapSuspicious {
		if j := ingredientJaccard(a, b); j > ingredientJaccardMax {
			return fmt.Sprintf("ingredients %.0f%% identical to day %d's %q", j*100, b.Day, b.Name), true
		}
	}

	sigA := Categorize(a)
	sigB := Categorize(b)
	if sigA.Protein == sigB.Protein &&
		sigA.CookingMethod == sigB.CookingMethod &&
		sigA.DishType == sigB.DishType {
		// A confidently different cuisine pairing overrides the structural
		// match. One-sided "other" still flags: conservative toward
		// duplicates.
		if sigA.Cuisine != CategoryOther && sigB.Cuisine != CategoryOther && sigA.Cuisine != sigB.Cuisine {
			return "", false
		}
		return fmt.Sprintf("same protein/method/dish profile as day %d's %q (%s, %s, %s)",
			b.Day, b.Name, sigA.Protein, sigA.CookingMethod, sigA.DishType), true
	}

	return "", false
}

func normalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func significantWords(name string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(name) {
		if len(w) > significantWordLen {
			words[w] = struct{}{}
		}
	}
	return words
}

// nameOverlapRatio is the Jaccard-like ratio of shared significant words
// over the larger word set.
func nameOverlapRatio(a, b string) float64 {
	wordsA := significantWords(a)
	wordsB := significantWords(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	shared := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			shared++
		}
	}

	max := len(wordsA)
	if len(wordsB) > max {
		max = len(wordsB)
	}
	return float64(shared) / float64(max)
}

// ingredientJaccard is the Jaccard similarity of the two meals' normalized
// ingredient-name sets.
func ingredientJaccard(a, b mealplan.Meal) float64 {
	setA := ingredientSet(a)
	setB := ingredientSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	shared := 0
	for ing := range setA {
		if _, ok := setB[ing]; ok {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	return float64(shared) / float64(union)
}

func ingredientSet(m mealplan.Meal) map[string]struct{} {
	set := make(map[string]struct{})
	for _, ing := range m.Ingredients {
		if name := normalizeName(ing.Name); name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}
