package planner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"

	"macro-meal-planner/internal/llm"
	"macro-meal-planner/internal/mealplan"
	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/shared"
)

const (
	maxDayAttempts = 3
	dayMaxTokens   = 4096
)

// attemptTemperature cools the model down as attempts accumulate:
// 0.7, 0.5, 0.3, floored at 0.3.
func attemptTemperature(attempt int) float32 {
	return float32(math.Max(0.3, 0.7-0.2*float64(attempt-1)))
}

// newAttemptBackOff builds the inter-attempt sleep schedule:
// 1s, 2s, 4s, … capped at 5s.
func newAttemptBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// sleepBackOff waits for the next backoff interval or until the context is
// cancelled.
func sleepBackOff(ctx context.Context, b backoff.BackOff) error {
	d := b.NextBackOff()
	if d == backoff.Stop {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DayGenerator produces one validated day of meals, retrying with adjusted
// prompts and decreasing temperature until the day passes or attempts run
// out.
type DayGenerator struct {
	chat        llm.ChatGenerator
	profile     nutrition.Profile
	targets     nutrition.Targets
	maxAttempts int
	newBackOff  func() backoff.BackOff
	logger      *slog.Logger
}

// NewDayGenerator creates a DayGenerator for one run.
func NewDayGenerator(
	chat llm.ChatGenerator,
	profile nutrition.Profile,
	targets nutrition.Targets,
	logger *slog.Logger,
) *DayGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DayGenerator{
		chat:        chat,
		profile:     profile,
		targets:     targets,
		maxAttempts: maxDayAttempts,
		newBackOff:  newAttemptBackOff,
		logger:      logger,
	}
}

// DayResult is one day's accepted meals plus per-attempt metadata.
type DayResult struct {
	Meals    []mealplan.Meal
	Attempts int
	Metas    []shared.AgentMeta
}

// GenerateDay runs the drafting/validating/retrying cycle for one day. The
// attempt counter and the last failure are threaded explicitly; recoverable
// failures feed their message verbatim into the next attempt's prompt.
func (g *DayGenerator) GenerateDay(
	ctx context.Context,
	day int,
	convo *Conversation,
	accepted []mealplan.Meal,
) (DayResult, error) {
	res := DayResult{}
	bo := g.newBackOff()
	var lastErr error

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		res.Attempts = attempt

		meals, meta, err := g.attemptDay(ctx, day, attempt, convo, accepted, lastErr)
		res.Metas = append(res.Metas, meta)
		if err == nil {
			convo.AddAck(day)
			res.Meals = meals
			return res, nil
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}

		lastErr = err
		g.logger.Warn("day attempt rejected",
			"day", day, "attempt", attempt, "error", err)
		convo.AddError(day, err.Error())

		if attempt < g.maxAttempts {
			if err := sleepBackOff(ctx, bo); err != nil {
				return res, err
			}
		}
	}

	return res, &ExhaustedRetriesError{Day: day, Attempts: g.maxAttempts, Last: lastErr}
}

func (g *DayGenerator) attemptDay(
	ctx context.Context,
	day, attempt int,
	convo *Conversation,
	accepted []mealplan.Meal,
	lastErr error,
) ([]mealplan.Meal, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "DayGenerator", Attempts: attempt}

	lastFailure := ""
	if lastErr != nil {
		lastFailure = lastErr.Error()
	}
	prompt, err := buildDayPrompt(day, g.targets, g.profile, accepted, lastFailure)
	if err != nil {
		return nil, meta, err
	}
	convo.AddPrompt(day, prompt)

	resp, err := g.chat.GenerateChat(ctx, llm.ChatRequest{
		System:      systemInstruction(day),
		Messages:    convo.Trimmed(day),
		Temperature: attemptTemperature(attempt),
		MaxTokens:   dayMaxTokens,
	})
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, fmt.Errorf("model call failed: %w", err)
	}
	convo.AddAssistant(day, resp.Content)

	meals, err := ParseMealsResponse(resp.Content)
	if err != nil {
		return nil, meta, err
	}

	if err := normalizeDayMeals(day, meals); err != nil {
		return nil, meta, err
	}

	// Duplicate check runs against a checker seeded from accepted meals
	// only, so a rejected attempt leaves no fingerprints behind.
	checker := NewSimilarityChecker()
	checker.Seed(accepted)
	for _, m := range meals {
		if err := checker.Check(m); err != nil {
			return nil, meta, err
		}
	}

	if err := nutrition.ValidateDay(meals, g.targets).Err(day); err != nil {
		return nil, meta, err
	}
	for _, m := range meals {
		if err := nutrition.CheckMeal(m, g.profile.Restrictions); err != nil {
			return nil, meta, err
		}
	}

	return meals, meta, nil
}

// normalizeDayMeals pins the meals to the requested day and requires exactly
// one meal per slot.
func normalizeDayMeals(day int, meals []mealplan.Meal) error {
	if len(meals) != len(mealplan.MealTypes()) {
		return &nutrition.StructuralError{
			Reason: fmt.Sprintf("day %d needs exactly %d meals, got %d",
				day, len(mealplan.MealTypes()), len(meals)),
		}
	}

	seen := make(map[mealplan.MealType]bool)
	for i := range meals {
		meals[i].Day = day
		seen[meals[i].Type] = true
	}
	for _, mt := range mealplan.MealTypes() {
		if !seen[mt] {
			return &nutrition.StructuralError{
				Reason: fmt.Sprintf("day %d is missing a %s", day, mt),
			}
		}
	}
	return nil
}
