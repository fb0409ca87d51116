package planner

import (
	"context"
	"fmt"

	"macro-meal-planner/internal/llm"
	"macro-meal-planner/internal/mealplan"
	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/shared"
)

// RevisionRequest names one slot to change and what the user wants instead.
type RevisionRequest struct {
	Day      int
	MealType mealplan.MealType
	Change   string
}

// RevisePlan regenerates the requested slots of an approved plan. The
// returned plan is a copy with the same ID; only the affected days are
// re-validated. The input plan is never mutated.
func (p *Planner) RevisePlan(
	ctx context.Context,
	plan *mealplan.MealPlan,
	reqs []RevisionRequest,
	profile nutrition.Profile,
) (*mealplan.MealPlan, []shared.AgentMeta, error) {
	if len(reqs) == 0 {
		return plan.Clone(), nil, nil
	}

	targets := nutrition.CalculateTargets(profile)
	affectedDays := make(map[int]bool)
	for _, r := range reqs {
		if r.Day < 1 || r.Day > mealplan.PlanDays {
			return nil, nil, &ParseError{Msg: fmt.Sprintf("revision names day %d, valid days are 1-%d", r.Day, mealplan.PlanDays)}
		}
		if plan.Find(r.Day, r.MealType) == nil {
			return nil, nil, &ParseError{Msg: fmt.Sprintf("revision names day %d %s, which the plan does not contain", r.Day, r.MealType)}
		}
		affectedDays[r.Day] = true
	}

	bo := p.newBackOff()
	var metas []shared.AgentMeta
	var lastErr error

	for attempt := 1; attempt <= maxDayAttempts; attempt++ {
		revised, meta, err := p.attemptRevision(ctx, plan, reqs, targets, profile, affectedDays, attempt, lastErr)
		metas = append(metas, meta)
		if err == nil {
			return revised, metas, nil
		}
		if ctx.Err() != nil {
			return nil, metas, ctx.Err()
		}

		lastErr = err
		p.logger.Warn("revision attempt rejected", "attempt", attempt, "error", err)

		if attempt < maxDayAttempts {
			if err := sleepBackOff(ctx, bo); err != nil {
				return nil, metas, err
			}
		}
	}

	return nil, metas, &ExhaustedRetriesError{Day: 0, Attempts: maxDayAttempts, Last: lastErr}
}

func (p *Planner) attemptRevision(
	ctx context.Context,
	plan *mealplan.MealPlan,
	reqs []RevisionRequest,
	targets nutrition.Targets,
	profile nutrition.Profile,
	affectedDays map[int]bool,
	attempt int,
	lastErr error,
) (*mealplan.MealPlan, shared.AgentMeta, error) {
	meta := shared.AgentMeta{AgentName: "RevisionAgent", Attempts: attempt}

	lastFailure := ""
	if lastErr != nil {
		lastFailure = lastErr.Error()
	}
	prompt, err := buildRevisionPrompt(plan, reqs, targets, profile, lastFailure)
	if err != nil {
		return nil, meta, err
	}

	resp, err := p.chat.GenerateChat(ctx, llm.ChatRequest{
		System:      daySystemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: attemptTemperature(attempt),
		MaxTokens:   dayMaxTokens,
	})
	meta.Usage = resp.Usage
	if err != nil {
		return nil, meta, fmt.Errorf("model call failed: %w", err)
	}

	meals, err := ParseMealsResponse(resp.Content)
	if err != nil {
		return nil, meta, err
	}

	revised := plan.Clone()
	for _, m := range meals {
		if !affectedDays[m.Day] {
			// The model may only touch the days it was asked to revise.
			return nil, meta, &ParseError{Msg: fmt.Sprintf("revision response changed day %d, which was not requested", m.Day)}
		}
		if slot := revised.Find(m.Day, m.Type); slot != nil {
			*slot = m
		} else {
			revised.Meals = append(revised.Meals, m)
		}
	}
	revised.Sort()

	for day := range affectedDays {
		dayMeals := revised.MealsForDay(day)
		if err := nutrition.ValidateDay(dayMeals, targets).Err(day); err != nil {
			return nil, meta, err
		}
		for _, m := range dayMeals {
			if err := nutrition.CheckMeal(m, profile.Restrictions); err != nil {
				return nil, meta, err
			}
		}
	}

	return revised, meta, nil
}
