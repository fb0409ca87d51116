package planner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"macro-meal-planner/internal/llm"
	"macro-meal-planner/internal/mealplan"
	"macro-meal-planner/internal/nutrition"
	"macro-meal-planner/internal/shared"
)

// ProgressEvent is the one-way progress signal emitted as days generate.
// Fire-and-forget; dropping it never affects correctness.
type ProgressEvent struct {
	Day      int    `json:"day"`
	Message  string `json:"message"`
	Progress int    `json:"progress"`
}

// ProgressFunc consumes progress events. Injected at construction; there is
// no ambient global hook.
type ProgressFunc func(ProgressEvent)

// Planner drives day generation across all five days, owns the conversation
// history, and assembles the final plan. One logical thread of control per
// run; independent runs share nothing.
type Planner struct {
	chat       llm.ChatGenerator
	progress   ProgressFunc
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

// NewPlanner creates a Planner. progress may be nil.
func NewPlanner(chat llm.ChatGenerator, progress ProgressFunc, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{
		chat:       chat,
		progress:   progress,
		logger:     logger,
		newBackOff: newAttemptBackOff,
	}
}

func (p *Planner) emit(ev ProgressEvent) {
	if p.progress != nil {
		p.progress(ev)
	}
}

// GeneratePlan generates a complete 5-day plan for the profile. Days run
// strictly sequentially: each day's duplicate check depends on all prior
// days' accepted meals. A day that exhausts its retries gets one corrective
// retry at this level before the whole plan fails.
func (p *Planner) GeneratePlan(
	ctx context.Context,
	profile nutrition.Profile,
) (*mealplan.MealPlan, []shared.AgentMeta, error) {
	targets := nutrition.CalculateTargets(profile)
	convo := NewConversation()
	gen := NewDayGenerator(p.chat, profile, targets, p.logger)
	gen.newBackOff = p.newBackOff

	var accepted []mealplan.Meal
	var metas []shared.AgentMeta

	for day := 1; day <= mealplan.PlanDays; day++ {
		p.emit(ProgressEvent{
			Day:      day,
			Message:  fmt.Sprintf("Generating day %d of %d", day, mealplan.PlanDays),
			Progress: (day - 1) * 100 / mealplan.PlanDays,
		})

		convo.AddDigest(FormatDigestMessage(accepted))

		res, err := gen.GenerateDay(ctx, day, convo, accepted)
		metas = append(metas, res.Metas...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, metas, err
			}

			// One corrective retry at the orchestrator level, distinct
			// from the generator's own internal attempts.
			p.logger.Warn("day exhausted its attempts, running corrective retry",
				"day", day, "error", err)
			convo.AddError(day, fmt.Sprintf(
				"All attempts for day %d were rejected. Last failure: %v. Start this day from scratch with different meals.",
				day, err))

			res, err = gen.GenerateDay(ctx, day, convo, accepted)
			metas = append(metas, res.Metas...)
			if err != nil {
				return nil, metas, err
			}
		}

		accepted = append(accepted, res.Meals...)
		p.logger.Info("day accepted", "day", day, "attempts", res.Attempts)
	}

	plan := &mealplan.MealPlan{
		ID:        uuid.NewString(),
		Meals:     accepted,
		Snacks:    profile.Snacks,
		Favorites: profile.Favorites,
	}
	plan.Sort()

	if err := nutrition.ValidatePlan(plan, targets, profile.Restrictions); err != nil {
		return nil, metas, fmt.Errorf("assembled plan failed validation: %w", err)
	}

	p.emit(ProgressEvent{Day: mealplan.PlanDays, Message: "Plan complete", Progress: 100})
	return plan, metas, nil
}
