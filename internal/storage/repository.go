package storage

import (
	"context"
	"database/sql"
	"fmt"

	"macro-meal-planner/internal/mealplan"
)

// Repository persists meal plans in the flat field-keyed shape: one row per
// (user, conversation, field). A conversation holds at most one plan; storing
// a new plan replaces the previous one atomically.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a Repository backed by an open database connection.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// StoreMealPlan writes the plan for a user's conversation, replacing any
// previously stored plan in the same conversation.
func (r *Repository) StoreMealPlan(ctx context.Context, userID, conversationID string, plan *mealplan.MealPlan) error {
	fields, err := mealplan.Flatten(plan)
	if err != nil {
		return fmt.Errorf("failed to flatten meal plan: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM meal_plan_fields WHERE user_id = ? AND conversation_id = ?`,
		userID, conversationID,
	); err != nil {
		return fmt.Errorf("failed to clear previous plan: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO meal_plan_fields (plan_id, user_id, conversation_id, field, value) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for field, value := range fields {
		if _, err := stmt.ExecContext(ctx, plan.ID, userID, conversationID, field, value); err != nil {
			return fmt.Errorf("failed to insert field %s: %w", field, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}
	return nil
}

// GetMealPlan loads the plan stored for a user's conversation. Returns
// sql.ErrNoRows when nothing is stored.
func (r *Repository) GetMealPlan(ctx context.Context, userID, conversationID string) (*mealplan.MealPlan, error) {
	fields, err := r.GetAllUserData(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, sql.ErrNoRows
	}

	plan, err := mealplan.Unflatten(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild meal plan: %w", err)
	}
	return plan, nil
}

// GetMealPlanByID loads a plan by its plan identifier.
func (r *Repository) GetMealPlanByID(ctx context.Context, planID string) (*mealplan.MealPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT field, value FROM meal_plan_fields WHERE plan_id = ?`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan %s: %w", planID, err)
	}
	defer rows.Close()

	fields, err := collectFields(rows)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, sql.ErrNoRows
	}

	plan, err := mealplan.Unflatten(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild meal plan %s: %w", planID, err)
	}
	return plan, nil
}

// GetAllUserData returns the raw field map stored for a user's conversation.
func (r *Repository) GetAllUserData(ctx context.Context, userID, conversationID string) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT field, value FROM meal_plan_fields WHERE user_id = ? AND conversation_id = ?`,
		userID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user data: %w", err)
	}
	defer rows.Close()

	return collectFields(rows)
}

// DeleteMealPlan removes the plan stored for a user's conversation.
func (r *Repository) DeleteMealPlan(ctx context.Context, userID, conversationID string) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM meal_plan_fields WHERE user_id = ? AND conversation_id = ?`,
		userID, conversationID,
	); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}

func collectFields(rows *sql.Rows) (map[string]string, error) {
	fields := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("failed to scan field row: %w", err)
		}
		fields[field] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate field rows: %w", err)
	}
	return fields, nil
}
