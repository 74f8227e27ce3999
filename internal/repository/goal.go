package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalboard/internal/model"
)

const (
	GoalSortCreated  = "created"
	GoalSortRecent   = "recent"
	GoalSortProgress = "progress"
	GoalSortTitle    = "title"
)

var ErrGoalNotFound = model.ErrGoalNotFound

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, ownerID, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, ownerID, sortBy string) ([]model.Goal, error)
	PublicGoals(ctx context.Context, ownerIDs []string) ([]model.PublicGoal, error)
	Update(ctx context.Context, goal *model.Goal) error
	Delete(ctx context.Context, ownerID, goalID string) error
	SetPinned(ctx context.Context, ownerID, goalID string) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, owner_id, title, description, category, start_date, end_date,
	              target_value, current_value, unit, direction, step_size, progress, is_pinned,
	              participation_count, last_update, is_public, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.OwnerID,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.StartDate,
		goal.EndDate,
		goal.TargetValue,
		goal.CurrentValue,
		goal.Unit,
		goal.Direction,
		goal.StepSize,
		goal.Progress,
		goal.IsPinned,
		goal.ParticipationCount,
		goal.LastUpdate,
		goal.Public,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *goalRepository) ByID(ctx context.Context, ownerID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND owner_id = $2`

	err := r.db.GetContext(ctx, goal, query, goalID, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

// Goals returns the owner's whole collection. The default order is creation
// order, which keeps the collection stable across mutations.
func (r *goalRepository) Goals(ctx context.Context, ownerID, sortBy string) ([]model.Goal, error) {
	goals := []model.Goal{}

	var orderBy string
	switch sortBy {
	case GoalSortRecent:
		orderBy = "ORDER BY updated_at DESC, id ASC"
	case GoalSortProgress:
		orderBy = "ORDER BY current_value / target_value DESC, id ASC"
	case GoalSortTitle:
		orderBy = "ORDER BY LOWER(title) ASC, id ASC"
	default: // GoalSortCreated or empty
		orderBy = "ORDER BY created_at ASC, id ASC"
	}

	query := `SELECT * FROM goals WHERE owner_id = $1 ` + orderBy

	err := r.db.SelectContext(ctx, &goals, query, ownerID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// PublicGoals returns the public goals of the given owners with their display names.
func (r *goalRepository) PublicGoals(ctx context.Context, ownerIDs []string) ([]model.PublicGoal, error) {
	goals := []model.PublicGoal{}
	if len(ownerIDs) == 0 {
		return goals, nil
	}

	query, args, err := sqlx.In(`SELECT g.*, COALESCE(p.name, '') AS owner_name
	          FROM goals g
	          LEFT JOIN profiles p ON p.user_id = g.owner_id
	          WHERE g.is_public = TRUE AND g.owner_id IN (?)
	          ORDER BY g.updated_at DESC, g.id ASC`, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build public goals query: %w", err)
	}

	err = r.db.SelectContext(ctx, &goals, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) Update(ctx context.Context, goal *model.Goal) error {
	query := `UPDATE goals
	          SET title = $1, description = $2, category = $3, start_date = $4, end_date = $5,
	              target_value = $6, current_value = $7, unit = $8, direction = $9, step_size = $10,
	              progress = $11, last_update = $12, is_public = $13, updated_at = $14
	          WHERE id = $15 AND owner_id = $16`

	result, err := r.db.ExecContext(ctx, query,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.StartDate,
		goal.EndDate,
		goal.TargetValue,
		goal.CurrentValue,
		goal.Unit,
		goal.Direction,
		goal.StepSize,
		goal.Progress,
		goal.LastUpdate,
		goal.Public,
		time.Now(),
		goal.ID,
		goal.OwnerID,
	)
	if err != nil {
		return err
	}

	return expectRow(result, ErrGoalNotFound)
}

func (r *goalRepository) Delete(ctx context.Context, ownerID, goalID string) error {
	query := `DELETE FROM goals WHERE id = $1 AND owner_id = $2`
	result, err := r.db.ExecContext(ctx, query, goalID, ownerID)
	if err != nil {
		return err
	}

	return expectRow(result, ErrGoalNotFound)
}

// SetPinned makes goalID the owner's only pinned goal. An empty goalID unpins
// everything. Both steps run in one transaction so the one-pin index never
// sees two pinned rows.
func (r *goalRepository) SetPinned(ctx context.Context, ownerID, goalID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	_, err = tx.ExecContext(ctx, `UPDATE goals SET is_pinned = FALSE, updated_at = $1
	          WHERE owner_id = $2 AND is_pinned = TRUE`, now, ownerID)
	if err != nil {
		return fmt.Errorf("failed to clear pins: %w", err)
	}

	if goalID != "" {
		result, err := tx.ExecContext(ctx, `UPDATE goals SET is_pinned = TRUE, updated_at = $1
	              WHERE id = $2 AND owner_id = $3`, now, goalID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to pin goal: %w", err)
		}
		if err := expectRow(result, ErrGoalNotFound); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func expectRow(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
