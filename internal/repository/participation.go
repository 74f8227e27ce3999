package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/templui/goalboard/internal/model"
)

// ErrGoalCompleted is returned when a participation would advance a goal
// whose progress already reached 100.
var ErrGoalCompleted = errors.New("goal already completed")

type ParticipationRepository interface {
	Record(ctx context.Context, ownerID string, p *model.Participation) error
	Participations(ctx context.Context, goalID string) ([]model.Participation, error)
}

type participationRepository struct {
	db *sqlx.DB
}

func NewParticipationRepository(db *sqlx.DB) ParticipationRepository {
	return &participationRepository{db: db}
}

// Record stores a participation event and advances the goal's counters in
// one transaction. The goal must belong to ownerID and still be below 100%
// progress; the check and the increment are a single UPDATE so concurrent
// participations cannot push a goal past completion. A stored progress value
// is cleared so the advanced current value drives progress from then on.
func (r *participationRepository) Record(ctx context.Context, ownerID string, p *model.Participation) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `UPDATE goals
	          SET participation_count = participation_count + 1,
	              current_value = current_value + $1,
	              progress = NULL,
	              last_update = $2,
	              updated_at = $2
	          WHERE id = $3 AND owner_id = $4
	            AND COALESCE(progress, current_value * 100.0 / target_value) < 100`,
		p.Amount, p.CreatedAt, p.GoalID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to advance goal: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		var exists int
		err = tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM goals WHERE id = $1 AND owner_id = $2`, p.GoalID, ownerID)
		if err != nil {
			return fmt.Errorf("failed to look up goal: %w", err)
		}
		if exists == 0 {
			return ErrGoalNotFound
		}
		return ErrGoalCompleted
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO goal_participations (id, goal_id, participant_id, amount, created_at)
	          VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.GoalID, p.ParticipantID, p.Amount, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record participation: %w", err)
	}

	return tx.Commit()
}

func (r *participationRepository) Participations(ctx context.Context, goalID string) ([]model.Participation, error) {
	participations := []model.Participation{}
	query := `SELECT * FROM goal_participations WHERE goal_id = $1 ORDER BY created_at ASC`

	err := r.db.SelectContext(ctx, &participations, query, goalID)
	if err != nil {
		return nil, err
	}

	return participations, nil
}
