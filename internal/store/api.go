package store

import (
	"context"

	"github.com/templui/goalboard/internal/model"
)

// API is the goal persistence backend. Every mutation answers with the
// owner's complete, current goal collection.
type API interface {
	FetchGoals(ctx context.Context, ownerID string) ([]model.Goal, error)
	CreateGoal(ctx context.Context, ownerID string, draft model.GoalDraft) ([]model.Goal, error)
	UpdateGoal(ctx context.Context, ownerID, goalID string, patch model.GoalPatch) ([]model.Goal, error)
	DeleteGoal(ctx context.Context, ownerID, goalID string) ([]model.Goal, error)
	Participate(ctx context.Context, ownerID, goalID string) ([]model.Goal, error)
	PersistPinBatch(ctx context.Context, ownerID string, batch []model.Goal) ([]model.Goal, error)
	FetchFriendsGoals(ctx context.Context, ownerID string) ([]model.PublicGoal, error)
}
