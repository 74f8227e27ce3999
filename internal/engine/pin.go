package engine

import (
	"github.com/samber/lo"
	"github.com/templui/goalboard/internal/model"
)

var ErrGoalNotFound = model.ErrGoalNotFound

// TogglePin returns the pin batch to persist for a toggle on targetID.
//
// If the target is pinned the batch unpins everything. Otherwise the target is
// pinned and every other goal unpinned. Either way at most one goal in the
// batch is pinned. The input collection is left untouched.
func TogglePin(goals []model.Goal, targetID string) ([]model.Goal, error) {
	target, ok := lo.Find(goals, func(g model.Goal) bool {
		return g.ID == targetID
	})
	if !ok {
		return nil, ErrGoalNotFound
	}

	pin := !target.IsPinned
	batch := model.CloneGoals(goals)
	for i := range batch {
		batch[i].IsPinned = pin && batch[i].ID == targetID
	}

	return batch, nil
}

// Pinned returns the pinned goal, if any.
func Pinned(goals []model.Goal) (model.Goal, bool) {
	return lo.Find(goals, func(g model.Goal) bool {
		return g.IsPinned
	})
}

// PinnedCount returns how many goals are pinned. Anything above one breaks
// the single-pin invariant.
func PinnedCount(goals []model.Goal) int {
	return lo.CountBy(goals, func(g model.Goal) bool {
		return g.IsPinned
	})
}
