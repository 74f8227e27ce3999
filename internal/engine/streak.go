package engine

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/templui/goalboard/internal/model"
)

const streakWindow = 24 * time.Hour

// Streak counts consecutive recent updates within rolling 24h windows.
//
// Goals are walked newest first from an anchor starting at now. Each goal
// updated within 24h of the anchor adds one and moves the anchor back 24h.
// The count is per goal, not per calendar day: three goals updated in the
// same hour give a streak of 3.
func Streak(goals []model.Goal, now time.Time) int {
	updates := lo.FilterMap(goals, func(g model.Goal, _ int) (time.Time, bool) {
		if g.LastUpdate == nil {
			return time.Time{}, false
		}
		return *g.LastUpdate, true
	})

	sort.Slice(updates, func(i, j int) bool {
		return updates[i].After(updates[j])
	})

	anchor := now
	streak := 0
	for _, last := range updates {
		if anchor.Sub(last) > streakWindow {
			break
		}
		streak++
		anchor = anchor.Add(-streakWindow)
	}

	return streak
}
