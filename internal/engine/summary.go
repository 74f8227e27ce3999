package engine

import (
	"time"

	"github.com/samber/lo"
	"github.com/templui/goalboard/internal/model"
)

// Summary holds the dashboard metrics for one owner's goals.
type Summary struct {
	Total           int         `json:"total"`
	New             int         `json:"new"`
	InProgress      int         `json:"inProgress"`
	Completed       int         `json:"completed"`
	Streak          int         `json:"streak"`
	AverageProgress float64     `json:"averageProgress"`
	Pinned          *model.Goal `json:"pinned,omitempty"`
}

func Summarize(goals []model.Goal, now time.Time) Summary {
	board := Partition(goals)

	summary := Summary{
		Total:      len(goals),
		New:        len(board.New),
		InProgress: len(board.InProgress),
		Completed:  len(board.Completed),
		Streak:     Streak(goals, now),
	}

	if len(goals) > 0 {
		total := lo.SumBy(goals, Progress)
		summary.AverageProgress = total / float64(len(goals))
	}

	if pinned, ok := Pinned(goals); ok {
		summary.Pinned = &pinned
	}

	return summary
}
