package engine

import (
	"github.com/templui/goalboard/internal/model"
)

type Bucket string

const (
	BucketNew        Bucket = "new"
	BucketInProgress Bucket = "in_progress"
	BucketCompleted  Bucket = "completed"
)

// Buckets lists every bucket in workflow order.
var Buckets = []Bucket{BucketNew, BucketInProgress, BucketCompleted}

// BucketOf classifies a goal by its unclamped progress using exact comparisons.
// 99.999 is InProgress even though a rounded display would show 100%.
func BucketOf(g model.Goal) Bucket {
	p := RawProgress(g)
	switch {
	case p == 0:
		return BucketNew
	case p == 100:
		return BucketCompleted
	default:
		return BucketInProgress
	}
}

// Board is a goal collection split into workflow buckets.
type Board struct {
	New        []model.Goal `json:"new"`
	InProgress []model.Goal `json:"inProgress"`
	Completed  []model.Goal `json:"completed"`
}

// Partition splits goals into buckets, preserving input order within each bucket.
// Every goal lands in exactly one bucket.
func Partition(goals []model.Goal) Board {
	board := Board{
		New:        []model.Goal{},
		InProgress: []model.Goal{},
		Completed:  []model.Goal{},
	}

	for _, g := range goals {
		switch BucketOf(g) {
		case BucketNew:
			board.New = append(board.New, g)
		case BucketCompleted:
			board.Completed = append(board.Completed, g)
		default:
			board.InProgress = append(board.InProgress, g)
		}
	}

	return board
}

// Bucket returns the goals in the given bucket.
func (b Board) Bucket(bucket Bucket) []model.Goal {
	switch bucket {
	case BucketNew:
		return b.New
	case BucketCompleted:
		return b.Completed
	default:
		return b.InProgress
	}
}

func (b Board) Len() int {
	return len(b.New) + len(b.InProgress) + len(b.Completed)
}
