package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalboard/internal/model"
)

func goal(id string, current, target float64) model.Goal {
	return model.Goal{ID: id, OwnerID: "owner-1", CurrentValue: current, TargetValue: target}
}

func ptr[T any](v T) *T {
	return &v
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name string
		goal model.Goal
		raw  float64
		want float64
	}{
		{"derived half way", goal("a", 50, 100), 50, 50},
		{"derived complete", goal("b", 100, 100), 100, 100},
		{"derived overshoot clamps", goal("c", 150, 100), 150, 100},
		{"derived zero", goal("d", 0, 10), 0, 0},
		{"supplied wins over counters", model.Goal{CurrentValue: 1, TargetValue: 100, Progress: ptr(75.0)}, 75, 75},
		{"supplied negative clamps", model.Goal{TargetValue: 1, Progress: ptr(-5.0)}, -5, 0},
		{"supplied above range clamps", model.Goal{TargetValue: 1, Progress: ptr(250.0)}, 250, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.raw, RawProgress(tt.goal), 1e-9)
			got := Progress(tt.goal)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 100.0)
		})
	}
}

func TestProgress_NonPositiveTargetPanics(t *testing.T) {
	assert.Panics(t, func() { Progress(goal("zero", 5, 0)) })
	assert.Panics(t, func() { Progress(goal("neg", 5, -1)) })
}

func TestBucketOf(t *testing.T) {
	tests := []struct {
		name string
		goal model.Goal
		want Bucket
	}{
		{"zero progress is new", goal("a", 0, 100), BucketNew},
		{"half way is in progress", goal("b", 50, 100), BucketInProgress},
		{"exactly 100 is completed", goal("c", 100, 100), BucketCompleted},
		{"99.999 stays in progress", model.Goal{TargetValue: 1, Progress: ptr(99.999)}, BucketInProgress},
		{"overshoot is not completed", goal("d", 150, 100), BucketInProgress},
		{"supplied 100 is completed", model.Goal{TargetValue: 1, Progress: ptr(100.0)}, BucketCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BucketOf(tt.goal))
		})
	}
}

func TestPartition(t *testing.T) {
	goals := []model.Goal{
		goal("n1", 0, 10),
		goal("p1", 5, 10),
		goal("c1", 10, 10),
		goal("p2", 1, 10),
		goal("n2", 0, 3),
		goal("c2", 3, 3),
	}

	board := Partition(goals)

	ids := func(gs []model.Goal) []string {
		out := []string{}
		for _, g := range gs {
			out = append(out, g.ID)
		}
		return out
	}

	assert.Equal(t, []string{"n1", "n2"}, ids(board.New))
	assert.Equal(t, []string{"p1", "p2"}, ids(board.InProgress))
	assert.Equal(t, []string{"c1", "c2"}, ids(board.Completed))
	assert.Equal(t, len(goals), board.Len())

	t.Run("buckets are disjoint and cover the input", func(t *testing.T) {
		seen := map[string]int{}
		for _, b := range Buckets {
			for _, g := range board.Bucket(b) {
				seen[g.ID]++
			}
		}
		require.Len(t, seen, len(goals))
		for id, n := range seen {
			assert.Equal(t, 1, n, "goal %s", id)
		}
	})

	t.Run("empty input gives empty buckets", func(t *testing.T) {
		empty := Partition(nil)
		assert.NotNil(t, empty.New)
		assert.NotNil(t, empty.InProgress)
		assert.NotNil(t, empty.Completed)
		assert.Zero(t, empty.Len())
	})
}

func TestStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	at := func(id string, ago time.Duration) model.Goal {
		g := goal(id, 1, 10)
		g.LastUpdate = ptr(now.Add(-ago))
		return g
	}

	t.Run("empty collection", func(t *testing.T) {
		assert.Equal(t, 0, Streak(nil, now))
		assert.Equal(t, 0, Streak([]model.Goal{}, now))
	})

	t.Run("goals without updates are ignored", func(t *testing.T) {
		assert.Equal(t, 0, Streak([]model.Goal{goal("a", 1, 2), goal("b", 1, 2)}, now))
	})

	t.Run("every goal updated now counts once", func(t *testing.T) {
		goals := []model.Goal{at("a", 0), at("b", 0), at("c", 0)}
		assert.Equal(t, 3, Streak(goals, now))
	})

	t.Run("consecutive days", func(t *testing.T) {
		goals := []model.Goal{at("d2", 47*time.Hour), at("d0", time.Hour), at("d1", 23*time.Hour)}
		assert.Equal(t, 3, Streak(goals, now))
	})

	t.Run("gap stops the walk", func(t *testing.T) {
		goals := []model.Goal{at("a", time.Hour), at("b", 72*time.Hour)}
		assert.Equal(t, 1, Streak(goals, now))
	})

	t.Run("exactly 24h is inside the window", func(t *testing.T) {
		assert.Equal(t, 1, Streak([]model.Goal{at("a", 24*time.Hour)}, now))
		assert.Equal(t, 0, Streak([]model.Goal{at("a", 24*time.Hour+time.Second)}, now))
	})

	t.Run("same day updates exhaust the window", func(t *testing.T) {
		// Third update is 30h before the anchor after two increments.
		goals := []model.Goal{at("a", time.Hour), at("b", 2*time.Hour), at("c", 78*time.Hour)}
		assert.Equal(t, 2, Streak(goals, now))
	})
}

func TestTogglePin(t *testing.T) {
	goals := []model.Goal{goal("a", 1, 2), goal("b", 1, 2), goal("c", 1, 2)}

	t.Run("pins target and unpins the rest", func(t *testing.T) {
		withPin := model.CloneGoals(goals)
		withPin[2].IsPinned = true

		batch, err := TogglePin(withPin, "a")
		require.NoError(t, err)
		require.Len(t, batch, 3)
		assert.True(t, batch[0].IsPinned)
		assert.False(t, batch[1].IsPinned)
		assert.False(t, batch[2].IsPinned)
		assert.Equal(t, 1, PinnedCount(batch))

		assert.True(t, withPin[2].IsPinned, "input must not be mutated")
	})

	t.Run("toggling the pinned goal unpins everything", func(t *testing.T) {
		withPin := model.CloneGoals(goals)
		withPin[1].IsPinned = true

		batch, err := TogglePin(withPin, "b")
		require.NoError(t, err)
		assert.Equal(t, 0, PinnedCount(batch))
	})

	t.Run("repairs a collection with several pins", func(t *testing.T) {
		broken := model.CloneGoals(goals)
		broken[0].IsPinned = true
		broken[1].IsPinned = true

		batch, err := TogglePin(broken, "c")
		require.NoError(t, err)
		pinned, ok := Pinned(batch)
		require.True(t, ok)
		assert.Equal(t, "c", pinned.ID)
		assert.Equal(t, 1, PinnedCount(batch))
	})

	t.Run("pin A then pin B", func(t *testing.T) {
		two := []model.Goal{goal("A", 1, 2), goal("B", 1, 2)}
		first, err := TogglePin(two, "A")
		require.NoError(t, err)
		second, err := TogglePin(first, "B")
		require.NoError(t, err)
		assert.False(t, second[0].IsPinned)
		assert.True(t, second[1].IsPinned)
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := TogglePin(goals, "missing")
		assert.ErrorIs(t, err, ErrGoalNotFound)
	})
}

func TestSummarize(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	pinned := goal("p", 50, 100)
	pinned.IsPinned = true
	pinned.LastUpdate = ptr(now.Add(-time.Hour))

	goals := []model.Goal{goal("n", 0, 10), pinned, goal("c", 10, 10)}

	s := Summarize(goals, now)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.New)
	assert.Equal(t, 1, s.InProgress)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Streak)
	assert.InDelta(t, 50.0, s.AverageProgress, 1e-9)
	require.NotNil(t, s.Pinned)
	assert.Equal(t, "p", s.Pinned.ID)

	empty := Summarize(nil, now)
	assert.Zero(t, empty.Total)
	assert.Zero(t, empty.AverageProgress)
	assert.Nil(t, empty.Pinned)
}
