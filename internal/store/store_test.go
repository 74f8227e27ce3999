package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalboard/internal/engine"
	"github.com/templui/goalboard/internal/model"
	"github.com/templui/goalboard/internal/validation"
)

var errBackend = errors.New("backend unavailable")

// fakeAPI keeps an authoritative collection per owner the way the real
// backend does, so every mutation answers with the full collection.
type fakeAPI struct {
	mu     sync.Mutex
	goals  []model.Goal
	nextID int
	fail   error
	calls  map[string]int
	batch  []model.Goal
}

func newFakeAPI(goals ...model.Goal) *fakeAPI {
	return &fakeAPI{goals: goals, calls: map[string]int{}}
}

func (f *fakeAPI) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail
}

func (f *fakeAPI) snapshot() []model.Goal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.CloneGoals(f.goals)
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) FetchGoals(ctx context.Context, ownerID string) ([]model.Goal, error) {
	if err := f.record(OpLoad); err != nil {
		return nil, err
	}
	return f.snapshot(), nil
}

func (f *fakeAPI) CreateGoal(ctx context.Context, ownerID string, draft model.GoalDraft) ([]model.Goal, error) {
	if err := f.record(OpCreate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.nextID++
	f.goals = append(f.goals, model.Goal{
		ID:          fmt.Sprintf("new-%d", f.nextID),
		OwnerID:     ownerID,
		Title:       draft.Title,
		TargetValue: draft.TargetValue,
		StartDate:   draft.StartDate,
		EndDate:     draft.EndDate,
	})
	f.mu.Unlock()
	return f.snapshot(), nil
}

func (f *fakeAPI) UpdateGoal(ctx context.Context, ownerID, goalID string, patch model.GoalPatch) ([]model.Goal, error) {
	if err := f.record(OpUpdate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	for i, g := range f.goals {
		if g.ID == goalID {
			f.goals[i] = patch.Apply(g)
		}
	}
	f.mu.Unlock()
	return f.snapshot(), nil
}

func (f *fakeAPI) DeleteGoal(ctx context.Context, ownerID, goalID string) ([]model.Goal, error) {
	if err := f.record(OpRemove); err != nil {
		return nil, err
	}
	f.mu.Lock()
	kept := []model.Goal{}
	for _, g := range f.goals {
		if g.ID != goalID {
			kept = append(kept, g)
		}
	}
	f.goals = kept
	f.mu.Unlock()
	return f.snapshot(), nil
}

func (f *fakeAPI) Participate(ctx context.Context, ownerID, goalID string) ([]model.Goal, error) {
	if err := f.record(OpParticipate); err != nil {
		return nil, err
	}
	f.mu.Lock()
	for i, g := range f.goals {
		if g.ID == goalID {
			f.goals[i].ParticipationCount++
			f.goals[i].CurrentValue++
		}
	}
	f.mu.Unlock()
	return f.snapshot(), nil
}

func (f *fakeAPI) PersistPinBatch(ctx context.Context, ownerID string, batch []model.Goal) ([]model.Goal, error) {
	if err := f.record(OpPin); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.batch = model.CloneGoals(batch)
	pinned := map[string]bool{}
	for _, g := range batch {
		pinned[g.ID] = g.IsPinned
	}
	for i := range f.goals {
		f.goals[i].IsPinned = pinned[f.goals[i].ID]
	}
	f.mu.Unlock()
	return f.snapshot(), nil
}

func (f *fakeAPI) FetchFriendsGoals(ctx context.Context, ownerID string) ([]model.PublicGoal, error) {
	if err := f.record(OpFriends); err != nil {
		return nil, err
	}
	return []model.PublicGoal{{Goal: model.Goal{ID: "friend-goal", Public: true}, OwnerName: "Sam"}}, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordingNotifier) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.sent...)
}

func testGoal(id string, current, target float64) model.Goal {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return model.Goal{
		ID:           id,
		OwnerID:      "owner-1",
		Title:        "Goal " + id,
		StartDate:    start,
		EndDate:      start.AddDate(0, 3, 0),
		CurrentValue: current,
		TargetValue:  target,
	}
}

func testDraft() model.GoalDraft {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return model.GoalDraft{
		Title:       "Read 12 books",
		StartDate:   start,
		EndDate:     start.AddDate(1, 0, 0),
		TargetValue: 12,
	}
}

func setupStore(t *testing.T, goals ...model.Goal) (*Store, *fakeAPI, *recordingNotifier) {
	t.Helper()
	api := newFakeAPI(goals...)
	notifier := &recordingNotifier{}
	s := New(api, "owner-1", WithNotifier(notifier))

	_, err := s.Load(context.Background())
	require.NoError(t, err)

	return s, api, notifier
}

func TestStore_Load(t *testing.T) {
	s, api, _ := setupStore(t, testGoal("a", 1, 10), testGoal("b", 0, 10))

	assert.Equal(t, api.snapshot(), s.Goals())
	assert.Equal(t, "owner-1", s.OwnerID())

	t.Run("returned collection is a copy", func(t *testing.T) {
		goals := s.Goals()
		goals[0].Title = "changed"
		assert.Equal(t, "Goal a", s.Goals()[0].Title)
	})
}

func TestStore_Create(t *testing.T) {
	t.Run("replaces cache with the authoritative response", func(t *testing.T) {
		s, api, notifier := setupStore(t, testGoal("a", 1, 10))

		goals, err := s.Create(context.Background(), testDraft())
		require.NoError(t, err)
		require.Len(t, goals, 2)
		assert.Equal(t, api.snapshot(), s.Goals())
		assert.Empty(t, notifier.all())
	})

	t.Run("backend failure leaves cache unchanged and notifies once", func(t *testing.T) {
		s, api, notifier := setupStore(t, testGoal("a", 1, 10))
		before := s.Goals()

		api.fail = errBackend
		goals, err := s.Create(context.Background(), testDraft())

		require.Error(t, err)
		assert.Nil(t, goals)
		assert.ErrorIs(t, err, ErrPersistence)
		assert.ErrorIs(t, err, errBackend)
		assert.True(t, reflect.DeepEqual(before, s.Goals()))

		sent := notifier.all()
		require.Len(t, sent, 1)
		assert.Equal(t, OpCreate, sent[0].Op)
		assert.Equal(t, "owner-1", sent[0].OwnerID)
	})

	t.Run("invalid draft is rejected before any call", func(t *testing.T) {
		s, api, notifier := setupStore(t)

		draft := testDraft()
		draft.TargetValue = 0
		_, err := s.Create(context.Background(), draft)

		assert.ErrorIs(t, err, validation.ErrInvalid)
		assert.Zero(t, api.count(OpCreate))
		assert.Len(t, notifier.all(), 1)
	})
}

func TestStore_Update(t *testing.T) {
	s, api, notifier := setupStore(t, testGoal("a", 1, 10))

	current := 5.0
	goals, err := s.Update(context.Background(), "a", model.GoalPatch{CurrentValue: &current})
	require.NoError(t, err)
	assert.Equal(t, 5.0, goals[0].CurrentValue)

	t.Run("unknown goal", func(t *testing.T) {
		_, err := s.Update(context.Background(), "missing", model.GoalPatch{})
		assert.ErrorIs(t, err, ErrGoalNotFound)
		assert.Equal(t, 1, api.count(OpUpdate))
	})

	t.Run("patch producing an invalid goal", func(t *testing.T) {
		negative := -1.0
		_, err := s.Update(context.Background(), "a", model.GoalPatch{TargetValue: &negative})
		assert.ErrorIs(t, err, validation.ErrInvalid)
		assert.Equal(t, 1, api.count(OpUpdate))
	})

	t.Run("failure keeps cache", func(t *testing.T) {
		before := s.Goals()
		api.fail = errBackend
		defer func() { api.fail = nil }()

		title := "new title"
		_, err := s.Update(context.Background(), "a", model.GoalPatch{Title: &title})
		assert.ErrorIs(t, err, ErrPersistence)
		assert.Equal(t, before, s.Goals())
	})

	assert.Len(t, notifier.all(), 3)
}

func TestStore_Remove(t *testing.T) {
	s, _, _ := setupStore(t, testGoal("a", 1, 10), testGoal("b", 1, 10))

	goals, err := s.Remove(context.Background(), "a")
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, "b", goals[0].ID)

	_, ok := s.Goal("a")
	assert.False(t, ok)

	_, err = s.Remove(context.Background(), "a")
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestStore_Participate(t *testing.T) {
	t.Run("in progress goal", func(t *testing.T) {
		s, _, _ := setupStore(t, testGoal("a", 50, 100))
		assert.Equal(t, engine.BucketInProgress, engine.BucketOf(s.Goals()[0]))

		goals, err := s.Participate(context.Background(), "a")
		require.NoError(t, err)
		assert.Equal(t, 1, goals[0].ParticipationCount)
	})

	t.Run("completed goal is never sent", func(t *testing.T) {
		s, api, notifier := setupStore(t, testGoal("done", 100, 100))
		assert.Equal(t, engine.BucketCompleted, engine.BucketOf(s.Goals()[0]))

		_, err := s.Participate(context.Background(), "done")
		assert.ErrorIs(t, err, ErrGoalCompleted)
		assert.Zero(t, api.count(OpParticipate))
		assert.Len(t, notifier.all(), 1)
	})

	t.Run("overshot goal is never sent", func(t *testing.T) {
		s, api, _ := setupStore(t, testGoal("over", 120, 100))

		_, err := s.Participate(context.Background(), "over")
		assert.ErrorIs(t, err, ErrGoalCompleted)
		assert.Zero(t, api.count(OpParticipate))
	})
}

func TestStore_Pin(t *testing.T) {
	t.Run("pin A then pin B", func(t *testing.T) {
		s, _, _ := setupStore(t, testGoal("A", 1, 10), testGoal("B", 1, 10))

		_, err := s.Pin(context.Background(), "A")
		require.NoError(t, err)
		goals, err := s.Pin(context.Background(), "B")
		require.NoError(t, err)

		assert.False(t, goals[0].IsPinned)
		assert.True(t, goals[1].IsPinned)
		assert.Equal(t, 1, engine.PinnedCount(s.Goals()))
	})

	t.Run("toggle on pinned goal unpins all", func(t *testing.T) {
		pinned := testGoal("A", 1, 10)
		pinned.IsPinned = true
		s, api, _ := setupStore(t, pinned, testGoal("B", 1, 10))

		_, err := s.Pin(context.Background(), "A")
		require.NoError(t, err)
		assert.Zero(t, engine.PinnedCount(s.Goals()))
		assert.Len(t, api.batch, 2, "the full batch is persisted")
	})

	t.Run("unknown goal", func(t *testing.T) {
		s, api, _ := setupStore(t, testGoal("A", 1, 10))
		_, err := s.Pin(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrGoalNotFound)
		assert.Zero(t, api.count(OpPin))
	})
}

func TestStore_FailedMutationsKeepCache(t *testing.T) {
	tests := []struct {
		name string
		op   string
		call func(s *Store) ([]model.Goal, error)
	}{
		{"remove", OpRemove, func(s *Store) ([]model.Goal, error) {
			return s.Remove(context.Background(), "a")
		}},
		{"participate", OpParticipate, func(s *Store) ([]model.Goal, error) {
			return s.Participate(context.Background(), "a")
		}},
		{"pin", OpPin, func(s *Store) ([]model.Goal, error) {
			return s.Pin(context.Background(), "b")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pinned := testGoal("a", 3, 10)
			pinned.IsPinned = true
			progress := 30.0
			pinned.Progress = &progress
			s, api, notifier := setupStore(t, pinned, testGoal("b", 0, 10))
			before := s.Goals()

			api.fail = errBackend
			goals, err := tt.call(s)

			require.Error(t, err)
			assert.Nil(t, goals)
			assert.ErrorIs(t, err, ErrPersistence)
			assert.ErrorIs(t, err, errBackend)
			assert.Equal(t, before, s.Goals())
			assert.Equal(t, 1, api.count(tt.op))

			sent := notifier.all()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.op, sent[0].Op)
		})
	}
}

func TestStore_GoalReturnsCopy(t *testing.T) {
	g := testGoal("a", 3, 10)
	progress := 30.0
	last := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	g.Progress = &progress
	g.LastUpdate = &last
	s, _, _ := setupStore(t, g)

	got, ok := s.Goal("a")
	require.True(t, ok)
	*got.Progress = 99
	*got.LastUpdate = last.AddDate(1, 0, 0)

	again, ok := s.Goal("a")
	require.True(t, ok)
	assert.Equal(t, 30.0, *again.Progress)
	assert.Equal(t, last, *again.LastUpdate)
}

func TestStore_FriendsGoals(t *testing.T) {
	s, api, notifier := setupStore(t)

	feed, err := s.FriendsGoals(context.Background())
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Sam", feed[0].OwnerName)

	api.fail = errBackend
	_, err = s.FriendsGoals(context.Background())
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Len(t, notifier.all(), 1)
}

func TestStore_Views(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	recent := now.Add(-time.Hour)

	a := testGoal("a", 0, 10)
	b := testGoal("b", 5, 10)
	b.LastUpdate = &recent
	c := testGoal("c", 10, 10)
	c.LastUpdate = &recent

	api := newFakeAPI(a, b, c)
	s := New(api, "owner-1", WithClock(func() time.Time { return now }), WithNotifier(&recordingNotifier{}))
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	board := s.Board()
	assert.Len(t, board.New, 1)
	assert.Len(t, board.InProgress, 1)
	assert.Len(t, board.Completed, 1)
	assert.Equal(t, 2, s.Streak())
	assert.Equal(t, 3, s.Summary().Total)
}

// gatedAPI holds each call until the test releases it, so responses can be
// delivered in any order.
type gatedAPI struct {
	*fakeAPI
	gates chan chan []model.Goal
}

func (g *gatedAPI) UpdateGoal(ctx context.Context, ownerID, goalID string, patch model.GoalPatch) ([]model.Goal, error) {
	reply := make(chan []model.Goal)
	g.gates <- reply
	return <-reply, nil
}

func TestStore_StaleResponseIsDiscarded(t *testing.T) {
	api := &gatedAPI{fakeAPI: newFakeAPI(testGoal("a", 1, 10)), gates: make(chan chan []model.Goal)}
	s := New(api, "owner-1", WithNotifier(&recordingNotifier{}))
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	responseA := []model.Goal{testGoal("a", 2, 10)}
	responseB := []model.Goal{testGoal("a", 3, 10)}

	current := 2.0
	doneA := make(chan []model.Goal)
	go func() {
		goals, _ := s.Update(context.Background(), "a", model.GoalPatch{CurrentValue: &current})
		doneA <- goals
	}()
	gateA := <-api.gates

	next := 3.0
	doneB := make(chan []model.Goal)
	go func() {
		goals, _ := s.Update(context.Background(), "a", model.GoalPatch{CurrentValue: &next})
		doneB <- goals
	}()
	gateB := <-api.gates

	// B answers first, then A's older response arrives.
	gateB <- responseB
	assert.Equal(t, 3.0, (<-doneB)[0].CurrentValue)

	gateA <- responseA
	assert.Equal(t, 3.0, (<-doneA)[0].CurrentValue, "stale call returns the current cache")

	assert.Equal(t, 3.0, s.Goals()[0].CurrentValue)
}

func TestStore_NormalizesResponses(t *testing.T) {
	api := &nilAPI{fakeAPI: newFakeAPI()}
	s := New(api, "owner-1")

	goals, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, goals)
	assert.Empty(t, goals)
}

type nilAPI struct {
	*fakeAPI
}

func (n *nilAPI) FetchGoals(ctx context.Context, ownerID string) ([]model.Goal, error) {
	return nil, nil
}

func TestSequencer(t *testing.T) {
	var seq sequencer
	first := seq.next()
	second := seq.next()

	assert.True(t, seq.accept(second))
	assert.False(t, seq.accept(first))
	assert.False(t, seq.accept(second))

	third := seq.next()
	assert.True(t, seq.accept(third))
}
