// Package store is the client-side cache of one owner's goals.
//
// Every mutation is write-then-replace: the delta goes to the API, the API
// answers with the owner's full collection, and that response replaces the
// cache wholesale. A failed call leaves the cache exactly as it was.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/templui/goalboard/internal/engine"
	"github.com/templui/goalboard/internal/model"
	"github.com/templui/goalboard/internal/validation"
)

const (
	OpLoad        = "load"
	OpCreate      = "create"
	OpUpdate      = "update"
	OpRemove      = "remove"
	OpParticipate = "participate"
	OpPin         = "pin"
	OpFriends     = "friends"
)

var (
	ErrPersistence   = errors.New("goal persistence failed")
	ErrGoalNotFound  = engine.ErrGoalNotFound
	ErrGoalCompleted = errors.New("goal already completed")
)

type Store struct {
	api      API
	ownerID  string
	notifier Notifier
	now      func() time.Time

	mu    sync.Mutex
	goals []model.Goal
	seq   sequencer
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		s.notifier = n
	}
}

// WithClock overrides the clock used by the read-side views.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates the store for one owner's session. Call Load before reading.
func New(api API, ownerID string, opts ...Option) *Store {
	s := &Store{
		api:      api,
		ownerID:  ownerID,
		notifier: LogNotifier{},
		now:      time.Now,
		goals:    []model.Goal{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) OwnerID() string {
	return s.ownerID
}

// Load fetches the owner's collection and replaces the cache.
func (s *Store) Load(ctx context.Context) ([]model.Goal, error) {
	return s.roundTrip(ctx, OpLoad, func(ctx context.Context) ([]model.Goal, error) {
		return s.api.FetchGoals(ctx, s.ownerID)
	})
}

func (s *Store) Create(ctx context.Context, draft model.GoalDraft) ([]model.Goal, error) {
	draft = validation.NormalizeDraft(draft)
	if err := validation.ValidateDraft(draft); err != nil {
		s.notify(OpCreate, "Please fix the highlighted fields", err)
		return nil, err
	}

	return s.roundTrip(ctx, OpCreate, func(ctx context.Context) ([]model.Goal, error) {
		return s.api.CreateGoal(ctx, s.ownerID, draft)
	})
}

func (s *Store) Update(ctx context.Context, goalID string, patch model.GoalPatch) ([]model.Goal, error) {
	current, ok := s.Goal(goalID)
	if !ok {
		s.notify(OpUpdate, "Goal not found", ErrGoalNotFound)
		return nil, ErrGoalNotFound
	}

	if patch.Category != nil {
		category := validation.NormalizeCategory(*patch.Category)
		patch.Category = &category
	}
	if err := validation.ValidateGoal(patch.Apply(current)); err != nil {
		s.notify(OpUpdate, "Please fix the highlighted fields", err)
		return nil, err
	}

	return s.roundTrip(ctx, OpUpdate, func(ctx context.Context) ([]model.Goal, error) {
		return s.api.UpdateGoal(ctx, s.ownerID, goalID, patch)
	})
}

func (s *Store) Remove(ctx context.Context, goalID string) ([]model.Goal, error) {
	if _, ok := s.Goal(goalID); !ok {
		s.notify(OpRemove, "Goal not found", ErrGoalNotFound)
		return nil, ErrGoalNotFound
	}

	return s.roundTrip(ctx, OpRemove, func(ctx context.Context) ([]model.Goal, error) {
		return s.api.DeleteGoal(ctx, s.ownerID, goalID)
	})
}

// Participate records a participation on a goal. Completed goals are refused
// here without contacting the API.
func (s *Store) Participate(ctx context.Context, goalID string) ([]model.Goal, error) {
	current, ok := s.Goal(goalID)
	if !ok {
		s.notify(OpParticipate, "Goal not found", ErrGoalNotFound)
		return nil, ErrGoalNotFound
	}
	if engine.Progress(current) >= 100 {
		s.notify(OpParticipate, "This goal is already completed", ErrGoalCompleted)
		return nil, ErrGoalCompleted
	}

	return s.roundTrip(ctx, OpParticipate, func(ctx context.Context) ([]model.Goal, error) {
		return s.api.Participate(ctx, s.ownerID, goalID)
	})
}

// Pin toggles the pin on a goal. The full pin batch is computed from the
// current cache and persisted in one call.
func (s *Store) Pin(ctx context.Context, goalID string) ([]model.Goal, error) {
	batch, err := engine.TogglePin(s.Goals(), goalID)
	if err != nil {
		s.notify(OpPin, "Goal not found", err)
		return nil, err
	}

	return s.roundTrip(ctx, OpPin, func(ctx context.Context) ([]model.Goal, error) {
		return s.api.PersistPinBatch(ctx, s.ownerID, batch)
	})
}

// FriendsGoals fetches the friends feed. The feed is display-only and not cached.
func (s *Store) FriendsGoals(ctx context.Context) ([]model.PublicGoal, error) {
	feed, err := s.api.FetchFriendsGoals(ctx, s.ownerID)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPersistence, err)
		s.notify(OpFriends, "Failed to load friends' goals", err)
		return nil, err
	}
	if feed == nil {
		feed = []model.PublicGoal{}
	}
	return feed, nil
}

// Goals returns a copy of the cached collection.
func (s *Store) Goals() []model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneGoals(s.goals)
}

func (s *Store) Goal(goalID string) (model.Goal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := lo.Find(s.goals, func(g model.Goal) bool {
		return g.ID == goalID
	})
	return g.Clone(), ok
}

func (s *Store) Board() engine.Board {
	return engine.Partition(s.Goals())
}

func (s *Store) Streak() int {
	return engine.Streak(s.Goals(), s.now())
}

func (s *Store) Summary() engine.Summary {
	return engine.Summarize(s.Goals(), s.now())
}

// roundTrip runs one API call under the sequencing guard. On success the
// response replaces the cache unless a newer response was already applied, in
// which case the stale one is dropped and the current cache returned.
func (s *Store) roundTrip(ctx context.Context, op string, call func(ctx context.Context) ([]model.Goal, error)) ([]model.Goal, error) {
	s.mu.Lock()
	seq := s.seq.next()
	s.mu.Unlock()

	goals, err := call(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrPersistence, err)
		s.notify(op, "Failed to "+op+" goal", err)
		return nil, err
	}

	goals = model.NormalizeGoals(goals)

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.seq.accept(seq) {
		slog.Debug("discarding stale goal response",
			"op", op,
			"owner_id", s.ownerID,
			"seq", seq,
			"applied", s.seq.applied,
		)
		return model.CloneGoals(s.goals), nil
	}

	s.goals = goals
	return model.CloneGoals(s.goals), nil
}

func (s *Store) notify(op, message string, err error) {
	s.notifier.Notify(Notification{
		Op:      op,
		OwnerID: s.ownerID,
		Message: message,
		Err:     err,
	})
}
