package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/templui/goalboard/internal/cache"
	"github.com/templui/goalboard/internal/engine"
	"github.com/templui/goalboard/internal/metrics"
	"github.com/templui/goalboard/internal/model"
	"github.com/templui/goalboard/internal/repository"
	"github.com/templui/goalboard/internal/storage"
	"github.com/templui/goalboard/internal/validation"
)

const (
	OpCreate      = "create"
	OpUpdate      = "update"
	OpDelete      = "delete"
	OpParticipate = "participate"
	OpPin         = "pin"
	OpArchive     = "archive"
)

var (
	ErrGoalNotFound       = repository.ErrGoalNotFound
	ErrGoalCompleted      = repository.ErrGoalCompleted
	ErrPinInvariant       = errors.New("pin batch may pin at most one goal")
	ErrStorageUnavailable = errors.New("export archive storage is not configured")
)

// Export is the JSON document an owner downloads or archives.
type Export struct {
	OwnerID    string         `json:"ownerId"`
	ExportedAt time.Time      `json:"exportedAt"`
	Summary    engine.Summary `json:"summary"`
	Goals      []model.Goal   `json:"goals"`
}

// GoalService is the goal backend. Every mutation answers with the owner's
// complete collection in creation order.
type GoalService struct {
	repo           repository.GoalRepository
	participations repository.ParticipationRepository
	friendships    repository.FriendshipRepository
	feeds          cache.FeedCache
	archive        storage.Storage
	now            func() time.Time
}

// NewGoalService wires the backend. feeds and archive may be nil: the feed is
// then read uncached and archiving reports ErrStorageUnavailable.
func NewGoalService(
	repo repository.GoalRepository,
	participations repository.ParticipationRepository,
	friendships repository.FriendshipRepository,
	feeds cache.FeedCache,
	archive storage.Storage,
) *GoalService {
	if feeds == nil {
		feeds = cache.Nop{}
	}
	return &GoalService{
		repo:           repo,
		participations: participations,
		friendships:    friendships,
		feeds:          feeds,
		archive:        archive,
		now:            time.Now,
	}
}

func (s *GoalService) Goals(ctx context.Context, ownerID string) ([]model.Goal, error) {
	return s.repo.Goals(ctx, ownerID, repository.GoalSortCreated)
}

// SortedGoals lists the collection in one of the repository sort orders.
func (s *GoalService) SortedGoals(ctx context.Context, ownerID, sortBy string) ([]model.Goal, error) {
	return s.repo.Goals(ctx, ownerID, sortBy)
}

func (s *GoalService) Create(ctx context.Context, ownerID string, draft model.GoalDraft) (goals []model.Goal, err error) {
	defer func() { metrics.ObserveMutation(OpCreate, err) }()

	draft = validation.NormalizeDraft(draft)
	if err := validation.ValidateDraft(draft); err != nil {
		return nil, err
	}

	now := s.now()
	goal := &model.Goal{
		ID:           uuid.New().String(),
		OwnerID:      ownerID,
		Title:        draft.Title,
		Description:  draft.Description,
		Category:     draft.Category,
		StartDate:    draft.StartDate,
		EndDate:      draft.EndDate,
		TargetValue:  draft.TargetValue,
		CurrentValue: draft.CurrentValue,
		Unit:         draft.Unit,
		Direction:    draft.Direction,
		StepSize:     draft.StepSize,
		Public:       draft.Public,
		LastUpdate:   &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.repo.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	if goal.Public {
		s.invalidateFeeds(ctx, ownerID)
	}

	return s.Goals(ctx, ownerID)
}

// Update applies a partial edit. Edits to the current or target value clear
// any stored progress and bump LastUpdate.
func (s *GoalService) Update(ctx context.Context, ownerID, goalID string, patch model.GoalPatch) (goals []model.Goal, err error) {
	defer func() { metrics.ObserveMutation(OpUpdate, err) }()

	goal, err := s.repo.ByID(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}
	wasPublic := goal.Public

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if patch.Category != nil {
		category := validation.NormalizeCategory(*patch.Category)
		patch.Category = &category
	}

	updated := patch.Apply(*goal)
	if err := validation.ValidateGoal(updated); err != nil {
		return nil, err
	}

	if patch.AffectsProgress() {
		now := s.now()
		updated.LastUpdate = &now
		updated.Progress = nil
	}

	err = s.repo.Update(ctx, &updated)
	if err != nil {
		return nil, fmt.Errorf("failed to update goal: %w", err)
	}

	if wasPublic || updated.Public {
		s.invalidateFeeds(ctx, ownerID)
	}

	return s.Goals(ctx, ownerID)
}

func (s *GoalService) Delete(ctx context.Context, ownerID, goalID string) (goals []model.Goal, err error) {
	defer func() { metrics.ObserveMutation(OpDelete, err) }()

	// Verify ownership
	goal, err := s.repo.ByID(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	err = s.repo.Delete(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	if goal.Public {
		s.invalidateFeeds(ctx, ownerID)
	}

	return s.Goals(ctx, ownerID)
}

// Participate records one participation by the owner and advances the goal
// by its step size. Completed goals are rejected.
func (s *GoalService) Participate(ctx context.Context, ownerID, goalID string) (goals []model.Goal, err error) {
	defer func() { metrics.ObserveMutation(OpParticipate, err) }()

	goal, err := s.repo.ByID(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}

	if engine.Progress(*goal) >= 100 {
		return nil, ErrGoalCompleted
	}

	amount := goal.StepSize
	if amount <= 0 {
		amount = 1
	}

	err = s.participations.Record(ctx, ownerID, &model.Participation{
		GoalID:        goalID,
		ParticipantID: ownerID,
		Amount:        amount,
		CreatedAt:     s.now(),
	})
	if errors.Is(err, ErrGoalCompleted) || errors.Is(err, ErrGoalNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record participation: %w", err)
	}

	if goal.Public {
		s.invalidateFeeds(ctx, ownerID)
	}

	return s.Goals(ctx, ownerID)
}

// Participations lists the participation history of one of the owner's goals, oldest first.
func (s *GoalService) Participations(ctx context.Context, ownerID, goalID string) ([]model.Participation, error) {
	_, err := s.repo.ByID(ctx, ownerID, goalID)
	if err != nil {
		return nil, err
	}
	return s.participations.Participations(ctx, goalID)
}

// PersistPinBatch stores the pin state of a batch produced by a pin toggle.
// Only IsPinned is read from the batch; goals missing from it end up unpinned.
func (s *GoalService) PersistPinBatch(ctx context.Context, ownerID string, batch []model.Goal) (goals []model.Goal, err error) {
	defer func() { metrics.ObserveMutation(OpPin, err) }()

	if engine.PinnedCount(batch) > 1 {
		return nil, ErrPinInvariant
	}

	current, err := s.Goals(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	owned := lo.KeyBy(current, func(g model.Goal) string {
		return g.ID
	})
	for _, g := range batch {
		if _, ok := owned[g.ID]; !ok {
			return nil, ErrGoalNotFound
		}
	}

	pinnedID := ""
	if pinned, ok := engine.Pinned(batch); ok {
		pinnedID = pinned.ID
	}

	err = s.repo.SetPinned(ctx, ownerID, pinnedID)
	if err != nil {
		return nil, fmt.Errorf("failed to persist pins: %w", err)
	}

	if lo.SomeBy(current, func(g model.Goal) bool { return g.Public }) {
		s.invalidateFeeds(ctx, ownerID)
	}

	return s.Goals(ctx, ownerID)
}

// FriendsGoals returns the public goals of the owner's friends. The feed is
// served from the cache when present; cache failures fall through to the database.
func (s *GoalService) FriendsGoals(ctx context.Context, ownerID string) ([]model.PublicGoal, error) {
	feed, ok, err := s.feeds.Get(ctx, ownerID)
	if err != nil {
		slog.Warn("friends feed cache read failed", "error", err, "owner_id", ownerID)
	}
	if ok {
		metrics.FeedCacheLookups.WithLabelValues(metrics.CacheHit).Inc()
		return feed, nil
	}
	metrics.FeedCacheLookups.WithLabelValues(metrics.CacheMiss).Inc()

	friendIDs, err := s.friendships.FriendIDs(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}

	feed, err = s.repo.PublicGoals(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends' goals: %w", err)
	}

	if err := s.feeds.Set(ctx, ownerID, feed); err != nil {
		slog.Warn("friends feed cache write failed", "error", err, "owner_id", ownerID)
	}

	return feed, nil
}

func (s *GoalService) Board(ctx context.Context, ownerID string) (engine.Board, error) {
	goals, err := s.Goals(ctx, ownerID)
	if err != nil {
		return engine.Board{}, err
	}
	return engine.Partition(goals), nil
}

func (s *GoalService) Dashboard(ctx context.Context, ownerID string) (engine.Summary, error) {
	goals, err := s.Goals(ctx, ownerID)
	if err != nil {
		return engine.Summary{}, err
	}
	return engine.Summarize(goals, s.now()), nil
}

func (s *GoalService) Export(ctx context.Context, ownerID string) (*Export, error) {
	goals, err := s.Goals(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &Export{
		OwnerID:    ownerID,
		ExportedAt: now,
		Summary:    engine.Summarize(goals, now),
		Goals:      goals,
	}, nil
}

// Archive uploads the owner's export to object storage and returns a
// temporary download link.
func (s *GoalService) Archive(ctx context.Context, ownerID string) (url string, err error) {
	defer func() { metrics.ObserveMutation(OpArchive, err) }()

	if s.archive == nil {
		return "", ErrStorageUnavailable
	}

	export, err := s.Export(ctx, ownerID)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	key := storage.ArchiveKey(ownerID, export.ExportedAt)
	err = s.archive.Save(ctx, key, bytes.NewReader(data), "application/json")
	if err != nil {
		return "", err
	}

	url, err = s.archive.PresignedURL(ctx, key)
	if err != nil {
		// Rollback: an archive nobody can download is useless
		delErr := s.archive.Delete(ctx, key)
		if delErr != nil {
			slog.Error("failed to delete archive during rollback", "error", delErr, "key", key)
		}
		return "", err
	}

	return url, nil
}

// invalidateFeeds drops the cached feeds that include ownerID's public goals.
// Failures are logged; the feeds then expire on their TTL.
func (s *GoalService) invalidateFeeds(ctx context.Context, ownerID string) {
	followers, err := s.friendships.FollowerIDs(ctx, ownerID)
	if err != nil {
		slog.Warn("failed to list followers for feed invalidation", "error", err, "owner_id", ownerID)
		return
	}

	if err := s.feeds.Invalidate(ctx, followers...); err != nil {
		slog.Warn("failed to invalidate friends feeds", "error", err, "owner_id", ownerID)
	}
}
