package model

import (
	"errors"
	"math"
	"time"
)

// ErrGoalNotFound is shared by every layer that looks a goal up by id.
var ErrGoalNotFound = errors.New("goal not found")

const (
	GoalDirectionIncrease = "increase"
	GoalDirectionDecrease = "decrease"
)

type Goal struct {
	ID                 string     `db:"id" json:"id"`
	OwnerID            string     `db:"owner_id" json:"ownerId"`
	Title              string     `db:"title" json:"title"`
	Description        string     `db:"description" json:"description"`
	Category           string     `db:"category" json:"category"`
	StartDate          time.Time  `db:"start_date" json:"startDate"`
	EndDate            time.Time  `db:"end_date" json:"endDate"`
	TargetValue        float64    `db:"target_value" json:"targetValue"`
	CurrentValue       float64    `db:"current_value" json:"currentValue"`
	Unit               string     `db:"unit" json:"unit"`
	Direction          string     `db:"direction" json:"direction"`
	StepSize           float64    `db:"step_size" json:"stepSize"`
	Progress           *float64   `db:"progress" json:"progress,omitempty"` // Backend-supplied percentage, derived when nil
	IsPinned           bool       `db:"is_pinned" json:"isPinned"`
	ParticipationCount int        `db:"participation_count" json:"participationCount"`
	LastUpdate         *time.Time `db:"last_update" json:"lastUpdate,omitempty"`
	Public             bool       `db:"is_public" json:"public"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
}

// PublicGoal is a friend's goal as shown in the feed.
type PublicGoal struct {
	Goal
	OwnerName string `db:"owner_name" json:"ownerName"`
}

// GoalDraft is the input for creating a goal. The backend assigns ID and OwnerID.
type GoalDraft struct {
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate"`
	TargetValue  float64   `json:"targetValue"`
	CurrentValue float64   `json:"currentValue"`
	Unit         string    `json:"unit"`
	Direction    string    `json:"direction"`
	StepSize     float64   `json:"stepSize"`
	Public       bool      `json:"public"`
}

// GoalPatch describes a partial edit. Nil fields are left unchanged.
type GoalPatch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Category     *string    `json:"category,omitempty"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	TargetValue  *float64   `json:"targetValue,omitempty"`
	CurrentValue *float64   `json:"currentValue,omitempty"`
	Unit         *string    `json:"unit,omitempty"`
	Direction    *string    `json:"direction,omitempty"`
	StepSize     *float64   `json:"stepSize,omitempty"`
	Public       *bool      `json:"public,omitempty"`
}

// AffectsProgress reports whether applying the patch can change the goal's progress.
func (p GoalPatch) AffectsProgress() bool {
	return p.CurrentValue != nil || p.TargetValue != nil
}

// Apply returns a copy of g with the patch applied.
func (p GoalPatch) Apply(g Goal) Goal {
	if p.Title != nil {
		g.Title = *p.Title
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Category != nil {
		g.Category = *p.Category
	}
	if p.StartDate != nil {
		g.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		g.EndDate = *p.EndDate
	}
	if p.TargetValue != nil {
		g.TargetValue = *p.TargetValue
	}
	if p.CurrentValue != nil {
		g.CurrentValue = *p.CurrentValue
	}
	if p.Unit != nil {
		g.Unit = *p.Unit
	}
	if p.Direction != nil {
		g.Direction = *p.Direction
	}
	if p.StepSize != nil {
		g.StepSize = *p.StepSize
	}
	if p.Public != nil {
		g.Public = *p.Public
	}
	return g
}

// Participation records one participation event on a shared goal.
type Participation struct {
	ID            string    `db:"id" json:"id"`
	GoalID        string    `db:"goal_id" json:"goalId"`
	ParticipantID string    `db:"participant_id" json:"participantId"`
	Amount        float64   `db:"amount" json:"amount"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// NormalizeGoals is the single normalization step applied to every collection
// entering the client cache. It never changes a well-formed goal.
func NormalizeGoals(goals []Goal) []Goal {
	out := make([]Goal, len(goals))
	for i, g := range goals {
		if g.Progress != nil && (math.IsNaN(*g.Progress) || math.IsInf(*g.Progress, 0)) {
			g.Progress = nil
		}
		out[i] = g
	}
	return out
}

// Clone returns a copy of g that shares no pointer fields with it.
func (g Goal) Clone() Goal {
	if g.Progress != nil {
		p := *g.Progress
		g.Progress = &p
	}
	if g.LastUpdate != nil {
		t := *g.LastUpdate
		g.LastUpdate = &t
	}
	return g
}

// CloneGoals returns a deep copy of the collection, including pointer fields.
func CloneGoals(goals []Goal) []Goal {
	out := make([]Goal, len(goals))
	for i, g := range goals {
		out[i] = g.Clone()
	}
	return out
}
