// Package engine holds the read-side goal logic shared by every view:
// progress derivation, workflow buckets, streaks and pin toggling.
// Nothing here mutates its input.
package engine

import (
	"fmt"

	"github.com/templui/goalboard/internal/model"
)

// RawProgress returns the goal's completion percentage without clamping.
// A backend-supplied Progress wins over the derived ratio.
//
// TargetValue <= 0 is rejected at creation time, so reaching it here is a
// programmer error and panics.
func RawProgress(g model.Goal) float64 {
	if g.Progress != nil {
		return *g.Progress
	}
	if g.TargetValue <= 0 {
		panic(fmt.Sprintf("engine: goal %q has non-positive target value %v", g.ID, g.TargetValue))
	}
	return g.CurrentValue / g.TargetValue * 100
}

// Progress returns RawProgress clamped to [0, 100].
func Progress(g model.Goal) float64 {
	return clamp(RawProgress(g), 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
