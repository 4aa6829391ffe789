// Package pipeline keeps a rolling window of puzzle dates filled: it plans
// per-color demand, drives the LLM generator through verification into the
// group pool, and assembles and publishes puzzles under uniqueness and
// freshness constraints.
package pipeline

import (
	"fmt"

	"github.com/quadra-game/quadra/internal/types"
)

// Stage is a named milestone in one FillWindow invocation, surfaced to a
// callback for UI progress.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageCheckingPool    Stage = "checking-pool"
	StageCreatingPuzzles Stage = "creating-puzzles"
	StageComplete        Stage = "complete"
	StageError           Stage = "error"
)

// GeneratingStage returns the per-color generation stage, e.g.
// "generating-purple". Emitted only for colors actually in deficit.
func GeneratingStage(c types.Color) Stage {
	return Stage(fmt.Sprintf("generating-%s", c))
}

// StageFunc receives stage transitions. A nil StageFunc is allowed
// everywhere; use sink to normalize.
type StageFunc func(Stage)

// sink returns fn or a no-op.
func sink(fn StageFunc) StageFunc {
	if fn == nil {
		return func(Stage) {}
	}
	return fn
}
