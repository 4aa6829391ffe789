// Package storage provides the store interfaces and shared value types for
// the quadra content pipeline.
//
// The concrete relational implementation lives in the sqlite sub-package.
// Consumers (the pipeline service, cmd/qd, the HTTP server) depend on these
// interfaces rather than on concrete types so that alternative backends and
// test fakes can be substituted.
package storage

import (
	"context"
	"errors"

	"github.com/quadra-game/quadra/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateConnection is returned when saving a group whose connection
// string already exists among approved groups of the same genre. Non-fatal at
// the caller: the generator records it as a warning and continues.
var ErrDuplicateConnection = errors.New("duplicate connection")

// ErrDuplicatePuzzle is returned when a puzzle write collides with the
// (puzzle_date, genre) uniqueness constraint or the group-multiset check.
var ErrDuplicatePuzzle = errors.New("duplicate puzzle")

// ErrGroupInUse is returned when deleting a group that is referenced by a
// puzzle. Only pending/rejected, unreferenced groups may be deleted.
var ErrGroupInUse = errors.New("group referenced by a puzzle")

// GroupFilter narrows GroupStore.List results. Zero values mean "any".
type GroupFilter struct {
	Status         types.GroupStatus
	Colors         []types.Color
	ConnectionType string
	Genre          types.Genre
	ExcludeIDs     []string
	// SortByFreshness orders by (usage_count ASC, last_used_at ASC NULLS
	// FIRST, created_at ASC) instead of newest-first.
	SortByFreshness bool
	Limit           int // 0 = no limit
	Offset          int
}

// GroupPatch is a partial update to a group. Nil fields are left unchanged.
type GroupPatch struct {
	Connection     *string
	ConnectionType *string
	Color          *types.Color
	Status         *types.GroupStatus
	Items          []types.Item
	Metadata       map[string]string
}

// GroupInput is the shape accepted by GroupStore.Save.
type GroupInput struct {
	Items           []types.Item
	Connection      string
	ConnectionType  string
	Color           types.Color
	Status          types.GroupStatus
	Genre           types.Genre
	Source          types.Source
	Metadata        map[string]string
}

// GroupStore persists groups and answers the pool-health and freshness
// queries the assembler depends on.
type GroupStore interface {
	// Save persists a new group. The store derives difficulty and
	// difficulty_score from the color. Returns ErrDuplicateConnection when an
	// approved group with the same (connection, genre) already exists.
	Save(ctx context.Context, in GroupInput) (*types.Group, error)
	// SaveBatch upserts groups, silently ignoring connection duplicates.
	// Returns the number of rows actually inserted.
	SaveBatch(ctx context.Context, in []GroupInput) (int, error)
	// List returns groups matching the filter plus the unpaginated total.
	List(ctx context.Context, f GroupFilter) ([]*types.Group, int, error)
	// GetByIDs returns groups preserving input order, omitting missing ids.
	GetByIDs(ctx context.Context, ids []string) ([]*types.Group, error)
	Update(ctx context.Context, id string, patch GroupPatch) (*types.Group, error)
	// Delete removes a pending or rejected group. Returns ErrGroupInUse when
	// the group is referenced by any puzzle.
	Delete(ctx context.Context, id string) error
	// IncrementUsage atomically bumps usage_count and stamps last_used_at for
	// each id.
	IncrementUsage(ctx context.Context, ids []string) error
	// CountsByColor returns approved-group counts per color for a genre.
	CountsByColor(ctx context.Context, genre types.Genre) (map[types.Color]int, error)
	// FreshestSet returns at most one approved group per color, ordered by
	// (usage_count ASC, last_used_at ASC NULLS FIRST, created_at ASC),
	// skipping excluded ids. A color with no eligible group maps to nil.
	FreshestSet(ctx context.Context, excludeIDs map[string]bool, genre types.Genre) (map[types.Color]*types.Group, error)
}

// PuzzlePatch is a partial update to a puzzle. Setting Status to published
// obliges the store to snapshot the (possibly newly patched) groups
// atomically with the status change.
type PuzzlePatch struct {
	PuzzleDate *string
	Title      *string
	Status     *types.PuzzleStatus
	GroupIDs   []string
}

// PuzzleUpdate pairs a puzzle id with the patch to apply to it.
type PuzzleUpdate struct {
	ID    string
	Patch PuzzlePatch
}

// PuzzleFilter narrows PuzzleStore.List results.
type PuzzleFilter struct {
	Status types.PuzzleStatus
	Genre  types.Genre
	Limit  int
	Offset int
}

// PuzzleInput is the shape accepted by PuzzleStore.Save. New puzzles are
// created pending and undated.
type PuzzleInput struct {
	GroupIDs []string
	Genre    types.Genre
	Title    string
	Source   types.Source
}

// PuzzleStore persists puzzles and answers the calendar and uniqueness
// queries the orchestrator depends on.
type PuzzleStore interface {
	Save(ctx context.Context, in PuzzleInput) (*types.Puzzle, error)
	Get(ctx context.Context, id string) (*types.Puzzle, error)
	List(ctx context.Context, f PuzzleFilter) ([]*types.Puzzle, int, error)
	// Update applies a patch. When the patch publishes the puzzle, the date,
	// status, and groups snapshot are written in a single transaction.
	// Returns ErrDuplicatePuzzle on a (puzzle_date, genre) collision.
	Update(ctx context.Context, id string, patch PuzzlePatch) (*types.Puzzle, error)
	Delete(ctx context.Context, id string) error
	BatchDelete(ctx context.Context, ids []string) error
	// BatchUpdate applies each entry's patch in order with the same publish
	// semantics as Update. Stops at the first failure, returning the puzzles
	// updated so far alongside the error.
	BatchUpdate(ctx context.Context, updates []PuzzleUpdate) ([]*types.Puzzle, error)
	// GetDaily returns the published puzzle for a date, preferring the stored
	// snapshot over live group rows. Returns ErrNotFound when no published
	// puzzle exists for the date.
	GetDaily(ctx context.Context, date string, genre types.Genre) (*types.Puzzle, error)
	// EmptyDays returns the dates in [from, to] (inclusive, ISO form) with no
	// puzzle row for the genre, in ascending order.
	EmptyDays(ctx context.Context, from, to string, genre types.Genre) ([]string, error)
	// ExistsWithGroupMultiset reports whether any puzzle of the genre uses
	// exactly these four groups, in any order.
	ExistsWithGroupMultiset(ctx context.Context, groupIDs []string, genre types.Genre) (bool, error)
	// UsedGroupIDs returns the union of group ids across all puzzles of the
	// genre, published or not.
	UsedGroupIDs(ctx context.Context, genre types.Genre) (map[string]bool, error)
}

// FeedbackStore persists accept/reject verdicts and samples recent exemplars
// for prompt shaping.
type FeedbackStore interface {
	Record(ctx context.Context, rec *types.FeedbackRecord) error
	// AcceptedExamples returns the most recent accepted records, newest first.
	AcceptedExamples(ctx context.Context, limit int, genre types.Genre) ([]*types.FeedbackRecord, error)
	// RejectedExamples returns the most recent rejected records, newest first.
	RejectedExamples(ctx context.Context, limit int, genre types.Genre) ([]*types.FeedbackRecord, error)
}

// ConnectionTypeStore maintains the active/inactive taxonomy of connection
// categories per genre.
type ConnectionTypeStore interface {
	ListActive(ctx context.Context, genre types.Genre) ([]*types.ConnectionType, error)
	ListAll(ctx context.Context, genre types.Genre) ([]*types.ConnectionType, error)
	Create(ctx context.Context, ct *types.ConnectionType) (*types.ConnectionType, error)
	Update(ctx context.Context, ct *types.ConnectionType) error
	Delete(ctx context.Context, id string) error
	ToggleActive(ctx context.Context, id string, active bool) error
}

// PipelineConfigStore holds one tuning row per genre. Get never fails on a
// missing row: it returns types.DefaultPipelineConfig for the genre.
type PipelineConfigStore interface {
	Get(ctx context.Context, genre types.Genre) (*types.PipelineConfig, error)
	// Upsert inserts or replaces the row for cfg.Genre.
	Upsert(ctx context.Context, cfg *types.PipelineConfig) error
	// ListEnabled returns configs (stored or default) for every known genre
	// that is enabled.
	ListEnabled(ctx context.Context) ([]*types.PipelineConfig, error)
}

// Storage bundles the five stores backed by one database.
type Storage interface {
	Groups() GroupStore
	Puzzles() PuzzleStore
	Feedback() FeedbackStore
	ConnectionTypes() ConnectionTypeStore
	PipelineConfigs() PipelineConfigStore
	Close() error
}
