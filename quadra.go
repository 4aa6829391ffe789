// Package quadra provides a minimal public API for embedding the quadra
// content pipeline in other Go programs.
//
// It exports only the essential types and constructors; everything else
// lives under internal/ and is reachable through these surfaces.
package quadra

import (
	"context"

	"github.com/quadra-game/quadra/internal/pipeline"
	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/storage/sqlite"
	"github.com/quadra-game/quadra/internal/types"
)

// Core types for working with the puzzle pool
type (
	Genre          = types.Genre
	Color          = types.Color
	Group          = types.Group
	Puzzle         = types.Puzzle
	Item           = types.Item
	PipelineConfig = types.PipelineConfig
	FillResult     = types.FillResult
	PoolHealth     = types.PoolHealth
)

// Genre constants
const (
	GenreFilms  = types.GenreFilms
	GenreMusic  = types.GenreMusic
	GenreBooks  = types.GenreBooks
	GenreSports = types.GenreSports
)

// Color constants, in ascending difficulty order
const (
	ColorYellow = types.ColorYellow
	ColorGreen  = types.ColorGreen
	ColorBlue   = types.ColorBlue
	ColorPurple = types.ColorPurple
)

// Storage bundles the stores backed by one database.
type Storage = storage.Storage

// Service is the pipeline orchestrator: pool analysis, generation, and
// window filling.
type Service = pipeline.Service

// NewSQLiteStorage opens a quadra SQLite database for programmatic access.
func NewSQLiteStorage(ctx context.Context, dbPath string) (Storage, error) {
	return sqlite.New(ctx, dbPath)
}

// NewService builds a pipeline service without an LLM generator or catalog
// verifiers: it fills from whatever the pool holds. Embedders that need
// generation wire internal dependencies through cmd/qd instead.
func NewService(store Storage) *Service {
	return pipeline.NewService(store, nil, nil)
}

// DefaultPipelineConfig returns the implicit per-genre tuning used when no
// row has been stored.
func DefaultPipelineConfig(genre Genre) *PipelineConfig {
	return types.DefaultPipelineConfig(genre)
}
