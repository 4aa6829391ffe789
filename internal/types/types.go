// Package types defines the core value types for the quadra content pipeline:
// items, groups, puzzles, connection types, feedback records, and the
// per-genre pipeline configuration.
package types

import (
	"fmt"
	"time"
)

// Genre identifies a content domain. Each genre has its own puzzle calendar,
// group pool, and verifier.
type Genre string

const (
	GenreFilms  Genre = "films"
	GenreMusic  Genre = "music"
	GenreBooks  Genre = "books"
	GenreSports Genre = "sports"
)

// KnownGenres lists the genres the pipeline ships with, in display order.
var KnownGenres = []Genre{GenreFilms, GenreMusic, GenreBooks, GenreSports}

// Valid reports whether g is one of the known genres.
func (g Genre) Valid() bool {
	switch g {
	case GenreFilms, GenreMusic, GenreBooks, GenreSports:
		return true
	}
	return false
}

// Color is the four-valued difficulty band tag. Every published puzzle
// contains exactly one group of each color.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorPurple Color = "purple"
)

// Colors lists all four colors in ascending difficulty order.
var Colors = []Color{ColorYellow, ColorGreen, ColorBlue, ColorPurple}

// Valid reports whether c is one of the four puzzle colors.
func (c Color) Valid() bool {
	switch c {
	case ColorYellow, ColorGreen, ColorBlue, ColorPurple:
		return true
	}
	return false
}

// Difficulty is the storage-side difficulty label. It maps one-to-one onto
// Color; the pair is stored redundantly so either can be filtered on.
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyHardest Difficulty = "hardest"
)

// colorDifficulty is the canonical color ↔ difficulty mapping.
var colorDifficulty = map[Color]Difficulty{
	ColorYellow: DifficultyEasy,
	ColorGreen:  DifficultyMedium,
	ColorBlue:   DifficultyHard,
	ColorPurple: DifficultyHardest,
}

// DifficultyForColor returns the difficulty label paired with a color.
func DifficultyForColor(c Color) Difficulty {
	return colorDifficulty[c]
}

// ScoreForColor returns the 1..4 difficulty score paired with a color.
func ScoreForColor(c Color) int {
	switch c {
	case ColorYellow:
		return 1
	case ColorGreen:
		return 2
	case ColorBlue:
		return 3
	case ColorPurple:
		return 4
	}
	return 0
}

// ColorForDifficulty returns the color paired with a difficulty label.
// The LLM-facing token "expert" is accepted as an alias for "hardest";
// that is the sole vocabulary gap between the prompt and storage.
func ColorForDifficulty(d Difficulty) (Color, error) {
	if d == "expert" {
		d = DifficultyHardest
	}
	for c, cd := range colorDifficulty {
		if cd == d {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty: %q", d)
}

// GroupStatus is the review lifecycle state of a group.
type GroupStatus string

const (
	GroupPending  GroupStatus = "pending"
	GroupApproved GroupStatus = "approved"
	GroupRejected GroupStatus = "rejected"
)

// PuzzleStatus is the lifecycle state of a puzzle.
type PuzzleStatus string

const (
	PuzzlePending   PuzzleStatus = "pending"
	PuzzleApproved  PuzzleStatus = "approved"
	PuzzlePublished PuzzleStatus = "published"
	PuzzleRejected  PuzzleStatus = "rejected"
)

// Source records whether a record was created by the automated pipeline or a
// human editor.
type Source string

const (
	SourceSystem Source = "system"
	SourceUser   Source = "user"
)

// Item is one of the four members of a group. ExternalID is the catalog's
// identifier and stays nil until the item has been verified; once Verified is
// true for a verifying domain, ExternalID is set.
type Item struct {
	ExternalID *int64 `json:"externalId,omitempty"`
	Title      string `json:"title"`
	Year       *int   `json:"year,omitempty"`
	Verified   bool   `json:"verified"`
}

// Group is a set of four items sharing a hidden connection, tagged with a
// color/difficulty band and a review status.
type Group struct {
	ID              string            `json:"id"`
	CreatedAt       time.Time         `json:"createdAt"`
	Items           []Item            `json:"items"`
	Connection      string            `json:"connection"`
	ConnectionType  string            `json:"connectionType"`
	Difficulty      Difficulty        `json:"difficulty"`
	Color           Color             `json:"color"`
	DifficultyScore int               `json:"difficultyScore"`
	Status          GroupStatus       `json:"status"`
	UsageCount      int               `json:"usageCount"`
	LastUsedAt      *time.Time        `json:"lastUsedAt,omitempty"`
	Genre           Genre             `json:"genre"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	Source          Source            `json:"source"`
}

// GroupSize is the number of items in every group, and the number of groups
// in every puzzle.
const GroupSize = 4

// Validate checks the structural invariants of a group.
func (g *Group) Validate() error {
	if len(g.Items) != GroupSize {
		return fmt.Errorf("group must have exactly %d items, got %d", GroupSize, len(g.Items))
	}
	if !g.Color.Valid() {
		return fmt.Errorf("invalid color: %q", g.Color)
	}
	if g.Difficulty != DifficultyForColor(g.Color) {
		return fmt.Errorf("difficulty %q does not match color %q", g.Difficulty, g.Color)
	}
	if g.Connection == "" {
		return fmt.Errorf("connection must not be empty")
	}
	if !g.Genre.Valid() {
		return fmt.Errorf("invalid genre: %q", g.Genre)
	}
	return nil
}

// Puzzle is a scheduled arrangement of four groups, one per color.
// GroupsSnapshot is populated at publish time with value copies of the four
// groups so later group edits cannot change a published puzzle.
type Puzzle struct {
	ID             string       `json:"id"`
	CreatedAt      time.Time    `json:"createdAt"`
	PuzzleDate     *string      `json:"puzzleDate,omitempty"` // ISO date YYYY-MM-DD
	Title          string       `json:"title,omitempty"`
	GroupIDs       []string     `json:"groupIds"`
	Status         PuzzleStatus `json:"status"`
	Genre          Genre        `json:"genre"`
	Source         Source       `json:"source"`
	GroupsSnapshot []Group      `json:"groupsSnapshot,omitempty"`
}

// ConnectionType is a taxonomy entry used as prompt material for the LLM
// generator. Groups reference types by name only; there is no structural link.
type ConnectionType struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Examples    []string  `json:"examples,omitempty"`
	Active      bool      `json:"active"`
	Genre       Genre     `json:"genre"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ConnectionTypeCategories is the closed set of taxonomy categories.
var ConnectionTypeCategories = []string{
	"word-game", "people", "thematic", "setting", "cultural",
	"narrative", "character", "production", "elements",
}

// FeedbackItem is the item shape recorded in feedback rows (no catalog data).
type FeedbackItem struct {
	Title string `json:"title"`
	Year  *int   `json:"year,omitempty"`
}

// FeedbackRecord is an append-only accept/reject verdict on a group,
// sampled later as prompt exemplars.
type FeedbackRecord struct {
	ID              string         `json:"id"`
	CreatedAt       time.Time      `json:"createdAt"`
	Items           []FeedbackItem `json:"items"`
	Connection      string         `json:"connection"`
	Accepted        bool           `json:"accepted"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	Genre           Genre          `json:"genre"`
}

// PipelineConfig is the per-genre pipeline tuning row. Missing rows yield
// DefaultPipelineConfig for that genre.
type PipelineConfig struct {
	Genre                 Genre `json:"genre"`
	Enabled               bool  `json:"enabled"`
	RollingWindowDays     int   `json:"rollingWindowDays"`
	MinGroupsPerColor     int   `json:"minGroupsPerColor"`
	AIGenerationBatchSize int   `json:"aiGenerationBatchSize"`
}

// Pipeline config defaults.
const (
	DefaultWindowDays        = 30
	DefaultMinGroupsPerColor = 10
	DefaultBatchSize         = 20
)

// DefaultPipelineConfig returns the implicit config for a genre with no
// stored row. Constructed here so callers never invent defaults themselves.
func DefaultPipelineConfig(genre Genre) *PipelineConfig {
	return &PipelineConfig{
		Genre:                 genre,
		Enabled:               true,
		RollingWindowDays:     DefaultWindowDays,
		MinGroupsPerColor:     DefaultMinGroupsPerColor,
		AIGenerationBatchSize: DefaultBatchSize,
	}
}

// Validate rejects configs no fill could run with.
func (c *PipelineConfig) Validate() error {
	if !c.Genre.Valid() {
		return fmt.Errorf("invalid genre: %q", c.Genre)
	}
	if c.RollingWindowDays < 1 || c.MinGroupsPerColor < 1 || c.AIGenerationBatchSize < 1 {
		return fmt.Errorf("pipeline config values must be >= 1")
	}
	return nil
}

// DateLayout is the ISO date form used for puzzle dates throughout.
const DateLayout = "2006-01-02"
