package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/quadra-game/quadra/internal/llm"
	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/telemetry"
	"github.com/quadra-game/quadra/internal/types"
	"github.com/quadra-game/quadra/internal/verify"
)

// maxAssembleAttempts bounds the uniqueness-collision retry loop for one
// date. Collisions inside the bound are not errors; only the terminal
// failure is.
const maxAssembleAttempts = 10

// generationCap is the per-color ceiling on one run's LLM ask.
const generationCap = 30

// VerifierFactory selects the verifier variant for a genre.
type VerifierFactory func(types.Genre) verify.Verifier

// Service orchestrates pool analysis, generation, and assembly for all
// genres. Safe for concurrent FillWindow calls: the database uniqueness
// constraints are the synchronization primitive.
type Service struct {
	store     storage.Storage
	llmGen    *llm.GroupGenerator // nil when no LLM credential is wired
	verifiers VerifierFactory
	now       func() time.Time
}

// NewService builds the orchestrator. llmGen may be nil; the pipeline then
// fills with whatever the pool holds and records deficits as errors.
func NewService(store storage.Storage, llmGen *llm.GroupGenerator, verifiers VerifierFactory) *Service {
	if verifiers == nil {
		verifiers = func(types.Genre) verify.Verifier { return verify.NewPassthroughVerifier() }
	}
	svc := &Service{
		store:     store,
		llmGen:    llmGen,
		verifiers: verifiers,
		now:       time.Now,
	}
	pipelineMetricsInit()
	return svc
}

// SetClock overrides the time source used to anchor the rolling window.
// Used by qd fill --from and by tests.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// LLMWired reports whether the service can generate new groups.
func (s *Service) LLMWired() bool {
	return s.llmGen != nil
}

// CheckPool summarizes approved-group supply per color. Sufficient means
// every color has at least one approved group.
func (s *Service) CheckPool(ctx context.Context, genre types.Genre) (*types.PoolHealth, error) {
	counts, err := s.store.Groups().CountsByColor(ctx, genre)
	if err != nil {
		return nil, err
	}
	health := &types.PoolHealth{Counts: counts, Sufficient: true}
	for _, c := range types.Colors {
		health.Total += counts[c]
		if counts[c] < 1 {
			health.Sufficient = false
		}
	}
	return health, nil
}

// UnusedCounts buckets approved groups not yet consumed by any puzzle,
// per color.
func (s *Service) UnusedCounts(ctx context.Context, genre types.Genre) (map[types.Color]int, error) {
	used, err := s.store.Puzzles().UsedGroupIDs(ctx, genre)
	if err != nil {
		return nil, err
	}
	approved, _, err := s.store.Groups().List(ctx, storage.GroupFilter{
		Status: types.GroupApproved,
		Genre:  genre,
	})
	if err != nil {
		return nil, err
	}

	counts := map[types.Color]int{
		types.ColorYellow: 0,
		types.ColorGreen:  0,
		types.ColorBlue:   0,
		types.ColorPurple: 0,
	}
	for _, g := range approved {
		if !used[g.ID] {
			counts[g.Color]++
		}
	}
	return counts, nil
}

// ColorsNeeded returns the colors whose unused supply cannot cover demand,
// in canonical color order.
func ColorsNeeded(unused map[types.Color]int, demand int) []types.Color {
	var needed []types.Color
	for _, c := range types.Colors {
		if unused[c] < demand {
			needed = append(needed, c)
		}
	}
	return needed
}

// EmptyDates lists the unfilled dates in the genre's rolling window
// [today, today+windowDays-1], ascending.
func (s *Service) EmptyDates(ctx context.Context, genre types.Genre, windowDays int) ([]string, error) {
	if windowDays < 1 {
		return nil, nil
	}
	today := s.now().UTC()
	from := today.Format(types.DateLayout)
	to := today.AddDate(0, 0, windowDays-1).Format(types.DateLayout)
	return s.store.Puzzles().EmptyDays(ctx, from, to, genre)
}

// AssemblePuzzleForDate builds and publishes one puzzle for a date, retrying
// freshest-set selection up to maxAssembleAttempts times when the chosen
// four-group multiset already exists. usedSet is mutated: colliding
// combinations and the published puzzle's groups are added so subsequent
// attempts and dates skip them.
//
// Returns (nil, nil) when some color has no eligible group or the retry
// budget is exhausted.
func (s *Service) AssemblePuzzleForDate(ctx context.Context, date string, genre types.Genre, usedSet map[string]bool) (*types.Puzzle, error) {
	groups := s.store.Groups()
	puzzles := s.store.Puzzles()

	for attempt := 0; attempt < maxAssembleAttempts; attempt++ {
		set, err := groups.FreshestSet(ctx, usedSet, genre)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, types.GroupSize)
		for _, color := range types.Colors {
			g := set[color]
			if g == nil {
				return nil, nil // cannot fill this date
			}
			ids = append(ids, g.ID)
		}

		exists, err := puzzles.ExistsWithGroupMultiset(ctx, ids, genre)
		if err != nil {
			return nil, err
		}
		if exists {
			// Exclude only the colliding combination; the next attempt picks
			// the next-freshest in whichever colors were selected.
			for _, id := range ids {
				usedSet[id] = true
			}
			continue
		}

		p, err := puzzles.Save(ctx, storage.PuzzleInput{
			GroupIDs: ids,
			Genre:    genre,
			Source:   types.SourceSystem,
		})
		if err != nil {
			return nil, err
		}

		status := types.PuzzlePublished
		p, err = puzzles.Update(ctx, p.ID, storage.PuzzlePatch{
			PuzzleDate: &date,
			Status:     &status,
		})
		if err != nil {
			return nil, err
		}

		if err := groups.IncrementUsage(ctx, ids); err != nil {
			return nil, err
		}
		for _, id := range ids {
			usedSet[id] = true
		}
		return p, nil
	}
	return nil, nil // gave up after maxAssembleAttempts collisions
}

// FillWindow runs one full pipeline pass for a genre: discover empty dates,
// generate groups for color deficits when an LLM is wired, then assemble and
// publish a puzzle per empty date. Per-date failures are recorded, never
// fatal; only misconfiguration and failures outside the per-date scope
// propagate.
func (s *Service) FillWindow(ctx context.Context, cfg *types.PipelineConfig, stage StageFunc) (*types.FillResult, error) {
	emit := sink(stage)
	result := types.NewFillResult()

	if err := cfg.Validate(); err != nil {
		emit(StageError)
		result.AddError("", err.Error(), types.ErrCodeMisconfigured)
		return result, fmt.Errorf("invalid pipeline config: %w", err)
	}

	tracer := telemetry.Tracer("github.com/quadra-game/quadra/pipeline")
	ctx, span := tracer.Start(ctx, "pipeline.fill_window")
	defer span.End()
	span.SetAttributes(attribute.String("quadra.genre", string(cfg.Genre)))

	emit(StageCheckingPool)
	emptyDates, err := s.EmptyDates(ctx, cfg.Genre, cfg.RollingWindowDays)
	if err != nil {
		emit(StageError)
		return nil, fmt.Errorf("failed to discover empty dates: %w", err)
	}
	if len(emptyDates) == 0 {
		emit(StageComplete)
		return result, nil
	}
	sort.Strings(emptyDates)

	unused, err := s.UnusedCounts(ctx, cfg.Genre)
	if err != nil {
		emit(StageError)
		return nil, fmt.Errorf("failed to compute unused counts: %w", err)
	}
	demand := len(emptyDates)
	colorsNeeded := ColorsNeeded(unused, demand)

	if len(colorsNeeded) > 0 {
		if s.LLMWired() {
			groupsPerColor := generationAsk(cfg.AIGenerationBatchSize, demand, unused)
			gen := NewGenerator(
				s.store.Groups(), s.store.Feedback(), s.store.ConnectionTypes(),
				s.llmGen, s.verifiers(cfg.Genre),
			)
			genResult := gen.Generate(ctx, cfg.Genre, colorsNeeded, groupsPerColor, stage)

			result.AIGenerationTriggered = true
			result.GroupsGenerated = genResult.GroupsGenerated
			result.GroupsSaved = genResult.GroupsSaved
			for c, outcome := range genResult.ByColor {
				result.GroupsByColor[c] = outcome
			}
			result.Errors = append(result.Errors, genResult.Errors...)

			if pipelineMetrics.groupsGenerated != nil {
				pipelineMetrics.groupsGenerated.Add(ctx, int64(genResult.GroupsSaved),
					metric.WithAttributes(attribute.String("quadra.genre", string(cfg.Genre))))
			}
		} else {
			names := make([]string, len(colorsNeeded))
			for i, c := range colorsNeeded {
				names[i] = string(c)
			}
			result.AddError("",
				fmt.Sprintf("insufficient unused groups for colors: %s (no LLM credential wired)", strings.Join(names, ", ")),
				types.ErrCodeInsufficientGroups)
			// Proceed to assembly anyway: a partial fill beats none.
		}
	}

	// Re-read after generation. Newly saved groups are in no puzzle yet, so
	// they are correctly absent from this exclusion set.
	usedSet, err := s.store.Puzzles().UsedGroupIDs(ctx, cfg.Genre)
	if err != nil {
		emit(StageError)
		return nil, fmt.Errorf("failed to read used groups: %w", err)
	}

	emit(StageCreatingPuzzles)
	for _, date := range emptyDates {
		if ctx.Err() != nil {
			result.AddError(date, "fill cancelled", types.ErrCodeCancelled)
			break
		}

		p, err := s.AssemblePuzzleForDate(ctx, date, cfg.Genre, usedSet)
		switch {
		case err != nil:
			result.EmptyDaysRemaining++
			result.AddError(date, err.Error(), classifyAssemblyError(err))
		case p == nil:
			result.EmptyDaysRemaining++
			result.AddError(date,
				fmt.Sprintf("no unused group combination available for %s", date),
				types.ErrCodeInsufficientGroups)
		default:
			result.PuzzlesCreated++
		}
	}

	if pipelineMetrics.puzzlesCreated != nil {
		pipelineMetrics.puzzlesCreated.Add(ctx, int64(result.PuzzlesCreated),
			metric.WithAttributes(attribute.String("quadra.genre", string(cfg.Genre))))
	}

	emit(StageComplete)
	return result, nil
}

// generationAsk sizes the per-color LLM ask: at least the configured batch,
// enough to cover the worst deficit with headroom, capped at generationCap.
func generationAsk(batchSize, demand int, unused map[types.Color]int) int {
	minUnused := unused[types.ColorYellow]
	for _, c := range types.Colors {
		if unused[c] < minUnused {
			minUnused = unused[c]
		}
	}
	ask := demand - minUnused + 5
	if batchSize > ask {
		ask = batchSize
	}
	if ask > generationCap {
		ask = generationCap
	}
	return ask
}

// classifyAssemblyError maps a per-date failure onto the error taxonomy.
func classifyAssemblyError(err error) types.PipelineErrorCode {
	if errors.Is(err, storage.ErrDuplicatePuzzle) {
		return types.ErrCodeDuplicatePuzzle
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.ErrCodeCancelled
	}
	return types.ErrCodeStorage
}

// pipelineMetrics holds lazily-initialized OTel instruments.
var pipelineMetrics struct {
	puzzlesCreated  metric.Int64Counter
	groupsGenerated metric.Int64Counter
}

var pipelineMetricsOnce sync.Once

func pipelineMetricsInit() {
	pipelineMetricsOnce.Do(initPipelineMetrics)
}

func initPipelineMetrics() {
	m := telemetry.Meter("github.com/quadra-game/quadra/pipeline")
	pipelineMetrics.puzzlesCreated, _ = m.Int64Counter("quadra.pipeline.puzzles_created",
		metric.WithDescription("Puzzles published by the pipeline"),
	)
	pipelineMetrics.groupsGenerated, _ = m.Int64Counter("quadra.pipeline.groups_saved",
		metric.WithDescription("LLM-generated groups saved to the pool"),
	)
}
