package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/quadra-game/quadra/internal/llm"
	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/types"
	"github.com/quadra-game/quadra/internal/verify"
)

// exemplarLimit is how many accepted/rejected feedback records shape each
// prompt.
const exemplarLimit = 10

// Generator drives the LLM → verifier → group-pool path for a set of color
// deficits.
type Generator struct {
	groups    storage.GroupStore
	feedback  storage.FeedbackStore
	connTypes storage.ConnectionTypeStore
	llm       *llm.GroupGenerator
	verifier  verify.Verifier
}

// NewGenerator wires a generator for one genre's verifier.
func NewGenerator(
	groups storage.GroupStore,
	feedback storage.FeedbackStore,
	connTypes storage.ConnectionTypeStore,
	gen *llm.GroupGenerator,
	verifier verify.Verifier,
) *Generator {
	return &Generator{
		groups:    groups,
		feedback:  feedback,
		connTypes: connTypes,
		llm:       gen,
		verifier:  verifier,
	}
}

// Generate asks the LLM for groupsPerColor candidates in each needed color,
// verifies every item, and persists the survivors as approved groups.
// LLM failures are recorded per color; one color's failure does not stop the
// others.
func (g *Generator) Generate(
	ctx context.Context,
	genre types.Genre,
	colorsNeeded []types.Color,
	groupsPerColor int,
	stage StageFunc,
) *types.GenerationResult {
	emit := sink(stage)
	result := &types.GenerationResult{
		ByColor: make(map[types.Color]types.ColorOutcome),
	}

	excludeConnections := g.existingConnections(ctx, genre)
	activeTypes, err := g.connTypes.ListActive(ctx, genre)
	if err != nil {
		result.Errors = append(result.Errors, types.PipelineError{
			Message: fmt.Sprintf("failed to load connection types: %v", err),
			Code:    types.ErrCodeStorage,
		})
	}
	goodExamples, err := g.feedback.AcceptedExamples(ctx, exemplarLimit, genre)
	if err != nil {
		goodExamples = nil
	}
	badExamples, err := g.feedback.RejectedExamples(ctx, exemplarLimit, genre)
	if err != nil {
		badExamples = nil
	}

	for _, color := range colorsNeeded {
		emit(GeneratingStage(color))

		candidates, err := g.llm.Generate(ctx, llm.GenerateRequest{
			Filters: llm.Filters{
				Genre:              genre,
				ExcludeConnections: excludeConnections,
				TargetDifficulty:   llm.TargetDifficultyToken(color),
			},
			ConnectionTypes: activeTypes,
			Count:           groupsPerColor,
			GoodExamples:    goodExamples,
			BadExamples:     badExamples,
		})
		if err != nil {
			result.Errors = append(result.Errors, types.PipelineError{
				Message: fmt.Sprintf("generation failed for %s: %v", color, err),
				Code:    types.ErrCodeGenerationFailed,
			})
			result.ByColor[color] = types.ColorOutcome{}
			continue
		}

		outcome := types.ColorOutcome{Generated: len(candidates)}
		result.GroupsGenerated += len(candidates)

		for _, candidate := range candidates {
			verified := g.verifier.VerifyMany(ctx, candidate.Items)
			if !allVerified(verified, g.verifier.RequiresCatalogID()) {
				result.Errors = append(result.Errors, types.PipelineError{
					Message: fmt.Sprintf("group %q has unverified items, skipping", candidate.Connection),
					Code:    types.ErrCodeUnverified,
				})
				continue
			}

			saved, err := g.groups.Save(ctx, storage.GroupInput{
				Items:          verified,
				Connection:     candidate.Connection,
				ConnectionType: candidate.ConnectionType,
				Color:          color,
				Status:         types.GroupApproved,
				Genre:          genre,
				Source:         types.SourceSystem,
				Metadata:       map[string]string{"explanation": candidate.Explanation},
			})
			if err != nil {
				if errors.Is(err, storage.ErrDuplicateConnection) {
					// Warning only: a sibling batch or earlier run already
					// owns this connection.
					result.Errors = append(result.Errors, types.PipelineError{
						Message: fmt.Sprintf("duplicate connection %q, skipping", candidate.Connection),
						Code:    types.ErrCodeStorage,
					})
					continue
				}
				result.Errors = append(result.Errors, types.PipelineError{
					Message: fmt.Sprintf("failed to save group %q: %v", candidate.Connection, err),
					Code:    types.ErrCodeStorage,
				})
				continue
			}

			outcome.Saved++
			result.GroupsSaved++
			// Exclude this connection from later colors in the same run.
			excludeConnections = append(excludeConnections, saved.Connection)
		}

		result.ByColor[color] = outcome
	}

	return result
}

// existingConnections lists every connection already stored for the genre so
// the prompt can forbid duplicates across batches.
func (g *Generator) existingConnections(ctx context.Context, genre types.Genre) []string {
	groups, _, err := g.groups.List(ctx, storage.GroupFilter{Genre: genre})
	if err != nil {
		return nil
	}
	connections := make([]string, 0, len(groups))
	for _, grp := range groups {
		connections = append(connections, grp.Connection)
	}
	return connections
}

// allVerified reports whether every item passed verification. For verifying
// domains a catalog id is also required; pass-through domains verify without
// one.
func allVerified(items []types.Item, requireCatalogID bool) bool {
	for _, it := range items {
		if !it.Verified {
			return false
		}
		if requireCatalogID && it.ExternalID == nil {
			return false
		}
	}
	return true
}
