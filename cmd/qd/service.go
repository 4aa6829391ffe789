package main

import (
	"context"
	"fmt"
	"os"

	"github.com/quadra-game/quadra/internal/config"
	"github.com/quadra-game/quadra/internal/llm"
	"github.com/quadra-game/quadra/internal/pipeline"
	"github.com/quadra-game/quadra/internal/types"
	"github.com/quadra-game/quadra/internal/verify"
)

// buildService opens the store and wires the pipeline service from config.
// The LLM generator is nil when no credential is available; the caller
// decides whether that is fatal.
func buildService(ctx context.Context) (*pipeline.Service, error) {
	s, err := openStore(ctx)
	if err != nil {
		return nil, err
	}

	creds := config.LoadCredentials()

	var gen *llm.GroupGenerator
	if creds.LLMAPIKey != "" {
		client, err := llm.NewAnthropicClient(creds.LLMAPIKey, config.LLMModel())
		if err != nil {
			return nil, err
		}
		gen = llm.NewGroupGenerator(client)
	} else if verboseFlag {
		fmt.Fprintln(os.Stderr, "No LLM credential configured; generation disabled")
	}

	// Catalog HTTP clients plug in here; without them every genre verifies
	// pass-through.
	verifiers := func(genre types.Genre) verify.Verifier {
		return verify.ForGenre(genre, verify.Catalogs{})
	}

	return pipeline.NewService(s, gen, verifiers), nil
}

// parseGenre validates the --genre flag value.
func parseGenre(s string) (types.Genre, error) {
	g := types.Genre(s)
	if !g.Valid() {
		return "", fmt.Errorf("unknown genre %q (known: films, music, books, sports)", s)
	}
	return g, nil
}
