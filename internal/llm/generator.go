package llm

import (
	"context"
	"fmt"
)

// GroupGenerator turns one provider call into candidate groups. It owns the
// prompt construction and response parsing; verification and persistence
// happen upstream in the pipeline.
type GroupGenerator struct {
	provider Provider
}

// NewGroupGenerator wraps a provider.
func NewGroupGenerator(provider Provider) *GroupGenerator {
	return &GroupGenerator{provider: provider}
}

// Generate asks the provider for up to req.Count candidate groups.
// Provider failures propagate; retries happen per color at the pipeline
// level, not here.
func (g *GroupGenerator) Generate(ctx context.Context, req GenerateRequest) ([]GeneratedGroup, error) {
	if req.Count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", req.Count)
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, err
	}

	text, err := g.provider.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("provider call failed: %w", err)
	}

	return ParseResponse(text)
}
