package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quadra-game/quadra/internal/types"
)

type fakeProvider struct {
	response string
	err      error
	prompts  []string
}

func (p *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	return p.response, nil
}

func TestGroupGeneratorGenerate(t *testing.T) {
	provider := &fakeProvider{response: `{
		"groups": [{
			"items": [{"title": "A"}, {"title": "B"}, {"title": "C"}, {"title": "D"}],
			"connection": "Letters",
			"connectionType": "Title elements"
		}]
	}`}
	gen := NewGroupGenerator(provider)

	groups, err := gen.Generate(context.Background(), GenerateRequest{
		Filters: Filters{Genre: types.GenreFilms, TargetDifficulty: "easy"},
		Count:   2,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(provider.prompts) != 1 || !strings.Contains(provider.prompts[0], "exactly 2 groups") {
		t.Error("prompt not built from the request")
	}
}

func TestGroupGeneratorProviderError(t *testing.T) {
	wantErr := errors.New("rate limited")
	gen := NewGroupGenerator(&fakeProvider{err: wantErr})

	_, err := gen.Generate(context.Background(), GenerateRequest{
		Filters: Filters{Genre: types.GenreFilms},
		Count:   1,
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected provider error to propagate, got %v", err)
	}
}

func TestGroupGeneratorRejectsNonPositiveCount(t *testing.T) {
	gen := NewGroupGenerator(&fakeProvider{})
	if _, err := gen.Generate(context.Background(), GenerateRequest{Count: 0}); err == nil {
		t.Error("expected error for count 0")
	}
}
