package llm

import (
	"strings"
	"testing"

	"github.com/quadra-game/quadra/internal/types"
)

func TestTargetDifficultyToken(t *testing.T) {
	tests := []struct {
		color types.Color
		want  string
	}{
		{types.ColorYellow, "easy"},
		{types.ColorGreen, "medium"},
		{types.ColorBlue, "hard"},
		{types.ColorPurple, "expert"}, // never "hardest" toward the model
	}
	for _, tt := range tests {
		if got := TargetDifficultyToken(tt.color); got != tt.want {
			t.Errorf("TargetDifficultyToken(%s) = %q, want %q", tt.color, got, tt.want)
		}
	}
}

func TestBuildPromptContents(t *testing.T) {
	year := 1999
	req := GenerateRequest{
		Filters: Filters{
			Genre:              types.GenreFilms,
			YearRange:          &YearRange{From: 1960, To: 2000},
			ExcludeConnections: []string{"Directed by Kurosawa", "Heist gone wrong"},
			TargetDifficulty:   "expert",
		},
		ConnectionTypes: []*types.ConnectionType{
			{Name: "Hidden wordplay", Category: "word-game", Description: "Titles share a concealed word.", Examples: []string{"Titles hiding a color"}},
		},
		Count: 5,
		GoodExamples: []*types.FeedbackRecord{
			{Connection: "Told in reverse", Items: []types.FeedbackItem{{Title: "Memento", Year: &year}}},
		},
		BadExamples: []*types.FeedbackRecord{
			{Connection: "Same decade", RejectionReason: "trivial pattern"},
		},
	}

	prompt, err := BuildPrompt(req)
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	for _, want := range []string{
		"a film expert",
		"exactly 5 groups",
		"EXACTLY 4 items",
		"Hidden wordplay (word-game)",
		"between 1960 and 2000",
		"Target difficulty: expert",
		"Do NOT reuse",
		"Directed by Kurosawa",
		"Told in reverse",
		"Memento (1999)",
		"rejected: trivial pattern",
		"STRICT JSON",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "hardest") {
		t.Error("prompt must not use the storage spelling of the top difficulty")
	}
}

func TestBuildPromptOmitsEmptySections(t *testing.T) {
	prompt, err := BuildPrompt(GenerateRequest{
		Filters: Filters{Genre: types.GenreBooks},
		Count:   3,
	})
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	for _, absent := range []string{
		"Only use items released",
		"Do NOT reuse",
		"well-received groups",
		"rejected groups",
		"Target difficulty",
	} {
		if strings.Contains(prompt, absent) {
			t.Errorf("prompt should omit %q when unset", absent)
		}
	}
	if !strings.Contains(prompt, "a literature expert") {
		t.Error("prompt missing genre role")
	}
}
