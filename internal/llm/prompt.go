package llm

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/quadra-game/quadra/internal/types"
)

// YearRange bounds the items the LLM may draw from.
type YearRange struct {
	From int
	To   int
}

// Filters narrows one generation call.
type Filters struct {
	Genre              types.Genre
	YearRange          *YearRange
	ExcludeConnections []string
	// TargetDifficulty is the LLM-facing difficulty token. The hardest band
	// is spelled "expert" toward the model.
	TargetDifficulty string
}

// GenerateRequest is the input to one GroupGenerator.Generate call.
type GenerateRequest struct {
	Filters         Filters
	ConnectionTypes []*types.ConnectionType
	Count           int
	GoodExamples    []*types.FeedbackRecord
	BadExamples     []*types.FeedbackRecord
}

// expertRole names the expert persona for a genre.
func expertRole(genre types.Genre) string {
	switch genre {
	case types.GenreFilms:
		return "a film expert"
	case types.GenreMusic:
		return "a music expert"
	case types.GenreBooks:
		return "a literature expert"
	case types.GenreSports:
		return "a sports expert"
	}
	return "a trivia expert"
}

// TargetDifficultyToken converts a storage color to the LLM-facing
// difficulty token. The hardest band is spelled "expert" in prompts; that is
// the sole vocabulary gap between the prompt and storage.
func TargetDifficultyToken(c types.Color) string {
	if c == types.ColorPurple {
		return "expert"
	}
	return string(types.DifficultyForColor(c))
}

type promptData struct {
	Role               string
	Count              int
	ConnectionTypes    []*types.ConnectionType
	YearRange          *YearRange
	TargetDifficulty   string
	ExcludeConnections []string
	GoodExamples       []exampleData
	BadExamples        []exampleData
}

type exampleData struct {
	Connection string
	Items      string
	Reason     string
}

// BuildPrompt renders the generation prompt. Pure function of the request.
func BuildPrompt(req GenerateRequest) (string, error) {
	data := promptData{
		Role:               expertRole(req.Filters.Genre),
		Count:              req.Count,
		ConnectionTypes:    req.ConnectionTypes,
		YearRange:          req.Filters.YearRange,
		TargetDifficulty:   req.Filters.TargetDifficulty,
		ExcludeConnections: req.Filters.ExcludeConnections,
	}
	for _, ex := range req.GoodExamples {
		data.GoodExamples = append(data.GoodExamples, exampleData{
			Connection: ex.Connection,
			Items:      renderExampleItems(ex.Items),
		})
	}
	for _, ex := range req.BadExamples {
		data.BadExamples = append(data.BadExamples, exampleData{
			Connection: ex.Connection,
			Items:      renderExampleItems(ex.Items),
			Reason:     ex.RejectionReason,
		})
	}

	var b strings.Builder
	if err := promptTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return b.String(), nil
}

func renderExampleItems(items []types.FeedbackItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if it.Year != nil {
			parts = append(parts, fmt.Sprintf("%s (%d)", it.Title, *it.Year))
		} else {
			parts = append(parts, it.Title)
		}
	}
	return strings.Join(parts, ", ")
}

var promptTemplate = template.Must(template.New("generate").Parse(`You are {{.Role}} creating groups of 4 items for a puzzle game.

Create exactly {{.Count}} groups. Requirements:
- Each group has EXACTLY 4 items.
- Every item must be real and well-known; no invented titles.
- Connections should be novel and satisfying to discover; avoid trivial patterns like "all start with the same letter" or "all from the same decade".
- Include the release year for an item when it is meaningful.
{{if .ConnectionTypes}}
Draw connections from these types:
{{range .ConnectionTypes}}- {{.Name}} ({{.Category}}): {{.Description}}{{if .Examples}} Examples: {{range $i, $e := .Examples}}{{if $i}}; {{end}}{{$e}}{{end}}{{end}}
{{end}}{{end}}{{if .YearRange}}
Only use items released between {{.YearRange.From}} and {{.YearRange.To}}.
{{end}}{{if .TargetDifficulty}}
Target difficulty: {{.TargetDifficulty}}. Calibrate how obscure the items and how hidden the connection are to this level.
{{end}}{{if .ExcludeConnections}}
Do NOT reuse any of these connections:
{{range .ExcludeConnections}}- {{.}}
{{end}}{{end}}{{if .GoodExamples}}
Imitate the spirit of these well-received groups:
{{range .GoodExamples}}- "{{.Connection}}": {{.Items}}
{{end}}{{end}}{{if .BadExamples}}
Avoid the failure modes of these rejected groups:
{{range .BadExamples}}- "{{.Connection}}": {{.Items}} (rejected: {{.Reason}})
{{end}}{{end}}
Respond with STRICT JSON only, no prose, matching exactly:
{
  "groups": [
    {
      "items": [{"title": "...", "year": 1999}],
      "connection": "short human-readable connection",
      "connectionType": "one of the type names above",
      "explanation": "why these four belong together"
    }
  ]
}`))
