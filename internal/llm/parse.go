package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/quadra-game/quadra/internal/types"
)

// ErrMalformedResponse is returned when the provider's text contains no
// parseable JSON object.
var ErrMalformedResponse = errors.New("malformed LLM response")

// GeneratedGroup is one unverified candidate group from the LLM.
type GeneratedGroup struct {
	ID               string       `json:"id"`
	Items            []types.Item `json:"items"`
	Connection       string       `json:"connection"`
	ConnectionType   string       `json:"connectionType"`
	Explanation      string       `json:"explanation"`
	AllItemsVerified bool         `json:"allItemsVerified"`
}

type responseEnvelope struct {
	Groups []responseGroup `json:"groups"`
}

type responseGroup struct {
	Items          []responseItem `json:"items"`
	Connection     string         `json:"connection"`
	ConnectionType string         `json:"connectionType"`
	Explanation    string         `json:"explanation"`
}

type responseItem struct {
	Title string `json:"title"`
	Year  *int   `json:"year"`
}

// extractJSONObject returns the outermost balanced {...} span in text.
// LLM responses often wrap the JSON in prose or code fences; a greedy
// balanced-brace scan recovers the object.
func extractJSONObject(text string) (string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", fmt.Errorf("%w: unbalanced braces", ErrMalformedResponse)
}

// ParseResponse maps provider text into candidate groups. Pure function.
// Groups without exactly four items or without a connection are dropped.
func ParseResponse(text string) ([]GeneratedGroup, error) {
	raw, err := extractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var envelope responseEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	groups := make([]GeneratedGroup, 0, len(envelope.Groups))
	for _, rg := range envelope.Groups {
		if len(rg.Items) != types.GroupSize || strings.TrimSpace(rg.Connection) == "" {
			continue
		}
		g := GeneratedGroup{
			ID:             uuid.NewString(),
			Connection:     strings.TrimSpace(rg.Connection),
			ConnectionType: rg.ConnectionType,
			Explanation:    rg.Explanation,
		}
		for _, it := range rg.Items {
			g.Items = append(g.Items, types.Item{Title: strings.TrimSpace(it.Title), Year: it.Year})
		}
		groups = append(groups, g)
	}
	return groups, nil
}
