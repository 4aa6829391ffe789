// Package seed loads the built-in connection-type taxonomy into a fresh
// database so the LLM generator has prompt material before any human
// curation has happened.
package seed

import (
	"context"
	"fmt"

	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/types"
)

type seedType struct {
	name        string
	category    string
	description string
	examples    []string
}

// Genre-neutral taxonomy. Descriptions are phrased so each genre's expert
// role can apply them to its own domain.
var baseTaxonomy = []seedType{
	{"Hidden wordplay", "word-game", "Titles that share a concealed word, anagram, or sound pattern.", []string{"Titles hiding a color", "Titles that are one letter apart"}},
	{"Shared creator", "people", "Works by the same director, author, artist, or team.", []string{"Directed by Kurosawa", "Produced by Quincy Jones"}},
	{"Same performer", "people", "Works featuring the same actor, musician, or athlete in a notable role.", nil},
	{"Common theme", "thematic", "Works bound by a non-obvious shared theme or subject.", []string{"Heist gone wrong", "Unreliable narrators"}},
	{"Same setting", "setting", "Works set in the same city, country, era, or fictional universe.", []string{"Set in Tokyo", "Cold War era"}},
	{"Cultural milestone", "cultural", "Works tied to the same movement, award, or cultural moment.", []string{"Palme d'Or winners", "One-hit wonders of 1987"}},
	{"Narrative device", "narrative", "Works sharing a structural storytelling device.", []string{"Told in reverse", "Frame stories"}},
	{"Character archetype", "character", "Works centered on the same character type or a recurring named character.", nil},
	{"Production trivia", "production", "Works linked by a behind-the-scenes fact.", []string{"Shot in one take", "Recorded in a single session"}},
	{"Title elements", "elements", "Titles containing the same kind of element: numbers, places, names.", []string{"Titles with a number", "One-word titles"}},
}

// Run inserts the built-in taxonomy for a genre, skipping entries that
// already exist. Returns the number of types created.
func Run(ctx context.Context, store storage.ConnectionTypeStore, genre types.Genre) (int, error) {
	if !genre.Valid() {
		return 0, fmt.Errorf("invalid genre: %q", genre)
	}

	existing, err := store.ListAll(ctx, genre)
	if err != nil {
		return 0, fmt.Errorf("failed to list existing types: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, ct := range existing {
		have[ct.Name] = true
	}

	created := 0
	for _, st := range baseTaxonomy {
		if have[st.name] {
			continue
		}
		_, err := store.Create(ctx, &types.ConnectionType{
			Name:        st.name,
			Category:    st.category,
			Description: st.description,
			Examples:    st.examples,
			Active:      true,
			Genre:       genre,
		})
		if err != nil {
			return created, fmt.Errorf("failed to seed %q: %w", st.name, err)
		}
		created++
	}
	return created, nil
}
