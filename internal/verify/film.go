package verify

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/quadra-game/quadra/internal/types"
)

// FilmVerifier verifies items against a film catalog. Lookups for items of
// the same group may run in parallel; the catalog has no per-client rate
// limit.
type FilmVerifier struct {
	catalog Catalog
	// maxParallel bounds concurrent catalog requests per batch.
	maxParallel int
}

// NewFilmVerifier returns a film-catalog verifier.
func NewFilmVerifier(catalog Catalog) *FilmVerifier {
	return &FilmVerifier{catalog: catalog, maxParallel: types.GroupSize}
}

func (v *FilmVerifier) RequiresCatalogID() bool { return true }

func (v *FilmVerifier) VerifyOne(ctx context.Context, title string, year *int) types.Item {
	item := types.Item{Title: title, Year: year}

	entries, err := v.catalog.Search(ctx, title)
	if err != nil {
		return item // unverified, never an error
	}
	entry, ok := match(entries, title, year, normalizeTitle)
	if !ok {
		return item
	}

	id := entry.ID
	item.ExternalID = &id
	item.Verified = true
	if item.Year == nil && entry.Year != nil {
		y := *entry.Year
		item.Year = &y
	}
	return item
}

func (v *FilmVerifier) VerifyMany(ctx context.Context, items []types.Item) []types.Item {
	out := make([]types.Item, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.maxParallel)
	for i, item := range items {
		g.Go(func() error {
			out[i] = v.VerifyOne(ctx, item.Title, item.Year)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return out
}

var _ Verifier = (*FilmVerifier)(nil)
