// Package verify matches informal (title, year) pairs against authoritative
// external catalogs.
//
// The pipeline depends only on the Verifier interface; concrete variants wrap
// a per-domain Catalog client (film, music) or pass items through unverified
// domains (books, sports). Verification MUST NOT fail the caller: catalog or
// network errors yield an unverified item, never an error.
package verify

import (
	"context"

	"github.com/quadra-game/quadra/internal/types"
)

// CatalogEntry is one search result from an external catalog.
type CatalogEntry struct {
	ID    int64
	Title string
	Year  *int
}

// Catalog is the abstract contract of an external catalog provider's search
// endpoint. The HTTP client behind it is out of scope here.
type Catalog interface {
	// Search returns candidate entries for a free-form title query.
	Search(ctx context.Context, title string) ([]CatalogEntry, error)
}

// Verifier maps an unnormalized (title, year?) to a catalog record, or marks
// it unverifiable.
type Verifier interface {
	// VerifyOne never returns an error to the caller; failures yield
	// Verified=false with a nil ExternalID.
	VerifyOne(ctx context.Context, title string, year *int) types.Item
	// VerifyMany verifies a batch, preserving input order and length.
	VerifyMany(ctx context.Context, items []types.Item) []types.Item
	// RequiresCatalogID reports whether pipeline auto-approval demands a
	// non-nil ExternalID in addition to Verified. Pass-through domains
	// verify without catalog ids and return false.
	RequiresCatalogID() bool
}

// yearTolerance is the accepted distance between the claimed and catalog
// year. Releases can straddle a year boundary.
const yearTolerance = 1

// yearWithinTolerance reports whether the candidate year is close enough to
// the claimed year. A candidate with no year never matches by year.
func yearWithinTolerance(want int, got *int) bool {
	if got == nil {
		return false
	}
	d := want - *got
	if d < 0 {
		d = -d
	}
	return d <= yearTolerance
}

// match scans catalog entries for the best match under the shared policy:
// a normalized-title match (with year tolerance when a year was claimed)
// wins; failing that, a year-only match within tolerance is accepted when a
// year was supplied.
func match(entries []CatalogEntry, title string, year *int, normalize func(string) string) (CatalogEntry, bool) {
	want := normalize(title)

	for _, e := range entries {
		if normalize(e.Title) != want {
			continue
		}
		if year == nil || yearWithinTolerance(*year, e.Year) {
			return e, true
		}
	}

	if year != nil {
		for _, e := range entries {
			if yearWithinTolerance(*year, e.Year) {
				return e, true
			}
		}
	}

	return CatalogEntry{}, false
}
