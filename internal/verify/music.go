package verify

import (
	"context"
	"time"

	"github.com/quadra-game/quadra/internal/types"
)

// musicRequestGap is the minimum delay between consecutive music-catalog
// requests. The upstream enforces roughly 3 req/s per client.
const musicRequestGap = 300 * time.Millisecond

// MusicVerifier verifies items against a music catalog. Requests are issued
// strictly sequentially with at least musicRequestGap between them.
type MusicVerifier struct {
	catalog Catalog
	gap     time.Duration
	// lastRequest is the completion time of the previous catalog request.
	// MusicVerifier is not safe for concurrent use; the pipeline verifies
	// one music batch at a time.
	lastRequest time.Time
}

// NewMusicVerifier returns a music-catalog verifier.
func NewMusicVerifier(catalog Catalog) *MusicVerifier {
	return &MusicVerifier{catalog: catalog, gap: musicRequestGap}
}

func (v *MusicVerifier) RequiresCatalogID() bool { return true }

// waitForSlot sleeps until the rate-limit gap since the previous request has
// elapsed, or the context is cancelled.
func (v *MusicVerifier) waitForSlot(ctx context.Context) error {
	if v.lastRequest.IsZero() {
		return nil
	}
	wait := v.gap - time.Since(v.lastRequest)
	if wait <= 0 {
		return nil
	}
	select {
	case <-time.After(wait):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *MusicVerifier) VerifyOne(ctx context.Context, title string, year *int) types.Item {
	item := types.Item{Title: title, Year: year}

	if err := v.waitForSlot(ctx); err != nil {
		return item
	}
	entries, err := v.catalog.Search(ctx, title)
	v.lastRequest = time.Now()
	if err != nil {
		return item
	}

	entry, ok := match(entries, title, year, normalizeMusicTitle)
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

func (v *MusicVerifier) VerifyMany(ctx context.Context, items []types.Item) []types.Item {
	out := make([]types.Item, len(items))
	for i, item := range items {
		out[i] = v.VerifyOne(ctx, item.Title, item.Year)
	}
	return out
}

var _ Verifier = (*MusicVerifier)(nil)
