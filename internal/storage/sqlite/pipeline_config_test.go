package sqlite

import (
	"context"
	"testing"

	"github.com/quadra-game/quadra/internal/types"
)

func TestPipelineConfigDefaultsOnMissingRow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	cfg, err := store.PipelineConfigs().Get(ctx, types.GenreBooks)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if cfg.RollingWindowDays != types.DefaultWindowDays {
		t.Errorf("expected default window, got %d", cfg.RollingWindowDays)
	}
	if !cfg.Enabled {
		t.Error("default config should be enabled")
	}
}

func TestPipelineConfigUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	cfg := &types.PipelineConfig{
		Genre:                 types.GenreFilms,
		Enabled:               false,
		RollingWindowDays:     7,
		MinGroupsPerColor:     3,
		AIGenerationBatchSize: 5,
	}
	if err := store.PipelineConfigs().Upsert(ctx, cfg); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := store.PipelineConfigs().Get(ctx, types.GenreFilms)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.RollingWindowDays != 7 || got.Enabled {
		t.Errorf("unexpected config after upsert: %+v", got)
	}

	// Re-upsert replaces.
	cfg.RollingWindowDays = 14
	cfg.Enabled = true
	if err := store.PipelineConfigs().Upsert(ctx, cfg); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	got, _ = store.PipelineConfigs().Get(ctx, types.GenreFilms)
	if got.RollingWindowDays != 14 || !got.Enabled {
		t.Errorf("unexpected config after replace: %+v", got)
	}

	// Invalid values are rejected.
	bad := &types.PipelineConfig{Genre: types.GenreFilms, RollingWindowDays: 0, MinGroupsPerColor: 1, AIGenerationBatchSize: 1}
	if err := store.PipelineConfigs().Upsert(ctx, bad); err == nil {
		t.Error("expected error for zero window")
	}
}

func TestListEnabledSkipsDisabled(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	disabled := types.DefaultPipelineConfig(types.GenreSports)
	disabled.Enabled = false
	if err := store.PipelineConfigs().Upsert(ctx, disabled); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	configs, err := store.PipelineConfigs().ListEnabled(ctx)
	if err != nil {
		t.Fatalf("ListEnabled failed: %v", err)
	}
	// Three genres remain on defaults, sports is disabled.
	if len(configs) != len(types.KnownGenres)-1 {
		t.Fatalf("expected %d configs, got %d", len(types.KnownGenres)-1, len(configs))
	}
	for _, cfg := range configs {
		if cfg.Genre == types.GenreSports {
			t.Error("disabled genre leaked into ListEnabled")
		}
	}
}
