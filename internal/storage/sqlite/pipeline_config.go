package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quadra-game/quadra/internal/types"
)

type pipelineConfigStore struct {
	s *Store
}

func (pc *pipelineConfigStore) Get(ctx context.Context, genre types.Genre) (*types.PipelineConfig, error) {
	var (
		cfg     types.PipelineConfig
		enabled int
	)
	err := pc.s.db.QueryRowContext(ctx, `
		SELECT genre, enabled, rolling_window_days, min_groups_per_color, ai_generation_batch_size
		FROM pipeline_config WHERE genre = ?
	`, genre).Scan(&cfg.Genre, &enabled, &cfg.RollingWindowDays, &cfg.MinGroupsPerColor, &cfg.AIGenerationBatchSize)
	if err == sql.ErrNoRows {
		// Missing rows yield defaults; callers never invent their own.
		return types.DefaultPipelineConfig(genre), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline config: %w", err)
	}
	cfg.Enabled = enabled != 0
	return &cfg, nil
}

func (pc *pipelineConfigStore) Upsert(ctx context.Context, cfg *types.PipelineConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	enabled := 0
	if cfg.Enabled {
		enabled = 1
	}
	_, err := pc.s.db.ExecContext(ctx, `
		INSERT INTO pipeline_config (genre, enabled, rolling_window_days, min_groups_per_color, ai_generation_batch_size)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(genre) DO UPDATE SET
			enabled = excluded.enabled,
			rolling_window_days = excluded.rolling_window_days,
			min_groups_per_color = excluded.min_groups_per_color,
			ai_generation_batch_size = excluded.ai_generation_batch_size
	`, cfg.Genre, enabled, cfg.RollingWindowDays, cfg.MinGroupsPerColor, cfg.AIGenerationBatchSize)
	if err != nil {
		return fmt.Errorf("failed to upsert pipeline config: %w", err)
	}
	return nil
}

func (pc *pipelineConfigStore) ListEnabled(ctx context.Context) ([]*types.PipelineConfig, error) {
	var out []*types.PipelineConfig
	for _, genre := range types.KnownGenres {
		cfg, err := pc.Get(ctx, genre)
		if err != nil {
			return nil, err
		}
		if cfg.Enabled {
			out = append(out, cfg)
		}
	}
	return out, nil
}
