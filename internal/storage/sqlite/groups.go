package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/types"
)

type groupStore struct {
	s *Store
}

const groupColumns = `id, created_at, items, connection, connection_type, difficulty, color,
	difficulty_score, status, usage_count, last_used_at, genre, metadata, source`

// scanGroup scans one connection_groups row.
func scanGroup(row interface {
	Scan(dest ...interface{}) error
}) (*types.Group, error) {
	var (
		g          types.Group
		items      string
		lastUsedAt sql.NullString
		metadata   string
	)
	err := row.Scan(
		&g.ID, &g.CreatedAt, &items, &g.Connection, &g.ConnectionType,
		&g.Difficulty, &g.Color, &g.DifficultyScore, &g.Status,
		&g.UsageCount, &lastUsedAt, &g.Genre, &metadata, &g.Source,
	)
	if err != nil {
		return nil, err
	}
	g.Items = unmarshalItems(items)
	g.LastUsedAt = parseNullableTime(lastUsedAt)
	g.Metadata = unmarshalMetadata(metadata)
	return &g, nil
}

func (gs *groupStore) Save(ctx context.Context, in storage.GroupInput) (*types.Group, error) {
	g, err := newGroupFromInput(in)
	if err != nil {
		return nil, err
	}

	items, err := marshalItems(g.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode items: %w", err)
	}

	_, err = gs.s.db.ExecContext(ctx, `
		INSERT INTO connection_groups (
			id, created_at, items, connection, connection_type, difficulty,
			color, difficulty_score, status, usage_count, genre, metadata, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
	`,
		g.ID, g.CreatedAt, items, g.Connection, g.ConnectionType, g.Difficulty,
		g.Color, g.DifficultyScore, g.Status, g.Genre,
		marshalMetadata(g.Metadata), g.Source,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("connection %q already exists for genre %s: %w",
				g.Connection, g.Genre, storage.ErrDuplicateConnection)
		}
		return nil, fmt.Errorf("failed to insert group: %w", err)
	}
	return g, nil
}

func (gs *groupStore) SaveBatch(ctx context.Context, in []storage.GroupInput) (int, error) {
	inserted := 0
	err := gs.s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO connection_groups (
				id, created_at, items, connection, connection_type, difficulty,
				color, difficulty_score, status, usage_count, genre, metadata, source
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
			ON CONFLICT(genre, connection) DO NOTHING
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, input := range in {
			g, err := newGroupFromInput(input)
			if err != nil {
				return err
			}
			items, err := marshalItems(g.Items)
			if err != nil {
				return fmt.Errorf("failed to encode items: %w", err)
			}
			res, err := stmt.ExecContext(ctx,
				g.ID, g.CreatedAt, items, g.Connection, g.ConnectionType, g.Difficulty,
				g.Color, g.DifficultyScore, g.Status, g.Genre,
				marshalMetadata(g.Metadata), g.Source,
			)
			if err != nil {
				return fmt.Errorf("failed to insert group %q: %w", g.Connection, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// newGroupFromInput validates the input and derives the stored fields the
// store owns: id, timestamps, and the difficulty pair for the color.
func newGroupFromInput(in storage.GroupInput) (*types.Group, error) {
	status := in.Status
	if status == "" {
		status = types.GroupPending
	}
	source := in.Source
	if source == "" {
		source = types.SourceSystem
	}
	g := &types.Group{
		ID:              uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		Items:           in.Items,
		Connection:      strings.TrimSpace(in.Connection),
		ConnectionType:  in.ConnectionType,
		Difficulty:      types.DifficultyForColor(in.Color),
		Color:           in.Color,
		DifficultyScore: types.ScoreForColor(in.Color),
		Status:          status,
		Genre:           in.Genre,
		Metadata:        in.Metadata,
		Source:          source,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

func (gs *groupStore) List(ctx context.Context, f storage.GroupFilter) ([]*types.Group, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if len(f.Colors) > 0 {
		conds = append(conds, fmt.Sprintf("color IN (%s)", placeholders(len(f.Colors))))
		for _, c := range f.Colors {
			args = append(args, c)
		}
	}
	if f.ConnectionType != "" {
		conds = append(conds, "connection_type = ?")
		args = append(args, f.ConnectionType)
	}
	if f.Genre != "" {
		conds = append(conds, "genre = ?")
		args = append(args, f.Genre)
	}
	if len(f.ExcludeIDs) > 0 {
		conds = append(conds, fmt.Sprintf("id NOT IN (%s)", placeholders(len(f.ExcludeIDs))))
		for _, id := range f.ExcludeIDs {
			args = append(args, id)
		}
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := gs.s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM connection_groups"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count groups: %w", err)
	}

	order := " ORDER BY created_at DESC, id"
	if f.SortByFreshness {
		order = " ORDER BY usage_count ASC, last_used_at ASC NULLS FIRST, created_at ASC, id"
	}
	query := "SELECT " + groupColumns + " FROM connection_groups" + where + order
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := gs.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var groups []*types.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, total, rows.Err()
}

func (gs *groupStore) GetByIDs(ctx context.Context, ids []string) ([]*types.Group, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := gs.s.db.QueryContext(ctx,
		"SELECT "+groupColumns+" FROM connection_groups WHERE id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[string]*types.Group, len(ids))
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		byID[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve input order, omit missing.
	out := make([]*types.Group, 0, len(ids))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (gs *groupStore) get(ctx context.Context, id string) (*types.Group, error) {
	g, err := scanGroup(gs.s.db.QueryRowContext(ctx,
		"SELECT "+groupColumns+" FROM connection_groups WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	return g, err
}

func (gs *groupStore) Update(ctx context.Context, id string, patch storage.GroupPatch) (*types.Group, error) {
	var (
		sets []string
		args []interface{}
	)
	if patch.Connection != nil {
		sets = append(sets, "connection = ?")
		args = append(args, strings.TrimSpace(*patch.Connection))
	}
	if patch.ConnectionType != nil {
		sets = append(sets, "connection_type = ?")
		args = append(args, *patch.ConnectionType)
	}
	if patch.Color != nil {
		if !patch.Color.Valid() {
			return nil, fmt.Errorf("invalid color: %q", *patch.Color)
		}
		// Color and difficulty move together.
		sets = append(sets, "color = ?", "difficulty = ?", "difficulty_score = ?")
		args = append(args, *patch.Color, types.DifficultyForColor(*patch.Color), types.ScoreForColor(*patch.Color))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.Items != nil {
		if len(patch.Items) != types.GroupSize {
			return nil, fmt.Errorf("group must have exactly %d items, got %d", types.GroupSize, len(patch.Items))
		}
		items, err := marshalItems(patch.Items)
		if err != nil {
			return nil, fmt.Errorf("failed to encode items: %w", err)
		}
		sets = append(sets, "items = ?")
		args = append(args, items)
	}
	if patch.Metadata != nil {
		sets = append(sets, "metadata = ?")
		args = append(args, marshalMetadata(patch.Metadata))
	}
	if len(sets) == 0 {
		return gs.get(ctx, id)
	}

	args = append(args, id)
	res, err := gs.s.db.ExecContext(ctx,
		"UPDATE connection_groups SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, storage.ErrDuplicateConnection
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, storage.ErrNotFound
	}
	return gs.get(ctx, id)
}

func (gs *groupStore) Delete(ctx context.Context, id string) error {
	// Never delete a group referenced by a puzzle.
	var refs int
	err := gs.s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM puzzles WHERE group_ids LIKE '%' || ? || '%'`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("failed to check puzzle references: %w", err)
	}
	if refs > 0 {
		return storage.ErrGroupInUse
	}

	res, err := gs.s.db.ExecContext(ctx,
		"DELETE FROM connection_groups WHERE id = ? AND status IN ('pending', 'rejected')", id)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (gs *groupStore) IncrementUsage(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := gs.s.db.ExecContext(ctx,
		`UPDATE connection_groups
		 SET usage_count = usage_count + 1, last_used_at = ?
		 WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}

func (gs *groupStore) CountsByColor(ctx context.Context, genre types.Genre) (map[types.Color]int, error) {
	rows, err := gs.s.db.QueryContext(ctx, `
		SELECT color, COUNT(*)
		FROM connection_groups
		WHERE genre = ? AND status = 'approved'
		GROUP BY color
	`, genre)
	if err != nil {
		return nil, fmt.Errorf("failed to count groups by color: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[types.Color]int{
		types.ColorYellow: 0,
		types.ColorGreen:  0,
		types.ColorBlue:   0,
		types.ColorPurple: 0,
	}
	for rows.Next() {
		var (
			c types.Color
			n int
		)
		if err := rows.Scan(&c, &n); err != nil {
			return nil, fmt.Errorf("failed to scan color count: %w", err)
		}
		counts[c] = n
	}
	return counts, rows.Err()
}

func (gs *groupStore) FreshestSet(ctx context.Context, excludeIDs map[string]bool, genre types.Genre) (map[types.Color]*types.Group, error) {
	exclude := make([]string, 0, len(excludeIDs))
	for id := range excludeIDs {
		exclude = append(exclude, id)
	}

	set := make(map[types.Color]*types.Group, len(types.Colors))
	for _, color := range types.Colors {
		query := "SELECT " + groupColumns + ` FROM connection_groups
			WHERE genre = ? AND status = 'approved' AND color = ?`
		args := []interface{}{genre, color}
		if len(exclude) > 0 {
			query += " AND id NOT IN (" + placeholders(len(exclude)) + ")"
			for _, id := range exclude {
				args = append(args, id)
			}
		}
		query += " ORDER BY usage_count ASC, last_used_at ASC NULLS FIRST, created_at ASC, id LIMIT 1"

		g, err := scanGroup(gs.s.db.QueryRowContext(ctx, query, args...))
		if err == sql.ErrNoRows {
			set[color] = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query freshest %s group: %w", color, err)
		}
		set[color] = g
	}
	return set, nil
}
