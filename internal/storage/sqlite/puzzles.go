package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/types"
)

type puzzleStore struct {
	s *Store
}

const puzzleColumns = `id, created_at, puzzle_date, title, group_ids, status, genre, source, groups_snapshot`

func scanPuzzle(row interface {
	Scan(dest ...interface{}) error
}) (*types.Puzzle, error) {
	var (
		p          types.Puzzle
		puzzleDate sql.NullString
		groupIDs   string
		snapshot   sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.CreatedAt, &puzzleDate, &p.Title, &groupIDs,
		&p.Status, &p.Genre, &p.Source, &snapshot,
	)
	if err != nil {
		return nil, err
	}
	if puzzleDate.Valid && puzzleDate.String != "" {
		d := puzzleDate.String
		p.PuzzleDate = &d
	}
	p.GroupIDs = unmarshalStringSlice(groupIDs)
	if snapshot.Valid && snapshot.String != "" {
		var groups []types.Group
		if err := json.Unmarshal([]byte(snapshot.String), &groups); err == nil {
			p.GroupsSnapshot = groups
		}
	}
	return &p, nil
}

func (ps *puzzleStore) Save(ctx context.Context, in storage.PuzzleInput) (*types.Puzzle, error) {
	if len(in.GroupIDs) != types.GroupSize {
		return nil, fmt.Errorf("puzzle must reference exactly %d groups, got %d", types.GroupSize, len(in.GroupIDs))
	}
	if !in.Genre.Valid() {
		return nil, fmt.Errorf("invalid genre: %q", in.Genre)
	}

	// Enforce one group per color: all four referenced groups must exist and
	// their colors must cover {yellow, green, blue, purple}.
	groups, err := (&groupStore{ps.s}).GetByIDs(ctx, in.GroupIDs)
	if err != nil {
		return nil, err
	}
	if len(groups) != types.GroupSize {
		return nil, fmt.Errorf("puzzle references %d missing groups", types.GroupSize-len(groups))
	}
	seen := make(map[types.Color]bool, types.GroupSize)
	for _, g := range groups {
		if seen[g.Color] {
			return nil, fmt.Errorf("puzzle has two %s groups", g.Color)
		}
		seen[g.Color] = true
	}

	source := in.Source
	if source == "" {
		source = types.SourceSystem
	}
	p := &types.Puzzle{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Title:     in.Title,
		GroupIDs:  in.GroupIDs,
		Status:    types.PuzzlePending,
		Genre:     in.Genre,
		Source:    source,
	}

	_, err = ps.s.db.ExecContext(ctx, `
		INSERT INTO puzzles (id, created_at, puzzle_date, title, group_ids, group_key, status, genre, source)
		VALUES (?, ?, NULL, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.CreatedAt, p.Title, marshalStringSlice(p.GroupIDs), groupKey(p.GroupIDs), p.Status, p.Genre, p.Source)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("puzzle with these groups already exists: %w", storage.ErrDuplicatePuzzle)
		}
		return nil, fmt.Errorf("failed to insert puzzle: %w", err)
	}
	return p, nil
}

func (ps *puzzleStore) Get(ctx context.Context, id string) (*types.Puzzle, error) {
	p, err := scanPuzzle(ps.s.db.QueryRowContext(ctx,
		"SELECT "+puzzleColumns+" FROM puzzles WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	return p, err
}

func (ps *puzzleStore) List(ctx context.Context, f storage.PuzzleFilter) ([]*types.Puzzle, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.Genre != "" {
		conds = append(conds, "genre = ?")
		args = append(args, f.Genre)
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := ps.s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM puzzles"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count puzzles: %w", err)
	}

	query := "SELECT " + puzzleColumns + " FROM puzzles" + where +
		" ORDER BY puzzle_date IS NULL, puzzle_date, created_at DESC"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := ps.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list puzzles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var puzzles []*types.Puzzle
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan puzzle: %w", err)
		}
		puzzles = append(puzzles, p)
	}
	return puzzles, total, rows.Err()
}

func (ps *puzzleStore) Update(ctx context.Context, id string, patch storage.PuzzlePatch) (*types.Puzzle, error) {
	publishing := patch.Status != nil && *patch.Status == types.PuzzlePublished

	err := ps.s.withTx(ctx, func(tx *sql.Tx) error {
		var (
			sets []string
			args []interface{}
		)
		if patch.PuzzleDate != nil {
			if _, err := time.Parse(types.DateLayout, *patch.PuzzleDate); err != nil {
				return fmt.Errorf("invalid puzzle date %q: %w", *patch.PuzzleDate, err)
			}
			sets = append(sets, "puzzle_date = ?")
			args = append(args, *patch.PuzzleDate)
		}
		if patch.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *patch.Title)
		}
		if patch.GroupIDs != nil {
			if len(patch.GroupIDs) != types.GroupSize {
				return fmt.Errorf("puzzle must reference exactly %d groups, got %d", types.GroupSize, len(patch.GroupIDs))
			}
			sets = append(sets, "group_ids = ?", "group_key = ?")
			args = append(args, marshalStringSlice(patch.GroupIDs), groupKey(patch.GroupIDs))
		}
		if patch.Status != nil {
			sets = append(sets, "status = ?")
			args = append(args, *patch.Status)
		}

		if publishing {
			// Publication snapshots the (possibly just-patched) groups in the
			// same transaction as the status flip. Resolve the effective
			// group ids first.
			ids := patch.GroupIDs
			if ids == nil {
				var stored string
				if err := tx.QueryRowContext(ctx,
					"SELECT group_ids FROM puzzles WHERE id = ?", id).Scan(&stored); err != nil {
					if err == sql.ErrNoRows {
						return storage.ErrNotFound
					}
					return fmt.Errorf("failed to read puzzle groups: %w", err)
				}
				ids = unmarshalStringSlice(stored)
			}

			snapshot, err := snapshotGroups(ctx, tx, ids)
			if err != nil {
				return err
			}
			sets = append(sets, "groups_snapshot = ?")
			args = append(args, snapshot)
		}

		if len(sets) == 0 {
			return nil
		}
		args = append(args, id)
		res, err := tx.ExecContext(ctx,
			"UPDATE puzzles SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("puzzle slot already taken: %w", storage.ErrDuplicatePuzzle)
			}
			return fmt.Errorf("failed to update puzzle: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return storage.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ps.Get(ctx, id)
}

// snapshotGroups serializes value copies of the groups for the published
// puzzle. All four groups must exist.
func snapshotGroups(ctx context.Context, tx *sql.Tx, ids []string) (string, error) {
	groups := make([]types.Group, 0, len(ids))
	for _, gid := range ids {
		g, err := scanGroup(tx.QueryRowContext(ctx,
			"SELECT "+groupColumns+" FROM connection_groups WHERE id = ?", gid))
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("cannot publish: group %s not found", gid)
		}
		if err != nil {
			return "", fmt.Errorf("failed to load group %s for snapshot: %w", gid, err)
		}
		groups = append(groups, *g)
	}
	b, err := json.Marshal(groups)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return string(b), nil
}

func (ps *puzzleStore) Delete(ctx context.Context, id string) error {
	res, err := ps.s.db.ExecContext(ctx, "DELETE FROM puzzles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete puzzle: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (ps *puzzleStore) BatchDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := ps.s.db.ExecContext(ctx,
		"DELETE FROM puzzles WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return fmt.Errorf("failed to delete puzzles: %w", err)
	}
	return nil
}

func (ps *puzzleStore) BatchUpdate(ctx context.Context, updates []storage.PuzzleUpdate) ([]*types.Puzzle, error) {
	out := make([]*types.Puzzle, 0, len(updates))
	for _, u := range updates {
		p, err := ps.Update(ctx, u.ID, u.Patch)
		if err != nil {
			return out, fmt.Errorf("failed to update puzzle %s: %w", u.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

func (ps *puzzleStore) GetDaily(ctx context.Context, date string, genre types.Genre) (*types.Puzzle, error) {
	p, err := scanPuzzle(ps.s.db.QueryRowContext(ctx,
		"SELECT "+puzzleColumns+" FROM puzzles WHERE puzzle_date = ? AND genre = ? AND status = 'published'",
		date, genre))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	// Prefer the snapshot; fall back to live groups for rows published before
	// snapshots existed.
	if len(p.GroupsSnapshot) == 0 {
		live, err := (&groupStore{ps.s}).GetByIDs(ctx, p.GroupIDs)
		if err != nil {
			return nil, err
		}
		for _, g := range live {
			p.GroupsSnapshot = append(p.GroupsSnapshot, *g)
		}
	}
	return p, nil
}

func (ps *puzzleStore) EmptyDays(ctx context.Context, from, to string, genre types.Genre) ([]string, error) {
	start, err := time.Parse(types.DateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("invalid from date %q: %w", from, err)
	}
	end, err := time.Parse(types.DateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("invalid to date %q: %w", to, err)
	}
	if end.Before(start) {
		return nil, nil
	}

	rows, err := ps.s.db.QueryContext(ctx, `
		SELECT DISTINCT puzzle_date FROM puzzles
		WHERE genre = ? AND puzzle_date IS NOT NULL AND puzzle_date >= ? AND puzzle_date <= ?
	`, genre, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled dates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	taken := make(map[string]bool)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		taken[d] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var empty []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		iso := d.Format(types.DateLayout)
		if !taken[iso] {
			empty = append(empty, iso)
		}
	}
	return empty, nil
}

func (ps *puzzleStore) ExistsWithGroupMultiset(ctx context.Context, groupIDs []string, genre types.Genre) (bool, error) {
	var n int
	err := ps.s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM puzzles WHERE genre = ? AND group_key = ?",
		genre, groupKey(groupIDs)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check group multiset: %w", err)
	}
	return n > 0, nil
}

func (ps *puzzleStore) UsedGroupIDs(ctx context.Context, genre types.Genre) (map[string]bool, error) {
	rows, err := ps.s.db.QueryContext(ctx,
		"SELECT group_ids FROM puzzles WHERE genre = ?", genre)
	if err != nil {
		return nil, fmt.Errorf("failed to query used groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	used := make(map[string]bool)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan group ids: %w", err)
		}
		for _, id := range unmarshalStringSlice(raw) {
			used[id] = true
		}
	}
	return used, rows.Err()
}
