package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quadra-game/quadra/internal/storage"
	"github.com/quadra-game/quadra/internal/types"
)

type connectionTypeStore struct {
	s *Store
}

const connectionTypeColumns = `id, created_at, name, category, description, examples, active, genre`

func scanConnectionType(row interface {
	Scan(dest ...interface{}) error
}) (*types.ConnectionType, error) {
	var (
		ct       types.ConnectionType
		examples string
		active   int
	)
	err := row.Scan(&ct.ID, &ct.CreatedAt, &ct.Name, &ct.Category, &ct.Description, &examples, &active, &ct.Genre)
	if err != nil {
		return nil, err
	}
	ct.Examples = unmarshalStringSlice(examples)
	ct.Active = active != 0
	return &ct, nil
}

func (cs *connectionTypeStore) ListActive(ctx context.Context, genre types.Genre) ([]*types.ConnectionType, error) {
	return cs.list(ctx, genre, true)
}

func (cs *connectionTypeStore) ListAll(ctx context.Context, genre types.Genre) ([]*types.ConnectionType, error) {
	return cs.list(ctx, genre, false)
}

func (cs *connectionTypeStore) list(ctx context.Context, genre types.Genre, activeOnly bool) ([]*types.ConnectionType, error) {
	query := "SELECT " + connectionTypeColumns + " FROM connection_types WHERE genre = ?"
	if activeOnly {
		query += " AND active = 1"
	}
	query += " ORDER BY category, name"

	rows, err := cs.s.db.QueryContext(ctx, query, genre)
	if err != nil {
		return nil, fmt.Errorf("failed to list connection types: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.ConnectionType
	for rows.Next() {
		ct, err := scanConnectionType(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection type: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

func (cs *connectionTypeStore) Create(ctx context.Context, ct *types.ConnectionType) (*types.ConnectionType, error) {
	if ct.Name == "" {
		return nil, fmt.Errorf("connection type must have a name")
	}
	created := *ct
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	active := 0
	if created.Active {
		active = 1
	}

	_, err := cs.s.db.ExecContext(ctx, `
		INSERT INTO connection_types (id, created_at, name, category, description, examples, active, genre)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, created.ID, created.CreatedAt, created.Name, created.Category, created.Description,
		marshalStringSlice(created.Examples), active, created.Genre)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("connection type %q already exists for genre %s", created.Name, created.Genre)
		}
		return nil, fmt.Errorf("failed to insert connection type: %w", err)
	}
	return &created, nil
}

func (cs *connectionTypeStore) Update(ctx context.Context, ct *types.ConnectionType) error {
	active := 0
	if ct.Active {
		active = 1
	}
	res, err := cs.s.db.ExecContext(ctx, `
		UPDATE connection_types
		SET name = ?, category = ?, description = ?, examples = ?, active = ?
		WHERE id = ?
	`, ct.Name, ct.Category, ct.Description, marshalStringSlice(ct.Examples), active, ct.ID)
	if err != nil {
		return fmt.Errorf("failed to update connection type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (cs *connectionTypeStore) Delete(ctx context.Context, id string) error {
	res, err := cs.s.db.ExecContext(ctx, "DELETE FROM connection_types WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete connection type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (cs *connectionTypeStore) ToggleActive(ctx context.Context, id string, active bool) error {
	v := 0
	if active {
		v = 1
	}
	res, err := cs.s.db.ExecContext(ctx,
		"UPDATE connection_types SET active = ? WHERE id = ?", v, id)
	if err != nil {
		return fmt.Errorf("failed to toggle connection type: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
