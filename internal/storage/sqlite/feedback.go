package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quadra-game/quadra/internal/types"
)

type feedbackStore struct {
	s *Store
}

func (fs *feedbackStore) Record(ctx context.Context, rec *types.FeedbackRecord) error {
	if rec.Connection == "" {
		return fmt.Errorf("feedback must name a connection")
	}
	if !rec.Accepted && rec.RejectionReason == "" {
		return fmt.Errorf("rejection feedback must carry a reason")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("failed to encode feedback items: %w", err)
	}
	accepted := 0
	if rec.Accepted {
		accepted = 1
	}

	_, err = fs.s.db.ExecContext(ctx, `
		INSERT INTO group_feedback (id, created_at, items, connection, accepted, rejection_reason, genre)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.CreatedAt, string(items), rec.Connection, accepted, rec.RejectionReason, rec.Genre)
	if err != nil {
		return fmt.Errorf("failed to record feedback: %w", err)
	}
	return nil
}

func (fs *feedbackStore) AcceptedExamples(ctx context.Context, limit int, genre types.Genre) ([]*types.FeedbackRecord, error) {
	return fs.examples(ctx, limit, genre, true)
}

func (fs *feedbackStore) RejectedExamples(ctx context.Context, limit int, genre types.Genre) ([]*types.FeedbackRecord, error) {
	return fs.examples(ctx, limit, genre, false)
}

func (fs *feedbackStore) examples(ctx context.Context, limit int, genre types.Genre, accepted bool) ([]*types.FeedbackRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	acceptedInt := 0
	if accepted {
		acceptedInt = 1
	}
	rows, err := fs.s.db.QueryContext(ctx, `
		SELECT id, created_at, items, connection, accepted, rejection_reason, genre
		FROM group_feedback
		WHERE genre = ? AND accepted = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, genre, acceptedInt, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*types.FeedbackRecord
	for rows.Next() {
		var (
			rec        types.FeedbackRecord
			items      string
			acceptedDB int
		)
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &items, &rec.Connection, &acceptedDB, &rec.RejectionReason, &rec.Genre); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		rec.Accepted = acceptedDB != 0
		if err := json.Unmarshal([]byte(items), &rec.Items); err != nil {
			rec.Items = nil
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
