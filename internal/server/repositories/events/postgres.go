package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/dbx"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

// PostgresRepository keeps the event body as JSONB next to the columns the
// dispatcher filters on.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, e *models.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	query :=
		`INSERT INTO events (id, kind, payload, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING seq
		 `

	if err := r.db.QueryRowContext(ctx, query, e.ID, string(e.Kind), payload, e.CreatedAt).Scan(&e.Seq); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListPending(ctx context.Context, limit int) ([]*models.Event, error) {
	query :=
		`SELECT seq, payload FROM events
		 WHERE delivered_at IS NULL
		 ORDER BY seq
		 LIMIT $1
		 `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Event
	for rows.Next() {
		var (
			seq     int64
			payload []byte
		)
		if err := rows.Scan(&seq, &payload); err != nil {
			return nil, err
		}

		e := &models.Event{}
		if err := json.Unmarshal(payload, e); err != nil {
			return nil, fmt.Errorf("event %d: %w", seq, err)
		}
		e.Seq = seq
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) MarkDelivered(ctx context.Context, seq int64, at time.Time) error {
	query := `UPDATE events SET delivered_at = $1 WHERE seq = $2`

	if _, err := r.db.ExecContext(ctx, query, at, seq); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
