// Package events is the transactional outbox: events are appended in the
// same transition as the state they describe and later drained by the
// dispatcher.
package events

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

type Repository interface {
	// Append assigns e.Seq.
	Append(ctx context.Context, e *models.Event) error
	// ListPending returns up to limit undelivered events in Seq order.
	ListPending(ctx context.Context, limit int) ([]*models.Event, error)
	MarkDelivered(ctx context.Context, seq int64, at time.Time) error
}
