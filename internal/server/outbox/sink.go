// Package outbox drains the ledger event outbox into external sinks.
package outbox

import (
	"context"

	"github.com/dmitrijs2005/gophmatch/internal/logging"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
)

// Sink receives events in Seq order. Publish may be called again for an event
// it already accepted if marking it delivered failed.
type Sink interface {
	Name() string
	Publish(ctx context.Context, e *models.Event) error
	Close() error
}

// LogSink writes every event to the structured log.
type LogSink struct {
	logger logging.Logger
}

func NewLogSink(logger logging.Logger) *LogSink {
	return &LogSink{logger: logger.With("module", "event_log")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Publish(ctx context.Context, e *models.Event) error {
	args := []any{"seq", e.Seq, "event_id", e.ID, "kind", e.Kind, "account", e.Account}
	if e.ApplicationID != nil {
		args = append(args, "app_id", *e.ApplicationID)
	}
	if e.Result != nil {
		args = append(args, "result", e.Result.String())
	}
	s.logger.Info(ctx, "event", args...)
	return nil
}

func (s *LogSink) Close() error { return nil }
