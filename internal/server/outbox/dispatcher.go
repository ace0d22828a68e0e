package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophmatch/internal/logging"
	"github.com/dmitrijs2005/gophmatch/internal/server/models"
	"github.com/dmitrijs2005/gophmatch/internal/server/repositories/repomanager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	eventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gophmatch_events_published_total",
			Help: "Outbox events handed to a sink, by sink and outcome.",
		},
		[]string{"sink", "outcome"},
	)

	eventsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gophmatch_events_pending",
			Help: "Undelivered events seen by the last dispatcher poll.",
		},
	)
)

// Dispatcher polls the ledger for undelivered events, hands each one to every
// sink in Seq order and then marks it delivered. Delivery is at least once: a
// failed sink stops the batch and the event is retried on the next poll.
type Dispatcher struct {
	ledger   repomanager.Ledger
	sinks    []Sink
	logger   logging.Logger
	interval time.Duration
	batch    int
	now      func() time.Time

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewDispatcher(ledger repomanager.Ledger, sinks []Sink, logger logging.Logger, interval time.Duration, batch int) *Dispatcher {
	if interval <= 0 {
		interval = time.Second
	}
	if batch <= 0 {
		batch = 100
	}
	return &Dispatcher{
		ledger:   ledger,
		sinks:    sinks,
		logger:   logger.With("module", "outbox"),
		interval: interval,
		batch:    batch,
		now:      func() time.Time { return time.Now().UTC() },
		stop:     make(chan struct{}),
	}
}

// Start launches the polling goroutine.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go d.loop(ctx)
}

// Stop signals the loop to exit, waits for it and closes the sinks.
func (d *Dispatcher) Stop() error {
	d.once.Do(func() { close(d.stop) })
	d.wg.Wait()

	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stop:
			d.logger.Info(ctx, "dispatcher stopping")
			return
		case <-ctx.Done():
			d.logger.Info(ctx, "context canceled, dispatcher exiting")
			return
		case <-ticker.C:
			for {
				n, err := d.DispatchOnce(ctx)
				if err != nil {
					d.logger.Warn(ctx, "dispatch failed", "error", err)
					break
				}
				// a full batch means more may be waiting
				if n < d.batch {
					break
				}
			}
		}
	}
}

// DispatchOnce delivers up to one batch of pending events and returns how
// many were marked delivered.
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	var pending []*models.Event
	err := d.ledger.View(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
		var err error
		pending, err = r.Events.ListPending(ctx, d.batch)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("list pending: %w", err)
	}
	eventsPending.Set(float64(len(pending)))

	delivered := 0
	for _, e := range pending {
		if err := d.publish(ctx, e); err != nil {
			return delivered, err
		}

		at := d.now()
		err := d.ledger.Atomic(ctx, func(ctx context.Context, r *repomanager.Repositories) error {
			return r.Events.MarkDelivered(ctx, e.Seq, at)
		})
		if err != nil {
			return delivered, fmt.Errorf("mark %d delivered: %w", e.Seq, err)
		}
		delivered++
	}
	return delivered, nil
}

func (d *Dispatcher) publish(ctx context.Context, e *models.Event) error {
	for _, s := range d.sinks {
		if err := s.Publish(ctx, e); err != nil {
			eventsPublished.WithLabelValues(s.Name(), "error").Inc()
			return fmt.Errorf("event %d to %s: %w", e.Seq, s.Name(), err)
		}
		eventsPublished.WithLabelValues(s.Name(), "ok").Inc()
	}
	return nil
}
