package services

import (
	"context"
	"errors"
	"time"

	"cafebot/pkg/logger"
)

// Effect kinds emitted by the checkout engine and booking flow. The user-facing
// response is decided before any of these run; a dispatcher executes them
// independently so a failed side effect never blocks or rolls back an order.
type EffectKind int

const (
	EffectNotify EffectKind = iota
	EffectUpdateStats
	EffectUpdateProfile
)

// Effect is one post-commit side effect to perform.
type Effect struct {
	Kind   EffectKind
	Tenant string

	// EffectNotify
	ChatID int64
	Text   string

	// EffectUpdateStats / EffectUpdateProfile
	UserID int64
	Items  []PricedItem
	Total  int64
	At     time.Time
}

// PricedItem is one cart line priced against the live menu at checkout time.
type PricedItem struct {
	Name   string
	Qty    int
	Amount int64
}

const (
	effectQueueSize  = 256
	effectAttempts   = 3
	effectRetryDelay = 2 * time.Second
)

// Dispatcher drains the effect queue. One effect's failure is isolated: it is
// retried a few times, then logged and dropped.
type Dispatcher struct {
	queue     chan Effect
	gateway   Gateway
	stats     *Stats
	customers *Customers
	log       *logger.Logger
}

func NewDispatcher(gateway Gateway, stats *Stats, customers *Customers, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		queue:     make(chan Effect, effectQueueSize),
		gateway:   gateway,
		stats:     stats,
		customers: customers,
		log:       log,
	}
}

// Enqueue never blocks the calling handler; when the queue is full the effect
// is dropped and logged.
func (d *Dispatcher) Enqueue(e Effect) {
	select {
	case d.queue <- e:
	default:
		d.log.Errorw("effect queue full, dropping effect", "kind", e.Kind, "tenant", e.Tenant)
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-d.queue:
			d.execute(ctx, e)
		}
	}
}

func (d *Dispatcher) execute(ctx context.Context, e Effect) {
	var err error
	for attempt := 1; attempt <= effectAttempts; attempt++ {
		err = d.apply(ctx, e)
		if err == nil {
			return
		}
		if errors.Is(err, ErrRecipientUnreachable) || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(effectRetryDelay):
		}
	}
	d.log.Errorw("effect failed", "kind", e.Kind, "tenant", e.Tenant, "error", err)
}

func (d *Dispatcher) apply(ctx context.Context, e Effect) error {
	switch e.Kind {
	case EffectNotify:
		return d.gateway.Send(ctx, e.ChatID, e.Text)
	case EffectUpdateStats:
		return d.stats.RecordOrder(ctx, e.Tenant, e.Items, e.Total)
	case EffectUpdateProfile:
		return d.customers.RecordOrder(ctx, e.Tenant, e.UserID, e.Items, e.Total, e.At)
	}
	return nil
}

// DrainOnce applies every queued effect synchronously. Test helper.
func (d *Dispatcher) DrainOnce(ctx context.Context) {
	for {
		select {
		case e := <-d.queue:
			if err := d.apply(ctx, e); err != nil {
				d.log.Errorw("effect failed", "kind", e.Kind, "tenant", e.Tenant, "error", err)
			}
		default:
			return
		}
	}
}
