package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/hotel-operations/internal/model"
)

// Dispatcher runs fire-and-forget side effects (notifications, task
// spawning, event publishing) after the primary write has committed.
// Failures and panics are logged and never reach the caller.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewDispatcher returns a Dispatcher whose effects each get timeout to
// finish.
func NewDispatcher(timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{timeout: timeout}
}

// Go runs fn in the background with a fresh context detached from the
// request that triggered it.
func (d *Dispatcher) Go(name string, fields log.Fields, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		entry := log.WithFields(fields).WithField("effect", name)
		defer func() {
			if r := recover(); r != nil {
				entry.WithField("panic", fmt.Sprint(r)).Error("side effect panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			entry.WithError(err).Warn("side effect failed")
		}
	}()
}

// Notify sends ev through n in the background.
func (d *Dispatcher) Notify(n Notifier, ev model.NotificationEvent) {
	d.Go("notify", log.Fields{
		"recipient_id": ev.RecipientID,
		"entity_type":  ev.RelatedEntity.Type,
		"entity_id":    ev.RelatedEntity.ID,
	}, func(ctx context.Context) error {
		return n.Notify(ctx, ev)
	})
}

// Publish sends payload to the broker in the background.
func (d *Dispatcher) Publish(p EventPublisher, key string, payload any) {
	d.Go("publish", log.Fields{"routing_key": key}, func(ctx context.Context) error {
		return p.Publish(ctx, key, payload)
	})
}

// Wait blocks until every effect started so far has returned. Used on
// shutdown and in tests.
func (d *Dispatcher) Wait() { d.wg.Wait() }
