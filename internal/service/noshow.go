package service

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	log "github.com/sirupsen/logrus"
)

// StartNoShowSweep schedules Ledger.SweepNoShows every interval. A
// Reserved booking becomes NoShow once its check-in date is more than
// grace in the past. The returned scheduler must be shut down by the
// caller.
func StartNoShowSweep(ledger *Ledger, interval, grace time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			cutoff := time.Now().UTC().Add(-grace)
			n, err := ledger.SweepNoShows(ctx, cutoff)
			entry := log.WithField("cutoff", cutoff.Format(time.RFC3339)).WithField("moved", n)
			if err != nil {
				entry.WithError(err).Error("no-show sweep failed")
				return
			}
			if n > 0 {
				entry.Info("no-show sweep")
			}
		}),
		gocron.WithName("noshow-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	s.Start()
	return s, nil
}
