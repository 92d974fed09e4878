package jobs

import (
	"context"
	"log/slog"
	"time"

	"attendly/internal/service"
)

// WaitlistSweepJob periodically promotes waiters into slots freed outside
// the normal cancellation path, for example after a manual capacity bump.
type WaitlistSweepJob struct {
	sweep    *service.SweepService
	interval time.Duration
	window   time.Duration
	ticker   *time.Ticker
	done     chan bool
}

func NewWaitlistSweepJob(sweep *service.SweepService, interval, window time.Duration) *WaitlistSweepJob {
	return &WaitlistSweepJob{
		sweep:    sweep,
		interval: interval,
		window:   window,
		done:     make(chan bool),
	}
}

// Start begins the background job that sweeps upcoming events on a ticker
func (j *WaitlistSweepJob) Start(ctx context.Context) {
	slog.Info("Starting waitlist sweep job",
		"interval", j.interval.String(),
		"window", j.window.String())

	j.ticker = time.NewTicker(j.interval)

	// Run initial sweep immediately
	go j.runSweep(ctx)

	go func() {
		for {
			select {
			case <-j.ticker.C:
				go j.runSweep(ctx)
			case <-j.done:
				slog.Info("Waitlist sweep job stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the background job
func (j *WaitlistSweepJob) Stop() {
	if j.ticker != nil {
		j.ticker.Stop()
	}
	close(j.done)
}

func (j *WaitlistSweepJob) runSweep(ctx context.Context) {
	result, err := j.sweep.SweepUpcoming(ctx, j.window)
	if err != nil {
		slog.Error("Waitlist sweep pass failed", "error", err)
		return
	}

	if result.Total == 0 {
		slog.Debug("No waiters promoted this pass")
		return
	}

	slog.Info("Waitlist sweep pass completed",
		"events", len(result.Events),
		"promoted", result.Total)
}
