package throttle

import (
	"context"
	"time"
)

// SleepFunc pauses for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// CheckFunc inspects a remote job once. It returns done=true when the job
// reached a terminal state.
type CheckFunc func(ctx context.Context) (done bool, err error)

// Poller repeats a check at a fixed interval with no attempt limit
type Poller struct {
	Interval time.Duration
	Sleep    SleepFunc
}

// NewPoller creates a poller sleeping interval between checks
func NewPoller(interval time.Duration) *Poller {
	return &Poller{Interval: interval, Sleep: Sleep}
}

// Poll calls check until it reports done or fails. The first check runs
// immediately.
func (p *Poller) Poll(ctx context.Context, check CheckFunc) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return err
		}
	}
}

// Sleep waits for d using a timer, returning early with ctx.Err() on cancellation
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
