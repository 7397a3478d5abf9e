// Package delivery sends lifecycle notifications to the resolved queue: a
// heartbeat loop that runs for the life of the instance, and a single
// best-effort kill message when the process is asked to terminate.
package delivery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orijen-udf/lifecycle-agent/internal/models"
	agenterrors "github.com/orijen-udf/lifecycle-agent/pkg/errors"
)

// Intervals configures the heartbeat loop. The ceiling counts consecutive
// failures only; any success resets the run.
type Intervals struct {
	Success         time.Duration
	Failure         time.Duration
	FailureCeiling  int
	TeardownTimeout time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Success:         60 * time.Second,
		Failure:         10 * time.Second,
		FailureCeiling:  6,
		TeardownTimeout: 5 * time.Second,
	}
}

// Engine owns the delivery client for the whole run. The mutex serializes
// sends so the teardown message cannot race an in-flight heartbeat.
type Engine struct {
	sender    Sender
	heartbeat models.OutboundMessage
	intervals Intervals
	log       *zap.SugaredLogger

	mu       sync.Mutex
	teardown sync.Once
}

func NewEngine(sender Sender, identity models.IdentityRecord, intervals Intervals) *Engine {
	return &Engine{
		sender:    sender,
		heartbeat: models.NewOutboundMessage(identity),
		intervals: intervals,
		log:       zap.S().Named("delivery"),
	}
}

// Run sends heartbeats until the context is cancelled or the consecutive
// failure ceiling is reached. The ceiling is the only fatal condition after
// a successful resolution; it returns a FatalDeliveryError the caller turns
// into a non-zero exit.
func (e *Engine) Run(ctx context.Context) error {
	failures := 0
	for {
		err := e.send(ctx, false)
		if err != nil {
			failures++
			e.log.Warnw("heartbeat failed",
				"consecutiveFailures", failures, "ceiling", e.intervals.FailureCeiling, "error", err)
			if failures >= e.intervals.FailureCeiling {
				return agenterrors.NewFatalDeliveryError("heartbeat", failures, err)
			}
		} else {
			failures = 0
			e.log.Infow("heartbeat sent")
		}

		interval := e.intervals.Success
		if err != nil {
			interval = e.intervals.Failure
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Teardown fires the single best-effort kill message. It runs at most once,
// is bounded by the teardown timeout so it cannot hold up process exit, and
// swallows failures: the process is already going away.
func (e *Engine) Teardown() {
	e.teardown.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.intervals.TeardownTimeout)
		defer cancel()
		if err := e.send(ctx, true); err != nil {
			e.log.Warnw("teardown notification failed", "error", err)
			return
		}
		e.log.Infow("teardown notification sent")
	})
}

func (e *Engine) send(ctx context.Context, kill bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	msg := e.heartbeat
	msg.Kill = kill
	return e.sender.Send(ctx, msg)
}
