package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"socialsched/console/internal/api"
	"socialsched/console/internal/workflow"
)

var ErrTimedOut = errors.New("publish: status did not settle")

const (
	DefaultMaxAttempts = 20
	DefaultInterval    = 3 * time.Second
)

// Source reports the current publishing status of a post.
type Source interface {
	PublishingStatus(ctx context.Context, postID int64) (api.PublishingStatus, error)
}

// Publisher triggers publishing of a post.
type Publisher interface {
	Publish(ctx context.Context, postID int64) error
}

// Result is the last status observed. TimedOut is set when the attempts ran
// out before a terminal status was seen.
type Result struct {
	Status   api.PublishingStatus `json:"status"`
	Attempts int                  `json:"attempts"`
	TimedOut bool                 `json:"timed_out"`
}

func (r Result) Published() bool { return r.Status.Status == workflow.StatusPublished }

type Poller struct {
	Source      Source
	MaxAttempts int
	Interval    time.Duration
	Logger      *slog.Logger
	// OnStatus, when set, sees every fetched status in order.
	OnStatus func(attempt int, st api.PublishingStatus)
}

// Wait fetches the status until it is terminal, the attempts run out or ctx
// is done. The first fetch happens immediately.
func (p *Poller) Wait(ctx context.Context, postID int64) (Result, error) {
	if p.Source == nil {
		return Result{}, fmt.Errorf("publish: status source is required")
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	var res Result
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 1; attempt <= attempts; attempt++ {
		st, err := p.Source.PublishingStatus(ctx, postID)
		if err != nil {
			return res, fmt.Errorf("fetch publishing status: %w", err)
		}
		res.Status = st
		res.Attempts = attempt
		if p.OnStatus != nil {
			p.OnStatus(attempt, st)
		}
		if p.Logger != nil {
			p.Logger.Debug("publishing status", "post_id", postID, "attempt", attempt, "status", st.Status)
		}
		if st.Status.Terminal() {
			return res, nil
		}
		if attempt == attempts {
			break
		}

		if attempt > 1 {
			timer.Reset(interval)
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-timer.C:
		}
	}

	res.TimedOut = true
	return res, ErrTimedOut
}

// PublishAndWait triggers publishing and then waits for the outcome.
func PublishAndWait(ctx context.Context, pub Publisher, p *Poller, postID int64) (Result, error) {
	if err := pub.Publish(ctx, postID); err != nil {
		return Result{}, err
	}
	return p.Wait(ctx, postID)
}
