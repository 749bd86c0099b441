package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/k11v/sitebuild/internal/build"
	"github.com/k11v/sitebuild/internal/metrics"
)

const MessageAbandoned = "build abandoned"

// ReapGrace is added to the build timeout before a record counts as abandoned.
const ReapGrace = time.Minute

type ReaperLedger interface {
	Stale(ctx context.Context, startedBefore time.Time) ([]*build.Build, error)
	Complete(ctx context.Context, params *build.LedgerCompleteParams) (*build.Build, error)
}

// Reaper fails building records whose builder died without finalizing them,
// so that the single-build mutex is released.
type Reaper struct {
	Ledger  ReaperLedger      // required
	Timeout time.Duration     // default: build.DefaultTimeout
	Metrics *metrics.Recorder // optional
	Log     *slog.Logger      // optional
	Now     func() time.Time  // default: time.Now
}

// Reap returns how many records it failed.
func (r *Reaper) Reap(ctx context.Context) (int, error) {
	before := r.now().Add(-(r.timeout() + ReapGrace))
	stale, err := r.Ledger.Stale(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("schedule.Reaper: %w", err)
	}

	reaped := 0
	for _, b := range stale {
		_, err = r.Ledger.Complete(ctx, &build.LedgerCompleteParams{
			ID:           b.ID,
			Status:       build.StatusFailed,
			ErrorMessage: MessageAbandoned,
		})
		if errors.Is(err, build.ErrAlreadyDone) {
			continue
		}
		if err != nil {
			return reaped, fmt.Errorf("schedule.Reaper: %w", err)
		}
		r.log().Warn("reaped build", "build_id", b.ID, "started_at", b.StartedAt)
		reaped++
	}

	r.Metrics.ObserveReaped(reaped)
	return reaped, nil
}

func (r *Reaper) timeout() time.Duration {
	if r.Timeout == 0 {
		return build.DefaultTimeout
	}
	return r.Timeout
}

func (r *Reaper) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Reaper) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}
