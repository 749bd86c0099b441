package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const DefaultTimeout = 5 * time.Minute

// Publisher deploys a rendered output directory.
type Publisher interface {
	Publish(ctx context.Context, dir string) error
}

// Notifier announces a finished build.
type Notifier interface {
	Notify(ctx context.Context, b *Build) error
}

// Runner supervises one build: it resolves the record, runs the render
// command under a timeout, finalizes the record and then publishes.
type Runner struct {
	Store     Store                                          // required
	Command   func(ctx context.Context, b *Build) *exec.Cmd // required
	Timeout   time.Duration                                  // default: DefaultTimeout
	Publisher Publisher                                      // optional
	OutputDir string                                         // required if Publisher is set
	Notifier  Notifier                                       // optional
	Log       *slog.Logger                                   // optional
}

type RunnerRunParams struct {
	BuildID     string // "auto" or a record id
	TriggeredBy string
}

// Run returns the finalized record. The render outcome is in the record,
// not in the error; the error is only for records that couldn't be resolved
// or finalized.
func (r *Runner) Run(ctx context.Context, params *RunnerRunParams) (*Build, error) {
	b, err := r.resolve(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("build.Runner: %w", err)
	}
	log := r.log().With("id", b.ID, "triggered_by", b.TriggeredBy)
	log.Info("build running")

	status, message := r.execute(ctx, b)

	completed, err := r.Store.Complete(context.WithoutCancel(ctx), &LedgerCompleteParams{
		ID:           b.ID,
		Status:       status,
		ErrorMessage: message,
	})
	if errors.Is(err, ErrAlreadyDone) {
		log.Warn("build was finalized elsewhere", "status", completed.Status)
		return completed, nil
	}
	if err != nil {
		return nil, fmt.Errorf("build.Runner: %w", err)
	}

	if completed.Status == StatusSuccess {
		log.Info("build succeeded")
		r.publish(ctx, log)
	} else {
		log.Error("build failed", "error", message)
	}

	if r.Notifier != nil {
		if err := r.Notifier.Notify(ctx, completed); err != nil {
			log.Error("didn't notify", "error", err)
		}
	}

	return completed, nil
}

func (r *Runner) resolve(ctx context.Context, params *RunnerRunParams) (*Build, error) {
	if params.BuildID == "auto" {
		current, err := r.Store.Current(ctx)
		if err != nil {
			return nil, err
		}
		if current.Status == StatusBuilding {
			return nil, ErrAlreadyBuilding
		}
		return r.Store.Start(ctx, &LedgerStartParams{TriggeredBy: params.TriggeredBy})
	}

	id, err := strconv.ParseInt(params.BuildID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid build id %q: %w", params.BuildID, err)
	}
	b, err := r.Store.Get(ctx, &LedgerGetParams{ID: id})
	if err != nil {
		return nil, err
	}
	if b.Status != StatusBuilding {
		return nil, ErrAlreadyDone
	}
	return b, nil
}

// execute never panics and never leaves the outcome undecided.
func (r *Runner) execute(ctx context.Context, b *Build) (status Status, message string) {
	defer func() {
		if v := recover(); v != nil {
			status, message = StatusFailed, fmt.Sprintf("build error: %v", v)
		}
	}()

	timeout := r.timeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := r.Command(ctx, b)
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return StatusFailed, fmt.Sprintf("build timed out (exceeded %s)", timeout)
	case err == nil:
		return StatusSuccess, ""
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if s := strings.TrimSpace(stderr.String()); s != "" {
			return StatusFailed, s
		}
		return StatusFailed, fmt.Sprintf("build exited with code %d", exitErr.ExitCode())
	}
	return StatusFailed, fmt.Sprintf("build error: %v", err)
}

// publish failures are logged only; the record stays successful.
func (r *Runner) publish(ctx context.Context, log *slog.Logger) {
	if r.Publisher == nil {
		return
	}
	if err := r.Publisher.Publish(ctx, r.OutputDir); err != nil {
		log.Error("didn't publish", "error", err)
		return
	}
	log.Info("published", "dir", r.OutputDir)
}

func (r *Runner) timeout() time.Duration {
	t := r.Timeout
	if t <= 0 {
		t = DefaultTimeout
	}
	return t
}

func (r *Runner) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}
