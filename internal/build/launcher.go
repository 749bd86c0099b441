package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/k11v/sitebuild/internal/metrics"
	"github.com/k11v/sitebuild/internal/trigger"
)

const MessageAlreadyBuilding = "a build is already in progress"

var _ trigger.Launcher = (*Launcher)(nil)

// Spawner starts the builder for a record that is already building.
// A nil error means the builder process exists; it says nothing about the build.
type Spawner interface {
	Spawn(ctx context.Context, params *SpawnParams) error
}

type SpawnParams struct {
	BuildID     int64
	TriggeredBy string
}

// Launcher enforces a single running build and hands execution to a Spawner.
type Launcher struct {
	Store   Store             // required
	Spawner Spawner           // required
	Metrics *metrics.Recorder // optional
	Log     *slog.Logger      // optional
}

// TriggerBuild starts a build unless one is already running.
func (l *Launcher) TriggerBuild(ctx context.Context, triggeredBy string) (bool, error) {
	_, err := l.launch(ctx, triggeredBy, "auto")
	if errors.Is(err, ErrAlreadyBuilding) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type TriggerResult struct {
	Success bool
	Message string
	Build   *Build // nil unless Success
}

// Trigger is the operator entry point. Contention is reported in the result,
// not as an error.
func (l *Launcher) Trigger(ctx context.Context, triggeredBy string) (*TriggerResult, error) {
	b, err := l.launch(ctx, triggeredBy, "manual")
	if errors.Is(err, ErrAlreadyBuilding) {
		return &TriggerResult{Success: false, Message: MessageAlreadyBuilding}, nil
	}
	if err != nil {
		return nil, err
	}
	return &TriggerResult{
		Success: true,
		Message: fmt.Sprintf("build %d started", b.ID),
		Build:   b,
	}, nil
}

func (l *Launcher) launch(ctx context.Context, triggeredBy, source string) (*Build, error) {
	log := l.log().With("triggered_by", triggeredBy, "source", source)

	current, err := l.Store.Current(ctx)
	if err != nil {
		l.Metrics.ObserveTrigger(source, metrics.OutcomeError)
		return nil, fmt.Errorf("build.Launcher: %w", err)
	}
	if current.Status == StatusBuilding {
		log.Info("build already in progress", "id", current.ID)
		l.Metrics.ObserveTrigger(source, metrics.OutcomeBusy)
		return nil, fmt.Errorf("build.Launcher: %w", ErrAlreadyBuilding)
	}

	b, err := l.Store.Start(ctx, &LedgerStartParams{TriggeredBy: triggeredBy})
	if errors.Is(err, ErrAlreadyBuilding) {
		log.Info("lost build start race")
		l.Metrics.ObserveTrigger(source, metrics.OutcomeBusy)
		return nil, fmt.Errorf("build.Launcher: %w", err)
	}
	if err != nil {
		l.Metrics.ObserveTrigger(source, metrics.OutcomeError)
		return nil, fmt.Errorf("build.Launcher: %w", err)
	}

	spawnErr := l.Spawner.Spawn(ctx, &SpawnParams{BuildID: b.ID, TriggeredBy: triggeredBy})
	if spawnErr != nil {
		log.Error("didn't spawn builder", "id", b.ID, "error", spawnErr)
		l.Metrics.ObserveTrigger(source, metrics.OutcomeSpawnFailed)

		_, completeErr := l.Store.Complete(context.WithoutCancel(ctx), &LedgerCompleteParams{
			ID:           b.ID,
			Status:       StatusFailed,
			ErrorMessage: "builder spawn failed: " + spawnErr.Error(),
		})
		if completeErr != nil && !errors.Is(completeErr, ErrAlreadyDone) {
			return nil, fmt.Errorf("build.Launcher: %w", errors.Join(spawnErr, completeErr))
		}
		return nil, fmt.Errorf("build.Launcher: %w", spawnErr)
	}

	log.Info("build started", "id", b.ID)
	l.Metrics.ObserveTrigger(source, metrics.OutcomeStarted)
	return b, nil
}

func (l *Launcher) log() *slog.Logger {
	if l.Log != nil {
		return l.Log
	}
	return slog.Default()
}
