// Package schedule runs the periodic housekeeping of the build pipeline.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
)

type Config struct {
	ReapInterval  time.Duration `env:"REAP_INTERVAL"`  // default: 1m
	DrainInterval time.Duration `env:"DRAIN_INTERVAL"` // default: 30s
}

func (c *Config) reapInterval() time.Duration {
	if c.ReapInterval == 0 {
		return time.Minute
	}
	return c.ReapInterval
}

func (c *Config) drainInterval() time.Duration {
	if c.DrainInterval == 0 {
		return 30 * time.Second
	}
	return c.DrainInterval
}

// DrainMinAge is how old an unfired build request must be before the drainer
// fires it in place of its own transaction.
const DrainMinAge = 10 * time.Second

type Drainer interface {
	FirePending(ctx context.Context, minAge time.Duration) (int, error)
}

// Scheduler runs the reaper and the build request drainer on fixed intervals.
type Scheduler struct {
	scheduler gocron.Scheduler
	log       *slog.Logger
}

type NewParams struct {
	Config  *Config      // required
	Reaper  *Reaper      // optional
	Drainer Drainer      // optional
	Log     *slog.Logger // optional
}

func New(params *NewParams) (*Scheduler, error) {
	log := params.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "schedule")

	s, err := gocron.NewScheduler(gocron.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("schedule.New: %w", err)
	}
	sch := &Scheduler{scheduler: s, log: log}

	if params.Reaper != nil {
		_, err = s.NewJob(
			gocron.DurationJob(params.Config.reapInterval()),
			gocron.NewTask(sch.reap, params.Reaper),
			gocron.WithName("reap-builds"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return nil, fmt.Errorf("schedule.New: %w", err)
		}
	}

	if params.Drainer != nil {
		_, err = s.NewJob(
			gocron.DurationJob(params.Config.drainInterval()),
			gocron.NewTask(sch.drain, params.Drainer),
			gocron.WithName("drain-build-requests"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		)
		if err != nil {
			return nil, fmt.Errorf("schedule.New: %w", err)
		}
	}

	return sch, nil
}

func (s *Scheduler) Start() {
	s.log.Info("starting scheduler")
	s.scheduler.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() error {
	s.log.Info("stopping scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("schedule.Scheduler: %w", err)
	}
	return nil
}

func (s *Scheduler) reap(r *Reaper) {
	n, err := r.Reap(context.Background())
	if err != nil {
		s.log.Error("didn't reap builds", "error", err)
		return
	}
	if n > 0 {
		s.log.Warn("reaped abandoned builds", "count", n)
	}
}

func (s *Scheduler) drain(d Drainer) {
	n, err := d.FirePending(context.Background(), DrainMinAge)
	if err != nil {
		s.log.Error("didn't drain build requests", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("drained build requests", "count", n)
	}
}
