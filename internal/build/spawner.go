package build

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
)

// ProcessSpawner starts "<Path> run <id> <triggered_by>" as a detached process.
// The child gets no standard streams and its own session, so it outlives
// the request that spawned it.
type ProcessSpawner struct {
	Path string       // default: "builder"
	Env  []string     // nil means the current environment
	Log  *slog.Logger // optional
}

func (s *ProcessSpawner) Spawn(_ context.Context, params *SpawnParams) error {
	// The child must not be bound to the request context.
	cmd := exec.Command(s.path(), "run", strconv.FormatInt(params.BuildID, 10), params.TriggeredBy)
	cmd.Env = s.Env
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("build.ProcessSpawner: %w", err)
	}

	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	pid := cmd.Process.Pid
	log.Info("spawned builder", "id", params.BuildID, "pid", pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			log.Warn("builder exited", "id", params.BuildID, "pid", pid, "error", err)
		}
	}()

	return nil
}

func (s *ProcessSpawner) path() string {
	p := s.Path
	if p == "" {
		p = "builder"
	}
	return p
}
