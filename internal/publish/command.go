package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

const maxOutput = 4096

// CommandPublisher runs a shell command inside the rendered directory,
// for example "npx wrangler pages deploy . --project-name site".
// The directory is also passed as SITEBUILD_PUBLISH_DIR.
type CommandPublisher struct {
	Command string        // required
	Timeout time.Duration // required
	Env     []string      // optional, appended to the current environment
	Log     *slog.Logger  // optional
}

func (p *CommandPublisher) Publish(ctx context.Context, dir string) error {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", p.Command)
	cmd.Dir = dir
	cmd.Env = append(append(os.Environ(), p.Env...), "SITEBUILD_PUBLISH_DIR="+dir)
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = 5 * time.Second

	start := time.Now()
	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("publish.CommandPublisher: timed out after %s", p.Timeout)
	}
	if err != nil {
		return fmt.Errorf("publish.CommandPublisher: %w: %s", err, tail(out.String(), maxOutput))
	}

	p.log().Info("published", "dir", dir, "duration", time.Since(start))
	return nil
}

func (p *CommandPublisher) log() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
