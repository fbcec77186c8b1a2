package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Runner lets extractors shell out to conversion tools; tests stub it.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with exec.CommandContext under an optional timeout.
type ExecRunner struct {
	Timeout time.Duration
	Log     *slog.Logger
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	log := r.Log
	if log == nil {
		log = slog.Default()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Debug("exec timed out", "cmd", name, "duration_ms", dur.Milliseconds())
		return nil, fmt.Errorf("%s timed out after %s: %w", name, dur.Round(time.Millisecond), ctx.Err())
	}
	if err != nil {
		log.Debug("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	log.Debug("exec ok",
		"cmd", name,
		"duration_ms", dur.Milliseconds(),
		"stdout_bytes", out.Len(),
	)
	return out.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
