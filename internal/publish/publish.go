// Package publish pushes the generated site files to the remote store.
// Push failure is never fatal; the curator is told the change is pending.
package publish

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Git commits and pushes files inside a working tree.
type Git struct {
	dir string
	log *slog.Logger
}

// NewGit creates a publisher rooted at the site checkout.
func NewGit(dir string, log *slog.Logger) *Git {
	return &Git{dir: dir, log: log}
}

// Publish stages the given paths, commits, and pushes. Any git failure is
// returned so callers can report "push pending", but nothing else breaks.
func (g *Git) Publish(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	steps := [][]string{
		append([]string{"add"}, paths...),
		{"commit", "-m", "Curator update"},
		{"push"},
	}

	for _, args := range steps {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = g.dir
		if out, err := cmd.CombinedOutput(); err != nil {
			g.log.Warn("git step failed", "args", args, "output", string(out), "error", err)
			return fmt.Errorf("git %s: %w", args[0], err)
		}
	}
	return nil
}
