// Package extcmd invokes the external collaborators (nix, direnv, git).
// Invocations are fire-and-wait with stdio handed to the terminal, and the
// global write gate lives here: in dry-run mode a mutating command is
// printed instead of executed, so the rest of the workflow has no second
// code path.
package extcmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"

	"github.com/flakeup-dev/flakeup/internal/model"
	"github.com/flakeup-dev/flakeup/internal/ui"
)

// Runner executes external commands for one session.
type Runner struct {
	AllowWrite bool
}

// Run executes a mutating command in dir and reports whether it exited
// zero. In dry-run mode it prints what would run and reports success.
func (r Runner) Run(dir, name string, args ...string) (bool, error) {
	if !r.AllowWrite {
		ui.Warning("dry run: would execute `%s %s` in %s", name, strings.Join(args, " "), dir)
		return true, nil
	}
	return run(dir, name, args...)
}

// RunRead executes a read-only command regardless of write mode.
func (r Runner) RunRead(dir, name string, args ...string) (bool, error) {
	return run(dir, name, args...)
}

// Check runs a command silently and reports only its exit status. Used for
// probes like `git diff --quiet`; never gated, never printed.
func (r Runner) Check(dir, name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	return cmd.Run() == nil
}

func run(dir, name string, args ...string) (bool, error) {
	// Ctrl+C belongs to the child while it runs.
	signal.Ignore(os.Interrupt)
	defer signal.Reset(os.Interrupt)

	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %s: %v", model.ErrExternalActionFailed, name, err)
}
