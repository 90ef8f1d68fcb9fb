// Package engine drives the interactive hunk-by-hunk review for one
// target. It is an explicit phase machine: review each hunk in order, then
// walk the post-apply menu, then done. Buffer mutations are batched in
// memory and written once, behind confirmation, at the post-apply menu;
// aborting at any earlier point therefore persists nothing.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/flakeup-dev/flakeup/internal/model"
	"github.com/flakeup-dev/flakeup/internal/ui"
)

// Prompter reads one line of user input. The terminal implementation
// blocks indefinitely; tests script it.
type Prompter interface {
	Line(prompt string) (string, error)
}

// CommandRunner invokes external collaborators. Mutating invocations honor
// the global write gate; Check probes silently.
type CommandRunner interface {
	Run(dir, name string, args ...string) (bool, error)
	RunRead(dir, name string, args ...string) (bool, error)
	Check(dir, name string, args ...string) bool
}

// EditorFunc opens text for manual editing and returns the edited result.
type EditorFunc func(initial string) (string, error)

type phase int

const (
	phaseReview phase = iota
	phasePostApply
	phaseDone
)

// Engine holds one target's session state. Write is propagated from global
// configuration and never mutated here.
type Engine struct {
	Target  model.FlakeTarget
	Hunks   []model.Hunk
	Lines   []string
	Write   bool
	Context int

	// UpdateInput enables the `up` command for an indirect input that
	// `nix flake update` can move.
	UpdateInput string

	// LockBehind marks a target whose flake.nix already points at the
	// candidate but whose lock file lags; the follow-on actions are
	// offered even though there is nothing to review.
	LockBehind bool

	Prompt Prompter
	Run    CommandRunner
	Editor EditorFunc

	phase         phase
	idx           int
	offset        int
	decisions     []model.ApplyDecision
	applied       int
	appliedInputs []string
	saved         bool
	aborted       bool
	extFailed     bool
}

// Result summarizes how the target's session ended.
type Result struct {
	Decisions      []model.ApplyDecision
	Applied        int
	Saved          bool
	Aborted        bool
	ExternalFailed bool
	Err            error
}

// Execute runs the phase machine to completion. It only returns once the
// target is done or the user aborted.
func (e *Engine) Execute() Result {
	if e.Context <= 0 {
		e.Context = 3
	}
	if len(e.Hunks) == 0 {
		e.phase = phasePostApply
	}

	for e.phase == phaseReview {
		e.present()
		e.awaitDecision()
	}

	if e.phase == phasePostApply {
		// An indirect input with nothing to review still gets the
		// `nix flake update` offer and the follow-on actions.
		if e.applied > 0 || e.LockBehind || e.UpdateInput != "" {
			e.postApply()
		}
		e.phase = phaseDone
	}
	return e.result()
}

func (e *Engine) result() Result {
	return Result{
		Decisions:      e.decisions,
		Applied:        e.applied,
		Saved:          e.saved,
		Aborted:        e.aborted,
		ExternalFailed: e.extFailed,
	}
}

func (e *Engine) present() {
	h := e.Hunks[e.idx]
	h.Start += e.offset
	fmt.Fprintln(os.Stderr, ui.RenderHunk(e.Lines, h, e.Context))
}

func (e *Engine) awaitDecision() {
	h := e.Hunks[e.idx]
	last := e.idx == len(e.Hunks)-1

	line, err := e.Prompt.Line(fmt.Sprintf("(%d/%d) [%s] ", h.Index, h.Total, e.tokenList(last)))
	if err != nil {
		e.abort()
		return
	}

	cmd, ok := lookupCommand(line, e.available(last))
	if !ok {
		if line != "" {
			ui.Error("Unknown command: %s", line)
		}
		e.printHelp(last)
		return
	}

	switch cmd {
	case cmdApply:
		e.applyLines(h.New, model.DecisionApplied)
	case cmdSkip:
		e.decisions = append(e.decisions, model.DecisionSkipped)
		e.advance()
	case cmdEdit:
		e.edit(h)
	case cmdContext:
		e.Context += 3
	case cmdAbort:
		e.abort()
	case cmdLock:
		e.runLock()
	case cmdDirenv:
		e.refreshDirenv()
	case cmdDiff:
		e.showDiff()
	case cmdCommit:
		e.commit()
	case cmdUpdate:
		e.runFlakeUpdate()
	case cmdShell:
		e.openShell()
	case cmdDeleteRoots:
		e.deleteRoots()
	case cmdHelp:
		e.printHelp(last)
	}
}

// openShell hands the terminal to $SHELL in the flake directory so the
// checkout can be inspected before deciding. Read-only from the engine's
// point of view, so it is never gated.
func (e *Engine) openShell() {
	shell := os.Getenv("SHELL")
	if shell == "" {
		ui.Error("SHELL environment variable is not set")
		return
	}
	ui.Dim("exit the shell to return to the review")
	if _, err := e.Run.RunRead(e.Target.Dir, shell); err != nil {
		ui.Error("%v", err)
	}
}

// deleteRoots removes the GC root links discovery recorded for this
// checkout, releasing it from the collector's live set.
func (e *Engine) deleteRoots() {
	for _, root := range e.Target.Roots {
		if !e.Write {
			ui.Warning("dry run: would remove %s", root)
			continue
		}
		if err := os.Remove(root); err != nil {
			ui.Error("removing %s: %v", root, err)
			e.extFailed = true
			continue
		}
		ui.Success("removed %s", root)
	}
}

// applyLines replaces the current hunk's original lines in the buffer and
// advances. Later hunks still index the original file, so the engine keeps
// a running offset.
func (e *Engine) applyLines(replacement []string, decision model.ApplyDecision) {
	h := e.Hunks[e.idx]
	start := h.Start + e.offset

	buf := make([]string, 0, len(e.Lines)+len(replacement)-len(h.Old))
	buf = append(buf, e.Lines[:start]...)
	buf = append(buf, replacement...)
	buf = append(buf, e.Lines[start+len(h.Old):]...)
	e.Lines = buf

	e.offset += len(replacement) - len(h.Old)
	e.applied++
	e.rememberInput(h.Input)
	e.decisions = append(e.decisions, decision)
	e.advance()
}

func (e *Engine) advance() {
	e.idx++
	if e.idx >= len(e.Hunks) {
		e.phase = phasePostApply
	}
}

func (e *Engine) abort() {
	e.decisions = append(e.decisions, model.DecisionAborted)
	e.aborted = true
	e.phase = phaseDone
}

func (e *Engine) rememberInput(input string) {
	for _, n := range e.appliedInputs {
		if n == input {
			return
		}
	}
	e.appliedInputs = append(e.appliedInputs, input)
}

// edit hands the replacement text to the user's editor and re-offers the
// result. The text is copied to the clipboard first so a discarded edit is
// easy to recover. Nothing persistent is touched, so this works in dry-run.
func (e *Engine) edit(h model.Hunk) {
	text := strings.Join(h.New, "\n")
	if err := clipboard.WriteAll(text); err == nil {
		ui.Dim("replacement copied to clipboard")
	}

	edited, err := e.Editor(text)
	if err != nil {
		ui.Error("editor: %v", err)
		return
	}
	lines := strings.Split(strings.TrimRight(edited, "\n"), "\n")

	preview := h
	preview.New = lines
	preview.Start += e.offset
	fmt.Fprintln(os.Stderr, ui.RenderHunk(e.Lines, preview, e.Context))

	yes, err := e.confirm("Apply the edited replacement? [y,N] ")
	if err != nil {
		e.abort()
		return
	}
	if yes {
		e.applyLines(lines, model.DecisionEdited)
	}
}

func (e *Engine) confirm(prompt string) (bool, error) {
	line, err := e.Prompt.Line(prompt)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

func (e *Engine) inGitRepo() bool {
	for p := e.Target.Dir; ; {
		if fi, err := os.Stat(filepath.Join(p, ".git")); err == nil && fi.IsDir() {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p {
			return false
		}
		p = parent
	}
}
