// Package session orchestrates a run: resolve targets, survey them through
// the oracle (concurrently), then walk each target's interactive engine in
// order. One target's failure is recorded and never aborts the others.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/flakeup-dev/flakeup/internal/engine"
	"github.com/flakeup-dev/flakeup/internal/extcmd"
	"github.com/flakeup-dev/flakeup/internal/gcroots"
	"github.com/flakeup-dev/flakeup/internal/locate"
	"github.com/flakeup-dev/flakeup/internal/model"
	"github.com/flakeup-dev/flakeup/internal/oracle"
	"github.com/flakeup-dev/flakeup/internal/patch"
	"github.com/flakeup-dev/flakeup/internal/registry"
	"github.com/flakeup-dev/flakeup/internal/tui"
	"github.com/flakeup-dev/flakeup/internal/ui"
)

// ErrFailed signals a non-zero exit: at least one target ended with an
// unrecovered error, or the user aborted with unsaved applied changes.
// Everything worth saying has already been printed when it is returned.
var ErrFailed = errors.New("session finished with errors")

// Config is the session's immutable configuration, threaded through
// explicitly so target processing stays independently testable.
type Config struct {
	Target  string // optional <path>[#<input>] descriptor
	Input   string
	Write   bool
	Context int
}

// Session wires the collaborators. Fields are exported so tests can
// substitute the oracle query, prompter, runner and editor.
type Session struct {
	Cfg    Config
	Oracle *oracle.Oracle
	Runner engine.CommandRunner
	Prompt engine.Prompter
	Editor engine.EditorFunc
}

func New(cfg Config) *Session {
	reg, err := registry.Load()
	if err != nil {
		ui.Warning("flake registry unavailable, indirect inputs will be skipped: %v", err)
		reg = nil
	}
	return &Session{
		Cfg:    cfg,
		Oracle: &oracle.Oracle{Registry: reg, Query: oracle.NixMetadata},
		Runner: extcmd.Runner{AllowWrite: cfg.Write},
		Prompt: engine.NewStdinPrompter(),
		Editor: engine.EditInEditor,
	}
}

// Targets resolves the flakes this session will visit: the explicit
// descriptor when one was given, GC-root discovery otherwise.
func (s *Session) Targets() ([]model.FlakeTarget, error) {
	if s.Cfg.Target != "" {
		t, err := locate.Explicit(s.Cfg.Target)
		if err != nil {
			return nil, err
		}
		if t.Input == "" {
			t.Input = s.Cfg.Input
		}
		return []model.FlakeTarget{t}, nil
	}
	candidates, err := gcroots.Scan()
	if err != nil {
		return nil, fmt.Errorf("scanning gc roots: %w", err)
	}
	return locate.Discover(candidates, s.Cfg.Input), nil
}

// Survey queries the oracle for every target. Queries are independent, so
// they fan out; results land in per-target slots.
func (s *Session) Survey(ctx context.Context, targets []model.FlakeTarget) []model.SurveyRow {
	rows := make([]model.SurveyRow, len(targets))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			proposals, err := s.Oracle.Propose(ctx, t)
			rows[i] = model.SurveyRow{Target: t, Proposals: proposals, Err: err}
			return nil
		})
	}
	g.Wait()
	return rows
}

// List reports current and latest references without proposing any edit.
func (s *Session) List(ctx context.Context) error {
	targets, err := s.Targets()
	if err != nil {
		ui.Error("%v", err)
		return ErrFailed
	}
	if len(targets) == 0 {
		ui.Warning("no flakes found at the gc roots")
		return nil
	}

	rows, err := tui.Await("querying input revisions...", func() []model.SurveyRow {
		return s.Survey(ctx, targets)
	})
	if err != nil {
		return err
	}

	ui.PrintSurveyTable(rows)
	for _, r := range rows {
		if r.Err != nil {
			return ErrFailed
		}
	}
	return nil
}

// Update runs the full review-and-apply workflow.
func (s *Session) Update(ctx context.Context) error {
	if !s.Cfg.Write {
		ui.Warning("Note: this is a dry run. To modify files and run commands, pass --write.")
	}

	targets, err := s.Targets()
	if err != nil {
		ui.Error("%v", err)
		return ErrFailed
	}
	if len(targets) == 0 {
		ui.Warning("no flakes found at the gc roots")
		return nil
	}

	rows, err := tui.Await("querying input revisions...", func() []model.SurveyRow {
		return s.Survey(ctx, targets)
	})
	if err != nil {
		return err
	}

	var reports []model.TargetReport
	var aborted, dirty bool
	for _, row := range rows {
		if aborted {
			break
		}
		reports = append(reports, s.updateTarget(row, &aborted, &dirty)...)
	}

	printReports(reports)

	failed := dirty
	for _, r := range reports {
		if r.Err != nil {
			failed = true
		}
	}
	if failed {
		return ErrFailed
	}
	return nil
}

func (s *Session) updateTarget(row model.SurveyRow, aborted, dirty *bool) []model.TargetReport {
	t := row.Target
	if row.Err != nil {
		ui.Error("%s: %v", t, row.Err)
		return []model.TargetReport{{Target: t, Input: t.Input, Err: row.Err}}
	}

	var pending []model.UpdateProposal
	for _, p := range row.Proposals {
		if !p.UpToDate {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		ui.Success("%s: all inputs up to date", t.Dir)
		return nil
	}

	ui.Header("\n%s", t.Dir)
	for _, p := range pending {
		ui.Info("%s: %s (%s) -> %s", p.Input, describe(p.Current), p.Current.Age(), describe(p.Candidate))
	}

	path := filepath.Join(t.Dir, "flake.nix")
	content, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("%w: reading %s: %v", model.ErrTargetNotFound, path, err)
		ui.Error("%v", err)
		return []model.TargetReport{{Target: t, Input: t.Input, Err: err}}
	}
	lines := strings.Split(string(content), "\n")

	hunks, inputErrs := patch.Generate(lines, pending)

	updateInput := ""
	for _, p := range pending {
		if p.CanFlakeUpdate {
			updateInput = p.Input
			break
		}
	}

	var reports []model.TargetReport
	for _, ie := range inputErrs {
		if ie.Input == updateInput {
			continue // served by the `nix flake update` path instead
		}
		ui.Error("%s#%s: %v", t.Dir, ie.Input, ie.Err)
		reports = append(reports, model.TargetReport{Target: t, Input: ie.Input, Err: ie.Err})
	}

	lockBehind := len(hunks) == 0 && anyMatchedUnchanged(pending, inputErrs, updateInput)
	if len(hunks) == 0 && updateInput == "" && !lockBehind {
		return reports
	}

	eng := &engine.Engine{
		Target:      t,
		Hunks:       hunks,
		Lines:       lines,
		Write:       s.Cfg.Write,
		Context:     s.Cfg.Context,
		UpdateInput: updateInput,
		LockBehind:  lockBehind,
		Prompt:      s.Prompt,
		Run:         s.Runner,
		Editor:      s.Editor,
	}
	res := eng.Execute()

	if res.Aborted {
		*aborted = true
		if res.Applied > 0 && !res.Saved {
			*dirty = true
			ui.Warning("aborted with %d applied but unsaved change(s); nothing was written", res.Applied)
		}
	}

	rep := model.TargetReport{Target: t, Input: t.Input, Decisions: res.Decisions}
	if res.ExternalFailed {
		rep.Err = model.ErrExternalActionFailed
	}
	return append(reports, rep)
}

// anyMatchedUnchanged reports whether some pending proposal matched its
// declaration but produced no textual change: flake.nix already points at
// the candidate and only the lock file is behind.
func anyMatchedUnchanged(pending []model.UpdateProposal, errs []patch.InputError, updateInput string) bool {
	failed := make(map[string]bool, len(errs))
	for _, ie := range errs {
		failed[ie.Input] = true
	}
	for _, p := range pending {
		if !failed[p.Input] && p.Input != updateInput {
			return true
		}
	}
	return false
}

func describe(r model.RefInfo) string {
	if r.Ref != "" && r.Rev != "" {
		return r.Ref + "@" + r.ShortRev()
	}
	if r.Ref != "" {
		return r.Ref
	}
	return r.ShortRev()
}

func printReports(reports []model.TargetReport) {
	if len(reports) == 0 {
		return
	}
	ui.Header("\n--- Session summary ---")
	for _, r := range reports {
		label := r.Target.Dir
		if r.Input != "" {
			label += "#" + r.Input
		}
		if r.Err != nil {
			ui.Error("%s: %v", label, r.Err)
			continue
		}
		ui.Info("%s: %s", label, summarize(r.Decisions))
	}
}

func summarize(decisions []model.ApplyDecision) string {
	if len(decisions) == 0 {
		return "nothing to do"
	}
	counts := make(map[model.ApplyDecision]int)
	for _, d := range decisions {
		counts[d]++
	}
	var parts []string
	for _, d := range []model.ApplyDecision{model.DecisionApplied, model.DecisionEdited, model.DecisionSkipped, model.DecisionAborted} {
		if counts[d] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[d], d))
		}
	}
	return strings.Join(parts, ", ")
}
