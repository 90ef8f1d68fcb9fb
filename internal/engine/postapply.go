package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/flakeup-dev/flakeup/internal/model"
	"github.com/flakeup-dev/flakeup/internal/ui"
)

// postApply walks the follow-on actions: write the buffer, regenerate the
// lock, refresh direnv, show the diff, commit. Each is independently
// confirmable and independently skippable; declining one never blocks the
// next. The write gate suppresses the side effects, never the prompts.
func (e *Engine) postApply() {
	if e.applied > 0 {
		e.offerSave()
	} else if e.LockBehind {
		ui.Warning("%s: flake.nix already points at the candidate but the lock file lags behind", e.Target.Dir)
	}

	if e.applied == 0 && e.UpdateInput != "" {
		yes, err := e.confirm(fmt.Sprintf("Run `nix flake update %s`? [y,N] ", e.UpdateInput))
		if err == nil && yes {
			e.runFlakeUpdate()
		}
	}

	e.offerLock()
	if e.Target.Origin == model.OriginDirenv {
		e.offerDirenv()
	}
	if e.inGitRepo() {
		e.offerDiff()
		e.offerCommit()
	}
}

func (e *Engine) offerSave() {
	yes, err := e.confirm(fmt.Sprintf("Write %d change(s) to flake.nix? [y,N] ", e.applied))
	if err != nil || !yes {
		return
	}
	if !e.Write {
		ui.Warning("dry run, not modifying files")
		return
	}
	if err := e.save(); err != nil {
		ui.Error("writing flake.nix: %v", err)
		e.extFailed = true
		return
	}
	e.saved = true
}

// save writes the buffer back byte-for-byte, preserving the file mode. The
// buffer came from splitting on newlines, so joining restores the original
// trailing newline exactly.
func (e *Engine) save() error {
	path := filepath.Join(e.Target.Dir, "flake.nix")
	mode := fs.FileMode(0o644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode()
	}
	return os.WriteFile(path, []byte(strings.Join(e.Lines, "\n")), mode)
}

func (e *Engine) offerLock() {
	yes, err := e.confirm("Run `nix flake lock`? [y,N] ")
	if err != nil || !yes {
		return
	}
	e.runLock()
}

func (e *Engine) runLock() {
	ok, err := e.Run.Run(e.Target.Dir, "nix", "flake", "lock")
	if err != nil {
		ui.Error("%v", err)
		e.extFailed = true
		return
	}
	if !ok {
		ui.Error("Failed to recreate the lock file. Try editing flake.nix manually.")
		e.extFailed = true
	}
}

func (e *Engine) offerDirenv() {
	yes, err := e.confirm("Refresh direnv? [y,N] ")
	if err != nil || !yes {
		return
	}
	e.refreshDirenv()
}

func (e *Engine) refreshDirenv() {
	ok, err := e.Run.Run(e.Target.Dir, "direnv", "exec", ".", "true")
	if err != nil {
		ui.Error("%v", err)
		e.extFailed = true
		return
	}
	if !ok {
		ui.Error("Failed to reload direnv.")
		e.extFailed = true
	}
}

func (e *Engine) offerDiff() {
	yes, err := e.confirm("Show the git diff? [y,N] ")
	if err != nil || !yes {
		return
	}
	e.showDiff()
}

// showDiff is read-only and therefore runs even in dry-run mode.
func (e *Engine) showDiff() {
	if _, err := e.Run.RunRead(e.Target.Dir, "git", "--no-pager", "diff", "--", "flake.nix", "flake.lock"); err != nil {
		ui.Error("%v", err)
		e.extFailed = true
	}
}

func (e *Engine) offerCommit() {
	if !e.Run.Check(e.Target.Dir, "git", "log", "-0") {
		ui.Warning("(No commits yet)")
	}
	if !e.Run.Check(e.Target.Dir, "git", "diff", "--quiet", "--cached", "--exit-code") {
		ui.Warning("(Stage is dirty)")
	}

	msg := e.commitMessage()
	yes, err := e.confirm(fmt.Sprintf("Commit flake.nix and flake.lock? message: %q [y,N] ", msg))
	if err != nil || !yes {
		return
	}
	e.commit()
}

func (e *Engine) commit() {
	ok, err := e.Run.Run(e.Target.Dir, "git", "add", "flake.nix", "flake.lock")
	if err != nil || !ok {
		ui.Error("Failed to stage files.")
		e.extFailed = true
		return
	}
	ok, err = e.Run.Run(e.Target.Dir, "git", "commit", "-m", e.commitMessage())
	if err != nil || !ok {
		ui.Error("Failed to commit.")
		e.extFailed = true
	}
}

func (e *Engine) commitMessage() string {
	names := strings.Join(e.appliedInputs, ", ")
	if names == "" {
		names = e.UpdateInput
	}
	return fmt.Sprintf("chore: bump flake input %s", names)
}

func (e *Engine) runFlakeUpdate() {
	ok, err := e.Run.Run(e.Target.Dir, "nix", "flake", "update", e.UpdateInput)
	if err != nil {
		ui.Error("%v", err)
		e.extFailed = true
		return
	}
	if !ok {
		ui.Error("Failed to update the indirect input. Try another method.")
		e.extFailed = true
	}
}
