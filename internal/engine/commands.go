package engine

import (
	"strings"

	"github.com/flakeup-dev/flakeup/internal/model"
	"github.com/flakeup-dev/flakeup/internal/ui"
)

// command is one recognized decision token.
type command int

const (
	cmdApply command = iota
	cmdSkip
	cmdEdit
	cmdContext
	cmdAbort
	cmdLock
	cmdDirenv
	cmdDiff
	cmdCommit
	cmdUpdate
	cmdShell
	cmdDeleteRoots
	cmdHelp
)

type commandSpec struct {
	cmd      command
	token    string
	desc     string
	extended bool
}

// commandTable is the full action set. Extended rows are offered only on a
// target's last hunk; the follow-on actions also run from the post-apply
// menu with their own confirmations.
var commandTable = []commandSpec{
	{cmdApply, "y", "Apply this change to the buffer", false},
	{cmdSkip, "n", "Skip this change", false},
	{cmdEdit, "e", "Edit the replacement in $EDITOR before deciding", false},
	{cmdContext, "c", "Show more context around the change", false},
	{cmdAbort, "q", "Abort the session, discarding unsaved changes", false},
	{cmdLock, "lock", "Run `nix flake lock`", true},
	{cmdDirenv, "direnv", "Refresh the direnv environment", true},
	{cmdDiff, "diff", "Show the working-tree diff", true},
	{cmdCommit, "commit", "Commit flake.nix and flake.lock", true},
	{cmdUpdate, "up", "Run `nix flake update <input>` for the indirect input", true},
	{cmdShell, "sh", "Open $SHELL in the flake directory", true},
	{cmdDeleteRoots, "dg", "Delete the flake's GC root links", true},
	{cmdHelp, "?", "Print this help", false},
}

// available returns the rows valid for the current hunk position.
func (e *Engine) available(last bool) []commandSpec {
	specs := make([]commandSpec, 0, len(commandTable))
	for _, s := range commandTable {
		if s.extended && !last {
			continue
		}
		switch s.cmd {
		case cmdUpdate:
			if e.UpdateInput == "" {
				continue
			}
		case cmdDirenv:
			if e.Target.Origin != model.OriginDirenv {
				continue
			}
		case cmdDiff, cmdCommit:
			if !e.inGitRepo() {
				continue
			}
		case cmdDeleteRoots:
			if len(e.Target.Roots) == 0 {
				continue
			}
		}
		specs = append(specs, s)
	}
	return specs
}

func (e *Engine) tokenList(last bool) string {
	var tokens []string
	for _, s := range e.available(last) {
		tokens = append(tokens, s.token)
	}
	return strings.Join(tokens, ",")
}

func lookupCommand(token string, specs []commandSpec) (command, bool) {
	for _, s := range specs {
		if s.token == token {
			return s.cmd, true
		}
	}
	return cmdHelp, false
}

func (e *Engine) printHelp(last bool) {
	for _, s := range e.available(last) {
		ui.HelpLine(s.token, s.desc)
	}
}
