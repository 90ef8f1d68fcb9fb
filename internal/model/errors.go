package model

import "errors"

// Target-scoped failures. All of these are non-fatal to a session: the
// orchestrator records them against the target and moves on.
var (
	ErrTargetNotFound       = errors.New("no flake at target path")
	ErrInputNotFound        = errors.New("input not declared by flake")
	ErrOracleUnavailable    = errors.New("revision metadata unavailable")
	ErrPatternNotFound      = errors.New("input declaration not found in flake.nix")
	ErrExternalActionFailed = errors.New("external command failed")
)
