package model

import (
	"fmt"
	"time"
)

// Origin describes how a flake target was discovered.
type Origin string

const (
	OriginExplicit Origin = "explicit"
	OriginDirenv   Origin = "direnv"
	OriginResult   Origin = "result"
)

// FlakeTarget identifies one flake checkout plus an optional input name.
// An empty Input means every input of the flake is a candidate.
type FlakeTarget struct {
	Dir    string
	Input  string
	Origin Origin

	// Roots are the GC root links discovery recorded for this checkout.
	// Empty for explicit targets.
	Roots []string
}

func (t FlakeTarget) String() string {
	if t.Input == "" {
		return t.Dir
	}
	return t.Dir + "#" + t.Input
}

// RefInfo is one side of an update proposal: a branch or tag name, the
// resolved revision, and when that revision was last touched upstream.
type RefInfo struct {
	Ref          string
	Rev          string
	LastModified time.Time
}

// RevOrRef returns the segment that belongs in a flake ref URL: the branch
// or tag when one is known, the bare revision otherwise.
func (r RefInfo) RevOrRef() string {
	if r.Ref != "" {
		return r.Ref
	}
	return r.Rev
}

// ShortRev returns an abbreviated revision for display.
func (r RefInfo) ShortRev() string {
	if len(r.Rev) > 7 {
		return r.Rev[:7]
	}
	return r.Rev
}

// Age renders LastModified as a coarse human-readable distance.
func (r RefInfo) Age() string {
	if r.LastModified.IsZero() {
		return "unknown"
	}
	d := time.Since(r.LastModified)
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 14*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/(24*7)))
	}
}

// UpdateProposal describes one input's proposed change. When UpToDate is
// set the candidate matched the current pin and no edit is offered.
type UpdateProposal struct {
	Input     string
	Current   RefInfo
	Candidate RefInfo
	UpToDate  bool

	// CanFlakeUpdate marks indirect registry inputs without rev or ref
	// pins, where `nix flake update <input>` is the supported path.
	CanFlakeUpdate bool
}

// Hunk is one contiguous region of proposed textual change. Start indexes
// the original file, zero-based. Hunks for a file are produced in
// ascending, non-overlapping order and never mutated after creation.
type Hunk struct {
	Start int
	Old   []string
	New   []string
	Input string
	Index int
	Total int
}

// ApplyDecision is the recorded outcome for one hunk.
type ApplyDecision string

const (
	DecisionApplied ApplyDecision = "applied"
	DecisionSkipped ApplyDecision = "skipped"
	DecisionEdited  ApplyDecision = "edited"
	DecisionAborted ApplyDecision = "aborted"
)

// SurveyRow is one target's oracle outcome, produced before any
// interactive work starts.
type SurveyRow struct {
	Target    FlakeTarget
	Proposals []UpdateProposal
	Err       error
}

// TargetReport is the orchestrator's record of how one target ended.
type TargetReport struct {
	Target    FlakeTarget
	Input     string
	Decisions []ApplyDecision
	Err       error
}
