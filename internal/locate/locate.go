// Package locate resolves the set of flake targets a session will visit,
// either from an explicit `<path>[#<input>]` descriptor or from GC-root
// discovery results.
package locate

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flakeup-dev/flakeup/internal/gcroots"
	"github.com/flakeup-dev/flakeup/internal/model"
)

// SplitDescriptor separates the path and optional input name of a target
// descriptor. The input name is everything after the first '#'.
func SplitDescriptor(desc string) (dir, input string) {
	dir, input, _ = strings.Cut(desc, "#")
	return dir, input
}

// Explicit validates a user-supplied target descriptor. The directory must
// exist and contain a flake.nix; the input name, if any, is checked later
// against the lock state, not here.
func Explicit(desc string) (model.FlakeTarget, error) {
	dir, input := SplitDescriptor(desc)
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return model.FlakeTarget{}, fmt.Errorf("%w: %s: %v", model.ErrTargetNotFound, dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return model.FlakeTarget{}, fmt.Errorf("%w: %s is not a directory", model.ErrTargetNotFound, abs)
	}
	if _, err := os.Stat(filepath.Join(abs, "flake.nix")); err != nil {
		return model.FlakeTarget{}, fmt.Errorf("%w: %s has no flake.nix", model.ErrTargetNotFound, abs)
	}
	return model.FlakeTarget{Dir: abs, Input: input, Origin: model.OriginExplicit}, nil
}

// Discover filters GC-root candidates down to real flake checkouts,
// deduplicated by resolved real path and sorted for reproducible output.
// When the same checkout is reachable both ways, the direnv origin wins so
// the post-apply menu offers the environment refresh.
func Discover(candidates []gcroots.Candidate, input string) []model.FlakeTarget {
	byDir := make(map[string]model.FlakeTarget)
	for _, c := range candidates {
		real, err := filepath.EvalSymlinks(c.Dir)
		if err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(real, "flake.nix")); err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(real, "flake.lock")); err != nil {
			continue
		}
		t, seen := byDir[real]
		if !seen {
			t = model.FlakeTarget{Dir: real, Input: input, Origin: c.Origin}
		} else if t.Origin != model.OriginDirenv && c.Origin == model.OriginDirenv {
			t.Origin = model.OriginDirenv
		}
		if c.Root != "" {
			t.Roots = append(t.Roots, c.Root)
		}
		byDir[real] = t
	}

	targets := make([]model.FlakeTarget, 0, len(byDir))
	for _, t := range byDir {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Dir < targets[j].Dir })
	return targets
}
