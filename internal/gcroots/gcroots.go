// Package gcroots scans the store's automatic garbage collector roots and
// maps each one back to the flake checkout that produced it.
package gcroots

import (
	"os"
	"path/filepath"

	"github.com/flakeup-dev/flakeup/internal/model"
)

const autoRootsDir = "/nix/var/nix/gcroots/auto"

// Candidate is one directory believed to be a live flake checkout. Root is
// the link the GC root points into, kept so the checkout can later be
// released from the collector's live set.
type Candidate struct {
	Dir    string
	Origin model.Origin
	Root   string
}

// Scan reads the automatic GC roots and returns the candidate checkouts
// they point into. Broken symlinks are skipped, not reported: roots for
// deleted checkouts are routine.
func Scan() ([]Candidate, error) {
	return ScanDir(autoRootsDir)
}

// ScanDir is Scan against an explicit roots directory.
func ScanDir(dir string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []Candidate
	for _, e := range entries {
		link, err := os.Readlink(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		if c, ok := Classify(link); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

// Classify maps one GC root target to the checkout it belongs to: a path
// under a `.direnv` directory belongs to that directory's parent, a `result`
// symlink belongs to its own parent. Anything else is not a flake root.
func Classify(path string) (Candidate, bool) {
	for p := path; ; {
		if filepath.Base(p) == ".direnv" {
			return Candidate{Dir: filepath.Dir(p), Origin: model.OriginDirenv, Root: path}, true
		}
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}
	if filepath.Base(path) == "result" {
		return Candidate{Dir: filepath.Dir(path), Origin: model.OriginResult, Root: path}, true
	}
	return Candidate{}, false
}
