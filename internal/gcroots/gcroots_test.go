package gcroots

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flakeup-dev/flakeup/internal/model"
)

func TestClassify(t *testing.T) {
	t.Run("direnv root maps to the checkout", func(t *testing.T) {
		c, ok := Classify("/home/u/proj/.direnv/flake-profile-1-link")
		if !ok {
			t.Fatal("expected a candidate")
		}
		if c.Dir != "/home/u/proj" {
			t.Errorf("expected /home/u/proj, got %s", c.Dir)
		}
		if c.Origin != model.OriginDirenv {
			t.Errorf("expected direnv origin, got %s", c.Origin)
		}
		if c.Root != "/home/u/proj/.direnv/flake-profile-1-link" {
			t.Errorf("expected the root link to be recorded, got %q", c.Root)
		}
	})

	t.Run("result symlink maps to its parent", func(t *testing.T) {
		c, ok := Classify("/home/u/proj/result")
		if !ok {
			t.Fatal("expected a candidate")
		}
		if c.Dir != "/home/u/proj" || c.Origin != model.OriginResult {
			t.Errorf("unexpected candidate: %+v", c)
		}
		if c.Root != "/home/u/proj/result" {
			t.Errorf("expected the root link to be recorded, got %q", c.Root)
		}
	})

	t.Run("unrelated store path is ignored", func(t *testing.T) {
		if _, ok := Classify("/nix/store/abc-profile"); ok {
			t.Fatal("expected no candidate")
		}
	})
}

func TestScanDir(t *testing.T) {
	roots := t.TempDir()
	checkout := t.TempDir()

	direnvLink := filepath.Join(checkout, ".direnv", "flake-profile")
	if err := os.MkdirAll(filepath.Dir(direnvLink), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(direnvLink, filepath.Join(roots, "root1")); err != nil {
		t.Fatal(err)
	}
	// A regular file is not a symlink and is skipped.
	if err := os.WriteFile(filepath.Join(roots, "not-a-link"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cands, err := ScanDir(roots)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if cands[0].Dir != checkout || cands[0].Origin != model.OriginDirenv {
		t.Errorf("unexpected candidate: %+v", cands[0])
	}
	if cands[0].Root != direnvLink {
		t.Errorf("expected root %q, got %q", direnvLink, cands[0].Root)
	}
}
