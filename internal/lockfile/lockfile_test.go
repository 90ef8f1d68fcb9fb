package lockfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/flakeup-dev/flakeup/internal/model"
)

const sampleLock = `{
  "nodes": {
    "flake-utils": {
      "inputs": {
        "systems": "systems"
      },
      "locked": {
        "lastModified": 1731533236,
        "owner": "numtide",
        "repo": "flake-utils",
        "rev": "11707dc2f618dd54ca8739b309ec4fc024de578b",
        "type": "github"
      },
      "original": {
        "owner": "numtide",
        "repo": "flake-utils",
        "type": "github"
      }
    },
    "nixpkgs": {
      "locked": {
        "lastModified": 1734649271,
        "owner": "NixOS",
        "repo": "nixpkgs",
        "rev": "de1864217bfa9b5845f465e771e0ecb48b30e02d",
        "ref": "nixos-unstable",
        "type": "github"
      },
      "original": {
        "owner": "NixOS",
        "repo": "nixpkgs",
        "ref": "nixos-unstable",
        "type": "github"
      }
    },
    "systems": {
      "locked": {
        "lastModified": 1681028828,
        "owner": "nix-systems",
        "repo": "default",
        "rev": "da67096a3b9bf56a91d16901293e51ba5b49a27e",
        "type": "github"
      },
      "original": {
        "owner": "nix-systems",
        "repo": "default",
        "type": "github"
      }
    },
    "home": {
      "locked": {
        "lastModified": 1734000000,
        "rev": "1111111111111111111111111111111111111111",
        "type": "github",
        "owner": "nix-community",
        "repo": "home-manager"
      },
      "original": {
        "id": "home-manager",
        "type": "indirect"
      }
    },
    "root": {
      "inputs": {
        "flake-utils": "flake-utils",
        "follower": ["nixpkgs"],
        "home": "home",
        "nixpkgs": "nixpkgs"
      }
    }
  },
  "root": "root",
  "version": 7
}`

func writeLock(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "flake.lock"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestAnalyze(t *testing.T) {
	dir := writeLock(t, sampleLock)
	pins, err := Analyze(dir)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// Three direct inputs; the follows entry is not a pin of its own.
	if len(pins) != 3 {
		t.Fatalf("expected 3 pins, got %d: %+v", len(pins), pins)
	}

	byName := make(map[string]Pin, len(pins))
	for _, p := range pins {
		byName[p.Name] = p
	}

	t.Run("branch-tracking input", func(t *testing.T) {
		p, ok := byName["nixpkgs"]
		if !ok {
			t.Fatal("nixpkgs pin missing")
		}
		if p.Type != "github" || p.Owner != "NixOS" || p.Repo != "nixpkgs" {
			t.Errorf("unexpected location: %+v", p)
		}
		if p.OriginalRef != "nixos-unstable" {
			t.Errorf("expected original ref nixos-unstable, got %q", p.OriginalRef)
		}
		if p.LockedRev != "de1864217bfa9b5845f465e771e0ecb48b30e02d" {
			t.Errorf("unexpected locked rev %q", p.LockedRev)
		}
		if p.LastModified.IsZero() {
			t.Error("expected a lastModified timestamp")
		}
	})

	t.Run("unpinned input", func(t *testing.T) {
		p := byName["flake-utils"]
		if p.OriginalRef != "" || p.OriginalRev != "" {
			t.Errorf("expected no original pin, got %+v", p)
		}
	})

	t.Run("indirect input keeps its registry id", func(t *testing.T) {
		p := byName["home"]
		if p.Type != "indirect" || p.ID != "home-manager" {
			t.Errorf("unexpected indirect pin: %+v", p)
		}
	})
}

func TestAnalyzeNoInputs(t *testing.T) {
	dir := writeLock(t, `{"nodes": {"root": {}}, "root": "root", "version": 7}`)
	pins, err := Analyze(dir)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(pins) != 0 {
		t.Errorf("expected no pins, got %+v", pins)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	t.Run("missing lock file", func(t *testing.T) {
		_, err := Analyze(t.TempDir())
		if !errors.Is(err, model.ErrOracleUnavailable) {
			t.Fatalf("expected ErrOracleUnavailable, got %v", err)
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		dir := writeLock(t, `{"nodes": {"root": {}}, "root": "root", "version": 5}`)
		_, err := Analyze(dir)
		if !errors.Is(err, model.ErrOracleUnavailable) {
			t.Fatalf("expected ErrOracleUnavailable, got %v", err)
		}
	})

	t.Run("node without locked rev", func(t *testing.T) {
		dir := writeLock(t, `{
  "nodes": {
    "broken": {"locked": {"type": "github"}, "original": {"type": "github"}},
    "root": {"inputs": {"broken": "broken"}}
  },
  "root": "root",
  "version": 7
}`)
		_, err := Analyze(dir)
		if !errors.Is(err, model.ErrOracleUnavailable) {
			t.Fatalf("expected ErrOracleUnavailable, got %v", err)
		}
	})
}
