package patch

import (
	"errors"
	"strings"
	"testing"

	"github.com/flakeup-dev/flakeup/internal/model"
)

const sampleFlake = `{
  description = "dev shell";

  inputs.nixpkgs.url = "github:NixOS/nixpkgs/nixos-25.05";
  inputs.flake-utils.url = "github:numtide/flake-utils";

  outputs = { self, nixpkgs, flake-utils }: { };
}`

func sampleLines() []string {
	return strings.Split(sampleFlake, "\n")
}

// proposal builds an update for either a branch-tracking pin (candidate
// carries the branch name) or an exact pin (candidate carries only a rev).
func proposal(input, ref, rev string) model.UpdateProposal {
	p := model.UpdateProposal{
		Input:     input,
		Candidate: model.RefInfo{Ref: ref, Rev: rev},
	}
	if ref != "" {
		p.Current.Ref = "nixos-25.05"
	}
	return p
}

func TestRewrite(t *testing.T) {
	t.Run("repoints the dotted url attribute", func(t *testing.T) {
		out, err := Rewrite(sampleLines(), proposal("nixpkgs", "nixos-25.11", ""))
		if err != nil {
			t.Fatalf("Rewrite failed: %v", err)
		}
		want := `  inputs.nixpkgs.url = "github:NixOS/nixpkgs/nixos-25.11";`
		if out[3] != want {
			t.Errorf("got %q, want %q", out[3], want)
		}
		// Only the one line changes.
		for i, line := range sampleLines() {
			if i != 3 && out[i] != line {
				t.Errorf("line %d changed unexpectedly: %q", i, out[i])
			}
		}
	})

	t.Run("pins an unpinned input by rev", func(t *testing.T) {
		out, err := Rewrite(sampleLines(), proposal("flake-utils", "", "11707dc"))
		if err != nil {
			t.Fatalf("Rewrite failed: %v", err)
		}
		want := `  inputs.flake-utils.url = "github:numtide/flake-utils/11707dc";`
		if out[4] != want {
			t.Errorf("got %q, want %q", out[4], want)
		}
	})

	t.Run("keeps an exact rev pin exact", func(t *testing.T) {
		lines := []string{`  inputs.nixpkgs.url = "github:NixOS/nixpkgs/1111111";`}
		p := model.UpdateProposal{
			Input:     "nixpkgs",
			Current:   model.RefInfo{Rev: "1111111"},
			Candidate: model.RefInfo{Ref: "nixos-unstable", Rev: "2222222"},
		}
		out, err := Rewrite(lines, p)
		if err != nil {
			t.Fatalf("Rewrite failed: %v", err)
		}
		want := `  inputs.nixpkgs.url = "github:NixOS/nixpkgs/2222222";`
		if out[0] != want {
			t.Errorf("got %q, want %q", out[0], want)
		}
	})

	t.Run("matches inside an inputs block", func(t *testing.T) {
		lines := []string{
			`  inputs = {`,
			`    nixpkgs.url = "github:NixOS/nixpkgs/nixos-25.05";`,
			`  };`,
		}
		out, err := Rewrite(lines, proposal("nixpkgs", "nixos-25.11", ""))
		if err != nil {
			t.Fatalf("Rewrite failed: %v", err)
		}
		if out[1] != `    nixpkgs.url = "github:NixOS/nixpkgs/nixos-25.11";` {
			t.Errorf("got %q", out[1])
		}
	})

	t.Run("does not match a longer input name", func(t *testing.T) {
		lines := []string{`  inputs.nixpkgs-stable.url = "github:NixOS/nixpkgs/nixos-25.05";`}
		_, err := Rewrite(lines, proposal("nixpkgs", "nixos-25.11", ""))
		if !errors.Is(err, model.ErrPatternNotFound) {
			t.Fatalf("expected ErrPatternNotFound, got %v", err)
		}
	})

	t.Run("unknown input", func(t *testing.T) {
		_, err := Rewrite(sampleLines(), proposal("ghost", "x", ""))
		if !errors.Is(err, model.ErrPatternNotFound) {
			t.Fatalf("expected ErrPatternNotFound, got %v", err)
		}
	})
}

func TestGenerate(t *testing.T) {
	t.Run("one hunk per changed input, ascending and numbered", func(t *testing.T) {
		hunks, errs := Generate(sampleLines(), []model.UpdateProposal{
			proposal("nixpkgs", "nixos-25.11", ""),
			proposal("flake-utils", "", "11707dc"),
		})
		if len(errs) != 0 {
			t.Fatalf("unexpected input errors: %+v", errs)
		}
		if len(hunks) != 2 {
			t.Fatalf("expected 2 hunks, got %d", len(hunks))
		}
		if hunks[0].Start >= hunks[1].Start {
			t.Error("hunks are not in ascending order")
		}
		for i, h := range hunks {
			if h.Index != i+1 || h.Total != 2 {
				t.Errorf("hunk %d numbered %d/%d", i, h.Index, h.Total)
			}
		}
		if hunks[0].Input != "nixpkgs" || hunks[1].Input != "flake-utils" {
			t.Errorf("hunks attribute the wrong inputs: %q, %q", hunks[0].Input, hunks[1].Input)
		}
	})

	t.Run("up-to-date proposals contribute nothing", func(t *testing.T) {
		p := proposal("nixpkgs", "nixos-25.11", "")
		p.UpToDate = true
		hunks, errs := Generate(sampleLines(), []model.UpdateProposal{p})
		if len(hunks) != 0 || len(errs) != 0 {
			t.Fatalf("expected no output, got %d hunks, %d errors", len(hunks), len(errs))
		}
	})

	t.Run("already-applied proposal yields no hunk", func(t *testing.T) {
		updated, err := Rewrite(sampleLines(), proposal("nixpkgs", "nixos-25.11", ""))
		if err != nil {
			t.Fatal(err)
		}
		hunks, errs := Generate(updated, []model.UpdateProposal{proposal("nixpkgs", "nixos-25.11", "")})
		if len(hunks) != 0 || len(errs) != 0 {
			t.Fatalf("expected no output, got %d hunks, %d errors", len(hunks), len(errs))
		}
	})

	t.Run("unlocatable proposal fails alone", func(t *testing.T) {
		hunks, errs := Generate(sampleLines(), []model.UpdateProposal{
			proposal("ghost", "x", ""),
			proposal("nixpkgs", "nixos-25.11", ""),
		})
		if len(errs) != 1 || errs[0].Input != "ghost" {
			t.Fatalf("expected one input error for ghost, got %+v", errs)
		}
		if !errors.Is(errs[0].Err, model.ErrPatternNotFound) {
			t.Errorf("expected ErrPatternNotFound, got %v", errs[0].Err)
		}
		if len(hunks) != 1 {
			t.Fatalf("expected the nixpkgs hunk to survive, got %d hunks", len(hunks))
		}
	})
}
