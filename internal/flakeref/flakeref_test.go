package flakeref

import "testing"

func TestParse(t *testing.T) {
	t.Run("hosted with ref and params", func(t *testing.T) {
		r, err := Parse("github:NixOS/nixpkgs/nixos-25.05?dir=lib")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if r.Type != "github" || r.Owner != "NixOS" || r.Repo != "nixpkgs" {
			t.Errorf("unexpected decomposition: %+v", r)
		}
		if r.RevOrRef != "nixos-25.05" {
			t.Errorf("expected ref 'nixos-25.05', got %q", r.RevOrRef)
		}
		if r.Params != "dir=lib" {
			t.Errorf("expected params 'dir=lib', got %q", r.Params)
		}
	})

	t.Run("ref containing slashes", func(t *testing.T) {
		r, err := Parse("github:NixOS/nixpkgs/release/25.05")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if r.RevOrRef != "release/25.05" {
			t.Errorf("expected ref 'release/25.05', got %q", r.RevOrRef)
		}
	})

	t.Run("bare indirect id", func(t *testing.T) {
		r, err := Parse("nixpkgs")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if r.Type != "indirect" || r.Repo != "nixpkgs" {
			t.Errorf("unexpected decomposition: %+v", r)
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		if _, err := Parse("hg:foo/bar"); err == nil {
			t.Fatal("expected an error for a mercurial ref")
		}
	})

	t.Run("missing owner or repo", func(t *testing.T) {
		if _, err := Parse("github:NixOS"); err == nil {
			t.Fatal("expected an error for a ref without a repo")
		}
	})
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{
		"github:NixOS/nixpkgs",
		"github:NixOS/nixpkgs/nixos-unstable",
		"gitlab:owner/repo/main?dir=sub",
		"sourcehut:~user/proj",
	} {
		r, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", s, err)
		}
		if got := r.String(); got != s {
			t.Errorf("round trip of %q produced %q", s, got)
		}
	}
}

func TestRepoint(t *testing.T) {
	t.Run("swaps only the ref segment", func(t *testing.T) {
		got, err := Repoint("github:NixOS/nixpkgs/nixos-25.05?dir=lib", "nixos-unstable")
		if err != nil {
			t.Fatalf("Repoint failed: %v", err)
		}
		want := "github:NixOS/nixpkgs/nixos-unstable?dir=lib"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("appends a segment when there was none", func(t *testing.T) {
		got, err := Repoint("github:NixOS/nixpkgs", "abc123")
		if err != nil {
			t.Fatalf("Repoint failed: %v", err)
		}
		if got != "github:NixOS/nixpkgs/abc123" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("refuses indirect refs", func(t *testing.T) {
		if _, err := Repoint("nixpkgs", "abc123"); err == nil {
			t.Fatal("expected an error repointing an indirect ref")
		}
	})
}
