// Package flakeref parses and formats the narrow subset of flake ref URLs
// this tool rewrites: `type:owner/repo[/rev-or-ref][?params]` for the Git
// hosting services, plus bare indirect ids. It is deliberately not a full
// URL parser; unsupported shapes are reported, never guessed at.
package flakeref

import (
	"fmt"
	"strings"
)

// Ref is a decomposed flake reference.
type Ref struct {
	Type     string
	Owner    string
	Repo     string
	RevOrRef string
	Params   string // raw query string without the leading '?'
}

var hostedTypes = map[string]bool{
	"github":    true,
	"gitlab":    true,
	"sourcehut": true,
}

// IsHosted reports whether t is one of the Git hosting service types whose
// URLs this tool knows how to rewrite.
func IsHosted(t string) bool {
	return hostedTypes[t]
}

// Parse decomposes a hosted flake ref. Indirect ids (no scheme, or the
// `flake:` scheme) come back with Type "indirect" and the id in Repo.
func Parse(s string) (Ref, error) {
	var r Ref

	rest := s
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		r.Params = rest[i+1:]
		rest = rest[:i]
	}

	scheme, path, found := strings.Cut(rest, ":")
	if !found {
		return Ref{Type: "indirect", Repo: rest, Params: r.Params}, nil
	}
	if scheme == "flake" {
		return Ref{Type: "indirect", Repo: path, Params: r.Params}, nil
	}
	if !IsHosted(scheme) {
		return Ref{}, fmt.Errorf("unsupported flake ref type %q in %q", scheme, s)
	}

	parts := strings.SplitN(path, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("flake ref %q is missing owner/repo", s)
	}
	r.Type = scheme
	r.Owner = parts[0]
	r.Repo = parts[1]
	if len(parts) == 3 {
		// Everything after the second slash is the rev or ref; branch
		// names may themselves contain slashes.
		r.RevOrRef = parts[2]
	}
	return r, nil
}

func (r Ref) String() string {
	var b strings.Builder
	if r.Type == "indirect" {
		b.WriteString(r.Repo)
	} else {
		b.WriteString(r.Type)
		b.WriteByte(':')
		b.WriteString(r.Owner)
		b.WriteByte('/')
		b.WriteString(r.Repo)
		if r.RevOrRef != "" {
			b.WriteByte('/')
			b.WriteString(r.RevOrRef)
		}
	}
	if r.Params != "" {
		b.WriteByte('?')
		b.WriteString(r.Params)
	}
	return b.String()
}

// Repoint swaps only the rev/ref segment of a hosted flake ref URL,
// preserving the hosting service, owner, repo and query params verbatim.
func Repoint(url, revOrRef string) (string, error) {
	r, err := Parse(url)
	if err != nil {
		return "", err
	}
	if r.Type == "indirect" {
		return "", fmt.Errorf("indirect ref %q has no rev segment to rewrite", url)
	}
	r.RevOrRef = revOrRef
	return r.String(), nil
}
