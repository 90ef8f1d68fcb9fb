// Package patch turns update proposals into line hunks against flake.nix.
// Declarations are located by a matcher table over known url-attribute line
// shapes, never by parsing the nix grammar; a proposal whose declaration
// cannot be matched fails before any buffer is touched.
package patch

import (
	"fmt"
	"regexp"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/flakeup-dev/flakeup/internal/flakeref"
	"github.com/flakeup-dev/flakeup/internal/model"
)

// InputError records a proposal the generator could not serve. The other
// proposals for the same file are unaffected.
type InputError struct {
	Input string
	Err   error
}

// patterns is the matcher table for one input name. Each entry captures
// prefix, quoted url, and suffix so the rewrite preserves everything but
// the url. The dotted form is more specific and tried first; extending the
// supported shapes means adding a row here.
func patterns(input string) []*regexp.Regexp {
	q := regexp.QuoteMeta(input)
	return []*regexp.Regexp{
		regexp.MustCompile(`^(\s*inputs\.` + q + `\.url\s*=\s*")([^"]*)(".*)$`),
		regexp.MustCompile(`^(\s*` + q + `\.url\s*=\s*")([^"]*)(".*)$`),
	}
}

// Rewrite returns a copy of lines with the input's url attribute repointed
// at the proposal's candidate reference. Only the rev/ref segment inside
// the quotes changes; indentation, quoting and trailing text survive
// verbatim.
func Rewrite(lines []string, p model.UpdateProposal) ([]string, error) {
	pats := patterns(p.Input)
	out := make([]string, len(lines))
	copy(out, lines)

	// An exact rev pin stays exact: only substitute the candidate's branch
	// name when the current pin tracks a branch itself.
	segment := p.Candidate.RevOrRef()
	if p.Current.Ref == "" {
		segment = p.Candidate.Rev
	}

	matched := false
	for i, line := range lines {
		for _, pat := range pats {
			m := pat.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			url, err := flakeref.Repoint(m[2], segment)
			if err != nil {
				return nil, fmt.Errorf("%w: input %q: %v", model.ErrPatternNotFound, p.Input, err)
			}
			out[i] = m[1] + url + m[3]
			matched = true
			break
		}
		if matched {
			break
		}
	}
	if !matched {
		return nil, fmt.Errorf("%w: no url attribute for input %q", model.ErrPatternNotFound, p.Input)
	}
	return out, nil
}

// Generate applies every proposal textually and diffs the result against
// the original lines, yielding ascending, non-overlapping hunks numbered
// 1..N across all inputs. Proposals that cannot be located come back as
// InputErrors; an up-to-date proposal contributes no hunk.
func Generate(lines []string, proposals []model.UpdateProposal) ([]model.Hunk, []InputError) {
	current := lines
	inputAt := make(map[int]string)
	var errs []InputError

	for _, p := range proposals {
		if p.UpToDate {
			continue
		}
		next, err := Rewrite(current, p)
		if err != nil {
			errs = append(errs, InputError{Input: p.Input, Err: err})
			continue
		}
		for i := range next {
			if next[i] != current[i] {
				inputAt[i] = p.Input
			}
		}
		current = next
	}

	var hunks []model.Hunk
	for _, op := range difflib.NewMatcher(lines, current).GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		hunks = append(hunks, model.Hunk{
			Start: op.I1,
			Old:   append([]string(nil), lines[op.I1:op.I2]...),
			New:   append([]string(nil), current[op.J1:op.J2]...),
			Input: inputAt[op.I1],
		})
	}
	for i := range hunks {
		hunks[i].Index = i + 1
		hunks[i].Total = len(hunks)
	}
	return hunks, errs
}
