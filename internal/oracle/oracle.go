// Package oracle decides, per input, whether a newer upstream revision
// exists. The current side comes from the flake's lock state; the candidate
// side comes from the resolver's metadata query or, for indirect inputs,
// the user's flake registry. Comparison is by revision identity only.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flakeup-dev/flakeup/internal/flakeref"
	"github.com/flakeup-dev/flakeup/internal/lockfile"
	"github.com/flakeup-dev/flakeup/internal/model"
	"github.com/flakeup-dev/flakeup/internal/registry"
	"github.com/flakeup-dev/flakeup/internal/ui"
)

// Metadata is what the resolver reports for an upstream flake ref.
type Metadata struct {
	Rev          string
	Ref          string
	LastModified int64
}

// QueryFunc obtains upstream metadata for a flake ref. Production wires
// NixMetadata; tests substitute their own.
type QueryFunc func(ctx context.Context, ref string) (Metadata, error)

var errUnsupported = errors.New("unsupported input type")

// Oracle answers "is there something newer" for one input at a time.
type Oracle struct {
	Registry *registry.Registry // nil when the registry could not be read
	Query    QueryFunc
}

// Propose returns one proposal per considered input. With a named input it
// returns exactly one or fails; when scanning all inputs, individual inputs
// the oracle cannot serve are skipped rather than failing the target.
func (o *Oracle) Propose(ctx context.Context, t model.FlakeTarget) ([]model.UpdateProposal, error) {
	pins, err := lockfile.Analyze(t.Dir)
	if err != nil {
		return nil, err
	}

	if t.Input != "" {
		for _, pin := range pins {
			if pin.Name != t.Input {
				continue
			}
			p, err := o.propose(ctx, pin)
			if err != nil {
				return nil, err
			}
			return []model.UpdateProposal{p}, nil
		}
		return nil, fmt.Errorf("%w: %q in %s", model.ErrInputNotFound, t.Input, t.Dir)
	}

	var out []model.UpdateProposal
	for _, pin := range pins {
		p, err := o.propose(ctx, pin)
		if err != nil {
			if errors.Is(err, errUnsupported) {
				ui.Dim("%s: skipping %s: %v", t.Dir, pin.Name, err)
				continue
			}
			return out, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (o *Oracle) propose(ctx context.Context, pin lockfile.Pin) (model.UpdateProposal, error) {
	current := model.RefInfo{
		Ref:          pin.OriginalRef,
		Rev:          pin.LockedRev,
		LastModified: pin.LastModified,
	}

	switch {
	case flakeref.IsHosted(pin.Type):
		return o.proposeHosted(ctx, pin, current)
	case pin.Type == "indirect":
		return o.proposeIndirect(pin, current)
	default:
		return model.UpdateProposal{}, fmt.Errorf("%w: %w: input %q has type %q",
			model.ErrOracleUnavailable, errUnsupported, pin.Name, pin.Type)
	}
}

// proposeHosted asks the resolver for the tip of the input's upstream
// location: the declared ref with any rev pin stripped, so a branch-tracking
// input is compared against its branch tip.
func (o *Oracle) proposeHosted(ctx context.Context, pin lockfile.Pin, current model.RefInfo) (model.UpdateProposal, error) {
	upstream := flakeref.Ref{
		Type:     pin.Type,
		Owner:    pin.Owner,
		Repo:     pin.Repo,
		RevOrRef: pin.OriginalRef,
	}
	md, err := o.Query(ctx, upstream.String())
	if err != nil {
		return model.UpdateProposal{}, fmt.Errorf("%w: querying %s: %v",
			model.ErrOracleUnavailable, upstream.String(), err)
	}
	candidate := model.RefInfo{Ref: md.Ref, Rev: md.Rev}
	if md.LastModified > 0 {
		candidate.LastModified = time.Unix(md.LastModified, 0)
	}
	return model.UpdateProposal{
		Input:     pin.Name,
		Current:   current,
		Candidate: candidate,
		UpToDate:  md.Rev == pin.LockedRev,
	}, nil
}

// proposeIndirect resolves a registry id to its exact pin. No network is
// involved; the registry file is the resolver's own cache.
func (o *Oracle) proposeIndirect(pin lockfile.Pin, current model.RefInfo) (model.UpdateProposal, error) {
	if o.Registry == nil {
		return model.UpdateProposal{}, fmt.Errorf("%w: %w: no registry to resolve indirect input %q",
			model.ErrOracleUnavailable, errUnsupported, pin.Name)
	}
	id := pin.ID
	if id == "" {
		id = pin.Name
	}
	entry, ok := o.Registry.Lookup(id)
	if !ok {
		return model.UpdateProposal{}, fmt.Errorf("%w: %w: no exact registry entry for %q",
			model.ErrOracleUnavailable, errUnsupported, id)
	}
	candidate := model.RefInfo{Rev: entry.Ref.RevOrRef}
	return model.UpdateProposal{
		Input:          pin.Name,
		Current:        current,
		Candidate:      candidate,
		UpToDate:       candidate.Rev == pin.LockedRev,
		CanFlakeUpdate: pin.OriginalRef == "" && pin.OriginalRev == "",
	}, nil
}
