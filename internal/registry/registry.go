// Package registry reads the user's nix flake registry to learn the pinned
// revision behind an indirect input id.
package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/buger/jsonparser"

	"github.com/flakeup-dev/flakeup/internal/flakeref"
	"github.com/flakeup-dev/flakeup/internal/model"
)

const supportedVersion = 2

// Entry is one exact, indirect registry pin: the id it answers to and the
// hosted ref (including rev) it resolves to.
type Entry struct {
	ID  string
	Ref flakeref.Ref
}

// Registry is an id-indexed view of registry.json.
type Registry struct {
	entries map[string]Entry
}

// Load reads the registry from its default location under the user config
// directory.
func Load() (*Registry, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("%w: locating config dir: %v", model.ErrOracleUnavailable, err)
	}
	return LoadFile(filepath.Join(cfg, "nix", "registry.json"))
}

// LoadFile reads a registry.json. Only version 2 is understood; only exact
// indirect entries are indexed, everything else is pass-through for nix.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrOracleUnavailable, path, err)
	}

	version, err := jsonparser.GetInt(data, "version")
	if err != nil || version != supportedVersion {
		return nil, fmt.Errorf("%w: %s has unsupported registry version", model.ErrOracleUnavailable, path)
	}

	r := &Registry{entries: make(map[string]Entry)}
	_, err = jsonparser.ArrayEach(data, func(flake []byte, dataType jsonparser.ValueType, _ int, _ error) {
		exact, _ := jsonparser.GetBoolean(flake, "exact")
		fromType, _ := jsonparser.GetString(flake, "from", "type")
		if !exact || fromType != "indirect" {
			return
		}
		id, err := jsonparser.GetString(flake, "from", "id")
		if err != nil {
			return
		}
		ref := flakeref.Ref{}
		ref.Type, _ = jsonparser.GetString(flake, "to", "type")
		ref.Owner, _ = jsonparser.GetString(flake, "to", "owner")
		ref.Repo, _ = jsonparser.GetString(flake, "to", "repo")
		ref.RevOrRef, _ = jsonparser.GetString(flake, "to", "rev")
		if !flakeref.IsHosted(ref.Type) || ref.RevOrRef == "" {
			return
		}
		r.entries[id] = Entry{ID: id, Ref: ref}
	}, "flakes")
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no flakes array", model.ErrOracleUnavailable, path)
	}
	return r, nil
}

// Lookup returns the exact pin for an indirect id, if the registry has one.
func (r *Registry) Lookup(id string) (Entry, bool) {
	e, ok := r.entries[id]
	return e, ok
}
