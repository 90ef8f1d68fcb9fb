// Package lockfile reads the pin state of a flake's direct inputs out of
// its flake.lock. Only lock format version 7 is understood.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/buger/jsonparser"

	"github.com/flakeup-dev/flakeup/internal/model"
)

const supportedVersion = 7

// Pin is one direct input's lock state: what the flake.nix declares
// (original) and what the lock currently resolves it to (locked).
type Pin struct {
	Name         string
	Type         string
	Owner        string
	Repo         string
	ID           string // registry id, indirect originals only
	OriginalRef  string
	OriginalRev  string
	LockedRef    string
	LockedRev    string
	LastModified time.Time
}

// Analyze reads dir/flake.lock and returns the pins of its direct inputs,
// in declaration order. Inputs that follow another input (array node ids)
// are not pins of their own and are skipped.
func Analyze(dir string) ([]Pin, error) {
	path := filepath.Join(dir, "flake.lock")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", model.ErrOracleUnavailable, path, err)
	}

	version, err := jsonparser.GetInt(data, "version")
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no version field", model.ErrOracleUnavailable, path)
	}
	if version != supportedVersion {
		return nil, fmt.Errorf("%w: %s has unsupported lock version %d", model.ErrOracleUnavailable, path, version)
	}

	root, err := jsonparser.GetString(data, "root")
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no root node", model.ErrOracleUnavailable, path)
	}

	var pins []Pin
	var nodeErr error
	err = jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		if dataType != jsonparser.String {
			return nil // "follows" indirection, no pin of its own
		}
		pin, err := readNode(data, string(key), string(value))
		if err != nil {
			nodeErr = err
			return err
		}
		pins = append(pins, pin)
		return nil
	}, "nodes", root, "inputs")
	if nodeErr != nil {
		return nil, nodeErr
	}
	if err != nil {
		// A flake with no inputs has no inputs object at all.
		if err == jsonparser.KeyPathNotFoundError {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", model.ErrOracleUnavailable, path, err)
	}
	return pins, nil
}

func readNode(data []byte, name, nodeID string) (Pin, error) {
	p := Pin{Name: name}

	origType, err := jsonparser.GetString(data, "nodes", nodeID, "original", "type")
	if err != nil {
		return Pin{}, fmt.Errorf("%w: node %q has no original type", model.ErrOracleUnavailable, nodeID)
	}
	p.Type = origType
	p.Owner, _ = jsonparser.GetString(data, "nodes", nodeID, "original", "owner")
	p.Repo, _ = jsonparser.GetString(data, "nodes", nodeID, "original", "repo")
	p.ID, _ = jsonparser.GetString(data, "nodes", nodeID, "original", "id")
	p.OriginalRef, _ = jsonparser.GetString(data, "nodes", nodeID, "original", "ref")
	p.OriginalRev, _ = jsonparser.GetString(data, "nodes", nodeID, "original", "rev")

	rev, err := jsonparser.GetString(data, "nodes", nodeID, "locked", "rev")
	if err != nil {
		return Pin{}, fmt.Errorf("%w: node %q has no locked rev", model.ErrOracleUnavailable, nodeID)
	}
	p.LockedRev = rev
	p.LockedRef, _ = jsonparser.GetString(data, "nodes", nodeID, "locked", "ref")
	if lm, err := jsonparser.GetInt(data, "nodes", nodeID, "locked", "lastModified"); err == nil {
		p.LastModified = time.Unix(lm, 0)
	}
	return p, nil
}
