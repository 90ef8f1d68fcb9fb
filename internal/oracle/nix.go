package oracle

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/buger/jsonparser"
)

// NixMetadata queries the resolver binary for a flake ref's latest locked
// revision. It never touches the target's own lock file.
func NixMetadata(ctx context.Context, ref string) (Metadata, error) {
	cmd := exec.CommandContext(ctx, "nix", "flake", "metadata", "--json", "--no-write-lock-file", ref)
	out, err := cmd.Output()
	if err != nil {
		return Metadata{}, fmt.Errorf("nix flake metadata %s: %w", ref, err)
	}

	var md Metadata
	md.Rev, err = jsonparser.GetString(out, "locked", "rev")
	if err != nil {
		return Metadata{}, fmt.Errorf("malformed metadata for %s: no locked rev", ref)
	}
	md.Ref, _ = jsonparser.GetString(out, "locked", "ref")
	md.LastModified, _ = jsonparser.GetInt(out, "locked", "lastModified")
	return md, nil
}
