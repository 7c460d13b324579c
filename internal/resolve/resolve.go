// Package resolve drives the lockfile resolution pipeline: validate
// the lockfile, fetch its artifacts into the confined output area,
// verify their integrity, and emit manifest components. Every stage
// failure aborts the run; no stage proceeds on partial input.
package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reglet-dev/lockfetch/internal/checksum"
	"github.com/reglet-dev/lockfetch/internal/download"
	"github.com/reglet-dev/lockfetch/internal/lockfile"
	"github.com/reglet-dev/lockfetch/internal/pathroot"
	"github.com/reglet-dev/lockfetch/internal/sbom"
)

// DepsDir is the namespace inside the output root that fetched
// artifacts are written under.
const DepsDir = "deps/generic"

// Options configures one resolution run.
type Options struct {
	SourceDir        string // Directory containing the lockfile
	OutputDir        string // Root that fetched artifacts are confined to
	ConcurrencyLimit int    // Upper bound on simultaneous downloads
}

// Resolve runs the full pipeline and returns one component per
// lockfile artifact, in lockfile order. Files already written when a
// stage fails stay on disk; a re-run overwrites them, so the pipeline
// is idempotent from the caller's perspective.
func Resolve(ctx context.Context, opts Options) ([]sbom.Component, error) {
	sourceRoot, err := pathroot.New(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	lockPath, err := sourceRoot.Join(lockfile.Filename)
	if err != nil {
		return nil, err
	}

	outputRoot, err := pathroot.New(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	// depsRoot is the confinement boundary for every artifact target.
	depsRoot, err := outputRoot.Reroot(DepsDir)
	if err != nil {
		return nil, err
	}

	slog.Info("reading artifact lockfile", "path", lockPath)
	lf, err := lockfile.Load(lockPath, depsRoot)
	if err != nil {
		return nil, err
	}

	items, err := transferItems(lf)
	if err != nil {
		return nil, err
	}

	slog.Info("downloading artifacts", "count", len(items), "concurrency", opts.ConcurrencyLimit)
	if err := download.Fetch(ctx, items, opts.ConcurrencyLimit); err != nil {
		return nil, err
	}

	for _, artifact := range lf.Artifacts {
		refs := make([]checksum.Ref, 0, len(artifact.Checksums))
		for _, entry := range artifact.Checksums {
			refs = append(refs, checksum.Ref(entry))
		}
		if err := checksum.MustMatchAny(artifact.TargetPath, refs); err != nil {
			return nil, err
		}
	}

	slog.Info("artifacts resolved", "count", len(lf.Artifacts))
	return sbom.FromLockfile(lf), nil
}

// transferItems builds the download batch, keyed by destination so
// that artifacts sharing a URL but naming distinct targets are all
// materialized. Exact duplicate (url, target) pairs collapse to one
// transfer. Parent directories are created here, idempotently.
func transferItems(lf *lockfile.Lockfile) ([]download.Item, error) {
	seen := make(map[string]bool, len(lf.Artifacts))
	items := make([]download.Item, 0, len(lf.Artifacts))

	for _, artifact := range lf.Artifacts {
		if seen[artifact.TargetPath] {
			continue
		}
		seen[artifact.TargetPath] = true

		if err := os.MkdirAll(filepath.Dir(artifact.TargetPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %q: %w", artifact.Target, err)
		}
		items = append(items, download.Item{URL: artifact.DownloadURL, Path: artifact.TargetPath})
	}

	return items, nil
}
