package resolve

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/lockfetch/internal/apperrors"
	"github.com/reglet-dev/lockfetch/internal/lockfile"
)

var artifactContent = []byte("generic artifact bytes\n")

func artifactDigest() string {
	sum := sha256.Sum256(artifactContent)
	return hex.EncodeToString(sum[:])
}

// newCountingServer serves artifactContent on every path and counts requests.
func newCountingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_, _ = w.Write(artifactContent)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func writeLockfile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, lockfile.Filename), []byte(content), 0o644))
	return dir
}

func TestResolve_EndToEnd(t *testing.T) {
	server, _ := newCountingServer(t)
	sourceDir := writeLockfile(t, fmt.Sprintf(`
version: "1.0"
artifacts:
  - download_url: %s/a.bin
    target: lib/a.bin
    checksums:
      sha256: %q
`, server.URL, artifactDigest()))
	outputDir := t.TempDir()

	components, err := Resolve(context.Background(), Options{
		SourceDir:        sourceDir,
		OutputDir:        outputDir,
		ConcurrencyLimit: 2,
	})

	require.NoError(t, err)
	require.Len(t, components, 1)
	assert.Equal(t, "a.bin", components[0].Name)
	assert.Contains(t, components[0].Purl, "pkg:generic/a.bin")

	data, err := os.ReadFile(filepath.Join(outputDir, "deps", "generic", "lib", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, artifactContent, data)
}

func TestResolve_Idempotent(t *testing.T) {
	server, _ := newCountingServer(t)
	sourceDir := writeLockfile(t, fmt.Sprintf(`
version: "1.0"
artifacts:
  - download_url: %s/a.bin
    target: a.bin
    checksums:
      sha256: %q
`, server.URL, artifactDigest()))
	outputDir := t.TempDir()
	opts := Options{SourceDir: sourceDir, OutputDir: outputDir, ConcurrencyLimit: 1}

	first, err := Resolve(context.Background(), opts)
	require.NoError(t, err)
	second, err := Resolve(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	data, err := os.ReadFile(filepath.Join(outputDir, "deps", "generic", "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, artifactContent, data)
}

func TestResolve_MissingLockfile(t *testing.T) {
	_, err := Resolve(context.Background(), Options{
		SourceDir:        t.TempDir(),
		OutputDir:        t.TempDir(),
		ConcurrencyLimit: 1,
	})

	var missing *apperrors.LockfileMissingError
	require.ErrorAs(t, err, &missing)
}

func TestResolve_ValidationFailsBeforeAnyDownload(t *testing.T) {
	_, requests := newCountingServer(t)
	sourceDir := writeLockfile(t, `version: "1.0"`)

	_, err := Resolve(context.Background(), Options{
		SourceDir:        sourceDir,
		OutputDir:        t.TempDir(),
		ConcurrencyLimit: 1,
	})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "artifacts")
	assert.Zero(t, requests.Load())
}

func TestResolve_EscapingTargetRejectedBeforeAnyDownload(t *testing.T) {
	server, requests := newCountingServer(t)
	sourceDir := writeLockfile(t, fmt.Sprintf(`
version: "1.0"
artifacts:
  - download_url: %s/a.bin
    target: ../../../escape.bin
    checksums:
      sha256: %q
`, server.URL, artifactDigest()))

	_, err := Resolve(context.Background(), Options{
		SourceDir:        sourceDir,
		OutputDir:        t.TempDir(),
		ConcurrencyLimit: 1,
	})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "artifacts.0.target", verr.Field)
	assert.Zero(t, requests.Load())
}

func TestResolve_ChecksumMismatch(t *testing.T) {
	server, _ := newCountingServer(t)
	sourceDir := writeLockfile(t, fmt.Sprintf(`
version: "1.0"
artifacts:
  - download_url: %s/a.bin
    target: a.bin
    checksums:
      sha256: "00ff00ff"
`, server.URL))
	outputDir := t.TempDir()

	_, err := Resolve(context.Background(), Options{
		SourceDir:        sourceDir,
		OutputDir:        outputDir,
		ConcurrencyLimit: 1,
	})

	var cerr *apperrors.ChecksumError
	require.ErrorAs(t, err, &cerr)

	// The downloaded file stays in place; a re-run overwrites it.
	_, statErr := os.Stat(filepath.Join(outputDir, "deps", "generic", "a.bin"))
	assert.NoError(t, statErr)
}

func TestResolve_DownloadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	sourceDir := writeLockfile(t, fmt.Sprintf(`
version: "1.0"
artifacts:
  - download_url: %s/a.bin
    target: a.bin
    checksums:
      sha256: %q
`, server.URL, artifactDigest()))

	_, err := Resolve(context.Background(), Options{
		SourceDir:        sourceDir,
		OutputDir:        t.TempDir(),
		ConcurrencyLimit: 1,
	})

	var derr *apperrors.DownloadError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, server.URL+"/a.bin", derr.URL)
}

func TestResolve_DuplicateURLDistinctTargets(t *testing.T) {
	server, _ := newCountingServer(t)
	sourceDir := writeLockfile(t, fmt.Sprintf(`
version: "1.0"
artifacts:
  - download_url: %[1]s/shared.bin
    target: first/copy.bin
    checksums:
      sha256: %[2]q
  - download_url: %[1]s/shared.bin
    target: second/copy.bin
    checksums:
      sha256: %[2]q
`, server.URL, artifactDigest()))
	outputDir := t.TempDir()

	components, err := Resolve(context.Background(), Options{
		SourceDir:        sourceDir,
		OutputDir:        outputDir,
		ConcurrencyLimit: 2,
	})

	require.NoError(t, err)
	require.Len(t, components, 2)

	// Both declared targets are populated despite the shared URL.
	for _, target := range []string{"first/copy.bin", "second/copy.bin"} {
		data, err := os.ReadFile(filepath.Join(outputDir, "deps", "generic", filepath.FromSlash(target)))
		require.NoError(t, err)
		assert.Equal(t, artifactContent, data)
	}
}
