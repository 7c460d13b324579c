// Package checksum verifies file digests against declared references.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/reglet-dev/lockfetch/internal/apperrors"
)

// Ref is a single declared "algorithm:digest" reference.
type Ref struct {
	Algorithm string
	Digest    string
}

// String formats the reference as "algorithm:digest".
func (r Ref) String() string {
	return r.Algorithm + ":" + r.Digest
}

// hashers maps supported algorithm names to their constructors.
var hashers = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha224": sha256.New224,
	"sha256": sha256.New,
	"sha384": sha512.New384,
	"sha512": sha512.New,
}

// MustMatchAny computes the digests declared in refs for the file at
// path and succeeds if at least one matches. Declaring several
// algorithms means "any of these is acceptable", which tolerates
// partial toolchain availability upstream. References with unsupported
// algorithms are skipped with a warning; if every reference is
// unsupported the file cannot be verified and an error is returned.
func MustMatchAny(path string, refs []Ref) error {
	expected := make([]string, 0, len(refs))
	for _, ref := range refs {
		expected = append(expected, ref.String())
	}

	supported := make([]Ref, 0, len(refs))
	writers := make([]io.Writer, 0, len(refs))
	sums := make([]hash.Hash, 0, len(refs))
	for _, ref := range refs {
		newHash, ok := hashers[strings.ToLower(ref.Algorithm)]
		if !ok {
			slog.Warn("skipping unsupported checksum algorithm", "algorithm", ref.Algorithm, "path", path)
			continue
		}
		h := newHash()
		supported = append(supported, ref)
		sums = append(sums, h)
		writers = append(writers, h)
	}

	if len(supported) == 0 {
		return apperrors.NewChecksumError(path, expected, nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q for checksum verification: %w", path, err)
	}
	defer f.Close()

	if _, err := io.Copy(io.MultiWriter(writers...), f); err != nil {
		return fmt.Errorf("failed to read %q for checksum verification: %w", path, err)
	}

	computed := make([]string, 0, len(supported))
	for i, ref := range supported {
		digest := hex.EncodeToString(sums[i].Sum(nil))
		if strings.EqualFold(digest, ref.Digest) {
			slog.Debug("checksum matched", "path", path, "algorithm", ref.Algorithm)
			return nil
		}
		computed = append(computed, Ref{Algorithm: ref.Algorithm, Digest: digest}.String())
	}

	return apperrors.NewChecksumError(path, expected, computed)
}
