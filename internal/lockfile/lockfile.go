// Package lockfile defines the artifact lockfile document and its
// validation. A lockfile declares the external artifacts a build
// depends on: for each, a download URL, a target path confined to the
// output root, and at least one integrity checksum.
package lockfile

import (
	"fmt"

	"github.com/goccy/go-yaml"
)

const (
	// Filename is the conventional lockfile name within a source directory.
	Filename = "artifacts.lock.yaml"

	// FormatVersion is the only lockfile format version this tool accepts.
	FormatVersion = "1.0"
)

// Lockfile is a validated artifact lockfile. Artifact order is
// preserved from the document; it carries no semantic ranking but
// keeps all derived output deterministic.
type Lockfile struct {
	Version   string     `yaml:"version"`
	Artifacts []Artifact `yaml:"artifacts"`
}

// Artifact is one declared external file dependency.
type Artifact struct {
	DownloadURL string      `yaml:"download_url"`
	Target      string      `yaml:"target"`
	Checksums   ChecksumMap `yaml:"checksums"`

	// TargetPath is the absolute confined path the artifact is written
	// to, resolved against the output root during validation.
	TargetPath string `yaml:"-"`
}

// ChecksumEntry is one declared algorithm/digest pair.
type ChecksumEntry struct {
	Algorithm string
	Digest    string
}

// ChecksumMap holds an artifact's declared checksums in document
// order. A plain Go map would lose the declaration order, which the
// component identifier depends on.
type ChecksumMap []ChecksumEntry

// UnmarshalYAML decodes a YAML mapping while preserving key order.
func (m *ChecksumMap) UnmarshalYAML(data []byte) error {
	var ms yaml.MapSlice
	if err := yaml.Unmarshal(data, &ms); err != nil {
		return err
	}

	entries := make(ChecksumMap, 0, len(ms))
	for _, item := range ms {
		algorithm, ok := item.Key.(string)
		if !ok {
			return fmt.Errorf("checksum algorithm %v must be a string", item.Key)
		}
		digest, ok := item.Value.(string)
		if !ok {
			return fmt.Errorf("checksum digest for %q must be a string", algorithm)
		}
		entries = append(entries, ChecksumEntry{Algorithm: algorithm, Digest: digest})
	}

	*m = entries
	return nil
}

// String returns the checksums as comma-joined "algorithm:digest"
// pairs in declaration order.
func (m ChecksumMap) String() string {
	s := ""
	for i, entry := range m {
		if i > 0 {
			s += ","
		}
		s += entry.Algorithm + ":" + entry.Digest
	}
	return s
}
