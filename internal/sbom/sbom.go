// Package sbom produces supply-chain manifest components for resolved
// artifacts. Emission is a pure function of a validated, verified
// lockfile: identical input yields byte-identical output.
package sbom

import (
	"encoding/json"
	"io"
	"path/filepath"

	"github.com/package-url/packageurl-go"

	"github.com/reglet-dev/lockfetch/internal/lockfile"
)

// Component is one manifest record for a resolved, verified artifact.
type Component struct {
	Name               string              `json:"name"`
	Purl               string              `json:"purl"`
	Type               string              `json:"type"`
	ExternalReferences []ExternalReference `json:"externalReferences,omitempty"`
}

// ExternalReference points at an external resource related to a component.
type ExternalReference struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Manifest is the JSON document written for a resolution run.
type Manifest struct {
	Components []Component `json:"components"`
}

// FromLockfile converts lockfile artifacts into components, one per
// artifact in lockfile order. The purl qualifiers carry the download
// URL first, then the declared checksums joined in declaration order,
// so the identifier is reproducible from the artifact alone.
func FromLockfile(lf *lockfile.Lockfile) []Component {
	components := make([]Component, 0, len(lf.Artifacts))

	for _, artifact := range lf.Artifacts {
		name := filepath.Base(artifact.Target)
		purl := packageurl.NewPackageURL(
			packageurl.TypeGeneric,
			"",
			name,
			"",
			packageurl.Qualifiers{
				{Key: "download_url", Value: artifact.DownloadURL},
				{Key: "checksums", Value: artifact.Checksums.String()},
			},
			"",
		)

		components = append(components, Component{
			Name: name,
			Purl: purl.ToString(),
			Type: "file",
			ExternalReferences: []ExternalReference{
				{URL: artifact.DownloadURL, Type: "distribution"},
			},
		})
	}

	return components
}

// WriteManifest writes the component manifest as pretty-printed JSON.
func WriteManifest(w io.Writer, components []Component) error {
	data, err := json.MarshalIndent(Manifest{Components: components}, "", "  ")
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return err
	}

	// Trailing newline for terminal output
	_, err = w.Write([]byte("\n"))
	return err
}
