package lockfile

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/reglet-dev/lockfetch/internal/apperrors"
	"github.com/reglet-dev/lockfetch/internal/pathroot"
)

//go:embed schema.json
var schemaJSON string

var lockSchema = jsonschema.MustCompileString("artifacts.lock.schema.json", schemaJSON)

// Load reads and validates the lockfile at path. Target paths are
// resolved against outputRoot at validation time, so a lockfile that
// attempts to escape the output root is rejected before any I/O on
// the output tree occurs.
func Load(path string, outputRoot *pathroot.Root) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewLockfileMissingError(path)
		}
		return nil, fmt.Errorf("failed to read lockfile %q: %w", path, err)
	}
	return Parse(data, path, outputRoot)
}

// Parse validates raw lockfile content. The path is used only in
// error messages.
func Parse(data []byte, path string, outputRoot *pathroot.Root) (*Lockfile, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperrors.NewLockfileMalformedError(path, err)
	}

	if err := lockSchema.Validate(doc); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			leaf := leafCause(verr)
			return nil, apperrors.NewValidationError(fieldPath(leaf.InstanceLocation), leaf.Message)
		}
		return nil, apperrors.NewValidationError("(root)", err.Error())
	}

	var lf Lockfile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, apperrors.NewValidationError("(root)", err.Error())
	}

	for i := range lf.Artifacts {
		artifact := &lf.Artifacts[i]

		u, err := url.Parse(artifact.DownloadURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("artifacts.%d.download_url", i),
				fmt.Sprintf("%q is not an absolute URL", artifact.DownloadURL))
		}

		resolved, err := outputRoot.Join(artifact.Target)
		if err != nil {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("artifacts.%d.target", i),
				fmt.Sprintf("target %q escapes the output directory", artifact.Target))
		}
		artifact.TargetPath = resolved
	}

	return &lf, nil
}

// leafCause walks to the most specific cause of a schema validation
// error. The first invalid field trips rejection; exhaustive reporting
// is not attempted.
func leafCause(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err
}

// fieldPath converts a JSON pointer instance location like
// "/artifacts/2/target" into the dotted form "artifacts.2.target".
func fieldPath(pointer string) string {
	if pointer == "" {
		return "(root)"
	}
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	for i, p := range parts {
		p = strings.ReplaceAll(p, "~1", "/")
		parts[i] = strings.ReplaceAll(p, "~0", "~")
	}
	return strings.Join(parts, ".")
}
