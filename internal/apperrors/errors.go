// Package apperrors defines the error taxonomy for a resolution run.
// Every error is terminal for the run; each carries a user-actionable
// solution hint that the CLI prints alongside the message.
package apperrors

import (
	"fmt"
	"strings"
)

// LockfileMissingError indicates the lockfile is absent at its
// conventional path.
type LockfileMissingError struct {
	Path string // Path that was checked
}

func (e *LockfileMissingError) Error() string {
	return fmt.Sprintf("artifact lockfile %q missing, refusing to continue", e.Path)
}

// Solution returns a hint for resolving the error.
func (e *LockfileMissingError) Solution() string {
	return "Make sure the artifact lockfile 'artifacts.lock.yaml' is checked in to the repository."
}

// NewLockfileMissingError creates a new lockfile-missing error.
func NewLockfileMissingError(path string) *LockfileMissingError {
	return &LockfileMissingError{Path: path}
}

// LockfileMalformedError indicates the lockfile could not be parsed as YAML.
type LockfileMalformedError struct {
	Path  string
	Cause error
}

func (e *LockfileMalformedError) Error() string {
	return fmt.Sprintf("lockfile %q is not valid YAML: %v", e.Path, e.Cause)
}

func (e *LockfileMalformedError) Unwrap() error {
	return e.Cause
}

// Solution returns a hint for resolving the error.
func (e *LockfileMalformedError) Solution() string {
	return "Check the YAML syntax of the lockfile."
}

// NewLockfileMalformedError creates a new malformed-lockfile error.
func NewLockfileMalformedError(path string, cause error) *LockfileMalformedError {
	return &LockfileMalformedError{Path: path, Cause: cause}
}

// ValidationError indicates the lockfile violates its schema. Field is
// the dotted path of the offending value, e.g. "artifacts.2.target".
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("lockfile validation failed: %s: %s", e.Field, e.Message)
}

// Solution returns a hint for resolving the error.
func (e *ValidationError) Solution() string {
	return "Check the lockfile format and whether any keys are missing or invalid."
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// DownloadError indicates an artifact transfer failed. The whole batch
// is fail-fast, so the URL names the transfer that aborted the run.
type DownloadError struct {
	URL   string
	Cause error
}

func (e *DownloadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to download %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("failed to download %s", e.URL)
}

func (e *DownloadError) Unwrap() error {
	return e.Cause
}

// Solution returns a hint for resolving the error.
func (e *DownloadError) Solution() string {
	return "Check that the download URL is correct and the artifact store is reachable, then re-run."
}

// NewDownloadError creates a new download error.
func NewDownloadError(url string, cause error) *DownloadError {
	return &DownloadError{URL: url, Cause: cause}
}

// ChecksumError indicates a fetched artifact matched none of its
// declared checksums.
type ChecksumError struct {
	Target   string   // Confined target path of the artifact
	Expected []string // Declared "algorithm:digest" pairs
	Computed []string // Digests actually computed, where available
}

func (e *ChecksumError) Error() string {
	msg := fmt.Sprintf("checksum of %s does not match any declared checksum (expected %s",
		e.Target, strings.Join(e.Expected, ", "))
	if len(e.Computed) > 0 {
		msg += fmt.Sprintf("; computed %s", strings.Join(e.Computed, ", "))
	}
	return msg + ")"
}

// Solution returns a hint for resolving the error.
func (e *ChecksumError) Solution() string {
	return "Verify the declared checksums against the upstream artifact; the remote content may have changed."
}

// NewChecksumError creates a new checksum error.
func NewChecksumError(target string, expected, computed []string) *ChecksumError {
	return &ChecksumError{Target: target, Expected: expected, Computed: computed}
}

// Solutioner is implemented by errors that carry a user-actionable hint.
type Solutioner interface {
	Solution() string
}
