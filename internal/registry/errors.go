// errors.go defines the sentinel error values for the artifact registry. Every
// failure a registry operation can produce maps to exactly one of these, so
// callers can branch with errors.Is and render one specific, actionable message
// per class instead of a stack trace.
package registry

import "errors"

var (
	// ErrNotInitialized means the operation requires an existing registry file
	// and none was found. Recoverable: run a store (registration) first.
	ErrNotInitialized = errors.New("registry metadata file not found")

	// ErrCorruptData means the registry file exists but its bytes do not parse
	// as the expected JSON structure. Fatal for the current process; an
	// operator must repair or restore the file.
	ErrCorruptData = errors.New("registry metadata file is corrupt")

	// ErrUnknownModel means the referenced model name has no registered
	// versions.
	ErrUnknownModel = errors.New("model not found in registry")

	// ErrUnknownVersion means the referenced commit hash is not registered
	// under the given model.
	ErrUnknownVersion = errors.New("commit hash not found for model")

	// ErrInvalidArgument means the caller violated the operation's contract,
	// e.g. resolving "latest" without a model name or registering with an
	// empty commit hash.
	ErrInvalidArgument = errors.New("invalid argument")
)
