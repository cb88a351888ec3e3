package syncfile

import "errors"

// Sentinel errors returned by the snapshot codec. Callers should use
// [errors.Is] to match against these values.
var (
	// ErrMalformedSnapshot is returned when the bytes are not a structurally
	// valid sync file: broken JSON, missing required top-level fields, or a
	// current-version payload missing required collections.
	ErrMalformedSnapshot = errors.New("malformed sync snapshot")

	// ErrIncompatibleFormat is returned when the file's formatVersion is
	// unknown or from a future major version. The codec fails closed rather
	// than guessing at the payload's shape; callers must never overwrite the
	// source file in response.
	ErrIncompatibleFormat = errors.New("incompatible sync file format version")
)
