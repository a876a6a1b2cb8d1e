package sampling

import (
	"errors"
	"fmt"
)

// Index errors: the caller handed the builder no usable frames.
var (
	ErrNoFrames         = errors.New("sampling: no frames available")
	ErrCenterOutOfRange = errors.New("sampling: centre index outside scene")
)

// ErrInvalidConfig is returned for negative counts or non-positive step
// sizes.
var ErrInvalidConfig = errors.New("sampling: invalid configuration")

// Anchor errors: the sampled entity is missing at the centre frame.
var (
	ErrAnchorNotFound = errors.New("sampling: target not found at centre frame")
	// ErrAnchorFiltered is a record that exists but fails the confidence
	// filter. It matches ErrAnchorNotFound under errors.Is.
	ErrAnchorFiltered = fmt.Errorf("sampling: target below confidence threshold: %w", ErrAnchorNotFound)
)

// IsIndexError reports whether err means there were no frames to sample.
func IsIndexError(err error) bool {
	return errors.Is(err, ErrNoFrames) || errors.Is(err, ErrCenterOutOfRange)
}
