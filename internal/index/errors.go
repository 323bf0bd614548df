package index

import (
	"errors"
	"fmt"

	"github.com/hyperjump/knn/internal/vector"
)

var (
	// ErrInvalidConfiguration is returned by constructors given unusable parameters.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrDimensionMismatch is returned when a vector's dimension differs from the index dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrInvalidArgument is returned for out-of-range call arguments such as n <= 0.
	ErrInvalidArgument = errors.New("invalid argument")
)

// checkFinite rejects vectors with NaN or infinite components.
func checkFinite(what string, v vector.Vector) error {
	if !v.IsFinite() {
		return fmt.Errorf("%s has a non-finite component: %w", what, ErrInvalidArgument)
	}
	return nil
}
