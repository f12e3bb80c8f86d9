package gltfx

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is the class of configuration errors reported before
	// any document mutation occurs.
	ErrInvalidConfig = errors.New("invalid transform configuration")
)

// ErrInvalidTolerance indicates a weld tolerance outside [0, MaxWeldTolerance].
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidTolerance struct {
	Tolerance float64
	cause     error
}

func (e *ErrInvalidTolerance) Error() string {
	return fmt.Sprintf("invalid weld tolerance: %g (must be in [0, %g])", e.Tolerance, MaxWeldTolerance)
}

func (e *ErrInvalidTolerance) Unwrap() error { return e.cause }

// ErrMissingPosition indicates a primitive without a POSITION attribute,
// which welding requires for spatial bucketing.
type ErrMissingPosition struct {
	Mesh string
}

func (e *ErrMissingPosition) Error() string {
	return fmt.Sprintf("mesh %q: primitive has no POSITION attribute", e.Mesh)
}

// ErrTooManyVertices indicates a primitive whose vertex count exceeds
// MaxWeldVertexCount. Index values above that count cannot round-trip through
// float32 storage exactly.
type ErrTooManyVertices struct {
	Mesh        string
	VertexCount int
}

func (e *ErrTooManyVertices) Error() string {
	return fmt.Sprintf("mesh %q: primitive has %d vertices, welding supports at most %d", e.Mesh, e.VertexCount, MaxWeldVertexCount)
}

// errInvariant marks internal-consistency failures (implementation bugs, not
// caller mistakes). A correct caller never observes it.
var errInvariant = errors.New("internal invariant violated")

func translateError(err error) error {
	if err == nil {
		return nil
	}
	var tol *ErrInvalidTolerance
	if errors.As(err, &tol) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return err
}
