package gridlookup

import (
	"errors"
	"fmt"

	"github.com/Faultbox/gridprobe/pkg/heightgrid"
)

// ConfigurationError reports malformed construction parameters.
type ConfigurationError = heightgrid.ConfigurationError

// Lookup errors.
var (
	ErrConfiguration = heightgrid.ErrConfiguration
	ErrOutOfBounds   = errors.New("grid index out of bounds")
)

// Axis names a grid index axis.
type Axis string

// Axis constants.
const (
	AxisI Axis = "i" // row, world Z
	AxisJ Axis = "j" // column, world X
)

// OutOfBoundsError is returned when a resolved index falls outside the grid.
// Index is math.MinInt when the source coordinate was not finite.
type OutOfBoundsError struct {
	Axis  Axis
	Index int
	Limit int // number of valid indices on Axis
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%s: %s=%d not in [0, %d]", ErrOutOfBounds, e.Axis, e.Index, e.Limit-1)
}

// Is lets errors.Is match ErrOutOfBounds.
func (e *OutOfBoundsError) Is(target error) bool {
	return target == ErrOutOfBounds
}

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
