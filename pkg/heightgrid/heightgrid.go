// Package heightgrid holds the row-major elevation samples of a terrain ElevationGrid.
package heightgrid

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrConfiguration is matched by every grid construction failure.
var ErrConfiguration = errors.New("invalid grid configuration")

// ConfigurationError describes malformed or inconsistent grid parameters.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

// Is lets errors.Is match ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Grid is an immutable 2D array of elevation samples indexed [row][column].
// Rows run along world Z, columns along world X.
type Grid struct {
	values  []float64 // row-major, len == rows*columns
	rows    int
	columns int
}

// Parse builds a grid from a whitespace-separated list of numbers.
// Values are assigned row by row in the order they appear.
func Parse(raw string, columns, rows int) (*Grid, error) {
	if err := checkDimensions(columns, rows); err != nil {
		return nil, err
	}

	fields := strings.Fields(raw)
	if len(fields)%columns != 0 {
		return nil, configErr("height", "%d samples is not a multiple of %d columns", len(fields), columns)
	}
	if len(fields) != rows*columns {
		return nil, configErr("height", "got %d samples, want %d (%d rows x %d columns)",
			len(fields), rows*columns, rows, columns)
	}

	values := make([]float64, len(fields))
	for k, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, configErr("height", "sample %d (%q) is not a finite number", k, f)
		}
		values[k] = v
	}

	return &Grid{values: values, rows: rows, columns: columns}, nil
}

// New builds a grid from already partitioned rows. The input is copied.
func New(rows [][]float64) (*Grid, error) {
	if len(rows) == 0 {
		return nil, configErr("rows", "must be positive, got 0")
	}
	columns := len(rows[0])
	if err := checkDimensions(columns, len(rows)); err != nil {
		return nil, err
	}

	values := make([]float64, 0, len(rows)*columns)
	for i, row := range rows {
		if len(row) != columns {
			return nil, configErr("rows", "row %d has %d columns, want %d", i, len(row), columns)
		}
		values = append(values, row...)
	}
	return &Grid{values: values, rows: len(rows), columns: columns}, nil
}

func checkDimensions(columns, rows int) error {
	if columns <= 0 {
		return configErr("columns", "must be positive, got %d", columns)
	}
	if rows <= 0 {
		return configErr("rows", "must be positive, got %d", rows)
	}
	if rows > math.MaxInt/columns {
		return configErr("rows", "%d rows x %d columns overflows the sample count", rows, columns)
	}
	return nil
}

// Rows returns the number of rows (zDimension).
func (g *Grid) Rows() int { return g.rows }

// Columns returns the number of columns (xDimension).
func (g *Grid) Columns() int { return g.columns }

// Contains reports whether (i, j) addresses a sample.
func (g *Grid) Contains(i, j int) bool {
	return i >= 0 && j >= 0 && i < g.rows && j < g.columns
}

// At returns the sample at row i, column j.
// Returns false if the coordinates are out of bounds.
func (g *Grid) At(i, j int) (float64, bool) {
	if !g.Contains(i, j) {
		return 0, false
	}
	return g.values[i*g.columns+j], true
}

// Row returns a copy of row i, or nil when i is out of bounds.
func (g *Grid) Row(i int) []float64 {
	if i < 0 || i >= g.rows {
		return nil
	}
	row := make([]float64, g.columns)
	copy(row, g.values[i*g.columns:(i+1)*g.columns])
	return row
}

// AltitudeRange returns the minimum and maximum sample in the grid.
func (g *Grid) AltitudeRange() (min, max float64) {
	min = g.values[0]
	max = g.values[0]
	for _, v := range g.values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
