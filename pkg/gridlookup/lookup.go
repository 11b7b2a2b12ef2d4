// Package gridlookup maps world-space hit points on a terrain ElevationGrid
// to grid indices and reports the height samples around them.
//
// Columns run along world X and rows along world Z:
//
//	j = x / ColumnSpacing
//	i = z / RowSpacing
//
// Every height the package reports is a true elevation. The hit-point Y is
// always divided by VerticalScale. Stored samples are divided too, unless
// Transform.ScaledAtRender says the scene exaggerates them at render time
// and they already hold true elevations.
package gridlookup

import (
	"fmt"
	"math"

	"github.com/Faultbox/gridprobe/pkg/heightgrid"
	gmath "github.com/Faultbox/gridprobe/pkg/math"
)

// BoundsPolicy decides what happens to indices outside the grid.
type BoundsPolicy int

// Bounds policies.
const (
	Reject BoundsPolicy = iota // fail with *OutOfBoundsError
	Clamp                      // clamp each index to the grid edge
)

// String returns the policy name used in configuration files.
func (p BoundsPolicy) String() string {
	switch p {
	case Reject:
		return "reject"
	case Clamp:
		return "clamp"
	default:
		return fmt.Sprintf("BoundsPolicy(%d)", int(p))
	}
}

// ParseBoundsPolicy converts a configuration name to a BoundsPolicy.
func ParseBoundsPolicy(name string) (BoundsPolicy, error) {
	switch name {
	case "reject", "":
		return Reject, nil
	case "clamp":
		return Clamp, nil
	default:
		return Reject, configErr("bounds_policy", "unknown policy %q", name)
	}
}

// Transform maps world-space distances to grid-index space.
type Transform struct {
	ColumnSpacing float64 // world units per column step (xSpacing)
	RowSpacing    float64 // world units per row step (zSpacing)
	VerticalScale float64 // height exaggeration applied by the scene

	// ScaledAtRender is set when the exaggeration comes from a scene
	// Transform and the samples are unscaled. Otherwise VerticalScale is
	// assumed to be baked into the samples.
	ScaledAtRender bool
}

// Validate checks that all factors are finite and positive.
func (t Transform) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"column_spacing", t.ColumnSpacing},
		{"row_spacing", t.RowSpacing},
		{"vertical_scale", t.VerticalScale},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v <= 0 {
			return configErr(f.name, "must be a positive number, got %v", f.v)
		}
	}
	return nil
}

// elevation converts a stored sample to a true elevation.
func (t Transform) elevation(stored float64) float64 {
	if t.ScaledAtRender {
		return stored
	}
	return stored / t.VerticalScale
}

// Neighbor is one grid sample bracketing a hit point.
type Neighbor struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	Value float64 `json:"value"`
}

// Readout is the result of resolving a hit point.
// Floating-point fields are rounded to two decimals.
type Readout struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	GridI     float64 `json:"gridI"`
	GridJ     float64 `json:"gridJ"`
	Elevation float64 `json:"elevation"`

	// Neighbors are ordered (floorI,floorJ), (ceilI,floorJ), (floorI,ceilJ), (ceilI,ceilJ).
	Neighbors [4]Neighbor `json:"neighbors"`
}

// Option configures a Lookup.
type Option func(*Lookup)

// WithBoundsPolicy sets how out-of-range indices are handled. Default is Reject.
func WithBoundsPolicy(p BoundsPolicy) Option {
	return func(l *Lookup) {
		l.policy = p
	}
}

// Lookup resolves hit points against an immutable height grid.
// It is safe for concurrent use.
type Lookup struct {
	grid      *heightgrid.Grid
	transform Transform
	policy    BoundsPolicy
}

// New creates a Lookup over grid using the given transform.
func New(grid *heightgrid.Grid, tr Transform, opts ...Option) (*Lookup, error) {
	if grid == nil {
		return nil, configErr("grid", "must not be nil")
	}
	if err := tr.Validate(); err != nil {
		return nil, err
	}

	l := &Lookup{grid: grid, transform: tr}
	for _, opt := range opts {
		opt(l)
	}
	if l.policy != Reject && l.policy != Clamp {
		return nil, configErr("bounds_policy", "unknown policy %v", l.policy)
	}
	return l, nil
}

// Parse builds the grid from a whitespace-separated height string and
// wraps it in a Lookup.
func Parse(raw string, columns, rows int, tr Transform, opts ...Option) (*Lookup, error) {
	grid, err := heightgrid.Parse(raw, columns, rows)
	if err != nil {
		return nil, err
	}
	return New(grid, tr, opts...)
}

// Grid returns the underlying height grid.
func (l *Lookup) Grid() *heightgrid.Grid { return l.grid }

// Transform returns the spacing transform.
func (l *Lookup) Transform() Transform { return l.transform }

// Policy returns the bounds policy.
func (l *Lookup) Policy() BoundsPolicy { return l.policy }

// cell is the fractional position of a hit point in index space.
type cell struct {
	i, j          float64
	floorI, ceilI int
	floorJ, ceilJ int
}

func (l *Lookup) locate(p gmath.Vec3) (cell, error) {
	spacing := gmath.Vec3{X: l.transform.ColumnSpacing, Y: 1, Z: l.transform.RowSpacing}
	ground := p.DivComponents(spacing).XZ()
	i, j := ground.Y, ground.X

	// Non-finite positions cannot be clamped meaningfully.
	if !ground.IsFinite() {
		if math.IsNaN(i) || math.IsInf(i, 0) {
			return cell{}, &OutOfBoundsError{Axis: AxisI, Index: math.MinInt, Limit: l.grid.Rows()}
		}
		return cell{}, &OutOfBoundsError{Axis: AxisJ, Index: math.MinInt, Limit: l.grid.Columns()}
	}

	c := cell{i: i, j: j}
	var err error
	if c.floorI, err = l.index(AxisI, math.Floor(i), l.grid.Rows()); err != nil {
		return cell{}, err
	}
	if c.ceilI, err = l.index(AxisI, math.Ceil(i), l.grid.Rows()); err != nil {
		return cell{}, err
	}
	if c.floorJ, err = l.index(AxisJ, math.Floor(j), l.grid.Columns()); err != nil {
		return cell{}, err
	}
	if c.ceilJ, err = l.index(AxisJ, math.Ceil(j), l.grid.Columns()); err != nil {
		return cell{}, err
	}
	return c, nil
}

// index applies the bounds policy to a whole-number index.
func (l *Lookup) index(axis Axis, v float64, limit int) (int, error) {
	if v >= 0 && v <= float64(limit-1) {
		return int(v), nil
	}
	if l.policy == Clamp {
		if v < 0 {
			return 0, nil
		}
		return limit - 1, nil
	}

	idx := math.MinInt
	if v > math.MinInt64 && v < math.MaxInt64 {
		idx = int(v)
	}
	return 0, &OutOfBoundsError{Axis: axis, Index: idx, Limit: limit}
}

// value returns the true elevation stored at (i, j).
func (l *Lookup) value(i, j int) float64 {
	v, _ := l.grid.At(i, j)
	return l.transform.elevation(v)
}

// ElevationRange returns the lowest and highest true elevation in the grid.
func (l *Lookup) ElevationRange() (min, max float64) {
	lo, hi := l.grid.AltitudeRange()
	return l.transform.elevation(lo), l.transform.elevation(hi)
}

// ResolveCell converts a world-space hit point to grid coordinates and
// reads the four samples bracketing it.
func (l *Lookup) ResolveCell(p gmath.Vec3) (*Readout, error) {
	c, err := l.locate(p)
	if err != nil {
		return nil, err
	}

	r := &Readout{
		X:         RoundTwoDecimals(p.X),
		Y:         RoundTwoDecimals(p.Y),
		Z:         RoundTwoDecimals(p.Z),
		GridI:     RoundTwoDecimals(c.i),
		GridJ:     RoundTwoDecimals(c.j),
		Elevation: RoundTwoDecimals(p.Y / l.transform.VerticalScale),
	}

	corners := [4][2]int{
		{c.floorI, c.floorJ},
		{c.ceilI, c.floorJ},
		{c.floorI, c.ceilJ},
		{c.ceilI, c.ceilJ},
	}
	for k, ij := range corners {
		r.Neighbors[k] = Neighbor{
			I:     ij[0],
			J:     ij[1],
			Value: RoundTwoDecimals(l.value(ij[0], ij[1])),
		}
	}
	return r, nil
}

// Interpolate returns the bilinearly interpolated true elevation at the
// ground position of p. The Y component of p is ignored.
func (l *Lookup) Interpolate(p gmath.Vec3) (float64, error) {
	c, err := l.locate(p)
	if err != nil {
		return 0, err
	}

	fracI := clampf(c.i-float64(c.floorI), 0, 1)
	fracJ := clampf(c.j-float64(c.floorJ), 0, 1)

	// Lerp along columns on both bracketing rows, then between rows.
	near := l.value(c.floorI, c.floorJ)*(1-fracJ) + l.value(c.floorI, c.ceilJ)*fracJ
	far := l.value(c.ceilI, c.floorJ)*(1-fracJ) + l.value(c.ceilI, c.ceilJ)*fracJ
	return near*(1-fracI) + far*fracI, nil
}

func clampf(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
