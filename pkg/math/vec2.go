package math

import "math"

// Vec2 is a ground-plane coordinate. Y holds the world Z component.
type Vec2 struct {
	X, Y float64
}

// IsFinite reports whether neither component is NaN or infinite.
func (v Vec2) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
