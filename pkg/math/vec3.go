// Package math provides the small vector type used for world-space hit points.
package math

// Vec3 is a 3D world-space coordinate.
type Vec3 struct {
	X, Y, Z float64
}

// DivComponents divides each component by the matching component of d.
func (v Vec3) DivComponents(d Vec3) Vec3 {
	return Vec3{v.X / d.X, v.Y / d.Y, v.Z / d.Z}
}

// XZ returns the ground-plane components as Vec2.
func (v Vec3) XZ() Vec2 {
	return Vec2{v.X, v.Z}
}

// FromArray builds a Vec3 from an [x, y, z] triple.
func FromArray(a [3]float64) Vec3 {
	return Vec3{a[0], a[1], a[2]}
}
