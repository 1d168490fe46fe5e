package geom

import (
	"errors"
	"math"
)

// ErrDegenerate indicates a direction could not be derived from a
// near-zero-length vector.
var ErrDegenerate = errors.New("geom: degenerate direction (near-zero length)")

const epsilon = 1e-9

// Vec2 is a point or direction in the rig's working plane. Units are meters.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }

func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

func (v Vec2) Norm() float64 { return math.Hypot(v.X, v.Y) }

// Normalized returns the unit vector in v's direction. A near-zero vector has
// no direction and is reported as ErrDegenerate rather than divided through.
func (v Vec2) Normalized() (Vec2, error) {
	n := v.Norm()
	if n < epsilon {
		return Vec2{}, ErrDegenerate
	}
	return Vec2{v.X / n, v.Y / n}, nil
}

func (v Vec2) IsValid() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// FromAngle returns the unit vector at the given angle in radians.
func FromAngle(rad float64) Vec2 {
	return Vec2{math.Cos(rad), math.Sin(rad)}
}

func Distance(a, b Vec2) float64 { return a.Sub(b).Norm() }
