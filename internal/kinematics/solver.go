// Package kinematics solves the lever-to-piston constraint for one suspension
// corner: given the lever angle and the fixed joint geometry, find the piston
// position along the cylinder axis that keeps the piston rod at its physical
// length.
package kinematics

import (
	"errors"
	"fmt"
	"math"

	"pneurig/internal/geom"
)

// ErrDegenerateAxis indicates the tail joint and the neutral rod joint
// coincide, leaving the cylinder with no direction. This is a configuration
// bug, not a runtime condition.
var ErrDegenerateAxis = errors.New("kinematics: degenerate cylinder axis")

// TravelMargin keeps the solved piston center off the cylinder end faces (m).
const TravelMargin = 0.002

// Corner holds the fixed geometry of one lever+cylinder assembly. The
// cylinder axis and working origin are derived once, at configuration time,
// from the neutral (zero-angle) rod joint; the lever then swings the rod
// joint off that fixed axis.
type Corner struct {
	ArmJoint  geom.Vec2
	TailJoint geom.Vec2

	LeverLength         float64
	RodPositionFraction float64
	TailRodLength       float64
	CylinderBodyLength  float64
	PistonRodLength     float64

	// MirroredX marks corners mounted on the negative-local-x side; their
	// rod joint swings around a 180 degree base angle.
	MirroredX bool

	axis       geom.Vec2 // unit vector from tail joint toward the rod joint
	tailRodEnd geom.Vec2 // working origin: tail rod length along the axis
}

// Solution is the result of one constraint solve. RodLengthError is the
// residual |distance(pistonCenter, rodJoint) - pistonRodLength|; it is zero
// (to numerical precision) whenever the configuration is reachable and the
// piston is not clamped against a travel limit.
type Solution struct {
	PistonPosition float64 // axial offset from the working origin (m)
	PistonCenter   geom.Vec2
	RodJoint       geom.Vec2
	RodLengthError float64
	Reachable      bool // perpendicular offset within piston rod length
	Clamped        bool // piston hit a travel limit
}

// NewCorner validates the fixed geometry and derives the cylinder axis. A
// near-zero axis fails fast with ErrDegenerateAxis.
func NewCorner(c Corner) (Corner, error) {
	if c.LeverLength <= 0 || c.CylinderBodyLength <= 0 || c.PistonRodLength <= 0 {
		return Corner{}, fmt.Errorf("kinematics: non-positive length in corner geometry (lever=%g body=%g rod=%g)",
			c.LeverLength, c.CylinderBodyLength, c.PistonRodLength)
	}
	if c.RodPositionFraction < 0 || c.RodPositionFraction > 1 {
		return Corner{}, fmt.Errorf("kinematics: rod position fraction %g outside [0,1]", c.RodPositionFraction)
	}

	neutral := c.rodJointAt(0)
	axis, err := neutral.Sub(c.TailJoint).Normalized()
	if err != nil {
		return Corner{}, fmt.Errorf("%w: tail joint %v coincides with neutral rod joint %v",
			ErrDegenerateAxis, c.TailJoint, neutral)
	}

	c.axis = axis
	c.tailRodEnd = c.TailJoint.Add(axis.Scale(c.TailRodLength))
	return c, nil
}

// rodJointAt places the rod joint at the lever's fixed radius for the given
// angle in radians, applying the side-dependent base angle.
func (c Corner) rodJointAt(leverAngle float64) geom.Vec2 {
	base := 0.0
	if c.MirroredX {
		base = math.Pi
	}
	radius := c.LeverLength * c.RodPositionFraction
	return c.ArmJoint.Add(geom.FromAngle(base + leverAngle).Scale(radius))
}

// Solve finds the piston position for the given lever angle (radians).
//
// The rod joint is projected onto the fixed cylinder axis; the piston center
// then sits one right-triangle leg short of the projection, so that the
// hypotenuse is the piston rod. An off-axis offset beyond the rod length
// makes the triangle unsolvable: the axial leg clamps to zero, Reachable
// drops, and the residual shows up in RodLengthError instead of a failure.
func (c Corner) Solve(leverAngle float64) Solution {
	rodJoint := c.rodJointAt(leverAngle)

	rel := rodJoint.Sub(c.tailRodEnd)
	projection := rel.Dot(c.axis)
	perpSq := rel.Dot(rel) - projection*projection
	perpendicular := math.Sqrt(math.Max(0, perpSq))

	sol := Solution{RodJoint: rodJoint, Reachable: true}

	axialOffset := 0.0
	if perpendicular > c.PistonRodLength {
		sol.Reachable = false
	} else {
		axialOffset = math.Sqrt(c.PistonRodLength*c.PistonRodLength - perpendicular*perpendicular)
	}

	position := projection - axialOffset
	lo, hi := TravelMargin, c.CylinderBodyLength-TravelMargin
	if position < lo {
		position = lo
		sol.Clamped = true
	} else if position > hi {
		position = hi
		sol.Clamped = true
	}

	sol.PistonPosition = position
	sol.PistonCenter = c.tailRodEnd.Add(c.axis.Scale(position))
	sol.RodLengthError = math.Abs(geom.Distance(sol.PistonCenter, rodJoint) - c.PistonRodLength)
	return sol
}

// Axis exposes the derived cylinder direction, mainly for diagnostics.
func (c Corner) Axis() geom.Vec2 { return c.axis }
