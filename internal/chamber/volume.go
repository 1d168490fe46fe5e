// Package chamber derives head- and rod-side chamber volumes from the solved
// piston position. Volumes are geometric only: dead zones plus swept bore.
package chamber

import (
	"fmt"
	"math"
)

// Mode selects how the receiver volume is obtained. The two modes must not
// be mixed within one run.
type Mode int

const (
	// Manual uses the configured receiver volume as-is.
	Manual Mode = iota
	// Geometric derives the receiver volume from the cylinder geometry.
	Geometric
)

func (m Mode) String() string {
	switch m {
	case Manual:
		return "manual"
	case Geometric:
		return "geometric"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode maps a configuration string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "manual":
		return Manual, nil
	case "geometric":
		return Geometric, nil
	default:
		return 0, fmt.Errorf("chamber: unknown volume mode %q", s)
	}
}

// BoreArea is the piston face area for the given bore diameter.
func BoreArea(diameter float64) float64 {
	return math.Pi * diameter * diameter / 4
}

// Volumes splits the cylinder at the piston position. The sum
// head+rod equals deadHead+deadRod+area*bodyLength for any position, so
// total volume is conserved across the whole stroke.
func Volumes(pistonPosition, boreDiameter, bodyLength, deadZoneHead, deadZoneRod float64) (head, rod float64) {
	area := BoreArea(boreDiameter)
	head = deadZoneHead + area*pistonPosition
	rod = deadZoneRod + area*(bodyLength-pistonPosition)
	return head, rod
}

// ReceiverVolume resolves the receiver volume for the given mode. In
// Geometric mode the receiver is sized to the total swept volume of all
// cylinders; manual input is ignored.
func ReceiverVolume(mode Mode, manual, boreDiameter, bodyLength float64, cylinders int) float64 {
	if mode == Geometric {
		return BoreArea(boreDiameter) * bodyLength * float64(cylinders)
	}
	return manual
}
