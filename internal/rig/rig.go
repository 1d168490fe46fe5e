// Package rig assembles the four lever+cylinder corners with the shared
// valve network and advances them one fixed step at a time: kinematics solve
// per corner, chamber volumes from the solved piston, then the pneumatic
// integrator over the whole network.
package rig

import (
	"fmt"
	"math"

	"pneurig/internal/chamber"
	"pneurig/internal/config"
	"pneurig/internal/diag"
	"pneurig/internal/geom"
	"pneurig/internal/kinematics"
	"pneurig/internal/pneuma"
	"pneurig/internal/snapshot"
)

func geomPoint(x, y float64) geom.Vec2 { return geom.Vec2{X: x, Y: y} }

// Corner is the live state of one lever+cylinder assembly.
type Corner struct {
	Name       string
	Kin        kinematics.Corner
	LeverAngle float64
	Solution   kinematics.Solution
	HeadVolume float64
	RodVolume  float64
}

// Rig is the assembled simulation state. Not safe for concurrent use: one
// goroutine steps it and everyone else reads published snapshots.
type Rig struct {
	corners [4]Corner
	integ   *pneuma.Integrator
	gas     pneuma.State

	geo      config.GeometryConfig
	simTime  float64
	counters *diag.Counters
	ring     *diag.Ring

	headVols []float64
	rodVols  []float64

	wasUnreachable [4]bool
	wasBlown       bool
}

// New builds a rig from a validated configuration. Geometry that cannot
// yield a cylinder axis fails here, at configuration time.
func New(cfg config.Config, counters *diag.Counters, ring *diag.Ring) (*Rig, error) {
	r := &Rig{
		counters: counters,
		ring:     ring,
		headVols: make([]float64, 4),
		rodVols:  make([]float64, 4),
	}

	if err := r.rebuildCorners(cfg); err != nil {
		return nil, err
	}

	net, err := networkFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	r.integ, err = pneuma.NewIntegrator(net)
	if err != nil {
		return nil, err
	}

	for i := range r.corners {
		sol := r.corners[i].Kin.Solve(0)
		r.corners[i].Solution = sol
		r.headVols[i], r.rodVols[i] = chamber.Volumes(sol.PistonPosition,
			cfg.Geometry.BoreDiameter, cfg.Geometry.CylinderBodyLength,
			cfg.Geometry.DeadZoneHeadVolume, cfg.Geometry.DeadZoneRodVolume)
		r.corners[i].HeadVolume = r.headVols[i]
		r.corners[i].RodVolume = r.rodVols[i]
	}

	r.gas, err = pneuma.NewState(net, r.headVols, r.rodVols, cfg.Pneumatic.ReceiverPressure)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rig) rebuildCorners(cfg config.Config) error {
	byName := make(map[string]config.CornerConfig, 4)
	for _, c := range cfg.Geometry.Corners {
		byName[c.Name] = c
	}
	for i, name := range config.CornerNames {
		cc, ok := byName[name]
		if !ok {
			return fmt.Errorf("rig: corner %s missing from configuration", name)
		}
		kin, err := kinematics.NewCorner(kinematics.Corner{
			ArmJoint:            geomPoint(cc.ArmX, cc.ArmY),
			TailJoint:           geomPoint(cc.TailX, cc.TailY),
			LeverLength:         cfg.Geometry.LeverLength,
			RodPositionFraction: cfg.Geometry.RodPositionFraction,
			TailRodLength:       cfg.Geometry.TailRodLength,
			CylinderBodyLength:  cfg.Geometry.CylinderBodyLength,
			PistonRodLength:     cfg.Geometry.PistonRodLength,
			MirroredX:           cc.Mirrored,
		})
		if err != nil {
			return fmt.Errorf("rig: corner %s: %w", name, err)
		}
		r.corners[i].Name = name
		r.corners[i].Kin = kin
	}
	r.geo = cfg.Geometry
	return nil
}

func networkFromConfig(cfg config.Config) (pneuma.Network, error) {
	mode, err := chamber.ParseMode(cfg.Pneumatic.VolumeMode)
	if err != nil {
		return pneuma.Network{}, err
	}
	thermo, err := pneuma.ParseThermoMode(cfg.Pneumatic.ThermoMode)
	if err != nil {
		return pneuma.Network{}, err
	}

	p := cfg.Pneumatic
	return pneuma.Network{
		AtmosphereCheck: pneuma.CheckValve{
			CrackPressure:   p.AtmosphereCheck.CrackPressure,
			OrificeDiameter: p.AtmosphereCheck.OrificeDiameter,
		},
		ReceiverCheck: pneuma.CheckValve{
			CrackPressure:   p.ReceiverCheck.CrackPressure,
			OrificeDiameter: p.ReceiverCheck.OrificeDiameter,
		},
		Relief: pneuma.ReliefValve{
			Min:             p.Relief.Min,
			Stiff:           p.Relief.Stiff,
			Safety:          p.Relief.Safety,
			OrificeDiameter: p.Relief.OrificeDiameter,
		},
		SupplyThrottle: pneuma.Throttle{
			MinDiameter:   p.SupplyThrottle.MinDiameter,
			StiffDiameter: p.SupplyThrottle.StiffDiameter,
			Fraction:      p.SupplyThrottle.Fraction,
		},
		CrossThrottle: pneuma.Throttle{
			MinDiameter:   p.CrossThrottle.MinDiameter,
			StiffDiameter: p.CrossThrottle.StiffDiameter,
			Fraction:      p.CrossThrottle.Fraction,
		},
		ReceiverVolume: chamber.ReceiverVolume(mode, p.ReceiverVolume,
			cfg.Geometry.BoreDiameter, cfg.Geometry.CylinderBodyLength, 4),
		AtmospherePressure:    pneuma.StandardAtmosphere,
		AtmosphereTemperature: p.AtmosphereTemperature,
		MasterIsolationOpen:   p.MasterIsolationOpen,
		Thermo:                thermo,
	}, nil
}

// ApplyConfig swaps in a new validated configuration between steps. The
// whole swap is atomic: any failure leaves the previous setup active.
func (r *Rig) ApplyConfig(cfg config.Config) error {
	staged := *r
	if err := staged.rebuildCorners(cfg); err != nil {
		return err
	}
	net, err := networkFromConfig(cfg)
	if err != nil {
		return err
	}
	if err := r.integ.SetNetwork(net); err != nil {
		return err
	}
	r.corners = staged.corners
	r.geo = staged.geo
	return nil
}

// Step advances the rig by dt seconds with the given lever angles
// (radians, corner order FL/FR/RL/RR). Unreachable geometry is recoverable:
// the corner clamps, the event is counted, and the step continues.
func (r *Rig) Step(dt float64, angles [4]float64) error {
	for i := range r.corners {
		c := &r.corners[i]
		c.LeverAngle = angles[i]
		sol := c.Kin.Solve(angles[i])
		c.Solution = sol

		if !sol.Reachable && !r.wasUnreachable[i] {
			r.counters.AddUnreachable()
			r.ring.Record(diag.Event{
				SimTime: r.simTime,
				Kind:    diag.KindUnreachableGeometry,
				Corner:  c.Name,
				Detail:  fmt.Sprintf("rod length error %.4gm at %.2fdeg", sol.RodLengthError, angles[i]*180/math.Pi),
			})
		}
		r.wasUnreachable[i] = !sol.Reachable

		r.headVols[i], r.rodVols[i] = chamber.Volumes(sol.PistonPosition,
			r.geo.BoreDiameter, r.geo.CylinderBodyLength,
			r.geo.DeadZoneHeadVolume, r.geo.DeadZoneRodVolume)
		c.HeadVolume = r.headVols[i]
		c.RodVolume = r.rodVols[i]
	}

	if err := r.integ.Step(&r.gas, r.headVols, r.rodVols, dt); err != nil {
		return err
	}
	r.simTime += dt
	r.noteSafety()
	return nil
}

// noteSafety records the rising edge of a relief safety blow-off on any line.
func (r *Rig) noteSafety() {
	relief := r.integ.Network().Relief
	blown := false
	for _, cg := range r.gas.Corners {
		if relief.SafetyBlown(cg.Head.Pressure) || relief.SafetyBlown(cg.Rod.Pressure) {
			blown = true
			break
		}
	}
	if blown && !r.wasBlown {
		r.ring.Record(diag.Event{SimTime: r.simTime, Kind: diag.KindSafetyBlown})
	}
	r.wasBlown = blown
}

// SimTime is the simulated time advanced so far, in seconds.
func (r *Rig) SimTime() float64 { return r.simTime }

// Corner returns the live state of corner i in FL/FR/RL/RR order.
func (r *Rig) Corner(i int) Corner { return r.corners[i] }

// Gas exposes the pneumatic state for tests and diagnostics.
func (r *Rig) Gas() pneuma.State { return r.gas }

// Snapshot assembles the complete published view of the rig. The sequence
// number is stamped by the publisher.
func (r *Rig) Snapshot() snapshot.Snapshot {
	s := snapshot.Snapshot{
		SimTime:            r.simTime,
		ReceiverPressure:   r.gas.Receiver.Pressure,
		AtmospherePressure: r.integ.Network().AtmospherePressure,
		Diag: snapshot.Diagnostics{
			Overruns:          r.counters.Overruns(),
			DroppedTime:       r.counters.DroppedTime(),
			UnreachableEvents: r.counters.Unreachable(),
			ConfigRejected:    r.counters.ConfigRejected(),
		},
	}
	for i := range r.corners {
		c := r.corners[i]
		s.Corners[i] = snapshot.CornerState{
			Name:           c.Name,
			LeverAngle:     c.LeverAngle,
			PistonPosition: c.Solution.PistonPosition,
			HeadPressure:   r.gas.Corners[i].Head.Pressure,
			RodPressure:    r.gas.Corners[i].Rod.Pressure,
			RodLengthError: c.Solution.RodLengthError,
			Unreachable:    !c.Solution.Reachable,
		}
	}
	return s
}
