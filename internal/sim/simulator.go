// Package sim owns the simulation loop: it snapshots the active
// configuration at each frame boundary, drives the scheduler, steps the rig,
// and publishes exactly one snapshot per frame.
package sim

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"pneurig/internal/config"
	"pneurig/internal/diag"
	"pneurig/internal/rig"
	"pneurig/internal/sched"
	"pneurig/internal/snapshot"
)

// Simulator ties the rig, scheduler, and publisher together. One goroutine
// runs the loop; configuration updates arrive from any goroutine through a
// pending pointer and take effect only at the next frame boundary, so a
// mid-integration change can never be observed.
type Simulator struct {
	rig      *rig.Rig
	sched    *sched.Scheduler
	pub      *snapshot.Publisher
	driver   LeverDriver
	counters *diag.Counters
	ring     *diag.Ring

	active  atomic.Pointer[config.Config]
	pending atomic.Pointer[config.Config]
}

// New builds a simulator from a validated configuration.
func New(cfg config.Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	counters := &diag.Counters{}
	ring := diag.NewRing(256)

	r, err := rig.New(cfg, counters, ring)
	if err != nil {
		return nil, err
	}

	sc, err := sched.New(cfg.Scheduling.PhysicsDt, cfg.Scheduling.MaxStepsPerFrame, cfg.Scheduling.MaxFrameTime)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		rig:      r,
		sched:    sc,
		pub:      snapshot.NewPublisher(),
		driver:   DriverFromConfig(cfg.Drive),
		counters: counters,
		ring:     ring,
	}
	s.active.Store(&cfg)
	return s, nil
}

// Publisher is where the visualization side picks up frames.
func (s *Simulator) Publisher() *snapshot.Publisher { return s.pub }

// Counters exposes the recoverable-condition counters.
func (s *Simulator) Counters() *diag.Counters { return s.counters }

// Events drains the diagnostics ring.
func (s *Simulator) Events() []diag.Event { return s.ring.Drain() }

// Config returns the configuration the current frame runs against. Safe
// from any goroutine: the active configuration is published by pointer swap
// and never mutated after the swap.
func (s *Simulator) Config() config.Config { return s.active.Load().Clone() }

// Scheduler exposes run-state control (pause/resume).
func (s *Simulator) Scheduler() *sched.Scheduler { return s.sched }

// Update merges a sparse patch into the most recently requested
// configuration and stages it for the next frame boundary. An invalid merge
// is rejected here and the active configuration stays untouched.
func (s *Simulator) Update(p config.Patch) error {
	base := *s.active.Load()
	if staged := s.pending.Load(); staged != nil {
		base = *staged
	}
	merged, err := p.Apply(base)
	if err != nil {
		s.counters.AddConfigRejected()
		// Timestamped from the last published frame: Update may run off
		// the loop goroutine and must not touch live rig state.
		simTime := 0.0
		if snap, ok := s.pub.Latest(); ok {
			simTime = snap.SimTime
		}
		s.ring.Record(diag.Event{
			SimTime: simTime,
			Kind:    diag.KindConfigRejected,
			Detail:  err.Error(),
		})
		return err
	}
	s.pending.Store(&merged)
	return nil
}

// RunFrame executes one frame: apply any staged configuration, run up to
// the step bound against it, and publish exactly one snapshot whether or
// not any steps ran. elapsed is the wall-clock seconds since the last frame.
func (s *Simulator) RunFrame(elapsed float64) (sched.FrameResult, error) {
	if cfg := s.pending.Swap(nil); cfg != nil {
		if err := s.applyConfig(*cfg); err != nil {
			// Validated at Update time, so this is a geometry-level
			// rejection: count it and keep the prior configuration.
			s.counters.AddConfigRejected()
			s.ring.Record(diag.Event{
				SimTime: s.rig.SimTime(),
				Kind:    diag.KindConfigRejected,
				Detail:  err.Error(),
			})
		}
	}

	res, err := s.sched.Advance(elapsed, func() error {
		return s.rig.Step(s.sched.Dt(), s.driver.Angles(s.rig.SimTime()))
	})
	if err != nil {
		return res, fmt.Errorf("sim: step failed: %w", err)
	}

	if res.Overrun {
		s.counters.AddOverrun()
		s.counters.AddDropped(res.Dropped)
		s.ring.Record(diag.Event{
			SimTime: s.rig.SimTime(),
			Kind:    diag.KindSchedulerOverrun,
			Detail:  fmt.Sprintf("dropped %.4fs after %d steps", res.Dropped, res.Steps),
		})
	}

	s.pub.Publish(s.rig.Snapshot())
	return res, nil
}

func (s *Simulator) applyConfig(cfg config.Config) error {
	if err := s.rig.ApplyConfig(cfg); err != nil {
		return err
	}
	s.driver = DriverFromConfig(cfg.Drive)
	cfg = cfg.Clone()
	s.active.Store(&cfg)
	return nil
}

// Run drives frames at the configured render rate until the context is
// cancelled. Cancellation lands between steps only; the accumulator is
// discarded on the way out.
func (s *Simulator) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(s.active.Load().Scheduling.RenderIntervalHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.sched.Start()
	defer s.sched.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			elapsed := now.Sub(last).Seconds()
			last = now
			if _, err := s.RunFrame(elapsed); err != nil {
				return err
			}
		}
	}
}
