// Package sched decouples the physics step rate from the display rate: it
// accumulates wall-clock time and runs a bounded number of fixed steps per
// frame, recording any backlog it has to shed.
package sched

import (
	"fmt"
	"time"
)

// RunState is the scheduler lifecycle state.
type RunState int

const (
	Stopped RunState = iota
	Running
	Paused
)

func (s RunState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// FrameResult reports what one Advance call did.
type FrameResult struct {
	Steps   int
	Overrun bool    // frame budget exceeded, stepping cut short
	Dropped float64 // simulated seconds discarded this frame
}

// Scheduler runs fixed physics steps against an accumulator. Not safe for
// concurrent use; one goroutine owns the tick.
type Scheduler struct {
	state        RunState
	accumulated  float64
	dt           float64
	maxSteps     int
	maxFrameTime float64

	overruns    uint64
	droppedTime float64

	now func() time.Time
}

// New validates the timing parameters. maxFrameTime <= 0 disables the frame
// budget check.
func New(dt float64, maxSteps int, maxFrameTime float64) (*Scheduler, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("sched: physics dt must be positive, got %g", dt)
	}
	if maxSteps < 1 {
		return nil, fmt.Errorf("sched: max steps per frame must be >= 1, got %d", maxSteps)
	}
	return &Scheduler{
		state:        Stopped,
		dt:           dt,
		maxSteps:     maxSteps,
		maxFrameTime: maxFrameTime,
		now:          time.Now,
	}, nil
}

func (s *Scheduler) State() RunState { return s.state }

// Dt is the fixed physics step in seconds.
func (s *Scheduler) Dt() float64 { return s.dt }

// Accumulated is the backlog currently waiting for steps, in seconds.
func (s *Scheduler) Accumulated() float64 { return s.accumulated }

// Overruns counts frames that exceeded the frame budget.
func (s *Scheduler) Overruns() uint64 { return s.overruns }

// DroppedTime is the total simulated time shed by overruns, in seconds.
func (s *Scheduler) DroppedTime() float64 { return s.droppedTime }

// Start moves to Running. From Stopped the accumulator resets; from Paused
// it is kept, so a resumed run picks up exactly where it left off.
func (s *Scheduler) Start() {
	if s.state == Stopped {
		s.accumulated = 0
	}
	s.state = Running
}

// Pause suspends stepping without touching the accumulator.
func (s *Scheduler) Pause() {
	if s.state == Running {
		s.state = Paused
	}
}

// Stop ends the run and discards the accumulator.
func (s *Scheduler) Stop() {
	s.state = Stopped
	s.accumulated = 0
}

// Advance adds the elapsed wall-clock seconds to the accumulator and runs up
// to maxSteps fixed steps. When per-frame processing exceeds the frame
// budget, stepping stops early and at most one dt window of backlog is
// discarded and recorded; the remainder stays for the next frame. A step
// error aborts the frame with the accumulator already debited for the
// completed steps.
func (s *Scheduler) Advance(elapsed float64, step func() error) (FrameResult, error) {
	var res FrameResult
	if s.state != Running {
		return res, nil
	}
	if elapsed > 0 {
		s.accumulated += elapsed
	}

	start := s.now()
	for s.accumulated >= s.dt && res.Steps < s.maxSteps {
		if s.maxFrameTime > 0 && s.now().Sub(start).Seconds() > s.maxFrameTime {
			drop := s.dt
			if s.accumulated < drop {
				drop = s.accumulated
			}
			s.accumulated -= drop
			s.droppedTime += drop
			s.overruns++
			res.Overrun = true
			res.Dropped = drop
			break
		}
		if err := step(); err != nil {
			return res, err
		}
		s.accumulated -= s.dt
		res.Steps++
	}
	return res, nil
}

// setClock substitutes the wall clock, for tests.
func (s *Scheduler) setClock(now func() time.Time) { s.now = now }
