// Package snapshot carries the immutable per-frame state handed to the
// visualization side. A snapshot is assembled in full, stamped with a
// monotonically increasing sequence number, and published in one atomic
// swap, so a reader can never observe a partially updated frame.
package snapshot

import "sync/atomic"

// CornerState is the published view of one corner.
type CornerState struct {
	Name           string
	LeverAngle     float64 // rad
	PistonPosition float64 // m
	HeadPressure   float64 // Pa
	RodPressure    float64 // Pa
	RodLengthError float64 // m
	Unreachable    bool
}

// Diagnostics is the recoverable-condition summary carried by every
// snapshot, so overload and geometry faults are observable rather than
// silently absorbed.
type Diagnostics struct {
	Overruns          uint64
	DroppedTime       float64 // simulated seconds shed by overruns
	UnreachableEvents uint64
	ConfigRejected    uint64
}

// Snapshot is one immutable frame of rig state.
type Snapshot struct {
	Seq                uint64
	SimTime            float64
	Corners            [4]CornerState
	ReceiverPressure   float64
	AtmospherePressure float64
	Diag               Diagnostics
}

// Publisher hands snapshots from the simulation goroutine to any number of
// readers. Single producer; readers always get the latest complete frame
// and may skip intermediate ones.
type Publisher struct {
	latest atomic.Pointer[Snapshot]
	seq    atomic.Uint64
}

func NewPublisher() *Publisher { return &Publisher{} }

// Publish stamps the snapshot with the next sequence number and makes it the
// current frame. Returns the stamped snapshot.
func (p *Publisher) Publish(s Snapshot) Snapshot {
	s.Seq = p.seq.Add(1)
	p.latest.Store(&s)
	return s
}

// Latest returns the most recently published frame, if any. The returned
// value is a copy; mutating it cannot affect other readers.
func (p *Publisher) Latest() (Snapshot, bool) {
	s := p.latest.Load()
	if s == nil {
		return Snapshot{}, false
	}
	return *s, true
}

// Seq is the sequence number of the most recent frame.
func (p *Publisher) Seq() uint64 { return p.seq.Load() }
