// Package diag collects recoverable-condition diagnostics without ever
// blocking the simulation loop: a fixed-capacity drop-oldest event ring plus
// lock-free counters surfaced through snapshots.
package diag

import (
	"sync"
	"sync/atomic"
)

// Kind classifies a diagnostic event.
type Kind int

const (
	KindUnreachableGeometry Kind = iota
	KindSchedulerOverrun
	KindConfigRejected
	KindSafetyBlown
)

func (k Kind) String() string {
	switch k {
	case KindUnreachableGeometry:
		return "unreachable-geometry"
	case KindSchedulerOverrun:
		return "scheduler-overrun"
	case KindConfigRejected:
		return "config-rejected"
	case KindSafetyBlown:
		return "safety-blown"
	default:
		return "unknown"
	}
}

// Event is one recoverable condition observed during simulation.
type Event struct {
	SimTime float64
	Kind    Kind
	Corner  string
	Detail  string
}

// Ring is a fixed-capacity event buffer. Record overwrites the oldest entry
// when full and never blocks; readers drain in arrival order.
type Ring struct {
	mu      sync.Mutex
	buf     []Event
	head    int
	count   int
	dropped uint64
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{buf: make([]Event, capacity)}
}

func (r *Ring) Record(e Event) {
	r.mu.Lock()
	idx := (r.head + r.count) % len(r.buf)
	r.buf[idx] = e
	if r.count < len(r.buf) {
		r.count++
	} else {
		r.head = (r.head + 1) % len(r.buf)
		r.dropped++
	}
	r.mu.Unlock()
}

// Drain copies out all buffered events in order and clears the ring.
func (r *Ring) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	r.head = 0
	r.count = 0
	return out
}

func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Dropped is the number of events overwritten before being drained.
func (r *Ring) Dropped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Counters aggregates recoverable conditions across a run. All methods are
// safe for concurrent use; dropped simulation time is kept in nanoseconds so
// it can live in an atomic integer.
type Counters struct {
	overruns    atomic.Uint64
	unreachable atomic.Uint64
	rejected    atomic.Uint64
	droppedNs   atomic.Int64
}

func (c *Counters) AddOverrun()           { c.overruns.Add(1) }
func (c *Counters) AddUnreachable()       { c.unreachable.Add(1) }
func (c *Counters) AddConfigRejected()    { c.rejected.Add(1) }
func (c *Counters) AddDropped(sec float64) { c.droppedNs.Add(int64(sec * 1e9)) }

func (c *Counters) Overruns() uint64       { return c.overruns.Load() }
func (c *Counters) Unreachable() uint64    { return c.unreachable.Load() }
func (c *Counters) ConfigRejected() uint64 { return c.rejected.Load() }

// DroppedTime is the total simulated time discarded by scheduler overruns,
// in seconds.
func (c *Counters) DroppedTime() float64 {
	return float64(c.droppedNs.Load()) / 1e9
}
