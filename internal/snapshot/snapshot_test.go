package snapshot

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishStampsMonotonicSeq(t *testing.T) {
	p := NewPublisher()

	for i := 1; i <= 5; i++ {
		s := p.Publish(Snapshot{SimTime: float64(i)})
		require.EqualValues(t, i, s.Seq)
	}
	require.EqualValues(t, 5, p.Seq())
}

func TestLatestBeforePublish(t *testing.T) {
	p := NewPublisher()

	_, ok := p.Latest()
	require.False(t, ok)
}

func TestLatestReturnsWholeFrame(t *testing.T) {
	p := NewPublisher()

	in := Snapshot{SimTime: 1.5, ReceiverPressure: 4e5}
	in.Corners[2] = CornerState{Name: "RL", HeadPressure: 2e5, RodPressure: 1e5}
	p.Publish(in)

	got, ok := p.Latest()
	require.True(t, ok)
	require.Equal(t, 1.5, got.SimTime)
	require.Equal(t, 4e5, got.ReceiverPressure)
	require.Equal(t, "RL", got.Corners[2].Name)
	require.Equal(t, 2e5, got.Corners[2].HeadPressure)
}

func TestReaderCopyIsIsolated(t *testing.T) {
	p := NewPublisher()
	p.Publish(Snapshot{ReceiverPressure: 4e5})

	got, _ := p.Latest()
	got.ReceiverPressure = 0

	again, _ := p.Latest()
	require.Equal(t, 4e5, again.ReceiverPressure)
}

func TestConcurrentReaderSeesCompleteFrames(t *testing.T) {
	p := NewPublisher()

	var wg sync.WaitGroup
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		var lastSeq uint64
		for {
			select {
			case <-done:
				return
			default:
			}
			s, ok := p.Latest()
			if !ok {
				continue
			}
			// Frames are published with SimTime == Seq: a torn read
			// would break the pairing.
			assert.Equal(t, float64(s.Seq), s.SimTime)
			assert.GreaterOrEqual(t, s.Seq, lastSeq)
			lastSeq = s.Seq
		}
	}()

	for i := 0; i < 10000; i++ {
		p.Publish(Snapshot{SimTime: float64(i + 1)})
	}
	close(done)
	wg.Wait()
}
