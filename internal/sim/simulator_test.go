package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pneurig/internal/config"
	"pneurig/internal/sched"
)

func newSim(t *testing.T) *Simulator {
	t.Helper()
	s, err := New(config.DefaultConfig())
	require.NoError(t, err)
	s.Scheduler().Start()
	return s
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scheduling.PhysicsDt = 0

	_, err := New(cfg)
	require.Error(t, err)
}

func TestFramePublishesExactlyOneSnapshot(t *testing.T) {
	s := newSim(t)

	res, err := s.RunFrame(0.016)
	require.NoError(t, err)
	require.Greater(t, res.Steps, 0)
	require.EqualValues(t, 1, s.Publisher().Seq())

	// A frame with no backlog still publishes.
	res, err = s.RunFrame(0)
	require.NoError(t, err)
	require.Zero(t, res.Steps)
	require.EqualValues(t, 2, s.Publisher().Seq())
}

func TestFrameStepBound(t *testing.T) {
	s := newSim(t)

	// 16.67ms of elapsed time against a 1ms step and a bound of 10.
	res, err := s.RunFrame(0.01667)
	require.NoError(t, err)
	require.Equal(t, config.DefaultMaxSteps, res.Steps)
	require.InDelta(t, 0.00667, s.Scheduler().Accumulated(), 1e-9)
}

func TestPausedFrameStillPublishes(t *testing.T) {
	s := newSim(t)
	s.Scheduler().Pause()

	res, err := s.RunFrame(0.1)
	require.NoError(t, err)
	require.Zero(t, res.Steps)
	require.EqualValues(t, 1, s.Publisher().Seq())

	snap, ok := s.Publisher().Latest()
	require.True(t, ok)
	require.Equal(t, sched.Paused, s.Scheduler().State())
	require.Zero(t, snap.SimTime)
}

func TestUpdateAppliesAtFrameBoundary(t *testing.T) {
	s := newSim(t)

	iso := false
	require.NoError(t, s.Update(config.Patch{MasterIsolationOpen: &iso}))

	// Not yet applied: the active configuration changes only at the next
	// frame boundary.
	require.True(t, s.Config().Pneumatic.MasterIsolationOpen)

	_, err := s.RunFrame(0.002)
	require.NoError(t, err)
	require.False(t, s.Config().Pneumatic.MasterIsolationOpen)
}

func TestUpdateMergesOntoStagedPatch(t *testing.T) {
	s := newSim(t)

	iso := false
	vol := 0.05
	require.NoError(t, s.Update(config.Patch{MasterIsolationOpen: &iso}))
	require.NoError(t, s.Update(config.Patch{ReceiverVolume: &vol}))

	_, err := s.RunFrame(0.002)
	require.NoError(t, err)

	cfg := s.Config()
	require.False(t, cfg.Pneumatic.MasterIsolationOpen)
	require.Equal(t, 0.05, cfg.Pneumatic.ReceiverVolume)
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	s := newSim(t)

	bad := 2e6 // above relief stiff
	err := s.Update(config.Patch{ReliefMin: &bad})
	require.Error(t, err)
	require.EqualValues(t, 1, s.Counters().ConfigRejected())

	// Prior configuration stays active and frames keep running.
	_, err = s.RunFrame(0.002)
	require.NoError(t, err)
	require.Equal(t, 2.5e5, s.Config().Pneumatic.Relief.Min)
}

func TestUpdateSafeFromAnotherGoroutine(t *testing.T) {
	s := newSim(t)

	// Updates and config reads arrive from a second goroutine while the
	// frame loop runs; the race detector verifies the handoff.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			open := i%2 == 0
			_ = s.Update(config.Patch{MasterIsolationOpen: &open})
			_ = s.Config()
		}
	}()

	for i := 0; i < 200; i++ {
		_, err := s.RunFrame(0.002)
		require.NoError(t, err)
	}
	<-done

	require.NoError(t, s.Config().Validate())
}

func TestSimulatedTimeAdvancesWithSteps(t *testing.T) {
	s := newSim(t)

	for i := 0; i < 10; i++ {
		_, err := s.RunFrame(0.010)
		require.NoError(t, err)
	}

	snap, ok := s.Publisher().Latest()
	require.True(t, ok)
	require.InDelta(t, 0.1, snap.SimTime, 1e-6)
}

func TestRunStopsOnCancel(t *testing.T) {
	s, err := New(config.DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	err = s.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, sched.Stopped, s.Scheduler().State())
	require.Greater(t, s.Publisher().Seq(), uint64(0))
}

func TestDrivers(t *testing.T) {
	constant := DriverFromConfig(config.DriveConfig{Mode: "constant", AngleDeg: 90})
	angles := constant.Angles(12.3)
	for _, a := range angles {
		require.InDelta(t, 1.5707963, a, 1e-6)
	}

	sine := DriverFromConfig(config.DriveConfig{Mode: "sine", AmplitudeDeg: 5, FrequencyHz: 1, RearPhaseDeg: 90})
	at0 := sine.Angles(0)
	require.InDelta(t, 0, at0[0], 1e-12)

	// At the front's positive peak the rear, lagging 90 degrees, is at zero.
	atPeak := sine.Angles(0.25)
	require.InDelta(t, 5*3.14159265/180, atPeak[0], 1e-6)
	require.InDelta(t, 0, atPeak[2], 1e-9)

	// Pure functions: identical time, identical angles.
	require.Equal(t, sine.Angles(0.125), sine.Angles(0.125))
}
