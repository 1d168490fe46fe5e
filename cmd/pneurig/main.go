package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"pneurig/internal/config"
	"pneurig/internal/sim"
	"pneurig/internal/snapshot"
	"pneurig/internal/store"
	"pneurig/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string
	duration   float64
	dt         float64
	thermoMode string
	driveMode  string
	amplitude  float64
	frequency  float64
	angle      float64
	noRecord   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pneurig",
		Short: "four-corner pneumatic suspension rig simulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pneurig", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and record it",
		RunE:  runHeadless,
	}
	runCmd.Flags().Float64Var(&duration, "time", 10.0, "simulated duration in seconds")
	runCmd.Flags().Float64Var(&dt, "dt", 0, "physics timestep override")
	runCmd.Flags().StringVar(&thermoMode, "thermo", "", "thermo mode override (isothermal|adiabatic)")
	runCmd.Flags().StringVar(&driveMode, "drive", "", "lever drive override (constant|sine)")
	runCmd.Flags().Float64Var(&amplitude, "amplitude", 0, "sine drive amplitude in degrees")
	runCmd.Flags().Float64Var(&frequency, "frequency", 0, "sine drive frequency in hz")
	runCmd.Flags().Float64Var(&angle, "angle", 0, "constant drive angle in degrees")
	runCmd.Flags().BoolVar(&noRecord, "no-record", false, "skip writing the run to disk")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run with a live terminal view",
		RunE:  runLive,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "validate a config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(args[0]); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write the default config to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	rootCmd.AddCommand(runCmd, liveCmd, presetsCmd, validateCmd, initCmd, runsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves preset, config file, and flag overrides in that order.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	cfg := config.DefaultConfig()
	label := "default"

	if preset != "" {
		p, ok := config.GetPreset(preset)
		if !ok {
			return cfg, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg = p
		label = preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return cfg, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		label = "file"
	}

	if cmd.Flags().Changed("dt") {
		cfg.Scheduling.PhysicsDt = dt
	}
	if cmd.Flags().Changed("thermo") {
		cfg.Pneumatic.ThermoMode = thermoMode
	}
	if cmd.Flags().Changed("drive") {
		cfg.Drive.Mode = driveMode
	}
	if cmd.Flags().Changed("amplitude") {
		cfg.Drive.AmplitudeDeg = amplitude
	}
	if cmd.Flags().Changed("frequency") {
		cfg.Drive.FrequencyHz = frequency
	}
	if cmd.Flags().Changed("angle") {
		cfg.Drive.AngleDeg = angle
	}

	return cfg, label, cfg.Validate()
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, label, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := sim.New(cfg)
	if err != nil {
		return err
	}

	// Headless runs feed the scheduler a fixed frame interval so results do
	// not depend on wall-clock jitter.
	frameInterval := 1.0 / float64(cfg.Scheduling.RenderIntervalHz)
	frames := int(duration / frameInterval)

	fmt.Printf("running %s for %.1fs (%s, dt=%.4fs)...\n", label, duration, cfg.Pneumatic.ThermoMode, cfg.Scheduling.PhysicsDt)
	start := time.Now()

	s.Scheduler().Start()
	history := make([]float64, 0, frames)
	captured := make([]snapshot.Snapshot, 0, frames)
	for i := 0; i < frames; i++ {
		if _, err := s.RunFrame(frameInterval); err != nil {
			return err
		}
		if snap, ok := s.Publisher().Latest(); ok {
			captured = append(captured, snap)
			history = append(history, snap.ReceiverPressure/1e5)
		}
	}
	s.Scheduler().Stop()
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n\n", elapsed)

	if len(captured) == 0 {
		return fmt.Errorf("no frames produced (duration %.2fs below frame interval %.4fs)", duration, frameInterval)
	}

	last := captured[len(captured)-1]
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CORNER\tANGLE°\tPISTON\tHEAD bar\tROD bar\tROD ERR")
	for _, c := range last.Corners {
		fmt.Fprintf(w, "%s\t%.2f\t%.4f\t%.3f\t%.3f\t%.1e\n",
			c.Name, c.LeverAngle*180/math.Pi, c.PistonPosition,
			c.HeadPressure/1e5, c.RodPressure/1e5, c.RodLengthError)
	}
	w.Flush()

	fmt.Printf("\nreceiver: %.3f bar  sim time: %.2fs\n", last.ReceiverPressure/1e5, last.SimTime)
	fmt.Printf("overruns: %d  dropped: %.3fs  unreachable: %d  rejected: %d\n",
		last.Diag.Overruns, last.Diag.DroppedTime, last.Diag.UnreachableEvents, last.Diag.ConfigRejected)

	if len(history) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(history,
			asciigraph.Height(8), asciigraph.Width(72),
			asciigraph.Caption("receiver pressure [bar]")))
	}

	if !noRecord {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(label, cfg, captured)
		if err != nil {
			return err
		}
		fmt.Printf("\nrun id: %s\n", runID)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	s, err := sim.New(cfg)
	if err != nil {
		return err
	}
	return tui.Run(s)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tDURATION\tDT\tTHERMO\tFRAMES\tOVERRUNS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.PhysicsDt,
			run.ThermoMode,
			run.Frames,
			run.Overruns,
		)
	}
	return w.Flush()
}
