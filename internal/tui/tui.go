// Package tui renders the live rig view: a corner table, receiver pressure
// history, and diagnostics, fed from the simulator's snapshot publisher.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"pneurig/internal/config"
	"pneurig/internal/sched"
	"pneurig/internal/sim"
	"pneurig/internal/snapshot"
)

const historyCapacity = 600

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("84")).Bold(true)
	pausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	tableStyle   = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	graphStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model owns the frame loop while the view is open: each tick advances the
// simulator by the elapsed wall time and renders the latest snapshot.
type Model struct {
	sim      *sim.Simulator
	lastTick time.Time
	snap     snapshot.Snapshot
	haveSnap bool
	history  []float64
	supply   float64
	iso      bool
	err      string
}

func NewModel(s *sim.Simulator) Model {
	cfg := s.Config()
	return Model{
		sim:     s,
		history: make([]float64, 0, historyCapacity),
		supply:  cfg.Pneumatic.SupplyThrottle.Fraction,
		iso:     cfg.Pneumatic.MasterIsolationOpen,
	}
}

func (m Model) tick() tea.Cmd {
	interval := time.Second / time.Duration(m.sim.Config().Scheduling.RenderIntervalHz)
	return tea.Tick(interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	m.sim.Scheduler().Start()
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.sim.Scheduler().Stop()
			return m, tea.Quit
		case " ":
			if m.sim.Scheduler().State() == sched.Paused {
				m.sim.Scheduler().Start()
			} else {
				m.sim.Scheduler().Pause()
			}
		case "i":
			m.iso = !m.iso
			m.patch(config.Patch{MasterIsolationOpen: &m.iso})
		case "up", "k":
			m.supply = clamp01(m.supply + 0.05)
			m.patch(config.Patch{SupplyFraction: &m.supply})
		case "down", "j":
			m.supply = clamp01(m.supply - 0.05)
			m.patch(config.Patch{SupplyFraction: &m.supply})
		}
	case TickMsg:
		now := time.Time(msg)
		elapsed := 0.0
		if !m.lastTick.IsZero() {
			elapsed = now.Sub(m.lastTick).Seconds()
		}
		m.lastTick = now

		if _, err := m.sim.RunFrame(elapsed); err != nil {
			m.err = err.Error()
		}
		if snap, ok := m.sim.Publisher().Latest(); ok {
			m.snap = snap
			m.haveSnap = true
			m.history = append(m.history, snap.ReceiverPressure/1e5)
			if len(m.history) > historyCapacity {
				m.history = m.history[1:]
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) patch(p config.Patch) {
	if err := m.sim.Update(p); err != nil {
		m.err = err.Error()
	} else {
		m.err = ""
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("PNEUMATIC RIG") + "\n")

	if m.sim.Scheduler().State() == sched.Paused {
		s.WriteString(pausedStyle.Render("PAUSED") + "\n\n")
	} else {
		s.WriteString(runningStyle.Render("RUNNING") + "\n\n")
	}

	if !m.haveSnap {
		s.WriteString(labelStyle.Render("waiting for first frame") + "\n")
		return s.String()
	}

	s.WriteString(tableStyle.Render(m.cornerTable()) + "\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(6), asciigraph.Width(48),
			asciigraph.Caption("Receiver [bar]"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	s.WriteString(labelStyle.Render("Sim time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.snap.SimTime)) + "\n")
	s.WriteString(labelStyle.Render("Receiver") + valueStyle.Render(fmt.Sprintf("%.3f bar", m.snap.ReceiverPressure/1e5)) + "\n")
	s.WriteString(labelStyle.Render("Supply") + valueStyle.Render(fmt.Sprintf("%.0f%%", m.supply*100)) + "\n")
	iso := "closed"
	if m.iso {
		iso = "open"
	}
	s.WriteString(labelStyle.Render("Isolation") + valueStyle.Render(iso) + "\n")

	d := m.snap.Diag
	if d.Overruns > 0 || d.UnreachableEvents > 0 || d.ConfigRejected > 0 {
		s.WriteString("\n" + warnStyle.Render(fmt.Sprintf(
			"overruns %d  dropped %.3fs  unreachable %d  rejected %d",
			d.Overruns, d.DroppedTime, d.UnreachableEvents, d.ConfigRejected)) + "\n")
	}
	if m.err != "" {
		s.WriteString(warnStyle.Render("config: "+m.err) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause I:Isolation ↑↓:Supply Q:Quit"))
	return s.String()
}

func (m Model) cornerTable() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("%-4s %9s %9s %10s %10s %8s\n",
		"", "angle°", "piston", "head bar", "rod bar", "rod err"))
	for _, c := range m.snap.Corners {
		line := fmt.Sprintf("%-4s %9.2f %9.4f %10.3f %10.3f %8.1e",
			c.Name, c.LeverAngle*180/math.Pi, c.PistonPosition,
			c.HeadPressure/1e5, c.RodPressure/1e5, c.RodLengthError)
		if c.Unreachable {
			s.WriteString(warnStyle.Render(line+"  UNREACHABLE") + "\n")
		} else {
			s.WriteString(line + "\n")
		}
	}
	return strings.TrimRight(s.String(), "\n")
}

// Run opens the live view and blocks until the user quits.
func Run(s *sim.Simulator) error {
	p := tea.NewProgram(NewModel(s))
	_, err := p.Run()
	return err
}
