// Package ui renders a live terminal view of the pipeline.
package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pipeline"
)

// Controller is the part of the app the view can drive.
type Controller interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
	Settings() pipeline.Settings
}

// SnapshotMsg carries a processed frame into the model.
type SnapshotMsg pipeline.Snapshot

// closedMsg reports that the snapshot feed ended.
type closedMsg struct{}

// Model is the root Bubble Tea model.
type Model struct {
	width  int
	height int

	source  string
	ctrl    Controller
	snaps   <-chan pipeline.Snapshot
	snap    pipeline.Snapshot
	enabled bool
	done    bool
}

// New creates a model that renders snapshots from snaps.
func New(ctrl Controller, snaps <-chan pipeline.Snapshot, source string) Model {
	return Model{
		source:  source,
		ctrl:    ctrl,
		snaps:   snaps,
		enabled: ctrl.IsEnabled(),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.snaps)
}

// waitForSnapshot blocks until the next snapshot arrives.
func waitForSnapshot(snaps <-chan pipeline.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-snaps
		if !ok {
			return closedMsg{}
		}
		return SnapshotMsg(snap)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		m.snap = pipeline.Snapshot(msg)
		return m, waitForSnapshot(m.snaps)

	case closedMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		m.done = true
		return m, tea.Quit

	case "p", "P", " ":
		m.enabled = !m.ctrl.IsEnabled()
		m.ctrl.SetEnabled(m.enabled)
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		return ""
	}
	width := m.width
	if width == 0 {
		width = 80
	}

	s := m.ctrl.Settings()
	role := func(side detector.Side) string {
		switch {
		case side == s.ControlHand:
			return "control"
		case s.MultiHand:
			return "secondary"
		}
		return ""
	}

	handW := width / 2
	hands := lipgloss.JoinHorizontal(lipgloss.Top,
		RenderHand("Left", m.snap.Left, role(detector.SideLeft), handW),
		RenderHand("Right", m.snap.Right, role(detector.SideRight), handW),
	)

	return strings.Join([]string{
		RenderHeader(width, m.source, m.enabled, m.snap.FPS),
		hands,
		RenderModulation(m.snap, width),
		StyleHelp.Render(" [p] pause/resume  [q] quit"),
	}, "\n")
}
