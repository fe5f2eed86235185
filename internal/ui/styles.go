package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorAccent = lipgloss.Color("#FFB000")
	ColorOn     = lipgloss.Color("#3DDC84")
	ColorOff    = lipgloss.Color("#888888")
	ColorDim    = lipgloss.Color("#555555")
	ColorText   = lipgloss.Color("#E0E0E0")
	ColorWarn   = lipgloss.Color("#FF5F56")
	ColorBarBg  = lipgloss.Color("#303030")
)

// Pre-built styles
var (
	StyleHeader = lipgloss.NewStyle().
			Background(lipgloss.Color("#2A1F00")).
			Foreground(ColorAccent).
			Bold(true).
			Padding(0, 1)

	StylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorDim).
			Padding(0, 1)

	StylePanelControl = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(ColorAccent).
				Padding(0, 1)

	StylePanelTitle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorOff)

	StyleValue = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)

	StyleOn = lipgloss.NewStyle().
		Foreground(ColorOn).
		Bold(true)

	StyleOff = lipgloss.NewStyle().
			Foreground(ColorOff)

	StylePaused = lipgloss.NewStyle().
			Foreground(ColorWarn).
			Bold(true)

	StyleBarFill = lipgloss.NewStyle().
			Foreground(ColorAccent)

	StyleBarEmpty = lipgloss.NewStyle().
			Foreground(ColorBarBg)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorDim)
)
