package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ayusman/mudra/internal/pipeline"
)

// RenderBar draws a horizontal bar filled to fraction (clamped to [0,1]).
func RenderBar(fraction float64, width int) string {
	if width < 1 {
		width = 1
	}
	if math.IsNaN(fraction) || fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(math.Round(fraction * float64(width)))
	return StyleBarFill.Render(strings.Repeat("█", filled)) +
		StyleBarEmpty.Render(strings.Repeat("░", width-filled))
}

func flag(set bool, yes, no string) string {
	if set {
		return StyleOn.Render(yes)
	}
	return StyleOff.Render(no)
}

// RenderHand draws one hand's panel. role is appended to the title when
// set, e.g. "control" for the hand that toggles.
func RenderHand(title string, st pipeline.HandStatus, role string, width int) string {
	innerW := max(width-4, 16)
	barW := max(innerW-12, 4)

	value := StyleOff.Render("--")
	if st.HasValue {
		value = StyleValue.Render(fmt.Sprintf("%3d", st.Value))
	}

	heading := StylePanelTitle.Render(title)
	if role != "" {
		heading += StyleLabel.Render(" (" + role + ")")
	}

	lines := []string{
		heading,
		StyleLabel.Render("Detected  ") + flag(st.Detected, "yes", "no"),
		StyleLabel.Render("Open      ") + flag(st.Open, "yes", "no"),
		StyleLabel.Render("Pointing  ") + flag(st.PointingUp, "yes", "no"),
		StyleLabel.Render("Confirm   ") + RenderBar(st.Progress, barW),
		StyleLabel.Render("Value     ") + value,
	}

	style := StylePanel
	if control {
		style = StylePanelControl
	}
	return style.Width(innerW).Render(strings.Join(lines, "\n"))
}

// RenderModulation draws the modulation state with its value meter.
func RenderModulation(snap pipeline.Snapshot, width int) string {
	innerW := max(width-4, 20)

	state := StyleOff.Render("OFF")
	if snap.ModulationOn {
		state = StyleOn.Render("ON")
	}

	value := StyleOff.Render("--")
	fraction := 0.0
	if snap.HasValue {
		value = StyleValue.Render(fmt.Sprintf("%3d", snap.LastValue))
		fraction = float64(snap.LastValue) / 127
	}

	lines := []string{
		StylePanelTitle.Render("Modulation ") + state,
		StyleLabel.Render("Progress ") + RenderBar(snap.Progress, innerW-9),
		StyleLabel.Render("Value    ") + RenderBar(fraction, innerW-13) + " " + value,
	}
	return StylePanel.Width(innerW).Render(strings.Join(lines, "\n"))
}

// RenderHeader draws the top line.
func RenderHeader(width int, source string, enabled bool, fps float64) string {
	status := StyleOn.Render("[TRACKING]")
	if !enabled {
		status = StylePaused.Render("[PAUSED]")
	}
	info := fmt.Sprintf(" mudra  source: %s  %.1f fps ", source, fps)
	content := status + info

	gap := max(width-lipgloss.Width(content)-2, 0)
	return StyleHeader.Render(content + strings.Repeat(" ", gap))
}
