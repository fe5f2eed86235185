// Package tray provides a menu-bar interface showing the modulation state.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/pipeline"
)

// Tray represents the menu-bar application.
type Tray struct {
	onToggle     func(enabled bool)
	onOpenStatus func()
	onQuit       func()
	enabled      bool
	last         pipeline.Snapshot
	mu           sync.RWMutex

	// Menu items stored for later updates
	menuTracking   *systray.MenuItem
	menuModulation *systray.MenuItem
	menuValue      *systray.MenuItem
}

// New creates a new Tray with tracking shown as enabled.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback called when tracking is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnOpenStatus sets the callback for the "Open Status Page" item.
func (t *Tray) OnOpenStatus(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenStatus = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the menu-bar application. It blocks until Quit is called and
// must run on the main goroutine on macOS.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the menu-bar application, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle(trayTitle(false))
	systray.SetTooltip("mudra gesture modulation")

	t.mu.Lock()
	t.menuModulation = systray.AddMenuItem(modulationTitle(t.last), "Modulation state")
	t.menuModulation.Disable()
	t.menuValue = systray.AddMenuItem(valueTitle(t.last), "Last control value")
	t.menuValue.Disable()
	systray.AddSeparator()
	t.menuTracking = systray.AddMenuItem(trackingTitle(t.enabled), "Pause or resume hand tracking")
	t.mu.Unlock()

	menuStatus := systray.AddMenuItem("Open Status Page...", "Open the status page in a browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit mudra")

	go func() {
		for {
			select {
			case <-t.menuTracking.ClickedCh:
				t.handleToggle()
			case <-menuStatus.ClickedCh:
				t.handleOpenStatus()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuTracking != nil {
		t.menuTracking.SetTitle(trackingTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleOpenStatus() {
	t.mu.RLock()
	callback := t.onOpenStatus
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// Update refreshes the menu from a snapshot. Only changes touch the menu,
// so it can be called for every frame.
func (t *Tray) Update(snap pipeline.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.last
	t.last = snap
	if t.menuModulation == nil {
		return
	}
	if snap.ModulationOn != prev.ModulationOn {
		systray.SetTitle(trayTitle(snap.ModulationOn))
		t.menuModulation.SetTitle(modulationTitle(snap))
	}
	if valueTitle(snap) != valueTitle(prev) {
		t.menuValue.SetTitle(valueTitle(snap))
	}
}

// SetEnabled reflects a pause or resume made elsewhere.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuTracking != nil {
		t.menuTracking.SetTitle(trackingTitle(enabled))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func trayTitle(on bool) string {
	if on {
		return "mudra ●"
	}
	return "mudra ○"
}

func modulationTitle(snap pipeline.Snapshot) string {
	if snap.ModulationOn {
		return "Modulation: on"
	}
	return "Modulation: off"
}

func valueTitle(snap pipeline.Snapshot) string {
	if !snap.HasValue {
		return "Value: none"
	}
	return fmt.Sprintf("Value: %d", snap.LastValue)
}

func trackingTitle(enabled bool) string {
	if enabled {
		return "Pause Tracking"
	}
	return "Resume Tracking"
}
