// Package tray provides the system tray menu of holocore.
package tray

import (
	"os/exec"
	"runtime"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/holocore/internal/gesture"
)

// Tray represents the system tray application.
type Tray struct {
	title    string
	url      string
	onToggle func(enabled bool) error
	onQuit   func()
	enabled  bool
	last     string
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle      *systray.MenuItem
	menuLastGesture *systray.MenuItem
}

// New creates a Tray. url is opened by the settings item; leave it empty
// when the API server is disabled.
func New(url string) *Tray {
	return &Tray{title: "holocore", url: url}
}

// OnToggle sets the callback run when recognition is toggled from the
// menu. A failing callback leaves the menu state unchanged.
func (t *Tray) OnToggle(fn func(enabled bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application. It must be called from the main
// goroutine and blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle(t.title)
	systray.SetTooltip("holocore gesture recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture recognition")
	systray.AddSeparator()
	t.menuLastGesture = systray.AddMenuItem(lastTitle(t.last), "Last recognized gesture")
	t.menuLastGesture.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open the control panel in a browser")
	if t.url == "" {
		menuSettings.Disable()
	}
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit holocore")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				openBrowser(t.url)
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.RLock()
	next := !t.enabled
	callback := t.onToggle
	t.mu.RUnlock()

	// callback runs outside the lock; it may call SetEnabled
	if callback != nil {
		if err := callback(next); err != nil {
			return
		}
	}
	t.SetEnabled(next)
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

// SetEnabled reflects the recognition state in the menu.
func (t *Tray) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
}

// ShowGesture is a recognizer subscriber that displays the latest event.
func (t *Tray) ShowGesture(ev gesture.Event) error {
	t.SetLastGesture(ev.ID)
	return nil
}

// SetLastGesture updates the last gesture display in the menu.
func (t *Tray) SetLastGesture(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last = name
	if t.menuLastGesture != nil {
		t.menuLastGesture.SetTitle(lastTitle(name))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// LastGesture returns the gesture currently displayed.
func (t *Tray) LastGesture() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Recognizing"
	}
	return "○ Paused"
}

func lastTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}

func openBrowser(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err == nil {
		go cmd.Wait()
	}
}
