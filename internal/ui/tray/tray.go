package tray

import (
	"fmt"

	"fyne.io/systray"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnCheckIn         func()
	OnCheckOut        func()
	OnToggleAutostart func(enable bool)
	OnQuit            func()
}

// Manager handles system tray state.
type Manager struct {
	statusItem    *systray.MenuItem
	checkInItem   *systray.MenuItem
	checkOutItem  *systray.MenuItem
	autostartItem *systray.MenuItem
	callbacks     Callbacks
}

// Run starts the tray shell and blocks until Quit. onReady receives the
// manager once the menu exists, so the caller can wire observers.
func Run(callbacks Callbacks, autostartEnabled bool, onReady func(*Manager)) {
	systray.Run(func() {
		systray.SetTitle("Remodance")
		systray.SetTooltip("Remodance attendance tracker")

		manager := &Manager{callbacks: callbacks}

		manager.statusItem = systray.AddMenuItem("Status: starting...", "")
		manager.statusItem.Disable()
		systray.AddSeparator()
		manager.checkInItem = systray.AddMenuItem("Check in", "Manually check in")
		manager.checkOutItem = systray.AddMenuItem("Check out", "Manually check out and stay out")
		systray.AddSeparator()
		manager.autostartItem = systray.AddMenuItemCheckbox("Launch at startup", "", autostartEnabled)
		quitItem := systray.AddMenuItem("Quit", "")

		go manager.loop(quitItem)

		if onReady != nil {
			onReady(manager)
		}
	}, nil)
}

// Quit tears the tray down and unblocks Run.
func Quit() {
	systray.Quit()
}

// SetStatus updates the status line.
func (manager *Manager) SetStatus(status string) {
	manager.statusItem.SetTitle(fmt.Sprintf("Status: %s", status))
}

func (manager *Manager) loop(quitItem *systray.MenuItem) {
	for {
		select {
		case <-manager.checkInItem.ClickedCh:
			if manager.callbacks.OnCheckIn != nil {
				manager.callbacks.OnCheckIn()
			}
		case <-manager.checkOutItem.ClickedCh:
			if manager.callbacks.OnCheckOut != nil {
				manager.callbacks.OnCheckOut()
			}
		case <-manager.autostartItem.ClickedCh:
			enable := !manager.autostartItem.Checked()
			if enable {
				manager.autostartItem.Check()
			} else {
				manager.autostartItem.Uncheck()
			}
			if manager.callbacks.OnToggleAutostart != nil {
				manager.callbacks.OnToggleAutostart(enable)
			}
		case <-quitItem.ClickedCh:
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
			systray.Quit()
			return
		}
	}
}
