package platform

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"

	"remodance/internal/core/monitor"
)

const (
	idleMonitorDest = "org.gnome.Mutter.IdleMonitor"
	idleMonitorPath = "/org/gnome/Mutter/IdleMonitor/Core"
)

type idleProvider struct {
	conn           *dbus.Conn
	xprintidlePath string
}

type unsupportedIdleProvider struct{}

func newIdleProvider() IdleProvider {
	provider := &idleProvider{}
	if conn, err := dbus.ConnectSessionBus(); err == nil {
		provider.conn = conn
	}
	if path, err := exec.LookPath("xprintidle"); err == nil {
		provider.xprintidlePath = path
	}
	if provider.conn == nil && provider.xprintidlePath == "" {
		return unsupportedIdleProvider{}
	}
	return provider
}

// IdleDuration asks the compositor's idle monitor first, which works on
// both X11 and Wayland sessions. xprintidle is the X11-only fallback.
func (provider *idleProvider) IdleDuration() (time.Duration, error) {
	if provider.conn != nil {
		var idleMillis uint64
		object := provider.conn.Object(idleMonitorDest, idleMonitorPath)
		err := object.Call(idleMonitorDest+".GetIdletime", 0).Store(&idleMillis)
		if err == nil {
			return time.Duration(idleMillis) * time.Millisecond, nil
		}
	}

	if provider.xprintidlePath == "" {
		return 0, monitor.ErrIdleUnsupported
	}

	output, err := exec.Command(provider.xprintidlePath).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, monitor.ErrIdleUnsupported
}
