package model

import "time"

// Identity holds the OS-derived user and machine names used to seed
// default settings. It is resolved once at startup by the caller so the
// defaults stay deterministic in tests.
type Identity struct {
	Username string
	Hostname string
}

// Settings is the agent configuration snapshot. It is always replaced
// as a whole, never patched field by field.
type Settings struct {
	APIEndpoint     string
	Username        string
	DeviceName      string
	IdleTimeoutMins uint64
	AutoMode        bool
	DeveloperMode   bool
}

// DefaultSettings builds the startup configuration for the given host identity.
func DefaultSettings(identity Identity) Settings {
	username := identity.Username
	if username == "" {
		username = "unknown"
	}
	hostname := identity.Hostname
	if hostname == "" {
		hostname = "unknown"
	}

	return Settings{
		APIEndpoint:     "https://example.com/attendance",
		Username:        username,
		DeviceName:      hostname,
		IdleTimeoutMins: 10,
		AutoMode:        true,
		DeveloperMode:   false,
	}
}

// IdleTimeout returns the idle threshold as a duration.
func (settings Settings) IdleTimeout() time.Duration {
	return time.Duration(settings.IdleTimeoutMins) * time.Minute
}
