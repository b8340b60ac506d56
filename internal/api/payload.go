package api

import (
	"time"

	"remodance/internal/core/model"
)

// Payload is the attendance event sent to the remote endpoint.
type Payload struct {
	EventType string `json:"event_type"`
	UserID    string `json:"user_id"`
	Payload   Data   `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// Data carries the local time context of the event.
type Data struct {
	Time     string  `json:"time"`
	Date     string  `json:"date"`
	DeviceID string  `json:"device_id"`
	Config   *Config `json:"config,omitempty"`
}

// Config mirrors the local configuration for diagnostic deployments.
// It is attached only when developer mode is enabled.
type Config struct {
	IdleTimeoutMins uint64 `json:"idle_timeout_mins"`
	AutoMode        bool   `json:"auto_mode"`
}

// NewPayload builds the wire payload for an attendance event.
// Time and date use the local wall clock; the timestamp carries the
// timezone offset.
func NewPayload(eventType string, settings model.Settings, now time.Time) Payload {
	var config *Config
	if settings.DeveloperMode {
		config = &Config{
			IdleTimeoutMins: settings.IdleTimeoutMins,
			AutoMode:        settings.AutoMode,
		}
	}

	return Payload{
		EventType: eventType,
		UserID:    settings.Username,
		Payload: Data{
			Time:     now.Format("15:04:05"),
			Date:     now.Format("2006-01-02"),
			DeviceID: settings.DeviceName,
			Config:   config,
		},
		Timestamp: now.Format(time.RFC3339),
	}
}
