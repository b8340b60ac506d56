package monitor

import "time"

// Status is the current attendance state.
type Status string

const (
	StatusCheckedIn  Status = "checked-in"
	StatusCheckedOut Status = "checked-out"
)

// AttendanceEvent names a reported transition.
type AttendanceEvent string

const (
	AttendanceCheckIn  AttendanceEvent = "check-in"
	AttendanceCheckOut AttendanceEvent = "check-out"
)

// EventType defines the type of monitor event.
type EventType string

const (
	// EventAttendanceChanged fires on every status transition,
	// automatic or manual.
	EventAttendanceChanged EventType = "attendance_changed"
	// EventActivityUpdate is the periodic heartbeat emitted while the
	// user stays active.
	EventActivityUpdate EventType = "activity_update"
)

// Event represents a monitor update for observers.
type Event struct {
	Type       EventType
	Attendance AttendanceEvent
	At         time.Time
}
