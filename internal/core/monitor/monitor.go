package monitor

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"remodance/internal/api"
	"remodance/internal/core/model"
)

// ErrIdleUnsupported indicates idle detection is not available on this system.
var ErrIdleUnsupported = errors.New("idle detection unsupported")

// heartbeatAfter is how long the user must stay active before an
// activity heartbeat is emitted again.
const heartbeatAfter = 60 * time.Second

// IdleChecker reports the duration of user inactivity.
type IdleChecker interface {
	IdleDuration() (time.Duration, error)
}

// Sender delivers an attendance payload to the remote endpoint.
type Sender interface {
	Send(payload api.Payload, endpoint string) error
}

// Store persists settings outside the process.
type Store interface {
	Save(settings model.Settings) error
}

// Config contains runtime options for Monitor.
type Config struct {
	TickInterval time.Duration
}

// Monitor is the attendance state machine. A single perpetual loop
// samples idle time once per tick and applies the check-in/check-out
// policy; manual commands operate on the same state concurrently.
type Monitor struct {
	mu             sync.Mutex
	settings       model.Settings
	status         Status
	manualCheckout bool
	lastActivity   time.Time
	idleChecker    IdleChecker
	sender         Sender
	store          Store
	options        Config
	events         []chan Event
	stopCh         chan struct{}
	running        bool
}

// New creates a Monitor with the provided settings and sender.
func New(settings model.Settings, sender Sender, options Config) *Monitor {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}

	return &Monitor{
		settings: settings,
		status:   StatusCheckedOut,
		sender:   sender,
		options:  options,
		stopCh:   make(chan struct{}),
	}
}

// SetIdleChecker injects an idle checker.
func (monitor *Monitor) SetIdleChecker(checker IdleChecker) {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	monitor.idleChecker = checker
}

// SetStore injects the settings persistence collaborator.
func (monitor *Monitor) SetStore(store Store) {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	monitor.store = store
}

// Subscribe registers a new observer channel.
func (monitor *Monitor) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	monitor.mu.Lock()
	monitor.events = append(monitor.events, ch)
	monitor.mu.Unlock()
	return ch
}

// Start launches the ticking loop.
func (monitor *Monitor) Start() {
	monitor.mu.Lock()
	if monitor.running {
		monitor.mu.Unlock()
		return
	}
	monitor.running = true
	monitor.lastActivity = time.Now()
	monitor.mu.Unlock()

	go monitor.run()
}

// Stop terminates the ticking loop and closes observers.
func (monitor *Monitor) Stop() {
	monitor.mu.Lock()
	if !monitor.running {
		monitor.mu.Unlock()
		return
	}
	close(monitor.stopCh)
	monitor.running = false
	events := monitor.events
	monitor.events = nil
	monitor.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Status returns the current attendance status.
func (monitor *Monitor) Status() Status {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.status
}

// Settings returns the current configuration snapshot.
func (monitor *Monitor) Settings() model.Settings {
	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	return monitor.settings
}

// SaveSettings replaces the in-memory settings as a whole and persists
// them. A persistence failure is returned to the caller but does not
// revert the accepted value.
func (monitor *Monitor) SaveSettings(settings model.Settings) error {
	monitor.mu.Lock()
	monitor.settings = settings
	store := monitor.store
	monitor.mu.Unlock()

	if store == nil {
		return nil
	}
	if err := store.Save(settings); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

// SendAttendanceEvent performs a manual transition. A manual check-out
// is sticky: the loop will not check the user back in until a manual
// check-in clears the override. The dispatch error, if any, is
// propagated to the caller; the state change and the observer
// notification happen regardless.
func (monitor *Monitor) SendAttendanceEvent(event AttendanceEvent) error {
	monitor.mu.Lock()
	settings := monitor.settings
	switch event {
	case AttendanceCheckIn:
		monitor.status = StatusCheckedIn
		monitor.manualCheckout = false
	case AttendanceCheckOut:
		monitor.status = StatusCheckedOut
		monitor.manualCheckout = true
	default:
		monitor.mu.Unlock()
		return fmt.Errorf("unknown attendance event %q", event)
	}
	monitor.mu.Unlock()

	now := time.Now()
	err := monitor.sender.Send(api.NewPayload(string(event), settings, now), settings.APIEndpoint)

	monitor.emit(Event{
		Type:       EventAttendanceChanged,
		Attendance: event,
		At:         now,
	})

	if err != nil {
		return fmt.Errorf("send %s event: %w", event, err)
	}
	return nil
}

func (monitor *Monitor) run() {
	ticker := time.NewTicker(monitor.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-monitor.stopCh:
			return
		case <-ticker.C:
			// Wall clock, not the ticker's time: after a system
			// sleep the ticker lags behind reality.
			monitor.tick(time.Now())
		}
	}
}

func (monitor *Monitor) tick(now time.Time) {
	monitor.mu.Lock()
	if !monitor.running {
		monitor.mu.Unlock()
		return
	}
	settings := monitor.settings
	checker := monitor.idleChecker
	monitor.mu.Unlock()

	if !settings.AutoMode || checker == nil {
		return
	}

	idleDuration, err := checker.IdleDuration()
	if err != nil {
		if !errors.Is(err, ErrIdleUnsupported) {
			log.Printf("idle check failed: %v", err)
		}
		return
	}

	if idleDuration >= settings.IdleTimeout() {
		monitor.handleIdle(settings, now)
		return
	}
	monitor.handleActive(settings, now, idleDuration)
}

// handleIdle checks the user out once the idle threshold is crossed.
// Re-asserting an existing checkout is a no-op, and the manual override
// flag is never touched by the automatic path.
func (monitor *Monitor) handleIdle(settings model.Settings, now time.Time) {
	monitor.mu.Lock()
	if monitor.status != StatusCheckedIn {
		monitor.mu.Unlock()
		return
	}
	monitor.status = StatusCheckedOut
	monitor.mu.Unlock()

	log.Printf("user idle past %s, checking out", settings.IdleTimeout())
	monitor.report(AttendanceCheckOut, settings, now)
}

func (monitor *Monitor) handleActive(settings model.Settings, now time.Time, idleDuration time.Duration) {
	checkedIn := false
	monitor.mu.Lock()
	if monitor.status == StatusCheckedOut && !monitor.manualCheckout {
		monitor.status = StatusCheckedIn
		checkedIn = true
	}
	heartbeat := !monitor.lastActivity.IsZero() && now.Sub(monitor.lastActivity) > heartbeatAfter
	monitor.lastActivity = now
	monitor.mu.Unlock()

	if checkedIn {
		log.Printf("activity detected after %s idle, checking in", idleDuration)
		monitor.report(AttendanceCheckIn, settings, now)
	}
	if heartbeat {
		monitor.emit(Event{Type: EventActivityUpdate, At: now})
	}
}

// report dispatches an automatic transition and notifies observers. The
// status change is already committed: a dispatch failure is logged and
// swallowed, never rolled back.
func (monitor *Monitor) report(event AttendanceEvent, settings model.Settings, now time.Time) {
	if err := monitor.sender.Send(api.NewPayload(string(event), settings, now), settings.APIEndpoint); err != nil {
		log.Printf("failed to send %s event: %v", event, err)
	}

	monitor.emit(Event{
		Type:       EventAttendanceChanged,
		Attendance: event,
		At:         now,
	})
}

func (monitor *Monitor) emit(event Event) {
	monitor.mu.Lock()
	events := append([]chan Event(nil), monitor.events...)
	monitor.mu.Unlock()

	for _, ch := range events {
		select {
		case ch <- event:
		default:
		}
	}
}
