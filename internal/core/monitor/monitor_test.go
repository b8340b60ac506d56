package monitor

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remodance/internal/api"
	"remodance/internal/core/model"
)

type fakeIdleChecker struct {
	duration time.Duration
	err      error
}

func (checker *fakeIdleChecker) IdleDuration() (time.Duration, error) {
	return checker.duration, checker.err
}

type sentEvent struct {
	payload  api.Payload
	endpoint string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentEvent
	err  error
}

func (sender *fakeSender) Send(payload api.Payload, endpoint string) error {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.sent = append(sender.sent, sentEvent{payload: payload, endpoint: endpoint})
	return sender.err
}

func (sender *fakeSender) events() []sentEvent {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	return append([]sentEvent(nil), sender.sent...)
}

type fakeStore struct {
	saved []model.Settings
	err   error
}

func (store *fakeStore) Save(settings model.Settings) error {
	store.saved = append(store.saved, settings)
	return store.err
}

func testSettings() model.Settings {
	return model.Settings{
		APIEndpoint:     "https://example.com/attendance",
		Username:        "alice",
		DeviceName:      "workstation",
		IdleTimeoutMins: 10,
		AutoMode:        true,
	}
}

func newTestMonitor(settings model.Settings, checker IdleChecker, sender Sender) *Monitor {
	m := New(settings, sender, Config{TickInterval: time.Second})
	m.SetIdleChecker(checker)
	m.running = true
	return m
}

func drainEvents(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case event := <-ch:
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestAutoCheckoutPastThreshold(t *testing.T) {
	checker := &fakeIdleChecker{duration: 601 * time.Second}
	sender := &fakeSender{}
	m := newTestMonitor(testSettings(), checker, sender)
	m.status = StatusCheckedIn
	observer := m.Subscribe(5)

	m.tick(time.Now())

	assert.Equal(t, StatusCheckedOut, m.Status())
	sent := sender.events()
	require.Len(t, sent, 1)
	assert.Equal(t, "check-out", sent[0].payload.EventType)
	assert.Equal(t, "https://example.com/attendance", sent[0].endpoint)

	events := drainEvents(observer)
	require.Len(t, events, 1)
	assert.Equal(t, EventAttendanceChanged, events[0].Type)
	assert.Equal(t, AttendanceCheckOut, events[0].Attendance)
}

func TestCheckoutBoundaryIsInclusive(t *testing.T) {
	checker := &fakeIdleChecker{duration: 10 * time.Minute}
	sender := &fakeSender{}
	m := newTestMonitor(testSettings(), checker, sender)
	m.status = StatusCheckedIn

	m.tick(time.Now())

	assert.Equal(t, StatusCheckedOut, m.Status())
	require.Len(t, sender.events(), 1)
}

func TestRepeatedIdleTicksDispatchOnce(t *testing.T) {
	checker := &fakeIdleChecker{duration: time.Hour}
	sender := &fakeSender{}
	m := newTestMonitor(testSettings(), checker, sender)
	m.status = StatusCheckedIn

	for i := 0; i < 5; i++ {
		m.tick(time.Now())
	}

	assert.Equal(t, StatusCheckedOut, m.Status())
	assert.Len(t, sender.events(), 1)
}

func TestAutoCheckInOnActivity(t *testing.T) {
	checker := &fakeIdleChecker{duration: 3 * time.Second}
	sender := &fakeSender{}
	m := newTestMonitor(testSettings(), checker, sender)
	observer := m.Subscribe(5)

	m.tick(time.Now())

	assert.Equal(t, StatusCheckedIn, m.Status())
	sent := sender.events()
	require.Len(t, sent, 1)
	assert.Equal(t, "check-in", sent[0].payload.EventType)

	events := drainEvents(observer)
	require.Len(t, events, 1)
	assert.Equal(t, AttendanceCheckIn, events[0].Attendance)
}

func TestAutoModeDisabledFreezesStatus(t *testing.T) {
	tests := []struct {
		name   string
		idle   time.Duration
		status Status
	}{
		{"Idle past threshold while checked in", time.Hour, StatusCheckedIn},
		{"Active while checked out", 0, StatusCheckedOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := testSettings()
			settings.AutoMode = false
			checker := &fakeIdleChecker{duration: tt.idle}
			sender := &fakeSender{}
			m := newTestMonitor(settings, checker, sender)
			m.status = tt.status

			m.tick(time.Now())

			assert.Equal(t, tt.status, m.Status())
			assert.Empty(t, sender.events())
		})
	}
}

func TestSamplerErrorSkipsTick(t *testing.T) {
	checker := &fakeIdleChecker{err: ErrIdleUnsupported}
	sender := &fakeSender{}
	m := newTestMonitor(testSettings(), checker, sender)
	m.status = StatusCheckedIn

	m.tick(time.Now())

	assert.Equal(t, StatusCheckedIn, m.Status())
	assert.Empty(t, sender.events())
}

func TestManualCheckoutIsSticky(t *testing.T) {
	checker := &fakeIdleChecker{duration: 5 * time.Second}
	sender := &fakeSender{}
	m := newTestMonitor(testSettings(), checker, sender)
	m.status = StatusCheckedIn

	require.NoError(t, m.SendAttendanceEvent(AttendanceCheckOut))
	assert.Equal(t, StatusCheckedOut, m.Status())

	// Any run of active ticks must not check the user back in.
	for i := 0; i < 10; i++ {
		m.tick(time.Now())
	}
	assert.Equal(t, StatusCheckedOut, m.Status())
	assert.Len(t, sender.events(), 1)

	require.NoError(t, m.SendAttendanceEvent(AttendanceCheckIn))
	assert.Equal(t, StatusCheckedIn, m.Status())
	assert.False(t, m.manualCheckout)
}

func TestAutomaticCheckoutDoesNotSetOverride(t *testing.T) {
	checker := &fakeIdleChecker{duration: time.Hour}
	sender := &fakeSender{}
	m := newTestMonitor(testSettings(), checker, sender)
	m.status = StatusCheckedIn

	m.tick(time.Now())
	require.Equal(t, StatusCheckedOut, m.Status())
	assert.False(t, m.manualCheckout)

	// The next active tick may check the user straight back in.
	checker.duration = 0
	m.tick(time.Now())
	assert.Equal(t, StatusCheckedIn, m.Status())
}

func TestDispatchFailureKeepsLocalState(t *testing.T) {
	checker := &fakeIdleChecker{duration: time.Hour}
	sender := &fakeSender{err: errors.New("api request failed with status 500")}
	m := newTestMonitor(testSettings(), checker, sender)
	m.status = StatusCheckedIn
	observer := m.Subscribe(5)

	m.tick(time.Now())

	assert.Equal(t, StatusCheckedOut, m.Status())
	events := drainEvents(observer)
	require.Len(t, events, 1)
	assert.Equal(t, EventAttendanceChanged, events[0].Type)

	// The loop keeps running after the failure.
	checker.duration = 0
	m.tick(time.Now())
	assert.Equal(t, StatusCheckedIn, m.Status())
}

func TestManualDispatchFailurePropagates(t *testing.T) {
	checker := &fakeIdleChecker{}
	sender := &fakeSender{err: errors.New("connection refused")}
	m := newTestMonitor(testSettings(), checker, sender)
	observer := m.Subscribe(5)

	err := m.SendAttendanceEvent(AttendanceCheckIn)

	assert.Error(t, err)
	assert.Equal(t, StatusCheckedIn, m.Status())

	events := drainEvents(observer)
	require.Len(t, events, 1)
	assert.Equal(t, EventAttendanceChanged, events[0].Type)
}

func TestUnknownAttendanceEventRejected(t *testing.T) {
	sender := &fakeSender{}
	m := newTestMonitor(testSettings(), &fakeIdleChecker{}, sender)

	err := m.SendAttendanceEvent(AttendanceEvent("lunch"))

	assert.Error(t, err)
	assert.Equal(t, StatusCheckedOut, m.Status())
	assert.Empty(t, sender.events())
}

func TestActivityHeartbeat(t *testing.T) {
	checker := &fakeIdleChecker{duration: time.Second}
	sender := &fakeSender{}
	m := newTestMonitor(testSettings(), checker, sender)
	m.status = StatusCheckedIn
	observer := m.Subscribe(5)

	now := time.Now()
	m.lastActivity = now.Add(-61 * time.Second)
	m.tick(now)

	events := drainEvents(observer)
	require.Len(t, events, 1)
	assert.Equal(t, EventActivityUpdate, events[0].Type)

	// The timestamp was just overwritten, so the next tick stays quiet.
	m.tick(now.Add(time.Second))
	assert.Empty(t, drainEvents(observer))
}

func TestSaveSettingsReplacesWholeSnapshot(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeStore{}
	m := newTestMonitor(testSettings(), &fakeIdleChecker{}, sender)
	m.SetStore(store)

	updated := testSettings()
	updated.IdleTimeoutMins = 25
	updated.DeveloperMode = true

	require.NoError(t, m.SaveSettings(updated))
	assert.Equal(t, updated, m.Settings())
	require.Len(t, store.saved, 1)
	assert.Equal(t, updated, store.saved[0])
}

func TestSaveSettingsPersistFailureKeepsValue(t *testing.T) {
	sender := &fakeSender{}
	store := &fakeStore{err: errors.New("disk full")}
	m := newTestMonitor(testSettings(), &fakeIdleChecker{}, sender)
	m.SetStore(store)

	updated := testSettings()
	updated.AutoMode = false

	err := m.SaveSettings(updated)

	assert.Error(t, err)
	assert.Equal(t, updated, m.Settings())
}

func TestStartStop(t *testing.T) {
	sender := &fakeSender{}
	m := New(testSettings(), sender, Config{TickInterval: time.Hour})
	m.SetIdleChecker(&fakeIdleChecker{})
	observer := m.Subscribe(1)

	m.Start()
	m.Stop()

	// Observer channels close on Stop.
	_, open := <-observer
	assert.False(t, open)
}
