package fiscal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeShiftDevice устройство в памяти с журналом команд
type fakeShiftDevice struct {
	mu    sync.Mutex
	state State
	calls []string

	openNoop  bool // OpenDay отвечает успехом, но смену не открывает
	closeNoop bool // CloseDay отвечает успехом, но смену не закрывает
	getErr    error
}

func (f *fakeShiftDevice) GetState(ctx context.Context) (*State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "getState")
	if f.getErr != nil {
		return nil, f.getErr
	}
	s := f.state
	return &s, nil
}

func (f *fakeShiftDevice) OpenDay(ctx context.Context, cashier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "openDay")
	if !f.openNoop && f.state.DayState != DayOpen {
		f.state.DayState = DayOpen
		f.state.IsShiftExpired = false
		f.state.ShiftNumber++
	}
	return nil
}

func (f *fakeShiftDevice) CloseDay(ctx context.Context, cashier string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "closeDay")
	if !f.closeNoop {
		f.state.DayState = DayClosed
		f.state.IsShiftExpired = false
	}
	return nil
}

func (f *fakeShiftDevice) snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeShiftDevice) takeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls
	f.calls = nil
	return calls
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestController(dev ShiftDevice, clock *testClock) *ShiftController {
	return NewShiftController(dev, ShiftConfig{Cashier: "Киоск", Now: clock.Now})
}

func TestEnsureShift(t *testing.T) {
	tests := []struct {
		name      string
		state     State
		openNoop  bool
		closeNoop bool
		wantCalls []string
		wantErr   string
		wantOpen  bool
	}{
		{
			name:      "closed shift is opened",
			state:     State{DayState: DayClosed},
			wantCalls: []string{"openDay", "getState"},
			wantOpen:  true,
		},
		{
			name:      "expired shift is reopened",
			state:     State{DayState: DayOpen, IsShiftExpired: true, ShiftNumber: 7},
			wantCalls: []string{"closeDay", "openDay", "getState"},
			wantOpen:  true,
		},
		{
			name:     "open shift is left alone",
			state:    State{DayState: DayOpen, ShiftNumber: 7},
			wantOpen: true,
		},
		{
			name:      "open that does not take effect",
			state:     State{DayState: DayClosed},
			openNoop:  true,
			wantCalls: []string{"openDay", "getState"},
			wantErr:   "failed to open shift",
		},
		{
			name:      "reopen that leaves the shift expired",
			state:     State{DayState: DayOpen, IsShiftExpired: true},
			closeNoop: true,
			wantCalls: []string{"closeDay", "openDay", "getState"},
			wantErr:   "failed to reopen shift",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &fakeShiftDevice{state: tt.state, openNoop: tt.openNoop, closeNoop: tt.closeNoop}
			ctrl := newTestController(dev, newTestClock())

			snapshot := tt.state
			err := ctrl.Ensure(context.Background(), &snapshot)
			assert.Equal(t, tt.wantCalls, dev.takeCalls())

			if tt.wantErr != "" {
				fe, ok := AsError(err)
				require.True(t, ok)
				assert.Equal(t, StatusFiscalCoreError, fe.Status)
				assert.Equal(t, tt.wantErr, fe.Message)
				assert.True(t, ctrl.LastCheck().IsZero(), "failed check must not start cooldown")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOpen, dev.snapshot().ShiftOpen())
			assert.False(t, ctrl.LastCheck().IsZero())
		})
	}
}

func TestEnsureShiftCooldown(t *testing.T) {
	clock := newTestClock()
	dev := &fakeShiftDevice{state: State{DayState: DayOpen}}
	ctrl := newTestController(dev, clock)

	require.NoError(t, ctrl.Ensure(context.Background(), &State{DayState: DayOpen}))
	checked := ctrl.LastCheck()

	// Даже снимок с закрытой сменой не вызывает команд в пределах 20 часов
	clock.Advance(19 * time.Hour)
	require.NoError(t, ctrl.Ensure(context.Background(), &State{DayState: DayClosed}))
	assert.Empty(t, dev.takeCalls())
	assert.Equal(t, checked, ctrl.LastCheck())

	clock.Advance(2 * time.Hour)
	require.NoError(t, ctrl.Ensure(context.Background(), &State{DayState: DayOpen, IsShiftExpired: true}))
	assert.Equal(t, []string{"closeDay", "openDay", "getState"}, dev.takeCalls())
	assert.Equal(t, clock.Now(), ctrl.LastCheck())
}

func TestEnsureShiftFetchesStateWhenNil(t *testing.T) {
	dev := &fakeShiftDevice{state: State{DayState: DayClosed}}
	ctrl := newTestController(dev, newTestClock())

	require.NoError(t, ctrl.Ensure(context.Background(), nil))
	assert.Equal(t, []string{"getState", "openDay", "getState"}, dev.takeCalls())
}

func TestCheckSkipsDeviceDuringCooldown(t *testing.T) {
	clock := newTestClock()
	dev := &fakeShiftDevice{state: State{DayState: DayOpen}}
	ctrl := newTestController(dev, clock)

	require.NoError(t, ctrl.Check(context.Background()))
	assert.Equal(t, []string{"getState"}, dev.takeCalls())

	require.NoError(t, ctrl.Check(context.Background()))
	assert.Empty(t, dev.takeCalls())

	ctrl.Reset()
	require.NoError(t, ctrl.Check(context.Background()))
	assert.Equal(t, []string{"getState"}, dev.takeCalls())
}

func TestCheckPropagatesStateError(t *testing.T) {
	dev := &fakeShiftDevice{getErr: NewError(StatusInternalServiceError, "down")}
	ctrl := newTestController(dev, newTestClock())

	err := ctrl.Check(context.Background())
	assert.True(t, errors.Is(err, &Error{Status: StatusInternalServiceError}))
	assert.True(t, ctrl.LastCheck().IsZero())
}

func TestControllersDoNotShareState(t *testing.T) {
	clock := newTestClock()
	a := newTestController(&fakeShiftDevice{state: State{DayState: DayOpen}}, clock)
	b := newTestController(&fakeShiftDevice{state: State{DayState: DayOpen}}, clock)

	require.NoError(t, a.Check(context.Background()))
	assert.False(t, a.LastCheck().IsZero())
	assert.True(t, b.LastCheck().IsZero())
}

func TestShiftKeeperStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dev := &fakeShiftDevice{state: State{DayState: DayClosed}}
	ctrl := NewShiftController(dev, ShiftConfig{Interval: 10 * time.Millisecond, Cooldown: time.Nanosecond})

	h := ctrl.Start(context.Background())
	require.Eventually(t, func() bool {
		return dev.snapshot().ShiftOpen()
	}, time.Second, 5*time.Millisecond)

	ctrl.Stop(h)
	ctrl.Stop(h)
	ctrl.Stop(nil)
}

func TestShiftKeeperSwallowsErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dev := &fakeShiftDevice{getErr: errors.New("connection refused")}
	ctrl := NewShiftController(dev, ShiftConfig{Interval: 5 * time.Millisecond})

	h := ctrl.Start(context.Background())
	require.Eventually(t, func() bool {
		dev.mu.Lock()
		defer dev.mu.Unlock()
		return len(dev.calls) >= 2
	}, time.Second, 5*time.Millisecond)
	ctrl.Stop(h)
}

func TestLastStateFollowsChecks(t *testing.T) {
	clock := newTestClock()
	dev := &fakeShiftDevice{state: State{DayState: DayClosed, ShiftNumber: 4}}
	ctrl := newTestController(dev, clock)

	_, ok := ctrl.LastState()
	assert.False(t, ok)

	require.NoError(t, ctrl.Check(context.Background()))
	st, ok := ctrl.LastState()
	require.True(t, ok)
	assert.True(t, st.ShiftOpen())
	assert.Equal(t, 5, st.ShiftNumber)
	dev.takeCalls()

	// в период охлаждения снимок отдаётся без обращения к устройству
	clock.Advance(time.Hour)
	require.NoError(t, ctrl.Check(context.Background()))
	st, ok = ctrl.LastState()
	require.True(t, ok)
	assert.Equal(t, 5, st.ShiftNumber)
	assert.Empty(t, dev.takeCalls())
}

func TestStartEveryUsesCustomTick(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctrl := NewShiftController(&fakeShiftDevice{}, ShiftConfig{})

	var (
		mu    sync.Mutex
		ticks int
	)
	h := ctrl.StartEvery(context.Background(), 5*time.Millisecond, func(context.Context) {
		mu.Lock()
		defer mu.Unlock()
		ticks++
	})
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ticks >= 3
	}, time.Second, 5*time.Millisecond)
	ctrl.Stop(h)
}
