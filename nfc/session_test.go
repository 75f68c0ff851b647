package nfc

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingDelegate records callbacks and optionally invalidates on detection.
type recordingDelegate struct {
	mu                 sync.Mutex
	active             int
	detected           [][]Target
	invalidateOnDetect bool

	invalidated chan error
}

func newRecordingDelegate(invalidateOnDetect bool) *recordingDelegate {
	return &recordingDelegate{
		invalidateOnDetect: invalidateOnDetect,
		invalidated:        make(chan error, 1),
	}
}

func (d *recordingDelegate) DidBecomeActive(s *ReaderSession) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active++
}

func (d *recordingDelegate) DidDetect(s *ReaderSession, targets []Target) {
	d.mu.Lock()
	d.detected = append(d.detected, targets)
	d.mu.Unlock()

	if d.invalidateOnDetect {
		s.Invalidate()
	}
}

func (d *recordingDelegate) DidInvalidate(s *ReaderSession, err error) {
	d.invalidated <- err
}

func (d *recordingDelegate) activeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

func (d *recordingDelegate) detections() [][]Target {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]Target(nil), d.detected...)
}

func waitInvalidated(t *testing.T, d *recordingDelegate) error {
	t.Helper()
	select {
	case err := <-d.invalidated:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("session was not invalidated")
		return nil
	}
}

func fastOptions() SessionOptions {
	return SessionOptions{PollInterval: 5 * time.Millisecond, Timeout: time.Second}
}

func TestReaderSessionDetectsAndInvalidates(t *testing.T) {
	manager := NewMockManager()
	target := Target{Identifier: []byte{0x04, 0x9A, 0x2B}, Family: FamilyMiFare, Type: CardTypeMifareClassic1K}
	manager.MockDevice.SetTargets([]Target{target})

	delegate := newRecordingDelegate(true)
	s := NewReaderSession(manager, delegate, fastOptions())
	s.SetAlertMessage("Hold your tag near the reader")
	s.Begin()

	err := waitInvalidated(t, delegate)
	assert.ErrorIs(t, err, ErrSessionInvalidated)
	assert.Equal(t, "Session invalidated by user", err.Error())

	<-s.Done()
	assert.Equal(t, 1, delegate.activeCount())
	require.Len(t, delegate.detections(), 1)
	assert.Equal(t, []Target{target}, delegate.detections()[0])
	assert.False(t, manager.MockDevice.Open(), "device must be closed after the session ends")
	assert.False(t, s.IsActive())
	assert.Equal(t, "Hold your tag near the reader", s.AlertMessage())
}

func TestReaderSessionOpenFailure(t *testing.T) {
	manager := NewMockManager()
	manager.SetOpenDeviceError(errors.New("no reader"))

	delegate := newRecordingDelegate(false)
	s := NewReaderSession(manager, delegate, fastOptions())
	s.Begin()

	err := waitInvalidated(t, delegate)
	assert.ErrorIs(t, err, ErrReaderUnavailable)
	assert.Contains(t, err.Error(), "no reader")
	assert.Equal(t, 0, delegate.activeCount())
}

func TestReaderSessionInitFailure(t *testing.T) {
	manager := NewMockManager()
	manager.MockDevice.SetInitError(errors.New("firmware mismatch"))

	delegate := newRecordingDelegate(false)
	s := NewReaderSession(manager, delegate, fastOptions())
	s.Begin()

	err := waitInvalidated(t, delegate)
	assert.ErrorIs(t, err, ErrReaderUnavailable)
	<-s.Done()
	assert.False(t, manager.MockDevice.Open())
}

func TestReaderSessionTimeout(t *testing.T) {
	manager := NewMockManager()

	delegate := newRecordingDelegate(false)
	s := NewReaderSession(manager, delegate, SessionOptions{PollInterval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond})
	s.Begin()

	err := waitInvalidated(t, delegate)
	assert.ErrorIs(t, err, ErrSessionTimeout)
	assert.Equal(t, "Session timeout", err.Error())
	assert.Empty(t, delegate.detections())
}

func TestReaderSessionPollFailure(t *testing.T) {
	manager := NewMockManager()
	manager.MockDevice.SetPollError(errors.New("RF field lost"))

	delegate := newRecordingDelegate(false)
	s := NewReaderSession(manager, delegate, fastOptions())
	s.Begin()

	err := waitInvalidated(t, delegate)
	assert.ErrorIs(t, err, ErrReaderFailure)
	assert.Contains(t, err.Error(), "RF field lost")
}

func TestReaderSessionSkipsTransientPollErrors(t *testing.T) {
	manager := NewMockManager()
	target := Target{Identifier: []byte{0x04, 0x11}, Family: FamilyMiFare, Type: CardTypeMifareUltralight}

	var mu sync.Mutex
	polls := 0
	manager.MockDevice.PollFunc = func(PollingOption) ([]Target, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		switch polls {
		case 1:
			return nil, ErrTimeout
		case 2:
			return nil, NewCardRemovedError(errors.New("card reset"))
		}
		return []Target{target}, nil
	}

	delegate := newRecordingDelegate(true)
	s := NewReaderSession(manager, delegate, fastOptions())
	s.Begin()

	err := waitInvalidated(t, delegate)
	assert.ErrorIs(t, err, ErrSessionInvalidated)
	require.Len(t, delegate.detections(), 1)
	assert.Equal(t, []Target{target}, delegate.detections()[0])
}

func TestReaderSessionInvalidateBeforeBegin(t *testing.T) {
	manager := NewMockManager()

	delegate := newRecordingDelegate(false)
	s := NewReaderSession(manager, delegate, fastOptions())
	s.Invalidate()
	s.Invalidate()
	s.Begin()

	err := waitInvalidated(t, delegate)
	assert.ErrorIs(t, err, ErrSessionInvalidated)
	assert.Empty(t, manager.GetCallLog(), "device must not be opened")
}

func TestReaderSessionExternalInvalidate(t *testing.T) {
	manager := NewMockManager()

	delegate := newRecordingDelegate(false)
	s := NewReaderSession(manager, delegate, SessionOptions{PollInterval: 5 * time.Millisecond, Timeout: -1})
	s.Begin()
	s.Begin()

	require.Eventually(t, func() bool { return delegate.activeCount() == 1 }, time.Second, 5*time.Millisecond)
	s.Invalidate()

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done was not closed")
	}
	assert.ErrorIs(t, <-delegate.invalidated, ErrSessionInvalidated)
	assert.Equal(t, 1, delegate.activeCount())
}

func TestNewReaderSessionDefaults(t *testing.T) {
	s := NewReaderSession(NewMockManager(), newRecordingDelegate(false), SessionOptions{})
	assert.Equal(t, PollISO14443, s.opts.Polling)
	assert.Equal(t, DefaultPollInterval, s.opts.PollInterval)
	assert.Equal(t, DefaultSessionTimeout, s.opts.Timeout)
	assert.NotEmpty(t, s.ID())
}
