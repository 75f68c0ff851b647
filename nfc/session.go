package nfc

import (
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Session defaults.
const (
	DefaultPollInterval   = 250 * time.Millisecond
	DefaultSessionTimeout = 60 * time.Second
)

// SessionDelegate receives the callbacks of a ReaderSession. All callbacks run
// on the session's own goroutine, never on the goroutine that called Begin.
type SessionDelegate interface {
	// DidBecomeActive is called once the reader is open and polling has started.
	DidBecomeActive(s *ReaderSession)
	// DidDetect is called for every poll that found at least one target.
	DidDetect(s *ReaderSession, targets []Target)
	// DidInvalidate is called exactly once when the session ends. err is
	// always a *SessionError.
	DidInvalidate(s *ReaderSession, err error)
}

// SessionOptions configures a ReaderSession.
type SessionOptions struct {
	// DevicePath selects the reader; empty means the driver's default.
	DevicePath string
	// Polling selects the technologies to poll for. Zero means PollISO14443.
	Polling PollingOption
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// Timeout defaults to DefaultSessionTimeout. Negative disables it.
	Timeout time.Duration
}

type sessionState int

const (
	sessionCreated sessionState = iota
	sessionActive
	sessionInvalidated
)

// ReaderSession is one polling cycle on an NFC reader: it opens the device,
// polls until the delegate invalidates it, the timeout fires or the reader
// fails, then closes the device and reports why it ended.
//
// Example:
//
//	s := nfc.NewReaderSession(manager, delegate, nfc.SessionOptions{Polling: nfc.PollISO14443})
//	s.SetAlertMessage("Hold your tag near the reader")
//	s.Begin()
//	...
//	s.Invalidate()
//	<-s.Done()
type ReaderSession struct {
	id       string
	manager  Manager
	delegate SessionDelegate
	opts     SessionOptions
	log      *log.Entry

	mu           sync.Mutex
	alertMessage string
	state        sessionState

	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewReaderSession creates a session. Nothing happens until Begin is called.
func NewReaderSession(manager Manager, delegate SessionDelegate, opts SessionOptions) *ReaderSession {
	if opts.Polling == 0 {
		opts.Polling = PollISO14443
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultSessionTimeout
	}

	id := uuid.NewString()
	return &ReaderSession{
		id:       id,
		manager:  manager,
		delegate: delegate,
		opts:     opts,
		log:      log.WithFields(log.Fields{"component": "session", "session": id[:8]}),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// ID returns the unique identifier of the session.
func (s *ReaderSession) ID() string {
	return s.id
}

// SetAlertMessage sets the prompt shown to the user while the session polls.
func (s *ReaderSession) SetAlertMessage(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alertMessage = msg
}

// AlertMessage returns the current prompt.
func (s *ReaderSession) AlertMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alertMessage
}

// IsActive reports whether the session is polling.
func (s *ReaderSession) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == sessionActive
}

// Begin starts polling on a new goroutine. Calling it twice has no effect.
func (s *ReaderSession) Begin() {
	s.mu.Lock()
	if s.state != sessionCreated {
		s.mu.Unlock()
		return
	}
	s.state = sessionActive
	s.mu.Unlock()

	go s.run()
}

// Invalidate asks the session to stop. It does not wait; use Done for that.
// It is safe to call from a delegate callback and more than once.
func (s *ReaderSession) Invalidate() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Done is closed after the device is closed and DidInvalidate has returned.
func (s *ReaderSession) Done() <-chan struct{} {
	return s.done
}

func (s *ReaderSession) run() {
	defer close(s.done)

	err := s.poll()

	s.mu.Lock()
	s.state = sessionInvalidated
	s.mu.Unlock()

	s.log.WithError(err).Debug("Session invalidated")
	s.delegate.DidInvalidate(s, err)
}

func (s *ReaderSession) stopped() bool {
	select {
	case <-s.stopChan:
		return true
	default:
		return false
	}
}

// poll owns the device for the lifetime of the session and returns the
// invalidation reason.
func (s *ReaderSession) poll() *SessionError {
	if s.stopped() {
		return wrapSessionError(ErrSessionInvalidated, "", nil)
	}

	dev, err := s.manager.OpenDevice(s.opts.DevicePath)
	if err != nil {
		return wrapSessionError(ErrReaderUnavailable, "OpenDevice", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			s.log.WithError(err).Warn("Error closing NFC device")
		}
	}()

	if err := dev.InitiatorInit(); err != nil {
		return wrapSessionError(ErrReaderUnavailable, "InitiatorInit", err)
	}

	s.log.WithFields(log.Fields{
		"device":  dev.String(),
		"conn":    dev.Connection(),
		"polling": s.opts.Polling.String(),
		"prompt":  s.AlertMessage(),
	}).Info("Reader session active")
	s.delegate.DidBecomeActive(s)

	var timeout <-chan time.Time
	if s.opts.Timeout > 0 {
		timer := time.NewTimer(s.opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return wrapSessionError(ErrSessionInvalidated, "", nil)

		case <-timeout:
			return wrapSessionError(ErrSessionTimeout, "", nil)

		case <-ticker.C:
			// A tick and a stop can be ready together; stop wins.
			if s.stopped() {
				return wrapSessionError(ErrSessionInvalidated, "", nil)
			}

			targets, err := dev.Poll(s.opts.Polling)
			if err != nil {
				if IsTransientPollError(err) {
					s.log.WithError(err).Debug("Transient poll error")
					continue
				}
				return wrapSessionError(ErrReaderFailure, "Poll", err)
			}
			if len(targets) > 0 {
				s.delegate.DidDetect(s, targets)
			}
		}
	}
}
