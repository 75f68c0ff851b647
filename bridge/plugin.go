// Package bridge exposes an NFC reader through a small method-call contract:
// NfcRead, NfcStop, NfcWrite and NfcAvailable, plus a push channel of tag events.
//
// A Plugin owns at most one nfc.ReaderSession. NfcRead starts it and waits for
// the first tag; the session's callbacks resolve the read and publish the same
// record on the EventChannel.
package bridge

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dotside-studios/nfc-reader-bridge/nfc"
)

// ErrBusy is returned by Read while another read is waiting for a tag.
var ErrBusy = errors.New("an NFC read is already in progress")

// Availability replies of NfcAvailable.
const (
	AvailabilityAvailable    = "available"
	AvailabilityNotSupported = "not_supported"
)

// Config holds the plugin configuration.
type Config struct {
	Manager    nfc.Manager
	DevicePath string
	// Polling defaults to nfc.PollISO14443.
	Polling        nfc.PollingOption
	SessionTimeout time.Duration
	PollInterval   time.Duration
	// Platform defaults to HostPlatform.
	Platform Platform
	Metrics  *Metrics
}

// Snapshot is a point-in-time view of the plugin used by status displays.
type Snapshot struct {
	Active    bool
	Prompt    string
	LastID    string
	Listening bool
}

// Plugin implements the reader bridge. It is safe for concurrent use; all
// session callbacks arrive on the session goroutine and synchronize through mu.
type Plugin struct {
	cfg    Config
	events *EventChannel
	log    *log.Entry

	mu          sync.Mutex
	session     *nfc.ReaderSession
	pendingRead chan Result
	lastID      string
	notifiers   []Notifier
}

// New creates a Plugin.
func New(cfg Config) *Plugin {
	if cfg.Polling == 0 {
		cfg.Polling = nfc.PollISO14443
	}
	if cfg.Platform == nil {
		cfg.Platform = HostPlatform{}
	}
	return &Plugin{
		cfg:    cfg,
		events: NewEventChannel(cfg.Metrics),
		log:    log.WithField("component", "bridge"),
	}
}

// Events returns the event channel tag records are published on.
func (p *Plugin) Events() *EventChannel {
	return p.events
}

// AddNotifier registers a receiver for user-facing notices.
func (p *Plugin) AddNotifier(n Notifier) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifiers = append(p.notifiers, n)
}

// Snapshot returns the current session state.
func (p *Plugin) Snapshot() Snapshot {
	p.mu.Lock()
	s := p.session
	snap := Snapshot{LastID: p.lastID}
	p.mu.Unlock()

	if s != nil {
		snap.Active = s.IsActive()
		snap.Prompt = s.AlertMessage()
	}
	snap.Listening = p.events.Active()
	return snap
}

// Read starts a reader session showing instruction and blocks until the first
// MIFARE tag is read, the session fails, or ctx is done. Session failures are
// not Go errors: they resolve as a Result with StatusError. The returned error
// is ErrBusy or ctx.Err().
func (p *Plugin) Read(ctx context.Context, instruction string) (Result, error) {
	p.mu.Lock()
	if p.pendingRead != nil {
		p.mu.Unlock()
		p.cfg.Metrics.busyRejected()
		p.log.Warn("NfcRead rejected: a read is already in progress")
		return Result{}, ErrBusy
	}

	session := nfc.NewReaderSession(p.cfg.Manager, p, nfc.SessionOptions{
		DevicePath:   p.cfg.DevicePath,
		Polling:      p.cfg.Polling,
		PollInterval: p.cfg.PollInterval,
		Timeout:      p.cfg.SessionTimeout,
	})
	session.SetAlertMessage(instruction)

	prev := p.session
	reply := make(chan Result, 1)
	p.session = session
	p.pendingRead = reply
	p.mu.Unlock()

	// A previous session may still be tearing down after a successful read;
	// it must release the reader before the new one opens it.
	if prev != nil {
		prev.Invalidate()
		select {
		case <-prev.Done():
		case <-ctx.Done():
			session.Invalidate()
		}
	}

	p.cfg.Metrics.sessionStarted()
	p.log.WithFields(log.Fields{"session": session.ID()[:8], "instruction": instruction}).Info("Starting NFC read")
	session.Begin()

	select {
	case r := <-reply:
		return r, nil
	case <-ctx.Done():
		p.mu.Lock()
		// Whoever took pendingRead is about to send on it.
		taken := p.pendingRead != reply
		if !taken {
			p.pendingRead = nil
		}
		p.mu.Unlock()
		session.Invalidate()

		if taken {
			return <-reply, nil
		}
		return Result{}, ctx.Err()
	}
}

// Stop invalidates the active session, waits for it to finish (bounded by
// ctx) and replies with StoppedResult. A pending Read is resolved with the
// session's invalidation error before Stop returns.
func (p *Plugin) Stop(ctx context.Context) Result {
	p.mu.Lock()
	s := p.session
	p.mu.Unlock()

	if s != nil {
		s.Invalidate()
		select {
		case <-s.Done():
			p.teardown(s)
		case <-ctx.Done():
			p.log.WithError(ctx.Err()).Warn("Gave up waiting for the reader session to stop")
			p.abandonRead(s)
		}
	}

	return StoppedResult()
}

// abandonRead resolves the read pending on s without waiting for s to end.
// s stays the active session so the next Read still waits for it to release
// the reader.
func (p *Plugin) abandonRead(s *nfc.ReaderSession) {
	p.mu.Lock()
	var reply chan Result
	if p.session == s {
		reply = p.pendingRead
		p.pendingRead = nil
	}
	p.mu.Unlock()

	if reply != nil {
		p.cfg.Metrics.sessionError(strconv.Itoa(int(nfc.ErrCodeSessionInvalidated)))
		reply <- ErrorResult(nfc.ErrSessionInvalidated)
	}
}

// Write never writes. It shows WriteUnsupportedMessage on every notifier.
func (p *Plugin) Write(ctx context.Context, args map[string]string) {
	p.mu.Lock()
	notifiers := append([]Notifier(nil), p.notifiers...)
	p.mu.Unlock()

	p.log.WithField("args", len(args)).Info("NfcWrite requested; tag writing is not supported")
	notice := Notice{Title: "NFC", Message: WriteUnsupportedMessage}
	for _, n := range notifiers {
		n.Notify(notice)
	}
}

// Available reports whether at least one NFC reader is attached.
func (p *Plugin) Available() string {
	devices, err := p.cfg.Manager.ListDevices()
	if err != nil {
		p.log.WithError(err).Debug("Listing NFC devices failed")
		return AvailabilityNotSupported
	}
	if len(devices) == 0 {
		return AvailabilityNotSupported
	}
	return AvailabilityAvailable
}

// PlatformDescription returns "<OS name> <OS version>".
func (p *Plugin) PlatformDescription() string {
	return describePlatform(p.cfg.Platform)
}

// teardown forgets s if it is still the active session.
func (p *Plugin) teardown(s *nfc.ReaderSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == s {
		p.session = nil
	}
}

// DidBecomeActive implements nfc.SessionDelegate.
func (p *Plugin) DidBecomeActive(s *nfc.ReaderSession) {
	p.log.WithField("session", s.ID()[:8]).Debug("Reader session became active")
}

// DidDetect implements nfc.SessionDelegate. Only the first target of a batch
// is considered, and only MIFARE family tags are read; anything else is
// ignored and the session keeps polling.
func (p *Plugin) DidDetect(s *nfc.ReaderSession, targets []nfc.Target) {
	target := targets[0]
	if target.Family != nfc.FamilyMiFare {
		p.log.WithFields(log.Fields{"family": target.Family, "type": target.Type}).Debug("Ignoring non-MIFARE tag")
		return
	}

	p.mu.Lock()
	if s != p.session {
		p.mu.Unlock()
		s.Invalidate()
		return
	}
	reply := p.pendingRead
	p.pendingRead = nil
	result := ReadingResult(target.ID())
	p.lastID = result.ID
	p.mu.Unlock()

	p.cfg.Metrics.tagRead()
	p.log.WithFields(log.Fields{"id": result.ID, "type": target.Type}).Info("Tag read")

	p.events.Publish(result)
	if reply != nil {
		reply <- result
	}
	s.Invalidate()
}

// DidInvalidate implements nfc.SessionDelegate. A pending read is resolved
// with the error message, then the session is forgotten.
func (p *Plugin) DidInvalidate(s *nfc.ReaderSession, err error) {
	p.mu.Lock()
	var reply chan Result
	if s == p.session {
		reply = p.pendingRead
		p.pendingRead = nil
		p.session = nil
	}
	p.mu.Unlock()

	if reply == nil {
		return
	}

	p.cfg.Metrics.sessionError(strconv.Itoa(int(nfc.GetErrorCode(err))))
	p.log.WithError(err).Info("NFC read ended without a tag")
	reply <- ErrorResult(err)
}
