package server

import (
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidSecret is returned by Acquire when the API secret does not match.
	ErrInvalidSecret = errors.New("invalid API secret")
	// ErrClaimed is returned by Acquire while another client holds the bridge.
	ErrClaimed = errors.New("bridge already claimed by another client")
)

// Claim identifies the client currently holding the bridge.
type Claim struct {
	ID         string
	Origin     string
	RemoteAddr string
}

// ClaimManager grants the bridge to one client at a time
// (first come, first served) and checks the optional API secret.
type ClaimManager struct {
	apiSecret string
	current   *Claim
	mu        sync.Mutex
}

// NewClaimManager creates a claim manager. An empty apiSecret disables the check.
func NewClaimManager(apiSecret string) *ClaimManager {
	return &ClaimManager{apiSecret: apiSecret}
}

// Acquire claims the bridge for a new client.
func (m *ClaimManager) Acquire(secret, origin, remoteAddr string) (Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.apiSecret != "" && subtle.ConstantTimeCompare([]byte(secret), []byte(m.apiSecret)) != 1 {
		return Claim{}, ErrInvalidSecret
	}

	if m.current != nil {
		return Claim{}, ErrClaimed
	}

	c := Claim{ID: uuid.NewString(), Origin: origin, RemoteAddr: remoteAddr}
	m.current = &c

	log.WithFields(log.Fields{
		"client": c.ID[:8],
		"origin": origin,
		"ip":     remoteAddr,
	}).Info("Bridge claimed")
	return c, nil
}

// Release frees the bridge if id still holds it.
func (m *ClaimManager) Release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil && m.current.ID == id {
		log.WithField("client", id[:8]).Info("Bridge released")
		m.current = nil
	}
}

// Current returns the active claim, if any.
func (m *ClaimManager) Current() (Claim, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return Claim{}, false
	}
	return *m.current, true
}
