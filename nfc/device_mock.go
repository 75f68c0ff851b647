package nfc

import (
	"fmt"
	"sync"
)

// MockDevice is a test implementation of Device that simulates NFC hardware.
//
// MockDevice allows testing NFC functionality without physical hardware by
// simulating device behavior, connection states and tags in the field.
//
// Example:
//
//	mock := NewMockDevice()
//	mock.SetTargets([]Target{{Identifier: []byte{0x04, 0x9a}, Family: FamilyMiFare}})
type MockDevice struct {
	// DeviceName is the simulated device name returned by String()
	DeviceName string

	// DeviceConnection is the simulated connection string returned by Connection()
	DeviceConnection string

	// IsOpen tracks whether the device is currently open
	IsOpen bool

	// InitError, if set, will be returned by InitiatorInit()
	InitError error

	// CloseError, if set, will be returned by Close()
	CloseError error

	// PollFunc allows custom Poll behavior for testing
	// If nil, returns Targets or PollError
	PollFunc func(PollingOption) ([]Target, error)

	// Targets is the list of targets returned by Poll()
	Targets []Target

	// PollError, if set, will be returned by Poll()
	PollError error

	// CallLog tracks all method calls for verification in tests
	CallLog []string

	mu sync.Mutex
}

// NewMockDevice creates a new MockDevice with default values.
func NewMockDevice() *MockDevice {
	return &MockDevice{
		DeviceName:       "Mock NFC Reader",
		DeviceConnection: "mock:usb:001",
		IsOpen:           true,
		CallLog:          make([]string, 0),
	}
}

func (m *MockDevice) reopen(conn string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if conn != "" {
		m.DeviceConnection = conn
	}
	m.IsOpen = true
}

// Close simulates closing the device.
func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "Close")

	if !m.IsOpen {
		return fmt.Errorf("device already closed")
	}

	m.IsOpen = false
	return m.CloseError
}

// InitiatorInit simulates device initialization.
func (m *MockDevice) InitiatorInit() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = append(m.CallLog, "InitiatorInit")

	if !m.IsOpen {
		return fmt.Errorf("device not open")
	}

	return m.InitError
}

// String returns the simulated device name.
func (m *MockDevice) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DeviceName
}

// Connection returns the simulated connection string.
func (m *MockDevice) Connection() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DeviceConnection
}

// Poll simulates polling the field.
func (m *MockDevice) Poll(opts PollingOption) ([]Target, error) {
	m.mu.Lock()
	m.CallLog = append(m.CallLog, fmt.Sprintf("Poll(%s)", opts))

	if !m.IsOpen {
		m.mu.Unlock()
		return nil, fmt.Errorf("device not open")
	}

	if fn := m.PollFunc; fn != nil {
		m.mu.Unlock()
		return fn(opts)
	}
	defer m.mu.Unlock()

	if m.PollError != nil {
		return nil, m.PollError
	}

	// Return a copy to prevent external modification
	targetsCopy := make([]Target, len(m.Targets))
	copy(targetsCopy, m.Targets)
	return targetsCopy, nil
}

// SetTargets sets the targets that will be returned by Poll().
func (m *MockDevice) SetTargets(targets []Target) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Targets = targets
}

// SetPollError sets the error returned by Poll().
func (m *MockDevice) SetPollError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PollError = err
}

// SetInitError sets the error returned by InitiatorInit().
func (m *MockDevice) SetInitError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitError = err
}

// Open reports whether the device is currently open.
func (m *MockDevice) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.IsOpen
}

// GetCallLog returns a copy of the call log for verification.
func (m *MockDevice) GetCallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	logCopy := make([]string, len(m.CallLog))
	copy(logCopy, m.CallLog)
	return logCopy
}

// ClearCallLog clears the call log.
func (m *MockDevice) ClearCallLog() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CallLog = make([]string, 0)
}
