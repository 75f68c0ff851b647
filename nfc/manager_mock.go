package nfc

import "sync"

// MockManager is a Manager backed by a single MockDevice, for tests that run
// reader sessions without hardware.
//
//	manager := nfc.NewMockManager()
//	manager.MockDevice.SetTargets([]nfc.Target{{Identifier: []byte{0x04}, Family: nfc.FamilyMiFare}})
//	manager.SetDevices(nil) // reader unplugged
type MockManager struct {
	// MockDevice is handed out by every OpenDevice call, reopened each time,
	// so tests can keep configuring it between sessions.
	MockDevice *MockDevice

	mu        sync.Mutex
	devices   []string
	listErr   error
	openErr   error
	calls     []string
	openCount int
}

// NewMockManager returns a manager listing one reader, "mock:usb:001".
func NewMockManager() *MockManager {
	return &MockManager{
		MockDevice: NewMockDevice(),
		devices:    []string{"mock:usb:001"},
	}
}

func (m *MockManager) OpenDevice(deviceStr string) (Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "OpenDevice("+deviceStr+")")
	if m.openErr != nil {
		return nil, m.openErr
	}

	m.openCount++
	m.MockDevice.reopen(deviceStr)
	return m.MockDevice, nil
}

func (m *MockManager) ListDevices() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "ListDevices")
	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]string(nil), m.devices...), nil
}

// SetDevices replaces the readers ListDevices reports.
func (m *MockManager) SetDevices(devices []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices = devices
}

// SetListError makes ListDevices fail with err; nil restores it.
func (m *MockManager) SetListError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

// SetOpenDeviceError makes OpenDevice fail with err; nil restores it.
func (m *MockManager) SetOpenDeviceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openErr = err
}

// Opens returns how many times a device was opened successfully.
func (m *MockManager) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCount
}

// GetCallLog returns the manager calls made so far, in order.
func (m *MockManager) GetCallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
