package nfc

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Driver names accepted by NewManager.
const (
	DriverLibNFC = "libnfc"
	DriverPCSC   = "pcsc"
)

const (
	// DeviceEnumRetries is the number of attempts made when listing readers.
	DeviceEnumRetries = 3
	deviceEnumDelay   = 100 * time.Millisecond
)

// Manager handles NFC reader discovery.
//
// Manager provides methods to list available NFC readers and open connections
// to them.
//
// Example:
//
//	manager, _ := nfc.NewManager(nfc.DriverLibNFC)
//	devices, _ := manager.ListDevices()
//	device, _ := manager.OpenDevice(devices[0])
//	targets, _ := device.Poll(nfc.PollISO14443)
type Manager interface {
	OpenDevice(deviceStr string) (Device, error)
	ListDevices() ([]string, error)
}

// Releaser is implemented by managers that hold driver resources until released.
type Releaser interface {
	Release() error
}

// NewManager creates a Manager for the given driver. An empty driver selects libnfc.
func NewManager(driver string) (Manager, error) {
	switch driver {
	case "", DriverLibNFC:
		return &libnfcManager{}, nil
	case DriverPCSC:
		return newPCSCManager(), nil
	default:
		return nil, fmt.Errorf("unknown NFC driver %q", driver)
	}
}

// listWithRetry calls list until it succeeds or DeviceEnumRetries attempts fail.
// Enumeration right after a reader is plugged in fails transiently on most stacks.
func listWithRetry(list func() ([]string, error)) ([]string, error) {
	var devices []string
	op := func() error {
		var err error
		devices, err = list()
		return err
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(deviceEnumDelay), DeviceEnumRetries-1)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("failed to list NFC devices after %d attempts: %w", DeviceEnumRetries, err)
	}
	return devices, nil
}
