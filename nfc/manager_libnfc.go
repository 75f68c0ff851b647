package nfc

import (
	"github.com/clausecker/nfc/v2"
)

// libnfcManager implements Manager using libnfc and freefare.
type libnfcManager struct{}

func (m *libnfcManager) OpenDevice(deviceStr string) (Device, error) {
	dev, err := nfc.Open(deviceStr)
	if err != nil {
		return nil, err
	}
	return NewDevice(dev), nil
}

func (m *libnfcManager) ListDevices() ([]string, error) {
	return listWithRetry(nfc.ListDevices)
}
