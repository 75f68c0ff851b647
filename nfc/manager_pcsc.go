package nfc

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ebfe/scard"
)

// pcscManager implements Manager using PC/SC via ebfe/scard.
type pcscManager struct {
	ctx   *scard.Context
	ctxMu sync.Mutex
}

func newPCSCManager() *pcscManager {
	return &pcscManager{}
}

// context returns a live PC/SC context, re-establishing it if the previous one
// went stale (pcscd restarts, reader unplugged on Windows).
func (m *pcscManager) context() (*scard.Context, error) {
	m.ctxMu.Lock()
	defer m.ctxMu.Unlock()

	if m.ctx != nil {
		if ok, err := m.ctx.IsValid(); err == nil && ok {
			return m.ctx, nil
		}
		m.ctx.Release()
		m.ctx = nil
	}

	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("failed to establish PC/SC context: %w", err)
	}
	m.ctx = ctx
	return ctx, nil
}

// OpenDevice binds a reader by name. An empty name selects the first
// contactless reader. No card needs to be present.
func (m *pcscManager) OpenDevice(deviceStr string) (Device, error) {
	ctx, err := m.context()
	if err != nil {
		return nil, err
	}

	readerName := deviceStr
	if readerName == "" {
		readers, err := m.ListDevices()
		if err != nil {
			return nil, err
		}
		if len(readers) == 0 {
			return nil, fmt.Errorf("no PC/SC readers found")
		}
		readerName = readers[0]
	}

	return newPCSCDevice(ctx, readerName), nil
}

func (m *pcscManager) ListDevices() ([]string, error) {
	return listWithRetry(func() ([]string, error) {
		ctx, err := m.context()
		if err != nil {
			return nil, err
		}
		readers, err := ctx.ListReaders()
		if err != nil {
			return nil, err
		}
		return filterContactlessReaders(readers), nil
	})
}

// Release releases the PC/SC context.
func (m *pcscManager) Release() error {
	m.ctxMu.Lock()
	defer m.ctxMu.Unlock()

	if m.ctx != nil {
		err := m.ctx.Release()
		m.ctx = nil
		return err
	}
	return nil
}

// filterContactlessReaders drops SAM slots, which never hold a tag.
func filterContactlessReaders(readers []string) []string {
	var filtered []string
	for _, r := range readers {
		if strings.Contains(strings.ToUpper(r), "SAM") {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}
