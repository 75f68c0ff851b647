package nfc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebfe/scard"
)

// pcscDevice implements Device for one PC/SC reader slot.
type pcscDevice struct {
	ctx        *scard.Context
	readerName string
	mu         sync.Mutex
	closed     bool
}

func newPCSCDevice(ctx *scard.Context, readerName string) *pcscDevice {
	return &pcscDevice{ctx: ctx, readerName: readerName}
}

func (d *pcscDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// InitiatorInit is a no-op: the reader firmware drives the RF field.
func (d *pcscDevice) InitiatorInit() error {
	return nil
}

func (d *pcscDevice) String() string {
	return d.readerName
}

func (d *pcscDevice) Connection() string {
	return "pcsc:" + d.readerName
}

// Poll checks whether a card is present and, if so, connects just long enough
// to read its UID and ATR. PC/SC readers negotiate the technology themselves,
// so only the ISO14443 bit is honoured.
func (d *pcscDevice) Poll(opts PollingOption) ([]Target, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrDeviceClosed
	}
	if !opts.Has(PollISO14443) {
		return nil, nil
	}

	present, err := d.cardPresent()
	if err != nil || !present {
		return nil, err
	}

	card, err := d.ctx.Connect(d.readerName, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		if errors.Is(err, scard.ErrNoSmartcard) || errors.Is(err, scard.ErrRemovedCard) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to connect to reader %s: %w", d.readerName, err)
	}
	defer card.Disconnect(scard.LeaveCard)

	status, err := card.Status()
	if err != nil {
		if errors.Is(err, scard.ErrRemovedCard) {
			return nil, NewCardRemovedError(err)
		}
		return nil, fmt.Errorf("failed to get card status: %w", err)
	}

	raw, err := card.Transmit(GetUIDAPDU())
	if err != nil {
		if errors.Is(err, scard.ErrRemovedCard) || errors.Is(err, scard.ErrResetCard) {
			return nil, NewCardRemovedError(err)
		}
		return nil, fmt.Errorf("GET UID: %w", err)
	}
	resp, err := ParseAPDUResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("GET UID: %w", err)
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("GET UID: %w", err)
	}
	uid := resp.Data

	family, cardType := detectFamilyFromATR(status.Atr)
	return []Target{{Identifier: uid, Family: family, Type: cardType}}, nil
}

// cardPresent reads the current reader state without waiting for a change.
func (d *pcscDevice) cardPresent() (bool, error) {
	states := []scard.ReaderState{{Reader: d.readerName, CurrentState: scard.StateUnaware}}
	if err := d.ctx.GetStatusChange(states, 0); err != nil && !errors.Is(err, scard.ErrTimeout) {
		return false, fmt.Errorf("reader %s status: %w", d.readerName, err)
	}
	return states[0].EventState&scard.StatePresent != 0, nil
}
