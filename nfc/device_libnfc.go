package nfc

import (
	"encoding/hex"
	"fmt"

	"github.com/clausecker/freefare"
	"github.com/clausecker/nfc/v2"
	log "github.com/sirupsen/logrus"
)

// libnfcDevice implements Device using an actual nfc.Device from libnfc.
type libnfcDevice struct {
	device nfc.Device
}

// NewDevice creates a new Device from an nfc.Device.
func NewDevice(dev nfc.Device) Device {
	return &libnfcDevice{device: dev}
}

func (d *libnfcDevice) Close() error {
	return d.device.Close()
}

func (d *libnfcDevice) InitiatorInit() error {
	return d.device.InitiatorInit()
}

func (d *libnfcDevice) String() string {
	return d.device.String()
}

func (d *libnfcDevice) Connection() string {
	return d.device.Connection()
}

// Poll lists the targets currently in the field.
//
// For ISO14443 it first asks freefare for MIFARE tags, then lists all
// ISO14443A targets to pick up the ones freefare does not know (Type 4A tags
// are reported as ISO7816). ISO18092 polls FeliCa at 212 kbps. ISO15693 has
// no libnfc initiator support and is skipped.
func (d *libnfcDevice) Poll(opts PollingOption) ([]Target, error) {
	var found []Target
	seen := make(map[string]bool)

	if opts.Has(PollISO14443) {
		targets, err := d.pollISO14443(seen)
		if err != nil {
			return nil, err
		}
		found = append(found, targets...)
	}

	if opts.Has(PollISO18092) {
		targets, err := d.pollFeliCa()
		if err != nil {
			return nil, err
		}
		found = append(found, targets...)
	}

	return found, nil
}

func (d *libnfcDevice) pollISO14443(seen map[string]bool) ([]Target, error) {
	var found []Target

	ffTags, ffErr := freefare.GetTags(d.device)
	if ffErr != nil {
		log.WithError(ffErr).Debug("freefare.GetTags failed")
	}
	for _, tag := range ffTags {
		uid := tag.UID()
		if seen[uid] {
			continue
		}
		id, err := hex.DecodeString(uid)
		if err != nil {
			log.WithField("uid", uid).Warn("Skipping freefare tag with malformed UID")
			continue
		}
		seen[uid] = true
		found = append(found, Target{
			Identifier: id,
			Family:     FamilyMiFare,
			Type:       freefareTypeName(tag),
		})
	}

	modulation := nfc.Modulation{Type: nfc.ISO14443a, BaudRate: nfc.Nbr106}
	targets, err := d.device.InitiatorListPassiveTargets(modulation)
	if err != nil {
		if ffErr != nil && len(found) == 0 {
			return nil, fmt.Errorf("error from freefare (%v) AND passive targets (%w)", ffErr, err)
		}
		log.WithError(err).Debug("Listing ISO14443A passive targets failed")
		return found, nil
	}

	for _, target := range targets {
		isoA, ok := target.(*nfc.ISO14443aTarget)
		if !ok {
			continue
		}
		n := int(isoA.UIDLen)
		if n <= 0 || n > len(isoA.UID) {
			continue
		}
		id := make([]byte, n)
		copy(id, isoA.UID[:n])

		uid := hex.EncodeToString(id)
		if seen[uid] {
			continue
		}
		seen[uid] = true

		// SAK bit 5 set means ISO14443-4 compliant.
		if isoA.Sak&0x20 != 0 {
			found = append(found, Target{Identifier: id, Family: FamilyISO7816, Type: CardTypeType4})
		} else {
			found = append(found, Target{Identifier: id, Family: FamilyMiFare, Type: CardTypeMifareUnknown})
		}
	}

	return found, nil
}

func (d *libnfcDevice) pollFeliCa() ([]Target, error) {
	modulation := nfc.Modulation{Type: nfc.Felica, BaudRate: nfc.Nbr212}
	targets, err := d.device.InitiatorListPassiveTargets(modulation)
	if err != nil {
		return nil, fmt.Errorf("listing FeliCa targets: %w", err)
	}

	var found []Target
	for _, target := range targets {
		felica, ok := target.(*nfc.FelicaTarget)
		if !ok {
			continue
		}
		id := make([]byte, len(felica.ID))
		copy(id, felica.ID[:])
		found = append(found, Target{Identifier: id, Family: FamilyFeliCa, Type: CardTypeFeliCa})
	}
	return found, nil
}

func freefareTypeName(tag freefare.Tag) string {
	switch t := tag.(type) {
	case freefare.ClassicTag:
		if t.Type() == freefare.Classic4k {
			return CardTypeMifareClassic4K
		}
		return CardTypeMifareClassic1K
	case freefare.DESFireTag:
		return CardTypeDesfire
	case freefare.UltralightTag:
		return CardTypeMifareUltralight
	default:
		return CardTypeMifareUnknown
	}
}
