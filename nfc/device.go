package nfc

// Device represents an NFC reader/writer hardware device.
//
// A Device is obtained from a Manager and polls the field for targets using
// the technologies selected by a PollingOption.
//
// Example:
//
//	device, err := manager.OpenDevice("")
//	defer device.Close()
//	targets, err := device.Poll(nfc.PollISO14443)
type Device interface {
	Close() error
	InitiatorInit() error
	String() string
	Connection() string
	Poll(opts PollingOption) ([]Target, error)
}

// PollingOption selects the radio technologies a session polls for.
type PollingOption uint8

const (
	PollISO14443 PollingOption = 1 << iota
	PollISO15693
	PollISO18092
)

// Has reports whether all bits of o are set in p.
func (p PollingOption) Has(o PollingOption) bool {
	return p&o == o
}

func (p PollingOption) String() string {
	var s string
	add := func(name string) {
		if s != "" {
			s += "|"
		}
		s += name
	}
	if p.Has(PollISO14443) {
		add("iso14443")
	}
	if p.Has(PollISO15693) {
		add("iso15693")
	}
	if p.Has(PollISO18092) {
		add("iso18092")
	}
	if s == "" {
		return "none"
	}
	return s
}

// TagFamily groups detected targets by the command set they speak.
type TagFamily int

const (
	FamilyUnknown TagFamily = iota
	FamilyMiFare
	FamilyISO7816
	FamilyFeliCa
	FamilyISO15693
)

func (f TagFamily) String() string {
	switch f {
	case FamilyMiFare:
		return "miFare"
	case FamilyISO7816:
		return "iso7816"
	case FamilyFeliCa:
		return "feliCa"
	case FamilyISO15693:
		return "iso15693"
	default:
		return "unknown"
	}
}

// Target is a tag found in the field during one poll.
type Target struct {
	// Identifier holds the raw UID bytes in the order the reader reported them.
	Identifier []byte
	Family     TagFamily
	// Type is a human readable tag type such as "MIFARE Classic 1K".
	Type string
}

// ID returns the formatted identifier of the target.
func (t Target) ID() string {
	return FormatIdentifier(t.Identifier)
}
