package nfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatIdentifier(t *testing.T) {
	tests := []struct {
		name string
		id   []byte
		want string
	}{
		{"three bytes", []byte{0x04, 0x9A, 0x2B}, "0x2b9a04"},
		{"seven byte NTAG uid", []byte{0x04, 0x11, 0x22, 0x33, 0x44, 0x55, 0x80}, "0x80554433221104"},
		{"single byte", []byte{0x0f}, "0x0f"},
		{"leading zero bytes kept", []byte{0x00, 0x00, 0x01}, "0x010000"},
		{"empty", nil, "0x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatIdentifier(tt.id))
		})
	}
}

func TestFormatIdentifierMatchesReversedHex(t *testing.T) {
	id := make([]byte, 256)
	for i := range id {
		id[i] = byte(i)
	}

	got := FormatIdentifier(id)
	assert.Len(t, got, 2+2*len(id))
	assert.Equal(t, "0xfffefd", got[:8])
	assert.Equal(t, "020100", got[len(got)-6:])
}

func TestTargetID(t *testing.T) {
	target := Target{Identifier: []byte{0xde, 0xad, 0xbe, 0xef}, Family: FamilyMiFare}
	assert.Equal(t, "0xefbeadde", target.ID())
}
