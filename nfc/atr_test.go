package nfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFamilyFromATR(t *testing.T) {
	tests := []struct {
		name       string
		atr        []byte
		wantFamily TagFamily
		wantType   string
	}{
		{
			name:       "ACR122 MIFARE Classic 1K",
			atr:        []byte{0x3B, 0x8F, 0x80, 0x01, 0x80, 0x4F, 0x0C, 0xA0, 0x00, 0x00, 0x03, 0x06, 0x03, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x6A},
			wantFamily: FamilyMiFare,
			wantType:   CardTypeMifareClassic1K,
		},
		{
			name:       "MIFARE Ultralight",
			atr:        []byte{0x3B, 0x8F, 0x80, 0x01, 0x80, 0x4F, 0x0C, 0xA0, 0x00, 0x00, 0x03, 0x06, 0x03, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x68},
			wantFamily: FamilyMiFare,
			wantType:   CardTypeMifareUltralight,
		},
		{
			name:       "ISO14443-4 card",
			atr:        []byte{0x3B, 0x81, 0x80, 0x01, 0x80, 0x80},
			wantFamily: FamilyISO7816,
			wantType:   CardTypeType4,
		},
		{
			name:       "invalid TS",
			atr:        []byte{0x00, 0x01},
			wantFamily: FamilyISO7816,
			wantType:   CardTypeType4,
		},
		{
			name:       "empty",
			atr:        nil,
			wantFamily: FamilyISO7816,
			wantType:   CardTypeType4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			family, cardType := detectFamilyFromATR(tt.atr)
			assert.Equal(t, tt.wantFamily, family)
			assert.Equal(t, tt.wantType, cardType)
		})
	}
}

func TestParseAPDUResponse(t *testing.T) {
	resp, err := ParseAPDUResponse([]byte{0x04, 0x9A, 0x2B, 0x90, 0x00})
	assert.NoError(t, err)
	assert.True(t, resp.IsSuccess())
	assert.NoError(t, resp.Err())
	assert.Equal(t, []byte{0x04, 0x9A, 0x2B}, resp.Data)

	resp, err = ParseAPDUResponse([]byte{0x6A, 0x81})
	assert.NoError(t, err)
	assert.Equal(t, uint16(0x6A81), resp.StatusWord())
	assert.EqualError(t, resp.Err(), "APDU error: SW=6A81")
	assert.Empty(t, resp.Data)

	_, err = ParseAPDUResponse([]byte{0x90})
	assert.Error(t, err)
}

func TestGetUIDAPDU(t *testing.T) {
	assert.Equal(t, []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}, GetUIDAPDU())
	le := byte(0x10)
	assert.Equal(t, []byte{0x00, 0xA4, 0x04, 0x00, 0x02, 0xAB, 0xCD, 0x10}, BuildAPDU(0x00, 0xA4, 0x04, 0x00, []byte{0xAB, 0xCD}, &le))
}

func TestFilterContactlessReaders(t *testing.T) {
	readers := []string{
		"ACS ACR1252 Dual Reader PICC",
		"ACS ACR1252 Dual Reader SAM",
		"Identiv uTrust 3700 F",
	}
	assert.Equal(t, []string{"ACS ACR1252 Dual Reader PICC", "Identiv uTrust 3700 F"}, filterContactlessReaders(readers))
}
