package nfc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ebfe/scard"
	"github.com/stretchr/testify/assert"
)

func TestIsTransientPollError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel timeout", fmt.Errorf("poll: %w", ErrTimeout), true},
		{"libnfc timeout", errors.New("Operation timed out"), true},
		{"card removed", NewCardRemovedError(scard.ErrRemovedCard), true},
		{"device closed", fmt.Errorf("poll: %w", ErrDeviceClosed), false},
		{"usb io error", errors.New("libusb: input / output error"), false},
		{"timeout while device gone", fmt.Errorf("%w: timeout", ErrIO), false},
		{"other", errors.New("RF field lost"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransientPollError(tt.err))
		})
	}
}

func TestCardRemovedError(t *testing.T) {
	err := NewCardRemovedError(scard.ErrRemovedCard)
	assert.True(t, IsCardRemovedError(fmt.Errorf("GET UID: %w", err)))
	assert.ErrorIs(t, err, scard.ErrRemovedCard)
	assert.Equal(t, "card was removed", (&cardRemovedError{}).Error())
	assert.False(t, IsCardRemovedError(errors.New("card was removed")))
}
