package bridge

import (
	"context"
)

// Channel names the host application binds to.
const (
	MethodChannelName = "nfc_reader"
	EventChannelName  = "nfc_reader/events"
)

// Method names understood by HandleMethodCall.
const (
	MethodRead      = "NfcRead"
	MethodStop      = "NfcStop"
	MethodWrite     = "NfcWrite"
	MethodAvailable = "NfcAvailable"

	// ArgInstruction is the optional prompt argument of NfcRead.
	ArgInstruction = "instruction"
)

// MethodCall is one named call with string arguments.
type MethodCall struct {
	Method    string            `json:"method"`
	Arguments map[string]string `json:"args,omitempty"`
}

// HandleMethodCall routes call and returns its single reply:
//
//	NfcRead      -> Result (blocks until a tag, a session error, or ctx is done)
//	NfcStop      -> Result with StatusStopped
//	NfcWrite     -> nil
//	NfcAvailable -> "available" or "not_supported"
//	anything else -> PlatformDescription()
//
// The only errors are ErrBusy and context errors from NfcRead.
func (p *Plugin) HandleMethodCall(ctx context.Context, call MethodCall) (any, error) {
	switch call.Method {
	case MethodRead:
		r, err := p.Read(ctx, call.Arguments[ArgInstruction])
		if err != nil {
			return nil, err
		}
		return r, nil
	case MethodStop:
		return p.Stop(ctx), nil
	case MethodWrite:
		p.Write(ctx, call.Arguments)
		return nil, nil
	case MethodAvailable:
		return p.Available(), nil
	default:
		return p.PlatformDescription(), nil
	}
}
