// Package protocol defines the messages exchanged with the bridge over its
// WebSocket method channel. It is designed to be importable by clients without
// pulling in server or reader dependencies.
//
// A client sends Requests; the bridge answers every "call" with exactly one
// Response carrying the same ID, and pushes Messages for events and notices.
//
//	-> {"id":"1","type":"listen"}
//	<- {"id":"1","type":"result","success":true}
//	-> {"id":"2","type":"call","method":"NfcRead","args":{"instruction":"Scan your card"}}
//	<- {"type":"event","payload":{"nfcId":"0x9c2ba204","nfcContent":"notimplemented","nfcStatus":"reading","nfcError":""}}
//	<- {"id":"2","type":"result","success":true,"payload":{"nfcId":"0x9c2ba204",...}}
package protocol

// Request types sent by clients.
const (
	TypeCall   = "call"
	TypeListen = "listen"
	TypeCancel = "cancel"
)

// Message types sent by the bridge.
const (
	TypeResult = "result"
	TypeError  = "error"
	TypeEvent  = "event"
	TypeNotice = "notice"
)

// Error codes carried in ErrorPayload.Code.
const (
	ErrCodeBusy        = "BUSY"
	ErrCodeCanceled    = "CANCELED"
	ErrCodeUnknownType = "UNKNOWN_TYPE"
	ErrCodeParseError  = "PARSE_ERROR"
	ErrCodeCallFailed  = "CALL_FAILED"
)
