package protocol

// Request is a message from a client.
type Request struct {
	ID     string            `json:"id,omitempty"` // Client-generated, echoed in the Response
	Type   string            `json:"type"`
	Method string            `json:"method,omitempty"` // Only for TypeCall
	Args   map[string]string `json:"args,omitempty"`
}

// Response answers one Request.
type Response struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorPayload is the payload of a TypeError Response.
type ErrorPayload struct {
	Code string `json:"code"`
}

// Message is an unsolicited push from the bridge.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Record is the tag record carried by NfcRead and NfcStop results and by events.
type Record struct {
	ID      string `json:"nfcId"`
	Content string `json:"nfcContent"`
	Status  string `json:"nfcStatus"`
	Error   string `json:"nfcError"`
}

// NoticePayload is the payload of a TypeNotice Message.
type NoticePayload struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// NewCall builds a TypeCall request.
func NewCall(id, method string, args map[string]string) Request {
	return Request{ID: id, Type: TypeCall, Method: method, Args: args}
}
