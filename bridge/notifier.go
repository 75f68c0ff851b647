package bridge

// WriteUnsupportedMessage is the notice shown when a client asks to write a tag.
const WriteUnsupportedMessage = "Writing NFC tags is not supported on this platform"

// Notice is a user-facing message with no programmatic meaning.
type Notice struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
}

// Notifier surfaces notices to the user, e.g. on the connected client or in the tray.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }
