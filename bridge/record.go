package bridge

// Status values carried in Result.Status.
const (
	StatusReading = "reading"
	StatusStopped = "stopped"
	StatusError   = "error"
)

// ContentPlaceholder is reported as content for every tag; payloads are not parsed.
const ContentPlaceholder = "notimplemented"

// Result is the record returned by NfcRead/NfcStop and pushed on the event channel.
// It is built once per completion and never modified afterwards.
type Result struct {
	ID      string `json:"nfcId"`
	Content string `json:"nfcContent"`
	Status  string `json:"nfcStatus"`
	Error   string `json:"nfcError"`
}

// ReadingResult is the record for a detected tag with the given formatted id.
func ReadingResult(id string) Result {
	return Result{ID: id, Content: ContentPlaceholder, Status: StatusReading}
}

// StoppedResult is the record every NfcStop replies with.
func StoppedResult() Result {
	return Result{Status: StatusStopped}
}

// ErrorResult carries err's message verbatim.
func ErrorResult(err error) Result {
	r := Result{Status: StatusError}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

