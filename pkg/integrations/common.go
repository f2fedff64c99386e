package integrations

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/matzehuels/kgviz/pkg/errors"
)

// ErrNotFound is the cause of a TRANSPORT_ERROR for 404 responses.
var ErrNotFound = stderrors.New("resource not found")

// StatusError is the cause of a TRANSPORT_ERROR for other non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Envelope is the backend's response wrapper. ret == 0 means success.
//
// Some endpoints report their message under "message" instead of "msg".
// clear-all returns its backup and ai-chat its answer at the top level.
type Envelope struct {
	Ret        int             `json:"ret"`
	Msg        string          `json:"msg,omitempty"`
	AltMessage string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	BackupData json.RawMessage `json:"backup_data,omitempty"`
	Response   string          `json:"response,omitempty"`
}

// Message returns msg, falling back to message.
func (e Envelope) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.AltMessage
}

// Decode unmarshals Data into v. Absent or null data leaves v unchanged.
func (e Envelope) Decode(v any) error {
	return decodeRaw(e.Data, v)
}

// DecodeBackup unmarshals BackupData into v.
func (e Envelope) DecodeBackup(v any) error {
	return decodeRaw(e.BackupData, v)
}

func decodeRaw(raw json.RawMessage, v any) error {
	if v == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "malformed response data")
	}
	return nil
}

// NewHTTPClient creates an HTTP client. A zero timeout means none.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// PathEscape escapes an id for use as a single path segment.
func PathEscape(id string) string {
	return url.PathEscape(id)
}
