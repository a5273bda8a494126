package notification

import (
	"bytes"

	"github.com/tidwall/gjson"
)

// Result is the raw outcome of one Bot API call.
// The body is kept verbatim; accessors read single fields out of it on demand.
type Result struct {
	StatusCode int
	Body       []byte
}

// OK reports the "ok" flag of the reply
func (r *Result) OK() bool {
	return gjson.GetBytes(r.Body, "ok").Bool()
}

// Description returns the human readable error text Telegram sends with "ok": false
func (r *Result) Description() string {
	return gjson.GetBytes(r.Body, "description").String()
}

// ErrorCode returns the Telegram error code, or 0 when absent
func (r *Result) ErrorCode() int {
	return int(gjson.GetBytes(r.Body, "error_code").Int())
}

// MessageID returns result.message_id of a successful send, or 0
func (r *Result) MessageID() int64 {
	return gjson.GetBytes(r.Body, "result.message_id").Int()
}

// Err converts an "ok": false reply into an *APIError
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return &APIError{
		StatusCode:  r.StatusCode,
		ErrorCode:   r.ErrorCode(),
		Description: r.Description(),
	}
}

// String returns the body as received, without trailing whitespace
func (r *Result) String() string {
	return string(bytes.TrimSpace(r.Body))
}
