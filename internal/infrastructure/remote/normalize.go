package remote

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/loanportal/portal-client/internal/core/domain"
)

// defaultMessage is used when neither the failure nor the caller offers one.
const defaultMessage = "Request failed"

// Failure is the raw shape of an unsuccessful call before normalization.
// StatusCode and Body are zero when no response arrived; Err carries the
// transport error in that case.
type Failure struct {
	StatusCode int
	Body       []byte
	Err        error
}

// Normalize reduces a failure to one display message. Precedence:
//
//  1. "message" field of a JSON object body
//  2. body that is itself a plain string
//  3. transport error text
//  4. fallback
//  5. "Request failed"
//
// It never returns an empty string and accepts a nil failure.
func Normalize(f *Failure, fallback string) string {
	if f != nil {
		if msg := bodyMessage(f.Body); msg != "" {
			return msg
		}
		if msg := bodyText(f.Body); msg != "" {
			return msg
		}
		if f.Err != nil {
			if msg := f.Err.Error(); msg != "" {
				return msg
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return defaultMessage
}

func bodyMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ""
	}
	var envelope struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return ""
	}
	msg, _ := envelope.Message.(string)
	return msg
}

func bodyText(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case '{', '[':
		return ""
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return ""
		}
		return s
	}
	return string(trimmed)
}

// Error is returned by every Client call that fails. Message is the
// normalized text and is what Error() reports.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers detect rejected credentials with errors.Is(err, domain.ErrUnauthorized).
func (e *Error) Is(target error) bool {
	return target == domain.ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

func newError(op string, f *Failure, fallback string) *Error {
	return &Error{
		Op:         op,
		StatusCode: f.StatusCode,
		Message:    Normalize(f, fallback),
		Err:        f.Err,
	}
}
