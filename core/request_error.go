package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// RequestError is a failed round trip with a human-readable message.
// Network failures, 4xx and 5xx responses all end up here.
type RequestError struct {
	Op      string
	Status  int // 0 when no response arrived
	Message string
	Body    []byte
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NormalizeError builds a RequestError. The message is taken from the
// failure body when it carries one (see ExtractMessage), else fallback.
func NormalizeError(op string, status int, body []byte, cause error, fallback string) *RequestError {
	msg, ok := ExtractMessage(body)
	if !ok {
		msg = fallback
	}
	if cause == nil {
		cause = fmt.Errorf("%s: status %d", op, status)
	}
	return &RequestError{
		Op:      op,
		Status:  status,
		Message: msg,
		Body:    body,
		Err:     cause,
	}
}

// AsRequestError passes RequestErrors through and normalizes anything else
// to the fallback message.
func AsRequestError(err error, op, fallback string) error {
	if err == nil {
		return nil
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return err
	}
	return NormalizeError(op, 0, nil, err, fallback)
}

// ExtractMessage pulls a message out of a failure body. For a JSON object
// the "detail" field wins, then "message"; an object with neither yields
// nothing. Other JSON values and plain text are used as-is. Empty, null,
// false and zero values count as absent. Non-string values are returned
// JSON encoded.
func ExtractMessage(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", false
	}

	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return string(trimmed), true
	}

	if obj, ok := payload.(map[string]any); ok {
		for _, key := range []string{"detail", "message"} {
			if msg, ok := stringify(obj[key]); ok {
				return msg, true
			}
		}
		return "", false
	}

	return stringify(payload)
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, t != ""
	case bool:
		if !t {
			return "", false
		}
	case float64:
		if t == 0 {
			return "", false
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}
