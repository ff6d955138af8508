package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// GenericMessage is shown for failures that carry no server message.
const GenericMessage = "Network error"

// Kind classifies a failed call.
type Kind int

const (
	// KindUnknown is any non-2xx response not covered below.
	KindUnknown Kind = iota
	// KindNetwork is a failure to reach the service or read its response.
	KindNetwork
	// KindAuthRejected is a 401: the credential is missing, expired or invalid.
	KindAuthRejected
	// KindValidation is a 400 or 422 carrying a message.
	KindValidation
	// KindNotFound is a 404.
	KindNotFound
)

// Sentinel errors matched by errors.Is against an *Error of the same Kind.
var (
	ErrUnknown      = errors.New("unexpected response")
	ErrNetwork      = errors.New("network error")
	ErrAuthRejected = errors.New("authentication rejected")
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
)

func (k Kind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindAuthRejected:
		return ErrAuthRejected
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	default:
		return ErrUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuthRejected:
		return "auth_rejected"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is a failed call to the remote service.
type Error struct {
	Kind Kind
	// Status is the HTTP status, or 0 when no response was received.
	Status int
	// Message is the server-supplied message, if any.
	Message string
	// Fields holds per-field validation messages.
	Fields map[string]string
	// Op names the client method, e.g. "toggle_task".
	Op  string
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.sentinel().Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %d %s", e.Op, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// UserMessage returns the server-supplied message.
func (e *Error) UserMessage() string {
	return e.Message
}

// UserMessage returns the server message carried by err, else GenericMessage.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return GenericMessage
}

// serverError is the service's error body.
type serverError struct {
	Status           int               `json:"status"`
	Error            string            `json:"error"`
	Message          string            `json:"message"`
	Path             string            `json:"path"`
	ValidationErrors map[string]string `json:"validationErrors"`
}

func kindFor(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthRejected
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusNotFound:
		return KindNotFound
	default:
		return KindUnknown
	}
}

// responseError builds the error for a non-2xx response.
func responseError(op string, status int, body []byte) *Error {
	e := &Error{Kind: kindFor(status), Status: status, Op: op}
	var se serverError
	if err := json.Unmarshal(body, &se); err == nil {
		e.Message = se.Message
		e.Fields = se.ValidationErrors
	}
	return e
}
