// Package api is the client for the remote projects and tasks service.
//
// Every call is rate limited, carries an X-Request-ID header, runs inside
// an OpenTelemetry span and is counted in the client's request metrics.
// Authorization is not handled here: pass an *http.Client whose transport
// is a session.Transport.
//
// Failures are returned as *Error, classified by Kind. errors.Is matches
// them against ErrNetwork, ErrAuthRejected, ErrValidation, ErrNotFound and
// ErrUnknown. UserMessage extracts the text to show a user.
package api
