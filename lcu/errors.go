package lcu

import (
	"errors"
	"fmt"
)

var (
	// ErrProcessNotFound reports that no League client UI process is running.
	ErrProcessNotFound = errors.New("no active LeagueClientUx process found")
	// ErrInstallPathNotFound reports that the client process carries no
	// --install-directory argument.
	ErrInstallPathNotFound = errors.New("install directory not found in process arguments")
	// ErrForeignHost is returned by the session transport when a request
	// targets anything other than the client's own endpoint.
	ErrForeignHost = errors.New("session transport refuses foreign host")
	// ErrCertificateChanged is returned when the local service presents a
	// different certificate than the one first seen by the session.
	ErrCertificateChanged = errors.New("local service certificate changed during session")
	// ErrEmptyBody is wrapped in a DecodeError when a call expecting a payload
	// gets a 2xx with no body.
	ErrEmptyBody = errors.New("empty response body")
)

// DiscoveryError wraps failures to locate the running client.
type DiscoveryError struct {
	Op  string
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery: %s: %v", e.Op, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// LockfileErrorKind classifies lockfile failures.
type LockfileErrorKind int

const (
	LockfileRead LockfileErrorKind = iota
	LockfileInvalidFormat
	LockfileNumberFormat
)

func (k LockfileErrorKind) String() string {
	switch k {
	case LockfileRead:
		return "unable to read file"
	case LockfileInvalidFormat:
		return "lockfile content is invalid"
	case LockfileNumberFormat:
		return "unable to parse number"
	default:
		return "unknown lockfile error"
	}
}

// LockfileError reports a lockfile that could not be read or parsed. Field
// names the offending field for LockfileNumberFormat.
type LockfileError struct {
	Kind  LockfileErrorKind
	Path  string
	Field string
	Err   error
}

func (e *LockfileError) Error() string {
	msg := "lockfile: " + e.Kind.String()
	if e.Field != "" {
		msg += " " + e.Field
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LockfileError) Unwrap() error { return e.Err }

// BuildError reports credentials that cannot produce a session client.
type BuildError struct {
	Reason string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("build client: %s: %v", e.Reason, e.Err)
	}
	return "build client: " + e.Reason
}

func (e *BuildError) Unwrap() error { return e.Err }

// StatusError is returned when the local service answers outside the 2xx
// range. Code is the HTTP status the service returned.
type StatusError struct {
	Code     int
	Method   string
	Endpoint string
	Body     string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("API returned error code: %d (%s %s)", e.Code, e.Method, e.Endpoint)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// TransportError wraps a request that never produced a response.
type TransportError struct {
	Method   string
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError wraps a 2xx response whose body did not match the target type.
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status carried by a StatusError anywhere in
// err's chain.
func StatusCode(err error) (int, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code, true
	}
	return 0, false
}

// IsClientAbsent reports whether err means the game client is simply not
// running (or not ready yet) rather than a real fault.
func IsClientAbsent(err error) bool {
	var discoveryErr *DiscoveryError
	var lockErr *LockfileError
	return errors.As(err, &discoveryErr) || errors.As(err, &lockErr)
}
