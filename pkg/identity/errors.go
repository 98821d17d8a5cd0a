package identity

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned before any network call when the caller
	// passes an argument the operation cannot accept.
	ErrInvalidArgument = errors.New("identity: invalid argument")

	// ErrClientClosed is returned by every method called after Close.
	ErrClientClosed = errors.New("identity: client is closed")
)

// NoResponseData is stored in AuthError.ResponseBody when the request never
// produced a readable response.
const NoResponseData = "N/A"

// ErrorReason is the classified cause of a failed exchange.
type ErrorReason int

const (
	ReasonUndefined ErrorReason = iota
	ReasonWrongPassword
	ReasonUnknownEmailAddress
	ReasonInvalidEmailAddress
	ReasonUserDisabled
)

// Error messages the service puts in error.message.
const (
	messageInvalidPassword = "INVALID_PASSWORD"
	messageEmailNotFound   = "EMAIL_NOT_FOUND"
	messageInvalidEmail    = "INVALID_EMAIL"
	messageUserDisabled    = "USER_DISABLED"
)

func (r ErrorReason) String() string {
	switch r {
	case ReasonWrongPassword:
		return "WrongPassword"
	case ReasonUnknownEmailAddress:
		return "UnknownEmailAddress"
	case ReasonInvalidEmailAddress:
		return "InvalidEmailAddress"
	case ReasonUserDisabled:
		return "UserDisabled"
	default:
		return "Undefined"
	}
}

// ErrorKind tells which stage of an exchange failed.
type ErrorKind int

const (
	// KindTransport covers connection, DNS, timeout and cancellation failures,
	// and responses whose body could not be read.
	KindTransport ErrorKind = iota + 1
	// KindProtocol is a non-2xx response.
	KindProtocol
	// KindMalformedResponse is a 2xx response that does not decode into the
	// expected shape.
	KindMalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindMalformedResponse:
		return "malformed response"
	default:
		return "unknown"
	}
}

// AuthError describes a failed exchange with the identity service.
//
// RequestBody holds the raw outgoing JSON, which may contain a password; it is
// never part of Error().
type AuthError struct {
	Endpoint     Endpoint
	RequestBody  string
	ResponseBody string
	StatusCode   int
	Kind         ErrorKind
	Reason       ErrorReason
	Err          error
}

func (e *AuthError) Error() string {
	msg := fmt.Sprintf("identity: %s: %s failure", e.Endpoint, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Reason != ReasonUndefined {
		msg += ": " + e.Reason.String()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Classified reports whether the service's error message matched one of the
// known reasons.
func (e *AuthError) Classified() bool {
	return e.Kind == KindProtocol && e.Reason != ReasonUndefined
}

// ReasonOf returns the classified reason carried by err, or ReasonUndefined.
func ReasonOf(err error) ErrorReason {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Reason
	}
	return ReasonUndefined
}

// errorEnvelope is the service's error body: {"error":{"code":400,"message":"EMAIL_NOT_FOUND"}}.
type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// classifyError never fails: anything it cannot read is ReasonUndefined.
func classifyError(body []byte) ErrorReason {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return ReasonUndefined
	}

	switch env.Error.Message {
	case messageInvalidPassword:
		return ReasonWrongPassword
	case messageEmailNotFound:
		return ReasonUnknownEmailAddress
	case messageInvalidEmail:
		return ReasonInvalidEmailAddress
	case messageUserDisabled:
		return ReasonUserDisabled
	default:
		return ReasonUndefined
	}
}

// serviceMessage extracts error.message for diagnostics, or "".
func serviceMessage(body []byte) string {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return ""
	}
	return env.Error.Message
}
