package vpbx

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials means the API key or salt was never configured.
	// It is a programming/configuration error and is never mapped to an ErrorCode.
	ErrMissingCredentials = errors.New("vpbx: api key and salt must be set")

	// ErrNoData is returned when stats/request answered without a key.
	ErrNoData = errors.New("vpbx: stats request returned no key")

	// ErrUndeclaredField is returned when a StatsRecord field is read that was
	// not part of the query's field list.
	ErrUndeclaredField = errors.New("vpbx: field not declared")
)

// ErrorCode is a result code defined by the provider.
type ErrorCode int

const (
	CodeSuccess            ErrorCode = 1000
	CodeCallEnded          ErrorCode = 1100
	CodeBillingRestriction ErrorCode = 2000
	CodeInsufficientFunds  ErrorCode = 2100
	CodeLimitExceeded      ErrorCode = 2200
	CodeBadRequest         ErrorCode = 3000
	CodeBadParameters      ErrorCode = 3100
	CodeBadMethod          ErrorCode = 3101
	CodeBadSignature       ErrorCode = 3102
	CodeMissingParameter   ErrorCode = 3103
	CodeInvalidFormat      ErrorCode = 3104
	CodeUnknownKey         ErrorCode = 3105
	CodeBadNumber          ErrorCode = 3200
	CodeNotFound           ErrorCode = 3300
	CodeCallNotFound       ErrorCode = 3310
	CodeRecordingNotFound  ErrorCode = 3320
	CodeNumberNotFound     ErrorCode = 3330
	CodeActionFailed       ErrorCode = 4000
	CodeUnsupported        ErrorCode = 4001
	CodeProductNotFound    ErrorCode = 4002
	CodeServerError        ErrorCode = 5000
	CodeServerOverloaded   ErrorCode = 5001
	CodeServerUnavailable  ErrorCode = 5002
	CodeDatabaseError      ErrorCode = 5003
	CodeTimeout            ErrorCode = 5004
)

var errorMessages = map[ErrorCode]string{
	CodeSuccess:            "action completed successfully",
	CodeCallEnded:          "call ended normally",
	CodeBillingRestriction: "action restricted by billing",
	CodeInsufficientFunds:  "insufficient funds on the account",
	CodeLimitExceeded:      "account limit exceeded",
	CodeBadRequest:         "invalid request",
	CodeBadParameters:      "invalid command parameters",
	CodeBadMethod:          "request method is not POST",
	CodeBadSignature:       "signature does not match",
	CodeMissingParameter:   "required parameter is missing",
	CodeInvalidFormat:      "parameter has an invalid format",
	CodeUnknownKey:         "unknown api key",
	CodeBadNumber:          "invalid subscriber number",
	CodeNotFound:           "object does not exist",
	CodeCallNotFound:       "call not found",
	CodeRecordingNotFound:  "recording not found",
	CodeNumberNotFound:     "number not found for vpbx or employee",
	CodeActionFailed:       "action cannot be performed",
	CodeUnsupported:        "command is not supported",
	CodeProductNotFound:    "vpbx product not found",
	CodeServerError:        "server error",
	CodeServerOverloaded:   "server overloaded",
	CodeServerUnavailable:  "server unavailable",
	CodeDatabaseError:      "database error",
	CodeTimeout:            "request timed out",
}

// Message returns the human readable text for c.
func (c ErrorCode) Message() string {
	if m, ok := errorMessages[c]; ok {
		return m
	}
	return "unknown error"
}

// Success reports whether c belongs to the 1xxx "completed" range.
func (c ErrorCode) Success() bool {
	return c >= 1000 && c < 2000
}

// ProviderError is a rejection with a provider ErrorCode. It is an ordinary
// result value: callers branch on it with errors.As.
type ProviderError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewProviderError(code ErrorCode) *ProviderError {
	return &ProviderError{Code: code, Message: code.Message()}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("vpbx: provider error %d: %s", e.Code, e.Message)
}

// TransportError wraps a failed HTTP exchange with the provider.
// StatusCode is 0 when no response was received.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("vpbx: %s: http %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("vpbx: %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
