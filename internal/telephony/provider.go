package telephony

import (
	"context"
	"time"

	"vpbx-platform/internal/vpbx"
)

// CallControl defines the provider-agnostic call control interface used by the API layer.
//
// Rules:
// - No provider HTTP calls outside telephony adapters.
// - Keep request/response types provider-agnostic; provider raw bodies go in Raw.
// - Stats rows are returned to the caller, never stored.
type CallControl interface {
	Name() string

	PlaceCall(ctx context.Context, req PlaceCallRequest) (CommandResult, error)
	Hangup(ctx context.Context, req HangupRequest) (CommandResult, error)

	FetchStats(ctx context.Context, req StatsRequest) ([]vpbx.StatsRecord, error)
}

// PlaceCallRequest starts a callback from an internal extension to a number.
type PlaceCallRequest struct {
	// FromExtension is the employee extension that is rung first.
	FromExtension string `json:"from_extension"`
	// ToNumber may be an extension, a group number or any external number.
	ToNumber string `json:"to_number"`

	// CallerNumber overrides the number shown to the callee. Optional.
	CallerNumber string `json:"caller_number,omitempty"`

	// CommandID is the idempotency token; derived from the payload when empty.
	CommandID string `json:"command_id,omitempty"`
}

type HangupRequest struct {
	CallID    string `json:"call_id"`
	CommandID string `json:"command_id,omitempty"`
}

// CommandResult is the provider's acknowledgement of a command.
type CommandResult struct {
	Endpoint  string `json:"endpoint"`
	CommandID string `json:"command_id,omitempty"`

	// ResultCode is set when the provider answered with a result code.
	ResultCode int    `json:"result_code,omitempty"`
	Message    string `json:"message,omitempty"`

	// Raw holds a non-JSON answer verbatim.
	Raw string `json:"raw,omitempty"`
}

type StatsRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	// Optional filters.
	FromExtension string `json:"from_extension,omitempty"`
	FromNumber    string `json:"from_number,omitempty"`
	ToExtension   string `json:"to_extension,omitempty"`
	ToNumber      string `json:"to_number,omitempty"`

	Fields    []string `json:"fields,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}
