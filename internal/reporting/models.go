package reporting

import (
	"time"

	"vpbx-platform/internal/vpbx"
)

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest asks for a stats export and its aggregate.
// Party filters are optional and passed to the PBX as-is.
type CallsSummaryRequest struct {
	Range TimeRange `json:"range"`

	FromExtension string `json:"from_extension,omitempty"`
	FromNumber    string `json:"from_number,omitempty"`
	ToExtension   string `json:"to_extension,omitempty"`
	ToNumber      string `json:"to_number,omitempty"`

	// Fields selects stats columns. Empty means the default set.
	Fields []string `json:"fields,omitempty"`
}

// CallsSummary is computed in memory from one export; nothing is stored.
type CallsSummary struct {
	TotalCalls int `json:"total_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
	LongestDurationSeconds int `json:"longest_duration_seconds"`

	// RecordedCalls counts rows with at least one recording id.
	RecordedCalls int `json:"recorded_calls"`

	ByDisconnectReason map[string]int `json:"by_disconnect_reason,omitempty"`
	ByFromExtension    map[string]int `json:"by_from_extension,omitempty"`
}

type CallsReport struct {
	Range   TimeRange          `json:"range"`
	Summary CallsSummary       `json:"summary"`
	Records []vpbx.StatsRecord `json:"records"`
}
