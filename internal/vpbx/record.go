package vpbx

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// Stats field names understood by the provider.
const (
	FieldRecords          = "records"
	FieldStart            = "start"
	FieldFinish           = "finish"
	FieldFromExtension    = "from_extension"
	FieldFromNumber       = "from_number"
	FieldToExtension      = "to_extension"
	FieldToNumber         = "to_number"
	FieldDisconnectReason = "disconnect_reason"
	FieldEntryID          = "entry_id"
)

// DefaultStatsFields is the column set requested when a query names none.
var DefaultStatsFields = []string{
	FieldRecords,
	FieldStart,
	FieldFinish,
	FieldFromExtension,
	FieldFromNumber,
	FieldToExtension,
	FieldToNumber,
	FieldDisconnectReason,
}

// StatsRecord is one row of a stats result.
//
// Only the fields named in the query are populated; Has/Value tell a declared
// but empty field apart from one that was never requested.
type StatsRecord struct {
	Records          []string  `json:"records,omitempty"`
	Start            time.Time `json:"start,omitzero"`
	Finish           time.Time `json:"finish,omitzero"`
	FromExtension    string    `json:"from_extension,omitempty"`
	FromNumber       string    `json:"from_number,omitempty"`
	ToExtension      string    `json:"to_extension,omitempty"`
	ToNumber         string    `json:"to_number,omitempty"`
	DisconnectReason string    `json:"disconnect_reason,omitempty"`
	EntryID          string    `json:"entry_id,omitempty"`

	declared map[string]struct{}
}

// Has reports whether field was populated from the row.
func (r StatsRecord) Has(field string) bool {
	_, ok := r.declared[field]
	return ok
}

// Value returns a populated field: []string for records, time.Time for
// start/finish, string otherwise. Fields absent from the row yield ErrUndeclaredField.
func (r StatsRecord) Value(field string) (any, error) {
	if !r.Has(field) {
		return nil, ErrUndeclaredField
	}
	switch field {
	case FieldRecords:
		return r.Records, nil
	case FieldStart:
		return r.Start, nil
	case FieldFinish:
		return r.Finish, nil
	case FieldFromExtension:
		return r.FromExtension, nil
	case FieldFromNumber:
		return r.FromNumber, nil
	case FieldToExtension:
		return r.ToExtension, nil
	case FieldToNumber:
		return r.ToNumber, nil
	case FieldDisconnectReason:
		return r.DisconnectReason, nil
	case FieldEntryID:
		return r.EntryID, nil
	}
	return nil, ErrUndeclaredField
}

// Duration is finish minus start, zero when either is missing.
func (r StatsRecord) Duration() time.Duration {
	if r.Start.IsZero() || r.Finish.IsZero() || r.Finish.Before(r.Start) {
		return 0
	}
	return r.Finish.Sub(r.Start)
}

// set stores v under k. Unknown column names are ignored.
func (r *StatsRecord) set(k, v string) {
	switch k {
	case FieldRecords:
		r.Records = splitNonEmpty(v)
	case FieldStart:
		r.Start = parseEpoch(v)
	case FieldFinish:
		r.Finish = parseEpoch(v)
	case FieldFromExtension:
		r.FromExtension = v
	case FieldFromNumber:
		r.FromNumber = v
	case FieldToExtension:
		r.ToExtension = v
	case FieldToNumber:
		r.ToNumber = v
	case FieldDisconnectReason:
		r.DisconnectReason = v
	case FieldEntryID:
		r.EntryID = v
	default:
		return
	}
	if r.declared == nil {
		r.declared = make(map[string]struct{})
	}
	r.declared[k] = struct{}{}
}

// ParseStatsCSV turns a stats/result body into records.
//
// Lines are '\n' separated, values ';' separated. Values are zipped
// positionally with fields: extra values are dropped and missing ones leave
// the field undeclared. Empty lines are skipped.
func ParseStatsCSV(body []byte, fields []string) []StatsRecord {
	out := make([]StatsRecord, 0)
	for _, line := range bytes.Split(body, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		values := strings.Split(string(line), ";")
		var rec StatsRecord
		for i, field := range fields {
			if i >= len(values) {
				break
			}
			rec.set(field, cleanValue(values[i]))
		}
		out = append(out, rec)
	}
	return out
}

// cleanValue strips whitespace, then '[' and ']' from both ends.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.Trim(v, "[")
	return strings.Trim(v, "]")
}

func splitNonEmpty(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseEpoch parses unix seconds. Malformed input yields the zero time.
func parseEpoch(v string) time.Time {
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(n, 0).UTC()
}
