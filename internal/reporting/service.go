package reporting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vpbx-platform/internal/telephony"
	"vpbx-platform/internal/vpbx"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Source exports call statistics for a time range.
// telephony.CallControl satisfies it.
type Source interface {
	FetchStats(ctx context.Context, req telephony.StatsRequest) ([]vpbx.StatsRecord, error)
}

type Service struct {
	src Source
}

func NewService(src Source) *Service { return &Service{src: src} }

// CallsSummary exports stats for req.Range and aggregates them.
func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsReport, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallsReport{}, ErrInvalidRequest
	}
	if s.src == nil {
		return CallsReport{}, errors.New("reporting: stats source not configured")
	}

	rows, err := s.src.FetchStats(ctx, telephony.StatsRequest{
		From:          req.Range.From,
		To:            req.Range.To,
		FromExtension: req.FromExtension,
		FromNumber:    req.FromNumber,
		ToExtension:   req.ToExtension,
		ToNumber:      req.ToNumber,
		Fields:        req.Fields,
	})
	if err != nil {
		return CallsReport{}, err
	}
	if rows == nil {
		rows = []vpbx.StatsRecord{}
	}
	return CallsReport{Range: req.Range, Summary: Summarize(rows), Records: rows}, nil
}

// Summarize aggregates records. Durations only count rows that carry both
// start and finish.
func Summarize(records []vpbx.StatsRecord) CallsSummary {
	out := CallsSummary{}
	timed := 0
	for _, r := range records {
		out.TotalCalls++

		if r.Has(vpbx.FieldStart) && r.Has(vpbx.FieldFinish) && !r.Start.IsZero() && !r.Finish.IsZero() {
			secs := int(r.Duration() / time.Second)
			timed++
			out.TotalDurationSeconds += secs
			if secs > out.LongestDurationSeconds {
				out.LongestDurationSeconds = secs
			}
		}
		if len(r.Records) > 0 {
			out.RecordedCalls++
		}
		if r.Has(vpbx.FieldDisconnectReason) {
			if out.ByDisconnectReason == nil {
				out.ByDisconnectReason = map[string]int{}
			}
			out.ByDisconnectReason[r.DisconnectReason]++
		}
		if r.Has(vpbx.FieldFromExtension) && r.FromExtension != "" {
			if out.ByFromExtension == nil {
				out.ByFromExtension = map[string]int{}
			}
			out.ByFromExtension[r.FromExtension]++
		}
	}
	if timed > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / timed
	}
	return out
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// ParseTime accepts RFC3339, "2006-01-02 15:04:05", "2006-01-02" (all UTC
// when no zone is given) or unix seconds.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty time", ErrInvalidRequest)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized time %q", ErrInvalidRequest, s)
}
