package vpbx

import (
	"bytes"
	"context"
	"strings"
	"time"
)

// StatsQuery selects calls for a stats export.
type StatsQuery struct {
	From time.Time
	To   time.Time

	// Optional caller filters.
	FromExtension string
	FromNumber    string
	// Optional callee filters.
	ToExtension string
	ToNumber    string

	// Fields is the ordered column list; DefaultStatsFields when empty.
	Fields []string

	// RequestID defaults to a hash of the query payload.
	RequestID string
}

func (q StatsQuery) fieldList() []string {
	src := q.Fields
	if len(src) == 0 {
		src = DefaultStatsFields
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// filterPayload is the part of the query that request_id is derived from.
func (q StatsQuery) filterPayload() Payload {
	p := Payload{
		{Key: "date_from", Value: q.From.Unix()},
		{Key: "date_to", Value: q.To.Unix()},
	}
	if party := partyPayload(q.FromExtension, q.FromNumber); party != nil {
		p.Set("from", party)
	}
	if party := partyPayload(q.ToExtension, q.ToNumber); party != nil {
		p.Set("to", party)
	}
	return p
}

func partyPayload(extension, number string) Payload {
	var p Payload
	if extension != "" {
		p.Set("extension", extension)
	}
	if number != "" {
		p.Set("number", number)
	}
	return p
}

// StatsTicket is a submitted stats query waiting to be redeemed.
type StatsTicket struct {
	Key       string
	RequestID string
	Fields    []string
}

// Stats runs the full export: submit the query, fetch the CSV, parse it.
//
// Provider rejections come back as *ProviderError, a missing key as ErrNoData.
func (c *Client) Stats(ctx context.Context, q StatsQuery) ([]StatsRecord, error) {
	t, err := c.SubmitStats(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.FetchStats(ctx, t)
}

// SubmitStats posts the query to stats/request and returns the key to poll with.
// Each submission is its own request, so no command_id is sent.
func (c *Client) SubmitStats(ctx context.Context, q StatsQuery) (StatsTicket, error) {
	if !c.signer.creds.Valid() {
		return StatsTicket{}, ErrMissingCredentials
	}

	data := q.filterPayload()
	requestID := q.RequestID
	if requestID == "" {
		derived, err := c.deriveID(data)
		if err != nil {
			return StatsTicket{}, err
		}
		requestID = derived
	}
	fields := q.fieldList()
	data.Set("fields", strings.Join(fields, ","))
	data.Set("request_id", requestID)

	resp, err := c.Execute(ctx, EndpointStatsRequest, data, SkipCommandID)
	if err != nil {
		return StatsTicket{}, err
	}
	key, ok := resp.String("key")
	if !ok || key == "" {
		c.log.Info("stats request returned no key", "request_id", requestID)
		return StatsTicket{}, ErrNoData
	}
	return StatsTicket{Key: key, RequestID: requestID, Fields: fields}, nil
}

// FetchStats redeems a ticket at stats/result.
//
// The provider answers with a JSON error code or raw CSV. An empty body means
// the export is not ready yet; it is re-polled up to Options.PollAttempts times.
func (c *Client) FetchStats(ctx context.Context, t StatsTicket) ([]StatsRecord, error) {
	fields := t.Fields
	if len(fields) == 0 {
		fields = DefaultStatsFields
	}
	data := Payload{
		{Key: "key", Value: t.Key},
		{Key: "request_id", Value: t.RequestID},
	}

	for attempt := 1; ; attempt++ {
		resp, err := c.Execute(ctx, EndpointStatsResult, data, SkipCommandID)
		if err != nil {
			return nil, err
		}

		if resp.IsJSON() {
			if code, ok := resp.Code("code"); ok {
				c.metrics.ObserveStatsPoll("provider_error")
				return nil, NewProviderError(code)
			}
			c.metrics.ObserveStatsPoll("unexpected_json")
			c.log.Warn("stats result is json without code", "request_id", t.RequestID)
			return []StatsRecord{}, nil
		}

		if len(bytes.TrimSpace(resp.Body)) > 0 || attempt >= c.pollAttempts {
			c.metrics.ObserveStatsPoll("ready")
			records := ParseStatsCSV(resp.Body, fields)
			c.metrics.AddStatsRecords(len(records))
			return records, nil
		}

		c.metrics.ObserveStatsPoll("not_ready")
		c.log.Debug("stats result not ready", "request_id", t.RequestID, "attempt", attempt)
		if err := sleepContext(ctx, c.pollInterval); err != nil {
			return nil, err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
