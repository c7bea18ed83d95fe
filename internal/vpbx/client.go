package vpbx

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"vpbx-platform/internal/metrics"
)

// DefaultBaseURL is the provider's production API root.
const DefaultBaseURL = "https://app.mango-office.ru/vpbx/"

// Provider endpoints, relative to the base URL.
const (
	EndpointCallback     = "commands/callback"
	EndpointCallHangup   = "commands/call/hangup"
	EndpointStatsRequest = "stats/request"
	EndpointStatsResult  = "stats/result"
)

// Options tune the client. Zero values get safe defaults.
type Options struct {
	BaseURL string

	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
	Timeout    time.Duration

	// PollAttempts bounds how many times stats/result is asked while the
	// provider answers with an empty body. 1 means a single request.
	PollAttempts int
	PollInterval time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (o Options) withDefaults() Options {
	out := o
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(out.BaseURL, "/") {
		out.BaseURL += "/"
	}
	if out.Timeout <= 0 {
		out.Timeout = 30 * time.Second
	}
	if out.HTTPClient == nil {
		out.HTTPClient = &http.Client{Timeout: out.Timeout}
	}
	if out.PollAttempts <= 0 {
		out.PollAttempts = 1
	}
	if out.PollInterval <= 0 {
		out.PollInterval = 2 * time.Second
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return out
}

// Client sends signed commands to the provider.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	signer  *Signer
	baseURL string
	http    *http.Client

	pollAttempts int
	pollInterval time.Duration

	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewClient(creds Credentials, opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		signer:       NewSigner(creds),
		baseURL:      opts.BaseURL,
		http:         opts.HTTPClient,
		pollAttempts: opts.PollAttempts,
		pollInterval: opts.PollInterval,
		log:          opts.Logger,
		metrics:      opts.Metrics,
	}
}

// Signer exposes the client's signer, e.g. to build a Verifier with the same credentials.
func (c *Client) Signer() *Signer { return c.signer }

type commandIDMode int

const (
	commandIDAuto commandIDMode = iota
	commandIDSkip
	commandIDExplicit
)

// CommandID selects how the command_id idempotency token is set.
// The zero value derives one from the payload and its signature, so identical
// submissions share a token and the provider deduplicates them.
type CommandID struct {
	mode  commandIDMode
	value string
}

// SkipCommandID omits command_id from the payload entirely.
var SkipCommandID = CommandID{mode: commandIDSkip}

// ExplicitCommandID sends id verbatim. An empty id falls back to derivation.
func ExplicitCommandID(id string) CommandID {
	if id == "" {
		return CommandID{}
	}
	return CommandID{mode: commandIDExplicit, value: id}
}

// Response is the provider's answer. Body is always kept; Fields is set only
// when the body decodes as a JSON object.
type Response struct {
	StatusCode int
	Body       []byte
	Fields     map[string]any

	// CommandID is the token sent with the command, empty when skipped.
	CommandID string
}

func (r *Response) IsJSON() bool { return r != nil && r.Fields != nil }

// String returns a top-level JSON field rendered as a string.
func (r *Response) String(key string) (string, bool) {
	if !r.IsJSON() {
		return "", false
	}
	switch v := r.Fields[key].(type) {
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// Code returns the integer under key, used for "code" and "result".
func (r *Response) Code(key string) (ErrorCode, bool) {
	s, ok := r.String(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return ErrorCode(n), true
}

// CallRequest initiates a callback: the provider rings the FromExtension
// employee, then dials ToNumber.
type CallRequest struct {
	FromExtension string
	ToNumber      string
	// CallerNumber overrides the number presented for the employee. Optional.
	CallerNumber string
	CommandID    CommandID
}

func (c *Client) SendCall(ctx context.Context, req CallRequest) (*Response, error) {
	from := Payload{{Key: "extension", Value: req.FromExtension}}
	if req.CallerNumber != "" {
		from.Set("number", req.CallerNumber)
	}
	fields := Payload{
		{Key: "from", Value: from},
		{Key: "to_number", Value: req.ToNumber},
	}
	return c.Execute(ctx, EndpointCallback, fields, req.CommandID)
}

func (c *Client) SendCallHangup(ctx context.Context, id CommandID, callID string) (*Response, error) {
	fields := Payload{{Key: "call_id", Value: callID}}
	return c.Execute(ctx, EndpointCallHangup, fields, id)
}

// Execute signs fields and POSTs them to endpoint. It never retries.
func (c *Client) Execute(ctx context.Context, endpoint string, fields Payload, id CommandID) (*Response, error) {
	if !c.signer.creds.Valid() {
		return nil, ErrMissingCredentials
	}

	body := fields.Clone()
	commandID := ""
	switch id.mode {
	case commandIDSkip:
	case commandIDExplicit:
		commandID = id.value
	default:
		derived, err := c.deriveID(fields)
		if err != nil {
			return nil, err
		}
		commandID = derived
	}
	if commandID != "" {
		body.Set("command_id", commandID)
	}

	raw, err := canonicalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("vpbx: encode %s payload: %w", endpoint, err)
	}
	sign, err := c.signer.Sign(json.RawMessage(raw))
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("vpbx_api_key", c.signer.APIKey())
	form.Set("sign", sign)
	form.Set("json", string(raw))

	start := time.Now()
	resp, err := c.post(ctx, endpoint, form)
	dur := time.Since(start)
	if err != nil {
		c.metrics.ObserveCommand(endpoint, "transport_error", dur)
		c.log.Warn("vpbx command failed", "endpoint", endpoint, "command_id", commandID, "duration_ms", dur.Milliseconds(), "err", err)
		return nil, err
	}
	resp.CommandID = commandID

	c.metrics.ObserveCommand(endpoint, "ok", dur)
	c.log.Debug("vpbx command sent", "endpoint", endpoint, "command_id", commandID, "status", resp.StatusCode, "json", resp.IsJSON(), "duration_ms", dur.Milliseconds())
	return resp, nil
}

// deriveID hashes the payload together with its signature.
func (c *Client) deriveID(fields Payload) (string, error) {
	raw, err := canonicalJSON(fields)
	if err != nil {
		return "", err
	}
	sign, err := c.signer.Sign(json.RawMessage(raw))
	if err != nil {
		return "", err
	}
	sum := md5.Sum(append(raw, sign...))
	return hex.EncodeToString(sum[:]), nil
}

func (c *Client) post(ctx context.Context, endpoint string, form url.Values) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, StatusCode: httpResp.StatusCode, Err: err}
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, &TransportError{
			Endpoint:   endpoint,
			StatusCode: httpResp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", truncate(body, 256)),
		}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Body:       body,
		Fields:     decodeObject(body),
	}, nil
}

// decodeObject returns the body as a JSON object, or nil for anything else.
func decodeObject(body []byte) map[string]any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	return out
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
