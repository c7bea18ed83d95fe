package vpbx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// Inbound form fields sent by the provider.
const (
	ParamAPIKey = "vpbx_api_key"
	ParamSign   = "sign"
	ParamJSON   = "json"
)

// InboundCommand is a verified webhook payload.
type InboundCommand struct {
	// Raw is the json field exactly as received.
	Raw json.RawMessage
	// Value is Raw decoded, any JSON value; numbers are json.Number.
	Value any
	// Data is Value when it is an object, nil otherwise.
	Data map[string]any
	// Sign is the verified signature, unique per payload.
	Sign string
}

// String returns a top-level field rendered as a string.
func (c InboundCommand) String(key string) string {
	switch v := c.Data[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

// Verifier authenticates provider webhooks.
// It keeps no per-request state and is safe for concurrent use.
type Verifier struct {
	signer *Signer
}

func NewVerifier(creds Credentials) *Verifier {
	return &Verifier{signer: NewSigner(creds)}
}

// Decode checks, in order: configured credentials (ErrMissingCredentials),
// api key (3105), signature (3102), method (3101). The first failing check wins.
// Rejections are returned as *ProviderError so the handler can always reply.
func (v *Verifier) Decode(r *http.Request) (InboundCommand, error) {
	if !v.signer.creds.Valid() {
		return InboundCommand{}, ErrMissingCredentials
	}

	apiKey := requestValue(r, ParamAPIKey)
	sign := requestValue(r, ParamSign)
	raw := requestValue(r, ParamJSON)

	if apiKey != v.signer.APIKey() {
		return InboundCommand{}, NewProviderError(CodeUnknownKey)
	}
	ok, err := v.signer.Verify(raw, sign)
	if err != nil {
		return InboundCommand{}, err
	}
	if !ok {
		return InboundCommand{}, NewProviderError(CodeBadSignature)
	}
	if r.Method != http.MethodPost {
		return InboundCommand{}, NewProviderError(CodeBadMethod)
	}

	value, err := decodeValue(raw)
	if err != nil {
		return InboundCommand{}, NewProviderError(CodeInvalidFormat)
	}
	data, _ := value.(map[string]any)
	return InboundCommand{Raw: json.RawMessage(raw), Value: value, Data: data, Sign: sign}, nil
}

// decodeValue decodes exactly one JSON value; trailing bytes are an error.
func decodeValue(raw string) (any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("vpbx: trailing data after json value")
	}
	return v, nil
}

// requestValue looks in the query string first, then the form body.
func requestValue(r *http.Request, key string) string {
	if vs, ok := r.URL.Query()[key]; ok && len(vs) > 0 {
		return vs[0]
	}
	return r.PostFormValue(key)
}
