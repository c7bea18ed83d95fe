package vpbx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func signedForm(t *testing.T, creds Credentials, raw string) url.Values {
	t.Helper()
	sign, err := NewSigner(creds).Sign(raw)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	form := url.Values{}
	form.Set(ParamAPIKey, creds.APIKey)
	form.Set(ParamSign, sign)
	form.Set(ParamJSON, raw)
	return form
}

func postForm(form url.Values) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/events/call", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func wantProviderCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError %d, got %v", code, err)
	}
	if pe.Code != code {
		t.Fatalf("expected code %d, got %d", code, pe.Code)
	}
}

func TestDecode_Valid(t *testing.T) {
	raw := `{"entry_id":"e1","call_id":"c1","seq":3}`
	form := signedForm(t, testCreds, raw)

	cmd, err := NewVerifier(testCreds).Decode(postForm(form))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(cmd.Raw) != raw {
		t.Fatalf("expected raw json kept, got %s", cmd.Raw)
	}
	if cmd.String("call_id") != "c1" || cmd.String("seq") != "3" {
		t.Fatalf("unexpected data %v", cmd.Data)
	}
	if cmd.Sign != form.Get(ParamSign) {
		t.Fatalf("expected sign carried over")
	}
}

func TestDecode_UnknownKey(t *testing.T) {
	form := signedForm(t, testCreds, `{"a":1}`)
	form.Set(ParamAPIKey, "other-key")

	_, err := NewVerifier(testCreds).Decode(postForm(form))
	wantProviderCode(t, err, CodeUnknownKey)
}

func TestDecode_TamperedJSON(t *testing.T) {
	form := signedForm(t, testCreds, `{"a":1}`)
	form.Set(ParamJSON, `{"a":2}`)

	_, err := NewVerifier(testCreds).Decode(postForm(form))
	wantProviderCode(t, err, CodeBadSignature)
}

func TestDecode_WrongMethod(t *testing.T) {
	form := signedForm(t, testCreds, `{"a":1}`)
	r := httptest.NewRequest(http.MethodGet, "/events/call?"+form.Encode(), nil)

	_, err := NewVerifier(testCreds).Decode(r)
	wantProviderCode(t, err, CodeBadMethod)
}

func TestDecode_CheckOrder(t *testing.T) {
	// wrong key, bad signature and GET together: the key check wins
	form := signedForm(t, testCreds, `{"a":1}`)
	form.Set(ParamAPIKey, "nope")
	form.Set(ParamSign, "bad")
	r := httptest.NewRequest(http.MethodGet, "/events/call?"+form.Encode(), nil)

	_, err := NewVerifier(testCreds).Decode(r)
	wantProviderCode(t, err, CodeUnknownKey)

	// bad signature and GET: the signature check wins
	form = signedForm(t, testCreds, `{"a":1}`)
	form.Set(ParamSign, "bad")
	r = httptest.NewRequest(http.MethodGet, "/events/call?"+form.Encode(), nil)

	_, err = NewVerifier(testCreds).Decode(r)
	wantProviderCode(t, err, CodeBadSignature)
}

func TestDecode_MissingCredentials(t *testing.T) {
	form := signedForm(t, testCreds, `{"a":1}`)

	_, err := NewVerifier(Credentials{APIKey: testCreds.APIKey}).Decode(postForm(form))
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		t.Fatalf("missing credentials must not map to a provider code")
	}
}

func TestDecode_SignedButMalformedJSON(t *testing.T) {
	form := signedForm(t, testCreds, `not json`)

	_, err := NewVerifier(testCreds).Decode(postForm(form))
	wantProviderCode(t, err, CodeInvalidFormat)
}

func TestDecode_TrailingDataAfterObject(t *testing.T) {
	for _, raw := range []string{`{"a":1} trailing`, `{"a":1}{"b":2}`} {
		form := signedForm(t, testCreds, raw)

		_, err := NewVerifier(testCreds).Decode(postForm(form))
		wantProviderCode(t, err, CodeInvalidFormat)
	}
}

func TestDecode_NonObjectValue(t *testing.T) {
	form := signedForm(t, testCreds, `[1,"two"]`)

	cmd, err := NewVerifier(testCreds).Decode(postForm(form))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	arr, ok := cmd.Value.([]any)
	if !ok || len(arr) != 2 {
		t.Fatalf("expected array value, got %#v", cmd.Value)
	}
	if cmd.Data != nil || cmd.String("a") != "" {
		t.Fatalf("expected no object view for an array")
	}
}

func TestDecode_QueryTakesPrecedence(t *testing.T) {
	good := signedForm(t, testCreds, `{"a":1}`)
	body := url.Values{}
	body.Set(ParamAPIKey, "body-key")
	body.Set(ParamSign, "body-sign")
	body.Set(ParamJSON, `{"a":2}`)

	r := httptest.NewRequest(http.MethodPost, "/events/call?"+good.Encode(), strings.NewReader(body.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	cmd, err := NewVerifier(testCreds).Decode(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cmd.String("a") != "1" {
		t.Fatalf("expected query values to win, got %v", cmd.Data)
	}
}
