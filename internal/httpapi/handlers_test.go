package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"vpbx-platform/internal/audit"
	"vpbx-platform/internal/auth"
	"vpbx-platform/internal/calls"
	"vpbx-platform/internal/reporting"
	"vpbx-platform/internal/telephony"
	"vpbx-platform/internal/vpbx"
	"vpbx-platform/pkg/logger"
)

type fakeProvider struct {
	result telephony.CommandResult
	err    error
	rows   []vpbx.StatsRecord
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) PlaceCall(context.Context, telephony.PlaceCallRequest) (telephony.CommandResult, error) {
	return f.result, f.err
}

func (f *fakeProvider) Hangup(context.Context, telephony.HangupRequest) (telephony.CommandResult, error) {
	return f.result, f.err
}

func (f *fakeProvider) FetchStats(context.Context, telephony.StatsRequest) ([]vpbx.StatsRecord, error) {
	return f.rows, f.err
}

func newRouter(p *fakeProvider) (*gin.Engine, *audit.MemoryRepo) {
	gin.SetMode(gin.TestMode)
	repo := audit.NewMemoryRepo()
	auditSvc := audit.NewService(repo)
	h := Handlers{
		Calls:   calls.NewService(p, auditSvc, logger.Discard()),
		Reports: reporting.NewService(p),
		Audit:   auditSvc,
	}

	r := gin.New()
	r.Use(logger.Middleware(logger.Discard()))
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), auth.Identity{UserID: "u1", Role: "operator"}))
		c.Next()
	})
	r.POST("/v1/calls", h.PlaceCall)
	r.POST("/v1/calls/hangup", h.Hangup)
	r.POST("/v1/stats", h.Stats)
	return r, repo
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPlaceCall_OK(t *testing.T) {
	p := &fakeProvider{result: telephony.CommandResult{Endpoint: vpbx.EndpointCallback, CommandID: "cmd-1", ResultCode: 1000}}
	r, repo := newRouter(p)

	w := postJSON(r, "/v1/calls", `{"from_extension":"101","to_number":"74951234567"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var res telephony.CommandResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.CommandID != "cmd-1" || res.ResultCode != 1000 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if evs := repo.Events(); len(evs) != 1 || evs[0].ActorUserID != "u1" {
		t.Fatalf("expected journaled command, got %+v", evs)
	}
}

func TestPlaceCall_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"missing fields", `{"from_extension":"101"}`, nil, http.StatusBadRequest},
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"undialable", `{"from_extension":"101","to_number":"abc"}`, nil, http.StatusBadRequest},
		{"provider rejection", `{"from_extension":"101","to_number":"1"}`, vpbx.NewProviderError(vpbx.CodeBadSignature), http.StatusUnprocessableEntity},
		{"transport", `{"from_extension":"101","to_number":"1"}`, &vpbx.TransportError{Endpoint: "commands/callback", StatusCode: 500, Err: errors.New("boom")}, http.StatusBadGateway},
		{"timeout", `{"from_extension":"101","to_number":"1"}`, &vpbx.TransportError{Endpoint: "commands/callback", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"credentials", `{"from_extension":"101","to_number":"1"}`, vpbx.ErrMissingCredentials, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newRouter(&fakeProvider{err: tc.err})
			if w := postJSON(r, "/v1/calls", tc.body); w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestHangup_ProviderRejectionCarriesCommandID(t *testing.T) {
	p := &fakeProvider{
		result: telephony.CommandResult{CommandID: "cmd-9", ResultCode: 3300},
		err:    vpbx.NewProviderError(vpbx.CodeNotFound),
	}
	r, _ := newRouter(p)

	w := postJSON(r, "/v1/calls/hangup", `{"call_id":"c1"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["command_id"] != "cmd-9" || body["code"] != float64(3300) {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestStats_ReturnsRecordsAndSummary(t *testing.T) {
	rows := vpbx.ParseStatsCSV([]byte("[1700000000];[1700000060];101\n"), []string{vpbx.FieldStart, vpbx.FieldFinish, vpbx.FieldFromExtension})
	r, repo := newRouter(&fakeProvider{rows: rows})

	w := postJSON(r, "/v1/stats", `{"from":"2023-11-14","to":"2023-11-15"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var rep reporting.CallsReport
	if err := json.Unmarshal(w.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rep.Summary.TotalCalls != 1 || rep.Summary.TotalDurationSeconds != 60 || len(rep.Records) != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if evs := repo.Events(); len(evs) != 1 || evs[0].Type != audit.EventTypeStatsRequested {
		t.Fatalf("expected stats request journaled, got %+v", evs)
	}
}

func TestStats_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"bad from", `{"from":"soon","to":"2023-11-15"}`, nil, http.StatusBadRequest},
		{"empty range", `{"from":"2023-11-15","to":"2023-11-15"}`, nil, http.StatusBadRequest},
		{"no data", `{"from":"2023-11-14","to":"2023-11-15"}`, vpbx.ErrNoData, http.StatusNotFound},
		{"provider code", `{"from":"2023-11-14","to":"2023-11-15"}`, vpbx.NewProviderError(vpbx.CodeNotFound), http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := newRouter(&fakeProvider{err: tc.err})
			if w := postJSON(r, "/v1/stats", tc.body); w.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}
