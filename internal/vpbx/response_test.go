package vpbx

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteResponse_MethodFailureWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteResponse(w, NewProviderError(CodeBadSignature), StatusMethodFailure); err != nil {
		t.Fatalf("write: %v", err)
	}
	if w.Code != 420 {
		t.Fatalf("expected 420, got %d", w.Code)
	}
	if got := w.Body.String(); got != `{"code":3102,"message":"signature does not match"}` {
		t.Fatalf("unexpected body %s", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected json content type, got %q", ct)
	}
}

func TestWriteResponse_OtherStatusesBecomeOK(t *testing.T) {
	for _, status := range []int{0, http.StatusOK, http.StatusInternalServerError} {
		w := httptest.NewRecorder()
		if err := WriteResponse(w, "done", status); err != nil {
			t.Fatalf("write: %v", err)
		}
		if w.Code != http.StatusOK {
			t.Fatalf("status %d: expected 200, got %d", status, w.Code)
		}
		if w.Body.String() != "done" {
			t.Fatalf("expected raw body, got %q", w.Body.String())
		}
	}
}

func TestWriteResponse_NilBody(t *testing.T) {
	w := httptest.NewRecorder()
	if err := WriteResponse(w, nil, http.StatusOK); err != nil {
		t.Fatalf("write: %v", err)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", w.Body.String())
	}
}
