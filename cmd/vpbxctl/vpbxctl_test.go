package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vpbx-platform/internal/calls"
	"vpbx-platform/internal/reporting"
	"vpbx-platform/internal/vpbx"
)

func TestFormatCell(t *testing.T) {
	rows := vpbx.ParseStatsCSV([]byte("[a,b];[1700000000];;101\n"), []string{
		vpbx.FieldRecords, vpbx.FieldStart, vpbx.FieldFinish, vpbx.FieldFromExtension,
	})
	r := rows[0]

	cases := map[string]string{
		vpbx.FieldRecords:       "a,b",
		vpbx.FieldStart:         "2023-11-14 22:13:20",
		vpbx.FieldFinish:        "-",
		vpbx.FieldFromExtension: "101",
		vpbx.FieldToNumber:      "-",
	}
	for field, want := range cases {
		if got := formatCell(r, field); got != want {
			t.Fatalf("%s: expected %q, got %q", field, want, got)
		}
	}
}

func TestPrintSummary_SortedReasons(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, reporting.CallsSummary{
		TotalCalls:         3,
		ByDisconnectReason: map[string]int{"1110": 2, "1100": 1},
	})
	out := buf.String()
	if strings.Index(out, "1100") > strings.Index(out, "1110") {
		t.Fatalf("expected sorted reasons:\n%s", out)
	}
}

func TestRootCommand(t *testing.T) {
	t.Setenv("VPBX_API_KEY", "k")
	t.Setenv("VPBX_API_SALT", "s")
	t.Setenv("JWT_SECRET", "secret")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case vpbx.EndpointCallback:
			_, _ = w.Write([]byte(`{"result":1000}`))
		case vpbx.EndpointStatsRequest:
			_, _ = w.Write([]byte(`{"key":"k1"}`))
		case vpbx.EndpointStatsResult:
			_, _ = w.Write([]byte("[];[1700000000];[1700000060];101;;;74951234567;1110\n"))
		}
	}))
	defer srv.Close()

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v\n%s", args, err, out.String())
		}
		return out.String()
	}

	if out := run("call", "--base-url", srv.URL, "101", "+7 495 123-45-67"); !strings.Contains(out, `"result_code": 1000`) {
		t.Fatalf("unexpected call output: %s", out)
	}

	from := time.Unix(1699990000, 0).UTC().Format(time.RFC3339)
	out := run("stats", "--base-url", srv.URL, "--from", from, "--to", "1700090000")
	if !strings.Contains(out, "2023-11-14 22:13:20") || !strings.Contains(out, "74951234567") {
		t.Fatalf("unexpected stats output: %s", out)
	}

	if tok := strings.TrimSpace(run("token", "--user", "u1", "--role", "analyst")); strings.Count(tok, ".") != 2 {
		t.Fatalf("expected a JWT, got %q", tok)
	}
}

func TestCallCommand_CallerNumber(t *testing.T) {
	t.Setenv("VPBX_API_KEY", "k")
	t.Setenv("VPBX_API_SALT", "s")
	t.Cleanup(func() { callFlags.caller = "" })

	var posted []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posted = append(posted, r.PostFormValue(vpbx.ParamJSON))
		_, _ = w.Write([]byte(`{"result":1000}`))
	}))
	defer srv.Close()

	exec := func(args ...string) error {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(args)
		return rootCmd.Execute()
	}

	if err := exec("call", "--base-url", srv.URL, "--caller", "sip:office@pbx.example", "101", "74951234567"); err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(posted) != 1 || !strings.Contains(posted[0], `"from":{"extension":"101","number":"sip:office@pbx.example"}`) {
		t.Fatalf("expected caller number in payload, got %v", posted)
	}

	if err := exec("call", "--base-url", srv.URL, "--caller", "office?", "101", "74951234567"); !errors.Is(err, calls.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for an undialable caller, got %v", err)
	}
	if len(posted) != 1 {
		t.Fatalf("rejected command must not reach the PBX, got %v", posted)
	}
}
