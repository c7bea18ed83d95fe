package vpbx

import (
	"errors"
	"testing"
	"time"
)

func TestParseStatsCSV_TypedFields(t *testing.T) {
	records := ParseStatsCSV([]byte("a;[b,c];1700000000\n"), []string{FieldFromNumber, FieldRecords, FieldStart})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.FromNumber != "a" {
		t.Fatalf("expected from_number a, got %q", r.FromNumber)
	}
	if len(r.Records) != 2 || r.Records[0] != "b" || r.Records[1] != "c" {
		t.Fatalf("expected [b c], got %v", r.Records)
	}
	if want := time.Unix(1700000000, 0).UTC(); !r.Start.Equal(want) {
		t.Fatalf("expected start %v, got %v", want, r.Start)
	}
}

func TestParseStatsCSV_SkipsEmptyLines(t *testing.T) {
	records := ParseStatsCSV([]byte("a;b\n\nc;d\n"), []string{FieldFromExtension, FieldToExtension})
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].FromExtension != "a" || records[1].ToExtension != "d" {
		t.Fatalf("expected input order, got %+v", records)
	}
}

func TestParseStatsCSV_TrimsBracketsAndSpace(t *testing.T) {
	records := ParseStatsCSV([]byte(" [101] ;[ 202 ]; [2] \n"), []string{FieldFromExtension, FieldToExtension, FieldDisconnectReason})
	r := records[0]
	if r.FromExtension != "101" {
		t.Fatalf("expected 101, got %q", r.FromExtension)
	}
	if r.ToExtension != " 202 " {
		t.Fatalf("expected inner spaces kept, got %q", r.ToExtension)
	}
	if r.DisconnectReason != "2" {
		t.Fatalf("expected 2, got %q", r.DisconnectReason)
	}
}

func TestParseStatsCSV_PositionalZip(t *testing.T) {
	fields := []string{FieldFromExtension, FieldToExtension}

	extra := ParseStatsCSV([]byte("1;2;3;4\n"), fields)[0]
	if extra.FromExtension != "1" || extra.ToExtension != "2" {
		t.Fatalf("unexpected zip with extra values: %+v", extra)
	}

	short := ParseStatsCSV([]byte("1\n"), fields)[0]
	if short.FromExtension != "1" {
		t.Fatalf("expected first field set, got %+v", short)
	}
	if short.Has(FieldToExtension) {
		t.Fatalf("expected missing value to leave field undeclared")
	}
}

func TestParseStatsCSV_EmptyBody(t *testing.T) {
	records := ParseStatsCSV(nil, DefaultStatsFields)
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty, non-nil slice, got %v", records)
	}
}

func TestStatsRecord_UndeclaredVersusEmpty(t *testing.T) {
	r := ParseStatsCSV([]byte(";x\n"), []string{FieldFromNumber, FieldToNumber})[0]

	v, err := r.Value(FieldFromNumber)
	if err != nil {
		t.Fatalf("expected declared field, got %v", err)
	}
	if v != "" {
		t.Fatalf("expected empty value, got %v", v)
	}

	if _, err := r.Value(FieldEntryID); !errors.Is(err, ErrUndeclaredField) {
		t.Fatalf("expected ErrUndeclaredField, got %v", err)
	}
	if _, err := r.Value("no_such_field"); !errors.Is(err, ErrUndeclaredField) {
		t.Fatalf("expected ErrUndeclaredField for unknown name, got %v", err)
	}
}

func TestStatsRecord_RecordsDropEmptyEntries(t *testing.T) {
	r := ParseStatsCSV([]byte("[,rec1,,rec2,]\n"), []string{FieldRecords})[0]
	if len(r.Records) != 2 || r.Records[0] != "rec1" || r.Records[1] != "rec2" {
		t.Fatalf("expected [rec1 rec2], got %v", r.Records)
	}

	empty := ParseStatsCSV([]byte("[]\n"), []string{FieldRecords})[0]
	if !empty.Has(FieldRecords) || len(empty.Records) != 0 {
		t.Fatalf("expected declared, empty records, got %+v", empty)
	}
}

func TestStatsRecord_Duration(t *testing.T) {
	r := ParseStatsCSV([]byte("1700000000;1700000090\n"), []string{FieldStart, FieldFinish})[0]
	if r.Duration() != 90*time.Second {
		t.Fatalf("expected 90s, got %v", r.Duration())
	}

	bad := ParseStatsCSV([]byte("x;1700000090\n"), []string{FieldStart, FieldFinish})[0]
	if !bad.Has(FieldStart) || !bad.Start.IsZero() {
		t.Fatalf("expected malformed timestamp to parse as zero time")
	}
	if bad.Duration() != 0 {
		t.Fatalf("expected zero duration without start")
	}
}
