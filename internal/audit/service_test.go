package audit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestService_AppendRequiresType(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if err := svc.Append(context.Background(), Event{Type: EventTypeCommandSent}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected endpoint to be required for command events, got %v", err)
	}
}

func TestService_LogCommand(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Unix(1700000000, 0) }

	actor := Actor{UserID: "u", Role: "operator", IP: "1.2.3.4"}
	if err := svc.LogCommand(context.Background(), actor, "commands/callback", "cmd-1", 1000); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	e := evs[0]
	if e.ID == "" || e.Type != EventTypeCommandSent || e.CommandID != "cmd-1" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.IPAddress != "1.2.3.4" || e.ActorRole != "operator" {
		t.Fatalf("expected actor captured: %+v", e)
	}
	if e.Metadata != `{"result":1000}` {
		t.Fatalf("unexpected metadata %q", e.Metadata)
	}
	if !e.CreatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("expected clock time, got %v", e.CreatedAt)
	}
}

func TestService_LogStatsRequest(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	from := time.Unix(1700000000, 0)
	if err := svc.LogStatsRequest(context.Background(), Actor{UserID: "a"}, from, from.Add(time.Hour), 3); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	e := repo.Events()[0]
	if e.Type != EventTypeStatsRequested || !strings.Contains(e.Metadata, `"records":3`) {
		t.Fatalf("unexpected event: %+v", e)
	}
}

func TestService_NilRepo(t *testing.T) {
	var svc *Service
	if err := svc.LogCommand(context.Background(), Actor{}, "commands/callback", "", 0); err == nil {
		t.Fatalf("expected error without repository")
	}
}

func TestPostgresRepo_NilDB(t *testing.T) {
	r := NewPostgresRepo(nil)
	if err := r.Append(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error for nil db")
	}
	if err := r.EnsureSchema(context.Background()); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
