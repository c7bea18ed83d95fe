package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
// It is append-only: there are no Update/Delete methods.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service journals outbound commands.
// Callers should treat audit logging as best-effort.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s == nil || s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.Type == EventTypeCommandSent && e.Endpoint == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogCommand records a command accepted by the PBX (or rejected with a result code).
func (s *Service) LogCommand(ctx context.Context, actor Actor, endpoint, commandID string, resultCode int) error {
	return s.Append(ctx, Event{
		Type:        EventTypeCommandSent,
		Endpoint:    endpoint,
		CommandID:   commandID,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		IPAddress:   actor.IP,
		Message:     "command sent",
		Metadata:    resultMetadata(resultCode),
	})
}

// LogStatsRequest records a stats export with its date range.
func (s *Service) LogStatsRequest(ctx context.Context, actor Actor, from, to time.Time, records int) error {
	meta, _ := json.Marshal(map[string]any{
		"date_from": from.Unix(),
		"date_to":   to.Unix(),
		"records":   records,
	})
	return s.Append(ctx, Event{
		Type:        EventTypeStatsRequested,
		Endpoint:    "stats/request",
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		IPAddress:   actor.IP,
		Message:     "stats requested",
		Metadata:    string(meta),
	})
}

func resultMetadata(code int) string {
	if code == 0 {
		return ""
	}
	b, _ := json.Marshal(map[string]int{"result": code})
	return string(b)
}
