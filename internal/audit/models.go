package audit

import "time"

// Event is an immutable, append-only journal record of commands issued to
// the PBX. It holds who sent what and when, never call contents.
//
// Invariants:
// - Events are never updated or deleted.
// - actor and ip capture are best-effort; do not block command flows on audit failures.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// Endpoint is the provider command path, e.g. commands/callback.
	Endpoint  string `json:"endpoint,omitempty" db:"endpoint"`
	CommandID string `json:"command_id,omitempty" db:"command_id"`

	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`
	IPAddress   string `json:"ip_address,omitempty" db:"ip_address"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`
	// Metadata is optional JSON, e.g. the provider result code.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventTypeCommandSent    EventType = "command_sent"
	EventTypeStatsRequested EventType = "stats_requested"
)

// Actor identifies who issued a command.
type Actor struct {
	UserID string
	Role   string
	IP     string
}
