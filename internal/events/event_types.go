package events

import (
	"time"

	"github.com/spec-kit/queue-repair/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventTicketsCleanedUp    EventType = "tickets_cleaned_up"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int         `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Device    string `json:"device"`
	Issue     string `json:"issue"`
	Submitted string `json:"submitted"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	DateRepaired string              `json:"date_repaired"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	Device string `json:"device"`
}

// TicketsCleanedUpPayload payload.
type TicketsCleanedUpPayload struct {
	RemovedIDs []int     `json:"removed_ids"`
	Cutoff     time.Time `json:"cutoff"`
}
