package dto

import (
	"github.com/spec-kit/queue-repair/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Device    string `json:"device" form:"device"`
	Serial    string `json:"serial" form:"serial"`
	Issue     string `json:"issue" form:"issue"`
	Submitted string `json:"submitted" form:"submitted"`
	Contact   string `json:"contact" form:"contact"`
}

// TicketResponse mirrors the stored record.
type TicketResponse struct {
	ID            int                 `json:"id"`
	Device        string              `json:"device"`
	Serial        string              `json:"serial"`
	Issue         string              `json:"issue"`
	Submitted     string              `json:"submitted"`
	Contact       string              `json:"contact"`
	Status        domain.TicketStatus `json:"status"`
	DateSubmitted string              `json:"date_submitted"`
	DateRepaired  string              `json:"date_repaired"`
}

// ListMeta accompanies list responses.
type ListMeta struct {
	Matched int    `json:"matched"`
	Total   int    `json:"total"`
	Summary string `json:"summary"`
}

// TransitionMeta reports whether a status change happened.
type TransitionMeta struct {
	Changed bool   `json:"changed"`
	Message string `json:"message"`
}

// DashboardResponse carries counts, percentages and recent activity.
type DashboardResponse struct {
	Total       int                `json:"total"`
	Counts      map[string]int     `json:"counts"`
	Percentages map[string]float64 `json:"percentages,omitempty"`
	NoData      bool               `json:"no_data"`
	Recent      []ActivityEntry    `json:"recent"`
}

// ActivityEntry is one recent-activity row.
type ActivityEntry struct {
	ID            int                 `json:"id"`
	Status        domain.TicketStatus `json:"status"`
	Device        string              `json:"device"`
	DateSubmitted string              `json:"date_submitted"`
	Line          string              `json:"line"`
}

// ExportRequest payload. Search is optional.
type ExportRequest struct {
	Search string `json:"search" form:"search"`
}

// ExportResponse names the written file.
type ExportResponse struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

// CleanupResponse reports removed tickets.
type CleanupResponse struct {
	Removed int `json:"removed"`
}

// NewTicketResponse converts a domain ticket.
func NewTicketResponse(t domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		Device:        t.Device,
		Serial:        t.Serial,
		Issue:         t.Issue,
		Submitted:     t.Submitted,
		Contact:       t.Contact,
		Status:        t.Status,
		DateSubmitted: t.DateSubmitted,
		DateRepaired:  t.DateRepaired,
	}
}

// NewTicketResponses converts a slice, never returning nil.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		items = append(items, NewTicketResponse(t))
	}
	return items
}
