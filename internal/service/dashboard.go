package service

import (
	"fmt"
	"sort"

	"github.com/spec-kit/queue-repair/internal/domain"
)

const (
	recentActivityLimit = 10
	issuePreviewRunes   = 30
)

// Stats holds per-status ticket counts.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Repaired int `json:"repaired"`
	Canceled int `json:"canceled"`
}

// Percentages returns count/total*100 per status. ok is false when there is no data.
func (s Stats) Percentages() (map[domain.TicketStatus]float64, bool) {
	if s.Total == 0 {
		return nil, false
	}
	total := float64(s.Total)
	return map[domain.TicketStatus]float64{
		domain.TicketStatusPending:  float64(s.Pending) / total * 100,
		domain.TicketStatusRepaired: float64(s.Repaired) / total * 100,
		domain.TicketStatusCanceled: float64(s.Canceled) / total * 100,
	}, true
}

// Count returns the number of tickets in status.
func (s Stats) Count(status domain.TicketStatus) int {
	switch status {
	case domain.TicketStatusPending:
		return s.Pending
	case domain.TicketStatusRepaired:
		return s.Repaired
	case domain.TicketStatusCanceled:
		return s.Canceled
	}
	return 0
}

// Dashboard is the summary view: counts plus the most recently submitted tickets.
type Dashboard struct {
	Stats  Stats
	Recent []domain.Ticket
}

// Aggregate counts tickets by status.
func (s *TicketService) Aggregate() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countStatuses(s.tickets)
}

// Dashboard returns the aggregate counts and the latest submissions, newest first.
func (s *TicketService) Dashboard() Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recent := cloneTickets(s.tickets)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].DateSubmitted > recent[j].DateSubmitted
	})
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}
	return Dashboard{Stats: countStatuses(s.tickets), Recent: recent}
}

// ActivityLine renders a recent-activity entry.
func ActivityLine(t domain.Ticket) string {
	return fmt.Sprintf("[%s] %s - %s...", t.Status, t.Device, truncateRunes(t.Issue, issuePreviewRunes))
}

// Details renders the plain-text block used for copying a ticket elsewhere.
func Details(t domain.Ticket) string {
	return fmt.Sprintf("ID: %d\nDevice: %s\nSerial: %s\nIssue: %s\nStatus: %s",
		t.ID, t.Device, t.Serial, t.Issue, t.Status)
}

func countStatuses(tickets []domain.Ticket) Stats {
	stats := Stats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusPending:
			stats.Pending++
		case domain.TicketStatusRepaired:
			stats.Repaired++
		case domain.TicketStatusCanceled:
			stats.Canceled++
		}
	}
	return stats
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
