package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/queue-repair/internal/domain"
	"github.com/spec-kit/queue-repair/internal/events"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

// TransitionResult reports the outcome of a status change. Changed is false
// when the ticket was already in the requested state.
type TransitionResult struct {
	Ticket  domain.Ticket
	Changed bool
	Message string
}

// Cross moves between the two terminal states are allowed and restamp date_repaired.
var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusPending:  {domain.TicketStatusRepaired, domain.TicketStatusCanceled},
	domain.TicketStatusRepaired: {domain.TicketStatusCanceled},
	domain.TicketStatusCanceled: {domain.TicketStatusRepaired},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// MarkRepaired moves the ticket to Repaired and stamps date_repaired.
func (s *TicketService) MarkRepaired(ctx context.Context, id int) (TransitionResult, error) {
	return s.transition(ctx, id, domain.TicketStatusRepaired)
}

// CancelRepair moves the ticket to Canceled and stamps date_repaired.
func (s *TicketService) CancelRepair(ctx context.Context, id int) (TransitionResult, error) {
	return s.transition(ctx, id, domain.TicketStatusCanceled)
}

// UpdateStatus applies a transition named by status, for callers that receive it as text.
func (s *TicketService) UpdateStatus(ctx context.Context, id int, status domain.TicketStatus) (TransitionResult, error) {
	return s.transition(ctx, id, status)
}

func (s *TicketService) transition(ctx context.Context, id int, target domain.TicketStatus) (TransitionResult, error) {
	op := "mark_" + strings.ToLower(string(target))
	if !target.Terminal() {
		err := apperrors.NewInvalidTransition("any", string(target))
		s.metrics.RecordOperation(op, err)
		return TransitionResult{}, err
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		err := ticketNotFound(id)
		s.metrics.RecordOperation(op, err)
		return TransitionResult{}, err
	}

	ticket := &s.tickets[idx]
	oldStatus := ticket.Status
	if oldStatus == target {
		result := TransitionResult{Ticket: *ticket, Message: alreadyMessage(target)}
		s.mu.Unlock()
		s.metrics.RecordOperation(op, nil)
		return result, nil
	}
	if !isValidTransition(oldStatus, target) {
		s.mu.Unlock()
		err := apperrors.NewInvalidTransition(string(oldStatus), string(target))
		s.metrics.RecordOperation(op, err)
		return TransitionResult{}, err
	}

	ticket.Status = target
	ticket.DateRepaired = domain.FormatTimestamp(s.now())
	result := TransitionResult{Ticket: *ticket, Changed: true, Message: changedMessage(*ticket)}
	s.refreshGauges()
	err := s.persist(ctx, op)
	s.mu.Unlock()

	s.logger.Info("ticket status changed",
		zap.Int("ticket_id", id),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(target)))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Payload: events.TicketStatusChangedPayload{
			OldStatus:    oldStatus,
			NewStatus:    target,
			DateRepaired: result.Ticket.DateRepaired,
		},
	})
	return result, err
}

func alreadyMessage(status domain.TicketStatus) string {
	if status == domain.TicketStatusCanceled {
		return "This repair is already canceled"
	}
	return "This device is already marked as repaired"
}

func changedMessage(t domain.Ticket) string {
	if t.Status == domain.TicketStatusCanceled {
		return fmt.Sprintf("Repair for '%s' has been canceled", t.Device)
	}
	return fmt.Sprintf("Device '%s' marked as repaired", t.Device)
}
