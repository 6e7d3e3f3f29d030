package service

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/queue-repair/internal/domain"
	"github.com/spec-kit/queue-repair/internal/events"
	"github.com/spec-kit/queue-repair/internal/observability"
	"github.com/spec-kit/queue-repair/internal/repository"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

// DefaultRetention is how long repaired tickets are kept before cleanup.
const DefaultRetention = 10 * 24 * time.Hour

// TicketService owns the authoritative ticket set and mirrors it to the repository.
type TicketService struct {
	mu         sync.RWMutex
	tickets    []domain.Ticket
	lastID     int
	repo       repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	validate   *validator.Validate
	retention  time.Duration
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Repository repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Retention  time.Duration
	Clock      func() time.Time
}

// CreateTicketInput describes ticket creation payload.
type CreateTicketInput struct {
	Device    string `json:"device" validate:"required"`
	Serial    string `json:"serial"`
	Issue     string `json:"issue" validate:"required"`
	Submitted string `json:"submitted"`
	Contact   string `json:"contact"`
}

// FilterResult is a filtered view plus the counts shown next to it.
type FilterResult struct {
	Tickets []domain.Ticket
	Matched int
	Total   int
}

// Summary renders the counter line for the view.
func (r FilterResult) Summary() string {
	return fmt.Sprintf("Showing %d of %d devices", r.Matched, r.Total)
}

// NewTicketService constructs the service with an empty ticket set; call Load to populate it.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	retention := deps.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &TicketService{
		tickets:    []domain.Ticket{},
		repo:       deps.Repository,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		validate:   newValidator(),
		retention:  retention,
		now:        clock,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// Retention returns the cleanup age threshold.
func (s *TicketService) Retention() time.Duration {
	return s.retention
}

// StorageName describes where tickets are persisted.
func (s *TicketService) StorageName() string {
	return s.repo.Describe()
}

// Load replaces the in-memory set with the repository snapshot. On corrupt or
// unreadable storage the set becomes empty and the error is returned as a warning.
func (s *TicketService) Load(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.repo.Load(ctx)
	s.metrics.RecordOperation("load", err)
	if err != nil {
		s.logger.Warn("ticket data unavailable; starting empty",
			zap.String("source", s.repo.Describe()), zap.Error(err))
		tickets = []domain.Ticket{}
	}

	s.mu.Lock()
	s.tickets = tickets
	s.lastID = 0
	for _, t := range tickets {
		if t.ID > s.lastID {
			s.lastID = t.ID
		}
	}
	s.refreshGauges()
	out := cloneTickets(s.tickets)
	s.mu.Unlock()

	s.logger.Info("tickets loaded", zap.Int("count", len(out)), zap.String("source", s.repo.Describe()))
	return out, err
}

// Save writes the whole current set to the repository.
func (s *TicketService) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, "save")
}

// persist must be called with s.mu held.
func (s *TicketService) persist(ctx context.Context, op string) error {
	err := s.repo.Save(ctx, s.tickets)
	s.metrics.RecordOperation(op, err)
	if err != nil {
		s.logger.Error("failed to save tickets",
			zap.String("operation", op), zap.String("target", s.repo.Describe()), zap.Error(err))
	}
	return err
}

// CreateTicket validates input, appends a Pending ticket and persists the set.
// When persisting fails the ticket is still kept in memory and returned with the error.
func (s *TicketService) CreateTicket(ctx context.Context, input CreateTicketInput) (*domain.Ticket, error) {
	input = CreateTicketInput{
		Device:    strings.TrimSpace(input.Device),
		Serial:    strings.TrimSpace(input.Serial),
		Issue:     strings.TrimSpace(input.Issue),
		Submitted: strings.TrimSpace(input.Submitted),
		Contact:   strings.TrimSpace(input.Contact),
	}
	if err := s.validate.Struct(input); err != nil {
		s.metrics.RecordOperation("create", err)
		return nil, validationError(err)
	}
	if input.Submitted == "" {
		input.Submitted = domain.UnknownSubmitter
	}

	s.mu.Lock()
	s.lastID = max(s.lastID, maxID(s.tickets)) + 1
	ticket := domain.Ticket{
		ID:            s.lastID,
		Device:        input.Device,
		Serial:        input.Serial,
		Issue:         input.Issue,
		Submitted:     input.Submitted,
		Contact:       input.Contact,
		Status:        domain.TicketStatusPending,
		DateSubmitted: domain.FormatTimestamp(s.now()),
		DateRepaired:  "",
	}
	s.tickets = append(s.tickets, ticket)
	s.refreshGauges()
	err := s.persist(ctx, "create")
	s.mu.Unlock()

	s.logger.Info("ticket created", zap.Int("ticket_id", ticket.ID), zap.String("device", ticket.Device))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Device:    ticket.Device,
			Issue:     ticket.Issue,
			Submitted: ticket.Submitted,
		},
	})
	return &ticket, err
}

// DeleteTicket removes the ticket with id and persists the set. Confirmation
// is the caller's responsibility.
func (s *TicketService) DeleteTicket(ctx context.Context, id int) (*domain.Ticket, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		err := ticketNotFound(id)
		s.metrics.RecordOperation("delete", err)
		return nil, err
	}
	removed := s.tickets[idx]
	s.tickets = append(s.tickets[:idx], s.tickets[idx+1:]...)
	s.refreshGauges()
	err := s.persist(ctx, "delete")
	s.mu.Unlock()

	s.logger.Info("ticket deleted", zap.Int("ticket_id", id), zap.String("device", removed.Device))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Payload:  events.TicketDeletedPayload{Device: removed.Device},
	})
	return &removed, err
}

// GetTicket returns a copy of the ticket with id.
func (s *TicketService) GetTicket(id int) (*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, ticketNotFound(id)
	}
	ticket := s.tickets[idx]
	return &ticket, nil
}

// ListTickets returns a copy of every ticket in insertion order.
func (s *TicketService) ListTickets() []domain.Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTickets(s.tickets)
}

// Filter returns tickets whose device, serial, issue or submitter contains
// query, case-insensitively, in insertion order.
func (s *TicketService) Filter(query string) FilterResult {
	needle := strings.ToLower(query)

	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]domain.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		if t.Matches(needle) {
			matched = append(matched, t)
		}
	}
	return FilterResult{Tickets: matched, Matched: len(matched), Total: len(s.tickets)}
}

// SortBy returns every ticket ordered by field.
func (s *TicketService) SortBy(field string) ([]domain.Ticket, error) {
	return SortTickets(s.ListTickets(), field)
}

// SortTickets returns a copy of tickets sorted ascending by the stringified
// field value. The sort is stable and lexical, so "10" sorts before "9".
func SortTickets(tickets []domain.Ticket, field string) ([]domain.Ticket, error) {
	if _, ok := (domain.Ticket{}).FieldValue(field); !ok {
		return nil, apperrors.NewValidationError("unknown sort field",
			map[string]any{"field": field, "allowed": domain.Fields})
	}
	sorted := cloneTickets(tickets)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, _ := sorted[i].FieldValue(field)
		b, _ := sorted[j].FieldValue(field)
		return a < b
	})
	return sorted, nil
}

// Cleanup removes Repaired tickets whose repair date is at least the retention
// period before now. The set is persisted only when something was removed.
func (s *TicketService) Cleanup(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.retention)

	s.mu.Lock()
	kept := make([]domain.Ticket, 0, len(s.tickets))
	var removed []int
	for _, t := range s.tickets {
		if t.Status == domain.TicketStatusRepaired {
			repairedAt, ok := t.RepairedAt(now.Location())
			if !ok {
				s.logger.Warn("skipping ticket with unreadable repair date",
					zap.Int("ticket_id", t.ID), zap.String("date_repaired", t.DateRepaired))
			} else if now.Sub(repairedAt) >= s.retention {
				removed = append(removed, t.ID)
				continue
			}
		}
		kept = append(kept, t)
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		s.metrics.RecordOperation("cleanup", nil)
		return 0, nil
	}
	s.tickets = kept
	s.refreshGauges()
	err := s.persist(ctx, "cleanup")
	s.mu.Unlock()

	s.logger.Info("repaired tickets cleaned up",
		zap.Int("removed", len(removed)), zap.Time("cutoff", cutoff))
	s.publishEvent(ctx, events.Event{
		Type:    events.EventTicketsCleanedUp,
		Payload: events.TicketsCleanedUpPayload{RemovedIDs: removed, Cutoff: cutoff},
	})
	return len(removed), err
}

// indexOf must be called with s.mu held.
func (s *TicketService) indexOf(id int) int {
	for i := range s.tickets {
		if s.tickets[i].ID == id {
			return i
		}
	}
	return -1
}

// refreshGauges must be called with s.mu held.
func (s *TicketService) refreshGauges() {
	if s.metrics == nil {
		return
	}
	stats := countStatuses(s.tickets)
	s.metrics.SetTicketCounts(stats.Pending, stats.Repaired, stats.Canceled)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func ticketNotFound(id int) error {
	return apperrors.NewNotFound("ticket", map[string]any{"id": id})
}

func validationError(err error) error {
	details := map[string]any{}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = "is required"
		}
	}
	return apperrors.NewValidationError("device and issue are required", details)
}

func maxID(tickets []domain.Ticket) int {
	highest := 0
	for _, t := range tickets {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest
}

func cloneTickets(tickets []domain.Ticket) []domain.Ticket {
	out := make([]domain.Ticket, len(tickets))
	copy(out, tickets)
	return out
}
