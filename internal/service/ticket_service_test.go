package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-repair/internal/domain"
	"github.com/spec-kit/queue-repair/internal/events"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

type fakeRepository struct {
	stored  []domain.Ticket
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	if f.loadErr != nil {
		return []domain.Ticket{}, f.loadErr
	}
	return cloneTickets(f.stored), nil
}

func (f *fakeRepository) Save(ctx context.Context, tickets []domain.Ticket) error {
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.stored = cloneTickets(tickets)
	return nil
}

func (f *fakeRepository) Describe() string { return "fake" }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T, repo *fakeRepository) (*TicketService, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)}
	svc := NewTicketService(TicketDependencies{
		Repository: repo,
		Clock:      clock.Now,
	})
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	return svc, clock
}

func mustCreate(t *testing.T, svc *TicketService, device, issue string) domain.Ticket {
	t.Helper()
	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{Device: device, Issue: issue})
	require.NoError(t, err)
	return *ticket
}

func TestCreateTicketDefaults(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := newTestService(t, repo)

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Device:    "  Laptop A ",
		Serial:    " SN-1 ",
		Issue:     "Won't boot",
		Submitted: "   ",
		Contact:   "ext 42",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.Ticket{
		ID:            1,
		Device:        "Laptop A",
		Serial:        "SN-1",
		Issue:         "Won't boot",
		Submitted:     "Unknown",
		Contact:       "ext 42",
		Status:        domain.TicketStatusPending,
		DateSubmitted: "2026-10-19 09:30",
		DateRepaired:  "",
	}, *ticket)
	assert.Equal(t, 1, repo.saves)
	assert.Equal(t, []domain.Ticket{*ticket}, repo.stored)
}

func TestCreateTicketRequiresDeviceAndIssue(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := newTestService(t, repo)

	cases := []CreateTicketInput{
		{Device: "", Issue: "Broken screen"},
		{Device: "   ", Issue: "Broken screen"},
		{Device: "Tablet", Issue: ""},
		{Device: "Tablet", Issue: "\t\n"},
	}
	for _, input := range cases {
		ticket, err := svc.CreateTicket(context.Background(), input)
		require.ErrorIs(t, err, apperrors.ErrValidation, "%+v", input)
		assert.Nil(t, ticket)
	}
	assert.Empty(t, svc.ListTickets())
	assert.Zero(t, repo.saves)

	de := apperrors.ToDomainError(func() error {
		_, err := svc.CreateTicket(context.Background(), CreateTicketInput{})
		return err
	}())
	assert.Contains(t, de.Details, "device")
	assert.Contains(t, de.Details, "issue")
}

func TestCreateTicketAssignsIncreasingUniqueIDs(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})

	seen := map[int]bool{}
	last := 0
	for i := 0; i < 25; i++ {
		ticket := mustCreate(t, svc, fmt.Sprintf("Device %d", i), "issue")
		assert.False(t, seen[ticket.ID], "duplicate id %d", ticket.ID)
		assert.Greater(t, ticket.ID, last)
		seen[ticket.ID] = true
		last = ticket.ID
	}
}

func TestCreateTicketContinuesAfterLoadedMaxID(t *testing.T) {
	repo := &fakeRepository{stored: []domain.Ticket{
		{ID: 7, Device: "Old", Issue: "x", Status: domain.TicketStatusPending},
		{ID: 3, Device: "Older", Issue: "y", Status: domain.TicketStatusPending},
	}}
	svc, _ := newTestService(t, repo)

	assert.Equal(t, 8, mustCreate(t, svc, "New", "z").ID)
}

func TestDeletedIDsAreNotReused(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	mustCreate(t, svc, "A", "a")
	second := mustCreate(t, svc, "B", "b")

	_, err := svc.DeleteTicket(context.Background(), second.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, mustCreate(t, svc, "C", "c").ID)
}

func TestCreateTicketKeepsTicketWhenSaveFails(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := newTestService(t, repo)
	repo.saveErr = apperrors.NewStorageError("save", errors.New("read-only filesystem"))

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{Device: "Phone", Issue: "Cracked"})
	require.ErrorIs(t, err, apperrors.ErrStorage)
	require.NotNil(t, ticket)

	assert.Len(t, svc.ListTickets(), 1)
	assert.Empty(t, repo.stored)
}

func TestDeleteTicket(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := newTestService(t, repo)
	a := mustCreate(t, svc, "A", "a")
	b := mustCreate(t, svc, "B", "b")
	c := mustCreate(t, svc, "C", "c")

	removed, err := svc.DeleteTicket(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", removed.Device)

	assert.Equal(t, []domain.Ticket{a, c}, svc.ListTickets())
	assert.Equal(t, []domain.Ticket{a, c}, repo.stored)
}

func TestDeleteMissingTicketOnEmptyStore(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := newTestService(t, repo)

	_, err := svc.DeleteTicket(context.Background(), 99)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Zero(t, repo.saves)
}

func TestGetTicket(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	created := mustCreate(t, svc, "Monitor", "Flicker")

	got, err := svc.GetTicket(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, *got)

	got.Device = "mutated"
	again, err := svc.GetTicket(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monitor", again.Device)

	_, err = svc.GetTicket(42)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLoadCorruptDataStartsEmpty(t *testing.T) {
	repo := &fakeRepository{
		stored:  []domain.Ticket{{ID: 1, Device: "x", Issue: "y", Status: domain.TicketStatusPending}},
		loadErr: apperrors.NewCorruptData("fake", errors.New("unexpected end of JSON input")),
	}
	svc := NewTicketService(TicketDependencies{Repository: repo})

	tickets, err := svc.Load(context.Background())
	require.ErrorIs(t, err, apperrors.ErrCorruptData)
	assert.Empty(t, tickets)
	assert.Empty(t, svc.ListTickets())
	assert.Zero(t, repo.saves)
}

func TestSaveRoundTripIsStable(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := newTestService(t, repo)
	mustCreate(t, svc, "A", "a")
	b := mustCreate(t, svc, "B", "b")
	c := mustCreate(t, svc, "C", "c")
	_, err := svc.MarkRepaired(context.Background(), b.ID)
	require.NoError(t, err)
	_, err = svc.CancelRepair(context.Background(), c.ID)
	require.NoError(t, err)
	_, err = svc.DeleteTicket(context.Background(), 1)
	require.NoError(t, err)

	before := svc.ListTickets()
	loaded, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Save(context.Background()))

	assert.Equal(t, before, loaded)
	assert.Equal(t, before, repo.stored)
}

func TestFilter(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	laptop := mustCreate(t, svc, "Laptop A", "Won't boot")
	printer, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Device: "Printer", Serial: "LP-220", Issue: "Paper jam", Submitted: "Alex", Contact: "laptop-desk",
	})
	require.NoError(t, err)
	phone := mustCreate(t, svc, "Phone", "Battery BOOT loop")

	all := svc.Filter("")
	assert.Equal(t, []domain.Ticket{laptop, *printer, phone}, all.Tickets)
	assert.Equal(t, 3, all.Matched)
	assert.Equal(t, 3, all.Total)

	boot := svc.Filter("BoOt")
	assert.Equal(t, []domain.Ticket{laptop, phone}, boot.Tickets)
	assert.Equal(t, "Showing 2 of 3 devices", boot.Summary())

	// contact is not a searched field; serial is.
	lp := svc.Filter("lp")
	assert.Equal(t, []domain.Ticket{*printer}, lp.Tickets)

	assert.Equal(t, []domain.Ticket{*printer}, svc.Filter("alex").Tickets)
	assert.Empty(t, svc.Filter("desk").Tickets)

	for _, query := range []string{"a", "o", "p", "unknown"} {
		for _, ticket := range svc.Filter(query).Tickets {
			haystack := strings.ToLower(strings.Join([]string{ticket.Device, ticket.Serial, ticket.Issue, ticket.Submitted}, "\x00"))
			assert.Contains(t, haystack, query)
		}
	}
}

func TestSortBy(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	for i := 1; i <= 10; i++ {
		device := "Beta"
		if i%2 == 0 {
			device = "Alpha"
		}
		mustCreate(t, svc, device, fmt.Sprintf("issue %d", i))
	}

	byID, err := svc.SortBy(domain.FieldID)
	require.NoError(t, err)
	ids := make([]int, 0, len(byID))
	for _, ticket := range byID {
		ids = append(ids, ticket.ID)
	}
	assert.Equal(t, []int{1, 10, 2, 3, 4, 5, 6, 7, 8, 9}, ids)

	byDevice, err := svc.SortBy(domain.FieldDevice)
	require.NoError(t, err)
	ids = ids[:0]
	for _, ticket := range byDevice {
		ids = append(ids, ticket.ID)
	}
	assert.Equal(t, []int{2, 4, 6, 8, 10, 1, 3, 5, 7, 9}, ids)

	// The underlying order is untouched.
	assert.Equal(t, 1, svc.ListTickets()[0].ID)

	_, err = svc.SortBy("priority")
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAggregate(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})

	empty := svc.Aggregate()
	assert.Equal(t, Stats{}, empty)
	_, ok := empty.Percentages()
	assert.False(t, ok)

	mustCreate(t, svc, "A", "a")
	b := mustCreate(t, svc, "B", "b")
	c := mustCreate(t, svc, "C", "c")
	mustCreate(t, svc, "D", "d")
	_, err := svc.MarkRepaired(context.Background(), b.ID)
	require.NoError(t, err)
	_, err = svc.CancelRepair(context.Background(), c.ID)
	require.NoError(t, err)

	stats := svc.Aggregate()
	assert.Equal(t, Stats{Total: 4, Pending: 2, Repaired: 1, Canceled: 1}, stats)
	assert.Equal(t, stats.Total, stats.Pending+stats.Repaired+stats.Canceled)

	pct, ok := stats.Percentages()
	require.True(t, ok)
	assert.InDelta(t, 50.0, pct[domain.TicketStatusPending], 1e-9)
	assert.InDelta(t, 25.0, pct[domain.TicketStatusRepaired], 1e-9)
	assert.Equal(t, 1, stats.Count(domain.TicketStatusCanceled))
}

func TestCleanupRemovesOnlyAgedRepairedTickets(t *testing.T) {
	repo := &fakeRepository{}
	svc, clock := newTestService(t, repo)
	start := clock.now

	oldRepaired := mustCreate(t, svc, "Old repaired", "x")
	oldCanceled := mustCreate(t, svc, "Old canceled", "x")
	oldPending := mustCreate(t, svc, "Old pending", "x")
	_, err := svc.MarkRepaired(context.Background(), oldRepaired.ID)
	require.NoError(t, err)
	_, err = svc.CancelRepair(context.Background(), oldCanceled.ID)
	require.NoError(t, err)

	clock.Advance(5 * 24 * time.Hour)
	recent := mustCreate(t, svc, "Recent repaired", "x")
	_, err = svc.MarkRepaired(context.Background(), recent.ID)
	require.NoError(t, err)

	savesBefore := repo.saves
	removed, err := svc.Cleanup(context.Background(), start.Add(10*24*time.Hour-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, savesBefore, repo.saves, "nothing removed means nothing persisted")

	removed, err = svc.Cleanup(context.Background(), start.Add(10*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, savesBefore+1, repo.saves)

	var remaining []int
	for _, ticket := range svc.ListTickets() {
		remaining = append(remaining, ticket.ID)
	}
	assert.Equal(t, []int{oldCanceled.ID, oldPending.ID, recent.ID}, remaining)

	removed, err = svc.Cleanup(context.Background(), start.Add(400*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Len(t, svc.ListTickets(), 2)
}

func TestCleanupSkipsUnreadableRepairDates(t *testing.T) {
	repo := &fakeRepository{stored: []domain.Ticket{
		{ID: 1, Device: "x", Issue: "y", Status: domain.TicketStatusRepaired, DateRepaired: "last week"},
	}}
	svc, clock := newTestService(t, repo)

	removed, err := svc.Cleanup(context.Background(), clock.now.Add(365*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Len(t, svc.ListTickets(), 1)
}

func TestRepairAndCleanupScenario(t *testing.T) {
	svc, clock := newTestService(t, &fakeRepository{})
	today := clock.now

	ticket := mustCreate(t, svc, "Laptop A", "Won't boot")
	assert.Equal(t, 1, ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)

	result, err := svc.MarkRepaired(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, domain.TicketStatusRepaired, result.Ticket.Status)
	assert.Equal(t, domain.FormatTimestamp(today), result.Ticket.DateRepaired)

	removed, err := svc.Cleanup(context.Background(), today.Add(10*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Empty(t, svc.ListTickets())
}

func TestEventsArePublished(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	var received []events.EventType
	for _, et := range []events.EventType{events.EventTicketCreated, events.EventTicketStatusChanged, events.EventTicketDeleted, events.EventTicketsCleanedUp} {
		dispatcher.Subscribe(et, func(ctx context.Context, e events.Event) error {
			assert.NotEmpty(t, e.ID)
			received = append(received, e.Type)
			return nil
		})
	}
	clock := &fakeClock{now: time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)}
	svc := NewTicketService(TicketDependencies{Repository: &fakeRepository{}, Dispatcher: dispatcher, Clock: clock.Now})

	a := mustCreate(t, svc, "A", "a")
	b := mustCreate(t, svc, "B", "b")
	_, err := svc.MarkRepaired(context.Background(), a.ID)
	require.NoError(t, err)
	_, err = svc.DeleteTicket(context.Background(), b.ID)
	require.NoError(t, err)
	_, err = svc.Cleanup(context.Background(), clock.now.Add(30*24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, []events.EventType{
		events.EventTicketCreated,
		events.EventTicketCreated,
		events.EventTicketStatusChanged,
		events.EventTicketDeleted,
		events.EventTicketsCleanedUp,
	}, received)
}
