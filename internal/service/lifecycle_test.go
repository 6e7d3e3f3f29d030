package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-repair/internal/domain"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

func TestMarkRepairedIsIdempotent(t *testing.T) {
	repo := &fakeRepository{}
	svc, clock := newTestService(t, repo)
	ticket := mustCreate(t, svc, "Laptop A", "Won't boot")

	first, err := svc.MarkRepaired(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, "Device 'Laptop A' marked as repaired", first.Message)
	saves := repo.saves

	clock.Advance(2 * time.Hour)
	second, err := svc.MarkRepaired(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, "This device is already marked as repaired", second.Message)
	assert.Equal(t, first.Ticket.DateRepaired, second.Ticket.DateRepaired)
	assert.Equal(t, saves, repo.saves)
}

func TestCancelRepairIsIdempotent(t *testing.T) {
	svc, clock := newTestService(t, &fakeRepository{})
	ticket := mustCreate(t, svc, "Phone", "Cracked")

	first, err := svc.CancelRepair(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, first.Changed)
	assert.Equal(t, domain.TicketStatusCanceled, first.Ticket.Status)
	assert.Equal(t, "2026-10-19 09:30", first.Ticket.DateRepaired)

	clock.Advance(time.Hour)
	second, err := svc.CancelRepair(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, "This repair is already canceled", second.Message)
	assert.Equal(t, "2026-10-19 09:30", second.Ticket.DateRepaired)
}

func TestCrossTransitionsOverwriteStatusAndDate(t *testing.T) {
	svc, clock := newTestService(t, &fakeRepository{})
	ticket := mustCreate(t, svc, "Tablet", "No charge")

	_, err := svc.MarkRepaired(context.Background(), ticket.ID)
	require.NoError(t, err)

	clock.Advance(3 * time.Hour)
	canceled, err := svc.CancelRepair(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, canceled.Changed)
	assert.Equal(t, domain.TicketStatusCanceled, canceled.Ticket.Status)
	assert.Equal(t, "2026-10-19 12:30", canceled.Ticket.DateRepaired)

	clock.Advance(time.Hour)
	repaired, err := svc.MarkRepaired(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.True(t, repaired.Changed)
	assert.Equal(t, "2026-10-19 13:30", repaired.Ticket.DateRepaired)
}

func TestTransitionsPreserveOrderAndIdentity(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	a := mustCreate(t, svc, "A", "a")
	b := mustCreate(t, svc, "B", "b")
	c := mustCreate(t, svc, "C", "c")

	_, err := svc.MarkRepaired(context.Background(), b.ID)
	require.NoError(t, err)

	tickets := svc.ListTickets()
	require.Len(t, tickets, 3)
	assert.Equal(t, []int{a.ID, b.ID, c.ID}, []int{tickets[0].ID, tickets[1].ID, tickets[2].ID})
	assert.Equal(t, b.DateSubmitted, tickets[1].DateSubmitted)
}

func TestTransitionUnknownTicket(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})

	_, err := svc.MarkRepaired(context.Background(), 5)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = svc.CancelRepair(context.Background(), 5)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateStatusRejectsNonTerminalTargets(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	ticket := mustCreate(t, svc, "A", "a")

	_, err := svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusPending)
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, err = svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatus("Archived"))
	require.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	result, err := svc.UpdateStatus(context.Background(), ticket.ID, domain.TicketStatusRepaired)
	require.NoError(t, err)
	assert.True(t, result.Changed)
}

func TestDateRepairedEmptyIffPending(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	for i := 0; i < 6; i++ {
		ticket := mustCreate(t, svc, "Device", "Issue")
		switch i % 3 {
		case 1:
			_, err := svc.MarkRepaired(context.Background(), ticket.ID)
			require.NoError(t, err)
		case 2:
			_, err := svc.CancelRepair(context.Background(), ticket.ID)
			require.NoError(t, err)
		}
	}
	for _, ticket := range svc.ListTickets() {
		assert.Equal(t, ticket.Status == domain.TicketStatusPending, ticket.DateRepaired == "", "ticket %d", ticket.ID)
	}
}
