package service

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-repair/internal/domain"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportFileName(t *testing.T) {
	ts := time.Date(2026, 10, 19, 7, 5, 9, 0, time.UTC)
	assert.Equal(t, "QueueRepair_Export_20261019_070509.csv", ExportFileName(ts))
}

func TestExportCSVColumnsAndQuoting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	tickets := []domain.Ticket{{
		ID: 4, Device: "Printer \"West\"", Serial: "P-1", Issue: "Jam, then smoke", Submitted: "Alex",
		Contact: "x1", Status: domain.TicketStatusRepaired, DateSubmitted: "2026-10-01 08:00", DateRepaired: "2026-10-02 09:00",
	}}

	require.NoError(t, ExportCSV(tickets, path))

	rows := readCSV(t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"ID", "Device", "Serial", "Issue", "Submitted By", "Contact", "Status", "Date Repaired", "Date Submitted"}, rows[0])
	assert.Equal(t, []string{"4", "Printer \"West\"", "P-1", "Jam, then smoke", "Alex", "x1", "Repaired", "2026-10-02 09:00", "2026-10-01 08:00"}, rows[1])
}

func TestExportCSVFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "out.csv")

	err := ExportCSV(nil, path)
	require.ErrorIs(t, err, apperrors.ErrExport)
}

func TestServiceExportDoesNotMutate(t *testing.T) {
	repo := &fakeRepository{}
	svc, _ := newTestService(t, repo)
	mustCreate(t, svc, "Laptop", "Fan noise")
	mustCreate(t, svc, "Phone", "Screen")
	before := svc.ListTickets()
	saves := repo.saves
	dir := t.TempDir()

	result, err := svc.Export(context.Background(), dir, "lap")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, filepath.Join(dir, "QueueRepair_Export_20261019_093000.csv"), result.Path)
	assert.Len(t, readCSV(t, result.Path), 2)

	assert.Equal(t, before, svc.ListTickets())
	assert.Equal(t, saves, repo.saves)
}

func TestServiceExportHonorsCanceledContext(t *testing.T) {
	svc, _ := newTestService(t, &fakeRepository{})
	mustCreate(t, svc, "Laptop", "Fan noise")
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Export(ctx, dir, "")
	require.ErrorIs(t, err, apperrors.ErrExport)
	assert.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
