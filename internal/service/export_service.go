package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/queue-repair/internal/domain"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

const exportPrefix = "QueueRepair_Export_"

var exportHeader = []string{
	"ID", "Device", "Serial", "Issue", "Submitted By", "Contact", "Status", "Date Repaired", "Date Submitted",
}

// ExportResult describes a written CSV export.
type ExportResult struct {
	Path  string
	Count int
}

// ExportFileName returns the export file name for the given instant.
func ExportFileName(now time.Time) string {
	return exportPrefix + now.Format("20060102_150405") + ".csv"
}

// ExportCSV writes a header row and one row per ticket to path. A partially
// written file is removed on failure.
func ExportCSV(tickets []domain.Ticket, path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewExportError(path, err)
	}
	defer func() {
		closeErr := file.Close()
		if err == nil && closeErr != nil {
			err = apperrors.NewExportError(path, closeErr)
		}
		if err != nil {
			os.Remove(path)
		}
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(exportHeader); err != nil {
		return apperrors.NewExportError(path, err)
	}
	for _, t := range tickets {
		row := []string{
			strconv.Itoa(t.ID),
			t.Device,
			t.Serial,
			t.Issue,
			t.Submitted,
			t.Contact,
			string(t.Status),
			t.DateRepaired,
			t.DateSubmitted,
		}
		if err := writer.Write(row); err != nil {
			return apperrors.NewExportError(path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewExportError(path, fmt.Errorf("flush csv: %w", err))
	}
	return nil
}

// Export writes the tickets matching query (all when empty) to a timestamped
// CSV file in dir. The store is not modified.
func (s *TicketService) Export(ctx context.Context, dir, query string) (ExportResult, error) {
	if err := ctx.Err(); err != nil {
		s.metrics.RecordOperation("export", err)
		return ExportResult{}, apperrors.NewExportError(dir, err)
	}
	view := s.Filter(query)
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ExportFileName(s.now()))

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		err = apperrors.NewExportError(path, err)
	} else {
		err = ExportCSV(view.Tickets, path)
	}
	s.metrics.RecordOperation("export", err)
	if err != nil {
		s.logger.Error("export failed", zap.String("path", path), zap.Error(err))
		return ExportResult{}, err
	}
	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}
	s.logger.Info("tickets exported", zap.String("path", path), zap.Int("count", len(view.Tickets)))
	return ExportResult{Path: path, Count: len(view.Tickets)}, nil
}
