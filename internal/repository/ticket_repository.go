package repository

import (
	"context"

	"github.com/spec-kit/queue-repair/internal/domain"
)

// TicketRepository persists the full ticket set as one snapshot.
//
// Load returns an empty slice when nothing has been saved yet. Unparsable
// content yields an empty slice together with a CORRUPT_DATA error; any other
// failure is a STORAGE_ERROR. Save replaces the stored snapshot as a whole:
// after a failed Save the previous snapshot is still intact.
type TicketRepository interface {
	Load(ctx context.Context) ([]domain.Ticket, error)
	Save(ctx context.Context, tickets []domain.Ticket) error
	Describe() string
}
