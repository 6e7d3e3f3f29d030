package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-repair/internal/domain"
	apperrors "github.com/spec-kit/queue-repair/pkg/util"
)

// snapshotKey identifies the single row holding the ticket set.
const snapshotKey = 1

type postgresTicketRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTicketRepository stores the ticket snapshot as JSONB in ticket_snapshots.
func NewPostgresTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &postgresTicketRepository{pool: pool}
}

func (r *postgresTicketRepository) Describe() string {
	return "postgres:ticket_snapshots"
}

func (r *postgresTicketRepository) Load(ctx context.Context) ([]domain.Ticket, error) {
	if r.pool == nil {
		return []domain.Ticket{}, apperrors.NewStorageError("load", errors.New("postgres pool not configured"))
	}
	const query = `SELECT payload FROM ticket_snapshots WHERE id=$1`
	var payload []byte
	if err := r.pool.QueryRow(ctx, query, snapshotKey).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []domain.Ticket{}, nil
		}
		return []domain.Ticket{}, apperrors.NewStorageError("load", err)
	}
	tickets, err := decodeTickets(payload)
	if err != nil {
		return []domain.Ticket{}, apperrors.NewCorruptData(r.Describe(), err)
	}
	return tickets, nil
}

func (r *postgresTicketRepository) Save(ctx context.Context, tickets []domain.Ticket) error {
	if r.pool == nil {
		return apperrors.NewStorageError("save", errors.New("postgres pool not configured"))
	}
	payload, err := encodeTickets(tickets)
	if err != nil {
		return apperrors.NewStorageError("save", err)
	}

	const query = `
        INSERT INTO ticket_snapshots (id, payload, ticket_count, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (id) DO UPDATE SET payload=EXCLUDED.payload, ticket_count=EXCLUDED.ticket_count, updated_at=NOW()`

	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, query, snapshotKey, string(payload), len(tickets)); err != nil {
			return fmt.Errorf("upsert snapshot: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperrors.NewStorageError("save", err)
	}
	return nil
}
