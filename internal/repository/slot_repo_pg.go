package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/servicesartisans/booking/internal/domain"
)

type SlotRepository interface {
	ReadMonth(ctx context.Context, providerID string, year int, month time.Month) ([]domain.Slot, error)
	GetByID(ctx context.Context, id string) (*domain.Slot, error)
	TryTransition(ctx context.Context, slotID string, from, to domain.SlotStatus, expectedVersion int64) error
	DeletePastBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type PGSlotRepository struct {
	db *pgxpool.Pool
}

func NewSlotRepository(db *pgxpool.Pool) SlotRepository {
	return &PGSlotRepository{db: db}
}

const slotColumns = `id, provider_id, resource_id, date, start_time, end_time, status, version, created_at, updated_at`

func (r *PGSlotRepository) ReadMonth(ctx context.Context, providerID string, year int, month time.Month) ([]domain.Slot, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := r.db.Query(ctx, `SELECT `+slotColumns+` FROM slots WHERE provider_id=$1 AND date >= $2 AND date < $3 ORDER BY date, start_time, id`, providerID, start, end)
	if err != nil {
		return nil, storeErr("read month", err)
	}
	defer rows.Close()

	slots := make([]domain.Slot, 0)
	for rows.Next() {
		var s domain.Slot
		if err := scanSlot(rows, &s); err != nil {
			return nil, storeErr("read month", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("read month", err)
	}
	return slots, nil
}

func (r *PGSlotRepository) GetByID(ctx context.Context, id string) (*domain.Slot, error) {
	row := r.db.QueryRow(ctx, `SELECT `+slotColumns+` FROM slots WHERE id=$1`, id)
	var s domain.Slot
	if err := scanSlot(row, &s); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSlotNotFound
		}
		return nil, storeErr("get slot", err)
	}
	return &s, nil
}

// TryTransition is the single compare-and-swap through which every slot
// status change flows. Zero rows affected means somebody else moved the slot
// first; the caller gets a definitive conflict, never partial state.
func (r *PGSlotRepository) TryTransition(ctx context.Context, slotID string, from, to domain.SlotStatus, expectedVersion int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE slots SET status=$1, version=version+1, updated_at=now() WHERE id=$2 AND status=$3 AND version=$4`, to, slotID, from, expectedVersion)
	if err != nil {
		return storeErr("transition slot", err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM slots WHERE id=$1)`, slotID).Scan(&exists); err != nil {
			return storeErr("transition slot", err)
		}
		if !exists {
			return domain.ErrSlotNotFound
		}
		return domain.ErrSlotConflict
	}
	return nil
}

// DeletePastBefore archives slot rows whose date has fully passed.
func (r *PGSlotRepository) DeletePastBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `DELETE FROM slots WHERE date < $1`, cutoff)
	if err != nil {
		return 0, storeErr("delete past slots", err)
	}
	return cmd.RowsAffected(), nil
}

func scanSlot(row pgx.Row, s *domain.Slot) error {
	return row.Scan(&s.ID, &s.ProviderID, &s.ResourceID, &s.Date, &s.StartTime, &s.EndTime, &s.Status, &s.Version, &s.CreatedAt, &s.UpdatedAt)
}

var _ SlotRepository = (*PGSlotRepository)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
