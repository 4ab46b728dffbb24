package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/servicesartisans/booking/internal/domain"
)

type BookingRepository interface {
	// CreateConfirmed performs the held->confirmed slot transition, marks the
	// hold confirmed and inserts the booking, all in one transaction.
	CreateConfirmed(ctx context.Context, booking *domain.Booking, expectedSlotVersion int64) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// Cancel marks the booking cancelled and reverts its slot to open, or to
	// blocked when the provider retires the slot. The booking row stays.
	Cancel(ctx context.Context, bookingID string, retire bool) (*domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, slot_id, hold_id, client_name, client_phone, client_email, service_description, deposit_cents, status, cancelled_at, created_at, updated_at`

func (r *PGBookingRepository) CreateConfirmed(ctx context.Context, booking *domain.Booking, expectedSlotVersion int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storeErr("begin confirm tx", err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE slots SET status=$1, version=version+1, updated_at=now() WHERE id=$2 AND status=$3 AND version=$4`,
		domain.SlotStatusConfirmed, booking.SlotID, domain.SlotStatusHeld, expectedSlotVersion)
	if err != nil {
		return storeErr("confirm slot", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSlotConflict
	}

	cmd, err = tx.Exec(ctx, `UPDATE holds SET status=$1 WHERE id=$2 AND status=$3`,
		domain.HoldStatusConfirmed, booking.HoldID, domain.HoldStatusActive)
	if err != nil {
		return storeErr("confirm hold", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrHoldExpired
	}

	booking.Status = domain.BookingStatusConfirmed
	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, slot_id, hold_id, client_name, client_phone, client_email, service_description, deposit_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		booking.ID, booking.SlotID, booking.HoldID, booking.ClientName, booking.ClientPhone, booking.ClientEmail,
		booking.ServiceDescription, booking.DepositCents, booking.Status).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrBookingExists
		}
		return storeErr("create booking", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit confirm tx", err)
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, storeErr("get booking", err)
	}
	return b, nil
}

func (r *PGBookingRepository) Cancel(ctx context.Context, bookingID string, retire bool) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, storeErr("begin cancel tx", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `UPDATE bookings SET status=$1, cancelled_at=now(), updated_at=now() WHERE id=$2 AND status=$3 RETURNING `+bookingColumns,
		domain.BookingStatusCancelled, bookingID, domain.BookingStatusConfirmed)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, storeErr("cancel booking", err)
	}

	slotStatus := domain.SlotStatusOpen
	if retire {
		slotStatus = domain.SlotStatusBlocked
	}
	if _, err := tx.Exec(ctx, `UPDATE slots SET status=$1, version=version+1, updated_at=now() WHERE id=$2 AND status=$3`,
		slotStatus, b.SlotID, domain.SlotStatusConfirmed); err != nil {
		return nil, storeErr("reopen cancelled slot", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storeErr("commit cancel tx", err)
	}
	return b, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.SlotID, &b.HoldID, &b.ClientName, &b.ClientPhone, &b.ClientEmail,
		&b.ServiceDescription, &b.DepositCents, &b.Status, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
