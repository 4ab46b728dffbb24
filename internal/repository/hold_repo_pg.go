package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/servicesartisans/booking/internal/domain"
)

type HoldRepository interface {
	// CreateWithTransition atomically moves the slot open->held and inserts
	// the hold. Returns ErrSlotConflict when the CAS loses, ErrDuplicateHold
	// when the same holder token already inserted a hold for the slot.
	CreateWithTransition(ctx context.Context, hold *domain.Hold, expectedSlotVersion int64) error
	GetByID(ctx context.Context, id string) (*domain.Hold, error)
	FindActiveBySlotAndToken(ctx context.Context, slotID, holderToken string) (*domain.Hold, error)
	// FindActiveByToken lists every active hold a holder token owns, so a
	// month view needs one lookup instead of one per held slot.
	FindActiveByToken(ctx context.Context, holderToken string) ([]domain.Hold, error)
	// Release atomically marks an active hold as toStatus and reverts its
	// slot held->open. A hold that is no longer active is left untouched.
	Release(ctx context.Context, holdID string, toStatus domain.HoldStatus) (bool, error)
	ListExpiredActive(ctx context.Context, deadline time.Time, limit int) ([]domain.Hold, error)
}

type PGHoldRepository struct {
	db *pgxpool.Pool
}

func NewHoldRepository(db *pgxpool.Pool) HoldRepository {
	return &PGHoldRepository{db: db}
}

const holdColumns = `id, slot_id, holder_token, status, expires_at, created_at`

func (r *PGHoldRepository) CreateWithTransition(ctx context.Context, hold *domain.Hold, expectedSlotVersion int64) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storeErr("begin hold tx", err)
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `UPDATE slots SET status=$1, version=version+1, updated_at=now() WHERE id=$2 AND status=$3 AND version=$4`,
		domain.SlotStatusHeld, hold.SlotID, domain.SlotStatusOpen, expectedSlotVersion)
	if err != nil {
		return storeErr("hold slot", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSlotConflict
	}

	if err := tx.QueryRow(ctx, `INSERT INTO holds (id, slot_id, holder_token, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`, hold.ID, hold.SlotID, hold.HolderToken, hold.Status, hold.ExpiresAt).
		Scan(&hold.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateHold
		}
		return storeErr("create hold", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit hold tx", err)
	}
	return nil
}

func (r *PGHoldRepository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	row := r.db.QueryRow(ctx, `SELECT `+holdColumns+` FROM holds WHERE id=$1`, id)
	var h domain.Hold
	if err := row.Scan(&h.ID, &h.SlotID, &h.HolderToken, &h.Status, &h.ExpiresAt, &h.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHoldNotFound
		}
		return nil, storeErr("get hold", err)
	}
	return &h, nil
}

func (r *PGHoldRepository) FindActiveBySlotAndToken(ctx context.Context, slotID, holderToken string) (*domain.Hold, error) {
	row := r.db.QueryRow(ctx, `SELECT `+holdColumns+` FROM holds WHERE slot_id=$1 AND holder_token=$2 AND status=$3`, slotID, holderToken, domain.HoldStatusActive)
	var h domain.Hold
	if err := row.Scan(&h.ID, &h.SlotID, &h.HolderToken, &h.Status, &h.ExpiresAt, &h.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("find hold by token", err)
	}
	return &h, nil
}

func (r *PGHoldRepository) FindActiveByToken(ctx context.Context, holderToken string) ([]domain.Hold, error) {
	rows, err := r.db.Query(ctx, `SELECT `+holdColumns+` FROM holds WHERE holder_token=$1 AND status=$2`, holderToken, domain.HoldStatusActive)
	if err != nil {
		return nil, storeErr("find holds by token", err)
	}
	defer rows.Close()

	var holds []domain.Hold
	for rows.Next() {
		var h domain.Hold
		if err := rows.Scan(&h.ID, &h.SlotID, &h.HolderToken, &h.Status, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, storeErr("find holds by token", err)
		}
		holds = append(holds, h)
	}
	return holds, rows.Err()
}

func (r *PGHoldRepository) Release(ctx context.Context, holdID string, toStatus domain.HoldStatus) (bool, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, storeErr("begin release tx", err)
	}
	defer tx.Rollback(ctx)

	var slotID string
	err = tx.QueryRow(ctx, `UPDATE holds SET status=$1 WHERE id=$2 AND status=$3 RETURNING slot_id`, toStatus, holdID, domain.HoldStatusActive).Scan(&slotID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already confirmed, released or swept. Nothing to do.
			return false, nil
		}
		return false, storeErr("release hold", err)
	}

	// The slot may already have moved on (e.g. the provider blocked it); the
	// conditional update keeps the revert from clobbering that.
	if _, err := tx.Exec(ctx, `UPDATE slots SET status=$1, version=version+1, updated_at=now() WHERE id=$2 AND status=$3`,
		domain.SlotStatusOpen, slotID, domain.SlotStatusHeld); err != nil {
		return false, storeErr("reopen slot", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, storeErr("commit release tx", err)
	}
	return true, nil
}

func (r *PGHoldRepository) ListExpiredActive(ctx context.Context, deadline time.Time, limit int) ([]domain.Hold, error) {
	rows, err := r.db.Query(ctx, `SELECT `+holdColumns+` FROM holds WHERE status=$1 AND expires_at <= $2 ORDER BY expires_at LIMIT $3`, domain.HoldStatusActive, deadline, limit)
	if err != nil {
		return nil, storeErr("list expired holds", err)
	}
	defer rows.Close()

	var expired []domain.Hold
	for rows.Next() {
		var h domain.Hold
		if err := rows.Scan(&h.ID, &h.SlotID, &h.HolderToken, &h.Status, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, storeErr("list expired holds", err)
		}
		expired = append(expired, h)
	}
	return expired, rows.Err()
}

var _ HoldRepository = (*PGHoldRepository)(nil)
