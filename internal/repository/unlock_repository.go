package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/unilodge/unilodge-api/internal/ledger"
)

// UnlockRepo provides data access to the contact_unlocks table and owns
// the atomic quota consumption. The table carries a unique key on
// (grant_id, listing_id); that constraint is the final safety net against
// double-charging the same listing, independent of the row lock taken on
// the grant.
type UnlockRepo struct {
    db *sql.DB
}

// NewUnlockRepo returns an UnlockRepo bound to the provided database.
func NewUnlockRepo(db *sql.DB) *UnlockRepo { return &UnlockRepo{db: db} }

// Consume spends one unit of the grant for the listing, or reports that
// the pair was already paid for. The whole check-insert-decrement sequence
// runs in a single transaction with the grant row locked (SELECT ... FOR
// UPDATE), so two concurrent reveals against a grant with one unit left
// cannot both charge. Returns charged=false for a free repeat view,
// charged=true after debiting, or ledger.ErrQuotaExhausted when no units
// remain.
func (r *UnlockRepo) Consume(ctx context.Context, grantID, listingID uint64) (bool, int, error) {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return false, 0, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Lock the grant row for the duration of the transaction. Every other
    // Consume against the same grant queues behind this lock.
    var remaining int
    err = tx.QueryRowContext(ctx,
        `SELECT units_remaining FROM fee_grants WHERE id = ? FOR UPDATE`,
        grantID).Scan(&remaining)
    if errors.Is(err, sql.ErrNoRows) {
        return false, 0, ledger.ErrNotFound
    }
    if err != nil {
        return false, 0, err
    }

    // Already unlocked under this grant: repeat views are free.
    var one int
    err = tx.QueryRowContext(ctx,
        `SELECT 1 FROM contact_unlocks WHERE grant_id = ? AND listing_id = ?`,
        grantID, listingID).Scan(&one)
    switch {
    case err == nil:
        if err := tx.Commit(); err != nil {
            return false, 0, err
        }
        committed = true
        return false, remaining, nil
    case errors.Is(err, sql.ErrNoRows):
        // first view, fall through to charge
    default:
        return false, 0, err
    }

    if remaining <= 0 {
        return false, 0, ledger.ErrQuotaExhausted
    }

    if _, err := tx.ExecContext(ctx,
        `INSERT INTO contact_unlocks (grant_id, listing_id) VALUES (?, ?)`,
        grantID, listingID); err != nil {
        if isDuplicateKey(err) {
            // Unreachable while the grant lock is honored; the unique key
            // still wins if it ever is not.
            if err := tx.Commit(); err != nil {
                return false, 0, err
            }
            committed = true
            return false, remaining, nil
        }
        return false, 0, err
    }

    if _, err := tx.ExecContext(ctx,
        `UPDATE fee_grants SET units_remaining = units_remaining - 1 WHERE id = ?`,
        grantID); err != nil {
        return false, 0, err
    }

    if err := tx.Commit(); err != nil {
        return false, 0, err
    }
    committed = true
    return true, remaining - 1, nil
}

// ListByGrant returns the unlock markers recorded for a grant, oldest
// first.
func (r *UnlockRepo) ListByGrant(ctx context.Context, grantID uint64) ([]uint64, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT listing_id FROM contact_unlocks WHERE grant_id = ? ORDER BY id ASC`, grantID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        out = append(out, id)
    }
    return out, rows.Err()
}
