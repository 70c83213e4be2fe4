package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/unilodge/unilodge-api/internal/ledger"
    "github.com/unilodge/unilodge-api/internal/model"
)

// ConfirmationRepo provides data access to the confirmations table. Status
// transitions are single UPDATE statements guarded by `status = 'PENDING'`:
// when two reviewers race on the same confirmation the second UPDATE
// matches zero rows and surfaces ledger.ErrInvalidState instead of
// silently double-applying.
type ConfirmationRepo struct {
    db *sql.DB
}

// NewConfirmationRepo returns a ConfirmationRepo bound to the database.
func NewConfirmationRepo(db *sql.DB) *ConfirmationRepo { return &ConfirmationRepo{db: db} }

const confirmationColumns = `id, grant_id, message, status, created_at, updated_at`

// Create inserts a PENDING confirmation and fills in the generated ID.
func (r *ConfirmationRepo) Create(ctx context.Context, c *model.Confirmation) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO confirmations (grant_id, message, status) VALUES (?, ?, ?)`,
        c.GrantID, c.Message, model.ConfirmationPending)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    c.ID = uint64(id)
    c.Status = model.ConfirmationPending
    return nil
}

// GetByID returns a confirmation or ledger.ErrNotFound.
func (r *ConfirmationRepo) GetByID(ctx context.Context, id uint64) (model.Confirmation, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+confirmationColumns+` FROM confirmations WHERE id = ?`, id)
    return scanConfirmation(row)
}

// ListByStatus returns confirmations in the given status, oldest first so
// reviewers work the queue in submission order.
func (r *ConfirmationRepo) ListByStatus(ctx context.Context, status string, limit int) ([]model.Confirmation, error) {
    if limit < 1 || limit > 200 {
        limit = 50
    }
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+confirmationColumns+` FROM confirmations WHERE status = ? ORDER BY created_at ASC, id ASC LIMIT ?`,
        status, limit)
    if err != nil {
        return nil, err
    }
    return collectConfirmations(rows)
}

// ListByGrant returns a grant's confirmation history, newest first.
func (r *ConfirmationRepo) ListByGrant(ctx context.Context, grantID uint64) ([]model.Confirmation, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+confirmationColumns+` FROM confirmations WHERE grant_id = ? ORDER BY created_at DESC, id DESC`,
        grantID)
    if err != nil {
        return nil, err
    }
    return collectConfirmations(rows)
}

// Approve flips the confirmation to APPROVED and activates the grant in
// one transaction: either both the status change and the quota refill
// persist, or neither does.
func (r *ConfirmationRepo) Approve(ctx context.Context, id, grantID uint64, units int, validUntil time.Time) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if err := transitionTx(ctx, tx, id, model.ConfirmationApproved); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE fee_grants SET units_remaining = allowed_units, valid_until = ? WHERE id = ?`,
        validUntil.UTC(), grantID); err != nil {
        return err
    }

    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// Decline flips the confirmation to DECLINED. The grant stays inert.
func (r *ConfirmationRepo) Decline(ctx context.Context, id uint64) error {
    return r.transition(ctx, id, model.ConfirmationDeclined)
}

// Cancel flips the confirmation to CANCELED. The grant stays inert.
func (r *ConfirmationRepo) Cancel(ctx context.Context, id uint64) error {
    return r.transition(ctx, id, model.ConfirmationCanceled)
}

func (r *ConfirmationRepo) transition(ctx context.Context, id uint64, status string) error {
    res, err := r.db.ExecContext(ctx,
        `UPDATE confirmations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`,
        status, id, model.ConfirmationPending)
    if err != nil {
        return err
    }
    return checkTransition(res)
}

func transitionTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE confirmations SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status = ?`,
        status, id, model.ConfirmationPending)
    if err != nil {
        return err
    }
    return checkTransition(res)
}

// checkTransition maps a zero-row UPDATE to the state-machine error: the
// confirmation either does not exist or already left PENDING.
func checkTransition(res sql.Result) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ledger.ErrInvalidState
    }
    return nil
}

func scanConfirmation(s scanner) (model.Confirmation, error) {
    var c model.Confirmation
    err := s.Scan(&c.ID, &c.GrantID, &c.Message, &c.Status, &c.CreatedAt, &c.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Confirmation{}, ledger.ErrNotFound
    }
    if err != nil {
        return model.Confirmation{}, err
    }
    return c, nil
}

func collectConfirmations(rows *sql.Rows) ([]model.Confirmation, error) {
    defer rows.Close()
    var out []model.Confirmation
    for rows.Next() {
        c, err := scanConfirmation(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}
