package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/unilodge/unilodge-api/internal/ledger"
    "github.com/unilodge/unilodge-api/internal/model"
)

// GrantRepo provides data access to the fee_grants table. Grants are the
// only hot shared-mutation point in the system: quota consumption runs
// under a row lock (see UnlockRepo.Consume); everything here is plain
// reads and inserts. Grants are never deleted, exhausted and expired rows
// remain as payment history.
type GrantRepo struct {
    db *sql.DB
}

// NewGrantRepo returns a GrantRepo bound to the provided database.
func NewGrantRepo(db *sql.DB) *GrantRepo { return &GrantRepo{db: db} }

const grantColumns = `id, user_id, university_id, amount, headcount, allowed_units, units_remaining, valid_until, created_at`

// Create inserts an inert grant (zero units remaining) and fills in the
// generated ID.
func (r *GrantRepo) Create(ctx context.Context, g *model.FeeGrant) error {
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO fee_grants (user_id, university_id, amount, headcount, allowed_units, units_remaining)
         VALUES (?, ?, ?, ?, ?, 0)`,
        g.UserID, g.UniversityID, g.Amount, g.Headcount, g.AllowedUnits)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    g.ID = uint64(id)
    return nil
}

// GetByID returns a grant or ledger.ErrNotFound.
func (r *GrantRepo) GetByID(ctx context.Context, id uint64) (model.FeeGrant, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+grantColumns+` FROM fee_grants WHERE id = ?`, id)
    return scanGrant(row)
}

// ListByUser returns all of a user's grants, most recent first.
func (r *GrantRepo) ListByUser(ctx context.Context, userID uint64) ([]model.FeeGrant, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+grantColumns+` FROM fee_grants WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
        userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.FeeGrant
    for rows.Next() {
        g, err := scanGrant(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, g)
    }
    return out, rows.Err()
}

// ActiveGrant returns the user's most recently created grant for the
// university that still has units and has not expired at the given
// instant, or ledger.ErrNotFound. At most one grant per (user, university)
// is normally active at a time; picking the newest keeps the selection
// deterministic if history ever holds two.
func (r *GrantRepo) ActiveGrant(ctx context.Context, userID, universityID uint64, at time.Time) (model.FeeGrant, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+grantColumns+` FROM fee_grants
         WHERE user_id = ? AND university_id = ?
           AND units_remaining > 0
           AND (valid_until IS NULL OR valid_until >= ?)
         ORDER BY created_at DESC, id DESC
         LIMIT 1`,
        userID, universityID, at.UTC())
    return scanGrant(row)
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
    Scan(dest ...any) error
}

func scanGrant(s scanner) (model.FeeGrant, error) {
    var (
        g          model.FeeGrant
        validUntil sql.NullTime
    )
    err := s.Scan(&g.ID, &g.UserID, &g.UniversityID, &g.Amount, &g.Headcount,
        &g.AllowedUnits, &g.UnitsRemaining, &validUntil, &g.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.FeeGrant{}, ledger.ErrNotFound
    }
    if err != nil {
        return model.FeeGrant{}, err
    }
    if validUntil.Valid {
        t := validUntil.Time
        g.ValidUntil = &t
    }
    return g, nil
}
