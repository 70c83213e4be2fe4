package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/unilodge/unilodge-api/internal/ledger"
    "github.com/unilodge/unilodge-api/internal/model"
)

// UniversityRepo provides read access to the universities directory:
// per-head fees for price computation and campus coordinates for distance
// display and filtering.
type UniversityRepo struct {
    db *sql.DB
}

// NewUniversityRepo returns a UniversityRepo bound to the database.
func NewUniversityRepo(db *sql.DB) *UniversityRepo { return &UniversityRepo{db: db} }

const universityColumns = `id, name, city, fee_per_head, latitude, longitude, created_at`

// GetByID returns a university or ledger.ErrNotFound.
func (r *UniversityRepo) GetByID(ctx context.Context, id uint64) (model.University, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+universityColumns+` FROM universities WHERE id = ?`, id)
    return scanUniversity(row)
}

// List returns all universities ordered by name, for client pickers.
func (r *UniversityRepo) List(ctx context.Context) ([]model.University, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+universityColumns+` FROM universities ORDER BY name ASC`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.University
    for rows.Next() {
        u, err := scanUniversity(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, u)
    }
    return out, rows.Err()
}

func scanUniversity(s scanner) (model.University, error) {
    var (
        u        model.University
        lat, lon sql.NullFloat64
    )
    err := s.Scan(&u.ID, &u.Name, &u.City, &u.FeePerHead, &lat, &lon, &u.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.University{}, ledger.ErrNotFound
    }
    if err != nil {
        return model.University{}, err
    }
    if lat.Valid {
        v := lat.Float64
        u.Latitude = &v
    }
    if lon.Valid {
        v := lon.Float64
        u.Longitude = &v
    }
    return u, nil
}
