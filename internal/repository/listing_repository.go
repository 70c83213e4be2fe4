package repository

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "strings"

    "github.com/unilodge/unilodge-api/internal/ledger"
    "github.com/unilodge/unilodge-api/internal/model"
    "github.com/unilodge/unilodge-api/internal/search"
)

// ListingRepo provides read access to the listings catalog. Search only
// ever reads; the single write here is the best-effort view counter.
// Variant columns (rent_per_month/sharing_tier vs price_per_night/
// overnight) are nullable in the table and surface as the Rental or Stay
// struct depending on the row's category.
type ListingRepo struct {
    db *sql.DB
}

// NewListingRepo returns a ListingRepo bound to the provided database.
func NewListingRepo(db *sql.DB) *ListingRepo { return &ListingRepo{db: db} }

const listingColumns = `id, landlord_id, university_id, title, description, location, amenities, city,
    category, gender_tier, latitude, longitude, max_occupancy,
    house_number, contact_phone, caretaker_number,
    views, approved, available, rent_per_month, sharing_tier, price_per_night, overnight,
    created_at, updated_at`

// GetByID returns a full listing record (private fields included) or
// ledger.ErrNotFound.
func (r *ListingRepo) GetByID(ctx context.Context, id uint64) (model.Listing, error) {
    row := r.db.QueryRowContext(ctx,
        `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
    return scanListing(row)
}

// Find returns approved, available listings matching the structured facet
// filter, in stable catalog (id) order. Facets are AND-combined; the
// price bounds apply to the column picked by the filter's billing mode.
func (r *ListingRepo) Find(ctx context.Context, f search.Filter) ([]model.Listing, error) {
    where := []string{"approved = 1", "available = 1"}
    args := []any{}

    if f.UniversityID != 0 {
        where = append(where, "university_id = ?")
        args = append(args, f.UniversityID)
    }
    if f.City != "" {
        where = append(where, "LOWER(city) LIKE ?")
        args = append(args, "%"+strings.ToLower(f.City)+"%")
    }
    if f.GenderTier != "" {
        where = append(where, "gender_tier = ?")
        args = append(args, strings.ToUpper(f.GenderTier))
    }
    if f.SharingTier != "" {
        where = append(where, "sharing_tier = ?")
        args = append(args, strings.ToUpper(f.SharingTier))
    }
    if f.Overnight != nil {
        where = append(where, "overnight = ?")
        args = append(args, *f.Overnight)
    }
    if len(f.Categories) > 0 {
        ph := strings.TrimSuffix(strings.Repeat("?,", len(f.Categories)), ",")
        where = append(where, "category IN ("+ph+")")
        for _, c := range f.Categories {
            args = append(args, strings.ToUpper(c))
        }
    }

    priceCol := "rent_per_month"
    if f.BillingMode == model.BillingNightly {
        priceCol = "price_per_night"
    }
    if f.MinPrice != nil {
        where = append(where, priceCol+" >= ?")
        args = append(args, *f.MinPrice)
    }
    if f.MaxPrice != nil {
        where = append(where, priceCol+" <= ?")
        args = append(args, *f.MaxPrice)
    }

    q := `SELECT ` + listingColumns + ` FROM listings WHERE ` +
        strings.Join(where, " AND ") + ` ORDER BY id ASC`

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.Listing
    for rows.Next() {
        l, err := scanListing(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, l)
    }
    return out, rows.Err()
}

// IncrementViews bumps the popularity counter. Best effort: a failed bump
// is logged and never fails the caller's request.
func (r *ListingRepo) IncrementViews(ctx context.Context, id uint64) {
    if _, err := r.db.ExecContext(ctx,
        `UPDATE listings SET views = views + 1 WHERE id = ?`, id); err != nil {
        log.Printf("listings: view counter bump failed for %d: %v", id, err)
    }
}

func scanListing(s scanner) (model.Listing, error) {
    var (
        l            model.Listing
        lat, lon     sql.NullFloat64
        rentMonthly  sql.NullInt64
        sharingTier  sql.NullString
        priceNightly sql.NullInt64
        overnight    sql.NullBool
    )
    err := s.Scan(&l.ID, &l.LandlordID, &l.UniversityID, &l.Title, &l.Description,
        &l.Location, &l.Amenities, &l.City, &l.Category, &l.GenderTier,
        &lat, &lon, &l.MaxOccupancy,
        &l.HouseNumber, &l.ContactPhone, &l.CaretakerNumber,
        &l.Views, &l.Approved, &l.Available,
        &rentMonthly, &sharingTier, &priceNightly, &overnight,
        &l.CreatedAt, &l.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Listing{}, ledger.ErrNotFound
    }
    if err != nil {
        return model.Listing{}, err
    }
    if lat.Valid {
        v := lat.Float64
        l.Latitude = &v
    }
    if lon.Valid {
        v := lon.Float64
        l.Longitude = &v
    }
    if model.MonthlyBilled(l.Category) {
        l.Rental = &model.RentalTerms{
            RentPerMonth: rentMonthly.Int64,
            SharingTier:  sharingTier.String,
        }
    } else {
        l.Stay = &model.StayTerms{
            PricePerNight: priceNightly.Int64,
            Overnight:     overnight.Bool,
        }
    }
    return l, nil
}
