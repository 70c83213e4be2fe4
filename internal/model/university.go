package model

import "time"

// University represents a row in the `universities` table. Every listing
// and every fee grant is scoped to exactly one university: the admin fee
// is charged per head at the university's rate, and campus coordinates
// anchor distance filtering and the "distance to campus" display.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name of the institution.
//  City       – city the campus is located in.
//  FeePerHead – admin fee charged per requested head, in whole shillings.
//  Latitude   – campus latitude in degrees (nullable).
//  Longitude  – campus longitude in degrees (nullable).
//  CreatedAt  – timestamp of creation.
type University struct {
    ID         uint64    // universities.id
    Name       string    // universities.name
    City       string    // universities.city
    FeePerHead int64     // universities.fee_per_head
    Latitude   *float64  // universities.latitude (nullable)
    Longitude  *float64  // universities.longitude (nullable)
    CreatedAt  time.Time // universities.created_at
}

// HasCoordinates reports whether both campus coordinates are present.
func (u University) HasCoordinates() bool { return u.Latitude != nil && u.Longitude != nil }
