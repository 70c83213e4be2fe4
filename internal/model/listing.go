package model

import "time"

// Listing categories. Long-stay categories are billed per month, short-stay
// categories per night; the split decides which price column participates
// in range filters and price ordering.
const (
    CategoryBedsitter  = "BEDSITTER"
    CategorySingleRoom = "SINGLE_ROOM"
    CategoryOneBedroom = "ONE_BEDROOM"
    CategoryTwoBedroom = "TWO_BEDROOM"
    CategoryHostel     = "HOSTEL"
    CategoryAirbnb     = "AIRBNB"
    CategoryLodging    = "LODGING"
)

// Gender tiers restrict who a property admits.
const (
    GenderLadies = "LADIES"
    GenderGents  = "GENTS"
    GenderMixed  = "MIXED"
)

// Billing modes derived from the active category set.
const (
    BillingMonthly = "MONTHLY"
    BillingNightly = "NIGHTLY"
)

// monthlyBilled holds the categories whose price is interpreted per month.
var monthlyBilled = map[string]bool{
    CategoryBedsitter:  true,
    CategorySingleRoom: true,
    CategoryOneBedroom: true,
    CategoryTwoBedroom: true,
    CategoryHostel:     true,
}

// MonthlyBilled reports whether the given category is billed per month.
func MonthlyBilled(category string) bool { return monthlyBilled[category] }

// BillingFor resolves the billing mode for a category selection. The mode
// is monthly only when every selected category is billed monthly; any
// short-stay category in the set switches filters and sorts to the nightly
// price. An empty selection defaults to monthly, the common case for
// student housing.
func BillingFor(categories []string) string {
    for _, c := range categories {
        if !monthlyBilled[c] {
            return BillingNightly
        }
    }
    return BillingMonthly
}

// RentalTerms carries the fields that only exist for long-stay listings.
//
// Fields:
//  RentPerMonth – monthly rent in whole shillings.
//  SharingTier  – occupancy arrangement (e.g. SINGLE, SHARED_2, SHARED_4).
type RentalTerms struct {
    RentPerMonth int64  // listings.rent_per_month
    SharingTier  string // listings.sharing_tier
}

// StayTerms carries the fields that only exist for short-stay listings.
//
// Fields:
//  PricePerNight – nightly price in whole shillings.
//  Overnight     – whether single-night (overnight) stays are accepted.
type StayTerms struct {
    PricePerNight int64 // listings.price_per_night
    Overnight     bool  // listings.overnight
}

// Listing represents a property advertised on the marketplace, stored in
// the `listings` table. The base record holds the fields shared by every
// category; exactly one of Rental or Stay is populated depending on
// whether the category is billed monthly or nightly, so that fields which
// do not apply to a category simply do not exist on the record.
//
// HouseNumber, ContactPhone and CaretakerNumber are the private contact
// block: they are never included in search results and are only revealed
// through the contact unlock gate.
//
// Fields:
//  ID              – primary key identifier.
//  LandlordID      – user who owns the listing.
//  UniversityID    – university the property serves.
//  Title           – short headline.
//  Description     – free-text description.
//  Location        – neighbourhood / estate description.
//  Amenities       – comma separated amenity list.
//  City            – city name.
//  Category        – one of the Category* constants.
//  GenderTier      – one of the Gender* constants.
//  Latitude        – property latitude in degrees (nullable).
//  Longitude       – property longitude in degrees (nullable).
//  MaxOccupancy    – declared occupancy limit; 0 means undeclared.
//  HouseNumber     – private: house/door number.
//  ContactPhone    – private: landlord phone number.
//  CaretakerNumber – private: caretaker phone number.
//  Views           – popularity counter incremented on detail views.
//  Approved        – whether an admin approved the listing for display.
//  Available       – whether the landlord marked it as currently open.
//  Rental          – long-stay terms (nil for nightly categories).
//  Stay            – short-stay terms (nil for monthly categories).
type Listing struct {
    ID              uint64       // listings.id
    LandlordID      uint64       // listings.landlord_id
    UniversityID    uint64       // listings.university_id
    Title           string       // listings.title
    Description     string       // listings.description
    Location        string       // listings.location
    Amenities       string       // listings.amenities
    City            string       // listings.city
    Category        string       // listings.category
    GenderTier      string       // listings.gender_tier
    Latitude        *float64     // listings.latitude (nullable)
    Longitude       *float64     // listings.longitude (nullable)
    MaxOccupancy    int          // listings.max_occupancy (0 = undeclared)
    HouseNumber     string       // listings.house_number (private)
    ContactPhone    string       // listings.contact_phone (private)
    CaretakerNumber string       // listings.caretaker_number (private)
    Views           uint64       // listings.views
    Approved        bool         // listings.approved
    Available       bool         // listings.available
    CreatedAt       time.Time    // listings.created_at
    UpdatedAt       time.Time    // listings.updated_at
    Rental          *RentalTerms // monthly-billed terms, nil otherwise
    Stay            *StayTerms   // nightly-billed terms, nil otherwise
}

// HasCoordinates reports whether both property coordinates are present.
func (l Listing) HasCoordinates() bool { return l.Latitude != nil && l.Longitude != nil }

// PriceFor returns the price relevant to the given billing mode. The
// second return value is false when the listing has no price in that mode
// (e.g. a bedsitter asked for its nightly price).
func (l Listing) PriceFor(mode string) (int64, bool) {
    switch mode {
    case BillingNightly:
        if l.Stay != nil {
            return l.Stay.PricePerNight, true
        }
    default:
        if l.Rental != nil {
            return l.Rental.RentPerMonth, true
        }
    }
    return 0, false
}
