// Package unlock implements the contact unlock gate: it spends one unit
// of an active fee grant to reveal a listing's private contact block,
// exactly once per (grant, listing) pair, and quotes the admin fee when
// the caller has no active grant.
package unlock

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/unilodge/unilodge-api/internal/ledger"
    "github.com/unilodge/unilodge-api/internal/model"
)

// PaymentInstructions is returned with every price quote. Payment is a
// manual transfer attested by the user and reviewed by an admin; there is
// no gateway integration.
const PaymentInstructions = "Send the amount to the UniLodge paybill and submit the transaction code as a payment confirmation. An administrator will verify it and unlock your contacts."

// GrantFinder locates a user's usable grant for a university.
type GrantFinder interface {
    // ActiveGrant returns the most recently created grant of the user for
    // the university that is active at the given instant, or
    // ledger.ErrNotFound when none exists.
    ActiveGrant(ctx context.Context, userID, universityID uint64, at time.Time) (model.FeeGrant, error)
}

// UnlockStore performs the charged reveal. Consume must behave as a single
// atomic unit with respect to other calls against the same grant: check
// for an existing unlock record, check the remaining quota, then insert
// the record and decrement by exactly one. MySQL implementations take a
// row lock on the grant; the in-memory test double uses a mutex.
type UnlockStore interface {
    // Consume returns charged=false when the (grant, listing) pair was
    // already unlocked (free repeat view), charged=true after debiting one
    // unit, or ledger.ErrQuotaExhausted when no units remain.
    Consume(ctx context.Context, grantID, listingID uint64) (charged bool, remaining int, err error)
}

// ListingStore fetches full listing records including the private fields.
type ListingStore interface {
    GetByID(ctx context.Context, id uint64) (model.Listing, error)
}

// ContactDetails is the private block revealed to a paying user.
type ContactDetails struct {
    HouseNumber     string   `json:"house_number"`
    ContactPhone    string   `json:"contact_phone"`
    CaretakerNumber string   `json:"caretaker_number"`
    Latitude        *float64 `json:"latitude,omitempty"`
    Longitude       *float64 `json:"longitude,omitempty"`
}

// PriceQuote tells a user without an active grant what the unlock costs.
type PriceQuote struct {
    Amount       int64  `json:"amount"`
    Headcount    int    `json:"headcount"`
    Instructions string `json:"instructions"`
}

// Outcome is the result of a reveal attempt. Exactly one of Contact and
// Quote is set unless PaymentRequired is true, in which case both are nil:
// the caller had no grant and supplied no headcount to quote for.
type Outcome struct {
    Contact         *ContactDetails
    Quote           *PriceQuote
    PaymentRequired bool
    Charged         bool // true when this reveal debited a unit
    UnitsRemaining  int  // units left on the grant after this call
}

// Service is the contact unlock gate.
type Service struct {
    grants       GrantFinder
    unlocks      UnlockStore
    listings     ListingStore
    universities ledger.UniversityDirectory
    now          func() time.Time
}

// NewService wires an unlock gate.
func NewService(grants GrantFinder, unlocks UnlockStore, listings ListingStore, universities ledger.UniversityDirectory) *Service {
    if grants == nil || unlocks == nil || listings == nil || universities == nil {
        panic("nil dependency passed to unlock.NewService")
    }
    return &Service{
        grants:       grants,
        unlocks:      unlocks,
        listings:     listings,
        universities: universities,
        now:          time.Now,
    }
}

// RevealContact resolves a user's request for a listing's contact block.
//
// With an active grant for the listing's university the contact details
// are returned; the first reveal per (grant, listing) debits one unit,
// repeats are free. Without an active grant the caller gets a price quote
// for the requested headcount, or a bare payment-required outcome when no
// headcount was supplied — that branch is an expected result, not an
// error.
func (s *Service) RevealContact(ctx context.Context, userID, listingID uint64, headcount *int) (Outcome, error) {
    listing, err := s.listings.GetByID(ctx, listingID)
    if err != nil {
        return Outcome{}, err
    }

    grant, err := s.grants.ActiveGrant(ctx, userID, listing.UniversityID, s.now())
    switch {
    case err == nil:
        return s.reveal(ctx, grant, listing)
    case errors.Is(err, ledger.ErrNotFound):
        return s.quote(ctx, listing, headcount)
    default:
        return Outcome{}, err
    }
}

// reveal returns the contact block, charging the grant on first view only.
func (s *Service) reveal(ctx context.Context, grant model.FeeGrant, listing model.Listing) (Outcome, error) {
    charged, remaining, err := s.unlocks.Consume(ctx, grant.ID, listing.ID)
    if err != nil {
        return Outcome{}, err
    }
    return Outcome{
        Contact: &ContactDetails{
            HouseNumber:     listing.HouseNumber,
            ContactPhone:    listing.ContactPhone,
            CaretakerNumber: listing.CaretakerNumber,
            Latitude:        listing.Latitude,
            Longitude:       listing.Longitude,
        },
        Charged:        charged,
        UnitsRemaining: remaining,
    }, nil
}

// quote prices an unlock for a user with no active grant.
func (s *Service) quote(ctx context.Context, listing model.Listing, headcount *int) (Outcome, error) {
    if headcount == nil {
        return Outcome{PaymentRequired: true}, nil
    }
    n := *headcount
    if n < 1 {
        return Outcome{}, fmt.Errorf("%w: headcount must be at least 1", ledger.ErrValidation)
    }
    if listing.MaxOccupancy > 0 && n > listing.MaxOccupancy {
        return Outcome{}, &ledger.CapacityError{Max: listing.MaxOccupancy}
    }
    uni, err := s.universities.GetByID(ctx, listing.UniversityID)
    if err != nil {
        return Outcome{}, err
    }
    return Outcome{
        Quote: &PriceQuote{
            Amount:       uni.FeePerHead * int64(n),
            Headcount:    n,
            Instructions: PaymentInstructions,
        },
    }, nil
}
