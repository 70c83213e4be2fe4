package unlock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilodge/unilodge-api/internal/ledger"
	"github.com/unilodge/unilodge-api/internal/model"
)

// ----- in-memory fakes -----

type fakeGrantFinder struct {
	grant *model.FeeGrant
}

func (f *fakeGrantFinder) ActiveGrant(_ context.Context, userID, universityID uint64, at time.Time) (model.FeeGrant, error) {
	if f.grant == nil || f.grant.UserID != userID || f.grant.UniversityID != universityID || !f.grant.ActiveAt(at) {
		return model.FeeGrant{}, ledger.ErrNotFound
	}
	return *f.grant, nil
}

// fakeUnlocks mirrors the row-locked MySQL store with a mutex: the check
// for a prior unlock, the quota check and the decrement are one critical
// section.
type fakeUnlocks struct {
	mu        sync.Mutex
	remaining int
	seen      map[[2]uint64]bool
}

func newFakeUnlocks(units int) *fakeUnlocks {
	return &fakeUnlocks{remaining: units, seen: map[[2]uint64]bool{}}
}

func (f *fakeUnlocks) Consume(_ context.Context, grantID, listingID uint64) (bool, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := [2]uint64{grantID, listingID}
	if f.seen[key] {
		return false, f.remaining, nil
	}
	if f.remaining <= 0 {
		return false, 0, ledger.ErrQuotaExhausted
	}
	f.seen[key] = true
	f.remaining--
	return true, f.remaining, nil
}

type fakeListings struct {
	rows map[uint64]model.Listing
}

func (f *fakeListings) GetByID(_ context.Context, id uint64) (model.Listing, error) {
	l, ok := f.rows[id]
	if !ok {
		return model.Listing{}, ledger.ErrNotFound
	}
	return l, nil
}

type fakeDirectory struct {
	unis map[uint64]model.University
}

func (f *fakeDirectory) GetByID(_ context.Context, id uint64) (model.University, error) {
	u, ok := f.unis[id]
	if !ok {
		return model.University{}, ledger.ErrNotFound
	}
	return u, nil
}

// ----- fixture -----

func testListing(id uint64) model.Listing {
	return model.Listing{
		ID:              id,
		UniversityID:    1,
		Title:           "Bedsitter near gate A",
		MaxOccupancy:    4,
		HouseNumber:     "B12",
		ContactPhone:    "0712000111",
		CaretakerNumber: "0712000222",
		Approved:        true,
		Available:       true,
		Rental:          &model.RentalTerms{RentPerMonth: 7000},
	}
}

func newGate(grant *model.FeeGrant, units int) (*Service, *fakeUnlocks) {
	unlocks := newFakeUnlocks(units)
	listings := &fakeListings{rows: map[uint64]model.Listing{}}
	for id := uint64(1); id <= 10; id++ {
		listings.rows[id] = testListing(id)
	}
	dir := &fakeDirectory{unis: map[uint64]model.University{
		1: {ID: 1, Name: "Kenyatta University", FeePerHead: 10},
	}}
	return NewService(&fakeGrantFinder{grant: grant}, unlocks, listings, dir), unlocks
}

func activeGrant(units int) *model.FeeGrant {
	return &model.FeeGrant{ID: 5, UserID: 7, UniversityID: 1, AllowedUnits: 3, UnitsRemaining: units}
}

// ----- tests -----

func TestQuoteWithoutGrant(t *testing.T) {
	gate, _ := newGate(nil, 0)
	n := 3

	out, err := gate.RevealContact(context.Background(), 7, 1, &n)
	require.NoError(t, err)

	require.NotNil(t, out.Quote)
	assert.Nil(t, out.Contact)
	assert.Equal(t, int64(30), out.Quote.Amount, "fee_per_head x headcount")
	assert.Equal(t, 3, out.Quote.Headcount)
	assert.Equal(t, PaymentInstructions, out.Quote.Instructions)
}

func TestPaymentRequiredWithoutHeadcount(t *testing.T) {
	gate, _ := newGate(nil, 0)

	out, err := gate.RevealContact(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	assert.True(t, out.PaymentRequired)
	assert.Nil(t, out.Contact)
	assert.Nil(t, out.Quote)
}

func TestQuoteValidation(t *testing.T) {
	gate, _ := newGate(nil, 0)

	zero := 0
	_, err := gate.RevealContact(context.Background(), 7, 1, &zero)
	assert.ErrorIs(t, err, ledger.ErrValidation)

	tooMany := 5 // listing declares max_occupancy 4
	_, err = gate.RevealContact(context.Background(), 7, 1, &tooMany)
	var capErr *ledger.CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 4, capErr.Max)
}

func TestRevealChargesOncePerListing(t *testing.T) {
	gate, unlocks := newGate(activeGrant(3), 3)

	out, err := gate.RevealContact(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Contact)
	assert.True(t, out.Charged)
	assert.Equal(t, 2, out.UnitsRemaining)
	assert.Equal(t, "0712000111", out.Contact.ContactPhone)
	assert.Equal(t, "B12", out.Contact.HouseNumber)

	// Repeat view of the same listing is free.
	out, err = gate.RevealContact(context.Background(), 7, 1, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Contact)
	assert.False(t, out.Charged)
	assert.Equal(t, 2, out.UnitsRemaining)
	assert.Equal(t, 2, unlocks.remaining)
}

func TestQuotaExhaustion(t *testing.T) {
	gate, _ := newGate(activeGrant(3), 3)

	for id := uint64(1); id <= 3; id++ {
		out, err := gate.RevealContact(context.Background(), 7, id, nil)
		require.NoError(t, err)
		assert.True(t, out.Charged)
	}

	_, err := gate.RevealContact(context.Background(), 7, 4, nil)
	assert.ErrorIs(t, err, ledger.ErrQuotaExhausted)

	// Already unlocked listings stay visible after exhaustion.
	out, err := gate.RevealContact(context.Background(), 7, 2, nil)
	require.NoError(t, err)
	require.NotNil(t, out.Contact)
	assert.False(t, out.Charged)
	assert.Equal(t, 0, out.UnitsRemaining)
}

func TestConcurrentRevealsNeverOvercharge(t *testing.T) {
	const attempts = 8
	const units = 3
	gate, unlocks := newGate(activeGrant(units), units)

	var wg sync.WaitGroup
	charged := make(chan bool, attempts)
	exhausted := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(listingID uint64) {
			defer wg.Done()
			out, err := gate.RevealContact(context.Background(), 7, listingID, nil)
			switch {
			case err == nil && out.Charged:
				charged <- true
			case errors.Is(err, ledger.ErrQuotaExhausted):
				exhausted <- true
			default:
				t.Errorf("listing %d: unexpected outcome (%+v, %v)", listingID, out, err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()
	close(charged)
	close(exhausted)

	assert.Equal(t, units, len(charged), "exactly one charge per remaining unit")
	assert.Equal(t, attempts-units, len(exhausted))
	assert.Equal(t, 0, unlocks.remaining)
}

func TestExpiredGrantQuotesInstead(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	g := activeGrant(3)
	g.ValidUntil = &past
	gate, _ := newGate(g, 3)

	n := 1
	out, err := gate.RevealContact(context.Background(), 7, 1, &n)
	require.NoError(t, err)
	assert.Nil(t, out.Contact, "expired grant must not reveal")
	require.NotNil(t, out.Quote)
	assert.Equal(t, int64(10), out.Quote.Amount)
}
