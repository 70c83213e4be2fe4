package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBillingFor(t *testing.T) {
	assert.Equal(t, BillingMonthly, BillingFor(nil), "empty selection defaults to monthly")
	assert.Equal(t, BillingMonthly, BillingFor([]string{CategoryBedsitter, CategoryHostel}))
	assert.Equal(t, BillingNightly, BillingFor([]string{CategoryAirbnb}))
	// One short-stay category flips the whole selection to nightly.
	assert.Equal(t, BillingNightly, BillingFor([]string{CategoryBedsitter, CategoryLodging}))
}

func TestPriceFor(t *testing.T) {
	rental := Listing{Category: CategoryBedsitter, Rental: &RentalTerms{RentPerMonth: 7000}}
	stay := Listing{Category: CategoryAirbnb, Stay: &StayTerms{PricePerNight: 2500}}

	p, ok := rental.PriceFor(BillingMonthly)
	assert.True(t, ok)
	assert.Equal(t, int64(7000), p)

	_, ok = rental.PriceFor(BillingNightly)
	assert.False(t, ok, "a bedsitter has no nightly price")

	p, ok = stay.PriceFor(BillingNightly)
	assert.True(t, ok)
	assert.Equal(t, int64(2500), p)

	_, ok = stay.PriceFor(BillingMonthly)
	assert.False(t, ok)
}
