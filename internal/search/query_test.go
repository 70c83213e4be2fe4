package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryEmpty(t *testing.T) {
	for _, q := range []string{"", "   "} {
		p := ParseQuery(q)
		assert.Nil(t, p.MaxCampusKm)
		assert.Nil(t, p.MaxPrice)
		assert.Empty(t, p.Terms)
	}
}

func TestParseQueryDistanceToken(t *testing.T) {
	cases := []struct {
		q  string
		km float64
	}{
		{"2km", 2},
		{"2 km", 2},
		{"1.5KM", 1.5},
		{"wifi, 3 km", 3},
	}
	for _, tc := range cases {
		p := ParseQuery(tc.q)
		require.NotNil(t, p.MaxCampusKm, tc.q)
		assert.Equal(t, tc.km, *p.MaxCampusKm, tc.q)
	}

	// The km token is consumed; surrounding terms survive.
	p := ParseQuery("wifi, 3 km")
	assert.Equal(t, []string{"wifi"}, p.Terms)
}

func TestParseQueryBareAmount(t *testing.T) {
	cases := []struct {
		q     string
		price int64
	}{
		{"150", 150},
		{"7,500", 7500},
		{"ksh 12000", 12000},
		{"KES 9,000", 9000},
	}
	for _, tc := range cases {
		p := ParseQuery(tc.q)
		require.NotNil(t, p.MaxPrice, tc.q)
		assert.Equal(t, tc.price, *p.MaxPrice, tc.q)
		assert.Empty(t, p.Terms, "a price query carries no text terms")
	}
}

func TestParseQueryTerms(t *testing.T) {
	p := ParseQuery("WiFi, hot shower , Ruiru")
	assert.Equal(t, []string{"wifi", "hot shower", "ruiru"}, p.Terms)
	assert.Nil(t, p.MaxPrice)
	assert.Nil(t, p.MaxCampusKm)

	// A number embedded in text is a term, not a price cap.
	p = ParseQuery("room for 2")
	assert.Nil(t, p.MaxPrice)
	assert.Equal(t, []string{"room for 2"}, p.Terms)
}

func TestParseQueryCombined(t *testing.T) {
	// Distance first, then the remainder is a pure amount.
	p := ParseQuery("2km 8000")
	require.NotNil(t, p.MaxCampusKm)
	require.NotNil(t, p.MaxPrice)
	assert.Equal(t, 2.0, *p.MaxCampusKm)
	assert.Equal(t, int64(8000), *p.MaxPrice)
	assert.Empty(t, p.Terms)
}
