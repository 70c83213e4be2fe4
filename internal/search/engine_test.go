package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilodge/unilodge-api/internal/ledger"
	"github.com/unilodge/unilodge-api/internal/model"
	"github.com/unilodge/unilodge-api/internal/session"
)

// fakeCatalog serves a fixed slice, honoring only the category facet; the
// structured filtering itself is the store's concern, not the engine's.
type fakeCatalog struct {
	listings []model.Listing
}

func (f *fakeCatalog) Find(_ context.Context, flt Filter) ([]model.Listing, error) {
	if len(flt.Categories) == 0 {
		return f.listings, nil
	}
	want := map[string]bool{}
	for _, c := range flt.Categories {
		want[c] = true
	}
	var out []model.Listing
	for _, l := range f.listings {
		if want[l.Category] {
			out = append(out, l)
		}
	}
	return out, nil
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

func ptr[T any](v T) *T { return &v }

// Campus sits at the origin; 0.009 degrees of latitude is very close to
// one kilometre.
func testEngine() (*Engine, *fakeCatalog) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cat := &fakeCatalog{listings: []model.Listing{
		{
			ID: 1, UniversityID: 1, Title: "WiFi bedsitter with balcony", Location: "Kahawa Sukari",
			City: "Nairobi", Category: model.CategoryBedsitter, Views: 10,
			Latitude: ptr(0.009), Longitude: ptr(0.0), CreatedAt: base.Add(48 * time.Hour),
			Rental: &model.RentalTerms{RentPerMonth: 7000, SharingTier: "SINGLE"},
		},
		{
			ID: 2, UniversityID: 1, Title: "Single room", Location: "Kahawa Wendani",
			Description: "free wifi included", City: "Nairobi", Category: model.CategorySingleRoom, Views: 50,
			Latitude: ptr(0.027), Longitude: ptr(0.0), CreatedAt: base.Add(24 * time.Hour),
			Rental: &model.RentalTerms{RentPerMonth: 9000, SharingTier: "SINGLE"},
		},
		{
			ID: 3, UniversityID: 1, Title: "Quiet one bedroom", Location: "Membley",
			City: "Ruiru", Category: model.CategoryOneBedroom, Views: 90,
			CreatedAt: base, // no coordinates
			Rental:    &model.RentalTerms{RentPerMonth: 15000, SharingTier: "SINGLE"},
		},
		{
			ID: 4, UniversityID: 1, Title: "Cozy Airbnb studio", Location: "Kahawa Sukari",
			City: "Nairobi", Category: model.CategoryAirbnb, Views: 30,
			Latitude: ptr(0.018), Longitude: ptr(0.0), CreatedAt: base.Add(12 * time.Hour),
			Stay: &model.StayTerms{PricePerNight: 2500, Overnight: true},
		},
	}}
	dir := &fakeDirectory{unis: map[uint64]model.University{
		1: {ID: 1, Name: "Kenyatta University", Latitude: ptr(0.0), Longitude: ptr(0.0)},
	}}
	return NewEngine(cat, dir), cat
}

func ids(items []Summary) []uint64 {
	out := make([]uint64, len(items))
	for i, s := range items {
		out[i] = s.ID
	}
	return out
}

func TestSearchRelevanceOrdering(t *testing.T) {
	e, _ := testEngine()

	// "wifi" hits listing 1 in the title (weight 6) and listing 2 only in
	// the description (weight 2); the title match must win despite fewer
	// views.
	res, err := e.Search(context.Background(), Request{Query: "wifi"}, session.History{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, ids(res.Items))
	assert.Equal(t, model.BillingMonthly, res.BillingMode)
}

func TestSearchTermsAreANDed(t *testing.T) {
	e, _ := testEngine()

	res, err := e.Search(context.Background(), Request{Query: "wifi, balcony"}, session.History{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, ids(res.Items), "only listing 1 matches both terms")

	// Listing 2 matches one of the terms and lands in related results.
	require.Len(t, res.Related, 1)
	assert.Equal(t, uint64(2), res.Related[0].ID)
}

func TestSearchRelatedCapAndExclusion(t *testing.T) {
	e, _ := testEngine()

	res, err := e.Search(context.Background(), Request{Query: "kahawa"}, session.History{})
	require.NoError(t, err)
	// Both Kahawa listings are primary matches; nothing left to relate.
	assert.ElementsMatch(t, []uint64{1, 2, 4}, ids(res.Items))
	assert.Empty(t, res.Related)
}

func TestSearchImplicitRankingFromHistory(t *testing.T) {
	e, _ := testEngine()

	hist := session.History{"wifi": 3}
	res, err := e.Search(context.Background(), Request{}, hist)
	require.NoError(t, err)
	require.NotEmpty(t, res.Items)
	assert.Equal(t, uint64(1), res.Items[0].ID, "session history should lift the wifi title match")
	assert.Empty(t, res.Related, "implicit ranking produces no related list")
}

func TestSearchDefaultPopularity(t *testing.T) {
	e, _ := testEngine()

	res, err := e.Search(context.Background(), Request{}, session.History{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{3, 2, 4, 1}, ids(res.Items))
}

func TestSearchRecordsTerms(t *testing.T) {
	e, _ := testEngine()

	hist := session.History{}
	_, err := e.Search(context.Background(), Request{Query: "wifi, balcony"}, hist)
	require.NoError(t, err)
	assert.Equal(t, 1, hist["wifi"])
	assert.Equal(t, 1, hist["balcony"])
}

func TestSearchDistanceOrdering(t *testing.T) {
	e, _ := testEngine()

	res, err := e.Search(context.Background(), Request{
		Latitude:  ptr(0.0),
		Longitude: ptr(0.0),
	}, session.History{})
	require.NoError(t, err)
	// Listing 3 has no coordinates and is dropped; the rest order by
	// distance from the query point.
	assert.Equal(t, []uint64{1, 4, 2}, ids(res.Items))
	require.NotNil(t, res.Items[0].DistanceKm)
	assert.InDelta(t, 1.0, *res.Items[0].DistanceKm, 0.01)
}

func TestSearchDistanceRadiusAndFarthest(t *testing.T) {
	e, _ := testEngine()

	res, err := e.Search(context.Background(), Request{
		Latitude:  ptr(0.0),
		Longitude: ptr(0.0),
		RadiusKm:  ptr(2.5),
	}, session.History{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 4}, ids(res.Items), "3km listing is outside the radius")

	res, err = e.Search(context.Background(), Request{
		Latitude:  ptr(0.0),
		Longitude: ptr(0.0),
		Farthest:  true,
	}, session.History{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 4, 1}, ids(res.Items))
}

func TestSearchCampusKmToken(t *testing.T) {
	e, _ := testEngine()

	// "2.5km" keeps only listings within 2.5 km of their own campus;
	// listing 3 has no coordinates and cannot qualify, listing 2 sits
	// about 3 km out.
	res, err := e.Search(context.Background(), Request{Query: "2.5km"}, session.History{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{1, 4}, ids(res.Items))
	for _, item := range res.Items {
		require.NotNil(t, item.CampusKm)
		assert.LessOrEqual(t, *item.CampusKm, 2.5)
	}
}

func TestSearchPriceToken(t *testing.T) {
	e, _ := testEngine()

	res, err := e.Search(context.Background(), Request{Query: "8000"}, session.History{})
	require.NoError(t, err)
	// Monthly mode: only rents at or under 8000 qualify; the Airbnb has no
	// monthly price at all.
	assert.ElementsMatch(t, []uint64{1}, ids(res.Items))
}

func TestSearchNightlyBilling(t *testing.T) {
	e, _ := testEngine()

	res, err := e.Search(context.Background(), Request{
		Categories: []string{model.CategoryAirbnb},
		Sort:       SortPriceAsc,
	}, session.History{})
	require.NoError(t, err)
	assert.Equal(t, model.BillingNightly, res.BillingMode)
	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(2500), res.Items[0].Price)
	require.NotNil(t, res.Items[0].Overnight)
	assert.True(t, *res.Items[0].Overnight)
}

func TestSearchSortModes(t *testing.T) {
	e, _ := testEngine()

	res, err := e.Search(context.Background(), Request{Sort: SortPriceAsc}, session.History{})
	require.NoError(t, err)
	// Monthly mode: 7000, 9000, 15000; the Airbnb has no monthly price and
	// sorts last.
	assert.Equal(t, []uint64{1, 2, 3, 4}, ids(res.Items))

	res, err = e.Search(context.Background(), Request{Sort: SortNewest}, session.History{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Items[0].ID)
}

func TestSearchPagination(t *testing.T) {
	e, _ := testEngine()

	res, err := e.Search(context.Background(), Request{Page: 1, PageSize: 2}, session.History{})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Total)
	assert.Len(t, res.Items, 2)

	res, err = e.Search(context.Background(), Request{Page: 3, PageSize: 2}, session.History{})
	require.NoError(t, err)
	assert.Empty(t, res.Items, "past the last page")
	assert.Equal(t, 3, res.Page)

	res, err = e.Search(context.Background(), Request{}, session.History{})
	require.NoError(t, err)
	assert.Equal(t, 20, res.PageSize, "default page size")
}
