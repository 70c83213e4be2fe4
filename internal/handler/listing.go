package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/unilodge/unilodge-api/internal/geo"
    "github.com/unilodge/unilodge-api/internal/model"
    "github.com/unilodge/unilodge-api/internal/repository"
    "github.com/unilodge/unilodge-api/internal/search"
    "github.com/unilodge/unilodge-api/internal/session"
)

// ListingHandler serves the public listing surface: faceted search with
// ranking, and the single-listing detail view. Neither endpoint ever
// exposes the private contact block.
type ListingHandler struct {
    Engine       *search.Engine
    Listings     *repository.ListingRepo
    Universities *repository.UniversityRepo
    Sessions     session.Store
}

// NewListingHandler constructs a ListingHandler.
func NewListingHandler(engine *search.Engine, listings *repository.ListingRepo, universities *repository.UniversityRepo, sessions session.Store) *ListingHandler {
    if engine == nil || listings == nil || universities == nil || sessions == nil {
        panic("nil dependency passed to NewListingHandler")
    }
    return &ListingHandler{Engine: engine, Listings: listings, Universities: universities, Sessions: sessions}
}

// Search handles GET /v1/listings. Facets, free text, sort and geo
// parameters all arrive as query parameters; the response is one ordered
// page of summaries plus the related supplement when a query was given.
func (h *ListingHandler) Search(c echo.Context) error {
    req := search.Request{
        Query:      c.QueryParam("q"),
        City:       c.QueryParam("city"),
        GenderTier: strings.ToUpper(c.QueryParam("gender")),
        Sort:       strings.ToLower(c.QueryParam("sort")),
    }
    if v := c.QueryParam("university_id"); v != "" {
        id, err := strconv.ParseUint(v, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid university_id"})
        }
        req.UniversityID = id
    }
    if v := c.QueryParam("sharing"); v != "" {
        req.SharingTier = strings.ToUpper(v)
    }
    if v := c.QueryParam("overnight"); v != "" {
        b := v == "true" || v == "1"
        req.Overnight = &b
    }
    if v := c.QueryParam("category"); v != "" {
        for _, cat := range strings.Split(v, ",") {
            if cat = strings.TrimSpace(cat); cat != "" {
                req.Categories = append(req.Categories, strings.ToUpper(cat))
            }
        }
    }
    var badParam string
    req.MinPrice = int64Param(c, "min_price", &badParam)
    req.MaxPrice = int64Param(c, "max_price", &badParam)
    req.Latitude = floatParam(c, "lat", &badParam)
    req.Longitude = floatParam(c, "lon", &badParam)
    req.RadiusKm = floatParam(c, "radius_km", &badParam)
    if badParam != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid " + badParam})
    }
    req.Farthest = c.QueryParam("order") == "farthest"
    req.Page, _ = strconv.Atoi(c.QueryParam("page"))
    req.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))

    ctx := c.Request().Context()
    key := sessionKey(c)
    hist := h.Sessions.Load(ctx, key)

    result, err := h.Engine.Search(ctx, req, hist)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
    }

    // Best effort: losing the personalization signal never fails a search.
    if err := h.Sessions.Save(ctx, key, hist); err != nil {
        c.Logger().Warnf("session history save failed: %v", err)
    }

    return c.JSON(http.StatusOK, result)
}

// Detail handles GET /v1/listings/:id. The public projection is extended
// with the distance to campus when both sides have coordinates; a missing
// coordinate means the field is absent, never a fake zero. Each detail
// view bumps the popularity counter.
func (h *ListingHandler) Detail(c echo.Context) error {
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
    }
    ctx := c.Request().Context()
    l, err := h.Listings.GetByID(ctx, id)
    if err != nil {
        return respondLedgerError(c, err)
    }
    if !l.Approved || !l.Available {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    }

    h.Listings.IncrementViews(ctx, l.ID)

    resp := echo.Map{
        "id":          l.ID,
        "title":       l.Title,
        "description": l.Description,
        "location":    l.Location,
        "amenities":   l.Amenities,
        "city":        l.City,
        "category":    l.Category,
        "gender_tier": l.GenderTier,
        "views":       l.Views + 1,
        "created_at":  l.CreatedAt,
    }
    if l.MaxOccupancy > 0 {
        resp["max_occupancy"] = l.MaxOccupancy
    }
    if l.Rental != nil {
        resp["rent_per_month"] = l.Rental.RentPerMonth
        resp["sharing_tier"] = l.Rental.SharingTier
        resp["billing_mode"] = model.BillingMonthly
    }
    if l.Stay != nil {
        resp["price_per_night"] = l.Stay.PricePerNight
        resp["overnight"] = l.Stay.Overnight
        resp["billing_mode"] = model.BillingNightly
    }
    if uni, err := h.Universities.GetByID(ctx, l.UniversityID); err == nil {
        resp["university"] = uni.Name
        if uni.HasCoordinates() && l.HasCoordinates() {
            resp["campus_km"] = geo.DistanceKm(*l.Latitude, *l.Longitude, *uni.Latitude, *uni.Longitude)
        }
    }
    return c.JSON(http.StatusOK, resp)
}

// Universities handles GET /v1/universities: the institutions listings
// can be scoped to, with their admin fee rates so clients can show the
// unlock price up front.
func (h *ListingHandler) ListUniversities(c echo.Context) error {
	unis, err := h.Universities.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]echo.Map, 0, len(unis))
	for _, u := range unis {
		m := echo.Map{
			"id":           u.ID,
			"name":         u.Name,
			"city":         u.City,
			"fee_per_head": u.FeePerHead,
		}
		if u.HasCoordinates() {
			m["latitude"] = *u.Latitude
			m["longitude"] = *u.Longitude
		}
		out = append(out, m)
	}
	return c.JSON(http.StatusOK, echo.Map{"universities": out})
}

// sessionKey picks the identity the search history is tracked under: the
// authenticated user when present, otherwise a client-supplied session
// header, otherwise the caller's IP.
func sessionKey(c echo.Context) string {
    if uid, err := getUserID(c); err == nil && uid != 0 {
        return "u" + strconv.FormatUint(uid, 10)
    }
    if sid := strings.TrimSpace(c.Request().Header.Get("X-Session-ID")); sid != "" {
        return "s" + sid
    }
    return "ip" + c.RealIP()
}

func int64Param(c echo.Context, name string, bad *string) *int64 {
    v := c.QueryParam(name)
    if v == "" {
        return nil
    }
    n, err := strconv.ParseInt(v, 10, 64)
    if err != nil {
        *bad = name
        return nil
    }
    return &n
}

func floatParam(c echo.Context, name string, bad *string) *float64 {
    v := c.QueryParam(name)
    if v == "" {
        return nil
    }
    f, err := strconv.ParseFloat(v, 64)
    if err != nil {
        *bad = name
        return nil
    }
    return &f
}
