// Package search implements the listing search and ranking pipeline. The
// catalog store prefilters candidates by structured facets in SQL; the
// engine then applies the free-text tokens, picks an ordering mode, scores
// relevance and assembles the page together with the secondary "related
// results" list. The catalog is small, so the in-memory half of the
// pipeline stays cheap.
package search

import (
    "context"
    "sort"
    "time"

    "github.com/unilodge/unilodge-api/internal/geo"
    "github.com/unilodge/unilodge-api/internal/ledger"
    "github.com/unilodge/unilodge-api/internal/model"
    "github.com/unilodge/unilodge-api/internal/session"
)

// Relevance weights per matched field, summed across query terms.
const (
    weightTitle       = 6
    weightLocation    = 4
    weightAmenities   = 3
    weightDescription = 2
    weightCity        = 2
)

// relatedCap bounds the secondary related-results list.
const relatedCap = 6

// implicitTerms is how many of the session's most frequent prior terms
// feed implicit ranking when a search arrives without query text.
const implicitTerms = 3

// Sort keys accepted in Request.Sort.
const (
    SortPriceAsc  = "price_asc"
    SortPriceDesc = "price_desc"
    SortNewest    = "newest"
    SortPopular   = "popular"
)

// Filter is the structured facet set handed to the catalog store. All
// fields are optional and AND-combined. Price bounds apply to the column
// selected by BillingMode.
type Filter struct {
    UniversityID uint64
    City         string
    GenderTier   string
    SharingTier  string
    Overnight    *bool
    Categories   []string
    MinPrice     *int64
    MaxPrice     *int64
    BillingMode  string
}

// Catalog supplies approved, available listings matching a facet filter.
type Catalog interface {
    Find(ctx context.Context, f Filter) ([]model.Listing, error)
}

// Request carries everything a search call may specify.
type Request struct {
    UniversityID uint64
    Query        string
    City         string
    GenderTier   string
    SharingTier  string
    Overnight    *bool
    Categories   []string
    MinPrice     *int64
    MaxPrice     *int64
    Sort         string   // one of the Sort* keys, or empty
    Latitude     *float64 // with Longitude set, switches to distance ordering
    Longitude    *float64
    RadiusKm     *float64 // optional cut-off in distance ordering
    Farthest     bool     // sort distance descending instead of ascending
    Page         int
    PageSize     int
}

// Summary is the public projection of a listing: no private contact
// fields. DistanceKm is set in distance ordering mode; CampusKm whenever
// both the listing and its university carry coordinates.
type Summary struct {
    ID          uint64    `json:"id"`
    Title       string    `json:"title"`
    Location    string    `json:"location"`
    City        string    `json:"city"`
    Category    string    `json:"category"`
    GenderTier  string    `json:"gender_tier"`
    SharingTier string    `json:"sharing_tier,omitempty"`
    Overnight   *bool     `json:"overnight,omitempty"`
    Price       int64     `json:"price"`
    BillingMode string    `json:"billing_mode"`
    Views       uint64    `json:"views"`
    CampusKm    *float64  `json:"campus_km,omitempty"`
    DistanceKm  *float64  `json:"distance_km,omitempty"`
    CreatedAt   time.Time `json:"created_at"`
}

// Result is one page of ordered summaries plus the related supplement.
type Result struct {
    Items       []Summary `json:"items"`
    Related     []Summary `json:"related,omitempty"`
    Total       int       `json:"total"`
    Page        int       `json:"page"`
    PageSize    int       `json:"page_size"`
    BillingMode string    `json:"billing_mode"`
}

// Engine runs the search pipeline.
type Engine struct {
    catalog      Catalog
    universities ledger.UniversityDirectory
}

// NewEngine wires a search engine.
func NewEngine(catalog Catalog, universities ledger.UniversityDirectory) *Engine {
    if catalog == nil || universities == nil {
        panic("nil dependency passed to search.NewEngine")
    }
    return &Engine{catalog: catalog, universities: universities}
}

// cand pairs a listing with the per-request values computed for it.
type cand struct {
    l        model.Listing
    score    int
    dist     *float64 // distance to the query point, distance mode only
    campusKm *float64 // distance to the listing's own campus
}

// Search runs the full pipeline and mutates hist with the query's terms
// as a side effect. The caller persists hist best-effort afterwards; a
// nil hist disables personalization for the call.
func (e *Engine) Search(ctx context.Context, req Request, hist session.History) (Result, error) {
    mode := model.BillingFor(req.Categories)
    parsed := ParseQuery(req.Query)

    listings, err := e.catalog.Find(ctx, Filter{
        UniversityID: req.UniversityID,
        City:         req.City,
        GenderTier:   req.GenderTier,
        SharingTier:  req.SharingTier,
        Overnight:    req.Overnight,
        Categories:   req.Categories,
        MinPrice:     req.MinPrice,
        MaxPrice:     req.MaxPrice,
        BillingMode:  mode,
    })
    if err != nil {
        return Result{}, err
    }

    campuses := e.campusCoords(ctx, listings)
    pool := make([]cand, 0, len(listings))
    for _, l := range listings {
        c := cand{l: l, campusKm: campusDistance(l, campuses)}
        if parsed.MaxPrice != nil {
            price, ok := l.PriceFor(mode)
            if !ok || price > *parsed.MaxPrice {
                continue
            }
        }
        if parsed.MaxCampusKm != nil {
            if c.campusKm == nil || *c.campusKm > *parsed.MaxCampusKm {
                continue
            }
        }
        pool = append(pool, c)
    }

    // AND across terms; each term may match any searchable field.
    primary := pool
    if len(parsed.Terms) > 0 {
        primary = make([]cand, 0, len(pool))
        for _, c := range pool {
            if matchesAll(c.l, parsed.Terms) {
                primary = append(primary, c)
            }
        }
    }

    geoMode := req.Latitude != nil && req.Longitude != nil
    relevanceMode := false
    switch {
    case geoMode:
        primary = orderByDistance(primary, *req.Latitude, *req.Longitude, req.RadiusKm, req.Farthest)
    case req.Sort == SortPriceAsc || req.Sort == SortPriceDesc:
        orderByPrice(primary, mode, req.Sort == SortPriceDesc)
    case req.Sort == SortNewest:
        sort.SliceStable(primary, func(i, j int) bool {
            return primary[i].l.CreatedAt.After(primary[j].l.CreatedAt)
        })
    case req.Sort == SortPopular:
        orderByPopularity(primary)
    case len(parsed.Terms) > 0:
        relevanceMode = true
        orderByRelevance(primary, parsed.Terms)
    default:
        // No query and no explicit sort: fall back to the session's most
        // frequent prior terms, or plain popularity without history.
        if top := hist.Top(implicitTerms); len(top) > 0 {
            orderByRelevance(primary, top)
        } else {
            orderByPopularity(primary)
        }
    }

    var related []Summary
    if relevanceMode {
        related = e.relatedResults(pool, primary, parsed.Terms, mode)
    }

    // Record the query's terms for future implicit ranking. Persistence is
    // the caller's problem and explicitly best-effort.
    if hist != nil {
        for _, term := range parsed.Terms {
            hist.Bump(term)
        }
    }

    page, size := normalizePage(req.Page, req.PageSize)
    total := len(primary)
    start := (page - 1) * size
    if start > total {
        start = total
    }
    end := start + size
    if end > total {
        end = total
    }

    items := make([]Summary, 0, end-start)
    for _, c := range primary[start:end] {
        items = append(items, summarize(c, mode))
    }
    return Result{
        Items:       items,
        Related:     related,
        Total:       total,
        Page:        page,
        PageSize:    size,
        BillingMode: mode,
    }, nil
}

// relatedResults picks candidates matching any surviving term that did not
// make the primary (AND-filtered) set, ordered by popularity then recency.
func (e *Engine) relatedResults(pool, primary []cand, terms []string, mode string) []Summary {
    inPrimary := make(map[uint64]struct{}, len(primary))
    for _, c := range primary {
        inPrimary[c.l.ID] = struct{}{}
    }
    extra := make([]cand, 0, relatedCap)
    for _, c := range pool {
        if _, ok := inPrimary[c.l.ID]; ok {
            continue
        }
        if matchesAny(c.l, terms) {
            extra = append(extra, c)
        }
    }
    orderByPopularity(extra)
    if len(extra) > relatedCap {
        extra = extra[:relatedCap]
    }
    out := make([]Summary, 0, len(extra))
    for _, c := range extra {
        out = append(out, summarize(c, mode))
    }
    return out
}

// campusCoords resolves the universities referenced by the candidate set.
// Lookup failures just leave the campus unknown; distance display and the
// km filter treat that as missing data, not an error.
func (e *Engine) campusCoords(ctx context.Context, listings []model.Listing) map[uint64]model.University {
    out := make(map[uint64]model.University)
    for _, l := range listings {
        if _, seen := out[l.UniversityID]; seen {
            continue
        }
        uni, err := e.universities.GetByID(ctx, l.UniversityID)
        if err != nil {
            continue
        }
        out[l.UniversityID] = uni
    }
    return out
}

func campusDistance(l model.Listing, campuses map[uint64]model.University) *float64 {
    uni, ok := campuses[l.UniversityID]
    if !ok || !uni.HasCoordinates() || !l.HasCoordinates() {
        return nil
    }
    d := geo.DistanceKm(*l.Latitude, *l.Longitude, *uni.Latitude, *uni.Longitude)
    return &d
}

// orderByDistance computes the distance from the query point for every
// candidate with coordinates, drops the rest (and anything beyond the
// radius), and sorts by distance. Stable sort keeps catalog order on ties.
func orderByDistance(cs []cand, lat, lon float64, radiusKm *float64, farthest bool) []cand {
    kept := make([]cand, 0, len(cs))
    for _, c := range cs {
        if !c.l.HasCoordinates() {
            continue
        }
        d := geo.DistanceKm(lat, lon, *c.l.Latitude, *c.l.Longitude)
        if radiusKm != nil && d > *radiusKm {
            continue
        }
        c.dist = &d
        kept = append(kept, c)
    }
    sort.SliceStable(kept, func(i, j int) bool {
        if farthest {
            return *kept[i].dist > *kept[j].dist
        }
        return *kept[i].dist < *kept[j].dist
    })
    return kept
}

func orderByPrice(cs []cand, mode string, desc bool) {
    sort.SliceStable(cs, func(i, j int) bool {
        pi, iok := cs[i].l.PriceFor(mode)
        pj, jok := cs[j].l.PriceFor(mode)
        if iok != jok {
            return iok // listings without a price in this mode go last
        }
        if desc {
            return pi > pj
        }
        return pi < pj
    })
}

func orderByPopularity(cs []cand) {
    sort.SliceStable(cs, func(i, j int) bool {
        if cs[i].l.Views != cs[j].l.Views {
            return cs[i].l.Views > cs[j].l.Views
        }
        return cs[i].l.CreatedAt.After(cs[j].l.CreatedAt)
    })
}

func orderByRelevance(cs []cand, terms []string) {
    for i := range cs {
        cs[i].score = score(cs[i].l, terms)
    }
    sort.SliceStable(cs, func(i, j int) bool {
        if cs[i].score != cs[j].score {
            return cs[i].score > cs[j].score
        }
        if cs[i].l.Views != cs[j].l.Views {
            return cs[i].l.Views > cs[j].l.Views
        }
        return cs[i].l.CreatedAt.After(cs[j].l.CreatedAt)
    })
}

func summarize(c cand, mode string) Summary {
    s := Summary{
        ID:          c.l.ID,
        Title:       c.l.Title,
        Location:    c.l.Location,
        City:        c.l.City,
        Category:    c.l.Category,
        GenderTier:  c.l.GenderTier,
        Views:       c.l.Views,
        CampusKm:    c.campusKm,
        DistanceKm:  c.dist,
        BillingMode: mode,
        CreatedAt:   c.l.CreatedAt,
    }
    if price, ok := c.l.PriceFor(mode); ok {
        s.Price = price
    }
    if c.l.Rental != nil {
        s.SharingTier = c.l.Rental.SharingTier
    }
    if c.l.Stay != nil {
        overnight := c.l.Stay.Overnight
        s.Overnight = &overnight
    }
    return s
}

func normalizePage(page, size int) (int, int) {
    if page < 1 {
        page = 1
    }
    if size < 1 {
        size = 20
    }
    if size > 100 {
        size = 100
    }
    return page, size
}
