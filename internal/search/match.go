package search

import (
    "strings"

    "github.com/unilodge/unilodge-api/internal/model"
)

// searchableFields returns the listing's text fields in scoring order,
// each paired with its relevance weight.
func searchableFields(l model.Listing) [5]struct {
    text   string
    weight int
} {
    return [5]struct {
        text   string
        weight int
    }{
        {l.Title, weightTitle},
        {l.Location, weightLocation},
        {l.Amenities, weightAmenities},
        {l.Description, weightDescription},
        {l.City, weightCity},
    }
}

// termMatches reports whether a lower-cased term appears in any searchable
// field of the listing.
func termMatches(l model.Listing, term string) bool {
    for _, f := range searchableFields(l) {
        if strings.Contains(strings.ToLower(f.text), term) {
            return true
        }
    }
    return false
}

// matchesAll reports whether every term matches the listing (AND across
// terms, OR across fields per term).
func matchesAll(l model.Listing, terms []string) bool {
    for _, t := range terms {
        if !termMatches(l, t) {
            return false
        }
    }
    return true
}

// matchesAny reports whether at least one term matches the listing.
func matchesAny(l model.Listing, terms []string) bool {
    for _, t := range terms {
        if termMatches(l, t) {
            return true
        }
    }
    return false
}

// score sums the weights of every field hit across all terms.
func score(l model.Listing, terms []string) int {
    total := 0
    for _, t := range terms {
        for _, f := range searchableFields(l) {
            if strings.Contains(strings.ToLower(f.text), t) {
                total += f.weight
            }
        }
    }
    return total
}
