package search

import (
    "regexp"
    "strconv"
    "strings"
)

// kmToken matches a "<number> km" fragment anywhere in a query,
// case-insensitive, e.g. "2km", "1.5 KM".
var kmToken = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*km`)

// bareAmount matches text that is purely a monetary amount: optional
// currency marker, digits, optional thousands commas.
var bareAmount = regexp.MustCompile(`(?i)^(?:ksh\.?|kes|sh\.?|\$)?\s*\d[\d,]*$`)

// digitsOnly strips everything that is not a digit.
var digitsOnly = regexp.MustCompile(`[^\d]`)

// ParsedQuery is the structured form of a free-text query.
type ParsedQuery struct {
    MaxCampusKm *float64 // from a "<n> km" token: max distance to campus
    MaxPrice    *int64   // from a purely numeric query: max price
    Terms       []string // leftover comma-separated terms, lower-cased
}

// ParseQuery extracts the structured tokens a free-text query may carry,
// in order: a distance token ("2km") becomes a max-distance-to-campus
// filter and is removed; a remainder that is purely numeric (currency
// symbol and commas allowed) becomes a max-price filter and clears the
// text; whatever is left splits on commas into relevance terms. Each term
// must independently match a listing for it to stay in the result set.
func ParseQuery(q string) ParsedQuery {
    var p ParsedQuery
    q = strings.TrimSpace(q)
    if q == "" {
        return p
    }

    if m := kmToken.FindStringSubmatchIndex(q); m != nil {
        if km, err := strconv.ParseFloat(q[m[2]:m[3]], 64); err == nil {
            p.MaxCampusKm = &km
            q = strings.TrimSpace(q[:m[0]] + q[m[1]:])
        }
    }
    if q == "" {
        return p
    }

    if bareAmount.MatchString(q) {
        if n, err := strconv.ParseInt(digitsOnly.ReplaceAllString(q, ""), 10, 64); err == nil {
            p.MaxPrice = &n
            return p
        }
    }

    for _, part := range strings.Split(q, ",") {
        term := strings.ToLower(strings.TrimSpace(part))
        if term != "" {
            p.Terms = append(p.Terms, term)
        }
    }
    return p
}
