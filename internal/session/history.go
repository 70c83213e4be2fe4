// Package session tracks per-client search-term frequencies. The history
// is a personalization hint for implicit ranking when a search arrives
// with no query text; it is best-effort by design and never blocks or
// fails a search when the backing store is unavailable.
package session

import "sort"

// History maps a lower-cased search term to the number of times the client
// has searched for it. It is handed into the ranking engine, mutated in
// place, and persisted (best-effort) by the caller afterwards.
type History map[string]int

// Bump increments the counter for a term. Empty terms are ignored.
func (h History) Bump(term string) {
    if term == "" {
        return
    }
    h[term]++
}

// Top returns up to n terms ordered by descending frequency. Ties are
// broken alphabetically so the selection is deterministic.
func (h History) Top(n int) []string {
    if n <= 0 || len(h) == 0 {
        return nil
    }
    terms := make([]string, 0, len(h))
    for t := range h {
        terms = append(terms, t)
    }
    sort.Slice(terms, func(i, j int) bool {
        if h[terms[i]] != h[terms[j]] {
            return h[terms[i]] > h[terms[j]]
        }
        return terms[i] < terms[j]
    })
    if len(terms) > n {
        terms = terms[:n]
    }
    return terms
}
