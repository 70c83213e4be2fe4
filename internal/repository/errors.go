// Package repository implements the MySQL persistence layer. Repositories
// report domain failures using the sentinel errors defined in the ledger
// package (ErrNotFound, ErrInvalidState, ErrQuotaExhausted) so that
// services and handlers can branch with errors.Is without knowing about
// database/sql. Driver-level errors pass through untouched.
package repository

import "strings"

// isDuplicateKey reports whether an error is a MySQL duplicate-entry
// violation (error 1062). Used to map unique-constraint hits on
// users.email and contact_unlocks(grant_id, listing_id).
func isDuplicateKey(err error) bool {
    return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
