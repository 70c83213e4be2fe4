// Package ledger owns the admin-fee entitlement lifecycle: fee grants,
// payment confirmations and the review state machine. This file defines
// the error taxonomy shared by the ledger, the contact unlock gate and
// the repositories implementing their stores. Handlers translate these
// sentinels into HTTP responses; none of them is retried or swallowed —
// they report money- and access-relevant mistakes to the caller.
package ledger

import (
    "errors"
    "fmt"
)

// ErrValidation is returned for malformed input such as a non-positive
// headcount or an unknown university. Handlers should translate this
// into an HTTP 400 response.
var ErrValidation = errors.New("validation failed")

// ErrNotAuthorized is returned when the acting user lacks the reviewer
// privilege required for an operation. Handlers should translate this
// into an HTTP 403 response.
var ErrNotAuthorized = errors.New("not authorized")

// ErrNotFound is returned when a referenced entity is absent, or when it
// exists but must stay hidden from the caller (a user probing another
// user's confirmation gets not-found, never forbidden). Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrInvalidState is returned when a state-machine transition is attempted
// from a non-eligible state, e.g. approving an already-declined
// confirmation. Re-approving is rejected rather than succeeded so that
// operator mistakes surface. Handlers should translate this into an HTTP
// 409 response.
var ErrInvalidState = errors.New("invalid state")

// ErrQuotaExhausted is the unlock gate's consistency guard: an active
// grant should by definition have units left, but the atomic consume
// still refuses to decrement past zero.
var ErrQuotaExhausted = errors.New("quota exhausted")

// CapacityError reports that a requested headcount exceeds a listing's
// declared maximum occupancy.
type CapacityError struct {
    Max int // the listing's declared occupancy limit
}

func (e *CapacityError) Error() string {
    return fmt.Sprintf("requested headcount exceeds listing capacity of %d", e.Max)
}
