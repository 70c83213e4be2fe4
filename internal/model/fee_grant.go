package model

import "time"

// DefaultAllowedUnits is the number of contact unlocks a single admin fee
// payment buys per activation.
const DefaultAllowedUnits = 3

// FeeGrant records a purchased allotment of contact unlocks for one
// (user, university) pair, stored in the `fee_grants` table. A grant is
// created inert (zero units) when the user submits a payment confirmation
// and only becomes usable when an admin approves that confirmation, which
// refills the quota and pushes the expiry forward. Grants are never
// deleted; exhausted and expired rows stay behind as payment history.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user who paid the admin fee.
//  UniversityID   – university the grant is scoped to.
//  Amount         – fee amount in whole shillings (fee_per_head × headcount).
//  Headcount      – number of heads the fee was computed for.
//  AllowedUnits   – quota size per activation.
//  UnitsRemaining – unlocks left; only positive between activation and
//                   exhaustion or expiry.
//  ValidUntil     – expiry timestamp (null until first activation).
//  CreatedAt      – timestamp of creation.
type FeeGrant struct {
    ID             uint64     // fee_grants.id
    UserID         uint64     // fee_grants.user_id
    UniversityID   uint64     // fee_grants.university_id
    Amount         int64      // fee_grants.amount
    Headcount      int        // fee_grants.headcount
    AllowedUnits   int        // fee_grants.allowed_units
    UnitsRemaining int        // fee_grants.units_remaining
    ValidUntil     *time.Time // fee_grants.valid_until (nullable)
    CreatedAt      time.Time  // fee_grants.created_at
}

// ActiveAt reports whether the grant can pay for an unlock at the given
// instant: it still has units and has not expired. A null ValidUntil never
// expires; an expiry exactly at the instant still counts as valid.
func (g FeeGrant) ActiveAt(t time.Time) bool {
    if g.UnitsRemaining <= 0 {
        return false
    }
    return g.ValidUntil == nil || !g.ValidUntil.Before(t)
}
