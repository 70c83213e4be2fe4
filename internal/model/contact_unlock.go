package model

import "time"

// ContactUnlock marks that a grant already paid for one listing's contact
// block, stored in the `contact_unlocks` table. The (grant_id, listing_id)
// pair carries a unique constraint: it is the idempotency marker that makes
// repeat views of the same listing free and the last line of defence
// against double-charging even if the quota decrement raced.
//
// Fields:
//  ID        – primary key identifier.
//  GrantID   – grant that was debited.
//  ListingID – listing whose contact block was revealed.
//  CreatedAt – when the first (charged) reveal happened.
type ContactUnlock struct {
    ID        uint64    // contact_unlocks.id
    GrantID   uint64    // contact_unlocks.grant_id
    ListingID uint64    // contact_unlocks.listing_id
    CreatedAt time.Time // contact_unlocks.created_at
}
