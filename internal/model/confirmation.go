package model

import "time"

// Confirmation statuses. A confirmation starts PENDING and moves exactly
// once to APPROVED, DECLINED or CANCELED; all three are terminal.
const (
    ConfirmationPending  = "PENDING"
    ConfirmationApproved = "APPROVED"
    ConfirmationDeclined = "DECLINED"
    ConfirmationCanceled = "CANCELED"
)

// Confirmation is a user's claim of having paid the admin fee, awaiting
// human review, stored in the `confirmations` table. Each confirmation
// belongs to exactly one fee grant; a grant may accumulate several
// confirmations over its history, e.g. a resubmission after a decline.
//
// Fields:
//  ID        – primary key identifier.
//  GrantID   – fee grant this confirmation attests payment for.
//  Message   – free-text attestation (transaction code, sender name, …).
//  Status    – one of the Confirmation* constants.
//  CreatedAt – when the user submitted the claim.
//  UpdatedAt – when a reviewer or the user last changed the status.
type Confirmation struct {
    ID        uint64    // confirmations.id
    GrantID   uint64    // confirmations.grant_id
    Message   string    // confirmations.message
    Status    string    // confirmations.status
    CreatedAt time.Time // confirmations.created_at
    UpdatedAt time.Time // confirmations.updated_at
}
