// Package queue defines message payloads exchanged over the message broker.
package queue

// NotificationQueueName is the durable queue all notification events are
// published to and consumed from.
const NotificationQueueName = "notifications"

// Recipient audiences for notification events.
const (
    AudienceUser      = "USER"
    AudienceReviewers = "REVIEWERS"
)

// NotificationEvent is published whenever the ledger wants to tell someone
// something: a submitted confirmation pings the reviewers, a review
// outcome pings the grant owner. It carries enough for a downstream
// delivery worker (mail, SMS, chat bot) to act without querying the
// primary database. Delivery is fire-and-forget; losing one of these must
// never affect the transaction that produced it.
type NotificationEvent struct {
    Audience    string `json:"audience"`               // AudienceUser or AudienceReviewers
    RecipientID uint64 `json:"recipient_id,omitempty"` // set when Audience is USER
    Title       string `json:"title"`
    Message     string `json:"message"`
    EmittedAt   string `json:"emitted_at"` // RFC3339 UTC
}
