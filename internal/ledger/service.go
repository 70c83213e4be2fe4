package ledger

import (
    "context"
    "fmt"
    "time"

    "github.com/unilodge/unilodge-api/internal/model"
)

// DefaultValidity is how long an activated grant stays usable before it
// expires, measured from the moment of approval.
const DefaultValidity = 90 * 24 * time.Hour

// Actor identifies the user performing a ledger operation, as extracted
// from the JWT by the handler layer.
type Actor struct {
    ID   uint64 // user id from the "sub" claim
    Role string // role from the "role" claim
}

// GrantStore persists fee grants.
type GrantStore interface {
    // Create inserts the grant and fills in its generated ID and CreatedAt.
    Create(ctx context.Context, g *model.FeeGrant) error
    // GetByID returns the grant or ErrNotFound.
    GetByID(ctx context.Context, id uint64) (model.FeeGrant, error)
    // ListByUser returns all of a user's grants, most recent first.
    ListByUser(ctx context.Context, userID uint64) ([]model.FeeGrant, error)
}

// ConfirmationStore persists payment confirmations and applies the review
// transitions. Approve must flip the status and activate the linked grant
// inside one transaction, guarded by the PENDING status so a concurrent
// second review loses with ErrInvalidState.
type ConfirmationStore interface {
    Create(ctx context.Context, c *model.Confirmation) error
    GetByID(ctx context.Context, id uint64) (model.Confirmation, error)
    ListByStatus(ctx context.Context, status string, limit int) ([]model.Confirmation, error)
    ListByGrant(ctx context.Context, grantID uint64) ([]model.Confirmation, error)
    // Approve sets the status to APPROVED and refills the grant:
    // units_remaining = units, valid_until = validUntil. Both updates
    // commit together or not at all.
    Approve(ctx context.Context, id, grantID uint64, units int, validUntil time.Time) error
    // Decline sets the status to DECLINED; the grant is untouched.
    Decline(ctx context.Context, id uint64) error
    // Cancel sets the status to CANCELED; the grant is untouched.
    Cancel(ctx context.Context, id uint64) error
}

// UniversityDirectory resolves universities for fee computation.
type UniversityDirectory interface {
    GetByID(ctx context.Context, id uint64) (model.University, error)
}

// Notifier delivers fire-and-forget notifications. Implementations log and
// return errors but callers deliberately ignore them: a dead broker must
// never roll back a payment review.
type Notifier interface {
    // Notify sends a message to one user.
    Notify(ctx context.Context, recipientID uint64, title, message string) error
    // NotifyReviewers sends a message to every reviewer (admin) account.
    NotifyReviewers(ctx context.Context, title, message string) error
}

// Service implements the entitlement ledger: submitting payment
// confirmations, the review state machine and grant activation.
type Service struct {
    grants        GrantStore
    confirmations ConfirmationStore
    universities  UniversityDirectory
    notifier      Notifier
    allowedUnits  int
    validity      time.Duration
    now           func() time.Time
}

// NewService wires a ledger service. The notifier may be nil, in which
// case no notifications are attempted.
func NewService(grants GrantStore, confirmations ConfirmationStore, universities UniversityDirectory, notifier Notifier) *Service {
    if grants == nil || confirmations == nil || universities == nil {
        panic("nil store passed to ledger.NewService")
    }
    return &Service{
        grants:        grants,
        confirmations: confirmations,
        universities:  universities,
        notifier:      notifier,
        allowedUnits:  model.DefaultAllowedUnits,
        validity:      DefaultValidity,
        now:           time.Now,
    }
}

// SubmitConfirmation records a user's claim of having paid the admin fee
// for a university. It computes the amount from the university's per-head
// fee, creates an inert grant (zero units) plus a PENDING confirmation,
// and pings the reviewers. The grant only becomes usable once a reviewer
// approves the confirmation.
func (s *Service) SubmitConfirmation(ctx context.Context, userID, universityID uint64, headcount int, message string) (model.Confirmation, model.FeeGrant, error) {
    if headcount < 1 {
        return model.Confirmation{}, model.FeeGrant{}, fmt.Errorf("%w: headcount must be at least 1", ErrValidation)
    }
    uni, err := s.universities.GetByID(ctx, universityID)
    if err != nil {
        return model.Confirmation{}, model.FeeGrant{}, fmt.Errorf("%w: unknown university", ErrValidation)
    }

    grant := model.FeeGrant{
        UserID:       userID,
        UniversityID: uni.ID,
        Amount:       uni.FeePerHead * int64(headcount),
        Headcount:    headcount,
        AllowedUnits: s.allowedUnits,
        // UnitsRemaining stays 0 until a reviewer approves.
    }
    if err := s.grants.Create(ctx, &grant); err != nil {
        return model.Confirmation{}, model.FeeGrant{}, err
    }

    conf := model.Confirmation{
        GrantID: grant.ID,
        Message: message,
        Status:  model.ConfirmationPending,
    }
    if err := s.confirmations.Create(ctx, &conf); err != nil {
        return model.Confirmation{}, model.FeeGrant{}, err
    }

    if s.notifier != nil {
        // Best effort: reviewers poll the pending queue anyway.
        _ = s.notifier.NotifyReviewers(ctx, "Payment confirmation submitted",
            fmt.Sprintf("Confirmation #%d awaits review (amount %d, %d head(s)).", conf.ID, grant.Amount, headcount))
    }
    return conf, grant, nil
}

// Approve transitions a PENDING confirmation to APPROVED and activates its
// grant: the quota is refilled to allowed_units and the expiry reset to
// now + validity. Only reviewers may approve; approving from any other
// status fails with ErrInvalidState, including a second approval of the
// same confirmation.
func (s *Service) Approve(ctx context.Context, confirmationID uint64, actor Actor) (model.Confirmation, error) {
    conf, grant, err := s.loadForReview(ctx, confirmationID, actor)
    if err != nil {
        return model.Confirmation{}, err
    }

    validUntil := s.now().Add(s.validity)
    if err := s.confirmations.Approve(ctx, conf.ID, grant.ID, grant.AllowedUnits, validUntil); err != nil {
        return model.Confirmation{}, err
    }
    conf.Status = model.ConfirmationApproved

    if s.notifier != nil {
        _ = s.notifier.Notify(ctx, grant.UserID, "Payment approved",
            fmt.Sprintf("Your admin fee payment was approved. You have %d contact unlock(s) valid until %s.",
                grant.AllowedUnits, validUntil.Format("2006-01-02")))
    }
    return conf, nil
}

// Decline transitions a PENDING confirmation to DECLINED. The grant stays
// inert; the user may resubmit a new confirmation against the same grant.
func (s *Service) Decline(ctx context.Context, confirmationID uint64, actor Actor) (model.Confirmation, error) {
    conf, grant, err := s.loadForReview(ctx, confirmationID, actor)
    if err != nil {
        return model.Confirmation{}, err
    }

    if err := s.confirmations.Decline(ctx, conf.ID); err != nil {
        return model.Confirmation{}, err
    }
    conf.Status = model.ConfirmationDeclined

    if s.notifier != nil {
        _ = s.notifier.Notify(ctx, grant.UserID, "Payment declined",
            "Your admin fee payment could not be verified. Please check the details and submit again.")
    }
    return conf, nil
}

// Cancel lets the owner of a grant withdraw their own PENDING
// confirmation. A confirmation belonging to someone else is reported as
// not-found so its existence never leaks to other users.
func (s *Service) Cancel(ctx context.Context, confirmationID, userID uint64) (model.Confirmation, error) {
    conf, err := s.confirmations.GetByID(ctx, confirmationID)
    if err != nil {
        return model.Confirmation{}, err
    }
    grant, err := s.grants.GetByID(ctx, conf.GrantID)
    if err != nil {
        return model.Confirmation{}, err
    }
    if grant.UserID != userID {
        return model.Confirmation{}, ErrNotFound
    }
    if conf.Status != model.ConfirmationPending {
        return model.Confirmation{}, fmt.Errorf("%w: confirmation is %s", ErrInvalidState, conf.Status)
    }

    if err := s.confirmations.Cancel(ctx, conf.ID); err != nil {
        return model.Confirmation{}, err
    }
    conf.Status = model.ConfirmationCanceled
    return conf, nil
}

// IsActive reports whether a grant can currently pay for an unlock.
func (s *Service) IsActive(g model.FeeGrant) bool { return g.ActiveAt(s.now()) }

// PendingReview returns confirmations awaiting review, oldest first.
func (s *Service) PendingReview(ctx context.Context, limit int) ([]model.Confirmation, error) {
    return s.confirmations.ListByStatus(ctx, model.ConfirmationPending, limit)
}

// GrantsOf returns all grants belonging to a user, most recent first.
func (s *Service) GrantsOf(ctx context.Context, userID uint64) ([]model.FeeGrant, error) {
    return s.grants.ListByUser(ctx, userID)
}

// GrantDetail returns one of the user's grants together with its
// confirmation history, newest first. Someone else's grant reads as
// not-found.
func (s *Service) GrantDetail(ctx context.Context, grantID, userID uint64) (model.FeeGrant, []model.Confirmation, error) {
    grant, err := s.grants.GetByID(ctx, grantID)
    if err != nil {
        return model.FeeGrant{}, nil, err
    }
    if grant.UserID != userID {
        return model.FeeGrant{}, nil, ErrNotFound
    }
    confs, err := s.confirmations.ListByGrant(ctx, grantID)
    if err != nil {
        return model.FeeGrant{}, nil, err
    }
    return grant, confs, nil
}

// loadForReview fetches the confirmation and its grant and applies the
// shared reviewer guards.
func (s *Service) loadForReview(ctx context.Context, confirmationID uint64, actor Actor) (model.Confirmation, model.FeeGrant, error) {
    if actor.Role != model.RoleAdmin {
        return model.Confirmation{}, model.FeeGrant{}, ErrNotAuthorized
    }
    conf, err := s.confirmations.GetByID(ctx, confirmationID)
    if err != nil {
        return model.Confirmation{}, model.FeeGrant{}, err
    }
    if conf.Status != model.ConfirmationPending {
        return model.Confirmation{}, model.FeeGrant{}, fmt.Errorf("%w: confirmation is %s", ErrInvalidState, conf.Status)
    }
    grant, err := s.grants.GetByID(ctx, conf.GrantID)
    if err != nil {
        return model.Confirmation{}, model.FeeGrant{}, err
    }
    return conf, grant, nil
}
