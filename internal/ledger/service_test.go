package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unilodge/unilodge-api/internal/model"
)

// ----- in-memory fakes -----

type fakeGrants struct {
	nextID uint64
	rows   map[uint64]*model.FeeGrant
}

func newFakeGrants() *fakeGrants { return &fakeGrants{rows: map[uint64]*model.FeeGrant{}} }

func (f *fakeGrants) Create(_ context.Context, g *model.FeeGrant) error {
	f.nextID++
	g.ID = f.nextID
	g.CreatedAt = time.Now()
	cp := *g
	f.rows[g.ID] = &cp
	return nil
}

func (f *fakeGrants) GetByID(_ context.Context, id uint64) (model.FeeGrant, error) {
	g, ok := f.rows[id]
	if !ok {
		return model.FeeGrant{}, ErrNotFound
	}
	return *g, nil
}

func (f *fakeGrants) ListByUser(_ context.Context, userID uint64) ([]model.FeeGrant, error) {
	var out []model.FeeGrant
	for _, g := range f.rows {
		if g.UserID == userID {
			out = append(out, *g)
		}
	}
	return out, nil
}

type fakeConfirmations struct {
	grants *fakeGrants
	nextID uint64
	rows   map[uint64]*model.Confirmation
}

func newFakeConfirmations(g *fakeGrants) *fakeConfirmations {
	return &fakeConfirmations{grants: g, rows: map[uint64]*model.Confirmation{}}
}

func (f *fakeConfirmations) Create(_ context.Context, c *model.Confirmation) error {
	f.nextID++
	c.ID = f.nextID
	c.CreatedAt = time.Now()
	cp := *c
	f.rows[c.ID] = &cp
	return nil
}

func (f *fakeConfirmations) GetByID(_ context.Context, id uint64) (model.Confirmation, error) {
	c, ok := f.rows[id]
	if !ok {
		return model.Confirmation{}, ErrNotFound
	}
	return *c, nil
}

func (f *fakeConfirmations) ListByStatus(_ context.Context, status string, limit int) ([]model.Confirmation, error) {
	var out []model.Confirmation
	for _, c := range f.rows {
		if c.Status == status {
			out = append(out, *c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeConfirmations) ListByGrant(_ context.Context, grantID uint64) ([]model.Confirmation, error) {
	var out []model.Confirmation
	for _, c := range f.rows {
		if c.GrantID == grantID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeConfirmations) Approve(_ context.Context, id, grantID uint64, units int, validUntil time.Time) error {
	c, ok := f.rows[id]
	if !ok || c.Status != model.ConfirmationPending {
		return ErrInvalidState
	}
	c.Status = model.ConfirmationApproved
	g := f.grants.rows[grantID]
	g.UnitsRemaining = units
	vu := validUntil
	g.ValidUntil = &vu
	return nil
}

func (f *fakeConfirmations) transition(id uint64, status string) error {
	c, ok := f.rows[id]
	if !ok || c.Status != model.ConfirmationPending {
		return ErrInvalidState
	}
	c.Status = status
	return nil
}

func (f *fakeConfirmations) Decline(_ context.Context, id uint64) error {
	return f.transition(id, model.ConfirmationDeclined)
}

func (f *fakeConfirmations) Cancel(_ context.Context, id uint64) error {
	return f.transition(id, model.ConfirmationCanceled)
}

type fakeDirectory struct {
	unis map[uint64]model.University
}

func (f *fakeDirectory) GetByID(_ context.Context, id uint64) (model.University, error) {
	u, ok := f.unis[id]
	if !ok {
		return model.University{}, ErrNotFound
	}
	return u, nil
}

type recordingNotifier struct {
	userMsgs     []string
	reviewerMsgs []string
}

func (n *recordingNotifier) Notify(_ context.Context, _ uint64, title, _ string) error {
	n.userMsgs = append(n.userMsgs, title)
	return nil
}

func (n *recordingNotifier) NotifyReviewers(_ context.Context, title, _ string) error {
	n.reviewerMsgs = append(n.reviewerMsgs, title)
	return nil
}

// ----- fixture -----

type fixture struct {
	svc      *Service
	grants   *fakeGrants
	confs    *fakeConfirmations
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	grants := newFakeGrants()
	confs := newFakeConfirmations(grants)
	notifier := &recordingNotifier{}
	dir := &fakeDirectory{unis: map[uint64]model.University{
		1: {ID: 1, Name: "Kenyatta University", City: "Nairobi", FeePerHead: 200},
	}}
	svc := NewService(grants, confs, dir, notifier)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return &fixture{svc: svc, grants: grants, confs: confs, notifier: notifier, now: now}
}

var admin = Actor{ID: 99, Role: model.RoleAdmin}

// ----- tests -----

func TestSubmitConfirmation(t *testing.T) {
	f := newFixture(t)

	conf, grant, err := f.svc.SubmitConfirmation(context.Background(), 7, 1, 3, "MPESA QX12AB")
	require.NoError(t, err)

	assert.Equal(t, model.ConfirmationPending, conf.Status)
	assert.Equal(t, grant.ID, conf.GrantID)
	assert.Equal(t, int64(600), grant.Amount, "fee is per head")
	assert.Equal(t, 3, grant.Headcount)
	assert.Equal(t, model.DefaultAllowedUnits, grant.AllowedUnits)
	assert.Equal(t, 0, grant.UnitsRemaining, "grant must stay inert until approval")
	assert.Nil(t, grant.ValidUntil)
	assert.Len(t, f.notifier.reviewerMsgs, 1)
}

func TestSubmitConfirmationValidation(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.SubmitConfirmation(context.Background(), 7, 1, 0, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, _, err = f.svc.SubmitConfirmation(context.Background(), 7, 42, 1, "")
	assert.ErrorIs(t, err, ErrValidation, "unknown university")
}

func TestApproveActivatesGrant(t *testing.T) {
	f := newFixture(t)
	conf, grant, err := f.svc.SubmitConfirmation(context.Background(), 7, 1, 2, "")
	require.NoError(t, err)

	approved, err := f.svc.Approve(context.Background(), conf.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmationApproved, approved.Status)

	got, err := f.grants.GetByID(context.Background(), grant.ID)
	require.NoError(t, err)
	assert.Equal(t, got.AllowedUnits, got.UnitsRemaining, "quota refilled to the full allotment")
	require.NotNil(t, got.ValidUntil)
	assert.Equal(t, f.now.Add(DefaultValidity), *got.ValidUntil)
	assert.True(t, f.svc.IsActive(got))

	assert.Equal(t, []string{"Payment approved"}, f.notifier.userMsgs)
}

func TestApproveRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	conf, _, err := f.svc.SubmitConfirmation(context.Background(), 7, 1, 1, "")
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), conf.ID, Actor{ID: 7, Role: model.RoleStudent})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.Decline(context.Background(), conf.ID, Actor{ID: 8, Role: model.RoleLandlord})
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestReviewIsTerminal(t *testing.T) {
	f := newFixture(t)
	conf, _, err := f.svc.SubmitConfirmation(context.Background(), 7, 1, 1, "")
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), conf.ID, admin)
	require.NoError(t, err)

	// A second review of any kind must fail.
	_, err = f.svc.Approve(context.Background(), conf.ID, admin)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.Decline(context.Background(), conf.ID, admin)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = f.svc.Cancel(context.Background(), conf.ID, 7)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestDeclineLeavesGrantInert(t *testing.T) {
	f := newFixture(t)
	conf, grant, err := f.svc.SubmitConfirmation(context.Background(), 7, 1, 1, "")
	require.NoError(t, err)

	declined, err := f.svc.Decline(context.Background(), conf.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmationDeclined, declined.Status)

	got, _ := f.grants.GetByID(context.Background(), grant.ID)
	assert.Equal(t, 0, got.UnitsRemaining)
	assert.Nil(t, got.ValidUntil)
}

func TestCancelOwnership(t *testing.T) {
	f := newFixture(t)
	conf, _, err := f.svc.SubmitConfirmation(context.Background(), 7, 1, 1, "")
	require.NoError(t, err)

	// Someone else's confirmation reads as not found, never as forbidden.
	_, err = f.svc.Cancel(context.Background(), conf.ID, 8)
	assert.ErrorIs(t, err, ErrNotFound)

	canceled, err := f.svc.Cancel(context.Background(), conf.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, model.ConfirmationCanceled, canceled.Status)
}

func TestIsActiveBoundaries(t *testing.T) {
	f := newFixture(t)

	expired := f.now.Add(-time.Second)
	exact := f.now
	later := f.now.Add(time.Hour)

	cases := []struct {
		name   string
		grant  model.FeeGrant
		active bool
	}{
		{"units and no expiry", model.FeeGrant{UnitsRemaining: 1}, true},
		{"units and future expiry", model.FeeGrant{UnitsRemaining: 1, ValidUntil: &later}, true},
		{"expiry exactly now still valid", model.FeeGrant{UnitsRemaining: 1, ValidUntil: &exact}, true},
		{"expired", model.FeeGrant{UnitsRemaining: 1, ValidUntil: &expired}, false},
		{"no units", model.FeeGrant{UnitsRemaining: 0, ValidUntil: &later}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.active, f.svc.IsActive(tc.grant))
		})
	}
}

func TestGrantDetail(t *testing.T) {
	f := newFixture(t)
	conf, grant, err := f.svc.SubmitConfirmation(context.Background(), 7, 1, 1, "first try")
	require.NoError(t, err)

	got, confs, err := f.svc.GrantDetail(context.Background(), grant.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, grant.ID, got.ID)
	require.Len(t, confs, 1)
	assert.Equal(t, conf.ID, confs[0].ID)

	// Another user's grant reads as not found.
	_, _, err = f.svc.GrantDetail(context.Background(), grant.ID, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingReview(t *testing.T) {
	f := newFixture(t)
	c1, _, err := f.svc.SubmitConfirmation(context.Background(), 7, 1, 1, "")
	require.NoError(t, err)
	c2, _, err := f.svc.SubmitConfirmation(context.Background(), 8, 1, 1, "")
	require.NoError(t, err)

	_, err = f.svc.Decline(context.Background(), c1.ID, admin)
	require.NoError(t, err)

	pending, err := f.svc.PendingReview(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, c2.ID, pending[0].ID)
}
