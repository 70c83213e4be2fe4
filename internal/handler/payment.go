package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/unilodge/unilodge-api/internal/ledger"
    "github.com/unilodge/unilodge-api/internal/model"
)

// UnlockLister reports which listings a grant has already paid to unlock.
type UnlockLister interface {
    ListByGrant(ctx context.Context, grantID uint64) ([]uint64, error)
}

// PaymentHandler exposes the user-facing side of the entitlement ledger:
// submitting a payment confirmation, canceling one, and listing one's own
// grants with their history.
type PaymentHandler struct {
    Ledger  *ledger.Service
    Unlocks UnlockLister
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(svc *ledger.Service, unlocks UnlockLister) *PaymentHandler {
    if svc == nil || unlocks == nil {
        panic("nil dependency passed to NewPaymentHandler")
    }
    return &PaymentHandler{Ledger: svc, Unlocks: unlocks}
}

type submitConfirmationReq struct {
    UniversityID uint64 `json:"university_id"`
    Headcount    int    `json:"headcount"`
    Message      string `json:"message"`
}

// Submit handles POST /v1/payments/confirmations. It records the user's
// payment attestation and creates the inert grant the reviewers will
// activate.
func (h *PaymentHandler) Submit(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req submitConfirmationReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    conf, grant, err := h.Ledger.SubmitConfirmation(c.Request().Context(), userID, req.UniversityID, req.Headcount, req.Message)
    if err != nil {
        return respondLedgerError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "confirmation": confirmationJSON(conf),
        "grant":        grantJSON(grant),
    })
}

// Cancel handles POST /v1/payments/confirmations/:id/cancel. Only the
// owner may cancel, and only while the confirmation is still pending.
func (h *PaymentHandler) Cancel(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid confirmation id"})
    }
    conf, err := h.Ledger.Cancel(c.Request().Context(), id, userID)
    if err != nil {
        return respondLedgerError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"confirmation": confirmationJSON(conf)})
}

// MyGrants handles GET /v1/my-grants: the caller's grant history, most
// recent first, with the active flag computed server-side.
func (h *PaymentHandler) MyGrants(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    grants, err := h.Ledger.GrantsOf(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]echo.Map, 0, len(grants))
    for _, g := range grants {
        m := grantJSON(g)
        m["active"] = h.Ledger.IsActive(g)
        out = append(out, m)
    }
    return c.JSON(http.StatusOK, echo.Map{"grants": out})
}

// GrantDetail handles GET /v1/my-grants/:id: one grant with its
// confirmation history and the listings it already unlocked.
func (h *PaymentHandler) GrantDetail(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid grant id"})
	}
	ctx := c.Request().Context()
	grant, confs, err := h.Ledger.GrantDetail(ctx, id, userID)
	if err != nil {
		return respondLedgerError(c, err)
	}
	unlocked, err := h.Unlocks.ListByGrant(ctx, grant.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	g := grantJSON(grant)
	g["active"] = h.Ledger.IsActive(grant)
	history := make([]echo.Map, 0, len(confs))
	for _, conf := range confs {
		history = append(history, confirmationJSON(conf))
	}
	if unlocked == nil {
		unlocked = []uint64{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"grant":             g,
		"confirmations":     history,
		"unlocked_listings": unlocked,
	})
}

func grantJSON(g model.FeeGrant) echo.Map {
    m := echo.Map{
        "id":              g.ID,
        "university_id":   g.UniversityID,
        "amount":          g.Amount,
        "headcount":       g.Headcount,
        "allowed_units":   g.AllowedUnits,
        "units_remaining": g.UnitsRemaining,
        "created_at":      g.CreatedAt,
    }
    if g.ValidUntil != nil {
        m["valid_until"] = g.ValidUntil.Format(time.RFC3339)
    }
    return m
}

func confirmationJSON(conf model.Confirmation) echo.Map {
    return echo.Map{
        "id":         conf.ID,
        "grant_id":   conf.GrantID,
        "status":     conf.Status,
        "message":    conf.Message,
        "created_at": conf.CreatedAt,
    }
}
