package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/unilodge/unilodge-api/internal/ledger"
    "github.com/unilodge/unilodge-api/internal/model"
)

// AdminHandler exposes the reviewer side of the entitlement ledger. The
// router guards these routes with the ADMIN role; the ledger re-checks
// the actor anyway so the privilege rule lives in exactly one place that
// cannot be bypassed by a misconfigured route.
type AdminHandler struct {
    Ledger *ledger.Service
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(svc *ledger.Service) *AdminHandler {
    if svc == nil {
        panic("nil ledger passed to NewAdminHandler")
    }
    return &AdminHandler{Ledger: svc}
}

// Pending handles GET /v1/admin/confirmations: the review queue, oldest
// first. The optional ?limit parameter caps the page.
func (h *AdminHandler) Pending(c echo.Context) error {
    limit, _ := strconv.Atoi(c.QueryParam("limit"))
    confs, err := h.Ledger.PendingReview(c.Request().Context(), limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }
    out := make([]echo.Map, 0, len(confs))
    for _, conf := range confs {
        out = append(out, confirmationJSON(conf))
    }
    return c.JSON(http.StatusOK, echo.Map{"confirmations": out})
}

// Approve handles POST /v1/admin/confirmations/:id/approve. On success
// the linked grant is activated in the same transaction: full quota,
// fresh expiry.
func (h *AdminHandler) Approve(c echo.Context) error {
    return h.review(c, func(ctx echo.Context, id uint64, actor ledger.Actor) (model.Confirmation, error) {
        return h.Ledger.Approve(ctx.Request().Context(), id, actor)
    })
}

// Decline handles POST /v1/admin/confirmations/:id/decline. The grant
// stays inert; the user is notified and may resubmit.
func (h *AdminHandler) Decline(c echo.Context) error {
    return h.review(c, func(ctx echo.Context, id uint64, actor ledger.Actor) (model.Confirmation, error) {
        return h.Ledger.Decline(ctx.Request().Context(), id, actor)
    })
}

func (h *AdminHandler) review(c echo.Context, op func(echo.Context, uint64, ledger.Actor) (model.Confirmation, error)) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid confirmation id"})
    }
    conf, err := op(c, id, ledger.Actor{ID: userID, Role: getRole(c)})
    if err != nil {
        return respondLedgerError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"confirmation": confirmationJSON(conf)})
}
