package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/unilodge/unilodge-api/internal/unlock"
)

// ContactHandler fronts the contact unlock gate.
type ContactHandler struct {
    Gate *unlock.Service
}

// NewContactHandler constructs a ContactHandler.
func NewContactHandler(gate *unlock.Service) *ContactHandler {
    if gate == nil {
        panic("nil gate passed to NewContactHandler")
    }
    return &ContactHandler{Gate: gate}
}

// Reveal handles POST /v1/listings/:id/contact. With an active grant the
// response carries the contact block (charged exactly once per listing);
// without one it carries a price quote when a headcount was supplied, or
// a 402 payment-required signal when it was not — both expected branches,
// not faults.
func (h *ContactHandler) Reveal(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    listingID, err := pathID(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid listing id"})
    }
    var body struct {
        Headcount *int `json:"headcount"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    outcome, err := h.Gate.RevealContact(c.Request().Context(), userID, listingID, body.Headcount)
    if err != nil {
        return respondLedgerError(c, err)
    }

    switch {
    case outcome.Contact != nil:
        return c.JSON(http.StatusOK, echo.Map{
            "contact":         outcome.Contact,
            "charged":         outcome.Charged,
            "units_remaining": outcome.UnitsRemaining,
        })
    case outcome.Quote != nil:
        return c.JSON(http.StatusPaymentRequired, echo.Map{
            "payment_required": true,
            "quote":            outcome.Quote,
        })
    default:
        return c.JSON(http.StatusPaymentRequired, echo.Map{
            "payment_required": true,
        })
    }
}
