package handler // handler defines http handlers

import (
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/unilodge/unilodge-api/internal/ledger"
)

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT numeric claims arrive as float64; older tokens may carry a
// string.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim left in the context by the JWT
// middleware; missing or malformed roles come back empty.
func getRole(c echo.Context) string {
    if role, ok := c.Get("role").(string); ok {
        return role
    }
    return ""
}

// pathID parses the :id path parameter as a positive integer.
func pathID(c echo.Context) (uint64, error) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return 0, errors.New("invalid id")
    }
    return id, nil
}

// respondLedgerError translates the ledger error taxonomy into HTTP
// responses. Every unrecognized error is a 500: these operations are
// single-shot and money-relevant, so nothing is masked or retried.
func respondLedgerError(c echo.Context, err error) error {
    var capErr *ledger.CapacityError
    switch {
    case errors.Is(err, ledger.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, ledger.ErrNotAuthorized):
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    case errors.Is(err, ledger.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
    case errors.Is(err, ledger.ErrInvalidState):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, ledger.ErrQuotaExhausted):
        return c.JSON(http.StatusConflict, echo.Map{"error": "contact unlock quota exhausted"})
    case errors.As(err, &capErr):
        return c.JSON(http.StatusConflict, echo.Map{
            "error":         capErr.Error(),
            "max_occupancy": capErr.Max,
        })
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}
