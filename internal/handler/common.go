// Package handler defines the HTTP endpoints: staff auth, admin setup,
// registration, the admission desk, invigilation and the scanning
// station.  Handlers stay thin; multi-step flows live in the admission,
// sheets and ingest services.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/olymp-admission/internal/repository"
)

// getUserID extracts the staff user id stored by the JWT middleware.
// JSON numbers arrive as float64; older tokens may carry strings.
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

// clientIP returns the request origin as a nullable string for audit
// records.
func clientIP(c echo.Context) *string {
	ip := c.RealIP()
	if ip == "" {
		return nil
	}
	return &ip
}

// pathID parses a numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

// writeRepoError maps repository sentinels to HTTP responses.  Token
// errors deliberately share generic wording so callers cannot probe
// which credentials exist.
func writeRepoError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	case errors.Is(err, repository.ErrTokenExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
	case errors.Is(err, repository.ErrTokenAlreadyUsed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "token already used"})
	case errors.Is(err, repository.ErrNoRoomsConfigured):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no rooms configured"})
	case errors.Is(err, repository.ErrCapacityExhausted):
		return c.JSON(http.StatusConflict, echo.Map{"error": "no free seats"})
	case errors.Is(err, repository.ErrSheetNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "sheet not found"})
	case errors.Is(err, repository.ErrAttemptInvalidated):
		return c.JSON(http.StatusConflict, echo.Map{"error": "attempt invalidated"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	c.Logger().Errorf("internal error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
