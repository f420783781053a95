package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"ticketing/entity"
)

const purchaserContextKey = "purchaser"

// bearerAuth resolves the Authorization header to a purchaser identity once
// at the boundary and stashes it in the request context. Handlers behind it
// can assume an authenticated purchaser.
func bearerAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			purchaser, err := verifier.Verify(c.Request().Context(), token)
			if err != nil {
				return &echo.HTTPError{
					Code:     http.StatusUnauthorized,
					Message:  "invalid token",
					Internal: err,
				}
			}

			c.Set(purchaserContextKey, purchaser)

			return next(c)
		}
	}
}

func purchaserFromContext(c echo.Context) (entity.Purchaser, bool) {
	purchaser, ok := c.Get(purchaserContextKey).(entity.Purchaser)
	return purchaser, ok
}
