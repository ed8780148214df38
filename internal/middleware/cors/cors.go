package cors

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	allowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	allowHeaders = []string{echo.HeaderAuthorization, echo.HeaderContentType, "X-Client-Info", "apikey"}
)

// Middleware sets the public API CORS headers on every response, errors
// included, and answers OPTIONS preflights with an empty 200.
func Middleware() echo.MiddlewareFunc {
	methods := strings.Join(allowMethods, ", ")
	headers := strings.Join(allowHeaders, ", ")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowMethods, methods)
			h.Set(echo.HeaderAccessControlAllowHeaders, headers)

			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
