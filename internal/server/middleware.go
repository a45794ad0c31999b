package server

import (
	"errors"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"github.com/cirruslabs/bucketcache/internal/server/fail"
	"github.com/labstack/echo/v4"
	"net/http"
)

// cors allows browsers on any origin to call the API and answers
// preflight requests itself with an empty 200 response.
func cors(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Response().Header()
		header.Set(echo.HeaderAccessControlAllowOrigin, "*")
		header.Set(echo.HeaderAccessControlAllowMethods, "POST, OPTIONS")
		header.Set(echo.HeaderAccessControlAllowHeaders, echo.HeaderContentType)

		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusOK)
		}

		return next(c)
	}
}

// handleError renders errors that escaped the handlers (unknown routes,
// unsupported methods, recovered panics) using the same envelope as
// the rest of the API.
func (server *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError

	if errors.As(err, &httpErr) {
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}

		_ = fail.Fail(c, httpErr.Code, "%s", message)

		return
	}

	server.logger.Errorf("unhandled error: %v", err)

	_ = fail.Fail(c, http.StatusInternalServerError, "%s", failure.MessageUnexpected)
}
