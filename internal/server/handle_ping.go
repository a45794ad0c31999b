package server

import (
	"context"
	"github.com/labstack/echo/v4"
	"net/http"
)

func (server *Server) handleHealth(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

func (server *Server) handlePing(c echo.Context) error {
	result := server.pipeline.Passthrough(c.Request().Context(), func(_ context.Context) (any, error) {
		return map[string]string{"result": "PONG"}, nil
	})

	return c.JSON(result.StatusCode, &result)
}
