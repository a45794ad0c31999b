package server

import (
	"context"
	"github.com/cirruslabs/bucketcache/internal/source"
	"github.com/labstack/echo/v4"
	"path/filepath"
)

const (
	operationListFiles     = "list-files"
	operationDownloadFiles = "download-files"
)

func (server *Server) handleListFiles(c echo.Context) error {
	ctx := c.Request().Context()

	container, err := server.containerFromRequest(c)
	if err != nil {
		result := server.pipeline.Fail(ctx, err)

		return c.JSON(result.StatusCode, &result)
	}

	key, err := server.keys.Derive(operationListFiles, container)
	if err != nil {
		result := server.pipeline.Fail(ctx, err)

		return c.JSON(result.StatusCode, &result)
	}

	result := server.pipeline.Execute(ctx, key, func(ctx context.Context) (any, error) {
		keys, err := server.source.List(ctx, container)
		if err != nil {
			return nil, err
		}

		if keys == nil {
			keys = []string{}
		}

		return &filesPayload{Files: keys}, nil
	})

	return c.JSON(result.StatusCode, &result)
}

func (server *Server) handleDownloadFiles(c echo.Context) error {
	ctx := c.Request().Context()

	container, err := server.containerFromRequest(c)
	if err != nil {
		result := server.pipeline.Fail(ctx, err)

		return c.JSON(result.StatusCode, &result)
	}

	operation := operationDownloadFiles
	if server.instance != "" {
		operation += "@" + server.instance
	}

	key, err := server.keys.Derive(operation, container)
	if err != nil {
		result := server.pipeline.Fail(ctx, err)

		return c.JSON(result.StatusCode, &result)
	}

	stagingDir := filepath.Join(server.stagingDir, container)

	result := server.pipeline.Execute(ctx, key, func(ctx context.Context) (any, error) {
		paths, err := source.FetchAll(ctx, server.source, container, stagingDir)
		if err != nil {
			return nil, err
		}

		return &filesPayload{Files: paths}, nil
	})

	return c.JSON(result.StatusCode, &result)
}
