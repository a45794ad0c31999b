package server

import (
	"errors"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"github.com/cirruslabs/bucketcache/internal/source"
	"github.com/go-chi/render"
	"github.com/labstack/echo/v4"
	"io"
	"strings"
)

const defaultContainerAlias = "test_default"

type containerRequest struct {
	BucketName string `json:"bucket_name"`
}

type filesPayload struct {
	Files []string `json:"files"`
}

// containerFromRequest extracts the container name from either
// a JSON or a form-encoded request body.
func (server *Server) containerFromRequest(c echo.Context) (string, error) {
	var bucketName string

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var request containerRequest

		if err := render.DecodeJSON(c.Request().Body, &request); err != nil && !errors.Is(err, io.EOF) {
			return "", failure.Validationf("failed to decode the JSON request body: %v", err)
		}

		bucketName = request.BucketName
	} else {
		bucketName = c.FormValue("bucket_name")
	}

	bucketName = strings.TrimSpace(bucketName)

	if bucketName == defaultContainerAlias {
		if server.defaultContainer == "" {
			return "", failure.Validationf("bucket_name %q was requested, but no default "+
				"container is configured", defaultContainerAlias)
		}

		bucketName = server.defaultContainer
	}

	if err := source.ValidateContainer(bucketName); err != nil {
		return "", err
	}

	return bucketName, nil
}
