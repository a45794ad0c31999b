package server

import (
	"github.com/cirruslabs/bucketcache/internal/server/fail"
	"github.com/labstack/echo/v4"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

func (server *Server) handleDownloadFile(c echo.Context) error {
	path, ok := server.resolveStaged(c.QueryParam("file_path"))
	if !ok {
		return fail.Fail(c, http.StatusNotFound, "File not found")
	}

	return c.Attachment(path, filepath.Base(path))
}

// resolveStaged maps the requested path onto a regular file
// inside the staging directory. Relative paths are resolved
// against the staging directory itself.
func (server *Server) resolveStaged(requested string) (string, bool) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return "", false
	}

	if !filepath.IsAbs(requested) {
		requested = filepath.Join(server.stagingDir, requested)
	}

	relativePath, err := filepath.Rel(server.stagingDir, filepath.Clean(requested))
	if err != nil || !filepath.IsLocal(relativePath) || relativePath == "." {
		return "", false
	}

	path := filepath.Join(server.stagingDir, relativePath)

	fi, err := os.Stat(path)
	if err != nil || !fi.Mode().IsRegular() {
		return "", false
	}

	return path, true
}
