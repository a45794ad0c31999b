package server

import (
	"context"
	"errors"
	"fmt"
	"github.com/brpaz/echozap"
	"github.com/cirruslabs/bucketcache/internal/cachekey"
	"github.com/cirruslabs/bucketcache/internal/pipeline"
	"github.com/cirruslabs/bucketcache/internal/source"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Server struct {
	listener   net.Listener
	httpServer *http.Server
	echo       *echo.Echo
	logger     *zap.SugaredLogger

	pipeline         *pipeline.Pipeline
	source           source.Source
	keys             *cachekey.Deriver
	stagingDir       string
	defaultContainer string
	instance         string
}

func New(addr string, pipeline *pipeline.Pipeline, source source.Source, opts ...Option) (*Server, error) {
	server := &Server{
		pipeline: pipeline,
		source:   source,
	}

	// Apply options
	for _, opt := range opts {
		opt(server)
	}

	// Apply defaults
	if server.logger == nil {
		server.logger = zap.NewNop().Sugar()
	}

	if server.keys == nil {
		keys, err := cachekey.New("", "")
		if err != nil {
			return nil, err
		}

		server.keys = keys
	}

	if server.stagingDir == "" {
		server.stagingDir = filepath.Join(os.TempDir(), "bucketcache")
	}

	// Staged paths are handed out to clients and later checked
	// against the staging directory, so make them unambiguous
	stagingDir, err := filepath.Abs(server.stagingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staging directory %q: %w", server.stagingDir, err)
	}
	server.stagingDir = stagingDir

	if err := os.MkdirAll(server.stagingDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory %q: %w", server.stagingDir, err)
	}

	// Configure routes
	server.echo = echo.New()
	server.echo.HideBanner = true
	server.echo.HidePort = true
	server.echo.HTTPErrorHandler = server.handleError

	server.echo.Use(
		echozap.ZapLogger(server.logger.Desugar()),
		middleware.Recover(),
		cors,
	)

	server.echo.GET("/health", server.handleHealth)
	server.echo.GET("/ping", server.handlePing)
	server.echo.POST("/list-files", server.handleListFiles)
	server.echo.POST("/download-files", server.handleDownloadFiles)
	server.echo.GET("/download-file", server.handleDownloadFile)

	// Listen on the desired port
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server.listener = listener

	// Configure HTTP server
	server.httpServer = &http.Server{
		Handler:           otelhttp.NewHandler(server.echo, "http.request"),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return server, nil
}

func (server *Server) Addr() string {
	return strings.ReplaceAll(server.listener.Addr().String(), "[::]", "127.0.0.1")
}

func (server *Server) Run(ctx context.Context) error {
	server.logger.Infof("listening on %s", server.Addr())

	go func() {
		<-ctx.Done()

		_ = server.httpServer.Close()
	}()

	if err := server.httpServer.Serve(server.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
