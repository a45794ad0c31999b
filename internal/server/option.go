package server

import (
	"github.com/cirruslabs/bucketcache/internal/cachekey"
	"go.uber.org/zap"
)

type Option func(server *Server)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(server *Server) {
		server.logger = logger
	}
}

func WithKeyDeriver(keys *cachekey.Deriver) Option {
	return func(server *Server) {
		server.keys = keys
	}
}

// WithStagingDir sets the directory objects are downloaded to.
// Only files inside of it are served by /download-file.
func WithStagingDir(stagingDir string) Option {
	return func(server *Server) {
		server.stagingDir = stagingDir
	}
}

func WithDefaultContainer(defaultContainer string) Option {
	return func(server *Server) {
		server.defaultContainer = defaultContainer
	}
}

// WithInstance scopes cache entries that refer to this host's staging
// directory, so that replicas sharing a cache don't hand out paths
// that only exist on another replica.
func WithInstance(instance string) Option {
	return func(server *Server) {
		server.instance = instance
	}
}
