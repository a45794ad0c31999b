package pipeline

import (
	"github.com/cirruslabs/bucketcache/internal/failure"
	"github.com/cirruslabs/bucketcache/internal/lock"
	"go.uber.org/zap"
	"time"
)

type Option func(pipeline *Pipeline)

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(pipeline *Pipeline) {
		pipeline.logger = logger
	}
}

func WithClassifier(classifier *failure.Classifier) Option {
	return func(pipeline *Pipeline) {
		pipeline.classifier = classifier
	}
}

// WithTimeout bounds the duration of a single operation.
func WithTimeout(timeout time.Duration) Option {
	return func(pipeline *Pipeline) {
		pipeline.timeout = timeout
	}
}

// WithLocker coordinates cache population with other replicas.
// A replica that fails to acquire the lock polls the cache for up
// to wait before computing the result on its own.
func WithLocker(locker lock.Locker, wait time.Duration) Option {
	return func(pipeline *Pipeline) {
		pipeline.locker = locker
		pipeline.lockWait = wait
	}
}

// WithCachingDisabled makes Execute() behave like Passthrough().
func WithCachingDisabled() Option {
	return func(pipeline *Pipeline) {
		pipeline.cachingDisabled = true
	}
}
