package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
	"github.com/cirruslabs/bucketcache/internal/cache/noop"
	"github.com/cirruslabs/bucketcache/internal/envelope"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"github.com/cirruslabs/bucketcache/internal/lock"
	"github.com/cirruslabs/bucketcache/internal/opentelemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"strings"
	"time"
)

const (
	resultHit         = "hit"
	resultMiss        = "miss"
	resultCoalesced   = "coalesced"
	resultPassthrough = "passthrough"

	lockPollInterval = 100 * time.Millisecond
)

// Operation produces a JSON-serializable result, it's only
// invoked when no cached result exists for its key.
type Operation func(ctx context.Context) (any, error)

// Pipeline runs operations through the cache: a cached result is returned
// as is, otherwise the operation is invoked at most once per key, even
// for concurrent callers, and its result is cached only when it succeeds.
type Pipeline struct {
	cache      cachepkg.Cache
	classifier *failure.Classifier
	group      singleflight.Group
	locker     lock.Locker
	lockWait   time.Duration
	timeout    time.Duration
	logger     *zap.SugaredLogger

	cachingDisabled bool

	// Metrics
	lookupCounter  metric.Int64Counter
	failureCounter metric.Int64Counter
}

type populateResult struct {
	value  []byte
	cached bool
}

func New(cache cachepkg.Cache, opts ...Option) (*Pipeline, error) {
	pipeline := &Pipeline{
		cache: cache,
	}

	// Apply options
	for _, opt := range opts {
		opt(pipeline)
	}

	// Apply defaults
	if pipeline.cache == nil {
		pipeline.cache = noop.New()
	}

	if pipeline.classifier == nil {
		pipeline.classifier = failure.NewClassifier(nil)
	}

	if pipeline.logger == nil {
		pipeline.logger = zap.NewNop().Sugar()
	}

	// Metrics
	var err error

	pipeline.lookupCounter, err = opentelemetry.DefaultMeter.Int64Counter("bucketcache.pipeline.lookups")
	if err != nil {
		return nil, err
	}

	pipeline.failureCounter, err = opentelemetry.DefaultMeter.Int64Counter("bucketcache.pipeline.failures")
	if err != nil {
		return nil, err
	}

	return pipeline, nil
}

// Execute returns the cached result for key or runs op to produce it.
func (pipeline *Pipeline) Execute(ctx context.Context, key string, op Operation) envelope.Envelope {
	if key == "" || key != strings.TrimSpace(key) {
		return pipeline.Fail(ctx, failure.Validationf("cache key must be a non-empty trimmed string"))
	}

	if pipeline.cachingDisabled {
		return pipeline.Passthrough(ctx, op)
	}

	value, err := pipeline.cache.Get(ctx, key)
	if err == nil {
		pipeline.countLookup(ctx, resultHit)
		pipeline.logger.Debugf("cache hit for key %q", key)

		return envelope.Success(json.RawMessage(value))
	}

	if !errors.Is(err, cachepkg.ErrNotFound) {
		pipeline.logger.Warnf("failed to retrieve cache entry for key %q, treating it as a miss: %v",
			key, err)
	}

	// Detach from the caller so that a disconnect of whoever started
	// the flight doesn't fail the rest of the callers waiting on it
	flightCtx := context.WithoutCancel(ctx)

	result, err, shared := pipeline.group.Do(key, func() (any, error) {
		return pipeline.populate(flightCtx, key, op)
	})
	if err != nil {
		return pipeline.Fail(ctx, err)
	}

	populated := result.(*populateResult)

	var lookupResult string

	switch {
	case shared:
		lookupResult = resultCoalesced
	case populated.cached:
		lookupResult = resultHit
	default:
		lookupResult = resultMiss
	}

	pipeline.countLookup(ctx, lookupResult)
	pipeline.logger.Debugf("cache %s for key %q", lookupResult, key)

	return envelope.Success(json.RawMessage(populated.value))
}

// Passthrough runs op without consulting or populating the cache.
func (pipeline *Pipeline) Passthrough(ctx context.Context, op Operation) envelope.Envelope {
	pipeline.countLookup(ctx, resultPassthrough)

	value, err := pipeline.run(ctx, op)
	if err != nil {
		return pipeline.Fail(ctx, err)
	}

	return envelope.Success(json.RawMessage(value))
}

// Fail converts err into a failure envelope, logging the details
// that don't make it into the envelope's message.
func (pipeline *Pipeline) Fail(ctx context.Context, err error) envelope.Envelope {
	classification := pipeline.classifier.Classify(err)

	if classification.Kind == failure.KindUnexpected {
		pipeline.logger.Errorf("operation failed: %v", err)
	} else {
		pipeline.logger.Warnf("operation failed (%s): %v", classification.Kind, err)
	}

	pipeline.failureCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", classification.Kind.String()),
	))

	return envelope.Failure(classification.StatusCode, classification.Message)
}

func (pipeline *Pipeline) populate(ctx context.Context, key string, op Operation) (*populateResult, error) {
	if pipeline.locker != nil {
		return pipeline.populateWithLock(ctx, key, op)
	}

	return pipeline.populateLocally(ctx, key, op)
}

func (pipeline *Pipeline) populateLocally(ctx context.Context, key string, op Operation) (*populateResult, error) {
	// Another flight for this key might've completed
	// between our cache lookup and joining the group
	if value, err := pipeline.cache.Get(ctx, key); err == nil {
		return &populateResult{value: value, cached: true}, nil
	}

	value, err := pipeline.run(ctx, op)
	if err != nil {
		return nil, err
	}

	// Failing to store the result is not fatal, the next
	// request will simply recompute it
	if err := pipeline.cache.Set(ctx, key, value); err != nil {
		pipeline.logger.Warnf("failed to store cache entry for key %q: %v", key, err)
	}

	return &populateResult{value: value}, nil
}

func (pipeline *Pipeline) populateWithLock(ctx context.Context, key string, op Operation) (*populateResult, error) {
	deadline := time.Now().Add(pipeline.lockWait)

	for {
		acquiredLock, ok, err := pipeline.locker.TryLock(ctx, key)
		if err != nil {
			pipeline.logger.Warnf("failed to acquire lock for key %q, "+
				"populating without it: %v", key, err)

			return pipeline.populateLocally(ctx, key, op)
		}

		if ok {
			defer func() {
				if err := acquiredLock.Unlock(ctx); err != nil {
					pipeline.logger.Warnf("%v", err)
				}
			}()

			return pipeline.populateLocally(ctx, key, op)
		}

		// Someone else is populating this key, wait for their result
		if value, err := pipeline.cache.Get(ctx, key); err == nil {
			return &populateResult{value: value, cached: true}, nil
		}

		if time.Now().After(deadline) {
			pipeline.logger.Warnf("timed out waiting for lock for key %q, "+
				"populating without it", key)

			return pipeline.populateLocally(ctx, key, op)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (pipeline *Pipeline) run(ctx context.Context, op Operation) (value []byte, err error) {
	if pipeline.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, pipeline.timeout)
		defer cancel()
	}

	// A panicking operation must not take the whole service down
	defer func() {
		if recovered := recover(); recovered != nil {
			value = nil
			err = fmt.Errorf("operation panicked: %v", recovered)
		}
	}()

	result, err := op(ctx)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
		}

		return nil, err
	}

	value, err = json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode operation result: %w", err)
	}

	return value, nil
}

func (pipeline *Pipeline) countLookup(ctx context.Context, result string) {
	pipeline.lookupCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}
