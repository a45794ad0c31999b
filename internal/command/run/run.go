package run

import (
	"bytes"
	"fmt"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
	diskpkg "github.com/cirruslabs/bucketcache/internal/cache/disk"
	"github.com/cirruslabs/bucketcache/internal/cache/memory"
	redispkg "github.com/cirruslabs/bucketcache/internal/cache/redis"
	s3cachepkg "github.com/cirruslabs/bucketcache/internal/cache/s3"
	"github.com/cirruslabs/bucketcache/internal/cachekey"
	configpkg "github.com/cirruslabs/bucketcache/internal/config"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"github.com/cirruslabs/bucketcache/internal/lock"
	pipelinepkg "github.com/cirruslabs/bucketcache/internal/pipeline"
	"github.com/cirruslabs/bucketcache/internal/s3client"
	serverpkg "github.com/cirruslabs/bucketcache/internal/server"
	"github.com/cirruslabs/bucketcache/internal/source"
	"github.com/cirruslabs/bucketcache/internal/source/local"
	s3sourcepkg "github.com/cirruslabs/bucketcache/internal/source/s3"
	"github.com/dustin/go-humanize"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"os"
)

var configPath string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bucketcache server",
		RunE:  run,
	}

	cmd.Flags().StringVarP(&configPath, "file", "f", "",
		"configuration file path (e.g. /etc/bucketcache.yml)")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	logger := zap.S()

	if configPath == "" {
		return fmt.Errorf("configuration file path (-f or --file) needs to be specified")
	}

	// Parse the configuration file
	configBytes, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read configuration file at path %s: %w", configPath, err)
	}

	config, err := configpkg.Parse(bytes.NewReader(configBytes))
	if err != nil {
		return fmt.Errorf("failed to parse configuration file at path %s: %w", configPath, err)
	}

	// The S3 client is shared by the source and the cache
	var s3Client *s3pkg.Client

	if config.Source.Kind == configpkg.SourceKindS3 || config.Cache.Kind == configpkg.CacheKindS3 {
		s3Config := &s3client.Config{}

		if config.S3 != nil {
			s3Config = &s3client.Config{
				Endpoint:        config.S3.Endpoint,
				Region:          config.S3.Region,
				AccessKeyID:     config.S3.AccessKeyID,
				AccessKeySecret: config.S3.AccessKeySecret,
			}
		}

		s3Client, err = s3client.New(cmd.Context(), s3Config)
		if err != nil {
			return err
		}
	}

	src, err := newSource(config, s3Client, logger)
	if err != nil {
		return err
	}

	// Configure the pipeline
	pipelineOpts := []pipelinepkg.Option{
		pipelinepkg.WithLogger(logger),
		pipelinepkg.WithTimeout(config.OperationTimeout),
	}

	classifier, err := newClassifier(config.StatusCodes)
	if err != nil {
		return err
	}

	pipelineOpts = append(pipelineOpts, pipelinepkg.WithClassifier(classifier))

	var cache cachepkg.Cache

	switch config.Cache.Kind {
	case configpkg.CacheKindMemory:
		cache = memory.New()
	case configpkg.CacheKindDisk:
		limitBytes := uint64(1 * humanize.GByte)

		if config.Cache.Disk.Limit != "" {
			limitBytes, err = humanize.ParseBytes(config.Cache.Disk.Limit)
			if err != nil {
				return fmt.Errorf("failed to parse disk limit value %q: %w", config.Cache.Disk.Limit, err)
			}
		}

		cache, err = diskpkg.New(config.Cache.Disk.Dir, limitBytes)
		if err != nil {
			return err
		}
	case configpkg.CacheKindRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     config.Cache.Redis.Addr,
			Password: config.Cache.Redis.Password,
			DB:       config.Cache.Redis.DB,
		})
		defer func() {
			_ = redisClient.Close()
		}()

		if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis at %s: %w", config.Cache.Redis.Addr, err)
		}

		cache = redispkg.New(redisClient)

		pipelineOpts = append(pipelineOpts, pipelinepkg.WithLocker(
			lock.NewRedis(redisClient, config.Cache.Redis.LockTTL),
			config.Cache.Redis.LockWait,
		))
	case configpkg.CacheKindS3:
		cache = s3cachepkg.New(s3Client, config.Cache.S3.Bucket)
	case configpkg.CacheKindNone:
		pipelineOpts = append(pipelineOpts, pipelinepkg.WithCachingDisabled())
	}

	pipeline, err := pipelinepkg.New(cache, pipelineOpts...)
	if err != nil {
		return err
	}

	keys, err := cachekey.New(config.Cache.Namespace, config.Cache.KeyExpr)
	if err != nil {
		return err
	}

	serverOpts := []serverpkg.Option{
		serverpkg.WithLogger(logger),
		serverpkg.WithKeyDeriver(keys),
		serverpkg.WithStagingDir(config.StagingDir),
		serverpkg.WithDefaultContainer(config.DefaultContainer),
	}

	// Staged files are local to this host, while redis and S3
	// caches are shared with other replicas
	if config.Cache.Kind == configpkg.CacheKindRedis || config.Cache.Kind == configpkg.CacheKindS3 {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to determine hostname: %w", err)
		}

		serverOpts = append(serverOpts, serverpkg.WithInstance(hostname))
	}

	server, err := serverpkg.New(config.Addr, pipeline, src, serverOpts...)
	if err != nil {
		return err
	}

	logger.Infof("using %s cache and %s source", config.Cache.Kind, config.Source.Kind)

	return server.Run(cmd.Context())
}

func newSource(config *configpkg.Config, s3Client *s3pkg.Client, logger *zap.SugaredLogger) (source.Source, error) {
	if config.Source.Kind != configpkg.SourceKindLocal {
		return s3sourcepkg.New(s3Client), nil
	}

	localSource, err := local.New(config.Source.Local.Dir)
	if err != nil {
		return nil, err
	}

	containers, err := localSource.Containers()
	if err != nil {
		return nil, err
	}

	logger.Infof("serving %d container(s) from %s", len(containers), config.Source.Local.Dir)

	return localSource, nil
}

func newClassifier(statusCodes map[string]int) (*failure.Classifier, error) {
	overrides := map[failure.Kind]int{}

	for rawKind, statusCode := range statusCodes {
		kind, err := failure.ParseKind(rawKind)
		if err != nil {
			return nil, fmt.Errorf("invalid \"status-codes\" entry: %w", err)
		}

		if err := failure.CheckStatusCode(statusCode); err != nil {
			return nil, fmt.Errorf("invalid \"status-codes\" entry for %q: %w", rawKind, err)
		}

		overrides[kind] = statusCode
	}

	return failure.NewClassifier(overrides), nil
}
