package config

import (
	"errors"
	"fmt"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"gopkg.in/yaml.v3"
	"io"
	"time"
)

const (
	CacheKindMemory = "memory"
	CacheKindDisk   = "disk"
	CacheKindRedis  = "redis"
	CacheKindS3     = "s3"
	CacheKindNone   = "none"

	SourceKindS3    = "s3"
	SourceKindLocal = "local"
)

type Config struct {
	Addr             string         `yaml:"addr"`
	StagingDir       string         `yaml:"staging-dir"`
	DefaultContainer string         `yaml:"default-container"`
	OperationTimeout time.Duration  `yaml:"operation-timeout"`
	StatusCodes      map[string]int `yaml:"status-codes"`
	Cache            Cache          `yaml:"cache"`
	Source           Source         `yaml:"source"`
	S3               *S3            `yaml:"s3"`
}

type Cache struct {
	Kind      string   `yaml:"kind"`
	Namespace string   `yaml:"namespace"`
	KeyExpr   string   `yaml:"key-expr"`
	Disk      *Disk    `yaml:"disk"`
	Redis     *Redis   `yaml:"redis"`
	S3        *CacheS3 `yaml:"s3"`
}

type Disk struct {
	Dir   string `yaml:"dir"`
	Limit string `yaml:"limit"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock-ttl"`
	LockWait time.Duration `yaml:"lock-wait"`
}

type CacheS3 struct {
	Bucket string `yaml:"bucket"`
}

type Source struct {
	Kind  string       `yaml:"kind"`
	Local *LocalSource `yaml:"local"`
}

type LocalSource struct {
	Dir string `yaml:"dir"`
}

type S3 struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
}

func Parse(r io.Reader) (*Config, error) {
	var config Config

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	// An empty file is a valid configuration
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	// Apply defaults
	if config.Addr == "" {
		config.Addr = ":8080"
	}

	if config.OperationTimeout == 0 {
		config.OperationTimeout = 5 * time.Minute
	}

	if config.Cache.Kind == "" {
		config.Cache.Kind = CacheKindMemory
	}

	if config.Source.Kind == "" {
		config.Source.Kind = SourceKindS3
	}

	if redis := config.Cache.Redis; redis != nil {
		if redis.LockTTL == 0 {
			redis.LockTTL = 30 * time.Second
		}

		if redis.LockWait == 0 {
			redis.LockWait = redis.LockTTL
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (config *Config) validate() error {
	switch config.Cache.Kind {
	case CacheKindMemory, CacheKindNone:
	case CacheKindDisk:
		if config.Cache.Disk == nil || config.Cache.Disk.Dir == "" {
			return fmt.Errorf("cache kind %q requires \"cache.disk.dir\" to be set", config.Cache.Kind)
		}
	case CacheKindRedis:
		if config.Cache.Redis == nil || config.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache kind %q requires \"cache.redis.addr\" to be set", config.Cache.Kind)
		}
	case CacheKindS3:
		if config.Cache.S3 == nil || config.Cache.S3.Bucket == "" {
			return fmt.Errorf("cache kind %q requires \"cache.s3.bucket\" to be set", config.Cache.Kind)
		}
	default:
		return fmt.Errorf("unsupported cache kind %q", config.Cache.Kind)
	}

	for rawKind, statusCode := range config.StatusCodes {
		if _, err := failure.ParseKind(rawKind); err != nil {
			return fmt.Errorf("invalid \"status-codes\" entry: %w", err)
		}

		if err := failure.CheckStatusCode(statusCode); err != nil {
			return fmt.Errorf("invalid \"status-codes\" entry for %q: %w", rawKind, err)
		}
	}

	switch config.Source.Kind {
	case SourceKindS3:
	case SourceKindLocal:
		if config.Source.Local == nil || config.Source.Local.Dir == "" {
			return fmt.Errorf("source kind %q requires \"source.local.dir\" to be set", config.Source.Kind)
		}
	default:
		return fmt.Errorf("unsupported source kind %q", config.Source.Kind)
	}

	return nil
}
