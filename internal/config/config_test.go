package config_test

import (
	"github.com/cirruslabs/bucketcache/internal/config"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	configFile, err := os.Open(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	defer configFile.Close()

	actualConfig, err := config.Parse(configFile)
	require.NoError(t, err)
	require.Equal(t, &config.Config{
		Addr:             "127.0.0.1:8080",
		StagingDir:       "/var/lib/bucketcache/staging",
		DefaultContainer: "docs",
		OperationTimeout: 30 * time.Second,
		StatusCodes: map[string]int{
			"upstream": 502,
		},
		Cache: config.Cache{
			Kind:      config.CacheKindRedis,
			Namespace: "prod",
			KeyExpr:   `namespace + ":" + operation + ":" + input`,
			Redis: &config.Redis{
				Addr:     "redis:6379",
				DB:       1,
				LockTTL:  time.Minute,
				LockWait: time.Minute,
			},
		},
		Source: config.Source{
			Kind: config.SourceKindS3,
		},
		S3: &config.S3{
			Endpoint:        "http://minio:9000",
			Region:          "us-east-1",
			AccessKeyID:     "minio",
			AccessKeySecret: "minio123",
		},
	}, actualConfig)
}

func TestParseDefaults(t *testing.T) {
	actualConfig, err := config.Parse(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, &config.Config{
		Addr:             ":8080",
		OperationTimeout: 5 * time.Minute,
		Cache: config.Cache{
			Kind: config.CacheKindMemory,
		},
		Source: config.Source{
			Kind: config.SourceKindS3,
		},
	}, actualConfig)
}

func TestParseUnknownField(t *testing.T) {
	configFile, err := os.Open(filepath.Join("testdata", "unknown-field.yaml"))
	require.NoError(t, err)
	defer configFile.Close()

	_, err = config.Parse(configFile)
	require.Error(t, err)
}

func TestParseStatusCodes(t *testing.T) {
	actualConfig, err := config.Parse(strings.NewReader(
		"status-codes:\n  NotFound: 410\n  upstream-failure: 503\n"))
	require.NoError(t, err)
	require.Equal(t, map[string]int{"NotFound": 410, "upstream-failure": 503}, actualConfig.StatusCodes)
}

func TestParseValidation(t *testing.T) {
	for _, input := range []string{
		"cache:\n  kind: disk\n",
		"cache:\n  kind: redis\n",
		"cache:\n  kind: s3\n",
		"cache:\n  kind: memcached\n",
		"source:\n  kind: local\n",
		"source:\n  kind: gcs\n",
		"status-codes:\n  not-found: 200\n",
		"status-codes:\n  upstream: 700\n",
		"status-codes:\n  teapot: 418\n",
	} {
		_, err := config.Parse(strings.NewReader(input))
		require.Error(t, err, input)
	}
}
