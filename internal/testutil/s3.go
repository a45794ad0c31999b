package testutil

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cirruslabs/bucketcache/internal/s3client"
	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"strings"
	"testing"
)

// S3 starts a LocalStack container and returns the configuration
// needed to talk to its S3 endpoint.
func S3(t *testing.T) *s3client.Config {
	t.Helper()

	ctx := context.Background()

	localstackContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "localstack/localstack",
			WaitingFor:   wait.ForHTTP("/_localstack/health").WithPort("4566/tcp"),
			ExposedPorts: []string{"4566/tcp"},
		},
		Started: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = localstackContainer.Terminate(context.Background())
	})

	exposedPort, err := nat.NewPort("tcp", "4566")
	require.NoError(t, err)

	mappedPort, err := localstackContainer.MappedPort(ctx, exposedPort)
	require.NoError(t, err)

	return &s3client.Config{
		Endpoint:        fmt.Sprintf("http://localhost:%d", mappedPort.Int()),
		Region:          "us-east-1",
		AccessKeyID:     "key-id",
		AccessKeySecret: "key-secret",
	}
}

// S3Bucket creates a bucket and fills it with the provided objects.
func S3Bucket(t *testing.T, client *s3pkg.Client, bucket string, objects map[string]string) {
	t.Helper()

	ctx := context.Background()

	_, err := client.CreateBucket(ctx, &s3pkg.CreateBucketInput{
		Bucket: aws.String(bucket),
	})
	require.NoError(t, err)

	for key, contents := range objects {
		_, err := client.PutObject(ctx, &s3pkg.PutObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
			Body:   strings.NewReader(contents),
		})
		require.NoError(t, err)
	}
}
