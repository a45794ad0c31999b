package s3

import (
	"context"
	"errors"
	"github.com/aws/aws-sdk-go-v2/aws"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/cirruslabs/bucketcache/internal/failure"
	"github.com/samber/lo"
	"io"
)

// API is the subset of the S3 client used by the source.
type API interface {
	s3pkg.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3pkg.GetObjectInput, optFns ...func(*s3pkg.Options)) (*s3pkg.GetObjectOutput, error)
}

// S3 treats buckets as containers.
type S3 struct {
	client API
}

func New(client API) *S3 {
	return &S3{
		client: client,
	}
}

func (s3 *S3) List(ctx context.Context, container string) ([]string, error) {
	keys := []string{}

	paginator := s3pkg.NewListObjectsV2Paginator(s3.client, &s3pkg.ListObjectsV2Input{
		Bucket: aws.String(container),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, convertErr(err, container, "")
		}

		keys = append(keys, lo.FilterMap(page.Contents, func(object types.Object, _ int) (string, bool) {
			if object.Key == nil {
				return "", false
			}

			return *object.Key, true
		})...)
	}

	return keys, nil
}

func (s3 *S3) Open(ctx context.Context, container string, key string) (io.ReadCloser, error) {
	result, err := s3.client.GetObject(ctx, &s3pkg.GetObjectInput{
		Bucket: aws.String(container),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, convertErr(err, container, key)
	}

	return result.Body, nil
}

func convertErr(err error, container string, key string) error {
	var noSuchBucket *types.NoSuchBucket
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound

	switch {
	case errors.As(err, &noSuchBucket):
		return failure.NotFoundf("container %q not found", container)
	case errors.As(err, &noSuchKey), errors.As(err, &notFound):
		return failure.NotFoundf("object %q not found in container %q", key, container)
	}

	// Some S3-compatible services return errors not modeled by the SDK
	var apiErr smithy.APIError

	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return failure.NotFoundf("container %q not found", container)
		case "NoSuchKey", "NotFound":
			return failure.NotFoundf("object %q not found in container %q", key, container)
		}
	}

	if key == "" {
		return failure.Upstream(err, "failed to list objects in container %q", container)
	}

	return failure.Upstream(err, "failed to retrieve object %q from container %q", key, container)
}
