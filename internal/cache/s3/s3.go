package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	cachepkg "github.com/cirruslabs/bucketcache/internal/cache"
	"io"
)

// S3 keeps cache entries as objects in a dedicated bucket.
type S3 struct {
	client   *s3pkg.Client
	uploader *manager.Uploader
	bucket   string
}

func New(client *s3pkg.Client, bucket string) *S3 {
	return &S3{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
	}
}

func (s3 *S3) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := s3.client.GetObject(ctx, &s3pkg.GetObjectInput{
		Bucket: aws.String(s3.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, convertErr(err)
	}
	defer result.Body.Close()

	value, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %q: %w", key, err)
	}

	return value, nil
}

func (s3 *S3) Set(ctx context.Context, key string, value []byte) error {
	_, err := s3.uploader.Upload(ctx, &s3pkg.PutObjectInput{
		Bucket:      aws.String(s3.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(value),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload cache entry %q: %w", key, err)
	}

	return nil
}

func (s3 *S3) Has(ctx context.Context, key string) (bool, error) {
	_, err := s3.client.HeadObject(ctx, &s3pkg.HeadObjectInput{
		Bucket: aws.String(s3.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if err := convertErr(err); errors.Is(err, cachepkg.ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func convertErr(err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey

	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return cachepkg.ErrNotFound
	}

	return err
}
