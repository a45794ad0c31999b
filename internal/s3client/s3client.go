package s3client

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	"net/url"
)

// Config describes how to reach the object storage. Empty fields
// fall back to the default AWS credential and region chain.
type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	AccessKeySecret string
}

func New(ctx context.Context, cfg *Config) (*s3pkg.Client, error) {
	var loadOptions []func(*config.LoadOptions) error

	if cfg.Region != "" {
		loadOptions = append(loadOptions, config.WithRegion(cfg.Region))
	}

	if cfg.AccessKeyID != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.AccessKeySecret, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	var clientOptions []func(*s3pkg.Options)

	if cfg.Endpoint != "" {
		if _, err := url.Parse(cfg.Endpoint); err != nil {
			return nil, fmt.Errorf("failed to parse S3 endpoint %q: %w", cfg.Endpoint, err)
		}

		clientOptions = append(clientOptions, func(options *s3pkg.Options) {
			options.EndpointResolverV2 = newEndpointResolver(cfg.Endpoint)
			options.UsePathStyle = true
		})
	}

	return s3pkg.NewFromConfig(awsConfig, clientOptions...), nil
}
