package s3client

import (
	"context"
	"github.com/aws/aws-sdk-go-v2/aws"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	transport "github.com/aws/smithy-go/endpoints"
)

// endpointResolver points the client at an S3-compatible service
// (MinIO, LocalStack, etc.) while still letting the default resolver
// place the bucket name into the request path.
type endpointResolver struct {
	endpoint string
	base     s3pkg.EndpointResolverV2
}

func newEndpointResolver(endpoint string) *endpointResolver {
	return &endpointResolver{
		endpoint: endpoint,
		base:     s3pkg.NewDefaultEndpointResolverV2(),
	}
}

func (e *endpointResolver) ResolveEndpoint(
	ctx context.Context,
	params s3pkg.EndpointParameters,
) (transport.Endpoint, error) {
	params.Endpoint = aws.String(e.endpoint)
	params.ForcePathStyle = aws.Bool(true)

	return e.base.ResolveEndpoint(ctx, params)
}
