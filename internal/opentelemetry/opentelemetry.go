package opentelemetry

import (
	"context"
	"fmt"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"os"
)

// DefaultMeter delegates to the global meter provider, so instruments
// created before Init() still report once it's called.
var DefaultMeter metric.Meter = otel.Meter("github.com/cirruslabs/bucketcache")

// Init installs a global meter provider. Metrics are only exported
// when an OTLP endpoint is configured through the standard
// OTEL_EXPORTER_OTLP_* environment variables.
func Init(ctx context.Context) (*sdkmetric.MeterProvider, func(), error) {
	var opts []sdkmetric.Option

	if exportEnabled() {
		exporter, err := otlpmetrichttp.New(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
		}

		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	meterProvider := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(meterProvider)

	return meterProvider, func() {
		_ = meterProvider.Shutdown(context.Background())
	}, nil
}

func exportEnabled() bool {
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "" ||
		os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT") != ""
}
