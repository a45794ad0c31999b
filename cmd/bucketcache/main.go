package main

import (
	"context"
	"github.com/cirruslabs/bucketcache/internal/command"
	"github.com/cirruslabs/bucketcache/internal/logginglevel"
	"github.com/cirruslabs/bucketcache/internal/opentelemetry"
	"go.uber.org/zap"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Set up a signal-interruptible context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Initialize logger
	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logginglevel.Level

	logger, err := loggerConfig.Build()
	if err != nil {
		log.Fatal(err)
	}

	zap.ReplaceGlobals(logger)

	// Initialize OpenTelemetry
	_, opentelemetryDeinit, err := opentelemetry.Init(ctx)
	if err != nil {
		logger.Sugar().Fatal(err)
	}

	err = command.NewRootCommand().ExecuteContext(ctx)

	opentelemetryDeinit()
	_ = logger.Sync()
	cancel()

	if err != nil {
		logger.Sugar().Fatal(err)
	}
}
