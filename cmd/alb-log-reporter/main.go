package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	"github.com/f-lab-edu/alb-log-reporter/pkg/albreport"
	"github.com/f-lab-edu/alb-log-reporter/pkg/util"
)

func main() {
	os.Exit(run())
}

// buildPipelineConfig creates pipeline config from ConfigSpec
func buildPipelineConfig(logger *slog.Logger) albreport.Config {
	return albreport.Config{
		BucketURI:         albreport.ConfigSpec.GetString("source.bucket-uri"),
		Start:             albreport.ConfigSpec.GetString("source.start"),
		End:               albreport.ConfigSpec.GetString("source.end"),
		Timezone:          albreport.ConfigSpec.GetString("source.timezone"),
		NumWorkers:        albreport.ConfigSpec.GetInt("pipeline.num-workers"),
		StagingDir:        albreport.ConfigSpec.GetString("pipeline.staging-dir"),
		OutputDir:         albreport.ConfigSpec.GetString("pipeline.output-dir"),
		AbuseListURL:      albreport.ConfigSpec.GetString("abuse.list-url"),
		AbuseTimeout:      time.Duration(albreport.ConfigSpec.GetInt("abuse.timeout-seconds")) * time.Second,
		S3Endpoint:        albreport.ConfigSpec.GetString("s3.endpoint"),
		S3Region:          albreport.ConfigSpec.GetString("s3.region"),
		S3AccessKeyID:     albreport.ConfigSpec.GetString("s3.access-key-id"),
		S3SecretAccessKey: albreport.ConfigSpec.GetString("s3.secret-access-key"),
		Logger:            logger,
	}
}

// waitForCompletion waits for the run to finish or a shutdown signal,
// returns exit code
func waitForCompletion(cancel context.CancelFunc, logger *slog.Logger,
	errChan <-chan error, signalsChan <-chan os.Signal) int {
	select {
	case sig := <-signalsChan:
		logger.Info("signal received", "signal", sig)
		cancel()

		if err := <-errChan; err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("run stopped with error", "error", err)
			return 1
		}

	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("run failed", "error", err)
			return 1
		}
	}

	return 0
}

func run() int {
	// Add command-line flags
	albreport.ConfigSpec.AddFlag(pflag.CommandLine, "bucket", "source.bucket-uri")
	albreport.ConfigSpec.AddFlag(pflag.CommandLine, "start", "source.start")
	albreport.ConfigSpec.AddFlag(pflag.CommandLine, "end", "source.end")
	albreport.ConfigSpec.AddFlag(pflag.CommandLine, "timezone", "source.timezone")
	albreport.ConfigSpec.AddFlag(pflag.CommandLine, "num-workers", "pipeline.num-workers")
	albreport.ConfigSpec.AddFlag(pflag.CommandLine, "log-level", "log-level")

	configFileFlag := pflag.String("config-file", "", "Path to configuration file")
	pflag.Parse()

	// Load configuration
	configFile := *configFileFlag
	if configFile == "" {
		configFile = os.Getenv("ALB_REPORTER_CONFIG_FILE")
	}

	err := albreport.ConfigSpec.LoadConfiguration(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		pflag.Usage()
		return 2
	}

	// Validate configuration
	err = albreport.ValidateConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation error: %v\n", err)
		return 2
	}

	// Set up logger
	logLevel := util.ParseLogLevel(albreport.ConfigSpec.GetString("log-level"))
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Create pipeline
	ctx := context.Background()
	pipelineCfg := buildPipelineConfig(logger)

	pipeline, err := albreport.NewPipeline(ctx, pipelineCfg)
	if err != nil {
		logger.Error("failed to create pipeline", "error", err)
		return 1
	}

	// Start metrics server
	metricsServer, err := util.StartMetricsServerIfEnabled(
		albreport.ConfigSpec, "metrics-server", logger)
	if err != nil {
		logger.Error("failed to start metrics server", "error", err)
		return 1
	}
	if metricsServer != nil {
		defer func() {
			if closeErr := metricsServer.Close(); closeErr != nil {
				logger.Error("failed to close metrics server", "error", closeErr)
			}
		}()
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalsChan := make(chan os.Signal, 1)
	signal.Notify(signalsChan, unix.SIGINT, unix.SIGTERM)

	// Start the run in a goroutine
	errChan := make(chan error)
	go func() {
		errChan <- pipeline.Run(ctx)
	}()

	// Wait for completion or signal
	exitCode := waitForCompletion(cancel, logger, errChan, signalsChan)

	if exitCode == 0 {
		logger.Info("alb-log-reporter finished")
	}
	return exitCode
}
