package albreport

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/f-lab-edu/alb-log-reporter/pkg/s3"
)

// Config holds pipeline configuration
//
//nolint:govet // Field alignment is less important than readability for config structs
type Config struct {
	Logger *slog.Logger

	// BucketURI is the s3://bucket/prefix location of the ALB logs
	BucketURI string
	// Start is the inclusive start of the analysis window (YYYY-MM-DD HH:MM, in Timezone)
	Start string
	// End is the inclusive end of the analysis window; empty means now
	End string
	// Timezone is the IANA name records are reported in
	Timezone string

	// NumWorkers is the size of each I/O stage's worker pool
	NumWorkers int
	// StagingDir is the root for intermediate files, emptied per run
	StagingDir string
	// OutputDir is where report workbooks land; never auto-cleared
	OutputDir string

	AbuseListURL string
	AbuseTimeout time.Duration

	S3Endpoint        string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Store is an optional object store for testing (if nil, an S3 client is created)
	Store ObjectStore
	// Metrics is an optional metrics set for testing (if nil, one is
	// created on the default registry)
	Metrics *Metrics
}

// Pipeline runs one full analysis: select, retrieve, decompress,
// parse, aggregate, write. Each stage fully materializes its output
// before the next starts; aggregation needs the complete record set.
type Pipeline struct {
	store        ObjectStore
	selector     *Selector
	retriever    *Retriever
	decompressor *Decompressor
	fileParser   *FileParser
	aggregator   *Aggregator
	abuseFetcher *AbuseFetcher
	reportWriter *ReportWriter
	staging      *Staging
	metrics      *Metrics
	logger       *slog.Logger

	prefix    string
	outputDir string
	start     time.Time
	end       time.Time
	endIsNow  bool
}

// NewPipeline creates a pipeline from validated configuration.
func NewPipeline(ctx context.Context, cfg Config) (*Pipeline, error) {
	bucket, prefix, err := ParseBucketURI(cfg.BucketURI)
	if err != nil {
		return nil, err
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	start, err := time.ParseInLocation(windowTimeLayout, cfg.Start, location)
	if err != nil {
		return nil, fmt.Errorf("invalid start time %q: expected format %s", cfg.Start, windowTimeLayout)
	}

	var end time.Time
	endIsNow := cfg.End == ""
	if !endIsNow {
		end, err = time.ParseInLocation(windowTimeLayout, cfg.End, location)
		if err != nil {
			return nil, fmt.Errorf("invalid end time %q: expected format %s", cfg.End, windowTimeLayout)
		}
	}

	store := cfg.Store
	if store == nil {
		client, err := s3.NewClient(ctx, s3.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client: %w", err)
		}
		store = client
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = 10
	}

	staging := NewStaging(cfg.StagingDir)

	return &Pipeline{
		store:        store,
		selector:     NewSelector(store, bucket, prefix, logger),
		retriever:    NewRetriever(store, bucket, numWorkers, metrics, logger),
		decompressor: NewDecompressor(numWorkers, metrics, logger),
		fileParser:   NewFileParser(NewParser(location), numWorkers, metrics, logger),
		aggregator:   NewAggregator(),
		abuseFetcher: NewAbuseFetcher(cfg.AbuseListURL, cfg.AbuseTimeout, logger),
		reportWriter: NewReportWriter(metrics, logger),
		staging:      staging,
		metrics:      metrics,
		logger:       logger,
		prefix:       prefix,
		outputDir:    cfg.OutputDir,
		start:        start,
		end:          end,
		endIsNow:     endIsNow,
	}, nil
}

// Run executes one analysis run. Per-unit failures inside the I/O
// stages are logged and absorbed; only structural errors and report
// write failures are returned. Staging directories are cleaned up on
// every exit path; the output directory is left alone.
func (p *Pipeline) Run(ctx context.Context) error {
	runStart := time.Now()
	defer func() {
		p.metrics.Report.RunDuration.Observe(time.Since(runStart).Seconds())
	}()

	if err := p.staging.Create(); err != nil {
		return err
	}
	defer func() {
		if err := p.staging.Cleanup(); err != nil {
			p.logger.Error("failed to clean up staging directories", "error", err)
		}
	}()

	end := p.end
	if p.endIsNow {
		end = time.Now()
	}

	keys, err := p.selector.Select(ctx, p.start, end)
	if err != nil {
		return err
	}
	p.metrics.Retrieval.ObjectsSelected.Add(float64(len(keys)))
	if len(keys) == 0 {
		p.logger.Warn("nothing to analyze, no report written")
		return nil
	}

	if downloaded := p.retriever.Retrieve(ctx, keys, p.staging.Compressed); downloaded == 0 {
		p.logger.Warn("no objects could be downloaded, no report written")
		return nil
	}

	if _, err := p.decompressor.Decompress(ctx, p.staging.Compressed, p.staging.Extracted); err != nil {
		return err
	}

	records, err := p.fileParser.ParseDir(ctx, p.staging.Extracted)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		p.logger.Warn("no records parsed, no report written")
		return nil
	}

	abuseSet := p.abuseFetcher.Fetch(ctx)

	tables := p.aggregator.Analyze(records, abuseSet)

	reportPath, err := p.reportPath(runStart)
	if err != nil {
		return err
	}
	if err := p.reportWriter.Write(tables, abuseSet, reportPath); err != nil {
		return err
	}

	p.logger.Info("analysis complete",
		"records", len(records),
		"reportPath", reportPath,
		"elapsedSeconds", time.Since(runStart).Seconds())

	return nil
}

// reportPath derives the workbook location from the run prefix and
// the run's start time. The directory is created if absent and never
// cleared.
func (p *Pipeline) reportPath(runStart time.Time) (string, error) {
	dir := filepath.Join(p.outputDir, runStart.UTC().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	fileName := strings.ReplaceAll(p.prefix, "/", "_") + "_report.xlsx"
	return filepath.Join(dir, fileName), nil
}
