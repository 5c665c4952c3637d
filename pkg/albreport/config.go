package albreport

import (
	"fmt"
	"strings"
	"time"
)

// windowTimeLayout is the CLI format for the analysis window bounds.
const windowTimeLayout = "2006-01-02 15:04"

// ParseBucketURI splits an s3://bucket/prefix URI into bucket and
// prefix. The prefix keeps no leading or trailing slash.
func ParseBucketURI(uri string) (bucket, prefix string, err error) {
	trimmed := strings.TrimPrefix(uri, "s3://")
	if trimmed == uri || trimmed == "" {
		return "", "", fmt.Errorf("bucket URI must look like s3://bucket/prefix, got %q", uri)
	}
	bucket, prefix, _ = strings.Cut(trimmed, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("bucket URI must look like s3://bucket/prefix, got %q", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// ValidateConfig performs structural validation of the loaded
// configuration, returning user-actionable messages.
func ValidateConfig() error {
	logLevel := ConfigSpec.GetString("log-level")
	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true}
	if !validLevels[logLevel] {
		return fmt.Errorf("invalid log-level: %s (must be error|warn|info|debug)", logLevel)
	}

	if _, _, err := ParseBucketURI(ConfigSpec.GetString("source.bucket-uri")); err != nil {
		return err
	}

	start := ConfigSpec.GetString("source.start")
	if start == "" {
		return fmt.Errorf("source.start is required (format: %s)", windowTimeLayout)
	}
	if _, err := time.Parse(windowTimeLayout, start); err != nil {
		return fmt.Errorf("invalid source.start %q: expected format %s", start, windowTimeLayout)
	}

	if end := ConfigSpec.GetString("source.end"); end != "" {
		if _, err := time.Parse(windowTimeLayout, end); err != nil {
			return fmt.Errorf("invalid source.end %q: expected format %s", end, windowTimeLayout)
		}
	}

	if _, err := time.LoadLocation(ConfigSpec.GetString("source.timezone")); err != nil {
		return fmt.Errorf("invalid source.timezone %q: %w", ConfigSpec.GetString("source.timezone"), err)
	}

	numWorkers := ConfigSpec.GetInt("pipeline.num-workers")
	if numWorkers <= 0 {
		return fmt.Errorf("pipeline.num-workers must be positive, got %d", numWorkers)
	}

	abuseTimeout := ConfigSpec.GetInt("abuse.timeout-seconds")
	if abuseTimeout <= 0 {
		return fmt.Errorf("abuse.timeout-seconds must be positive, got %d", abuseTimeout)
	}

	return nil
}
