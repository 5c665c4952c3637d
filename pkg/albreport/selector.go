package albreport

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Selector picks the log objects whose last-modified time falls in
// the analysis window.
type Selector struct {
	store  ObjectStore
	logger *slog.Logger
	bucket string
	prefix string
}

// NewSelector creates a selector over the given bucket and prefix.
func NewSelector(store ObjectStore, bucket, prefix string, logger *slog.Logger) *Selector {
	return &Selector{
		store:  store,
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// Select lists the prefix exhaustively and returns the keys modified
// within [start, end], both inclusive. The bounds are compared in UTC.
// If end is before start the current time is substituted for end, so a
// caller mistake never silently produces an empty window. An empty
// selection is not an error; it is logged as a warning and the caller
// terminates the run cleanly.
func (s *Selector) Select(ctx context.Context, start, end time.Time) ([]string, error) {
	if end.Before(start) {
		s.logger.Warn("end of time window precedes start, using current time as end",
			"start", start, "end", end)
		end = time.Now()
	}
	startUTC := start.UTC()
	endUTC := end.UTC()

	s.logger.Info("searching logs in S3 bucket",
		"bucketName", s.bucket,
		"prefix", s.prefix,
		"startUTC", startUTC,
		"endUTC", endUTC)

	objects, err := s.store.ListObjects(ctx, s.bucket, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", s.bucket, s.prefix, err)
	}
	if len(objects) == 0 {
		s.logger.Warn("no logs found under the specified prefix",
			"bucketName", s.bucket, "prefix", s.prefix)
		return nil, nil
	}

	var keys []string
	for _, obj := range objects {
		modified := obj.LastModified.UTC()
		if !modified.Before(startUTC) && !modified.After(endUTC) {
			keys = append(keys, obj.Key)
		}
	}

	if len(keys) == 0 {
		s.logger.Warn("no logs found in the specified time range",
			"bucketName", s.bucket,
			"prefix", s.prefix,
			"startUTC", startUTC,
			"endUTC", endUTC)
	}

	return keys, nil
}
