package albreport

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
)

// Retriever downloads selected objects into the compressed staging
// directory with a bounded worker pool.
type Retriever struct {
	store      ObjectStore
	logger     *slog.Logger
	metrics    *Metrics
	bucket     string
	numWorkers int
}

// NewRetriever creates a retriever for the given bucket.
func NewRetriever(store ObjectStore, bucket string, numWorkers int,
	metrics *Metrics, logger *slog.Logger) *Retriever {
	return &Retriever{
		store:      store,
		bucket:     bucket,
		numWorkers: numWorkers,
		metrics:    metrics,
		logger:     logger,
	}
}

// Retrieve downloads every key into destDir under its base name.
// A failed download is logged with its key and cause and skipped;
// sibling transfers continue. Returns the number of files that landed.
func (r *Retriever) Retrieve(ctx context.Context, keys []string, destDir string) int {
	var mu sync.Mutex
	var successCount int
	var failedKeys []string

	runWorkers(ctx, r.numWorkers, len(keys), func(i int) {
		key := keys[i]
		localPath := filepath.Join(destDir, filepath.Base(key))

		if err := r.store.DownloadToFile(ctx, r.bucket, key, localPath); err != nil {
			mu.Lock()
			failedKeys = append(failedKeys, key)
			mu.Unlock()

			r.metrics.Retrieval.ObjectsFailed.Inc()
			r.logger.Error("download failed",
				"bucketName", r.bucket,
				"key", key,
				"error", err)
			return
		}

		mu.Lock()
		successCount++
		mu.Unlock()
		r.metrics.Retrieval.ObjectsDownloaded.Inc()
	})

	if len(failedKeys) > 0 {
		r.logger.Warn("download completed with failures",
			"totalObjects", len(keys),
			"successful", successCount,
			"failed", len(failedKeys),
			"failedKeys", failedKeys)
	} else {
		r.logger.Info("download completed",
			"totalObjects", len(keys),
			"successful", successCount)
	}

	return successCount
}
