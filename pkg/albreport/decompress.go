package albreport

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Decompressor expands staged .gz files into plain-text .log files
// with a bounded worker pool. Output names are derived from input
// names by suffix replacement so reruns are idempotent.
type Decompressor struct {
	logger     *slog.Logger
	metrics    *Metrics
	numWorkers int
}

// NewDecompressor creates a decompressor.
func NewDecompressor(numWorkers int, metrics *Metrics, logger *slog.Logger) *Decompressor {
	return &Decompressor{
		numWorkers: numWorkers,
		metrics:    metrics,
		logger:     logger,
	}
}

// Decompress expands every .gz file in srcDir into destDir. One bad
// file is logged and skipped; the rest keep going. Returns the number
// of files successfully expanded.
func (d *Decompressor) Decompress(ctx context.Context, srcDir, destDir string) (int, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read staging directory %s: %w", srcDir, err)
	}

	var gzNames []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".gz") {
			gzNames = append(gzNames, entry.Name())
		}
	}

	var mu sync.Mutex
	var successCount int

	runWorkers(ctx, d.numWorkers, len(gzNames), func(i int) {
		name := gzNames[i]
		srcPath := filepath.Join(srcDir, name)
		destPath := filepath.Join(destDir, strings.TrimSuffix(name, ".gz")+".log")

		if err := decompressFile(srcPath, destPath); err != nil {
			d.metrics.Decompression.FilesFailed.Inc()
			d.logger.Error("decompression failed", "file", name, "error", err)
			return
		}

		mu.Lock()
		successCount++
		mu.Unlock()
		d.metrics.Decompression.FilesDecompressed.Inc()
	})

	d.logger.Info("decompression completed",
		"totalFiles", len(gzNames),
		"successful", successCount)

	return successCount, nil
}

func decompressFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", srcPath, err)
	}
	defer func() { _ = src.Close() }()

	gzReader, err := gzip.NewReader(src)
	if err != nil {
		return fmt.Errorf("failed to read gzip header of %s: %w", srcPath, err)
	}
	defer func() { _ = gzReader.Close() }()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if _, err := io.Copy(dest, gzReader); err != nil {
		_ = dest.Close()
		return fmt.Errorf("failed to decompress %s: %w", srcPath, err)
	}

	return dest.Close()
}
