package albreport

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// maxLineBytes bounds a single access-log line. ALB lines stay well
// under this even with long URLs and user agents.
const maxLineBytes = 1 << 20

// FileParser parses extracted log files across the bounded worker
// pool. Each worker owns its file end-to-end and returns a local
// record list; the lists are concatenated with no ordering guarantee
// across files, which is fine because aggregation is order-independent.
type FileParser struct {
	parser     *Parser
	logger     *slog.Logger
	metrics    *Metrics
	numWorkers int
}

// NewFileParser creates a file parser.
func NewFileParser(parser *Parser, numWorkers int, metrics *Metrics, logger *slog.Logger) *FileParser {
	return &FileParser{
		parser:     parser,
		numWorkers: numWorkers,
		metrics:    metrics,
		logger:     logger,
	}
}

// ParseDir parses every .log file in dir. A rejected line is logged
// and dropped; a file that cannot be opened is logged and skipped.
func (fp *FileParser) ParseDir(ctx context.Context, dir string) ([]LogRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory %s: %w", dir, err)
	}

	var logNames []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			logNames = append(logNames, entry.Name())
		}
	}

	var mu sync.Mutex
	var records []LogRecord

	runWorkers(ctx, fp.numWorkers, len(logNames), func(i int) {
		name := logNames[i]
		fileRecords, err := fp.parseFile(filepath.Join(dir, name))
		if err != nil {
			fp.logger.Error("failed to parse log file", "file", name, "error", err)
			return
		}

		mu.Lock()
		records = append(records, fileRecords...)
		mu.Unlock()
	})

	fp.logger.Info("parsing completed", "files", len(logNames), "records", len(records))

	return records, nil
}

func (fp *FileParser) parseFile(path string) ([]LogRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	var records []LogRecord

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		record, err := fp.parser.ParseLine(line)
		if err != nil {
			fp.metrics.Parsing.LinesRejected.Inc()
			fp.logger.Warn("rejected log line", "reason", err, "line", line)
			continue
		}

		fp.metrics.Parsing.LinesParsed.Inc()
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("failed to scan %s: %w", path, err)
	}

	return records, nil
}
