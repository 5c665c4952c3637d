package albreport

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// AbuseSet is the set of reputation-flagged client addresses.
// Advisory only: absence means not flagged, and a failed fetch is
// represented by an empty set.
type AbuseSet map[string]struct{}

// Contains reports whether ip is flagged.
func (s AbuseSet) Contains(ip string) bool {
	_, ok := s[ip]
	return ok
}

// AbuseFetcher downloads the newline-delimited abuse IP list.
type AbuseFetcher struct {
	client *http.Client
	logger *slog.Logger
	url    string
}

// NewAbuseFetcher creates a fetcher for the given list URL.
func NewAbuseFetcher(url string, timeout time.Duration, logger *slog.Logger) *AbuseFetcher {
	return &AbuseFetcher{
		client: &http.Client{Timeout: timeout},
		url:    url,
		logger: logger,
	}
}

// Fetch downloads the list. On any failure it logs a warning and
// returns an empty set: the report then simply flags nothing, the
// pipeline never aborts over reputation data.
func (f *AbuseFetcher) Fetch(ctx context.Context) AbuseSet {
	set, err := f.fetch(ctx)
	if err != nil {
		f.logger.Warn("abuse IP list fetch failed, no addresses will be flagged",
			"url", f.url, "error", err)
		return AbuseSet{}
	}

	f.logger.Info("abuse IP list fetched", "entries", len(set))
	return set
}

func (f *AbuseFetcher) fetch(ctx context.Context) (AbuseSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	set := AbuseSet{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			set[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return set, nil
}
