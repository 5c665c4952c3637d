package albreport

import (
	"sort"
	"strings"
)

const (
	// slowRequestThreshold is the total duration, in seconds, at or
	// above which a request lands in the slow-request table.
	slowRequestThreshold = 1.0

	// topN is the ranking size for the top-N tables and the slow table.
	topN = 100
)

// Table names, in display order.
const (
	TableTopClientIPs  = "Top 100 Client IP"
	TableTopUserAgents = "Top 100 User Agents"
	TableTopRequestURL = "Top 100 Request URL"
	TableELB2xxCount   = "ELB 2xx Count"
	TableELB3xxCount   = "ELB 3xx Count"
	TableELB4xxCount   = "ELB 4xx Count"
	TableELB5xxCount   = "ELB 5xx Count"
	TableBackend4xx    = "Backend 4xx Count"
	TableBackend5xx    = "Backend 5xx Count"
	TableELB4xxTimes   = "ELB 4xx Timestamp"
	TableELB5xxTimes   = "ELB 5xx Timestamp"
	TableBackend4xxTS  = "Backend 4xx Timestamp"
	TableBackend5xxTS  = "Backend 5xx Timestamp"
	TableSlowRequests  = "Top 100 Total time"
)

// Aggregator folds the full record set into the report's result
// tables. It runs single-threaded over the materialized records:
// ranking and grouping need the total view, and the fold is cheap
// next to the I/O stages that feed it.
type Aggregator struct{}

// NewAggregator creates an aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Analyze produces the full set of result tables in display order.
// abuseSet annotates the client-IP ranking; pass an empty set when the
// reputation fetch failed, which flags nothing.
func (a *Aggregator) Analyze(records []LogRecord, abuseSet AbuseSet) []ResultTable {
	elb2xx := map[AggregationKey]int{}
	elb3xx := map[AggregationKey]int{}
	elb4xx := map[AggregationKey]int{}
	elb5xx := map[AggregationKey]int{}
	backend4xx := map[AggregationKey]int{}
	backend5xx := map[AggregationKey]int{}

	var slowRequests []LogRecord
	clientIPs := newFrequencyCounter()
	userAgents := newFrequencyCounter()
	requestURLs := newFrequencyCounter()

	for i := range records {
		rec := &records[i]

		// ELB-side bucket from the first digit of the ELB status code.
		// The 3xx key additionally carries the redirect URL.
		switch {
		case strings.HasPrefix(rec.ELBStatusCode, "2"):
			elb2xx[keyOf(rec, false)]++
		case strings.HasPrefix(rec.ELBStatusCode, "3"):
			elb3xx[keyOf(rec, true)]++
		case strings.HasPrefix(rec.ELBStatusCode, "4"):
			elb4xx[keyOf(rec, false)]++
		case strings.HasPrefix(rec.ELBStatusCode, "5"):
			elb5xx[keyOf(rec, false)]++
		}

		// Backend-side bucket chosen independently from the backend
		// status code: one record can land in both an ELB bucket and
		// a backend bucket, or in neither.
		switch {
		case strings.HasPrefix(rec.TargetStatusCode, "4"):
			backend4xx[keyOf(rec, false)]++
		case strings.HasPrefix(rec.TargetStatusCode, "5"):
			backend5xx[keyOf(rec, false)]++
		}

		if rec.TotalTime >= slowRequestThreshold {
			slowRequests = append(slowRequests, *rec)
		}

		clientIPs.Add(rec.ClientIP)
		userAgents.Add(rec.UserAgent)
		requestURLs.Add(rec.RequestURL)
	}

	return []ResultTable{
		topClientIPTable(clientIPs.Top(topN), abuseSet),
		topValueTable(TableTopUserAgents, "User Agent", userAgents.Top(topN)),
		topValueTable(TableTopRequestURL, "Request URL", requestURLs.Top(topN)),
		countTable(TableELB2xxCount, elb2xx, false),
		countTable(TableELB3xxCount, elb3xx, true),
		countTable(TableELB4xxCount, elb4xx, false),
		countTable(TableELB5xxCount, elb5xx, false),
		countTable(TableBackend4xx, backend4xx, false),
		countTable(TableBackend5xx, backend5xx, false),
		timestampTable(TableELB4xxTimes, elb4xx),
		timestampTable(TableELB5xxTimes, elb5xx),
		timestampTable(TableBackend4xxTS, backend4xx),
		timestampTable(TableBackend5xxTS, backend5xx),
		slowRequestTable(slowRequests),
	}
}

// frequencyCounter counts occurrences of string values while
// remembering the order each distinct value was first observed, so
// equal frequencies rank in first-observed order.
type frequencyCounter struct {
	counts    map[string]int
	firstSeen map[string]int
}

type frequencyEntry struct {
	Value string
	Count int
}

func newFrequencyCounter() *frequencyCounter {
	return &frequencyCounter{
		counts:    map[string]int{},
		firstSeen: map[string]int{},
	}
}

func (c *frequencyCounter) Add(value string) {
	if _, seen := c.counts[value]; !seen {
		c.firstSeen[value] = len(c.firstSeen)
	}
	c.counts[value]++
}

// Top returns up to n entries sorted by descending count, ties broken
// by first-observed order.
func (c *frequencyCounter) Top(n int) []frequencyEntry {
	entries := make([]frequencyEntry, 0, len(c.counts))
	for value, count := range c.counts {
		entries = append(entries, frequencyEntry{Value: value, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return c.firstSeen[entries[i].Value] < c.firstSeen[entries[j].Value]
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// displayKey is the count-table grouping: the aggregation key with
// the timestamp dropped, summing counts across time.
type displayKey struct {
	ClientIP         string
	RequestURL       string
	RedirectURL      string
	ELBStatusCode    string
	TargetStatusCode string
}

func countTable(name string, counts map[AggregationKey]int, withRedirect bool) ResultTable {
	grouped := map[displayKey]int{}
	for key, count := range counts {
		grouped[displayKey{
			ClientIP:         key.ClientIP,
			RequestURL:       key.RequestURL,
			RedirectURL:      key.RedirectURL,
			ELBStatusCode:    key.ELBStatusCode,
			TargetStatusCode: key.TargetStatusCode,
		}] += count
	}

	keys := make([]displayKey, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if grouped[keys[i]] != grouped[keys[j]] {
			return grouped[keys[i]] > grouped[keys[j]]
		}
		if keys[i].ClientIP != keys[j].ClientIP {
			return keys[i].ClientIP < keys[j].ClientIP
		}
		return keys[i].RequestURL < keys[j].RequestURL
	})

	columns := []string{"Count", "Client IP", "Request", "ELB Status Code", "Backend Status Code"}
	if withRedirect {
		columns = []string{"Count", "Client IP", "Request", "Redirect URL", "ELB Status Code", "Backend Status Code"}
	}

	rows := make([][]any, 0, len(keys))
	for _, key := range keys {
		if withRedirect {
			rows = append(rows, []any{grouped[key], key.ClientIP, key.RequestURL,
				key.RedirectURL, key.ELBStatusCode, key.TargetStatusCode})
		} else {
			rows = append(rows, []any{grouped[key], key.ClientIP, key.RequestURL,
				key.ELBStatusCode, key.TargetStatusCode})
		}
	}

	return ResultTable{Name: name, Columns: columns, Rows: rows}
}

func timestampTable(name string, counts map[AggregationKey]int) ResultTable {
	keys := make([]AggregationKey, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].Timestamp.Equal(keys[j].Timestamp) {
			return keys[i].Timestamp.Before(keys[j].Timestamp)
		}
		if keys[i].ClientIP != keys[j].ClientIP {
			return keys[i].ClientIP < keys[j].ClientIP
		}
		return keys[i].RequestURL < keys[j].RequestURL
	})

	rows := make([][]any, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []any{FormatTimestamp(key.Timestamp), key.ClientIP,
			key.RequestURL, key.ELBStatusCode, key.TargetStatusCode})
	}

	return ResultTable{
		Name:    name,
		Columns: []string{"Timestamp", "Client IP", "Request URL", "ELB Status Code", "Backend Status Code"},
		Rows:    rows,
	}
}

func slowRequestTable(slowRequests []LogRecord) ResultTable {
	sort.Slice(slowRequests, func(i, j int) bool {
		if slowRequests[i].TotalTime != slowRequests[j].TotalTime {
			return slowRequests[i].TotalTime > slowRequests[j].TotalTime
		}
		return slowRequests[i].Timestamp.Before(slowRequests[j].Timestamp)
	})
	if len(slowRequests) > topN {
		slowRequests = slowRequests[:topN]
	}

	rows := make([][]any, 0, len(slowRequests))
	for i := range slowRequests {
		rec := &slowRequests[i]
		rows = append(rows, []any{rec.TotalTime, FormatTimestamp(rec.Timestamp),
			rec.ClientIP, rec.TargetIP, rec.RequestURL})
	}

	return ResultTable{
		Name:    TableSlowRequests,
		Columns: []string{"Total Time", "Timestamp", "Client IP", "Target IP", "Request"},
		Rows:    rows,
	}
}

func topClientIPTable(entries []frequencyEntry, abuseSet AbuseSet) ResultTable {
	rows := make([][]any, 0, len(entries))
	for _, entry := range entries {
		abuse := "No"
		if abuseSet.Contains(entry.Value) {
			abuse = "Yes"
		}
		rows = append(rows, []any{entry.Count, entry.Value, abuse})
	}

	return ResultTable{
		Name:    TableTopClientIPs,
		Columns: []string{"Count", "Client IP", "Abuse"},
		Rows:    rows,
	}
}

func topValueTable(name, valueColumn string, entries []frequencyEntry) ResultTable {
	rows := make([][]any, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []any{entry.Count, entry.Value})
	}

	return ResultTable{
		Name:    name,
		Columns: []string{"Count", valueColumn},
		Rows:    rows,
	}
}
