package albreport

import "time"

// LogRecord is one parsed ALB access-log line.
//
// A LogRecord only exists for lines that matched the full grammar: the
// parser never materializes a partial record. Timestamp is already
// converted to the report timezone and is treated as zone-naive from
// here on (formatting never emits an offset).
type LogRecord struct {
	Timestamp time.Time

	ClientIP string
	// TargetIP is empty when the load balancer never reached a backend
	TargetIP string

	RequestProcessingTime  float64
	TargetProcessingTime   float64
	ResponseProcessingTime float64
	// TotalTime is the sum of the three processing time components
	TotalTime float64

	ELBStatusCode    string
	TargetStatusCode string

	RequestURL string
	UserAgent  string

	ReceivedBytes string
	SentBytes     string

	// Pass-through descriptive fields, kept verbatim from the line
	SSLCipher            string
	SSLProtocol          string
	TargetGroupARN       string
	TraceID              string
	DomainName           string
	ChosenCertARN        string
	MatchedRulePriority  string
	RequestCreationTime  string
	ActionsExecuted      string
	RedirectURL          string
	ErrorReason          string
	TargetPortList       string
	TargetStatusCodeList string
	Classification       string
	ClassificationReason string
	ConnectionTraceID    string
}

// AggregationKey is the grouping key for the status-family counters.
// Two records fall in the same bucket iff every field of the key is
// equal. RedirectURL participates only in the ELB 3xx bucket; it is
// left empty for every other bucket so equality stays well defined.
type AggregationKey struct {
	Timestamp        time.Time
	ClientIP         string
	TargetIP         string
	RequestURL       string
	RedirectURL      string
	ELBStatusCode    string
	TargetStatusCode string
}

// keyOf builds the aggregation key for a record. withRedirect is set
// for the ELB 3xx bucket only.
func keyOf(rec *LogRecord, withRedirect bool) AggregationKey {
	key := AggregationKey{
		Timestamp:        rec.Timestamp,
		ClientIP:         rec.ClientIP,
		TargetIP:         rec.TargetIP,
		RequestURL:       rec.RequestURL,
		ELBStatusCode:    rec.ELBStatusCode,
		TargetStatusCode: rec.TargetStatusCode,
	}
	if withRedirect {
		key.RedirectURL = rec.RedirectURL
	}
	return key
}
