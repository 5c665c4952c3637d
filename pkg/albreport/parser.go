package albreport

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Reject reasons returned by ParseLine. A rejected line produces no
// record at all; there is no partial parse.
var (
	ErrLineFormat      = errors.New("line does not match the access log format")
	ErrRequestFormat   = errors.New("request field is not \"method url version\"")
	ErrTimeField       = errors.New("invalid processing time field")
	ErrNoUserAgent     = errors.New("user agent is the '-' placeholder")
	ErrTimestampFormat = errors.New("invalid timestamp field")
)

// albTimestampLayout is the fixed fractional-seconds UTC format used in
// ALB access logs, e.g. 2024-05-01T09:30:15.123456Z
const albTimestampLayout = "2006-01-02T15:04:05.999999Z"

// linePattern is the full positional ALB access-log grammar: 30
// space-delimited tokens, with quoted subfields for the request, the
// user agent and the optional descriptive fields. A line either
// matches whole or is rejected whole.
var linePattern = regexp.MustCompile(
	`^([^ ]+) ([^ ]+) ([^ ]+) ([^ ]+) ([^ ]+) ([^ ]+) ([^ ]+) ([^ ]+) ([^ ]+) ([^ ]+) ` +
		`([^ ]+) ([^ ]+) "([^"]+)" "([^"]+)" ([^ ]+) ([^ ]+) ([^ ]+) "([^"]*)" "([^"]*)" "([^"]*)" ` +
		`([^ ]+) ([^ ]+) "([^"]*)" "([^"]*)" "([^"]*)" "([^"]*)" "([^"]*)" "([^"]*)" "([^"]*)" ([^ ]+)`)

// Indices of the capture groups in linePattern.
const (
	fieldType = iota + 1
	fieldTimestamp
	fieldELBName
	fieldClientAddr
	fieldTargetAddr
	fieldRequestProcessingTime
	fieldTargetProcessingTime
	fieldResponseProcessingTime
	fieldELBStatusCode
	fieldTargetStatusCode
	fieldReceivedBytes
	fieldSentBytes
	fieldRequest
	fieldUserAgent
	fieldSSLCipher
	fieldSSLProtocol
	fieldTargetGroupARN
	fieldTraceID
	fieldDomainName
	fieldChosenCertARN
	fieldMatchedRulePriority
	fieldRequestCreationTime
	fieldActionsExecuted
	fieldRedirectURL
	fieldErrorReason
	fieldTargetPortList
	fieldTargetStatusCodeList
	fieldClassification
	fieldClassificationReason
	fieldConnTraceID
)

var requestPattern = regexp.MustCompile(`^(\S+)\s+(\S+)\s+(\S+)$`)

// Parser turns access-log lines into LogRecords. It owns the target
// timezone that timestamps are converted into.
type Parser struct {
	location *time.Location
}

// NewParser creates a parser converting timestamps into the given location.
func NewParser(location *time.Location) *Parser {
	if location == nil {
		location = time.UTC
	}
	return &Parser{location: location}
}

// ParseLine parses one access-log line into a LogRecord, or returns
// one of the reject reasons. The returned record's timestamp is
// converted into the parser's location and then stripped of its zone:
// the wall-clock value is what consumers see, the implied zone is
// tracked out of band.
func (p *Parser) ParseLine(line string) (LogRecord, error) {
	match := linePattern.FindStringSubmatch(strings.TrimRight(line, "\n"))
	if match == nil {
		return LogRecord{}, ErrLineFormat
	}

	requestMatch := requestPattern.FindStringSubmatch(match[fieldRequest])
	if requestMatch == nil {
		return LogRecord{}, fmt.Errorf("%w: %q", ErrRequestFormat, match[fieldRequest])
	}
	url := requestMatch[2]

	requestTime, err := parseTimeField(match[fieldRequestProcessingTime])
	if err != nil {
		return LogRecord{}, err
	}
	targetTime, err := parseTimeField(match[fieldTargetProcessingTime])
	if err != nil {
		return LogRecord{}, err
	}
	responseTime, err := parseTimeField(match[fieldResponseProcessingTime])
	if err != nil {
		return LogRecord{}, err
	}

	if match[fieldUserAgent] == "-" {
		return LogRecord{}, ErrNoUserAgent
	}

	timestamp, err := p.parseTimestamp(match[fieldTimestamp])
	if err != nil {
		return LogRecord{}, err
	}

	return LogRecord{
		Timestamp:              timestamp,
		ClientIP:               hostPart(match[fieldClientAddr]),
		TargetIP:               targetHost(match[fieldTargetAddr]),
		RequestProcessingTime:  requestTime,
		TargetProcessingTime:   targetTime,
		ResponseProcessingTime: responseTime,
		TotalTime:              requestTime + targetTime + responseTime,
		ELBStatusCode:          match[fieldELBStatusCode],
		TargetStatusCode:       match[fieldTargetStatusCode],
		ReceivedBytes:          match[fieldReceivedBytes],
		SentBytes:              match[fieldSentBytes],
		RequestURL:             url,
		UserAgent:              match[fieldUserAgent],
		SSLCipher:              match[fieldSSLCipher],
		SSLProtocol:            match[fieldSSLProtocol],
		TargetGroupARN:         match[fieldTargetGroupARN],
		TraceID:                match[fieldTraceID],
		DomainName:             match[fieldDomainName],
		ChosenCertARN:          match[fieldChosenCertARN],
		MatchedRulePriority:    match[fieldMatchedRulePriority],
		RequestCreationTime:    match[fieldRequestCreationTime],
		ActionsExecuted:        match[fieldActionsExecuted],
		RedirectURL:            match[fieldRedirectURL],
		ErrorReason:            match[fieldErrorReason],
		TargetPortList:         match[fieldTargetPortList],
		TargetStatusCodeList:   match[fieldTargetStatusCodeList],
		Classification:         match[fieldClassification],
		ClassificationReason:   match[fieldClassificationReason],
		ConnectionTraceID:      match[fieldConnTraceID],
	}, nil
}

// parseTimeField parses a processing time token. The load balancer
// writes '-' when a duration does not apply (for example when the
// request never reached a target); that maps to 0. Any other
// non-numeric token rejects the line.
func parseTimeField(token string) (float64, error) {
	if token == "-" {
		return 0, nil
	}
	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrTimeField, token)
	}
	return value, nil
}

// parseTimestamp parses the UTC log timestamp, converts it to the
// report timezone, then rebuilds the wall-clock value without a zone.
func (p *Parser) parseTimestamp(token string) (time.Time, error) {
	utc, err := time.Parse(albTimestampLayout, token)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrTimestampFormat, token)
	}
	local := utc.In(p.location)
	return time.Date(local.Year(), local.Month(), local.Day(),
		local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), time.UTC), nil
}

// hostPart strips the port from an address token.
func hostPart(addr string) string {
	if idx := strings.IndexByte(addr, ':'); idx >= 0 {
		return addr[:idx]
	}
	return addr
}

// targetHost is hostPart with the '-' placeholder mapped to absent.
func targetHost(addr string) string {
	if addr == "-" {
		return ""
	}
	return hostPart(addr)
}

// FormatTimestamp renders a zone-naive record timestamp the way the
// report displays it.
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000000")
}
