package albreport_test

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f-lab-edu/alb-log-reporter/pkg/albreport"
)

const sampleLine = `https 2024-05-12T10:30:45.123456Z app/my-alb/50dc6c495c0c9188 ` +
	`203.0.113.10:54321 10.0.1.15:80 0.001 0.048 0.002 200 200 345 1024 ` +
	`"GET https://example.com:443/api/items?id=7 HTTP/2.0" "Mozilla/5.0" ` +
	`ECDHE-RSA-AES128-GCM-SHA256 TLSv1.2 ` +
	`arn:aws:elasticloadbalancing:ap-northeast-2:123456789012:targetgroup/my-targets/73e2d6bc24d8a067 ` +
	`"Root=1-58337281-1d84f3d73c47ec4e58577259" "example.com" ` +
	`"arn:aws:acm:ap-northeast-2:123456789012:certificate/12345678" 0 ` +
	`2024-05-12T10:30:45.100000Z "forward" "-" "-" "10.0.1.15:80" "200" "-" "-" ` +
	`TID_1234567890abcdef`

var _ = Describe("Parser", func() {
	var parser *albreport.Parser

	BeforeEach(func() {
		parser = albreport.NewParser(time.UTC)
	})

	Describe("ParseLine", func() {
		It("should parse every field of a valid line", func() {
			record, err := parser.ParseLine(sampleLine)
			Expect(err).NotTo(HaveOccurred())

			Expect(record.Timestamp).To(Equal(time.Date(2024, 5, 12, 10, 30, 45, 123456000, time.UTC)))
			Expect(record.ClientIP).To(Equal("203.0.113.10"))
			Expect(record.TargetIP).To(Equal("10.0.1.15"))
			Expect(record.RequestProcessingTime).To(Equal(0.001))
			Expect(record.TargetProcessingTime).To(Equal(0.048))
			Expect(record.ResponseProcessingTime).To(Equal(0.002))
			Expect(record.TotalTime).To(BeNumerically("~", 0.051, 1e-9))
			Expect(record.ELBStatusCode).To(Equal("200"))
			Expect(record.TargetStatusCode).To(Equal("200"))
			Expect(record.ReceivedBytes).To(Equal("345"))
			Expect(record.SentBytes).To(Equal("1024"))
			Expect(record.RequestURL).To(Equal("https://example.com:443/api/items?id=7"))
			Expect(record.UserAgent).To(Equal("Mozilla/5.0"))
			Expect(record.SSLCipher).To(Equal("ECDHE-RSA-AES128-GCM-SHA256"))
			Expect(record.SSLProtocol).To(Equal("TLSv1.2"))
			Expect(record.TargetGroupARN).To(ContainSubstring("targetgroup/my-targets"))
			Expect(record.TraceID).To(Equal("Root=1-58337281-1d84f3d73c47ec4e58577259"))
			Expect(record.DomainName).To(Equal("example.com"))
			Expect(record.ChosenCertARN).To(ContainSubstring("certificate/12345678"))
			Expect(record.MatchedRulePriority).To(Equal("0"))
			Expect(record.RequestCreationTime).To(Equal("2024-05-12T10:30:45.100000Z"))
			Expect(record.ActionsExecuted).To(Equal("forward"))
			Expect(record.RedirectURL).To(Equal("-"))
			Expect(record.ErrorReason).To(Equal("-"))
			Expect(record.TargetPortList).To(Equal("10.0.1.15:80"))
			Expect(record.TargetStatusCodeList).To(Equal("200"))
			Expect(record.Classification).To(Equal("-"))
			Expect(record.ClassificationReason).To(Equal("-"))
			Expect(record.ConnectionTraceID).To(Equal("TID_1234567890abcdef"))
		})

		It("should convert the timestamp to the configured timezone and strip the zone", func() {
			kst := time.FixedZone("KST", 9*3600)
			parser = albreport.NewParser(kst)

			record, err := parser.ParseLine(sampleLine)
			Expect(err).NotTo(HaveOccurred())

			// 10:30:45 UTC is 19:30:45 KST; the stored value keeps the
			// wall clock only
			Expect(record.Timestamp).To(Equal(time.Date(2024, 5, 12, 19, 30, 45, 123456000, time.UTC)))
			Expect(albreport.FormatTimestamp(record.Timestamp)).To(Equal("2024-05-12 19:30:45.123456"))
		})

		It("should map '-' duration sentinels to zero", func() {
			line := replaceOnce(sampleLine, "0.001 0.048 0.002", "- - -")

			record, err := parser.ParseLine(line)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.RequestProcessingTime).To(BeZero())
			Expect(record.TargetProcessingTime).To(BeZero())
			Expect(record.ResponseProcessingTime).To(BeZero())
			Expect(record.TotalTime).To(BeZero())
		})

		It("should reject a non-numeric duration that is not the sentinel", func() {
			line := replaceOnce(sampleLine, "0.001 0.048 0.002", "abc 0.048 0.002")

			_, err := parser.ParseLine(line)
			Expect(err).To(MatchError(albreport.ErrTimeField))
		})

		It("should reject a line with a placeholder user agent", func() {
			line := replaceOnce(sampleLine, `"Mozilla/5.0"`, `"-"`)

			_, err := parser.ParseLine(line)
			Expect(err).To(MatchError(albreport.ErrNoUserAgent))
		})

		It("should reject a line that does not match the grammar", func() {
			_, err := parser.ParseLine("not an access log line")
			Expect(err).To(MatchError(albreport.ErrLineFormat))
		})

		It("should reject a line whose request field is malformed", func() {
			line := replaceOnce(sampleLine,
				`"GET https://example.com:443/api/items?id=7 HTTP/2.0"`, `"badrequest"`)

			_, err := parser.ParseLine(line)
			Expect(err).To(MatchError(albreport.ErrRequestFormat))
		})

		It("should map a '-' target address to absent", func() {
			line := replaceOnce(sampleLine, "10.0.1.15:80 0.001", "- 0.001")

			record, err := parser.ParseLine(line)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.TargetIP).To(BeEmpty())
		})

		It("should strip the port from the client address", func() {
			record, err := parser.ParseLine(sampleLine)
			Expect(err).NotTo(HaveOccurred())
			Expect(record.ClientIP).To(Equal("203.0.113.10"))
		})
	})
})

// replaceOnce replaces the first occurrence of old in s.
func replaceOnce(s, old, replacement string) string {
	return strings.Replace(s, old, replacement, 1)
}
