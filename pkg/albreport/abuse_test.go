package albreport_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/f-lab-edu/alb-log-reporter/pkg/albreport"
)

var _ = Describe("AbuseFetcher", func() {
	var logger *slog.Logger

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	})

	Describe("Fetch", func() {
		It("should parse a newline-delimited IP list", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte("203.0.113.1\n203.0.113.2\n\n203.0.113.3\n"))
			}))
			defer server.Close()

			fetcher := albreport.NewAbuseFetcher(server.URL, time.Second, logger)
			set := fetcher.Fetch(context.Background())

			Expect(set).To(HaveLen(3))
			Expect(set.Contains("203.0.113.2")).To(BeTrue())
			Expect(set.Contains("198.51.100.1")).To(BeFalse())
		})

		It("should degrade to an empty set on HTTP errors", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			}))
			defer server.Close()

			fetcher := albreport.NewAbuseFetcher(server.URL, time.Second, logger)
			Expect(fetcher.Fetch(context.Background())).To(BeEmpty())
		})

		It("should degrade to an empty set when the host is unreachable", func() {
			fetcher := albreport.NewAbuseFetcher("http://127.0.0.1:1/list", time.Second, logger)
			Expect(fetcher.Fetch(context.Background())).To(BeEmpty())
		})
	})
})
