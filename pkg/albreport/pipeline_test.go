package albreport_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xuri/excelize/v2"

	"github.com/f-lab-edu/alb-log-reporter/pkg/albreport"
	"github.com/f-lab-edu/alb-log-reporter/pkg/s3"
)

// fakeStore is an in-memory ObjectStore for tests.
type fakeStore struct {
	objects  []s3.ObjectInfo
	content  map[string][]byte
	failKeys map[string]bool
	listErr  error
}

func (f *fakeStore) ListObjects(_ context.Context, _, _ string) ([]s3.ObjectInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.objects, nil
}

func (f *fakeStore) DownloadToFile(_ context.Context, _, key, localPath string) error {
	if f.failKeys[key] {
		return errors.New("access denied")
	}
	content, ok := f.content[key]
	if !ok {
		return fmt.Errorf("no such key: %s", key)
	}
	return os.WriteFile(localPath, content, 0o644)
}

func gzipBytes(lines ...string) []byte {
	var buf bytes.Buffer
	gzWriter := gzip.NewWriter(&buf)
	for _, line := range lines {
		_, _ = gzWriter.Write([]byte(line + "\n"))
	}
	_ = gzWriter.Close()
	return buf.Bytes()
}

var _ = Describe("Pipeline", func() {
	var (
		store   *fakeStore
		tempDir string
		cfg     albreport.Config
	)

	newPipeline := func() *albreport.Pipeline {
		pipeline, err := albreport.NewPipeline(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		return pipeline
	}

	reportFiles := func() []string {
		var paths []string
		_ = filepath.Walk(filepath.Join(tempDir, "output"),
			func(path string, info os.FileInfo, err error) error {
				if err == nil && info != nil && !info.IsDir() {
					paths = append(paths, path)
				}
				return nil
			})
		return paths
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "pipeline-test-*")
		Expect(err).NotTo(HaveOccurred())

		now := time.Now().UTC()
		store = &fakeStore{
			objects: []s3.ObjectInfo{
				{Key: "alb/log-1.gz", LastModified: now.Add(-time.Hour)},
				{Key: "alb/log-2.gz", LastModified: now.Add(-30 * time.Minute)},
			},
			content: map[string][]byte{
				"alb/log-1.gz": gzipBytes(sampleLine),
				"alb/log-2.gz": gzipBytes(sampleLine),
			},
			failKeys: map[string]bool{},
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		cfg = albreport.Config{
			Logger:       logger,
			BucketURI:    "s3://test-bucket/alb",
			Start:        now.Add(-2 * time.Hour).Format("2006-01-02 15:04"),
			End:          now.Add(time.Hour).Format("2006-01-02 15:04"),
			Timezone:     "UTC",
			NumWorkers:   4,
			StagingDir:   filepath.Join(tempDir, "staging"),
			OutputDir:    filepath.Join(tempDir, "output"),
			AbuseListURL: "http://127.0.0.1:1/unreachable",
			AbuseTimeout: time.Second,
			Store:        store,
			Metrics:      albreport.NewMetricsWithRegistry(prometheus.NewRegistry()),
		}
	})

	AfterEach(func() {
		Expect(os.RemoveAll(tempDir)).To(Succeed())
	})

	Describe("Run", func() {
		It("should produce a report workbook from staged logs", func() {
			Expect(newPipeline().Run(context.Background())).To(Succeed())

			paths := reportFiles()
			Expect(paths).To(HaveLen(1))
			Expect(filepath.Base(paths[0])).To(Equal("alb_report.xlsx"))

			workbook, err := excelize.OpenFile(paths[0])
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = workbook.Close() }()

			rows, err := workbook.GetRows(albreport.TableELB2xxCount)
			Expect(err).NotTo(HaveOccurred())
			// two identical records grouped into one row of count 2
			Expect(rows).To(HaveLen(2))
			Expect(rows[1][0]).To(Equal("2"))
		})

		It("should clean up staging directories on success", func() {
			Expect(newPipeline().Run(context.Background())).To(Succeed())

			Expect(filepath.Join(tempDir, "staging", "log")).NotTo(BeADirectory())
			Expect(filepath.Join(tempDir, "staging", "parsed")).NotTo(BeADirectory())
		})

		It("should terminate cleanly with no report when the selection is empty", func() {
			store.objects = nil

			Expect(newPipeline().Run(context.Background())).To(Succeed())
			Expect(reportFiles()).To(BeEmpty())
		})

		It("should continue past per-object download failures", func() {
			store.failKeys["alb/log-1.gz"] = true

			Expect(newPipeline().Run(context.Background())).To(Succeed())

			paths := reportFiles()
			Expect(paths).To(HaveLen(1))

			workbook, err := excelize.OpenFile(paths[0])
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = workbook.Close() }()

			rows, err := workbook.GetRows(albreport.TableELB2xxCount)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows[1][0]).To(Equal("1"))
		})

		It("should skip the report when every line is rejected", func() {
			store.content["alb/log-1.gz"] = gzipBytes("garbage line")
			store.content["alb/log-2.gz"] = gzipBytes("more garbage")

			Expect(newPipeline().Run(context.Background())).To(Succeed())
			Expect(reportFiles()).To(BeEmpty())
		})

		It("should skip corrupt gzip files but process the rest", func() {
			store.content["alb/log-2.gz"] = []byte("not gzip at all")

			Expect(newPipeline().Run(context.Background())).To(Succeed())
			Expect(reportFiles()).To(HaveLen(1))
		})

		It("should surface listing failures", func() {
			store.listErr = errors.New("permission denied")

			err := newPipeline().Run(context.Background())
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to list"))
		})
	})

	Describe("NewPipeline", func() {
		It("should reject a malformed bucket URI", func() {
			cfg.BucketURI = "test-bucket/alb"

			_, err := albreport.NewPipeline(context.Background(), cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("s3://bucket/prefix"))
		})

		It("should reject a malformed start time", func() {
			cfg.Start = "yesterday"

			_, err := albreport.NewPipeline(context.Background(), cfg)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid start time"))
		})
	})
})
