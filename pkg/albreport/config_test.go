package albreport_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/f-lab-edu/alb-log-reporter/pkg/albreport"
)

var _ = Describe("Configuration", Ordered, func() {
	AfterEach(func() {
		albreport.ConfigSpec.Reset()
		pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
		_ = os.Unsetenv("ALB_REPORTER_LOG_LEVEL")
	})

	Describe("ParseBucketURI", func() {
		It("should split a bucket URI into bucket and prefix", func() {
			bucket, prefix, err := albreport.ParseBucketURI("s3://my-bucket/AWSLogs/123/elb/")
			Expect(err).NotTo(HaveOccurred())
			Expect(bucket).To(Equal("my-bucket"))
			Expect(prefix).To(Equal("AWSLogs/123/elb"))
		})

		It("should accept a bucket without a prefix", func() {
			bucket, prefix, err := albreport.ParseBucketURI("s3://my-bucket")
			Expect(err).NotTo(HaveOccurred())
			Expect(bucket).To(Equal("my-bucket"))
			Expect(prefix).To(BeEmpty())
		})

		It("should reject a URI without the s3 scheme", func() {
			_, _, err := albreport.ParseBucketURI("my-bucket/prefix")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidateConfig", func() {
		loadValid := func() {
			Expect(albreport.ConfigSpec.LoadConfiguration("")).To(Succeed())
			albreport.ConfigSpec.Set("source.bucket-uri", "s3://my-bucket/alb")
			albreport.ConfigSpec.Set("source.start", "2024-05-12 09:00")
		}

		It("should accept a valid configuration", func() {
			loadValid()
			Expect(albreport.ValidateConfig()).To(Succeed())
		})

		It("should require a bucket URI", func() {
			Expect(albreport.ConfigSpec.LoadConfiguration("")).To(Succeed())
			albreport.ConfigSpec.Set("source.start", "2024-05-12 09:00")

			err := albreport.ValidateConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("s3://bucket/prefix"))
		})

		It("should require a start time", func() {
			Expect(albreport.ConfigSpec.LoadConfiguration("")).To(Succeed())
			albreport.ConfigSpec.Set("source.bucket-uri", "s3://my-bucket/alb")

			err := albreport.ValidateConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("source.start is required"))
		})

		It("should reject a malformed end time", func() {
			loadValid()
			albreport.ConfigSpec.Set("source.end", "tomorrow")

			err := albreport.ValidateConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid source.end"))
		})

		It("should reject an unknown timezone", func() {
			loadValid()
			albreport.ConfigSpec.Set("source.timezone", "Mars/Olympus")

			err := albreport.ValidateConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid source.timezone"))
		})

		It("should reject a non-positive worker count", func() {
			loadValid()
			albreport.ConfigSpec.Set("pipeline.num-workers", 0)

			err := albreport.ValidateConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("num-workers must be positive"))
		})

		It("should reject an invalid log level", func() {
			loadValid()
			albreport.ConfigSpec.Set("log-level", "verbose")

			err := albreport.ValidateConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid log-level"))
		})

		It("should load the log level from the environment", func() {
			Expect(os.Setenv("ALB_REPORTER_LOG_LEVEL", "debug")).To(Succeed())
			Expect(albreport.ConfigSpec.LoadConfiguration("")).To(Succeed())
			Expect(albreport.ConfigSpec.GetString("log-level")).To(Equal("debug"))
		})
	})
})
