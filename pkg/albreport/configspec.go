package albreport

import "github.com/f-lab-edu/alb-log-reporter/pkg/util"

// ConfigSpec defines all configuration items for alb-log-reporter
//
//nolint:gochecknoglobals // global config spec is intentional
var ConfigSpec = util.ConfigSpec{
	// Source bucket
	"source.bucket-uri": util.ConfigVarSpec{
		Help:         "S3 URI of the ALB logs, e.g. s3://my-bucket/AWSLogs/123456789012/elasticloadbalancing/ap-northeast-2/",
		DefaultValue: "",
		EnvVar:       "ALB_REPORTER_BUCKET_URI",
	},
	"source.start": util.ConfigVarSpec{
		Help:         "Start datetime of the analysis window (YYYY-MM-DD HH:MM)",
		DefaultValue: "",
		EnvVar:       "ALB_REPORTER_START",
	},
	"source.end": util.ConfigVarSpec{
		Help:         "End datetime of the analysis window (YYYY-MM-DD HH:MM, default: now)",
		DefaultValue: "",
		EnvVar:       "ALB_REPORTER_END",
	},
	"source.timezone": util.ConfigVarSpec{
		Help:         "Timezone for log timestamps (IANA name)",
		DefaultValue: "UTC",
		EnvVar:       "ALB_REPORTER_TIMEZONE",
	},

	// S3 connection
	"s3.endpoint": util.ConfigVarSpec{
		Help:         "Custom S3 endpoint (empty for AWS)",
		DefaultValue: "",
		EnvVar:       "ALB_REPORTER_S3_ENDPOINT",
	},
	"s3.region": util.ConfigVarSpec{
		Help:         "AWS region of the source bucket",
		DefaultValue: "",
		EnvVar:       "AWS_REGION",
	},
	"s3.access-key-id": util.ConfigVarSpec{
		Help:         "S3 access key ID (empty to use the default credential chain)",
		DefaultValue: "",
		EnvVar:       "AWS_ACCESS_KEY_ID",
	},
	"s3.secret-access-key": util.ConfigVarSpec{
		Help:         "S3 secret access key (empty to use the default credential chain)",
		DefaultValue: "",
		EnvVar:       "AWS_SECRET_ACCESS_KEY",
	},

	// Pipeline
	"pipeline.num-workers": util.ConfigVarSpec{
		Help:         "Number of parallel workers per I/O stage",
		DefaultValue: 10,
		EnvVar:       "ALB_REPORTER_NUM_WORKERS",
	},
	"pipeline.staging-dir": util.ConfigVarSpec{
		Help:         "Directory for intermediate compressed and extracted log files",
		DefaultValue: "./data",
		EnvVar:       "ALB_REPORTER_STAGING_DIR",
	},
	"pipeline.output-dir": util.ConfigVarSpec{
		Help:         "Directory where reports are written",
		DefaultValue: "./data/output",
		EnvVar:       "ALB_REPORTER_OUTPUT_DIR",
	},

	// Reputation list
	"abuse.list-url": util.ConfigVarSpec{
		Help:         "URL of the newline-delimited abuse IP list",
		DefaultValue: "https://raw.githubusercontent.com/borestad/blocklist-abuseipdb/main/abuseipdb-s100-30d.ipv4",
		EnvVar:       "ALB_REPORTER_ABUSE_LIST_URL",
	},
	"abuse.timeout-seconds": util.ConfigVarSpec{
		Help:         "Timeout for the abuse IP list fetch",
		DefaultValue: 30,
		EnvVar:       "ALB_REPORTER_ABUSE_TIMEOUT_SECONDS",
	},

	// Metrics server
	"metrics-server.enabled": util.ConfigVarSpec{
		Help:         "Expose Prometheus metrics over HTTP during the run",
		DefaultValue: false,
		EnvVar:       "ALB_REPORTER_METRICS_ENABLED",
	},
	"metrics-server.listen-address": util.ConfigVarSpec{
		Help:         "Metrics server listen address",
		DefaultValue: "127.0.0.1",
		EnvVar:       "ALB_REPORTER_METRICS_LISTEN_ADDRESS",
	},
	"metrics-server.listen-port": util.ConfigVarSpec{
		Help:         "Metrics server listen port",
		DefaultValue: 9311,
		EnvVar:       "ALB_REPORTER_METRICS_LISTEN_PORT",
	},

	// General
	"log-level": util.ConfigVarSpec{
		Help:         "Log level (error|warn|info|debug)",
		DefaultValue: "info",
		EnvVar:       "ALB_REPORTER_LOG_LEVEL",
	},
}
