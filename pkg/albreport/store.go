package albreport

import (
	"context"

	"github.com/f-lab-edu/alb-log-reporter/pkg/s3"
)

// ObjectStore is the slice of object-store behavior the pipeline
// needs: paginated listing with last-modified metadata, and download
// by key. *s3.Client satisfies it; tests substitute fakes.
type ObjectStore interface {
	ListObjects(ctx context.Context, bucket, prefix string) ([]s3.ObjectInfo, error)
	DownloadToFile(ctx context.Context, bucket, key, localPath string) error
}
