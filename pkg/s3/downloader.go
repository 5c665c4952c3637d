package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectInfo describes one listed object
type ObjectInfo struct {
	LastModified time.Time
	Key          string
}

// ListObjects lists all objects under the given prefix, exhausting
// pagination, and returns their keys with last-modified metadata.
func (c *Client) ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(c.s3Client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: bucket=%s, prefix=%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil {
				continue
			}
			objects = append(objects, ObjectInfo{
				Key:          *obj.Key,
				LastModified: *obj.LastModified,
			})
		}
	}

	return objects, nil
}

// DownloadToFile downloads a single object to the given local path.
// Retries are handled by the SDK client based on its retry configuration.
func (c *Client) DownloadToFile(ctx context.Context, bucket, key, localPath string) error {
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get object: bucket=%s, key=%s: %w", bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}

	if _, err := io.Copy(file, out.Body); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write object to %s: %w", localPath, err)
	}

	return file.Close()
}
