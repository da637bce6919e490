package storage

import "context"

// ObjectStorage captures the minimal S3-compatible operations the artifact
// writer needs.
type ObjectStorage interface {
	UploadFile(ctx context.Context, key string, path string) error
}
