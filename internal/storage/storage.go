// Package storage keeps uploaded videos on local disk and archives finished
// summaries to S3.
package storage

import (
	"context"
	"io"
)

// Storage is the file storage used by the HTTP layer and the job service.
type Storage interface {
	// SaveUpload writes an uploaded video into the uploads directory as
	// <name>-<unix millis><ext> and returns its path.
	SaveUpload(ctx context.Context, originalName string, data io.Reader) (path string, err error)

	// Remove deletes stored files, continuing past failures.
	Remove(ctx context.Context, paths []string) error

	// UploadToS3 uploads data to S3 and returns the object URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	UploadToS3(ctx context.Context, key string, data io.Reader) (url string, err error)
}
