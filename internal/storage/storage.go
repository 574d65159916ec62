// Package storage provides S3-compatible object storage for property media,
// organization assets and archived call recordings.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL is a short-lived URL for a direct client upload or download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Service is the object storage interface used by the properties and
// telephony modules.
type Service interface {
	// GenerateUploadURL creates a presigned PUT URL. folder is the key
	// prefix, e.g. "{org}/{property}".
	GenerateUploadURL(ctx context.Context, bucket, folder, fileName, contentType string, sizeBytes int64) (*PresignedURL, error)

	// GenerateDownloadURL creates a presigned GET URL.
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	// UploadFile stores an object directly and returns its file key.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// DeleteObject removes an object.
	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// EnsureBucketExists creates the bucket if missing. Called at startup
	// for each configured bucket.
	EnsureBucketExists(ctx context.Context, bucket string) error

	ValidateContentType(contentType string) error
	ValidateFileSize(sizeBytes int64) error
}

// Config is the configuration slice storage needs.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	IsMinIOEnabled() bool
}
