package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"JobMatch-backend/internal/config"
)

// ObjectStore is the blob backend used when resumes are kept outside the
// database.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, data io.Reader) error
	DownloadFile(ctx context.Context, objectName string) (io.ReadCloser, int64, error)
	DeleteFile(ctx context.Context, objectName string) error
}

// CloudStorageClient stores objects in a Google Cloud Storage bucket.
type CloudStorageClient struct {
	BucketName string
	Client     *gcs.Client
}

// NewCloudStorageClient creates a GCS client for cfg.Bucket. Credentials come
// from CredentialsJSON, then CredentialsFile, then the application default.
func NewCloudStorageClient(ctx context.Context, cfg config.Storage) (*CloudStorageClient, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is not configured")
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		creds, err := google.CredentialsFromJSON(ctx, []byte(cfg.CredentialsJSON), gcs.ScopeReadWrite)
		if err != nil {
			return nil, fmt.Errorf("failed to parse storage credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud storage client: %w", err)
	}
	return &CloudStorageClient{BucketName: cfg.Bucket, Client: client}, nil
}

// UploadFile writes data to objectName.
func (c *CloudStorageClient) UploadFile(ctx context.Context, objectName string, data io.Reader) error {
	wc := c.Client.Bucket(c.BucketName).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(wc, data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write data to object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close object writer: %w", err)
	}
	return nil
}

// DownloadFile opens objectName for reading. The caller closes the reader.
func (c *CloudStorageClient) DownloadFile(ctx context.Context, objectName string) (io.ReadCloser, int64, error) {
	rc, err := c.Client.Bucket(c.BucketName).Object(objectName).NewReader(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open object %s: %w", objectName, err)
	}
	return rc, rc.Attrs.Size, nil
}

// DeleteFile removes objectName. A missing object is not an error.
func (c *CloudStorageClient) DeleteFile(ctx context.Context, objectName string) error {
	err := c.Client.Bucket(c.BucketName).Object(objectName).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client.
func (c *CloudStorageClient) Close() error {
	return c.Client.Close()
}
