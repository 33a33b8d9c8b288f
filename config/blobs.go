package config

import (
	"context"

	"civicsync/services"
	"civicsync/storage"
)

// NewBlobStore builds the blob store named by BLOB_DRIVER.
func NewBlobStore(ctx context.Context, cfg *Config) (services.BlobStore, error) {
	if cfg.BlobDriver == "gcs" {
		return storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	}
	return storage.NewLocalStore(cfg.LocalBlobDir, cfg.PublicBaseURL)
}
