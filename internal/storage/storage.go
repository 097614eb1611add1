package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"tryon/internal/infra"
)

// ErrObjectNotFound is returned when the bucket has no object at the path.
var ErrObjectNotFound = errors.New("storage: object not found")

// Downloader fetches raw object bytes from a named bucket.
type Downloader interface {
	Download(ctx context.Context, bucket, path string) ([]byte, error)
}

// New builds the Downloader selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (Downloader, error) {
	switch cfg.StorageDriver {
	case infra.StorageDriverS3:
		logger.Info().Str("endpoint", cfg.S3Endpoint).Msg("storage: using s3-compatible store")
		return NewS3Store(ctx, S3Options{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
	case infra.StorageDriverGCS:
		logger.Info().Msg("storage: using google cloud storage")
		return NewGCSStore(ctx, cfg.GCSCredentials)
	case infra.StorageDriverFile:
		logger.Info().Str("path", cfg.StoragePath).Msg("storage: using local filesystem")
		return NewFileStore(cfg.StoragePath)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}
