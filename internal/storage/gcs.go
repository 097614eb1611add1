package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSStore struct {
	client *gcs.Client
}

// NewGCSStore authenticates with the service account key at credentialsPath,
// or with application default credentials when the path is empty.
func NewGCSStore(ctx context.Context, credentialsPath string) (*GCSStore, error) {
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsPath) != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: create gcs client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

func (s *GCSStore) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	reader, err := s.client.Bucket(bucket).Object(strings.TrimLeft(path, "/")).NewReader(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrObjectNotFound, bucket, path)
		}
		return nil, fmt.Errorf("storage: gcs open object: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("storage: gcs read object: %w", err)
	}
	return data, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
