package interfaces

import "context"

// StorageService is the object store behind the accepted/rejected document
// partitions and the run report files
type StorageService interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
