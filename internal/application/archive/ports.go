package archive

import (
	"context"
	"io"
	"time"
)

// BlobInfo describe un objeto guardado.
type BlobInfo struct {
	Key          string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

// BlobStore almacén de objetos (sistema de archivos o S3). Put falla si la clave ya existe.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (BlobInfo, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}
