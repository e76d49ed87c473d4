// Package s3 implementa archive.BlobStore sobre S3 o un servicio compatible (MinIO).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cristiano-superacao/prescrimed-sub000/internal/application/archive"
)

var _ archive.BlobStore = (*Store)(nil)

// Config parámetros del bucket. Sin credenciales explícitas se usa la cadena por defecto de AWS.
type Config struct {
	Region    string
	Bucket    string
	Endpoint  string // opcional, ej. MinIO
	PathStyle bool
}

// Store un bucket; las claves se usan tal cual como claves de objeto.
type Store struct {
	client *s3.Client
	bucket string
}

// New construye el cliente S3.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket s3 requerido")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// Put sube el objeto. Emula "solo crear" consultando HeadObject antes.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, contentType string) (archive.BlobInfo, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err == nil {
		return archive.BlobInfo{}, fmt.Errorf("el objeto %s ya existe", key)
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return archive.BlobInfo{}, err
	}
	input := &s3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return archive.BlobInfo{}, err
	}
	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return archive.BlobInfo{}, err
	}
	return archive.BlobInfo{
		Key:          key,
		Size:         aws.ToInt64(head.ContentLength),
		ContentType:  aws.ToString(head.ContentType),
		ETag:         aws.ToString(head.ETag),
		LastModified: aws.ToTime(head.LastModified),
	}, nil
}

// Get descarga el objeto; el llamador debe cerrar el cuerpo.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// List pagina ListObjectsV2 hasta agotar el prefijo.
func (s *Store) List(ctx context.Context, prefix string) ([]archive.BlobInfo, error) {
	infos := []archive.BlobInfo{}
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix})
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range out.Contents {
			infos = append(infos, archive.BlobInfo{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				ETag:         aws.ToString(obj.ETag),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
