// Package minio wraps the object store behind the handful of operations the
// jobs consume.  Buckets are long-lived and provisioned outside this system;
// the client never creates them.
package minio

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

// MinIOAPI is the slice of the minio-go client the store uses, extracted so
// tests can substitute a fake.
type MinIOAPI interface {
	ListBuckets(ctx context.Context) ([]minio.BucketInfo, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	FGetObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.GetObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Store is the object-store handle shared by all jobs in a process.
type Store struct {
	client MinIOAPI
	log    logging.Logger
}

// NewStore connects to the endpoint and verifies the connection with a
// bucket listing.
func NewStore(cfg config.StoreConfig, log logging.Logger) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "create object store client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.ListBuckets(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "connect to object store")
	}

	log.Info("object store connected",
		logging.String("endpoint", cfg.Endpoint),
		logging.Bool("ssl", cfg.UseSSL))
	return &Store{client: client, log: log.Named("store")}, nil
}

// NewStoreWithAPI wires a Store over an existing API handle, for tests.
func NewStoreWithAPI(api MinIOAPI, log logging.Logger) *Store {
	return &Store{client: api, log: log.Named("store")}
}

// Exists reports whether bucket/key holds an object.  A 404 from the store
// means absent, not an error.
func (s *Store) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if resp := minio.ToErrorResponse(err); resp.StatusCode == 404 {
		return false, nil
	}
	return false, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "stat "+key)
}

// GetObjectBytes reads the whole object into memory.
func (s *Store) GetObjectBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "get "+key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.StatusCode == 404 {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeNotFound, key+" not found")
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "read "+key)
	}
	return data, nil
}

// ObjectHandle is a random-access view of one stored object.
type ObjectHandle interface {
	io.ReaderAt
	io.Closer
}

// OpenObject returns a random-access handle on bucket/key and its size, for
// readers that seek within large objects instead of buffering them whole.
func (s *Store) OpenObject(ctx context.Context, bucket, key string) (ObjectHandle, int64, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.StatusCode == 404 {
			return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeNotFound, key+" not found")
		}
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "stat "+key)
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, apperrors.Wrap(err, apperrors.ErrCodeStorageError, "open "+key)
	}
	return obj, info.Size, nil
}

// PutObject writes data under bucket/key, overwriting any existing object.
func (s *Store) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "put "+key)
	}
	return nil
}

// PutObjectStream writes r under bucket/key without knowing the size up
// front; the client falls back to multipart streaming.
func (s *Store) PutObjectStream(ctx context.Context, bucket, key string, r io.Reader) error {
	if _, err := s.client.PutObject(ctx, bucket, key, r, -1, minio.PutObjectOptions{}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "put "+key)
	}
	return nil
}

// UploadFile streams a local file to bucket/key.
func (s *Store) UploadFile(ctx context.Context, localPath, bucket, key string) error {
	if _, err := s.client.FPutObject(ctx, bucket, key, localPath, minio.PutObjectOptions{}); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "upload "+localPath)
	}
	s.log.Info("uploaded file",
		logging.String("path", localPath),
		logging.String("key", key))
	return nil
}

// DownloadFile streams bucket/key to a local path.
func (s *Store) DownloadFile(ctx context.Context, bucket, key, localPath string) error {
	if err := s.client.FGetObject(ctx, bucket, key, localPath, minio.GetObjectOptions{}); err != nil {
		if resp := minio.ToErrorResponse(err); resp.StatusCode == 404 {
			return apperrors.Wrap(err, apperrors.ErrCodeNotFound, key+" not found")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeStorageError, "download "+key)
	}
	return nil
}

// ListKeys returns every object key under prefix, in the store's listing
// order.  The underlying client paginates internally.
func (s *Store) ListKeys(ctx context.Context, bucket, prefix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, apperrors.Wrap(obj.Err, apperrors.ErrCodeStorageError, "list "+prefix)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}
