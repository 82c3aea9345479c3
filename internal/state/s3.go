package state

import (
	"bytes"
	"context"
	"io"
	"path"

	"github.com/ethanolivertroy/antimirror/internal/models"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store keeps each record as a JSON object in a bucket. The object body has
// the same layout as the file backend.
type S3Store struct {
	mc     *minio.Client
	bucket string
	prefix string
}

// NewS3Store creates a store writing to bucket under prefix, using the S3
// settings in cfg
func NewS3Store(cfg models.StateConfig, bucket, prefix string) (*S3Store, error) {
	mc, err := minio.New(cfg.S3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		Secure: cfg.S3UseSSL,
		Region: cfg.S3Region,
	})
	if err != nil {
		return nil, &PersistenceError{Op: "open", Backend: "s3", Err: err}
	}
	return &S3Store{mc: mc, bucket: bucket, prefix: prefix}, nil
}

// ObjectKey returns the object name backing key
func (s *S3Store) ObjectKey(key string) string {
	return path.Join(s.prefix, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Load fetches the object for key. A missing object is an empty set.
func (s *S3Store) Load(ctx context.Context, key string) (models.SeenSet, error) {
	obj, err := s.mc.GetObject(ctx, s.bucket, s.ObjectKey(key), minio.GetObjectOptions{})
	if err != nil {
		return nil, &PersistenceError{Op: "load", Backend: "s3", Key: key, Err: err}
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return models.NewSeenSet(), nil
		}
		return nil, &PersistenceError{Op: "load", Backend: "s3", Key: key, Err: err}
	}

	set, err := decodeRecord(data)
	if err != nil {
		return nil, &PersistenceError{Op: "load", Backend: "s3", Key: key, Err: err}
	}
	return set, nil
}

// Save overwrites the object for key
func (s *S3Store) Save(ctx context.Context, key string, set models.SeenSet) error {
	data, err := encodeRecord(set)
	if err != nil {
		return &PersistenceError{Op: "save", Backend: "s3", Key: key, Err: err}
	}
	_, err = s.mc.PutObject(ctx, s.bucket, s.ObjectKey(key), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return &PersistenceError{Op: "save", Backend: "s3", Key: key, Err: err}
	}
	return nil
}

// Close is a no-op
func (s *S3Store) Close() error { return nil }
