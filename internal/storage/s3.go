package storage

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	appErr "github.com/invmap/engine/pkg/errors"
	"github.com/invmap/engine/pkg/logger"
)

type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// BaseURL is the public prefix objects are reachable under.
	BaseURL string
}

type objectPutter interface {
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// S3Store keeps icons in an S3-compatible bucket.
type S3Store struct {
	client  objectPutter
	bucket  string
	baseURL string
	now     func() time.Time
}

// NewS3Store connects to the bucket, creating it when missing.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "create s3 client failed")
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "s3 unavailable")
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, appErr.Wrap(err, appErr.CodeUnavailable, "create bucket failed")
		}
		logger.L().Info("icon bucket created", zap.String("bucket", opts.Bucket))
	}

	return newS3Store(client, opts.Bucket, opts.BaseURL), nil
}

func newS3Store(client objectPutter, bucket, baseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, baseURL: baseURL, now: time.Now}
}

func (s *S3Store) Put(ctx context.Context, up Upload) (*Icon, error) {
	p, err := prepare(up)
	if err != nil {
		return nil, err
	}
	key := ObjectKey(up.OwnerID, p.ext, s.now())

	_, err = s.client.PutObject(ctx, s.bucket, key, p.reader(), int64(len(p.data)), minio.PutObjectOptions{
		ContentType:  p.contentType,
		CacheControl: "public, max-age=31536000, immutable",
		UserMetadata: map[string]string{"sha256": p.sum},
	})
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "falha ao enviar ícone")
	}

	return &Icon{
		Key:         key,
		URL:         publicURL(s.baseURL, key),
		ContentType: p.contentType,
		Size:        int64(len(p.data)),
		SHA256:      p.sum,
	}, nil
}
