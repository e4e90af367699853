package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/autopeer-io/camlink/internal/transport"
	"github.com/autopeer-io/camlink/pkg/log"
	"github.com/autopeer-io/camlink/pkg/options"
)

// objectStore is the part of *minio.Client the sink uses.
type objectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, object string, expiry time.Duration, params url.Values) (*url.URL, error)
}

// S3 uploads images to an S3-compatible bucket and records a presigned download URL on the image.
type S3 struct {
	store         objectStore
	bucket        string
	region        string
	prefix        string
	presignExpiry time.Duration
	log           log.Logger
}

func NewS3(opts *options.S3Options, logger log.Logger) (*S3, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return newS3(client, opts, logger), nil
}

func newS3(store objectStore, opts *options.S3Options, logger log.Logger) *S3 {
	return &S3{
		store:         store,
		bucket:        opts.BucketName,
		region:        opts.Region,
		prefix:        opts.Prefix,
		presignExpiry: opts.PresignExpiry,
		log:           log.OrStd(logger).WithName("s3-sink"),
	}
}

func (s *S3) Name() string { return "s3" }

// CheckBucket creates the bucket when it does not exist yet.
func (s *S3) CheckBucket(ctx context.Context) error {
	exists, err := s.store.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	s.log.Info("Bucket does not exist, creating", "bucket", s.bucket)
	if err := s.store.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// ObjectKey is <prefix>/<mac>/<received>.jpg, with the receive time in UTC.
func (s *S3) ObjectKey(img *transport.Image) string {
	at := img.ReceivedAt.UTC()
	name := fmt.Sprintf("%s_%06d.jpg", at.Format(fileTimeLayout), at.Nanosecond()/1000)
	return path.Join(s.prefix, img.Source.Compact(), name)
}

func (s *S3) Deliver(ctx context.Context, img *transport.Image) error {
	key := s.ObjectKey(img)

	info, err := s.store.PutObject(ctx, s.bucket, key, bytes.NewReader(img.Data), int64(len(img.Data)), minio.PutObjectOptions{
		ContentType: "image/jpeg",
		UserMetadata: map[string]string{
			"mac":     img.Source.String(),
			"hash":    img.Header.Hash,
			"hash-ok": strconv.FormatBool(img.HashOK),
			"voltage": strconv.Itoa(int(img.Header.Voltage)),
		},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	if s.presignExpiry > 0 {
		u, err := s.store.PresignedGetObject(ctx, s.bucket, key, s.presignExpiry, url.Values{})
		if err != nil {
			return fmt.Errorf("failed to generate presigned url: %w", err)
		}
		img.URL = u.String()
	}

	s.log.Info("Image uploaded", "bucket", s.bucket, "key", key, "size", info.Size, "etag", info.ETag)
	return nil
}
