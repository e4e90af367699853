package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*S3Options)(nil)

// S3Options configures the object storage sink.
type S3Options struct {
	Enabled         bool   `json:"enabled" mapstructure:"enabled"`
	Endpoint        string `json:"endpoint" mapstructure:"endpoint"`
	AccessKeyID     string `json:"access-key-id" mapstructure:"access-key-id"`
	SecretAccessKey string `json:"secret-access-key" mapstructure:"secret-access-key"`
	UseSSL          bool   `json:"use-ssl" mapstructure:"use-ssl"`
	BucketName      string `json:"bucket-name" mapstructure:"bucket-name"`
	Region          string `json:"region" mapstructure:"region"`
	// Prefix is prepended to every object key.
	Prefix string `json:"prefix" mapstructure:"prefix"`
	// PresignExpiry is the lifetime of the URL published with each image. Zero disables presigning.
	PresignExpiry time.Duration `json:"presign-expiry" mapstructure:"presign-expiry"`
}

func NewS3Options() *S3Options {
	return &S3Options{
		Endpoint:      "127.0.0.1:9000",
		UseSSL:        false,
		BucketName:    "camlink",
		Region:        "us-east-1",
		Prefix:        "images",
		PresignExpiry: 24 * time.Hour,
	}
}

func (o *S3Options) Validate() []error {
	errors := []error{}
	if !o.Enabled {
		return errors
	}

	if o.Endpoint == "" {
		errors = append(errors, fmt.Errorf("s3.endpoint must be set when the s3 sink is enabled"))
	}
	if o.BucketName == "" {
		errors = append(errors, fmt.Errorf("s3.bucket-name must be set when the s3 sink is enabled"))
	}
	if o.PresignExpiry < 0 || o.PresignExpiry > 7*24*time.Hour {
		errors = append(errors, fmt.Errorf("s3.presign-expiry must be between 0 and 168h, got %s", o.PresignExpiry))
	}

	return errors
}

func (o *S3Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.BoolVar(&o.Enabled, "s3.enabled", o.Enabled, "Store every reassembled image in S3-compatible object storage.")
	fs.StringVar(&o.Endpoint, "s3.endpoint", o.Endpoint, "S3 service endpoint (e.g. s3.amazonaws.com or minio.local)")
	fs.StringVar(&o.AccessKeyID, "s3.access-key-id", o.AccessKeyID, "S3 access key ID")
	fs.StringVar(&o.SecretAccessKey, "s3.secret-access-key", o.SecretAccessKey, "S3 secret access key")
	fs.BoolVar(&o.UseSSL, "s3.use-ssl", o.UseSSL, "Enable SSL for S3 connection")
	fs.StringVar(&o.BucketName, "s3.bucket-name", o.BucketName, "S3 bucket name for image storage")
	fs.StringVar(&o.Region, "s3.region", o.Region, "S3 region")
	fs.StringVar(&o.Prefix, "s3.prefix", o.Prefix, "Key prefix for stored images")
	fs.DurationVar(&o.PresignExpiry, "s3.presign-expiry", o.PresignExpiry, "Lifetime of the presigned URL announced with each image (0 disables it)")
}
