package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/richardsondev/unreal-archive/internal/config"
)

// Uploader is the part of manager.Uploader used by S3Store.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Store uploads files to an S3 (or S3 compatible) bucket.
type S3Store struct {
	uploader  Uploader
	bucket    string
	prefix    string
	publicURL string
}

// NewS3Store creates a store that uploads through uploader. When publicURL
// is empty the URL reported by the upload is returned.
func NewS3Store(uploader Uploader, bucket, prefix, publicURL string) *S3Store {
	return &S3Store{
		uploader:  uploader,
		bucket:    bucket,
		prefix:    strings.TrimLeft(prefix, "/"),
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// NewS3StoreFromConfig builds the AWS client described by cfg.
func NewS3StoreFromConfig(ctx context.Context, cfg config.StoreConfig) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 store requires s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// MinIO and similar servers expect path-style addressing
			o.UsePathStyle = true
		}
	})

	return NewS3Store(manager.NewUploader(client), cfg.S3Bucket, cfg.S3Prefix, cfg.S3PublicURL), nil
}

func (s *S3Store) Name() string { return "s3:" + s.bucket }

func (s *S3Store) Store(ctx context.Context, localPath, remoteKey string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer f.Close()

	key := s.prefix + strings.TrimLeft(remoteKey, "/")
	out, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s to s3://%s/%s: %w", localPath, s.bucket, key, err)
	}

	if s.publicURL != "" {
		return s.publicURL + "/" + escapeKey(key), nil
	}
	return out.Location, nil
}
