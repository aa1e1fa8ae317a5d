// Package storage holds the object storage client used by the CSV export.
// It targets any S3-compatible endpoint (R2, MinIO, AWS).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gabrielmatsan/brev-ly/internal/config"
)

type UploadFileInput struct {
	Folder      string
	FileName    string
	ContentType string
	Body        io.Reader
}

type UploadedFile struct {
	URL string
	Key string
}

type S3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      config.StorageConfig
}

func NewS3Storage(ctx context.Context, cfg config.StorageConfig) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:   client,
		uploader: manager.NewUploader(client),
		cfg:      cfg,
	}, nil
}

// UploadFile streams Body to folder/fileName and returns the public URL
// of the object. A pre-existing object at the key is an error; callers
// pass names from GenerateUniqueFileName, which makes that unreachable
// in practice. Body is consumed as the upload progresses, never fully
// buffered.
func (s *S3Storage) UploadFile(ctx context.Context, input UploadFileInput) (*UploadedFile, error) {
	key := path.Join(input.Folder, input.FileName)

	exists, err := s.FileExists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check object existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("object already exists: %s", key)
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        input.Body,
		ContentType: aws.String(input.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return &UploadedFile{
		URL: s.cfg.PublicURL + "/" + key,
		Key: key,
	}, nil
}

func (s *S3Storage) FileExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *S3Storage) DeleteFile(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	return err
}

// GenerateUniqueFileName appends a millisecond timestamp to the base
// name, keeping the extension: links.csv -> links-1714070400000.csv.
func (s *S3Storage) GenerateUniqueFileName(baseName string) string {
	ext := path.Ext(baseName)
	name := strings.TrimSuffix(baseName, ext)

	return fmt.Sprintf("%s-%d%s", name, time.Now().UnixMilli(), ext)
}

// Ping verifies the bucket is reachable. Used by the readiness probe.
func (s *S3Storage) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	return err
}
