// Package storage publishes open-data snapshots to S3-compatible object
// storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"

	"github.com/hromada/backoffice/internal/config"
	"github.com/hromada/backoffice/pkg/domain/registry"
	"github.com/hromada/backoffice/pkg/logger"
)

// objectPutter is the part of the S3 API the publisher uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Publisher uploads registry snapshots.
type S3Publisher struct {
	client        objectPutter
	bucket        string
	publicBaseURL string
	compress      bool
	logger        *logger.Logger
}

var _ registry.Publisher = (*S3Publisher)(nil)

// NewS3Publisher creates a publisher from storage configuration.
func NewS3Publisher(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	awsOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3Publisher(client, cfg, log), nil
}

func newS3Publisher(client objectPutter, cfg config.StorageConfig, log *logger.Logger) *S3Publisher {
	return &S3Publisher{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		compress:      cfg.Compress,
		logger:        log.With("component", "s3_publisher"),
	}
}

// Publish uploads body under key. The body is spooled into memory first so
// that the upload has a known length and can be signed.
func (p *S3Publisher) Publish(ctx context.Context, key string, body io.Reader) (string, error) {
	data, err := p.spool(body)
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot: %w", err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json; charset=utf-8"),
		CacheControl:  aws.String("public, max-age=3600"),
	}
	if p.compress {
		input.ContentEncoding = aws.String("gzip")
	}

	start := time.Now()
	if _, err := p.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	p.logger.Debug("snapshot uploaded",
		"bucket", p.bucket,
		"key", key,
		"bytes", len(data),
		"duration", time.Since(start),
	)
	return p.location(key), nil
}

func (p *S3Publisher) spool(body io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if !p.compress {
		if _, err := io.Copy(&buf, body); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	zw := gzip.NewWriter(&buf)
	if _, err := io.Copy(zw, body); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// location returns the public URL of key, or an s3:// URI when no public
// base URL is configured.
func (p *S3Publisher) location(key string) string {
	if p.publicBaseURL != "" {
		return p.publicBaseURL + "/" + key
	}
	return "s3://" + p.bucket + "/" + key
}
