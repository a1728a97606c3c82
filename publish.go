package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Publisher ships the finished receipts archive somewhere durable.
type Publisher interface {
	Publish(ctx context.Context, archivePath, runID string) (string, error)
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Publisher struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Publisher returns nil when no bucket is configured.
func NewS3Publisher(ctx context.Context, c PublishConfig) (*S3Publisher, error) {
	if c.S3Bucket == "" {
		return nil, nil
	}

	var opts []func(*awsconfig.LoadOptions) error
	if c.Region != "" {
		opts = append(opts, awsconfig.WithRegion(c.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrPublish, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return newS3Publisher(client, c), nil
}

func newS3Publisher(client objectPutter, c PublishConfig) *S3Publisher {
	return &S3Publisher{
		client: client,
		bucket: c.S3Bucket,
		prefix: c.S3Prefix,
	}
}

func (p *S3Publisher) objectKey(archivePath, runID string) string {
	return path.Join(p.prefix, runID, filepath.Base(archivePath))
}

func (p *S3Publisher) Publish(ctx context.Context, archivePath, runID string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer f.Close()

	key := p.objectKey(archivePath, runID)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return "", fmt.Errorf("%w: put s3://%s/%s: %v", ErrPublish, p.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", p.bucket, key), nil
}
