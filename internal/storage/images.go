// Package storage uploads device images to an S3-compatible object store
// (AWS S3 or MinIO) and hands back the public URL that gets written onto
// the device row. Keys are generated, never caller-chosen, and grouped
// under a single prefix so the bucket can be served by a CDN as-is.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// keyPrefix groups every uploaded product photo in the bucket.
const keyPrefix = "device-images"

// Config holds the object-store connection settings.
type Config struct {
	Region    string
	Endpoint  string // custom endpoint for MinIO; empty for AWS
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicBaseURL is the externally reachable base for stored objects
	// (e.g. a CDN origin). When empty, a virtual-hosted AWS URL is built
	// from bucket and region.
	PublicBaseURL string
}

// ObjectPutter is the subset of the S3 client used by ImageStore.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ImageStore uploads images and resolves their public URLs.
type ImageStore struct {
	client ObjectPutter
	cfg    Config
}

// New builds an ImageStore with a real S3 client from the given config.
func New(ctx context.Context, cfg Config) (*ImageStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &ImageStore{client: client, cfg: cfg}, nil
}

// NewWithClient builds an ImageStore around an existing client. Used by
// tests and by callers that manage their own AWS config.
func NewWithClient(client ObjectPutter, cfg Config) *ImageStore {
	return &ImageStore{client: client, cfg: cfg}
}

// Upload stores the image bytes under a fresh generated key, preserving
// the original file extension, and returns the public URL.
func (s *ImageStore) Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	key := objectKey(filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return s.PublicURL(key), nil
}

// PublicURL returns the externally reachable URL of a stored object.
func (s *ImageStore) PublicURL(key string) string {
	if base := strings.TrimRight(s.cfg.PublicBaseURL, "/"); base != "" {
		return base + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// objectKey derives a collision-free bucket key from the uploaded file
// name, keeping only its extension.
func objectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s%s", keyPrefix, uuid.NewString(), ext)
}
