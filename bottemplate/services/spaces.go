// services/spaces.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// SnapshotUploader stores a rendered leaderboard snapshot under key.
type SnapshotUploader interface {
	Upload(ctx context.Context, key string, body []byte) error
}

// SpacesService publishes snapshots to a DigitalOcean Spaces bucket through
// the S3 API.
type SpacesService struct {
	client *s3.Client
	bucket string
	region string
	root   string
}

var _ SnapshotUploader = (*SpacesService)(nil)

func NewSpacesService(ctx context.Context, spacesKey, spacesSecret, region, bucket, root string) (*SpacesService, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(spacesKey, spacesSecret, "")),
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load Spaces config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.digitaloceanspaces.com", region))
	})

	return &SpacesService{
		client: client,
		bucket: bucket,
		region: region,
		root:   strings.Trim(root, "/"),
	}, nil
}

// Upload writes body as a public JSON object.
func (s *SpacesService) Upload(ctx context.Context, key string, body []byte) error {
	path := s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(path),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		ACL:         "public-read",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return nil
}

// URL is the public address of key.
func (s *SpacesService) URL(key string) string {
	return fmt.Sprintf("https://%s.%s.digitaloceanspaces.com/%s", s.bucket, s.region, s.objectKey(key))
}

func (s *SpacesService) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.root == "" {
		return key
	}
	return s.root + "/" + key
}

func (s *SpacesService) GetBucket() string {
	return s.bucket
}

func (s *SpacesService) GetRegion() string {
	return s.region
}
