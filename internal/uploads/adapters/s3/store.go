// Package s3 stores uploads in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dejobratic/storefront/internal/telemetry"
	"github.com/dejobratic/storefront/internal/uploads/ports"
	"go.opentelemetry.io/otel/attribute"
)

// API is the subset of *s3.Client used by Store.
type API interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// NewClient builds a path-style client for cfg.Endpoint with static credentials.
func NewClient(cfg Config) *awss3.Client {
	return awss3.New(awss3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})
}

// Store writes public-read objects. Their URL is <endpoint>/<bucket>/<key>.
type Store struct {
	api      API
	bucket   string
	endpoint string
}

func NewStore(api API, endpoint, bucket string) *Store {
	return &Store{api: api, bucket: bucket, endpoint: strings.TrimSuffix(endpoint, "/")}
}

func (s *Store) Put(ctx context.Context, object ports.Object) error {
	return telemetry.Observe(ctx, "ObjectStore.Put", func(ctx context.Context) error {
		_, err := s.api.PutObject(ctx, &awss3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(object.Key),
			Body:          bytes.NewReader(object.Data),
			ContentLength: aws.Int64(int64(len(object.Data))),
			ContentType:   aws.String(object.ContentType),
			ACL:           types.ObjectCannedACLPublicRead,
		})
		if err != nil {
			return fmt.Errorf("put object %s: %w", object.Key, err)
		}
		return nil
	},
		attribute.String("storage.key", object.Key),
		attribute.Int("storage.size", len(object.Data)),
	)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return telemetry.Observe(ctx, "ObjectStore.Delete", func(ctx context.Context) error {
		_, err := s.api.DeleteObject(ctx, &awss3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("delete object %s: %w", key, err)
		}
		return nil
	}, attribute.String("storage.key", key))
}

func (s *Store) URL(key string) string {
	return s.endpoint + "/" + s.bucket + "/" + key
}

func (s *Store) KeyFromURL(raw string) (string, error) {
	prefix := s.endpoint + "/" + s.bucket + "/"
	if strings.HasPrefix(raw, prefix) && len(raw) > len(prefix) {
		return strings.TrimPrefix(raw, prefix), nil
	}

	// Also accept the same object addressed with another scheme or host.
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ports.ErrForeignURL, err)
	}
	key, found := strings.CutPrefix(strings.TrimPrefix(u.Path, "/"), s.bucket+"/")
	if !found || key == "" {
		return "", ports.ErrForeignURL
	}
	return key, nil
}
