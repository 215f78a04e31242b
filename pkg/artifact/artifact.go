// Package artifact persists generated studio images in S3-compatible object
// storage. Photo work can finish after the requesting call gave up; the
// artifact is still stored so the seller finds it in their studio later.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	ErrInvalidConfig = errors.New("invalid artifact storage config")
	ErrUploadFailed  = errors.New("artifact upload failed")
	ErrEmptyArtifact = errors.New("artifact has no content")
)

// S3Client is the narrow slice of the AWS SDK the store uses. Tests supply
// a fake via WithClient.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds the environment-driven object storage configuration.
type Config struct {
	Bucket         string `env:"ARTIFACT_S3_BUCKET,required"`
	Region         string `env:"ARTIFACT_S3_REGION" envDefault:"eu-central-1"`
	AccessKeyID    string `env:"ARTIFACT_S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"ARTIFACT_S3_SECRET_KEY"`
	Endpoint       string `env:"ARTIFACT_S3_ENDPOINT"`
	BaseURL        string `env:"ARTIFACT_S3_BASE_URL"`
	ForcePathStyle bool   `env:"ARTIFACT_S3_FORCE_PATH_STYLE" envDefault:"false"`
}

// Store uploads artifacts and returns their public URLs.
// Safe for concurrent use.
type Store struct {
	client  S3Client
	bucket  string
	baseURL string
}

// Option configures optional Store collaborators.
type Option func(*Store)

// WithClient sets a pre-configured S3 client, used by tests.
func WithClient(client S3Client) Option {
	return func(s *Store) { s.client = client }
}

// NewStore creates an artifact store. Without WithClient, an AWS SDK client
// is built from cfg; static credentials apply when both key parts are set,
// otherwise the default provider chain is used.
func NewStore(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("%w: bucket and region are required", ErrInvalidConfig)
	}

	store := &Store{
		bucket:  cfg.Bucket,
		baseURL: baseURLFor(cfg),
	}
	for _, opt := range opts {
		opt(store)
	}

	if store.client == nil {
		loadOpts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, "")))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}

		store.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			o.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return store, nil
}

// Put uploads one artifact under the account's studio prefix and returns its
// public URL. The object key embeds a fresh UUID so retried uploads never
// overwrite earlier results.
func (s *Store) Put(ctx context.Context, accountID uuid.UUID, kind, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyArtifact
	}

	key := fmt.Sprintf("studio/%s/%s/%s_%s", accountID, kind,
		time.Now().UTC().Format("20060102T150405"), uuid.NewString())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Join(ErrUploadFailed, err)
	}

	return s.baseURL + key, nil
}

func baseURLFor(cfg Config) string {
	base := cfg.BaseURL
	if base == "" {
		if cfg.Endpoint != "" {
			base = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
