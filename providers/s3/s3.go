// Package s3bucket stores tagged documents as JSON objects in an S3 bucket, one
// object per document under <prefix>/<id>.json. The type name and digest
// travel as object metadata.
package s3bucket

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	jsonodm "github.com/kenfreee/doctrine-json-odm"
	"github.com/kenfreee/doctrine-json-odm/internal/document"
	"github.com/kenfreee/doctrine-json-odm/internal/reliability"
)

// Object metadata keys. S3 lower-cases user metadata keys.
const (
	MetadataType   = "jsonodm-type"
	MetadataDigest = "jsonodm-digest"
)

// Client is the part of *s3.Client used by the store.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store is a document store over an S3 bucket.
type Store struct {
	client     Client
	bucket     string
	prefix     string
	serializer document.Serializer
	logger     *jsonodm.Logger
	retry      *reliability.Executor
}

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the logger. Default: a production logger.
func WithLogger(logger *jsonodm.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return fmt.Errorf("%w: logger cannot be nil", jsonodm.ErrInvalidConfiguration)
		}
		s.logger = logger
		return nil
	}
}

// WithRetry sets the backoff applied to S3 calls. A missing object is never
// retried. Default: reliability.DefaultConfig()
func WithRetry(cfg reliability.Config) Option {
	return func(s *Store) error {
		s.retry = reliability.NewExecutor(reliability.NewExponentialBackoff(cfg))
		return nil
	}
}

// New creates a store writing to bucket under prefix.
func New(client Client, bucket, prefix string, serializer *jsonodm.Serializer, opts ...Option) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: S3 client cannot be nil", jsonodm.ErrInvalidConfiguration)
	}
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket cannot be empty", jsonodm.ErrInvalidConfiguration)
	}
	if serializer == nil {
		return nil, fmt.Errorf("%w: serializer cannot be nil", jsonodm.ErrInvalidConfiguration)
	}
	s := &Store{
		client:     client,
		bucket:     bucket,
		prefix:     prefix,
		serializer: serializer,
		logger:     jsonodm.NewProductionLogger("s3-store"),
		retry:      reliability.NewExecutor(nil),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.retry.OnRetry(func(attempt int, delay time.Duration, err error) {
		s.logger.Warn("retrying S3 call", "bucket", s.bucket, "attempt", attempt, "delay", delay, "error", err)
	})
	return s, nil
}

// NewFromConfig creates a store with a client built from the default AWS
// configuration chain (environment, shared config, instance role).
func NewFromConfig(ctx context.Context, bucket, prefix string, serializer *jsonodm.Serializer, opts ...Option) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(s3.NewFromConfig(cfg), bucket, prefix, serializer, opts...)
}

// Key returns the object key of the document id.
func (s *Store) Key(id string) string {
	return path.Join(s.prefix, id+".json")
}

// Save stores v under a new random ID and returns it.
func (s *Store) Save(ctx context.Context, v any) (string, error) {
	id := uuid.NewString()
	if err := s.Put(ctx, id, v); err != nil {
		return "", err
	}
	return id, nil
}

// Put stores v under id, replacing any previous object.
func (s *Store) Put(ctx context.Context, id string, v any) error {
	if id == "" {
		return fmt.Errorf("%w: document id cannot be empty", jsonodm.ErrInvalidConfiguration)
	}
	doc, err := document.Encode(ctx, s.serializer, id, jsonodm.TypeNameOf(v), v)
	if err != nil {
		return err
	}

	err = s.retry.Execute(ctx, func(ctx context.Context) error {
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.Key(id)),
			Body:        bytes.NewReader(doc.Body),
			ContentType: aws.String("application/json"),
			Metadata: map[string]string{
				MetadataType:   doc.Type,
				MetadataDigest: doc.Digest,
			},
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to upload document %s: %w", id, err)
	}
	s.logger.WithContext(ctx).Debug("document uploaded", "bucket", s.bucket, "key", s.Key(id), "type", doc.Type)
	return nil
}

// Get downloads the document stored under id and rebuilds its value.
func (s *Store) Get(ctx context.Context, id string) (any, error) {
	doc, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return document.Decode(ctx, s.serializer, doc)
}

// GetInto downloads the document stored under id into dst.
func (s *Store) GetInto(ctx context.Context, id string, dst any) error {
	doc, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}
	return document.DecodeInto(ctx, s.serializer, doc, dst)
}

// Delete removes the object of the document id. Deleting a missing object
// is not an error, as in S3.
func (s *Store) Delete(ctx context.Context, id string) error {
	err := s.retry.Execute(ctx, func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.Key(id)),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	return nil
}

func (s *Store) fetch(ctx context.Context, id string) (document.Document, error) {
	var (
		body     []byte
		metadata map[string]string
	)
	err := s.retry.Execute(ctx, func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.Key(id)),
		})
		if err != nil {
			var noSuchKey *types.NoSuchKey
			if errors.As(err, &noSuchKey) {
				return reliability.Permanent(fmt.Errorf("%w: document %s", jsonodm.ErrNotFound, id))
			}
			return fmt.Errorf("failed to download document %s: %w", id, err)
		}
		defer out.Body.Close()

		body, err = io.ReadAll(out.Body)
		if err != nil {
			return fmt.Errorf("failed to read document %s: %w", id, err)
		}
		metadata = out.Metadata
		return nil
	})
	if err != nil {
		return document.Document{}, err
	}
	return document.Document{
		ID:     id,
		Type:   metadata[MetadataType],
		Body:   body,
		Digest: metadata[MetadataDigest],
	}, nil
}
