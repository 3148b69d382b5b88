// Package s3 provides a resultstore.Store backed by Amazon S3.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/voteensemble/resultstore"
)

// Store implements resultstore.Store for S3.
type Store struct {
	client      *s3.Client
	uploader    *manager.Uploader
	bucket      string
	prefix      string
	compression resultstore.Compression
	logger      *slog.Logger
}

var _ resultstore.Store = (*Store)(nil)

// NewStore creates a new S3 result store.
// rootPrefix is prepended to all keys (e.g. "experiments/run-1/").
func NewStore(client *s3.Client, bucket, rootPrefix string, optFns ...func(o *resultstore.Options)) *Store {
	opts := resultstore.ApplyOptions(optFns)

	return &Store{
		client:      client,
		uploader:    manager.NewUploader(client),
		bucket:      bucket,
		prefix:      rootPrefix,
		compression: opts.Compression,
		logger:      opts.Logger,
	}
}

// NewStoreFromDefaultConfig creates a Store from the default AWS config
// chain (environment, shared config files, instance metadata).
func NewStoreFromDefaultConfig(ctx context.Context, bucket, rootPrefix string, optFns ...func(o *resultstore.Options)) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return NewStore(s3.NewFromConfig(cfg), bucket, rootPrefix, optFns...), nil
}

func (s *Store) key(handle int) string {
	return path.Join(s.prefix, resultstore.ObjectName(handle))
}

// Put stores the payload under the given handle.
func (s *Store) Put(ctx context.Context, handle int, payload []byte) error {
	frame, err := resultstore.EncodeFrame(payload, s.compression)
	if err != nil {
		return err
	}

	_, err = s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(handle)),
		Body:   bytes.NewReader(frame),
	})
	if err != nil {
		return fmt.Errorf("s3: upload %s: %w", s.key(handle), err)
	}
	return nil
}

// Get retrieves the payload stored under the given handle.
func (s *Store) Get(ctx context.Context, handle int) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(handle)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("s3: handle %d: %w", handle, resultstore.ErrNotFound)
		}
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("s3: handle %d: %w", handle, resultstore.ErrNotFound)
		}
		return nil, err
	}
	defer resp.Body.Close()

	frame, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("s3: read %s: %w", s.key(handle), err)
	}
	return resultstore.DecodeFrame(frame)
}

// Delete removes the given handles, logging failures instead of
// returning them.
func (s *Store) Delete(ctx context.Context, handles []int) {
	for _, handle := range handles {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key(handle)),
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to delete stored candidate",
				"key", s.key(handle),
				"error", err,
			)
		}
	}
}
