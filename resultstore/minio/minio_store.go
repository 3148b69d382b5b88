// Package minio provides a resultstore.Store backed by MinIO or any
// S3-compatible object storage.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"

	"github.com/hupe1980/voteensemble/resultstore"
	"github.com/minio/minio-go/v7"
)

// Store implements resultstore.Store for MinIO and S3-compatible storage.
type Store struct {
	client      *minio.Client
	bucket      string
	prefix      string
	compression resultstore.Compression
	logger      *slog.Logger
}

var _ resultstore.Store = (*Store)(nil)

// NewStore creates a new MinIO result store.
// rootPrefix is prepended to all keys (e.g. "experiments/run-1/").
func NewStore(client *minio.Client, bucket, rootPrefix string, optFns ...func(o *resultstore.Options)) *Store {
	opts := resultstore.ApplyOptions(optFns)

	return &Store{
		client:      client,
		bucket:      bucket,
		prefix:      rootPrefix,
		compression: opts.Compression,
		logger:      opts.Logger,
	}
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

	_, err = s.client.PutObject(ctx, s.bucket, s.key(handle), bytes.NewReader(frame), int64(len(frame)), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("minio: put %s: %w", s.key(handle), err)
	}
	return nil
}

// Get retrieves the payload stored under the given handle.
func (s *Store) Get(ctx context.Context, handle int) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(handle), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("minio: get %s: %w", s.key(handle), err)
	}
	defer obj.Close()

	frame, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
			return nil, fmt.Errorf("minio: handle %d: %w", handle, resultstore.ErrNotFound)
		}
		return nil, fmt.Errorf("minio: read %s: %w", s.key(handle), err)
	}
	return resultstore.DecodeFrame(frame)
}

// Delete removes the given handles, logging failures instead of
// returning them.
func (s *Store) Delete(ctx context.Context, handles []int) {
	for _, handle := range handles {
		err := s.client.RemoveObject(ctx, s.bucket, s.key(handle), minio.RemoveObjectOptions{})
		if err != nil {
			errResp := minio.ToErrorResponse(err)
			if errResp.Code == "NoSuchKey" || errResp.Code == "NotFound" {
				continue // Already gone
			}
			s.logger.WarnContext(ctx, "failed to delete stored candidate",
				"key", s.key(handle),
				"error", err,
			)
		}
	}
}
