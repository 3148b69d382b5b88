// Package dynamo provides a resultstore.Store backed by DynamoDB.
// Candidates are small, so each one fits into a single item.
//
// Table schema:
//   - Partition key: run_prefix (string) - logical run namespace
//   - Sort key: object_name (string) - the candidate object name
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name voteensemble-results \
//	  --attribute-definitions AttributeName=run_prefix,AttributeType=S AttributeName=object_name,AttributeType=S \
//	  --key-schema AttributeName=run_prefix,KeyType=HASH AttributeName=object_name,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/voteensemble/resultstore"
)

// Client is the interface for the DynamoDB operations the store uses.
type Client interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store implements resultstore.Store on a DynamoDB table.
type Store struct {
	client      Client
	tableName   string
	runPrefix   string
	compression resultstore.Compression
	logger      *slog.Logger
}

var _ resultstore.Store = (*Store)(nil)

// NewStore creates a new DynamoDB result store. runPrefix namespaces
// the handles of one run, so concurrent runs can share a table.
func NewStore(client Client, tableName, runPrefix string, optFns ...func(o *resultstore.Options)) *Store {
	opts := resultstore.ApplyOptions(optFns)

	return &Store{
		client:      client,
		tableName:   tableName,
		runPrefix:   runPrefix,
		compression: opts.Compression,
		logger:      opts.Logger,
	}
}

func (s *Store) itemKey(handle int) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"run_prefix":  &types.AttributeValueMemberS{Value: s.runPrefix},
		"object_name": &types.AttributeValueMemberS{Value: resultstore.ObjectName(handle)},
	}
}

// Put stores the payload under the given handle.
func (s *Store) Put(ctx context.Context, handle int, payload []byte) error {
	frame, err := resultstore.EncodeFrame(payload, s.compression)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"run_prefix":  &types.AttributeValueMemberS{Value: s.runPrefix},
			"object_name": &types.AttributeValueMemberS{Value: resultstore.ObjectName(handle)},
			"frame":       &types.AttributeValueMemberB{Value: frame},
		},
	})
	if err != nil {
		return fmt.Errorf("dynamo: put handle %d: %w", handle, err)
	}
	return nil
}

// Get retrieves the payload stored under the given handle.
func (s *Store) Get(ctx context.Context, handle int) ([]byte, error) {
	resp, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.itemKey(handle),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: get handle %d: %w", handle, err)
	}
	if len(resp.Item) == 0 {
		return nil, fmt.Errorf("dynamo: handle %d: %w", handle, resultstore.ErrNotFound)
	}

	frameAttr, ok := resp.Item["frame"].(*types.AttributeValueMemberB)
	if !ok {
		return nil, fmt.Errorf("dynamo: handle %d: invalid frame attribute", handle)
	}
	return resultstore.DecodeFrame(frameAttr.Value)
}

// Delete removes the given handles, logging failures instead of
// returning them.
func (s *Store) Delete(ctx context.Context, handles []int) {
	for _, handle := range handles {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.tableName),
			Key:       s.itemKey(handle),
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to delete stored candidate",
				"object_name", resultstore.ObjectName(handle),
				"error", err,
			)
		}
	}
}
