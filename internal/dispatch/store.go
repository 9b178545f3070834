// Package dispatch persists the bookkeeping of relayed shipping updates.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-wgf-sdk/internal/aws"
	"github.com/imrishuroy/go-wgf-sdk/internal/idempotency"
)

// ErrStatusMismatch is returned when a conditional status transition fails.
var ErrStatusMismatch = errors.New("status mismatch/conditional failed")

// Store encapsulates operations on the dispatch table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore creates a new dispatch Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// CreateWithIdempotency atomically creates the idempotency record (guarded by
// attribute_not_exists) and the dispatch record. It returns
// idempotency.ErrConditionFailed when the key was already used.
func (s *Store) CreateWithIdempotency(ctx context.Context, idem *idempotency.Store, rec Record) error {
	now := s.nowFunc().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	idemPut, err := idem.PutItem(idem.NewRecord(rec.IdempotencyKey, rec.DispatchID))
	if err != nil {
		return err
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal dispatch record: %w", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dyn.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: idemPut},
			{Put: &types.Put{TableName: sdkaws.String(s.tableName), Item: item}},
		},
	})
	if err != nil {
		if idempotency.IsConditionFailed(err) {
			return idempotency.ErrConditionFailed
		}
		return fmt.Errorf("transact write: %w", err)
	}
	return nil
}

// Get fetches a record by dispatch_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, dispatchID string) (*Record, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: sdkaws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"dispatch_id": &types.AttributeValueMemberS{Value: dispatchID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal dispatch record: %w", err)
	}
	return &rec, nil
}

// UpdateStatus conditionally moves the record from expected to newStatus.
// Returns ErrStatusMismatch if the current status differs.
func (s *Store) UpdateStatus(ctx context.Context, dispatchID, expected, newStatus string) error {
	return s.update(ctx, dispatchID, expected, "SET #s = :new, updated_at = :ua",
		map[string]types.AttributeValue{":new": &types.AttributeValueMemberS{Value: newStatus}})
}

// Finish records the outcome of the lending API call, moving PROCESSING to
// COMPLETED or FAILED. errMsg is stored when not empty.
func (s *Store) Finish(ctx context.Context, dispatchID, newStatus, envelopeCode, errMsg string) error {
	return s.update(ctx, dispatchID, StatusProcessing,
		"SET #s = :new, envelope_code = :code, #e = :err, updated_at = :ua",
		map[string]types.AttributeValue{
			":new":  &types.AttributeValueMemberS{Value: newStatus},
			":code": &types.AttributeValueMemberS{Value: envelopeCode},
			":err":  &types.AttributeValueMemberS{Value: errMsg},
		}, "#e", "error")
}

func (s *Store) update(ctx context.Context, dispatchID, expected, expr string, values map[string]types.AttributeValue, extraNames ...string) error {
	names := map[string]string{"#s": "status"}
	for i := 0; i+1 < len(extraNames); i += 2 {
		names[extraNames[i]] = extraNames[i+1]
	}
	values[":ua"] = &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)}
	values[":expected"] = &types.AttributeValueMemberS{Value: expected}

	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: sdkaws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"dispatch_id": &types.AttributeValueMemberS{Value: dispatchID},
		},
		UpdateExpression:          sdkaws.String(expr),
		ConditionExpression:       sdkaws.String("#s = :expected"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrStatusMismatch
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// IncrementAttempts increases the attempts counter by 1.
func (s *Store) IncrementAttempts(ctx context.Context, dispatchID string) error {
	_, err := s.client.UpdateItem(ctx, &dyn.UpdateItemInput{
		TableName: sdkaws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"dispatch_id": &types.AttributeValueMemberS{Value: dispatchID},
		},
		ConditionExpression: sdkaws.String("attribute_exists(dispatch_id)"),
		UpdateExpression:    sdkaws.String("SET attempts = if_not_exists(attempts, :zero) + :inc, updated_at = :ua"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
			":inc":  &types.AttributeValueMemberN{Value: "1"},
			":ua":   &types.AttributeValueMemberS{Value: s.nowFunc().UTC().Format(time.RFC3339)},
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	return nil
}
