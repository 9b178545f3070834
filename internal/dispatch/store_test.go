package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-wgf-sdk/internal/aws/awstest"
	"github.com/imrishuroy/go-wgf-sdk/internal/idempotency"
)

const (
	dispatchTable = "dispatch"
	idempTable    = "idempotency"
)

func newMock() *awstest.Dynamo {
	return awstest.NewDynamo(map[string]string{
		dispatchTable: "dispatch_id",
		idempTable:    "idempotency_key",
	})
}

func testRecord(id, key string) Record {
	return Record{
		DispatchID:     id,
		IdempotencyKey: key,
		InvID:          "inv-1",
		Status:         StatusPending,
		Update:         map[string]any{"shipping_status": "shipped", "inv_id": "inv-1"},
	}
}

func TestCreateWithIdempotency_Success(t *testing.T) {
	mock := newMock()
	store := NewStore(mock, dispatchTable)
	idem := idempotency.NewStore(mock, idempTable, 48*time.Hour)

	if err := store.CreateWithIdempotency(context.Background(), idem, testRecord("d-1", "key-1")); err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}

	if mock.Lookup(idempTable, "key-1") == nil {
		t.Fatalf("idempotency item not stored")
	}
	got, err := store.Get(context.Background(), "d-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Status != StatusPending || got.IdempotencyKey != "key-1" || got.Update["shipping_status"] != "shipped" {
		t.Fatalf("unexpected dispatch record: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at not set")
	}
}

func TestCreateWithIdempotency_ExistingKey(t *testing.T) {
	mock := newMock()
	mock.Seed(idempTable, map[string]types.AttributeValue{
		"idempotency_key": &types.AttributeValueMemberS{Value: "key-2"},
		"status":          &types.AttributeValueMemberS{Value: idempotency.StatusDone},
	})
	store := NewStore(mock, dispatchTable)
	idem := idempotency.NewStore(mock, idempTable, 48*time.Hour)

	err := store.CreateWithIdempotency(context.Background(), idem, testRecord("d-2", "key-2"))
	if !errors.Is(err, idempotency.ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed, got %v", err)
	}
	if mock.Lookup(dispatchTable, "d-2") != nil {
		t.Fatal("dispatch record written despite canceled transaction")
	}
}

func seed(t *testing.T, mock *awstest.Dynamo, rec Record) {
	t.Helper()
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	mock.Seed(dispatchTable, item)
}

func TestUpdateStatus_Condition_SuccessAndFail(t *testing.T) {
	mock := newMock()
	seed(t, mock, testRecord("d-10", "k10"))
	store := NewStore(mock, dispatchTable)
	ctx := context.Background()

	if err := store.UpdateStatus(ctx, "d-10", StatusPending, StatusProcessing); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	// current is PROCESSING
	err := store.UpdateStatus(ctx, "d-10", StatusPending, StatusCompleted)
	if !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
}

func TestFinishAndAttempts(t *testing.T) {
	mock := newMock()
	seed(t, mock, testRecord("d-20", "k20"))
	store := NewStore(mock, dispatchTable)
	ctx := context.Background()

	if err := store.IncrementAttempts(ctx, "d-20"); err != nil {
		t.Fatalf("IncrementAttempts: %v", err)
	}
	if err := store.IncrementAttempts(ctx, "d-20"); err != nil {
		t.Fatalf("IncrementAttempts: %v", err)
	}
	if err := store.Finish(ctx, "d-20", StatusFailed, "401", "token rejected"); !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("Finish from PENDING must fail, got %v", err)
	}
	if err := store.UpdateStatus(ctx, "d-20", StatusPending, StatusProcessing); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := store.Finish(ctx, "d-20", StatusFailed, "401", "token rejected"); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	got, err := store.Get(ctx, "d-20")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusFailed || got.EnvelopeCode != "401" || got.Error != "token rejected" || got.Attempts != 2 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestIncrementAttempts_Missing(t *testing.T) {
	store := NewStore(newMock(), dispatchTable)
	if err := store.IncrementAttempts(context.Background(), "nope"); err == nil {
		t.Fatal("expected error for missing record")
	}
}
