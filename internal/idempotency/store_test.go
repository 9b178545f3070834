package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/imrishuroy/go-wgf-sdk/internal/aws/awstest"
)

const table = "idempotency-table"

func newTestStore() (*Store, *awstest.Dynamo) {
	mock := awstest.NewDynamo(map[string]string{table: "idempotency_key"})
	s := NewStore(mock, table, 48*time.Hour)
	s.nowFunc = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestCreateIfNotExists_Get_MarkDone_MarkFailed(t *testing.T) {
	s, mock := newTestStore()
	ctx := context.Background()
	key := "test-key-1"

	if err := s.CreateIfNotExists(ctx, key, "dispatch-123"); err != nil {
		t.Fatalf("CreateIfNotExists error: %v", err)
	}

	// second create reports the existing key
	if err := s.CreateIfNotExists(ctx, key, "dispatch-456"); !errors.Is(err, ErrConditionFailed) {
		t.Fatalf("expected ErrConditionFailed on duplicate create, got %v", err)
	}

	rec, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec == nil {
		t.Fatalf("expected record, got nil")
	}
	if rec.Status != StatusInProgress || rec.DispatchID != "dispatch-123" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if want := rec.CreatedAt.Add(48 * time.Hour).Unix(); rec.ExpiresAt != want {
		t.Fatalf("expires_at = %d, want %d", rec.ExpiresAt, want)
	}

	if err := s.MarkDone(ctx, key, `{"ok":true}`, 202); err != nil {
		t.Fatalf("MarkDone error: %v", err)
	}
	item := mock.Lookup(table, key)
	if st, ok := item["status"].(*types.AttributeValueMemberS); !ok || st.Value != StatusDone {
		t.Fatalf("status not updated to DONE, got %+v", item["status"])
	}
	if rb, ok := item["response_body"].(*types.AttributeValueMemberS); !ok || rb.Value != `{"ok":true}` {
		t.Fatalf("response_body not set correctly: %+v", item["response_body"])
	}

	if err := s.MarkFailed(ctx, key, "failed-reason"); err != nil {
		t.Fatalf("MarkFailed error: %v", err)
	}
	rec, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec.Status != StatusFailed || rec.Note != "failed-reason" || rec.ResponseStatus != 202 {
		t.Fatalf("unexpected record after MarkFailed: %+v", rec)
	}
}

func TestGet_NotFound(t *testing.T) {
	s, _ := newTestStore()
	rec, err := s.Get(context.Background(), "missing")
	if err != nil || rec != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", rec, err)
	}
}

func TestGet_ClientError(t *testing.T) {
	s, mock := newTestStore()
	mock.Err = errors.New("throttled")
	if _, err := s.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsConditionFailed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"conditional check", &types.ConditionalCheckFailedException{}, true},
		{"transaction canceled", &types.TransactionCanceledException{}, true},
		{"generic api error", &smithy.GenericAPIError{Code: "ConditionalCheckFailedException"}, true},
		{"other api error", &smithy.GenericAPIError{Code: "ThrottlingException"}, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tt := range tests {
		if got := IsConditionFailed(tt.err); got != tt.want {
			t.Errorf("%s: IsConditionFailed = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRecordMarshal_Unmarshal(t *testing.T) {
	s, _ := newTestStore()
	rec := s.NewRecord("k1", "d1")

	m, err := attributevalue.MarshalMap(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out Record
	if err := attributevalue.UnmarshalMap(m, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.IdempotencyKey != rec.IdempotencyKey || out.DispatchID != "d1" || !out.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("unmarshal mismatch: %+v", out)
	}
}
