package dispatch

import "time"

// Dispatch statuses
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Record tracks one shipping update on its way to the lending API.
type Record struct {
	DispatchID     string         `dynamodbav:"dispatch_id"` // PK
	IdempotencyKey string         `dynamodbav:"request_key"`
	InvID          string         `dynamodbav:"inv_id"`
	Status         string         `dynamodbav:"status"` // PENDING | PROCESSING | COMPLETED | FAILED
	Update         map[string]any `dynamodbav:"update"` // wire form of the update, inv_id included
	// EnvelopeCode is the code of the lending API envelope, empty until sent.
	EnvelopeCode string    `dynamodbav:"envelope_code,omitempty"`
	Error        string    `dynamodbav:"error,omitempty"`
	Attempts     int       `dynamodbav:"attempts,omitempty"`
	CreatedAt    time.Time `dynamodbav:"created_at"`
	UpdatedAt    time.Time `dynamodbav:"updated_at"`
}

// Message is the payload sent from API -> SQS -> Worker.
type Message struct {
	DispatchID     string `json:"dispatch_id"`
	IdempotencyKey string `json:"idempotency_key"`
	CorrelationID  string `json:"correlation_id,omitempty"`
}
