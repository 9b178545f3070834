package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-lambda-go/events"

	wgf "github.com/imrishuroy/go-wgf-sdk"
	"github.com/imrishuroy/go-wgf-sdk/entity"
	"github.com/imrishuroy/go-wgf-sdk/envelope"
	"github.com/imrishuroy/go-wgf-sdk/internal/aws"
	"github.com/imrishuroy/go-wgf-sdk/internal/dispatch"
	"github.com/imrishuroy/go-wgf-sdk/internal/idempotency"
)

// Outcomes reported to the DispatchResult metric.
const (
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
	OutcomeInvalid   = "invalid"
	OutcomeTransport = "transport_error"
)

// shippingSender is the part of wgf.Client the worker needs.
type shippingSender interface {
	SendShippingStatus(ctx context.Context, update *entity.ShippingStatusUpdate) (*envelope.Envelope, error)
}

var _ shippingSender = (*wgf.Client)(nil)

// Processor handles SQS messages and forwards shipping updates to the lending API.
type Processor struct {
	idempStore    *idempotency.Store
	dispatchStore *dispatch.Store
	sender        shippingSender
	metrics       *aws.Metrics
	logger        *slog.Logger
}

// NewProcessor creates a new worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, idempTable, dispatchTable string, ttl time.Duration,
	sender shippingSender, metrics *aws.Metrics, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{
		idempStore:    idempotency.NewStore(clients.DynamoDB, idempTable, ttl),
		dispatchStore: dispatch.NewStore(clients.DynamoDB, dispatchTable),
		sender:        sender,
		metrics:       metrics,
		logger:        logger,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	p.logger.InfoContext(ctx, "received SQS messages", slog.Int("count", len(ev.Records)))
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			p.logger.ErrorContext(ctx, "worker error", slog.String("message_id", rec.MessageId), slog.Any("err", err))
			return err
		}
	}
	return nil
}

// processMessage returns an error only for storage faults. Once the lending
// API has been called the outcome is final and the message is acknowledged.
func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg dispatch.Message
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	log := p.logger.With(
		slog.String("dispatch_id", msg.DispatchID),
		slog.String("idempotency_key", msg.IdempotencyKey),
		slog.String("correlation_id", msg.CorrelationID))
	log.InfoContext(ctx, "received dispatch")

	record, err := p.dispatchStore.Get(ctx, msg.DispatchID)
	if err != nil {
		return fmt.Errorf("failed to fetch dispatch: %w", err)
	}
	if record == nil {
		return fmt.Errorf("dispatch not found: %s", msg.DispatchID)
	}

	// PENDING -> PROCESSING claims the record for this worker.
	err = p.dispatchStore.UpdateStatus(ctx, msg.DispatchID, dispatch.StatusPending, dispatch.StatusProcessing)
	if errors.Is(err, dispatch.ErrStatusMismatch) {
		current, gerr := p.dispatchStore.Get(ctx, msg.DispatchID)
		if gerr != nil || current == nil {
			return fmt.Errorf("reload dispatch=%s after status mismatch: %v", msg.DispatchID, gerr)
		}
		switch current.Status {
		case dispatch.StatusCompleted, dispatch.StatusFailed:
			log.InfoContext(ctx, "dispatch already finished", slog.String("status", current.Status))
			return nil
		case dispatch.StatusProcessing:
			log.InfoContext(ctx, "duplicate processing event")
			return nil
		default:
			return fmt.Errorf("unexpected status for dispatch=%s: %s", msg.DispatchID, current.Status)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to update status to PROCESSING: %w", err)
	}
	if err := p.dispatchStore.IncrementAttempts(ctx, msg.DispatchID); err != nil {
		return err
	}

	update, err := entity.NewShippingStatusUpdate(record.Update)
	if err != nil {
		return p.fail(ctx, log, msg, OutcomeInvalid, "", err.Error())
	}

	env, err := p.sender.SendShippingStatus(ctx, update)
	if err != nil {
		return p.fail(ctx, log, msg, OutcomeTransport, "", err.Error())
	}
	if !env.IsSuccess {
		return p.fail(ctx, log, msg, OutcomeRejected, env.Code, rejection(env))
	}

	if err := p.dispatchStore.Finish(ctx, msg.DispatchID, dispatch.StatusCompleted, env.Code, ""); err != nil {
		return fmt.Errorf("failed to update status to COMPLETED: %w", err)
	}
	response, _ := json.Marshal(map[string]string{
		"dispatch_id":   msg.DispatchID,
		"status":        dispatch.StatusCompleted,
		"envelope_code": env.Code,
	})
	if err := p.idempStore.MarkDone(ctx, msg.IdempotencyKey, string(response), 200); err != nil {
		return fmt.Errorf("failed to update idempotency: %w", err)
	}
	p.record(ctx, log, OutcomeCompleted)

	log.InfoContext(ctx, "dispatch completed", slog.String("envelope_code", env.Code))
	return nil
}

func (p *Processor) fail(ctx context.Context, log *slog.Logger, msg dispatch.Message, outcome, code, reason string) error {
	if err := p.dispatchStore.Finish(ctx, msg.DispatchID, dispatch.StatusFailed, code, reason); err != nil {
		return fmt.Errorf("failed to update status to FAILED: %w", err)
	}
	if err := p.idempStore.MarkFailed(ctx, msg.IdempotencyKey, outcome+": "+reason); err != nil {
		return fmt.Errorf("failed to update idempotency: %w", err)
	}
	p.record(ctx, log, outcome)

	log.WarnContext(ctx, "dispatch failed",
		slog.String("outcome", outcome), slog.String("envelope_code", code), slog.String("reason", reason))
	return nil
}

func (p *Processor) record(ctx context.Context, log *slog.Logger, outcome string) {
	if p.metrics == nil {
		return
	}
	if err := p.metrics.RecordDispatch(ctx, outcome); err != nil {
		log.WarnContext(ctx, "record metric failed", slog.Any("err", err))
	}
}

// rejection summarizes an unsuccessful envelope.
func rejection(env *envelope.Envelope) string {
	for _, k := range []string{"message", "error"} {
		if s, ok := env.Data[k].(string); ok && s != "" {
			return s
		}
	}
	return "lending api returned " + env.Code
}
