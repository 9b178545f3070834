// Package handlers implements the HTTP intake of the shipping-update relay.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-wgf-sdk/entity"
	"github.com/imrishuroy/go-wgf-sdk/internal/aws"
	"github.com/imrishuroy/go-wgf-sdk/internal/dispatch"
	"github.com/imrishuroy/go-wgf-sdk/internal/idempotency"
)

// HandlerConfig groups dependencies for the shipping-update handler.
type HandlerConfig struct {
	DynamoDBClient   aws.DynamoDBAPI
	SQSClient        aws.SQSAPI
	IdempotencyTable string
	DispatchTable    string
	QueueURL         string
	TTLWindow        time.Duration
	Logger           *slog.Logger
}

// RegisterShippingRoutes registers routes for the shipping-update API.
func RegisterShippingRoutes(r *gin.Engine, cfg HandlerConfig) {
	h := &shippingHandler{
		idem:      idempotency.NewStore(cfg.DynamoDBClient, cfg.IdempotencyTable, cfg.TTLWindow),
		dispatch:  dispatch.NewStore(cfg.DynamoDBClient, cfg.DispatchTable),
		publisher: aws.NewPublisher(cfg.SQSClient, cfg.QueueURL),
		logger:    cfg.Logger,
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}

	r.POST("/shipping-updates", h.create)
	r.GET("/shipping-updates/:id", h.get)
}

type shippingHandler struct {
	idem      *idempotency.Store
	dispatch  *dispatch.Store
	publisher *aws.Publisher
	logger    *slog.Logger
}

func (h *shippingHandler) create(c *gin.Context) {
	ctx := c.Request.Context()

	var hdr RequestHeaders
	if err := BindHeaders(c, &hdr); err != nil {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return
	}
	raw, err := entity.DecodeMap(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request_body", "msg": err.Error()})
		return
	}

	// validate before anything is persisted so a bad payload does not burn the key
	update, err := entity.NewShippingStatusUpdate(raw)
	if err != nil {
		if !WriteViolations(c, err) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "validation_error", "detail": err.Error()})
		}
		return
	}

	dispatchID := uuid.NewString()
	correlationID := hdr.RequestID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	log := h.logger.With(
		slog.String("dispatch_id", dispatchID),
		slog.String("correlation_id", correlationID),
		slog.String("inv_id", update.InvID))

	rec := dispatch.Record{
		DispatchID:     dispatchID,
		IdempotencyKey: hdr.IdempotencyKey,
		InvID:          update.InvID,
		Status:         dispatch.StatusPending,
		Update:         update.Record(),
	}
	if err := h.dispatch.CreateWithIdempotency(ctx, h.idem, rec); err != nil {
		if errors.Is(err, idempotency.ErrConditionFailed) {
			h.replay(c, hdr.IdempotencyKey)
			return
		}
		log.ErrorContext(ctx, "create dispatch failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create_failed", "detail": err.Error()})
		return
	}

	// Records are in place; enqueue. If SQS send fails we mark idempotency FAILED.
	msg, _ := json.Marshal(dispatch.Message{
		DispatchID:     dispatchID,
		IdempotencyKey: hdr.IdempotencyKey,
		CorrelationID:  correlationID,
	})
	attrs := map[string]string{
		"idempotency_key": hdr.IdempotencyKey,
		"dispatch_id":     dispatchID,
		"correlation_id":  correlationID,
	}
	if err := h.publisher.SendShippingUpdate(ctx, string(msg), attrs); err != nil {
		_ = h.idem.MarkFailed(ctx, hdr.IdempotencyKey, fmt.Sprintf("sqs_send_failed: %v", err))
		log.ErrorContext(ctx, "enqueue failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed", "detail": err.Error()})
		return
	}

	resp := gin.H{"dispatch_id": dispatchID, "status": dispatch.StatusPending}
	responseBody, _ := json.Marshal(resp)
	if err := h.idem.MarkDone(ctx, hdr.IdempotencyKey, string(responseBody), http.StatusAccepted); err != nil {
		// the update is queued; a duplicate will see IN_PROGRESS instead of the replay
		log.WarnContext(ctx, "mark idempotency done failed", slog.Any("err", err))
	}

	log.InfoContext(ctx, "shipping update accepted")
	c.Header("Location", "/shipping-updates/"+dispatchID)
	c.JSON(http.StatusAccepted, resp)
}

// replay answers a request whose Idempotency-Key was already used.
func (h *shippingHandler) replay(c *gin.Context, key string) {
	rec, err := h.idem.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "idempotency_check_failed", "detail": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction_failed_no_idempotency_record"})
		return
	}

	switch rec.Status {
	case idempotency.StatusDone:
		if rec.ResponseBody != "" && json.Valid([]byte(rec.ResponseBody)) {
			c.Data(rec.ResponseStatus, "application/json", []byte(rec.ResponseBody))
			return
		}
		c.JSON(http.StatusOK, gin.H{"dispatch_id": rec.DispatchID})
	case idempotency.StatusInProgress:
		c.JSON(http.StatusAccepted, gin.H{"message": "request already in progress", "dispatch_id": rec.DispatchID})
	case idempotency.StatusFailed:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "previous_attempt_failed", "dispatch_id": rec.DispatchID})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown_idempotency_status"})
	}
}

func (h *shippingHandler) get(c *gin.Context) {
	rec, err := h.dispatch.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed", "detail": err.Error()})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dispatch_id":   rec.DispatchID,
		"inv_id":        rec.InvID,
		"status":        rec.Status,
		"envelope_code": rec.EnvelopeCode,
		"error":         rec.Error,
		"attempts":      rec.Attempts,
		"updated_at":    rec.UpdatedAt,
	})
}
