// Package protocol implements the two lending API protocol versions.
//
// V1 authenticates every call with a static Basic-Auth header and performs a
// single round trip. V3 exchanges the credentials for an access token before
// every business call; tokens are never reused.
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/imrishuroy/go-wgf-sdk/transport"
)

// Paths of the lending API.
const (
	PathLoanRequest    = "/merchant/{merchantId}/requests"
	PathAuth           = "/v3/auth"
	PathShippingStatus = "/v3/lead/{invId}/shipping_status"
)

// HeaderAccessToken carries the V3 access token.
const HeaderAccessToken = "X-WGT-ACCESS-TOKEN"

// Phase is a step of an adapter call, logged at debug level.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTokenRequested
	PhaseTokenFailed
	PhaseTokenObtained
	PhaseSent
	PhaseCompleted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTokenRequested:
		return "token_requested"
	case PhaseTokenFailed:
		return "token_failed"
	case PhaseTokenObtained:
		return "token_obtained"
	case PhaseSent:
		return "sent"
	case PhaseCompleted:
		return "completed"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Expand substitutes {name} placeholders of template with path-escaped params.
// Placeholders without a param are left untouched.
func Expand(template string, params map[string]string) string {
	if len(params) == 0 {
		return template
	}
	pairs := make([]string, 0, 2*len(params))
	for k, v := range params {
		pairs = append(pairs, "{"+k+"}", url.PathEscape(v))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func jsonHeader() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}

func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + path
}

func encode(body map[string]any) ([]byte, error) {
	if body == nil {
		body = map[string]any{}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return b, nil
}

// call logs and performs one POST.
type call struct {
	version   string
	transport transport.Transport
	logger    *slog.Logger
}

func (c call) post(ctx context.Context, rawURL, path string, header http.Header, body map[string]any) (*transport.Response, error) {
	b, err := encode(body)
	if err != nil {
		return nil, err
	}
	resp, err := c.transport.Send(ctx, &transport.Request{
		Method: http.MethodPost,
		URL:    rawURL,
		Header: header,
		Body:   b,
	})
	if err != nil {
		c.logger.ErrorContext(ctx, "lending api call failed",
			slog.String("api_version", c.version),
			slog.String("path", path),
			slog.Any("err", err))
		return nil, err
	}
	c.logger.InfoContext(ctx, "lending api call",
		slog.String("api_version", c.version),
		slog.String("method", http.MethodPost),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))
	return resp, nil
}

func (c call) phase(ctx context.Context, p Phase) {
	c.logger.DebugContext(ctx, "adapter phase",
		slog.String("api_version", c.version),
		slog.String("phase", p.String()))
}

func discardLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.New(slog.DiscardHandler)
	}
	return l
}
