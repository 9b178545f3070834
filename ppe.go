package wgf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/imrishuroy/go-wgf-sdk/protocol"
	"github.com/imrishuroy/go-wgf-sdk/transport"
)

// PPE check outcomes.
const (
	PPEStatusSuccess = "success"
	PPEStatusError   = "error"
	PPEStatusEmpty   = "empty"
)

// EmptyLendersMessage is reported when the merchant has no PPE lenders.
const EmptyLendersMessage = "The merchant account you've selected isn't properly configured for PPE use yet. " +
	"Please reach out to our support team to get your account set up correctly."

const pathPPE = "/integration/{merchantToken}/ppe"

// PPEStatus is the result of a point-of-purchase estimate check.
type PPEStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// TestPPE checks whether the merchant identified by merchantToken has PPE
// lenders configured. An undecodable response is an error.
func (c *Client) TestPPE(ctx context.Context, merchantToken string) (*PPEStatus, error) {
	path := protocol.Expand(pathPPE, map[string]string{"merchantToken": merchantToken})
	resp, err := c.transport.Send(ctx, &transport.Request{
		Method: http.MethodGet,
		URL:    c.ppeURL + path,
		Header: http.Header{"Accept": {"application/json"}},
	})
	if err != nil {
		return nil, fmt.Errorf("test ppe: %w", err)
	}
	c.logger.InfoContext(ctx, "ppe call",
		slog.String("api_version", "ppe"),
		slog.String("method", http.MethodGet),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))

	var body any
	if err := json.NewDecoder(bytes.NewReader(resp.Body)).Decode(&body); err != nil {
		return nil, fmt.Errorf("test ppe: decode response: %w", err)
	}

	switch b := body.(type) {
	case map[string]any:
		if msg, ok := b["error"]; ok {
			return &PPEStatus{Status: PPEStatusError, Message: fmt.Sprint(msg)}, nil
		}
	case []any:
		if len(b) > 0 {
			if first, ok := b[0].(map[string]any); ok {
				if _, ok := first["max_amount"]; ok {
					return &PPEStatus{Status: PPEStatusSuccess}, nil
				}
			}
		}
	}
	return &PPEStatus{Status: PPEStatusEmpty, Message: EmptyLendersMessage}, nil
}
