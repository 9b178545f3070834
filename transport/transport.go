// Package transport sends JSON requests to the lending API.
package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single round trip of the default HTTP transport.
const DefaultTimeout = 30 * time.Second

// Request is one outgoing call. Body is the encoded JSON document and may be nil.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response carries the raw status and body. Non-2xx statuses are not errors.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs a single round trip. Implementations return an error
// only for transport-level faults (DNS, TLS, connection); the SDK never
// retries them. Implementations must be safe for concurrent use.
type Transport interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// HTTP is the net/http backed Transport.
type HTTP struct {
	Client *http.Client
}

// NewHTTP returns an HTTP transport. A nil client gets DefaultTimeout.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTP{Client: client}
}

func (t *HTTP) Send(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transport: %s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("transport: read body: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, req *Request) (*Response, error)

func (f Func) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
