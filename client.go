// Package wgf is a client for the WeGetFinancing lending API.
//
// Callers pass loosely typed maps; keys may be snake_case or camelCase.
// Invalid input is reported as a *validation.ValidationError carrying every
// violation before any network call is made. Protocol level failures come
// back as unsuccessful envelopes, and only transport faults are errors.
package wgf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/imrishuroy/go-wgf-sdk/entity"
	"github.com/imrishuroy/go-wgf-sdk/envelope"
	"github.com/imrishuroy/go-wgf-sdk/protocol"
	"github.com/imrishuroy/go-wgf-sdk/transport"
	"github.com/imrishuroy/go-wgf-sdk/validation"
)

// Default hosts per environment.
const (
	ProdV1URL     = "https://api.wegetfinancing.com"
	SandboxV1URL  = "https://api.sandbox.wegetfinancing.com"
	ProdV3URL     = "https://apisrv.wegetfinancing.com"
	SandboxV3URL  = "https://apisrv.sandbox.wegetfinancing.com"
	ProdPPEURL    = "https://partner.wegetfinancing.com"
	SandboxPPEURL = "https://partner.sandbox.wegetfinancing.com"
)

// ErrMissingInvID is returned when a shipping update has no invId to address.
var ErrMissingInvID = errors.New("wgf: missing invId")

// Client sends requests for one merchant. It is safe for concurrent use when
// its transport is.
type Client struct {
	creds     *entity.Credentials
	transport transport.Transport
	logger    *slog.Logger

	v1URL  string
	v3URL  string
	ppeURL string

	v1 *protocol.V1
	v3 *protocol.V3
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the HTTP transport.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithHTTPClient uses client for the default HTTP transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.transport = transport.NewHTTP(client) }
}

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithV1BaseURL(u string) Option {
	return func(c *Client) { c.v1URL = u }
}

func WithV3BaseURL(u string) Option {
	return func(c *Client) { c.v3URL = u }
}

func WithPPEBaseURL(u string) Option {
	return func(c *Client) { c.ppeURL = u }
}

// New returns a Client for creds. Hosts default to production or sandbox
// by creds.IsProd; creds.BaseURL overrides both API versions.
func New(creds *entity.Credentials, opts ...Option) *Client {
	c := &Client{
		creds:  creds,
		v1URL:  SandboxV1URL,
		v3URL:  SandboxV3URL,
		ppeURL: SandboxPPEURL,
	}
	if creds.IsProd {
		c.v1URL, c.v3URL, c.ppeURL = ProdV1URL, ProdV3URL, ProdPPEURL
	}
	if creds.BaseURL != "" {
		c.v1URL, c.v3URL = creds.BaseURL, creds.BaseURL
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		c.transport = transport.NewHTTP(nil)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	c.v1 = protocol.NewV1(creds, c.v1URL, c.transport, c.logger)
	auth := protocol.NewTokenAuthenticator(creds, c.v3URL, c.transport, c.logger)
	c.v3 = protocol.NewV3(auth, c.v3URL, c.transport, c.logger)
	return c
}

// NewFromMap validates raw credentials and returns a Client.
func NewFromMap(raw map[string]any, opts ...Option) (*Client, error) {
	creds, err := entity.NewCredentials(raw)
	if err != nil {
		return nil, err
	}
	return New(creds, opts...), nil
}

// UpdateShippingStatus validates raw as a shipping status update and sends
// it through the V3 adapter. invId addresses the lead and is not sent in the body.
func (c *Client) UpdateShippingStatus(ctx context.Context, raw map[string]any) (*envelope.Envelope, error) {
	update, err := entity.NewShippingStatusUpdate(raw)
	if err != nil {
		return nil, err
	}
	return c.SendShippingStatus(ctx, update)
}

// SendShippingStatus sends an already validated update.
func (c *Client) SendShippingStatus(ctx context.Context, update *entity.ShippingStatusUpdate) (*envelope.Envelope, error) {
	if update.InvID == "" {
		return nil, ErrMissingInvID
	}
	env, err := c.v3.Send(ctx, protocol.PathShippingStatus,
		map[string]string{"invId": update.InvID}, entity.Serialize(update))
	if err != nil {
		return nil, fmt.Errorf("update shipping status: %w", err)
	}
	return env, nil
}

// IsValidationError reports whether err carries input violations. A
// *ResponseError is not one even though it wraps violations.
func IsValidationError(err error) bool {
	var rerr *ResponseError
	if errors.As(err, &rerr) {
		return false
	}
	var verr *validation.ValidationError
	return errors.As(err, &verr)
}
