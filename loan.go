package wgf

import (
	"context"
	"fmt"

	"github.com/imrishuroy/go-wgf-sdk/entity"
	"github.com/imrishuroy/go-wgf-sdk/envelope"
	"github.com/imrishuroy/go-wgf-sdk/protocol"
)

// LoanResponse is the envelope of a loan request. Exactly one of Success and
// Error is set, matching Envelope.IsSuccess, and Envelope.Data holds the
// same shape as a map.
type LoanResponse struct {
	envelope.Envelope
	Success *entity.LoanSuccess
	Error   *entity.LoanError
}

// ResponseError reports a lending API answer that matches neither the loan
// success nor the loan error shape. Err is the *validation.ValidationError
// raised while reading it.
type ResponseError struct {
	Err error
}

func (e *ResponseError) Error() string { return "loan response: " + e.Err.Error() }

func (e *ResponseError) Unwrap() error { return e.Err }

// RequestNewLoan validates raw as a loan request and sends it through the
// V1 adapter. Invalid input is a *validation.ValidationError; a response body
// that does not match the success or error shape is a *ResponseError.
func (c *Client) RequestNewLoan(ctx context.Context, raw map[string]any) (*LoanResponse, error) {
	req, err := entity.NewLoanRequest(raw)
	if err != nil {
		return nil, err
	}
	return c.SendLoanRequest(ctx, req)
}

// SendLoanRequest sends an already validated loan request.
func (c *Client) SendLoanRequest(ctx context.Context, req *entity.LoanRequest) (*LoanResponse, error) {
	env, err := c.v1.Send(ctx, protocol.PathLoanRequest, nil, entity.Serialize(req))
	if err != nil {
		return nil, fmt.Errorf("request new loan: %w", err)
	}

	resp := &LoanResponse{Envelope: *env}
	if env.IsSuccess {
		s, err := entity.NewLoanSuccess(env.Data)
		if err != nil {
			return nil, &ResponseError{Err: err}
		}
		resp.Success = s
		resp.Data = s.Data()
		return resp, nil
	}

	e, err := entity.NewLoanError(env.Data)
	if err != nil {
		return nil, &ResponseError{Err: err}
	}
	resp.Error = e
	resp.Data = e.Data()
	return resp, nil
}
