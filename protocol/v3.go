package protocol

import (
	"context"
	"log/slog"

	"github.com/imrishuroy/go-wgf-sdk/entity"
	"github.com/imrishuroy/go-wgf-sdk/envelope"
	"github.com/imrishuroy/go-wgf-sdk/transport"
)

// TokenAuthenticator trades credentials for a V3 access token.
type TokenAuthenticator struct {
	creds   *entity.Credentials
	baseURL string
	call    call
}

// NewTokenAuthenticator returns an authenticator posting to baseURL + PathAuth.
func NewTokenAuthenticator(creds *entity.Credentials, baseURL string, t transport.Transport, logger *slog.Logger) *TokenAuthenticator {
	return &TokenAuthenticator{
		creds:   creds,
		baseURL: baseURL,
		call:    call{version: "v3", transport: t, logger: discardLogger(logger)},
	}
}

// Token requests a fresh access token. When the exchange fails, token is
// empty and failed is the unsuccessful envelope derived from the token
// response: empty data for an undecodable body, the decoded body otherwise.
func (a *TokenAuthenticator) Token(ctx context.Context) (token string, failed *envelope.Envelope, err error) {
	resp, err := a.call.post(ctx, joinURL(a.baseURL, PathAuth), PathAuth, jsonHeader(), map[string]any{
		"client_id":     a.creds.Username,
		"client_secret": a.creds.Password,
	})
	if err != nil {
		return "", nil, err
	}

	env := envelope.NormalizeV3(resp.StatusCode, resp.Body)
	if env.IsSuccess {
		if tok, _ := env.Data["access_token"].(string); tok != "" {
			return tok, nil, nil
		}
	}
	env.IsSuccess = false
	return "", env, nil
}

// V3 is the token-exchange protocol adapter.
type V3 struct {
	auth    *TokenAuthenticator
	baseURL string
	call    call
}

// NewV3 returns a V3 adapter. auth and the business calls may use different hosts.
func NewV3(auth *TokenAuthenticator, baseURL string, t transport.Transport, logger *slog.Logger) *V3 {
	return &V3{
		auth:    auth,
		baseURL: baseURL,
		call:    call{version: "v3", transport: t, logger: discardLogger(logger)},
	}
}

// Send obtains a fresh token and posts body to template with params
// substituted. A failed token exchange ends the call with the token
// response's envelope and the business endpoint is not called.
func (a *V3) Send(ctx context.Context, template string, params map[string]string, body map[string]any) (*envelope.Envelope, error) {
	a.call.phase(ctx, PhaseIdle)

	a.call.phase(ctx, PhaseTokenRequested)
	token, failed, err := a.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	if failed != nil {
		a.call.phase(ctx, PhaseTokenFailed)
		a.call.phase(ctx, PhaseCompleted)
		return failed, nil
	}
	a.call.phase(ctx, PhaseTokenObtained)

	path := Expand(template, params)
	header := jsonHeader()
	header.Set(HeaderAccessToken, token)

	resp, err := a.call.post(ctx, joinURL(a.baseURL, path), path, header, body)
	if err != nil {
		return nil, err
	}
	a.call.phase(ctx, PhaseSent)

	env := envelope.NormalizeV3(resp.StatusCode, resp.Body)
	a.call.phase(ctx, PhaseCompleted)
	return env, nil
}
