package protocol

import (
	"context"
	"encoding/base64"
	"log/slog"

	"github.com/imrishuroy/go-wgf-sdk/entity"
	"github.com/imrishuroy/go-wgf-sdk/envelope"
	"github.com/imrishuroy/go-wgf-sdk/transport"
)

// V1 is the Basic-Auth protocol adapter.
type V1 struct {
	creds   *entity.Credentials
	baseURL string
	call    call
}

// NewV1 returns a V1 adapter sending to baseURL.
func NewV1(creds *entity.Credentials, baseURL string, t transport.Transport, logger *slog.Logger) *V1 {
	return &V1{
		creds:   creds,
		baseURL: baseURL,
		call:    call{version: "v1", transport: t, logger: discardLogger(logger)},
	}
}

// Send posts body to template, with {merchantId} and params substituted, and
// normalizes the response with the V1 policy. Only transport faults and
// unencodable bodies are returned as errors.
func (a *V1) Send(ctx context.Context, template string, params map[string]string, body map[string]any) (*envelope.Envelope, error) {
	a.call.phase(ctx, PhaseIdle)

	values := map[string]string{"merchantId": a.creds.MerchantID}
	for k, v := range params {
		values[k] = v
	}
	path := Expand(template, values)

	header := jsonHeader()
	header.Set("Authorization", basicAuth(a.creds.Username, a.creds.Password))

	resp, err := a.call.post(ctx, joinURL(a.baseURL, path), path, header, body)
	if err != nil {
		return nil, err
	}
	a.call.phase(ctx, PhaseSent)

	env := envelope.NormalizeV1(resp.StatusCode, resp.Body)
	a.call.phase(ctx, PhaseCompleted)
	return env, nil
}

func basicAuth(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}
