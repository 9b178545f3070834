package wgf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/imrishuroy/go-wgf-sdk/entity"
	"github.com/imrishuroy/go-wgf-sdk/transport"
	"github.com/imrishuroy/go-wgf-sdk/validation"
)

type recorder struct {
	mu      sync.Mutex
	replies []string
	status  []int
	calls   []*transport.Request
}

func (r *recorder) Send(_ context.Context, req *transport.Request) (*transport.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, req)
	i := len(r.calls) - 1
	if i >= len(r.replies) {
		return &transport.Response{StatusCode: http.StatusInternalServerError}, nil
	}
	return &transport.Response{StatusCode: r.status[i], Body: []byte(r.replies[i])}, nil
}

func testClient(t *testing.T, rec *recorder, prod bool) *Client {
	t.Helper()
	c, err := NewFromMap(map[string]any{
		"username":    "user",
		"password":    "pass",
		"merchant_id": "1234",
		"is_prod":     prod,
	}, WithTransport(rec))
	if err != nil {
		t.Fatalf("NewFromMap: %v", err)
	}
	return c
}

func loanInput() map[string]any {
	address := map[string]any{"street1": "1 Main St", "city": "Springfield", "state": "IL", "zipcode": "62701"}
	return map[string]any{
		"first_name":       "Ada",
		"last_name":        "Lovelace",
		"shipping_amount":  "7.5",
		"billing_address":  address,
		"shipping_address": address,
		"email":            "ada@example.com",
		"version":          "1.9",
		"cart_items": []any{map[string]any{
			"sku": "A-1", "display_name": "Lamp", "unit_price": 10, "quantity": 1, "unit_tax": 0.8,
		}},
	}
}

func TestRequestNewLoan_Success(t *testing.T) {
	rec := &recorder{
		status:  []int{200},
		replies: []string{`{"amount": 1049.5, "href": "https://wegetfinancing.com/app/abc", "inv_id": "inv-1"}`},
	}
	c := testClient(t, rec, false)

	resp, err := c.RequestNewLoan(context.Background(), loanInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.IsSuccess || resp.Code != "200" || resp.Success == nil || resp.Error != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	want := map[string]any{"amount": "1049.50", "href": "https://wegetfinancing.com/app/abc", "invId": "inv-1"}
	if diff := cmp.Diff(want, resp.Data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}

	req := rec.calls[0]
	if req.URL != SandboxV1URL+"/merchant/1234/requests" {
		t.Fatalf("unexpected url %s", req.URL)
	}
	var body map[string]any
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["shipping_amount"] != "7.50" {
		t.Fatalf("shipping_amount = %v", body["shipping_amount"])
	}
	item := body["cart_items"].([]any)[0].(map[string]any)
	if item["unit_price"] != "10.00" || item["unit_tax"] != "0.80" {
		t.Fatalf("unexpected cart item %v", item)
	}
}

func TestRequestNewLoan_ErrorEnvelope(t *testing.T) {
	rec := &recorder{status: []int{200}, replies: []string{"<html>"}}
	c := testClient(t, rec, true)

	resp, err := c.RequestNewLoan(context.Background(), loanInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.IsSuccess || resp.Error == nil || resp.Error.Error != "unknown-error" || resp.Error.Stamp != "0x0" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if !strings.HasPrefix(rec.calls[0].URL, ProdV1URL) {
		t.Fatalf("prod credentials sent to %s", rec.calls[0].URL)
	}
}

func TestRequestNewLoan_MalformedResponse(t *testing.T) {
	rec := &recorder{status: []int{200}, replies: []string{`{"amount": "x", "href": "h", "inv_id": "i"}`}}
	c := testClient(t, rec, false)

	_, err := c.RequestNewLoan(context.Background(), loanInput())
	var rerr *ResponseError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *ResponseError, got %v", err)
	}
	var verr *validation.ValidationError
	if !errors.As(err, &verr) || verr.Entity == "" {
		t.Fatalf("expected wrapped validation error, got %v", err)
	}
	if IsValidationError(err) {
		t.Fatal("a malformed response is not an input violation")
	}
}

func TestRequestNewLoan_InvalidInputMakesNoCall(t *testing.T) {
	rec := &recorder{}
	c := testClient(t, rec, false)

	raw := loanInput()
	raw["email"] = "nope"
	raw["billing_address"] = map[string]any{"street1": "a", "city": "Springfield", "state": "IL", "zipcode": "62701"}

	_, err := c.RequestNewLoan(context.Background(), raw)

	var verr *validation.ValidationError
	if !errors.As(err, &verr) || !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Violations) != 2 {
		t.Fatalf("expected 2 violations, got %v", verr.Violations)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("expected no network call, got %d", len(rec.calls))
	}
}

func shippingInput() map[string]any {
	return map[string]any{
		"shippingStatus":  "delivered",
		"trackingId":      "1Z999",
		"trackingCompany": "UPS",
		"deliveryDate":    "2026-10-19",
		"invId":           "inv-7",
	}
}

func TestUpdateShippingStatus(t *testing.T) {
	rec := &recorder{status: []int{200, 200}, replies: []string{`{"access_token":"tok"}`, ""}}
	c := testClient(t, rec, false)

	env, err := c.UpdateShippingStatus(context.Background(), shippingInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.IsSuccess || env.Code != "200" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(rec.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(rec.calls))
	}
	if rec.calls[1].URL != SandboxV3URL+"/v3/lead/inv-7/shipping_status" {
		t.Fatalf("unexpected url %s", rec.calls[1].URL)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.calls[1].Body, &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if _, ok := body["inv_id"]; ok {
		t.Fatal("inv_id must not be sent in the body")
	}
	if body["shipping_status"] != "delivered" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestUpdateShippingStatus_TokenRejected(t *testing.T) {
	rec := &recorder{status: []int{401}, replies: []string{`{"error":"unauthorized"}`}}
	c := testClient(t, rec, false)

	env, err := c.UpdateShippingStatus(context.Background(), shippingInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.IsSuccess || env.Code != "401" || env.Data["error"] != "unauthorized" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected exactly one call, got %d", len(rec.calls))
	}
}

func TestSendShippingStatus_MissingInvID(t *testing.T) {
	c := testClient(t, &recorder{}, false)
	if _, err := c.SendShippingStatus(context.Background(), &entity.ShippingStatusUpdate{}); !errors.Is(err, ErrMissingInvID) {
		t.Fatalf("expected ErrMissingInvID, got %v", err)
	}
}

func TestNew_BaseURLOverride(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v3/auth" {
			_, _ = w.Write([]byte(`{"access_token":"tok"}`))
			return
		}
		if r.Header.Get("X-WGT-ACCESS-TOKEN") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(&entity.Credentials{Username: "user", Password: "pass", MerchantID: "1234", BaseURL: srv.URL},
		WithHTTPClient(srv.Client()))

	env, err := c.UpdateShippingStatus(context.Background(), shippingInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.IsSuccess || env.Code != "204" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestTestPPE(t *testing.T) {
	tests := []struct {
		name string
		body string
		want *PPEStatus
	}{
		{"error", `{"error":"unknown merchant"}`, &PPEStatus{Status: PPEStatusError, Message: "unknown merchant"}},
		{"success", `[{"max_amount": 5000}]`, &PPEStatus{Status: PPEStatusSuccess}},
		{"empty list", `[]`, &PPEStatus{Status: PPEStatusEmpty, Message: EmptyLendersMessage}},
		{"no lenders", `{"lenders":[]}`, &PPEStatus{Status: PPEStatusEmpty, Message: EmptyLendersMessage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{status: []int{200}, replies: []string{tt.body}}
			c := testClient(t, rec, false)

			got, err := c.TestPPE(context.Background(), "tok en")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("status mismatch (-want +got):\n%s", diff)
			}
			if rec.calls[0].Method != http.MethodGet || rec.calls[0].URL != SandboxPPEURL+"/integration/tok%20en/ppe" {
				t.Fatalf("unexpected request %s %s", rec.calls[0].Method, rec.calls[0].URL)
			}
		})
	}
}

func TestTestPPE_Undecodable(t *testing.T) {
	rec := &recorder{status: []int{502}, replies: []string{"bad gateway"}}
	if _, err := testClient(t, rec, false).TestPPE(context.Background(), "tok"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestTestPPE_LogsCall(t *testing.T) {
	var buf bytes.Buffer
	rec := &recorder{status: []int{200}, replies: []string{`[]`}}
	c, err := NewFromMap(map[string]any{
		"username": "user", "password": "pass", "merchant_id": "1234",
	}, WithTransport(rec), WithLogger(slog.New(slog.NewJSONHandler(&buf, nil))))
	if err != nil {
		t.Fatalf("NewFromMap: %v", err)
	}
	if _, err := c.TestPPE(context.Background(), "tok"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	want := map[string]any{
		"api_version": "ppe",
		"method":      "GET",
		"path":        "/integration/tok/ppe",
		"status":      float64(200),
	}
	for k, v := range want {
		if line[k] != v {
			t.Fatalf("%s = %v, want %v (line %s)", k, line[k], v, buf.String())
		}
	}
}
