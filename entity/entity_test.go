package entity

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/imrishuroy/go-wgf-sdk/validation"
)

func validAddress() map[string]any {
	return map[string]any{
		"street1": "1 Main St",
		"city":    "Springfield",
		"state":   "IL",
		"zipcode": "62701",
	}
}

func validCartItem() map[string]any {
	return map[string]any{
		"sku":          "SKU-1",
		"display_name": "Desk Lamp",
		"unit_price":   "19.999",
		"quantity":     2,
		"unit_tax":     0,
	}
}

func validLoanRequest() map[string]any {
	return map[string]any{
		"first_name":       "Ada",
		"last_name":        "Lovelace",
		"shipping_amount":  5,
		"billing_address":  validAddress(),
		"shipping_address": validAddress(),
		"email":            "ada@example.com",
		"cart_items":       []any{validCartItem()},
		"version":          "1.9",
		"phone":            "5551234567",
		"success_url":      "https://shop.example.com/ok",
	}
}

func violations(t *testing.T, err error) validation.Violations {
	t.Helper()
	var verr *validation.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.ValidationError, got %v", err)
	}
	return verr.Violations
}

func fields(vs validation.Violations) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.Field)
	}
	return out
}

func TestNewAddress_ReportsEveryInvalidField(t *testing.T) {
	_, err := NewAddress(map[string]any{"street1": "a", "city": "a", "state": "a", "zipcode": "abc"})

	want := validation.Violations{
		{Field: "street1", Message: "The value of street1 is too short. It should have 2 characters or more."},
		{Field: "city", Message: "The value of city is too short. It should have 2 characters or more."},
		{Field: "state", Message: "The value of state should have exactly 2 characters."},
		{Field: "zipcode", Message: "The value of zipcode should contain only 5 numbers optionally followed by a dash and 4 numbers."},
	}
	if diff := cmp.Diff(want, violations(t, err)); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestNewAddress_Valid(t *testing.T) {
	raw := validAddress()
	raw["zipcode"] = "62701-1234"

	a, err := NewAddress(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.State != "IL" || a.Zipcode != "62701-1234" {
		t.Fatalf("unexpected address: %+v", a)
	}
}

func TestNewCartItem_MixedCasingAndMoney(t *testing.T) {
	item, err := NewCartItem(map[string]any{
		"sku":         "SKU-1",
		"displayName": "Desk Lamp",
		"unit_price":  "19.999",
		"quantity":    float64(3),
		"unitTax":     "0",
		"category":    "lighting",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.UnitPrice.Canonical() != "19.99" || item.UnitTax.Canonical() != "0.00" {
		t.Fatalf("unexpected money: %s %s", item.UnitPrice, item.UnitTax)
	}
	if item.Quantity != 3 || item.Category == nil || *item.Category != "lighting" {
		t.Fatalf("unexpected item: %+v", item)
	}
}

func TestNewCartItem_Violations(t *testing.T) {
	_, err := NewCartItem(map[string]any{
		"sku":          "",
		"display_name": "Desk Lamp",
		"unit_price":   0,
		"quantity":     1.5,
		"unit_tax":     -1,
		"category":     nil,
	})

	want := validation.Violations{
		{Field: "unitPrice", Message: "Unit Price value should not be equal to zero"},
		{Field: "unitTax", Message: "Unit Tax value should be either positive or zero"},
		{Field: "sku", Message: "The value of sku should not be blank."},
		{Field: "quantity", Message: "The value of quantity - 1.5 - is not a valid integer."},
	}
	if diff := cmp.Diff(want, violations(t, err)); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLoanRequest_AggregatesNestedViolations(t *testing.T) {
	raw := validLoanRequest()
	raw["billing_address"] = map[string]any{"street1": "1 Main St", "city": "Springfield", "state": "IL", "zipcode": "6270"}
	bad := validCartItem()
	bad["unit_tax"] = "abc"
	raw["cart_items"] = []any{validCartItem(), bad}
	raw["email"] = "not-an-email"

	_, err := NewLoanRequest(raw)
	got := fields(violations(t, err))

	want := []string{"billingAddress.zipcode", "cartItems.1.unitTax", "email"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violation fields mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLoanRequest_MissingAndWrongKinds(t *testing.T) {
	raw := validLoanRequest()
	delete(raw, "shipping_amount")
	raw["shipping_address"] = "somewhere"
	raw["cart_items"] = []any{"lamp"}
	raw["software_name"] = nil

	_, err := NewLoanRequest(raw)

	want := validation.Violations{
		{Field: "cartItems.0", Message: "The value of cart items should contain only cart items."},
		{Field: "shippingAmount", Message: "The value of shipping amount should not be null."},
		{Field: "shippingAddress", Message: "The value of shipping address is not a valid address."},
		{Field: "softwareName", Message: "The value of software name should not be null."},
	}
	if diff := cmp.Diff(want, violations(t, err)); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLoanRequest_EmptyCart(t *testing.T) {
	raw := validLoanRequest()
	raw["cart_items"] = []any{}

	_, err := NewLoanRequest(raw)

	want := []string{"The value of cart items should contain at least 1 element(s)."}
	if diff := cmp.Diff(want, violations(t, err).Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLoanRequest_PhoneMessage(t *testing.T) {
	raw := validLoanRequest()
	raw["phone"] = "555-123"

	_, err := NewLoanRequest(raw)

	want := []string{"The value of phone have to be 10 digits only."}
	if diff := cmp.Diff(want, violations(t, err).Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_LoanRequest(t *testing.T) {
	lr, err := NewLoanRequest(validLoanRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := Serialize(lr)

	address := map[string]any{"street1": "1 Main St", "city": "Springfield", "state": "IL", "zipcode": "62701"}
	want := map[string]any{
		"first_name":       "Ada",
		"last_name":        "Lovelace",
		"shipping_amount":  "5.00",
		"billing_address":  address,
		"shipping_address": address,
		"email":            "ada@example.com",
		"cart_items": []any{map[string]any{
			"sku":          "SKU-1",
			"display_name": "Desk Lamp",
			"unit_price":   "19.99",
			"quantity":     2,
			"unit_tax":     "0.00",
		}},
		"version":     "1.9",
		"phone":       "5551234567",
		"success_url": "https://shop.example.com/ok",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("wire map mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLoanRequest_FromJSON(t *testing.T) {
	body := []byte(`{
		"first_name": "Ada", "last_name": "Lovelace", "shipping_amount": 66.999999563,
		"billing_address": {"street1": "1 Main St", "city": "Springfield", "state": "IL", "zipcode": "62701"},
		"shipping_address": {"street1": "1 Main St", "city": "Springfield", "state": "IL", "zipcode": "62701"},
		"email": "ada@example.com", "version": "1.9",
		"cart_items": [{"sku": "A", "display_name": "Lamp", "unit_price": 10, "quantity": 1, "unit_tax": 0.5}]
	}`)
	raw, err := DecodeMap(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	lr, err := NewLoanRequest(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := lr.ShippingAmount.Canonical(); got != "66.99" {
		t.Fatalf("shipping amount = %q, want 66.99", got)
	}
	if lr.CartItems[0].Quantity != 1 {
		t.Fatalf("quantity = %d, want 1", lr.CartItems[0].Quantity)
	}
}

func TestDecodeMap_MoneyKeepsEveryDigit(t *testing.T) {
	raw, err := DecodeMap([]byte(`{"sku": "A", "display_name": "Lamp", "quantity": 1,
		"unit_price": 19.999999999999999999, "unit_tax": 0.0099999999999999999}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	item, err := NewCartItem(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wire := Serialize(item)
	if wire["unit_price"] != "19.99" || wire["unit_tax"] != "0.00" {
		t.Fatalf("money rounded: unit_price=%v unit_tax=%v", wire["unit_price"], wire["unit_tax"])
	}

	s, err := NewLoanSuccess(map[string]any{
		"amount": json.Number("1049.999999999999999999"), "href": "https://wegetfinancing.com/a", "inv_id": "inv-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Amount.Canonical(); got != "1049.99" {
		t.Fatalf("amount = %q, want 1049.99", got)
	}
}

func TestNewCartItem_QuantityRange(t *testing.T) {
	fromJSON := func(n string) any {
		raw, err := DecodeMap([]byte(`{"quantity": ` + n + `}`))
		if err != nil {
			t.Fatalf("decode %s: %v", n, err)
		}
		return raw["quantity"]
	}

	rejected := map[string]any{
		"float beyond int64":  float64(1e20),
		"uint64 beyond int64": uint64(math.MaxUint64),
		"json beyond int64":   fromJSON("99999999999999999999"),
		"json fraction":       fromJSON("2.5"),
		"json huge exponent":  fromJSON("1e400"),
	}
	for name, q := range rejected {
		t.Run(name, func(t *testing.T) {
			raw := validCartItem()
			raw["quantity"] = q
			_, err := NewCartItem(raw)
			if diff := cmp.Diff([]string{"quantity"}, fields(violations(t, err))); diff != "" {
				t.Fatalf("fields mismatch (-want +got):\n%s", diff)
			}
		})
	}

	accepted := map[string]any{
		"json whole decimal": fromJSON("3.0"),
		"json exponent":      fromJSON("3e0"),
		"max int64":          int64(math.MaxInt64),
	}
	for name, q := range accepted {
		t.Run(name, func(t *testing.T) {
			raw := validCartItem()
			raw["quantity"] = q
			item, err := NewCartItem(raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if item.Quantity <= 0 {
				t.Fatalf("quantity wrapped to %d", item.Quantity)
			}
		})
	}
}

func TestDecodeMap_RejectsNonObject(t *testing.T) {
	if _, err := DecodeMap([]byte(`[1,2]`)); !errors.Is(err, ErrNotAMap) {
		t.Fatalf("expected ErrNotAMap, got %v", err)
	}
	if _, err := DecodeMap([]byte(`{`)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestShippingStatusUpdate(t *testing.T) {
	u, err := NewShippingStatusUpdate(map[string]any{
		"shipping_status":  "shipped",
		"tracking_id":      "1Z999",
		"tracking_company": "UPS",
		"delivery_date":    "2026-10-19",
		"inv_id":           "inv-42",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{
		"shipping_status":  "shipped",
		"tracking_id":      "1Z999",
		"tracking_company": "UPS",
		"delivery_date":    "2026-10-19",
	}
	if diff := cmp.Diff(want, Serialize(u)); diff != "" {
		t.Fatalf("wire map mismatch (-want +got):\n%s", diff)
	}
	if u.Record()["inv_id"] != "inv-42" {
		t.Fatalf("record lost inv_id: %v", u.Record())
	}
}

func TestShippingStatusUpdate_Violations(t *testing.T) {
	_, err := NewShippingStatusUpdate(map[string]any{
		"shipping_status": "lost",
		"tracking_id":     "1Z999",
		"delivery_date":   "19/10/2026",
		"inv_id":          7,
	})

	want := []string{"shippingStatus", "trackingCompany", "deliveryDate", "invId"}
	if diff := cmp.Diff(want, fields(violations(t, err))); diff != "" {
		t.Fatalf("violation fields mismatch (-want +got):\n%s", diff)
	}
}

func TestNewCredentials(t *testing.T) {
	c, err := NewCredentials(map[string]any{
		"username":    "merchant",
		"password":    "s3cret",
		"merchant_id": "1234",
		"is_prod":     true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.IsProd || c.MerchantID != "1234" || c.BaseURL != "" {
		t.Fatalf("unexpected credentials: %+v", c)
	}
	if c.String() != "merchant 1234" {
		t.Fatalf("String() leaked fields: %q", c.String())
	}

	_, err = NewCredentials(map[string]any{"username": "m", "merchantId": "1234", "baseUrl": "not a url", "isProd": "yes"})
	want := []string{"username", "password", "baseUrl", "isProd"}
	if diff := cmp.Diff(want, fields(violations(t, err))); diff != "" {
		t.Fatalf("violation fields mismatch (-want +got):\n%s", diff)
	}
}

func TestLoanResponses(t *testing.T) {
	s, err := NewLoanSuccess(map[string]any{"amount": json.Number("1049.5"), "href": "https://wegetfinancing.com/a", "inv_id": "inv-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{"amount": "1049.50", "href": "https://wegetfinancing.com/a", "invId": "inv-1"}
	if diff := cmp.Diff(want, s.Data()); diff != "" {
		t.Fatalf("success data mismatch (-want +got):\n%s", diff)
	}

	if _, err := NewLoanSuccess(map[string]any{"amount": "x"}); err == nil {
		t.Fatal("expected error for malformed success body")
	}

	e, err := NewLoanError(map[string]any{
		"error": "invalid-request", "message": "bad", "type": "error", "stamp": "0x1",
		"reasons": []any{"first_name"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Data()["reasons"] == nil || e.Data()["debug"] != nil {
		t.Fatalf("unexpected error data: %v", e.Data())
	}
}
