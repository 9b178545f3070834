// Package money holds the canonical fixed-point monetary value used by
// every amount the lending API accepts or returns.
package money

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-wgf-sdk/validation"
)

const (
	// Decimals is the number of fractional digits of the canonical form.
	Decimals = 2

	// DefaultName labels values created without a name.
	DefaultName = "unknown"
)

// Value is a validated, non-negative monetary amount. The zero Value is 0.00.
type Value struct {
	d    decimal.Decimal
	name string
}

// New validates raw and returns its Value. raw may be any integer or float
// type, a numeric string, a json.Number or a decimal.Decimal. Every rule is
// evaluated; the returned violations are prefixed with name.
func New(raw any, name string, zeroAllowed bool) (Value, validation.Violations) {
	if name == "" {
		name = DefaultName
	}

	var vs validation.Violations
	add := func(msg string) {
		vs = append(vs, validation.Violation{Message: name + " " + msg})
	}

	if isBlank(raw) {
		add("value should not be blank")
	}

	d, ok := parse(raw)
	if !ok {
		add("value is not a valid numeric value")
		return Value{}, vs
	}
	if d.IsNegative() {
		add("value should be either positive or zero")
	}
	if d.IsZero() && !zeroAllowed {
		add("value should not be equal to zero")
	}

	if len(vs) > 0 {
		return Value{}, vs
	}
	return Value{d: d, name: name}, nil
}

// MustNew is New for literals known to be valid; it panics otherwise.
func MustNew(raw any, name string, zeroAllowed bool) Value {
	v, vs := New(raw, name, zeroAllowed)
	if len(vs) > 0 {
		panic(vs.Messages()[0])
	}
	return v
}

// Name is the label the value was created with.
func (v Value) Name() string { return v.name }

// Canonical formats the value with exactly two fractional digits, truncating
// extra digits rather than rounding: 66.999999563 -> "66.99", 5 -> "5.00".
func (v Value) Canonical() string {
	return v.d.Truncate(Decimals).StringFixed(Decimals)
}

func (v Value) String() string { return v.Canonical() }

// MarshalJSON encodes the canonical string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Canonical())
}

func isBlank(raw any) bool {
	switch x := raw.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case json.Number:
		return x == ""
	}
	return false
}

func parse(raw any) (decimal.Decimal, bool) {
	switch x := raw.(type) {
	case decimal.Decimal:
		return x, true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int8:
		return decimal.NewFromInt(int64(x)), true
	case int16:
		return decimal.NewFromInt(int64(x)), true
	case int32:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case uint:
		return decimal.NewFromUint64(uint64(x)), true
	case uint8:
		return decimal.NewFromUint64(uint64(x)), true
	case uint16:
		return decimal.NewFromUint64(uint64(x)), true
	case uint32:
		return decimal.NewFromUint64(uint64(x)), true
	case uint64:
		return decimal.NewFromUint64(x), true
	case float32:
		if !finite(float64(x)) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat32(x), true
	case float64:
		if !finite(x) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(x), true
	case json.Number:
		return parseString(string(x))
	case string:
		return parseString(x)
	}
	return decimal.Decimal{}, false
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func parseString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
