// Package entity builds validated, immutable request and response entities
// from loosely typed nested maps and serializes them into the wire format.
//
// Every builder evaluates all of its fields, including nested entities, and
// reports the complete violation list in a single *validation.ValidationError.
package entity

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-wgf-sdk/naming"
	"github.com/imrishuroy/go-wgf-sdk/validation"
)

// ErrNotAMap is returned by the Decode helpers when the JSON document is not an object.
var ErrNotAMap = errors.New("entity: input is not a JSON object")

var engine = validation.New()

// input denormalizes the keys of raw. Keys are visited in sorted order so a
// field supplied in both casings resolves the same way on every call.
// Unknown keys are carried along and ignored by the schemas.
func input(raw map[string]any) map[string]any {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	in := make(map[string]any, len(raw))
	for _, k := range keys {
		in[naming.Denormalize(k)] = number(raw[k])
	}
	return in
}

// number turns a json.Number holding a whole int64 ("3", "3.0", "3e2") into
// int64 so integer rules see a numeric kind. Every other json.Number is kept
// as is: money parses its digits exactly, and the integer rules reject it.
func number(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	d, err := decimal.NewFromString(string(n))
	if err == nil && d.Exponent() >= -18 && d.Exponent() <= 18 && d.IsInteger() && d.BigInt().IsInt64() {
		return d.IntPart()
	}
	return v
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, s := range m {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []map[string]any:
		out := make([]any, 0, len(l))
		for _, m := range l {
			out = append(out, m)
		}
		return out, true
	}
	return nil, false
}

// present reports whether key holds a non-nil value.
func present(in map[string]any, key string) (any, bool) {
	v, ok := in[key]
	return v, ok && v != nil
}

// The accessors below run after validation, so the type switches only
// cover kinds the schemas accept.

func str(in map[string]any, key string) string {
	s, _ := in[key].(string)
	return s
}

func optStr(in map[string]any, key string) *string {
	s, ok := in[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// integer relies on validation.TagInteger having bounded the value to int64.
func integer(in map[string]any, key string) int {
	switch n := in[key].(type) {
	case int:
		return n
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	case float32:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func index(parent string, i int) string {
	return parent + "." + strconv.Itoa(i)
}

// DecodeMap decodes a JSON object preserving number precision, ready for the New* builders.
func DecodeMap(data []byte) (map[string]any, error) {
	var v any
	if err := decodeJSON(data, &v); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotAMap
	}
	return m, nil
}
