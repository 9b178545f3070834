package entity

import (
	"bytes"
	"encoding/json"

	"github.com/imrishuroy/go-wgf-sdk/money"
	"github.com/imrishuroy/go-wgf-sdk/naming"
)

// WireField is one declared entity field, in declaration order.
type WireField struct {
	Name  string
	Value any
}

// Serializable entities expose their declared fields for Serialize.
type Serializable interface {
	WireFields() []WireField
}

// Serialize converts a validated entity into its wire map: field names are
// snake_cased, nested entities serialized recursively and money values
// replaced by their canonical string. Unset optional fields are omitted.
func Serialize(e Serializable) map[string]any {
	out := make(map[string]any)
	for _, f := range e.WireFields() {
		v, ok := wireValue(f.Value)
		if !ok {
			continue
		}
		out[naming.Normalize(f.Name)] = v
	}
	return out
}

func wireValue(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case *string:
		if x == nil {
			return nil, false
		}
		return *x, true
	case money.Value:
		return x.Canonical(), true
	case Serializable:
		return Serialize(x), true
	case []Serializable:
		list := make([]any, 0, len(x))
		for _, item := range x {
			list = append(list, Serialize(item))
		}
		return list, true
	}
	return v, true
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
