// Package envelope normalizes raw lending API responses into one result shape.
//
// The two API versions disagree on how an undecodable body is reported and
// both behaviors are kept: V1 fills data with sentinel error fields while V3
// leaves data empty.
package envelope

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Sentinel fields reported by V1 when a body cannot be decoded.
const (
	UndecodableError   = "unknown-error"
	UndecodableMessage = "Impossible to decode response content."
	UndecodableType    = "error"
	UndecodableStamp   = "0x0"
)

// Envelope is the uniform result of every protocol call.
type Envelope struct {
	IsSuccess bool           `json:"isSuccess"`
	Code      string         `json:"code"`
	Data      map[string]any `json:"data"`
}

// Succeeded reports whether status is in the 2xx range.
func Succeeded(status int) bool {
	return status >= 200 && status < 300
}

// Decode parses body as a JSON object. Empty bodies decode to an empty map.
// Anything that is not a single JSON object is reported as not ok.
func Decode(body []byte) (map[string]any, bool) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, true
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil || data == nil {
		return nil, false
	}
	if dec.More() {
		return nil, false
	}
	return data, true
}

// NormalizeV1 applies the V1 policy: an undecodable body becomes an
// unsuccessful envelope carrying the sentinel error fields. V1 always answers
// with a document, so an empty body is undecodable too.
func NormalizeV1(status int, body []byte) *Envelope {
	code := strconv.Itoa(status)

	data, ok := Decode(body)
	if !ok || len(bytes.TrimSpace(body)) == 0 {
		return &Envelope{
			IsSuccess: false,
			Code:      code,
			Data: map[string]any{
				"error":   UndecodableError,
				"message": UndecodableMessage,
				"type":    UndecodableType,
				"stamp":   UndecodableStamp,
			},
		}
	}
	return &Envelope{IsSuccess: Succeeded(status), Code: code, Data: data}
}

// NormalizeV3 applies the V3 policy: an undecodable body becomes an
// unsuccessful envelope with empty data.
func NormalizeV3(status int, body []byte) *Envelope {
	code := strconv.Itoa(status)

	data, ok := Decode(body)
	if !ok {
		return &Envelope{IsSuccess: false, Code: code, Data: map[string]any{}}
	}
	return &Envelope{IsSuccess: Succeeded(status), Code: code, Data: data}
}
