package openai_responses

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/huandu/go-clone"
)

// Accessors over loosely typed provider payloads. They never panic on a
// missing key or a value of the wrong type.

func getMap(m map[string]any, key string) (map[string]any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m[key].(map[string]any)
	return v, ok && v != nil
}

func getSlice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]any)
	return v
}

func getString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

// getInt returns the integer under key and whether it was present and numeric.
func getInt(m map[string]any, key string) (int, bool) {
	if m == nil {
		return 0, false
	}
	return toInt(m[key])
}

// getIntOr returns the integer under key, or def when it is absent.
func getIntOr(m map[string]any, key string, def int) int {
	if v, ok := getInt(m, key); ok {
		return v
	}
	return def
}

// toInt reads a token count or index out of a decoded payload. Payloads
// decoded into map[string]any carry float64, hand-built ones Go integers.
// Fractions are truncated. NaN, infinities and values outside the int range
// are rejected.
func toInt(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case int:
		return x, true
	case int32:
		return int(x), true
	case int64:
		if x > math.MaxInt || x < math.MinInt {
			return 0, false
		}
		return int(x), true
	case uint32:
		return int(x), true
	case uint64:
		if x > math.MaxInt {
			return 0, false
		}
		return int(x), true
	case uint:
		if uint64(x) > math.MaxInt {
			return 0, false
		}
		return int(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return toInt(i)
		}
		ff, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = ff
	case float64:
		f = x
	case float32:
		f = float64(x)
	default:
		return 0, false
	}
	if math.IsNaN(f) || f >= math.MaxInt || f < math.MinInt {
		return 0, false
	}
	return int(f), true
}

// scrubForLog copies an event for trace logging. Reasoning items carry an
// opaque encrypted_content blob that is useless in logs and replaced by
// its size.
func scrubForLog(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, val := range tv {
			if s, ok := val.(string); ok && k == "encrypted_content" {
				out[k] = fmt.Sprintf("<encrypted %d bytes>", len(s))
				continue
			}
			out[k] = scrubForLog(val)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, el := range tv {
			out[i] = scrubForLog(el)
		}
		return out
	default:
		return v
	}
}

// PrepareRequest returns a deep copy of the outbound payload with the
// stream flag set. The caller's payload is left untouched.
// Reasoning models do not accept temperature/top_p, those are dropped.
func PrepareRequest(payload map[string]any, stream bool) map[string]any {
	var ret map[string]any
	if payload == nil {
		ret = map[string]any{}
	} else {
		ret = clone.Clone(payload).(map[string]any)
	}
	ret["stream"] = stream
	if IsResponsesReasoningModel(getString(ret, "model")) {
		delete(ret, "temperature")
		delete(ret, "top_p")
	}
	return ret
}

// IsResponsesReasoningModel reports whether the model id names a reasoning
// model (o1/o3/o4/gpt-5 families).
func IsResponsesReasoningModel(model string) bool {
	m := strings.ToLower(model)
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3") ||
		strings.HasPrefix(m, "o4") || strings.HasPrefix(m, "gpt-5")
}
