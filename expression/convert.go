package expression

import (
	"encoding/json"
	"strconv"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// toValue converts a decoded JSON document into CEL values. Integers become
// int (or uint when they only fit unsigned), other numbers become double.
func toValue(v any) ref.Val {
	switch val := v.(type) {
	case nil:
		return types.NullValue
	case bool:
		return types.Bool(val)
	case string:
		return types.String(val)
	case json.Number:
		return numberValue(val)
	case float64:
		return types.Double(val)
	case int:
		return types.Int(val)
	case int64:
		return types.Int(val)
	case []any:
		elems := make([]ref.Val, len(val))
		for i, elem := range val {
			elems[i] = toValue(elem)
		}
		return types.NewRefValList(types.DefaultTypeAdapter, elems)
	case []string:
		elems := make([]ref.Val, len(val))
		for i, elem := range val {
			elems[i] = types.String(elem)
		}
		return types.NewRefValList(types.DefaultTypeAdapter, elems)
	case map[string]any:
		return mapValue(val)
	default:
		return types.DefaultTypeAdapter.NativeToValue(val)
	}
}

func mapValue(m map[string]any) ref.Val {
	entries := make(map[ref.Val]ref.Val, len(m))
	for k, v := range m {
		entries[types.String(k)] = toValue(v)
	}
	return types.NewRefValMap(types.DefaultTypeAdapter, entries)
}

func numberValue(n json.Number) ref.Val {
	if i, err := n.Int64(); err == nil {
		return types.Int(i)
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return types.Uint(u)
	}
	if f, err := n.Float64(); err == nil {
		return types.Double(f)
	}
	return types.String(n.String())
}
