package query

import (
	"fmt"
	"math/big"
)

// Normalize converts engine-native values into plain Go values that survive
// JSON encoding. It is total: unknown types pass through unchanged and no
// value is ever dropped. Wide integers (DuckDB HUGEINT and friends surface
// as *big.Int) become int64 when they fit and float64 otherwise.
func Normalize(v any) any {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil
		}
		return narrowBigInt(x)
	case big.Int:
		return narrowBigInt(&x)
	case *big.Float:
		if x == nil {
			return nil
		}
		f, _ := x.Float64()
		return f
	case []byte:
		return string(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		// DuckDB MAP values scan with arbitrary key types.
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(Normalize(k))] = Normalize(item)
		}
		return out
	default:
		return v
	}
}

func narrowBigInt(x *big.Int) any {
	if x.IsInt64() {
		return x.Int64()
	}
	if x.IsUint64() {
		return float64(x.Uint64())
	}
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}
