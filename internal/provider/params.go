// Package provider implements the authenticated REST client for the
// external payment provider.
package provider

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// FlattenParams converts an arbitrary JSON-like value into the provider's
// flat bracketed-key wire encoding:
//
//	{"metadata": {"foo": "bar"}}        -> metadata[foo]=bar
//	{"tiers": [{"up_to": 100}]}         -> tiers[0][up_to]=100
//
// Object keys become parent[key], array elements parent[index], scalar
// leaves are stringified. Nil leaves are dropped entirely; they must never
// reach the wire as the string "null", which the provider rejects.
func FlattenParams(v interface{}) map[string]string {
	out := make(map[string]string)
	flattenInto(out, "", v)
	return out
}

func flattenInto(out map[string]string, prefix string, v interface{}) {
	switch val := v.(type) {
	case nil:
		return
	case map[string]interface{}:
		for k, item := range val {
			flattenInto(out, childKey(prefix, k), item)
		}
	case map[string]string:
		for k, item := range val {
			flattenInto(out, childKey(prefix, k), item)
		}
	case []interface{}:
		for i, item := range val {
			flattenInto(out, fmt.Sprintf("%s[%d]", prefix, i), item)
		}
	case []string:
		for i, item := range val {
			flattenInto(out, fmt.Sprintf("%s[%d]", prefix, i), item)
		}
	case []map[string]interface{}:
		for i, item := range val {
			flattenInto(out, fmt.Sprintf("%s[%d]", prefix, i), item)
		}
	default:
		if prefix == "" {
			return
		}
		if s, ok := stringifyScalar(val); ok {
			out[prefix] = s
		}
	}
}

func childKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "[" + key + "]"
}

// stringifyScalar renders a scalar leaf. The second return is false for
// nil-valued pointers, which are dropped like plain nil.
func stringifyScalar(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case decimal.Decimal:
		return val.String(), true
	case *int64:
		if val == nil {
			return "", false
		}
		return strconv.FormatInt(*val, 10), true
	case *int:
		if val == nil {
			return "", false
		}
		return strconv.Itoa(*val), true
	case *string:
		if val == nil {
			return "", false
		}
		return *val, true
	case *bool:
		if val == nil {
			return "", false
		}
		return strconv.FormatBool(*val), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}
