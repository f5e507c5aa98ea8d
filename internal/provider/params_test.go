package provider

import (
	"testing"

	"github.com/shopspring/decimal"
)

// TestFlattenNestedObjectsAndArrays covers the documented wire encoding:
// object keys become parent[key], array elements parent[index].
func TestFlattenNestedObjectsAndArrays(t *testing.T) {
	got := FlattenParams(map[string]interface{}{
		"name": "Pro Plan",
		"metadata": map[string]interface{}{
			"a": "1",
		},
		"tiers": []interface{}{
			map[string]interface{}{"up_to": 5, "unit_amount": int64(1000)},
			map[string]interface{}{"up_to": nil, "unit_amount": int64(800)},
		},
	})

	want := map[string]string{
		"name":                  "Pro Plan",
		"metadata[a]":           "1",
		"tiers[0][up_to]":       "5",
		"tiers[0][unit_amount]": "1000",
		"tiers[1][unit_amount]": "800",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d: %v", len(want), len(got), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("key %q: expected %q, got %q", k, v, got[k])
		}
	}
}

// TestFlattenDropsNullLeaves proves nil leaves vanish from the output
// instead of being rendered as the string "null".
func TestFlattenDropsNullLeaves(t *testing.T) {
	got := FlattenParams(map[string]interface{}{
		"description": nil,
		"active":      true,
	})

	if _, present := got["description"]; present {
		t.Errorf("nil leaf must be absent, got %q", got["description"])
	}
	for k, v := range got {
		if v == "null" {
			t.Errorf("key %q rendered as the string \"null\"", k)
		}
	}
	if got["active"] != "true" {
		t.Errorf("expected active=true, got %q", got["active"])
	}
}

func TestFlattenNilPointerLeavesDropped(t *testing.T) {
	var upTo *int64
	bound := int64(100)
	got := FlattenParams(map[string]interface{}{
		"tiers": []interface{}{
			map[string]interface{}{"up_to": &bound},
			map[string]interface{}{"up_to": upTo},
		},
	})

	if got["tiers[0][up_to]"] != "100" {
		t.Errorf("expected tiers[0][up_to]=100, got %q", got["tiers[0][up_to]"])
	}
	if _, present := got["tiers[1][up_to]"]; present {
		t.Error("nil pointer leaf must be absent")
	}
}

func TestFlattenScalarTypes(t *testing.T) {
	got := FlattenParams(map[string]interface{}{
		"count":   42,
		"amount":  int64(1999),
		"rate":    2.5,
		"whole":   5.0,
		"percent": decimal.NewFromFloat(12.5),
		"active":  false,
	})

	cases := map[string]string{
		"count":   "42",
		"amount":  "1999",
		"rate":    "2.5",
		"whole":   "5",
		"percent": "12.5",
		"active":  "false",
	}
	for k, want := range cases {
		if got[k] != want {
			t.Errorf("key %q: expected %q, got %q", k, want, got[k])
		}
	}
}

func TestFlattenEmptyObject(t *testing.T) {
	got := FlattenParams(map[string]interface{}{
		"metadata": map[string]interface{}{},
	})
	if len(got) != 0 {
		t.Errorf("empty nested object must produce no keys, got %v", got)
	}
}

func TestFlattenStringSlice(t *testing.T) {
	got := FlattenParams(map[string]interface{}{
		"expand": []string{"data.product", "data.tiers"},
	})
	if got["expand[0]"] != "data.product" || got["expand[1]"] != "data.tiers" {
		t.Errorf("unexpected flattening: %v", got)
	}
}
