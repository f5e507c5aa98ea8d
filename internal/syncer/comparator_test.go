package syncer

import (
	"context"
	"reflect"
	"testing"

	"catalog-sync/internal/catalog"
	"catalog-sync/internal/errors"
)

func setupCompareFixture(t *testing.T) (*Engine, *catalog.Store) {
	t.Helper()
	store := newTestStore(t)
	engine := NewEngine(store, func(i *catalog.Instance) ProviderAPI { return newFakeProvider() })
	return engine, store
}

func TestCompareMatchedPairReportsFieldDiff(t *testing.T) {
	engine, store := setupCompareFixture(t)
	ctx := context.Background()

	src := seedProduct(t, store, "org_1", "inst_a", "prod_a1", "Pro Plan")
	src.UnitLabel = "seat"
	if err := store.UpsertProduct(ctx, src); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	tgt := seedProduct(t, store, "org_1", "inst_b", "prod_b1", "Pro Plan")
	tgt.UnitLabel = "user"
	if err := store.UpsertProduct(ctx, tgt); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	result, err := engine.Compare(ctx, "org_1", "inst_a", "inst_b")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if len(result.Matched) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matched))
	}
	match := result.Matched[0]
	if match.SourceStripeID != "prod_a1" || match.TargetStripeID != "prod_b1" {
		t.Errorf("wrong pair: %+v", match)
	}
	if !reflect.DeepEqual(match.Diff, []string{"unit_label"}) {
		t.Errorf("expected diff [unit_label], got %v", match.Diff)
	}
	if len(result.MissingInTarget) != 0 || len(result.MissingInSource) != 0 {
		t.Errorf("matched products must not appear in missing lists: %+v", result)
	}
}

func TestCompareTrueDuplicateHasEmptyDiff(t *testing.T) {
	engine, store := setupCompareFixture(t)
	ctx := context.Background()

	seedProduct(t, store, "org_1", "inst_a", "prod_a1", "Pro Plan")
	seedProduct(t, store, "org_1", "inst_b", "prod_b1", "Pro Plan")

	result, err := engine.Compare(ctx, "org_1", "inst_a", "inst_b")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if len(result.Matched) != 1 || len(result.Matched[0].Diff) != 0 {
		t.Fatalf("expected a true duplicate with empty diff, got %+v", result.Matched)
	}
}

func TestCompareMissingSections(t *testing.T) {
	engine, store := setupCompareFixture(t)
	ctx := context.Background()

	seedProduct(t, store, "org_1", "inst_a", "prod_a1", "Source Only")
	seedProduct(t, store, "org_1", "inst_b", "prod_b1", "Target Only")

	result, err := engine.Compare(ctx, "org_1", "inst_a", "inst_b")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if len(result.Matched) != 0 {
		t.Errorf("expected no matches, got %+v", result.Matched)
	}
	if len(result.MissingInTarget) != 1 || result.MissingInTarget[0].Name != "Source Only" {
		t.Errorf("unexpected missing_in_target: %+v", result.MissingInTarget)
	}
	if len(result.MissingInSource) != 1 || result.MissingInSource[0].Name != "Target Only" {
		t.Errorf("unexpected missing_in_source: %+v", result.MissingInSource)
	}
}

func TestComparePriceCountDiff(t *testing.T) {
	engine, store := setupCompareFixture(t)
	ctx := context.Background()

	seedProduct(t, store, "org_1", "inst_a", "prod_a1", "Pro Plan")
	seedProduct(t, store, "org_1", "inst_b", "prod_b1", "Pro Plan")
	seedPrice(t, store, "org_1", "inst_a", "price_a1", "prod_a1", true)
	seedPrice(t, store, "org_1", "inst_a", "price_a2", "prod_a1", false)

	result, err := engine.Compare(ctx, "org_1", "inst_a", "inst_b")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if !reflect.DeepEqual(result.Matched[0].Diff, []string{"price_count"}) {
		t.Errorf("expected diff [price_count], got %v", result.Matched[0].Diff)
	}
}

func TestCompareOutputIsDeterministic(t *testing.T) {
	engine, store := setupCompareFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta", "Alpha", "Omega", "Beta"} {
		seedProduct(t, store, "org_1", "inst_a", "prod_a_"+name, name)
	}

	first, err := engine.Compare(ctx, "org_1", "inst_a", "inst_b")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := engine.Compare(ctx, "org_1", "inst_a", "inst_b")
		if err != nil {
			t.Fatalf("compare failed: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("output changed between runs:\n%+v\n%+v", first, again)
		}
	}
	want := []string{"Alpha", "Beta", "Omega", "Zeta"}
	for i, name := range want {
		if first.MissingInTarget[i].Name != name {
			t.Errorf("position %d: expected %q, got %q", i, name, first.MissingInTarget[i].Name)
		}
	}
}

func TestCompareNamesTheStrategy(t *testing.T) {
	engine, _ := setupCompareFixture(t)
	result, err := engine.Compare(context.Background(), "org_1", "inst_a", "inst_b")
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if result.Strategy != "display_name_exact" {
		t.Errorf("compare output must name its heuristic, got %q", result.Strategy)
	}
}

func TestCompareRejectsSameInstance(t *testing.T) {
	engine, _ := setupCompareFixture(t)
	_, err := engine.Compare(context.Background(), "org_1", "inst_a", "inst_a")
	if !errors.IsType(err, errors.TypeValidation) {
		t.Errorf("expected VALIDATION_ERROR, got %v", err)
	}
}
