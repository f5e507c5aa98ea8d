package syncer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"catalog-sync/internal/catalog"
)

func newTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := catalog.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return catalog.NewStore(db)
}

func seedInstance(t *testing.T, store *catalog.Store, orgID, name, environment string) *catalog.Instance {
	t.Helper()
	inst := &catalog.Instance{
		OrgID:       orgID,
		Name:        name,
		Environment: environment,
		APIKey:      "sk_test_" + name,
		Active:      true,
	}
	if err := store.SaveInstance(context.Background(), inst); err != nil {
		t.Fatalf("failed to seed instance %s: %v", name, err)
	}
	return inst
}

func seedProduct(t *testing.T, store *catalog.Store, orgID, instanceID, stripeID, name string) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		OrgID:      orgID,
		InstanceID: instanceID,
		StripeID:   stripeID,
		Name:       name,
		Active:     true,
		Type:       catalog.ProductTypeService,
		SyncedAt:   time.Now().UTC(),
	}
	if err := store.UpsertProduct(context.Background(), p); err != nil {
		t.Fatalf("failed to seed product %s: %v", stripeID, err)
	}
	return p
}

func seedPrice(t *testing.T, store *catalog.Store, orgID, instanceID, stripeID, productStripeID string, active bool) *catalog.Price {
	t.Helper()
	amount := int64(1500)
	p := &catalog.Price{
		OrgID:           orgID,
		InstanceID:      instanceID,
		StripeID:        stripeID,
		ProductStripeID: productStripeID,
		Active:          active,
		Currency:        "usd",
		BillingScheme:   catalog.BillingPerUnit,
		Type:            catalog.PriceRecurring,
		Interval:        "month",
		IntervalCount:   1,
		UsageType:       "licensed",
		UnitAmount:      &amount,
		Metadata:        datatypes.JSONMap{"plan": "standard"},
		SyncedAt:        time.Now().UTC(),
	}
	if err := store.UpsertPrice(context.Background(), p); err != nil {
		t.Fatalf("failed to seed price %s: %v", stripeID, err)
	}
	return p
}

// providerCall records one request seen by the fake provider
type providerCall struct {
	Method string
	Path   string
	Params map[string]string
}

// fakeProvider is a scripted stand-in for the provider client. Lists are
// keyed by path plus the type filter; mutations run through respond.
type fakeProvider struct {
	calls []providerCall

	// lists maps "path|type" to the items PaginateAll returns
	lists map[string][]map[string]interface{}

	// respond handles non-GET requests; nil means echo a generated id
	respond func(method, path string, params map[string]string) (map[string]interface{}, error)

	nextID int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{lists: map[string][]map[string]interface{}{}}
}

func (f *fakeProvider) listKey(path string, params map[string]string) string {
	return path + "|" + params["type"]
}

func (f *fakeProvider) setList(path, productType string, items []map[string]interface{}) {
	f.lists[path+"|"+productType] = items
}

func (f *fakeProvider) Get(ctx context.Context, path string, params map[string]string) (map[string]interface{}, error) {
	f.calls = append(f.calls, providerCall{"GET", path, params})
	return map[string]interface{}{}, nil
}

func (f *fakeProvider) Request(ctx context.Context, method, path string, params map[string]string) (map[string]interface{}, error) {
	f.calls = append(f.calls, providerCall{method, path, params})
	if f.respond != nil {
		return f.respond(method, path, params)
	}
	// Echo a created object the way the provider would
	f.nextID++
	resp := map[string]interface{}{
		"id":     fmt.Sprintf("gen_%d", f.nextID),
		"active": true,
	}
	for _, key := range []string{"name", "product", "currency"} {
		if params[key] != "" {
			resp[key] = params[key]
		}
	}
	return resp, nil
}

func (f *fakeProvider) PaginateAll(ctx context.Context, path string, params map[string]string) ([]map[string]interface{}, error) {
	f.calls = append(f.calls, providerCall{"LIST", path, params})
	return f.lists[f.listKey(path, params)], nil
}

// mutationCalls filters out list traffic
func (f *fakeProvider) mutationCalls() []providerCall {
	var out []providerCall
	for _, c := range f.calls {
		if c.Method != "LIST" && c.Method != "GET" {
			out = append(out, c)
		}
	}
	return out
}
