package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"catalog-sync/internal/errors"
)

// fakeListServer serves a paginated list of n items with ids item_0..item_n-1
func fakeListServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error": {"message": "invalid key"}}`)
			return
		}

		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if err != nil || limit != 100 {
			t.Errorf("expected limit=100, got %q", r.URL.Query().Get("limit"))
		}

		start := 0
		if after := r.URL.Query().Get("starting_after"); after != "" {
			var idx int
			fmt.Sscanf(after, "item_%d", &idx)
			start = idx + 1
		}

		end := start + limit
		if end > n {
			end = n
		}
		items := make([]map[string]interface{}, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, map[string]interface{}{"id": fmt.Sprintf("item_%d", i)})
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"object":   "list",
			"data":     items,
			"has_more": end < n,
		})
	}))
}

func TestPaginateAllCollectsEveryPageInOrder(t *testing.T) {
	srv := fakeListServer(t, 250)
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123", time.Second)
	items, err := client.PaginateAll(context.Background(), "/v1/products", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 250 {
		t.Fatalf("expected 250 items, got %d", len(items))
	}
	for i, item := range items {
		want := fmt.Sprintf("item_%d", i)
		if item["id"] != want {
			t.Fatalf("item %d out of order: expected %s, got %v", i, want, item["id"])
		}
	}
}

func TestPaginateAllExactPageBoundary(t *testing.T) {
	srv := fakeListServer(t, 100)
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123", time.Second)
	items, err := client.PaginateAll(context.Background(), "/v1/products", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 100 {
		t.Fatalf("expected 100 items, got %d", len(items))
	}
}

func TestPaginateAllEmptyList(t *testing.T) {
	srv := fakeListServer(t, 0)
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123", time.Second)
	items, err := client.PaginateAll(context.Background(), "/v1/products", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

// TestPaginateAllTerminatesOnEmptyPage guards against servers that report
// has_more=true but return no items.
func TestPaginateAllTerminatesOnEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data":     []map[string]interface{}{},
			"has_more": true,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123", time.Second)
	done := make(chan struct{})
	var items []map[string]interface{}
	var err error
	go func() {
		items, err = client.PaginateAll(context.Background(), "/v1/products", nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("PaginateAll did not terminate on an empty page")
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %d", len(items))
	}
}

func TestRequestSendsFormEncodedBody(t *testing.T) {
	var gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		gotBody = r.PostForm.Get("metadata[source]")
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "prod_new"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123", time.Second)
	resp, err := client.Request(context.Background(), http.MethodPost, "/v1/products", map[string]string{
		"name":             "Widget",
		"metadata[source]": "inst_1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("expected form content type, got %q", gotContentType)
	}
	if gotBody != "inst_1" {
		t.Errorf("expected metadata[source]=inst_1, got %q", gotBody)
	}
	if resp["id"] != "prod_new" {
		t.Errorf("expected id prod_new, got %v", resp["id"])
	}
}

func TestNon2xxCarriesResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "Invalid currency: zzz"}}`)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test_123", time.Second)
	_, err := client.Request(context.Background(), http.MethodPost, "/v1/prices", nil)
	if err == nil {
		t.Fatal("expected an error for a 400 response")
	}
	if !errors.IsType(err, errors.TypeProvider) {
		t.Fatalf("expected PROVIDER_ERROR, got %v", err)
	}
	derr := err.(*errors.Error)
	body, _ := derr.Context["body"].(string)
	if body == "" {
		t.Fatal("expected response body attached to the error")
	}
	if want := "Invalid currency"; !strings.Contains(body, want) {
		t.Errorf("expected body to contain %q, got %q", want, body)
	}
}
