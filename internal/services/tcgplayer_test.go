package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// newTestTCGPlayerService wires a client against a fake TCGplayer API that
// serves a token, one catalog product, and its pricing row.
func newTestTCGPlayerService(t *testing.T) (*TCGPlayerService, *atomic.Int32) {
	t.Helper()

	var tokenRequests atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("token request method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse token form: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q", got)
		}
		fmt.Fprint(w, `{"access_token": "test-bearer", "expires_in": 86400}`)
	})
	mux.HandleFunc("/catalog/products", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "bearer test-bearer" {
			t.Errorf("authorization = %q", got)
		}
		fmt.Fprint(w, `{"results": [{
			"productId": 42,
			"name": "Pikachu",
			"url": "https://example.test/pikachu",
			"extendedData": [{"name": "Number", "value": "58"}]
		}]}`)
	})
	mux.HandleFunc("/pricing/product/42", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [{"marketPrice": 12.0, "midPrice": 13.0, "directLowPrice": null}]}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	svc := NewTCGPlayerService("public", "private")
	svc.baseURL = server.URL
	return svc, &tokenRequests
}

func TestTCGPlayerUnconfigured(t *testing.T) {
	svc := NewTCGPlayerService("", "")

	if svc.IsConfigured() {
		t.Error("client without keys should be unconfigured")
	}

	products, err := svc.LookupCard(context.Background(), "Pikachu", "")
	if err != nil {
		t.Errorf("unconfigured lookup must not fail: %v", err)
	}
	if products != nil {
		t.Errorf("unconfigured lookup returned %v, want nil", products)
	}
}

func TestTCGPlayerLookupCard(t *testing.T) {
	svc, _ := newTestTCGPlayerService(t)

	products, err := svc.LookupCard(context.Background(), "Pikachu", "58")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("product count = %d, want 1", len(products))
	}

	product := products[0]
	if product.ProductID != 42 {
		t.Errorf("product id = %d", product.ProductID)
	}
	if product.Number != "58" {
		t.Errorf("number = %q, want 58 from extended data", product.Number)
	}
	if product.MarketPrice == nil || *product.MarketPrice != 12.0 {
		t.Errorf("market price = %v, want 12.0", product.MarketPrice)
	}
	if product.MedianPrice == nil || *product.MedianPrice != 13.0 {
		t.Errorf("median price = %v, want 13.0", product.MedianPrice)
	}
	if product.DirectLowPrice != nil {
		t.Errorf("direct low = %v, want nil for null", *product.DirectLowPrice)
	}

	points := product.PricePoints()
	if len(points) != 2 {
		t.Errorf("price points = %v, want market and median only", points)
	}
}

func TestTCGPlayerTokenIsCached(t *testing.T) {
	svc, tokenRequests := newTestTCGPlayerService(t)

	for i := 0; i < 3; i++ {
		if _, err := svc.LookupCard(context.Background(), "Pikachu", ""); err != nil {
			t.Fatalf("lookup %d failed: %v", i, err)
		}
	}

	if got := tokenRequests.Load(); got != 1 {
		t.Errorf("token requests = %d, want 1 (cached until expiry)", got)
	}
}

func TestTCGPlayerAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	svc := NewTCGPlayerService("public", "private")
	svc.baseURL = server.URL

	if _, err := svc.LookupCard(context.Background(), "Pikachu", ""); err == nil {
		t.Error("expected an error when authentication fails")
	}
}
