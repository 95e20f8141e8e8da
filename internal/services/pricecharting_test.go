package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestPriceChartingService(t *testing.T, handler http.HandlerFunc) (*PriceChartingService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewPriceChartingService("test-token")
	svc.baseURL = server.URL
	return svc, server
}

func TestPriceChartingUnconfigured(t *testing.T) {
	svc := NewPriceChartingService("")

	if svc.IsConfigured() {
		t.Error("client without token should be unconfigured")
	}

	product, err := svc.LookupCard(context.Background(), "Pikachu", "58")
	if err != nil {
		t.Errorf("unconfigured lookup must not fail: %v", err)
	}
	if product != nil {
		t.Errorf("unconfigured lookup returned %+v, want nil", product)
	}
}

func TestPriceChartingLookupCard(t *testing.T) {
	svc, _ := newTestPriceChartingService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Pikachu 58" {
			t.Errorf("query = %q, want 'Pikachu 58'", got)
		}
		if got := r.URL.Query().Get("t"); got != "test-token" {
			t.Errorf("token = %q, want test-token", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products": [
			{"product-name": "Pikachu #58", "console-name": "Pokemon Base Set",
			 "loose-price": "11.00", "cib-price": null, "new-price": 10.505,
			 "url": "/game/pokemon-base-set/pikachu-58"},
			{"product-name": "Other Match", "loose-price": "1.00"}
		]}`))
	})

	product, err := svc.LookupCard(context.Background(), "Pikachu", "58")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if product == nil {
		t.Fatal("expected the first product match")
	}

	if product.ProductName != "Pikachu #58" {
		t.Errorf("product name = %q", product.ProductName)
	}
	if product.LoosePrice == nil || *product.LoosePrice != 11.0 {
		t.Errorf("loose price = %v, want 11.0 parsed from string", product.LoosePrice)
	}
	if product.CibPrice != nil {
		t.Errorf("cib price = %v, want nil for null", *product.CibPrice)
	}
	if product.NewPrice == nil || *product.NewPrice != 10.51 {
		t.Errorf("new price = %v, want 10.51 rounded", product.NewPrice)
	}

	points := product.PricePoints()
	if len(points) != 2 {
		t.Errorf("price points = %v, want loose and sealed only", points)
	}
}

func TestPriceChartingNoMatches(t *testing.T) {
	svc, _ := newTestPriceChartingService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": []}`))
	})

	product, err := svc.LookupCard(context.Background(), "Nonexistent", "")
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if product != nil {
		t.Errorf("product = %+v, want nil for no matches", product)
	}
}

func TestPriceChartingServerError(t *testing.T) {
	svc, _ := newTestPriceChartingService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := svc.LookupCard(context.Background(), "Pikachu", ""); err == nil {
		t.Error("expected an error for a 500 response")
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected *float64
	}{
		{"nil", nil, nil},
		{"number", 12.5, ptr(12.5)},
		{"numeric string", "148.00", ptr(148.0)},
		{"rounds to cents", 10.999, ptr(11.0)},
		{"empty string", "", nil},
		{"garbage string", "n/a", nil},
		{"wrong type", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parsePrice(tt.input)
			switch {
			case tt.expected == nil && result != nil:
				t.Errorf("parsePrice(%v) = %v, want nil", tt.input, *result)
			case tt.expected != nil && result == nil:
				t.Errorf("parsePrice(%v) = nil, want %v", tt.input, *tt.expected)
			case tt.expected != nil && *result != *tt.expected:
				t.Errorf("parsePrice(%v) = %v, want %v", tt.input, *result, *tt.expected)
			}
		})
	}
}

func ptr(v float64) *float64 { return &v }
