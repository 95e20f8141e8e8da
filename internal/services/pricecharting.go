package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/cardwatch/cardwatch/internal/metrics"
	"github.com/cardwatch/cardwatch/internal/models"
)

const (
	priceChartingBaseURL        = "https://www.pricecharting.com/api"
	priceChartingDefaultTimeout = 10 * time.Second
)

// PriceChartingService is a thin client for the PriceCharting products API.
type PriceChartingService struct {
	client  *http.Client
	token   string
	baseURL string
	limiter *rate.Limiter
}

// NewPriceChartingService creates a PriceCharting client. An empty token
// leaves the client unconfigured; lookups then return no result instead of
// failing the caller.
func NewPriceChartingService(token string) *PriceChartingService {
	return &PriceChartingService{
		client: &http.Client{
			Timeout: priceChartingDefaultTimeout,
		},
		token:   token,
		baseURL: priceChartingBaseURL,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// IsConfigured reports whether an API token is available.
func (s *PriceChartingService) IsConfigured() bool {
	return s.token != ""
}

// PriceChartingProduct holds the fields of a product match we care about.
type PriceChartingProduct struct {
	ProductName string   `json:"product_name"`
	ConsoleName string   `json:"console_name,omitempty"`
	LoosePrice  *float64 `json:"loose_price,omitempty"`
	CibPrice    *float64 `json:"cib_price,omitempty"`
	NewPrice    *float64 `json:"new_price,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// PricePoints normalizes the product into the common {price_type: value}
// mapping so the rest of the system stays source-agnostic.
func (p *PriceChartingProduct) PricePoints() map[models.PriceType]float64 {
	points := make(map[models.PriceType]float64)
	if p.LoosePrice != nil {
		points[models.PriceTypeLoose] = *p.LoosePrice
	}
	if p.CibPrice != nil {
		points[models.PriceTypeComplete] = *p.CibPrice
	}
	if p.NewPrice != nil {
		points[models.PriceTypeSealed] = *p.NewPrice
	}
	return points
}

type priceChartingResponse struct {
	Products []struct {
		ProductName string `json:"product-name"`
		ConsoleName string `json:"console-name"`
		LoosePrice  any    `json:"loose-price"`
		CibPrice    any    `json:"cib-price"`
		NewPrice    any    `json:"new-price"`
		URL         string `json:"url"`
	} `json:"products"`
}

// LookupCard searches PriceCharting for a card and returns the first product
// match, or nil when nothing matched or the client is unconfigured.
func (s *PriceChartingService) LookupCard(ctx context.Context, name, number string) (*PriceChartingProduct, error) {
	if !s.IsConfigured() {
		return nil, nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	query := name
	if number != "" {
		query = name + " " + number
	}

	params := url.Values{}
	params.Set("t", s.token)
	params.Set("q", query)
	params.Set("type", "pokemon-card")

	reqURL := fmt.Sprintf("%s/products?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	metrics.VendorRequestsTotal.WithLabelValues(string(models.SourcePriceCharting)).Inc()
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.VendorErrorsTotal.WithLabelValues(string(models.SourcePriceCharting)).Inc()
		return nil, fmt.Errorf("failed to fetch PriceCharting products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.VendorErrorsTotal.WithLabelValues(string(models.SourcePriceCharting)).Inc()
		return nil, fmt.Errorf("PriceCharting API error: status %d", resp.StatusCode)
	}

	var payload priceChartingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode PriceCharting response: %w", err)
	}
	if len(payload.Products) == 0 {
		return nil, nil
	}

	first := payload.Products[0]
	return &PriceChartingProduct{
		ProductName: first.ProductName,
		ConsoleName: first.ConsoleName,
		LoosePrice:  parsePrice(first.LoosePrice),
		CibPrice:    parsePrice(first.CibPrice),
		NewPrice:    parsePrice(first.NewPrice),
		URL:         first.URL,
	}, nil
}

// parsePrice coerces the loosely-typed price fields vendors return (number,
// numeric string, or null) into a rounded value. Unparsable input yields nil.
func parsePrice(value any) *float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		f = v
	case string:
		if v == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	rounded := math.Round(f*100) / 100
	return &rounded
}
