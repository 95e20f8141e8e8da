package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/cardwatch/cardwatch/internal/metrics"
	"github.com/cardwatch/cardwatch/internal/models"
)

const (
	tcgPlayerBaseURL        = "https://api.tcgplayer.com"
	tcgPlayerDefaultTimeout = 10 * time.Second
	tcgPlayerCategoryID     = 3 // Pokemon
	tcgPlayerSearchLimit    = 10
)

// TCGPlayerService is a minimal client for the TCGplayer catalog and pricing
// APIs. Bearer tokens are obtained with the client-credentials flow and
// cached until shortly before expiry.
type TCGPlayerService struct {
	client     *http.Client
	publicKey  string
	privateKey string
	baseURL    string
	limiter    *rate.Limiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewTCGPlayerService creates a TCGplayer client. Missing credentials leave
// the client unconfigured; lookups then return no results instead of
// failing the caller.
func NewTCGPlayerService(publicKey, privateKey string) *TCGPlayerService {
	return &TCGPlayerService{
		client: &http.Client{
			Timeout: tcgPlayerDefaultTimeout,
		},
		publicKey:  publicKey,
		privateKey: privateKey,
		baseURL:    tcgPlayerBaseURL,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
	}
}

// IsConfigured reports whether both API keys are available.
func (s *TCGPlayerService) IsConfigured() bool {
	return s.publicKey != "" && s.privateKey != ""
}

// TCGPlayerProduct is one catalog product with its current market prices.
type TCGPlayerProduct struct {
	ProductID      int      `json:"product_id"`
	Name           string   `json:"name"`
	Number         string   `json:"number,omitempty"`
	URL            string   `json:"url,omitempty"`
	MarketPrice    *float64 `json:"market_price,omitempty"`
	MedianPrice    *float64 `json:"median_price,omitempty"`
	DirectLowPrice *float64 `json:"direct_low_price,omitempty"`
}

// PricePoints normalizes the product into the common {price_type: value}
// mapping.
func (p *TCGPlayerProduct) PricePoints() map[models.PriceType]float64 {
	points := make(map[models.PriceType]float64)
	if p.MarketPrice != nil {
		points[models.PriceTypeMarket] = *p.MarketPrice
	}
	if p.MedianPrice != nil {
		points[models.PriceTypeListedMedian] = *p.MedianPrice
	}
	if p.DirectLowPrice != nil {
		points[models.PriceTypeDirectLow] = *p.DirectLowPrice
	}
	return points
}

type tcgTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type tcgCatalogResponse struct {
	Results []struct {
		ProductID    int    `json:"productId"`
		Name         string `json:"name"`
		URL          string `json:"url"`
		ExtendedData []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"extendedData"`
	} `json:"results"`
}

type tcgPricingResponse struct {
	Results []struct {
		MarketPrice    any `json:"marketPrice"`
		MidPrice       any `json:"midPrice"`
		DirectLowPrice any `json:"directLowPrice"`
	} `json:"results"`
}

// LookupCard searches the TCGplayer catalog by card name (and optional
// collector number) and resolves current prices for each match.
func (s *TCGPlayerService) LookupCard(ctx context.Context, name, number string) ([]TCGPlayerProduct, error) {
	if !s.IsConfigured() {
		return nil, nil
	}

	token, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("categoryId", fmt.Sprintf("%d", tcgPlayerCategoryID))
	params.Set("productName", name)
	params.Set("getExtendedFields", "true")
	params.Set("limit", fmt.Sprintf("%d", tcgPlayerSearchLimit))
	if number != "" {
		params.Set("productNumber", number)
	}

	var catalog tcgCatalogResponse
	reqURL := fmt.Sprintf("%s/catalog/products?%s", s.baseURL, params.Encode())
	if err := s.getJSON(ctx, reqURL, token, &catalog); err != nil {
		return nil, err
	}

	var products []TCGPlayerProduct
	for _, result := range catalog.Results {
		if result.ProductID == 0 {
			continue
		}

		cardNumber := ""
		for _, field := range result.ExtendedData {
			if strings.EqualFold(field.Name, "number") {
				cardNumber = field.Value
				break
			}
		}

		product := TCGPlayerProduct{
			ProductID: result.ProductID,
			Name:      result.Name,
			Number:    cardNumber,
			URL:       result.URL,
		}
		// Pricing failures for one product leave its price fields empty
		// rather than dropping the match.
		if market, median, directLow, err := s.fetchProductPrices(ctx, result.ProductID, token); err == nil {
			product.MarketPrice = market
			product.MedianPrice = median
			product.DirectLowPrice = directLow
		}
		products = append(products, product)
	}

	return products, nil
}

// fetchProductPrices resolves the current pricing row for one product.
func (s *TCGPlayerService) fetchProductPrices(ctx context.Context, productID int, token string) (market, median, directLow *float64, err error) {
	var pricing tcgPricingResponse
	reqURL := fmt.Sprintf("%s/pricing/product/%d", s.baseURL, productID)
	if err := s.getJSON(ctx, reqURL, token, &pricing); err != nil {
		return nil, nil, nil, err
	}
	if len(pricing.Results) == 0 {
		return nil, nil, nil, nil
	}

	first := pricing.Results[0]
	return parsePrice(first.MarketPrice), parsePrice(first.MidPrice), parsePrice(first.DirectLowPrice), nil
}

// getJSON performs an authenticated GET against the TCGplayer API.
func (s *TCGPlayerService) getJSON(ctx context.Context, reqURL, token string, out any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "bearer "+token)
	req.Header.Set("Accept", "application/json")

	metrics.VendorRequestsTotal.WithLabelValues(string(models.SourceTCGplayer)).Inc()
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.VendorErrorsTotal.WithLabelValues(string(models.SourceTCGplayer)).Inc()
		return fmt.Errorf("failed to fetch from TCGplayer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.VendorErrorsTotal.WithLabelValues(string(models.SourceTCGplayer)).Inc()
		return fmt.Errorf("TCGplayer API error: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode TCGplayer response: %w", err)
	}
	return nil
}

// authenticate returns a cached bearer token, requesting a new one when the
// cached token is within a minute of expiry.
func (s *TCGPlayerService) authenticate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.tokenExpiry) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.publicKey)
	form.Set("client_secret", s.privateKey)

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	metrics.VendorRequestsTotal.WithLabelValues(string(models.SourceTCGplayer)).Inc()
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.VendorErrorsTotal.WithLabelValues(string(models.SourceTCGplayer)).Inc()
		return "", fmt.Errorf("failed to authenticate with TCGplayer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.VendorErrorsTotal.WithLabelValues(string(models.SourceTCGplayer)).Inc()
		return "", fmt.Errorf("TCGplayer token error: status %d", resp.StatusCode)
	}

	var tokenResp tcgTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("TCGplayer token response missing access_token")
	}

	expiresIn := tokenResp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 86400
	}
	s.token = tokenResp.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(expiresIn)*time.Second - time.Minute)
	return s.token, nil
}
