package services

import (
	"context"
	"log"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cardwatch/cardwatch/internal/models"
)

const estimatorCacheSize = 128

// LiveEstimate is the result of querying the vendor APIs directly for a card
// that may not be in the catalog yet. Sources that failed or were not
// configured are listed in Unavailable; the estimate is blended from
// whatever price points arrived.
type LiveEstimate struct {
	Query          string                                         `json:"query"`
	PricePoints    map[models.Source]map[models.PriceType]float64 `json:"price_points"`
	EstimatedValue *float64                                       `json:"estimated_value"`
	Unavailable    []models.Source                                `json:"unavailable_sources,omitempty"`
}

// EstimatorService answers live price estimates by fanning out to the vendor
// clients. Vendor failures degrade to partial results, never to a hard
// failure of the whole query.
type EstimatorService struct {
	priceCharting *PriceChartingService
	tcgPlayer     *TCGPlayerService
	cache         *lru.Cache[string, *LiveEstimate]
}

// NewEstimatorService creates an estimator over the given vendor clients.
func NewEstimatorService(priceCharting *PriceChartingService, tcgPlayer *TCGPlayerService) *EstimatorService {
	cache, err := lru.New[string, *LiveEstimate](estimatorCacheSize)
	if err != nil {
		// Only possible with a non-positive size.
		panic(err)
	}
	return &EstimatorService{
		priceCharting: priceCharting,
		tcgPlayer:     tcgPlayer,
		cache:         cache,
	}
}

// Estimate fetches current price points for a card name (and optional
// collector number) from every configured source and blends them. Repeated
// queries within a process are served from an LRU cache.
func (s *EstimatorService) Estimate(ctx context.Context, name, number string) (*LiveEstimate, error) {
	key := estimateCacheKey(name, number)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	estimate := &LiveEstimate{
		Query:       key,
		PricePoints: make(map[models.Source]map[models.PriceType]float64),
	}

	s.collectPriceCharting(ctx, name, number, estimate)
	s.collectTCGPlayer(ctx, name, number, estimate)

	var values []float64
	for _, points := range estimate.PricePoints {
		for _, v := range points {
			values = append(values, v)
		}
	}
	estimate.EstimatedValue = BlendEstimate(values)

	s.cache.Add(key, estimate)
	return estimate, nil
}

func (s *EstimatorService) collectPriceCharting(ctx context.Context, name, number string, estimate *LiveEstimate) {
	if !s.priceCharting.IsConfigured() {
		estimate.Unavailable = append(estimate.Unavailable, models.SourcePriceCharting)
		return
	}

	product, err := s.priceCharting.LookupCard(ctx, name, number)
	if err != nil {
		log.Printf("PriceCharting lookup failed for %q: %v", name, err)
		estimate.Unavailable = append(estimate.Unavailable, models.SourcePriceCharting)
		return
	}
	if product == nil {
		return
	}
	if points := product.PricePoints(); len(points) > 0 {
		estimate.PricePoints[models.SourcePriceCharting] = points
	}
}

func (s *EstimatorService) collectTCGPlayer(ctx context.Context, name, number string, estimate *LiveEstimate) {
	if !s.tcgPlayer.IsConfigured() {
		estimate.Unavailable = append(estimate.Unavailable, models.SourceTCGplayer)
		return
	}

	products, err := s.tcgPlayer.LookupCard(ctx, name, number)
	if err != nil {
		log.Printf("TCGplayer lookup failed for %q: %v", name, err)
		estimate.Unavailable = append(estimate.Unavailable, models.SourceTCGplayer)
		return
	}
	if len(products) == 0 {
		return
	}

	// The first catalog match is the closest one; its metrics become the
	// source's contribution.
	if points := products[0].PricePoints(); len(points) > 0 {
		estimate.PricePoints[models.SourceTCGplayer] = points
	}
}

func estimateCacheKey(name, number string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	number = strings.ToLower(strings.TrimSpace(number))
	if number == "" {
		return name
	}
	return name + "#" + number
}
