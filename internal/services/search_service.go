package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cardwatch/cardwatch/internal/metrics"
	"github.com/cardwatch/cardwatch/internal/models"
)

// Expected, user-visible query outcomes. Callers distinguish them with
// errors.Is.
var (
	// ErrInvalidQuery means neither a serial number nor a name was supplied.
	ErrInvalidQuery = errors.New("search requires a serial number or a name")
	// ErrNotFound means a lookup matched zero cards.
	ErrNotFound = errors.New("no card matches the given serial number and name")
	// ErrAmbiguousMatch means a lookup matched more than one card;
	// disambiguation is the caller's responsibility.
	ErrAmbiguousMatch = errors.New("more than one card matches the given serial number and name")
)

const (
	// DefaultSearchLimit caps search results when the caller gives no limit.
	DefaultSearchLimit = 10
	// DefaultSalesLimit is how many recent sales a lookup returns by default.
	DefaultSalesLimit = 5
)

// SearchService resolves search and lookup queries against the catalog and
// annotates each hit with its blended estimate and recent sales.
type SearchService struct {
	db *gorm.DB
}

// NewSearchService creates a search service bound to the given catalog.
func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{db: db}
}

// Search finds cards by case-insensitive substring containment on the serial
// number and/or name. At least one of the two must be supplied; when both
// are, a card must satisfy both. An empty result is not an error.
func (s *SearchService) Search(serialNumber, name string, limit int) ([]models.CardMatch, error) {
	if serialNumber == "" && name == "" {
		metrics.SearchRequestsTotal.WithLabelValues("search", "invalid").Inc()
		return nil, ErrInvalidQuery
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	cards, err := s.matchCards(serialNumber, name, limit)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("search", "error").Inc()
		return nil, err
	}

	matches := make([]models.CardMatch, 0, len(cards))
	for _, card := range cards {
		match, err := s.annotate(card, DefaultSalesLimit)
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}

	metrics.SearchRequestsTotal.WithLabelValues("search", "ok").Inc()
	return matches, nil
}

// Lookup resolves a single card by the conjunction of serial number and name
// fragments, both required. Zero matches is ErrNotFound, more than one is
// ErrAmbiguousMatch; the engine never guesses. On a unique match it returns
// the card with its estimate and up to salesLimit most recent sales.
func (s *SearchService) Lookup(serialNumber, name string, salesLimit int) (*models.CardMatch, error) {
	if serialNumber == "" || name == "" {
		metrics.SearchRequestsTotal.WithLabelValues("lookup", "invalid").Inc()
		return nil, ErrInvalidQuery
	}
	if salesLimit <= 0 {
		salesLimit = DefaultSalesLimit
	}

	// Fetch one extra row so a second match is detectable.
	cards, err := s.matchCards(serialNumber, name, 2)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("lookup", "error").Inc()
		return nil, err
	}

	switch len(cards) {
	case 0:
		metrics.SearchRequestsTotal.WithLabelValues("lookup", "not_found").Inc()
		return nil, ErrNotFound
	case 1:
		// Unique match, fall through.
	default:
		metrics.SearchRequestsTotal.WithLabelValues("lookup", "ambiguous").Inc()
		return nil, ErrAmbiguousMatch
	}

	match, err := s.annotate(cards[0], salesLimit)
	if err != nil {
		return nil, err
	}

	metrics.SearchRequestsTotal.WithLabelValues("lookup", "ok").Inc()
	return &match, nil
}

// GetCard fetches one card by database id with its full price and sales
// detail. Returns ErrNotFound for an unknown id.
func (s *SearchService) GetCard(id uint, salesLimit int) (*models.CardMatch, error) {
	if salesLimit <= 0 {
		salesLimit = DefaultSalesLimit
	}

	var card models.Card
	if err := s.db.First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch card: %w", err)
	}

	match, err := s.annotate(card, salesLimit)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// matchCards runs the containment query against the normalized key columns.
func (s *SearchService) matchCards(serialNumber, name string, limit int) ([]models.Card, error) {
	query := s.db.Model(&models.Card{})
	if serialNumber != "" {
		query = query.Where("serial_key LIKE ?", "%"+models.NormalizeSerial(serialNumber)+"%")
	}
	if name != "" {
		query = query.Where("name_key LIKE ?", "%"+models.NormalizeName(name)+"%")
	}

	var cards []models.Card
	if err := query.Order("name_key ASC, serial_key ASC").Limit(limit).Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("failed to search cards: %w", err)
	}
	return cards, nil
}

// annotate attaches grouped prices, the blended estimate, and the most
// recent sales (date descending, ties by insertion order) to a card.
func (s *SearchService) annotate(card models.Card, salesLimit int) (models.CardMatch, error) {
	var snapshots []models.PriceSnapshot
	err := s.db.Where("card_id = ?", card.ID).
		Order("source ASC, price_type ASC").
		Find(&snapshots).Error
	if err != nil {
		return models.CardMatch{}, fmt.Errorf("failed to fetch price snapshots: %w", err)
	}

	var sales []models.SaleRecord
	err = s.db.Where("card_id = ?", card.ID).
		Order("sale_date DESC, id ASC").
		Limit(salesLimit).
		Find(&sales).Error
	if err != nil {
		return models.CardMatch{}, fmt.Errorf("failed to fetch sales: %w", err)
	}

	return models.CardMatch{
		Card:           card,
		Prices:         models.GroupSnapshots(snapshots),
		EstimatedValue: BlendEstimate(models.SnapshotValues(snapshots)),
		RecentSales:    sales,
	}, nil
}
