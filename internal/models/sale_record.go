package models

import (
	"time"
)

// SaleRecord is one historical transaction observation for a card. The
// natural key (card, source, date, price) makes re-ingesting a known sale a
// no-op: the set of sales for a card only grows, rows are never mutated.
type SaleRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CardID    uint      `json:"card_id" gorm:"not null;uniqueIndex:idx_sale_natural"`
	Source    Source    `json:"source" gorm:"not null;uniqueIndex:idx_sale_natural"`
	SaleDate  string    `json:"date" gorm:"not null;uniqueIndex:idx_sale_natural"` // ISO date, sorts lexically
	Price     float64   `json:"price" gorm:"not null;uniqueIndex:idx_sale_natural"`
	CreatedAt time.Time `json:"created_at"`
}

// CardMatch is one query result: a card with its grouped price snapshots,
// blended estimate, and most recent sales. EstimatedValue is nil when no
// price source is known for the card.
type CardMatch struct {
	Card           Card                                `json:"card"`
	Prices         map[Source]map[PriceType]PricePoint `json:"prices"`
	EstimatedValue *float64                            `json:"estimated_value"`
	RecentSales    []SaleRecord                        `json:"recent_sales,omitempty"`
}

// CardSearchResult is the API response shape for catalog searches.
type CardSearchResult struct {
	Matches    []CardMatch `json:"matches"`
	TotalCount int         `json:"total_count"`
}
