package models

import (
	"time"
)

// Source identifies the vendor a price or sale datum came from.
type Source string

const (
	SourcePriceCharting Source = "PriceCharting"
	SourceTCGplayer     Source = "TCGplayer"
)

// AllSources returns every supported vendor source.
func AllSources() []Source {
	return []Source{SourcePriceCharting, SourceTCGplayer}
}

// PriceType enumerates the metrics a source can report for a card.
type PriceType string

const (
	PriceTypeMarket       PriceType = "market_price"
	PriceTypeListedMedian PriceType = "listed_median"
	PriceTypeLoose        PriceType = "loose_price"
	PriceTypeComplete     PriceType = "complete_price"
	PriceTypeSealed       PriceType = "sealed_price"
	PriceTypeHigh         PriceType = "high_price"
	PriceTypeLow          PriceType = "low_price"
	PriceTypeDirectLow    PriceType = "direct_low"
)

// PriceSnapshot is the current value for one (card, source, metric) triple.
// There is exactly one row per triple: a later import replaces the value and
// timestamp unconditionally, it never appends a second row.
type PriceSnapshot struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CardID      uint      `json:"card_id" gorm:"not null;uniqueIndex:idx_snapshot_card_source_type"`
	Source      Source    `json:"source" gorm:"not null;uniqueIndex:idx_snapshot_card_source_type"`
	PriceType   PriceType `json:"price_type" gorm:"not null;uniqueIndex:idx_snapshot_card_source_type"`
	Value       float64   `json:"value"`
	LastUpdated string    `json:"last_updated,omitempty"` // date as reported by the feed
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PricePoint is the per-metric view of a snapshot used in query results.
type PricePoint struct {
	Value       float64 `json:"value"`
	LastUpdated string  `json:"last_updated,omitempty"`
}

// GroupSnapshots arranges snapshot rows by source and metric for rendering.
func GroupSnapshots(snapshots []PriceSnapshot) map[Source]map[PriceType]PricePoint {
	grouped := make(map[Source]map[PriceType]PricePoint)
	for _, s := range snapshots {
		if grouped[s.Source] == nil {
			grouped[s.Source] = make(map[PriceType]PricePoint)
		}
		grouped[s.Source][s.PriceType] = PricePoint{
			Value:       s.Value,
			LastUpdated: s.LastUpdated,
		}
	}
	return grouped
}

// SnapshotValues extracts the raw values from snapshot rows, in row order.
// This is the input shape the blending algorithm works on.
func SnapshotValues(snapshots []PriceSnapshot) []float64 {
	values := make([]float64, 0, len(snapshots))
	for _, s := range snapshots {
		values = append(values, s.Value)
	}
	return values
}
