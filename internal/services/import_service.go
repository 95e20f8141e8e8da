package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cardwatch/cardwatch/internal/metrics"
	"github.com/cardwatch/cardwatch/internal/models"
)

// ImportService merges batches of card payloads into the catalog. The whole
// operation is idempotent: importing the same payload twice leaves the
// catalog in the same state as importing it once.
type ImportService struct {
	db *gorm.DB
}

// NewImportService creates an import service bound to the given catalog.
func NewImportService(db *gorm.DB) *ImportService {
	return &ImportService{db: db}
}

// ImportSummary reports the outcome of one import batch. Skipped entries are
// recorded as warnings and never abort the rest of the batch.
type ImportSummary struct {
	BatchID   string   `json:"batch_id"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Warnings  []string `json:"warnings,omitempty"`
}

// cardPayload is one entry of the import format. Pointer fields distinguish
// "absent" from "empty": an absent optional field leaves the stored value
// untouched, a present one overwrites it.
type cardPayload struct {
	SerialNumber  string       `json:"serial_number"`
	Name          string       `json:"name"`
	SetName       *string      `json:"set_name"`
	Rarity        *string      `json:"rarity"`
	PriceCharting *sourceBlock `json:"pricecharting"`
	TCGplayer     *sourceBlock `json:"tcgplayer"`
}

// sourceBlock carries the per-vendor part of a payload. Only the metrics
// recognized for the owning source are read; unknown keys are ignored by the
// JSON decoder.
type sourceBlock struct {
	LastUpdated string      `json:"last_updated"`
	RecentSales []saleEntry `json:"recent_sales"`

	// PriceCharting metrics
	Price      *float64 `json:"price"`
	LoosePrice *float64 `json:"loose_price"`
	CibPrice   *float64 `json:"cib_price"`
	NewPrice   *float64 `json:"new_price"`

	// TCGplayer metrics
	MarketPrice  *float64 `json:"market_price"`
	ListedMedian *float64 `json:"listed_median"`
	HighPrice    *float64 `json:"high_price"`
	LowPrice     *float64 `json:"low_price"`
	DirectLow    *float64 `json:"direct_low"`
}

type saleEntry struct {
	Date   string   `json:"date"`
	Price  *float64 `json:"price"`
	Source string   `json:"source"`
}

// priceItems normalizes the block into the source-agnostic
// {price_type: value} mapping the ingestion engine works on.
func (b *sourceBlock) priceItems(source models.Source) map[models.PriceType]float64 {
	items := make(map[models.PriceType]float64)
	put := func(t models.PriceType, v *float64) {
		if v != nil {
			items[t] = *v
		}
	}

	switch source {
	case models.SourcePriceCharting:
		put(models.PriceTypeMarket, b.Price)
		put(models.PriceTypeLoose, b.LoosePrice)
		put(models.PriceTypeComplete, b.CibPrice)
		put(models.PriceTypeSealed, b.NewPrice)
	case models.SourceTCGplayer:
		put(models.PriceTypeMarket, b.MarketPrice)
		put(models.PriceTypeListedMedian, b.ListedMedian)
		put(models.PriceTypeHigh, b.HighPrice)
		put(models.PriceTypeLow, b.LowPrice)
		put(models.PriceTypeDirectLow, b.DirectLow)
	}
	return items
}

// ImportFile imports a JSON export from disk.
func (s *ImportService) ImportFile(path string) (*ImportSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}
	return s.ImportJSON(data)
}

// ImportJSON imports a JSON array of card payloads. It fails only when the
// top-level document is not a list of objects; individual bad entries are
// skipped with a warning so one bad card never blocks the rest of the batch.
func (s *ImportService) ImportJSON(data []byte) (*ImportSummary, error) {
	start := time.Now()

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("expected a JSON array of card entries: %w", err)
	}

	summary := &ImportSummary{BatchID: uuid.New().String()}
	for i, raw := range entries {
		if err := s.importEntry(raw, summary); err != nil {
			summary.Skipped++
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("entry %d: %v", i, err))
			metrics.ImportEntriesSkippedTotal.Inc()
			continue
		}
		summary.Processed++
		metrics.CardsImportedTotal.Inc()
	}

	metrics.ImportBatchDuration.Observe(time.Since(start).Seconds())
	log.Printf("Import batch %s: %d processed, %d skipped", summary.BatchID, summary.Processed, summary.Skipped)
	return summary, nil
}

// importEntry merges a single payload into the catalog: card metadata
// upsert, latest-wins snapshot upserts, and set-semantics sale inserts.
func (s *ImportService) importEntry(raw json.RawMessage, summary *ImportSummary) error {
	var payload cardPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("malformed entry: %v", err)
	}
	if payload.SerialNumber == "" || payload.Name == "" {
		return errors.New("entry must include 'serial_number' and 'name'")
	}

	card, err := s.upsertCard(&payload)
	if err != nil {
		return err
	}

	blocks := []struct {
		source models.Source
		block  *sourceBlock
	}{
		{models.SourcePriceCharting, payload.PriceCharting},
		{models.SourceTCGplayer, payload.TCGplayer},
	}

	for _, b := range blocks {
		if b.block == nil {
			continue
		}
		if err := s.UpsertSnapshots(card.ID, b.source, b.block.priceItems(b.source), b.block.LastUpdated); err != nil {
			return err
		}
		s.insertSales(card.ID, b.source, b.block.RecentSales, summary)
	}

	return nil
}

// upsertCard resolves or creates the card row for the payload's identity.
// Optional metadata is non-destructive: a present field overwrites, an
// absent one leaves existing data untouched.
func (s *ImportService) upsertCard(payload *cardPayload) (*models.Card, error) {
	serialKey := models.NormalizeSerial(payload.SerialNumber)
	nameKey := models.NormalizeName(payload.Name)

	var card models.Card
	err := s.db.Where("serial_key = ? AND name_key = ?", serialKey, nameKey).First(&card).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up card: %w", err)
	}

	card.SetIdentity(payload.SerialNumber, payload.Name)
	if payload.SetName != nil {
		card.SetName = *payload.SetName
	}
	if payload.Rarity != nil {
		card.Rarity = *payload.Rarity
	}

	if err := s.db.Save(&card).Error; err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}
	return &card, nil
}

// UpsertSnapshots writes one snapshot per metric, keyed by
// (card, source, price_type). The latest value and timestamp win
// unconditionally; there is deliberately no ordering check against the
// existing row's last_updated.
func (s *ImportService) UpsertSnapshots(cardID uint, source models.Source, items map[models.PriceType]float64, lastUpdated string) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]models.PriceSnapshot, 0, len(items))
	for priceType, value := range items {
		rows = append(rows, models.PriceSnapshot{
			CardID:      cardID,
			Source:      source,
			PriceType:   priceType,
			Value:       value,
			LastUpdated: lastUpdated,
		})
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}, {Name: "source"}, {Name: "price_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "last_updated", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("failed to upsert price snapshots: %w", err)
	}

	metrics.SnapshotUpsertsTotal.Add(float64(len(rows)))
	return nil
}

// insertSales appends previously-unseen sale records. Re-ingesting a known
// sale is a silent no-op; individual bad sale entries are recorded as
// warnings without failing the card entry.
func (s *ImportService) insertSales(cardID uint, blockSource models.Source, sales []saleEntry, summary *ImportSummary) {
	for _, sale := range sales {
		if sale.Price == nil {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("card %d: sale on %q has no price, skipped", cardID, sale.Date))
			continue
		}

		source := blockSource
		if sale.Source != "" {
			source = models.Source(sale.Source)
		}

		row := models.SaleRecord{
			CardID:   cardID,
			Source:   source,
			SaleDate: sale.Date,
			Price:    *sale.Price,
		}
		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "card_id"}, {Name: "source"}, {Name: "sale_date"}, {Name: "price"},
			},
			DoNothing: true,
		}).Create(&row).Error
		if err != nil {
			summary.Warnings = append(summary.Warnings, fmt.Sprintf("card %d: failed to record sale: %v", cardID, err))
		}
	}
}
