package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cardwatch/cardwatch/internal/models"
)

func TestNeedsRefresh(t *testing.T) {
	db := newTestDB(t)
	importer := NewImportService(db)
	worker := NewRefreshWorker(db, importer, NewEstimatorService(NewPriceChartingService(""), NewTCGPlayerService("", "")), 0)

	seedCatalog(t, db, `[
		{"serial_number": "A1", "name": "Fresh", "pricecharting": {"price": 10}},
		{"serial_number": "A2", "name": "Bare"}
	]`)

	var fresh, bare models.Card
	if err := db.Where("name = ?", "Fresh").First(&fresh).Error; err != nil {
		t.Fatalf("failed to fetch card: %v", err)
	}
	if err := db.Where("name = ?", "Bare").First(&bare).Error; err != nil {
		t.Fatalf("failed to fetch card: %v", err)
	}

	if worker.NeedsRefresh(fresh.ID) {
		t.Error("card with a fresh snapshot should not need a refresh")
	}
	if !worker.NeedsRefresh(bare.ID) {
		t.Error("card without snapshots should need a refresh")
	}

	// Age the snapshot beyond the staleness threshold.
	old := time.Now().Add(-SnapshotStalenessThreshold - time.Hour)
	if err := db.Model(&models.PriceSnapshot{}).Where("card_id = ?", fresh.ID).UpdateColumn("updated_at", old).Error; err != nil {
		t.Fatalf("failed to age snapshot: %v", err)
	}
	if !worker.NeedsRefresh(fresh.ID) {
		t.Error("card with only stale snapshots should need a refresh")
	}
}

func TestRefreshCardUpsertsVendorPrices(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, `[{"serial_number": "58/102", "name": "Pikachu"}]`)

	pc, _ := newTestPriceChartingService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": [{"product-name": "Pikachu", "loose-price": 10.0, "new-price": 20.0}]}`))
	})
	importer := NewImportService(db)
	worker := NewRefreshWorker(db, importer, NewEstimatorService(pc, NewTCGPlayerService("", "")), 0)

	var card models.Card
	if err := db.First(&card).Error; err != nil {
		t.Fatalf("failed to fetch card: %v", err)
	}

	if err := worker.RefreshCard(context.Background(), card.ID); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	var snapshots []models.PriceSnapshot
	if err := db.Where("card_id = ?", card.ID).Find(&snapshots).Error; err != nil {
		t.Fatalf("failed to fetch snapshots: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("snapshot count = %d, want loose and sealed", len(snapshots))
	}
	for _, s := range snapshots {
		if s.Source != models.SourcePriceCharting {
			t.Errorf("snapshot source = %s, want PriceCharting", s.Source)
		}
	}
	if worker.NeedsRefresh(card.ID) {
		t.Error("freshly refreshed card should not need another refresh")
	}
}

func TestQueueRefreshDeduplicates(t *testing.T) {
	db := newTestDB(t)
	worker := NewRefreshWorker(db, NewImportService(db), NewEstimatorService(NewPriceChartingService(""), NewTCGPlayerService("", "")), 0)

	if pos := worker.QueueRefresh(1); pos != 1 {
		t.Errorf("first queue position = %d, want 1", pos)
	}
	if pos := worker.QueueRefresh(2); pos != 2 {
		t.Errorf("second queue position = %d, want 2", pos)
	}
	if pos := worker.QueueRefresh(1); pos != 1 {
		t.Errorf("requeueing card 1 returned %d, want existing position 1", pos)
	}

	if status := worker.Status(); status.QueueSize != 2 {
		t.Errorf("queue size = %d, want 2", status.QueueSize)
	}
}
