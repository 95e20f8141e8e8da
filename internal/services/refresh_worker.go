package services

import (
	"context"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/cardwatch/cardwatch/internal/metrics"
	"github.com/cardwatch/cardwatch/internal/models"
)

const (
	// SnapshotStalenessThreshold is how old a snapshot can be before the
	// worker considers the card due for a vendor refresh.
	SnapshotStalenessThreshold = 24 * time.Hour

	// defaultRefreshBatchSize caps how many cards one cycle refreshes.
	defaultRefreshBatchSize = 25
)

// RefreshWorker periodically re-fetches vendor prices for cataloged cards
// with stale or missing snapshots and feeds them through the same
// latest-wins upsert path as file imports.
type RefreshWorker struct {
	db        *gorm.DB
	importer  *ImportService
	estimator *EstimatorService
	interval  time.Duration
	batchSize int

	// Priority queue for user-requested refreshes
	urgentMu    sync.Mutex
	urgentQueue []uint

	mu             sync.RWMutex
	lastRunTime    time.Time
	cardsRefreshed int
}

// RefreshStatus describes the worker's recent activity.
type RefreshStatus struct {
	LastRunTime    time.Time `json:"last_run_time"`
	NextRunTime    time.Time `json:"next_run_time"`
	CardsRefreshed int       `json:"cards_refreshed"`
	QueueSize      int       `json:"queue_size"`
	BatchSize      int       `json:"batch_size"`
}

// NewRefreshWorker creates a refresh worker over the given catalog and
// vendor estimator.
func NewRefreshWorker(db *gorm.DB, importer *ImportService, estimator *EstimatorService, interval time.Duration) *RefreshWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &RefreshWorker{
		db:        db,
		importer:  importer,
		estimator: estimator,
		interval:  interval,
		batchSize: defaultRefreshBatchSize,
	}
}

// QueueRefresh adds a card to the high-priority refresh queue and returns
// its position.
func (w *RefreshWorker) QueueRefresh(cardID uint) int {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()

	for i, id := range w.urgentQueue {
		if id == cardID {
			return i + 1
		}
	}
	w.urgentQueue = append(w.urgentQueue, cardID)
	log.Printf("Refresh worker: queued card %d (queue size: %d)", cardID, len(w.urgentQueue))
	return len(w.urgentQueue)
}

// Status returns a snapshot of the worker's state.
func (w *RefreshWorker) Status() RefreshStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	w.urgentMu.Lock()
	queueSize := len(w.urgentQueue)
	w.urgentMu.Unlock()

	return RefreshStatus{
		LastRunTime:    w.lastRunTime,
		NextRunTime:    w.lastRunTime.Add(w.interval),
		CardsRefreshed: w.cardsRefreshed,
		QueueSize:      queueSize,
		BatchSize:      w.batchSize,
	}
}

// Start runs the refresh loop until the context is cancelled.
func (w *RefreshWorker) Start(ctx context.Context) {
	log.Printf("Refresh worker started (interval %s)", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Refresh worker stopping...")
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

// runCycle refreshes queued cards first, then fills the rest of the batch
// with stale cards.
func (w *RefreshWorker) runCycle(ctx context.Context) {
	start := time.Now()
	refreshed := 0

	for _, cardID := range w.drainQueue() {
		if err := w.RefreshCard(ctx, cardID); err != nil {
			log.Printf("Refresh worker: card %d failed: %v", cardID, err)
			continue
		}
		refreshed++
	}

	stale, err := w.staleCards(w.batchSize - refreshed)
	if err != nil {
		log.Printf("Refresh worker: failed to list stale cards: %v", err)
	}
	for _, card := range stale {
		if ctx.Err() != nil {
			return
		}
		if err := w.RefreshCard(ctx, card.ID); err != nil {
			log.Printf("Refresh worker: card %d failed: %v", card.ID, err)
			continue
		}
		refreshed++
	}

	w.mu.Lock()
	w.lastRunTime = time.Now()
	w.cardsRefreshed += refreshed
	w.mu.Unlock()

	metrics.RefreshCycleDuration.Observe(time.Since(start).Seconds())
	if refreshed > 0 {
		log.Printf("Refresh worker: refreshed %d cards in %s", refreshed, time.Since(start).Round(time.Millisecond))
	}
}

// RefreshCard fetches live vendor prices for one card and upserts them as
// snapshots. Partial vendor results are fine; a card with no responding
// source is left untouched.
func (w *RefreshWorker) RefreshCard(ctx context.Context, cardID uint) error {
	var card models.Card
	if err := w.db.First(&card, cardID).Error; err != nil {
		return err
	}

	estimate, err := w.estimator.Estimate(ctx, card.Name, card.SerialNumber)
	if err != nil {
		return err
	}

	today := time.Now().Format("2006-01-02")
	for source, points := range estimate.PricePoints {
		if err := w.importer.UpsertSnapshots(card.ID, source, points, today); err != nil {
			return err
		}
	}

	metrics.RefreshedCardsTotal.Inc()
	return nil
}

// NeedsRefresh reports whether a card has no snapshots or at least one
// stale snapshot row.
func (w *RefreshWorker) NeedsRefresh(cardID uint) bool {
	var snapshots []models.PriceSnapshot
	if err := w.db.Where("card_id = ?", cardID).Find(&snapshots).Error; err != nil {
		return true
	}
	if len(snapshots) == 0 {
		return true
	}
	cutoff := time.Now().Add(-SnapshotStalenessThreshold)
	for _, s := range snapshots {
		if s.UpdatedAt.Before(cutoff) {
			return true
		}
	}
	return false
}

func (w *RefreshWorker) drainQueue() []uint {
	w.urgentMu.Lock()
	defer w.urgentMu.Unlock()
	queued := w.urgentQueue
	w.urgentQueue = nil
	return queued
}

// staleCards returns up to limit cards whose newest snapshot is older than
// the staleness threshold, or that have no snapshots at all.
func (w *RefreshWorker) staleCards(limit int) ([]models.Card, error) {
	if limit <= 0 {
		return nil, nil
	}

	cutoff := time.Now().Add(-SnapshotStalenessThreshold)
	var cards []models.Card
	err := w.db.
		Where(`NOT EXISTS (
			SELECT 1 FROM price_snapshots
			WHERE price_snapshots.card_id = cards.id AND price_snapshots.updated_at >= ?
		)`, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}
