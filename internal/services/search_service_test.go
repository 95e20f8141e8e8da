package services

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func seedCatalog(t *testing.T, db *gorm.DB, payload string) {
	t.Helper()
	summary, err := NewImportService(db).ImportJSON([]byte(payload))
	if err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	if summary.Skipped != 0 {
		t.Fatalf("seed payload had skipped entries: %v", summary.Warnings)
	}
}

const searchFixture = `[
	{
		"serial_number": "SM115/SM122",
		"name": "Charizard-GX",
		"set_name": "Hidden Fates",
		"pricecharting": {"price": 150.0, "last_updated": "2024-01-15"},
		"tcgplayer": {"market_price": 160.0, "last_updated": "2024-01-14"}
	},
	{
		"serial_number": "25/100",
		"name": "Pikachu",
		"pricecharting": {"price": 12.0}
	},
	{
		"serial_number": "25/200",
		"name": "Pikachu",
		"tcgplayer": {"market_price": 18.0}
	},
	{
		"serial_number": "4/102",
		"name": "Blastoise"
	}
]`

func TestSearchByPartialNameIsCaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, searchFixture)
	svc := NewSearchService(db)

	matches, err := svc.Search("", "charizard", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("match count = %d, want 1", len(matches))
	}
	if matches[0].Card.Name != "Charizard-GX" {
		t.Errorf("matched %q, want Charizard-GX", matches[0].Card.Name)
	}
}

func TestSearchBySerialFragment(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, searchFixture)
	svc := NewSearchService(db)

	// Partial prefix, different casing than stored.
	matches, err := svc.Search("sm115", "", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Card.SerialNumber != "SM115/SM122" {
		t.Fatalf("matches = %+v, want the SM115/SM122 card", matches)
	}

	// A mid-serial fragment matches too.
	matches, err = svc.Search("115/sm", "", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("match count = %d, want 1", len(matches))
	}
}

func TestSearchConjunction(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, searchFixture)
	svc := NewSearchService(db)

	// "25/" alone matches both Pikachus; adding a name narrows nothing here,
	// but an unrelated name must exclude them all.
	matches, err := svc.Search("25/", "pikachu", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("match count = %d, want 2", len(matches))
	}

	matches, err = svc.Search("25/", "blastoise", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("match count = %d, want 0 (conjunction must exclude)", len(matches))
	}
}

func TestSearchRequiresAFilter(t *testing.T) {
	svc := NewSearchService(newTestDB(t))

	if _, err := svc.Search("", "", 0); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestSearchEmptyResultIsNotAnError(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, searchFixture)
	svc := NewSearchService(db)

	matches, err := svc.Search("", "mewtwo", 0)
	if err != nil {
		t.Fatalf("empty search must not fail: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("match count = %d, want 0", len(matches))
	}
}

func TestSearchAnnotatesBlendedEstimate(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, searchFixture)
	svc := NewSearchService(db)

	matches, err := svc.Search("", "charizard", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("match count = %d, want 1", len(matches))
	}

	estimate := matches[0].EstimatedValue
	if estimate == nil {
		t.Fatal("expected a blended estimate")
	}
	if *estimate != 155.0 {
		t.Errorf("estimate = %v, want 155.0 (mean of 150 and 160)", *estimate)
	}

	// A card with a single source passes its price through unchanged.
	matches, err = svc.Search("25/100", "", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].EstimatedValue == nil {
		t.Fatal("expected the single-source Pikachu with an estimate")
	}
	if *matches[0].EstimatedValue != 12.0 {
		t.Errorf("estimate = %v, want 12.0", *matches[0].EstimatedValue)
	}

	// A card with no price sources has no estimate, not a zero one.
	matches, err = svc.Search("", "blastoise", 0)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("match count = %d, want 1", len(matches))
	}
	if matches[0].EstimatedValue != nil {
		t.Errorf("estimate = %v, want nil for a card without prices", *matches[0].EstimatedValue)
	}
}

func TestLookupRequiresBothFields(t *testing.T) {
	svc := NewSearchService(newTestDB(t))

	if _, err := svc.Lookup("25/100", "", 0); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("err = %v, want ErrInvalidQuery when name missing", err)
	}
	if _, err := svc.Lookup("", "Pikachu", 0); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("err = %v, want ErrInvalidQuery when serial missing", err)
	}
}

func TestLookupNotFound(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, searchFixture)
	svc := NewSearchService(db)

	if _, err := svc.Lookup("99/99", "Mewtwo", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLookupDisambiguation(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, searchFixture)
	svc := NewSearchService(db)

	// A broad serial fragment matches both Pikachus.
	if _, err := svc.Lookup("25/", "pikachu", 0); !errors.Is(err, ErrAmbiguousMatch) {
		t.Errorf("err = %v, want ErrAmbiguousMatch", err)
	}

	// Narrowing to the exact serial resolves uniquely.
	match, err := svc.Lookup("25/100", "pikachu", 0)
	if err != nil {
		t.Fatalf("narrowed lookup failed: %v", err)
	}
	if match.Card.SerialNumber != "25/100" {
		t.Errorf("matched serial = %q, want 25/100", match.Card.SerialNumber)
	}
}

func TestLookupSalesCapAndOrdering(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, `[{
		"serial_number": "A1", "name": "X",
		"pricecharting": {
			"price": 10,
			"recent_sales": [
				{"date": "2024-01-01", "price": 1.0},
				{"date": "2024-01-05", "price": 5.0},
				{"date": "2024-01-03", "price": 3.0},
				{"date": "2024-01-08", "price": 8.0},
				{"date": "2024-01-02", "price": 2.0},
				{"date": "2024-01-07", "price": 7.0},
				{"date": "2024-01-06", "price": 6.0},
				{"date": "2024-01-04", "price": 4.0}
			]
		}
	}]`)
	svc := NewSearchService(db)

	match, err := svc.Lookup("A1", "X", 0)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	if len(match.RecentSales) != 5 {
		t.Fatalf("sales count = %d, want capped at 5", len(match.RecentSales))
	}
	wantDates := []string{"2024-01-08", "2024-01-07", "2024-01-06", "2024-01-05", "2024-01-04"}
	for i, sale := range match.RecentSales {
		if sale.SaleDate != wantDates[i] {
			t.Errorf("sale[%d].date = %s, want %s (most recent first)", i, sale.SaleDate, wantDates[i])
		}
	}
}

func TestLookupSalesTiesBreakByInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, `[{
		"serial_number": "A1", "name": "X",
		"pricecharting": {
			"recent_sales": [
				{"date": "2024-01-10", "price": 3.0},
				{"date": "2024-01-10", "price": 1.0},
				{"date": "2024-01-10", "price": 2.0}
			]
		}
	}]`)
	svc := NewSearchService(db)

	match, err := svc.Lookup("A1", "X", 0)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}

	wantPrices := []float64{3.0, 1.0, 2.0}
	if len(match.RecentSales) != len(wantPrices) {
		t.Fatalf("sales count = %d, want %d", len(match.RecentSales), len(wantPrices))
	}
	for i, sale := range match.RecentSales {
		if sale.Price != wantPrices[i] {
			t.Errorf("sale[%d].price = %v, want %v (insertion order on equal dates)", i, sale.Price, wantPrices[i])
		}
	}
}

func TestGetCard(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db, searchFixture)
	svc := NewSearchService(db)

	matches, err := svc.Search("", "charizard", 0)
	if err != nil || len(matches) != 1 {
		t.Fatalf("seed lookup failed: %v", err)
	}

	match, err := svc.GetCard(matches[0].Card.ID, 0)
	if err != nil {
		t.Fatalf("GetCard failed: %v", err)
	}
	if match.Card.Name != "Charizard-GX" {
		t.Errorf("card name = %q, want Charizard-GX", match.Card.Name)
	}

	if _, err := svc.GetCard(9999, 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound for unknown id", err)
	}
}
