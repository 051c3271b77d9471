package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/priceops/dealwatch/internal/model"
	"github.com/priceops/dealwatch/internal/storage"
)

type fakeStore struct {
	mu      sync.Mutex
	items   map[string]model.Item
	records map[string][]model.PriceRecord
	deals   map[uuid.UUID]storage.Deal
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:   map[string]model.Item{},
		records: map[string][]model.PriceRecord{},
		deals:   map[uuid.UUID]storage.Deal{},
	}
}

func (s *fakeStore) UpsertItem(ctx context.Context, item model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
	return nil
}

func (s *fakeStore) DeactivateItem(ctx context.Context, itemID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return pgx.ErrNoRows
	}
	item.Active = false
	s.items[itemID] = item
	return nil
}

func (s *fakeStore) GetItem(ctx context.Context, itemID string) (model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return model.Item{}, pgx.ErrNoRows
	}
	return item, nil
}

func (s *fakeStore) ListItems(ctx context.Context) ([]model.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Item
	for _, it := range s.items {
		out = append(out, it)
	}
	return out, nil
}

func (s *fakeStore) RecentHistory(ctx context.Context, itemID string, limit int) ([]model.PriceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.records[itemID]
	if len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return recs, nil
}

func (s *fakeStore) ListDeals(ctx context.Context, filter storage.DealFilter) ([]storage.Deal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Deal
	for _, d := range s.deals {
		if !d.Active {
			continue
		}
		if filter.Type != "" && d.Type != filter.Type {
			continue
		}
		if d.EstimatedROI < filter.MinROI {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeStore) DismissDeal(ctx context.Context, id uuid.UUID, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deals[id]
	if !ok || !d.Active {
		return pgx.ErrNoRows
	}
	d.Active = false
	d.DismissedAt = &now
	s.deals[id] = d
	return nil
}

type fakeScanner struct {
	result model.BatchResult
	runs   int
}

func (s *fakeScanner) RunOnce(ctx context.Context) (model.BatchResult, error) {
	s.runs++
	return s.result, nil
}

func newTestServer(store *fakeStore, scanner *fakeScanner) http.Handler {
	return New(Config{Port: 0}, store, scanner, nil).Routes()
}

func TestHealth(t *testing.T) {
	h := newTestServer(newFakeStore(), &fakeScanner{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAddAndListItems(t *testing.T) {
	store := newFakeStore()
	h := newTestServer(store, &fakeScanner{})

	body := `{"id":"B0ABC123","label":"widget","target_buy_price":20.00}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}

	var items []itemJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ID != "B0ABC123" || !items[0].Active {
		t.Errorf("items = %+v", items)
	}
	if items[0].TargetBuyPrice == nil || *items[0].TargetBuyPrice != 20.00 {
		t.Errorf("target buy price = %v", items[0].TargetBuyPrice)
	}
}

func TestAddItem_Validation(t *testing.T) {
	h := newTestServer(newFakeStore(), &fakeScanner{})

	for name, body := range map[string]string{
		"missing id":      `{"label":"widget"}`,
		"negative target": `{"id":"B0ABC123","target_buy_price":-5}`,
		"malformed json":  `{`,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/items", strings.NewReader(body)))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", name, rec.Code)
		}
	}
}

func TestDeactivateItem(t *testing.T) {
	store := newFakeStore()
	store.items["B0ABC123"] = model.Item{ID: "B0ABC123", Active: true}
	h := newTestServer(store, &fakeScanner{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/items/B0ABC123", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.items["B0ABC123"].Active {
		t.Errorf("item still active")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/items/NOPE", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown item status = %d, want 404", rec.Code)
	}
}

func TestItemHistory(t *testing.T) {
	store := newFakeStore()
	now := time.Now().UTC()
	store.records["B0ABC123"] = []model.PriceRecord{
		{ItemID: "B0ABC123", ObservedAt: now.Add(-time.Hour), Price: 30.00},
		{ItemID: "B0ABC123", ObservedAt: now, Price: 25.00},
	}
	h := newTestServer(store, &fakeScanner{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/B0ABC123/history?limit=1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var recs []recordJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].Price != 25.00 {
		t.Errorf("records = %+v", recs)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/B0ABC123/history?limit=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}
}

func TestListDeals_Filtered(t *testing.T) {
	store := newFakeStore()
	drop := storage.Deal{
		DealCandidate: model.DealCandidate{
			ID: uuid.New(), ItemID: "B0ABC123", Type: model.DealPriceDrop,
			CurrentPrice: 85.00,
		},
		Active: true,
	}
	margin := storage.Deal{
		DealCandidate: model.DealCandidate{
			ID: uuid.New(), ItemID: "B0ABC123", Type: model.DealMarginOpportunity,
			CurrentPrice: 50.00, EstimatedROI: 75.0,
		},
		Active: true,
	}
	store.deals[drop.ID] = drop
	store.deals[margin.ID] = margin
	h := newTestServer(store, &fakeScanner{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/deals?type=margin_opportunity&min_roi=50", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var deals []dealJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &deals); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(deals) != 1 || deals[0].DealType != "margin_opportunity" {
		t.Errorf("deals = %+v", deals)
	}
}

func TestDismissDeal(t *testing.T) {
	store := newFakeStore()
	d := storage.Deal{
		DealCandidate: model.DealCandidate{ID: uuid.New(), ItemID: "B0ABC123", Type: model.DealPriceDrop},
		Active:        true,
	}
	store.deals[d.ID] = d
	h := newTestServer(store, &fakeScanner{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/deals/"+d.ID.String()+"/dismiss", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if store.deals[d.ID].Active {
		t.Errorf("deal still active")
	}

	// Dismissing again: already inactive.
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/deals/"+d.ID.String()+"/dismiss", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("re-dismiss status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/deals/not-a-uuid/dismiss", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad uuid status = %d, want 400", rec.Code)
	}
}

func TestScan(t *testing.T) {
	scanner := &fakeScanner{result: model.BatchResult{Attempted: 3, Succeeded: 3, Candidates: 1, Notified: 1}}
	h := newTestServer(newFakeStore(), scanner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/scan", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if scanner.runs != 1 {
		t.Errorf("runs = %d, want 1", scanner.runs)
	}

	var out batchJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Attempted != 3 || out.Notified != 1 {
		t.Errorf("result = %+v", out)
	}
}
