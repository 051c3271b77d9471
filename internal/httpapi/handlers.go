package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/priceops/dealwatch/internal/model"
	"github.com/priceops/dealwatch/internal/storage"
)

const defaultHistoryLimit = 100

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.ListItems(r.Context())
	if err != nil {
		s.internalError(w, "list items", err)
		return
	}
	out := make([]itemJSON, 0, len(items))
	for _, it := range items {
		out = append(out, toItemJSON(it))
	}
	writeJSON(w, http.StatusOK, out)
}

type addItemRequest struct {
	ID             string   `json:"id"`
	Label          string   `json:"label"`
	TargetBuyPrice *float64 `json:"target_buy_price"`
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if req.TargetBuyPrice != nil && *req.TargetBuyPrice <= 0 {
		writeError(w, http.StatusBadRequest, "target_buy_price must be positive")
		return
	}

	now := time.Now().UTC()
	item := model.Item{
		ID:             req.ID,
		Label:          req.Label,
		TargetBuyPrice: req.TargetBuyPrice,
		Active:         true,
		AddedAt:        now,
		UpdatedAt:      now,
	}

	// Re-adding a known item reactivates it and keeps its original AddedAt.
	if existing, err := s.store.GetItem(r.Context(), req.ID); err == nil {
		item.AddedAt = existing.AddedAt
		item.Title = existing.Title
		item.Brand = existing.Brand
		item.Category = existing.Category
		item.ImageURL = existing.ImageURL
	}

	if err := s.store.UpsertItem(r.Context(), item); err != nil {
		s.internalError(w, "upsert item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemJSON(item))
}

func (s *Server) handleDeactivateItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.DeactivateItem(r.Context(), id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "unknown item")
			return
		}
		s.internalError(w, "deactivate item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleItemHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	recs, err := s.store.RecentHistory(r.Context(), id, limit)
	if err != nil {
		s.internalError(w, "load history", err)
		return
	}
	out := make([]recordJSON, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecordJSON(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListDeals(w http.ResponseWriter, r *http.Request) {
	var filter storage.DealFilter

	if raw := r.URL.Query().Get("type"); raw != "" {
		filter.Type = model.DealType(raw)
	}
	if raw := r.URL.Query().Get("min_roi"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "min_roi must be a number")
			return
		}
		filter.MinROI = v
	}

	deals, err := s.store.ListDeals(r.Context(), filter)
	if err != nil {
		s.internalError(w, "list deals", err)
		return
	}
	out := make([]dealJSON, 0, len(deals))
	for _, d := range deals {
		out = append(out, toDealJSON(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDismissDeal(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deal id")
		return
	}

	if err := s.store.DismissDeal(r.Context(), id, time.Now().UTC()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "unknown or already dismissed deal")
			return
		}
		s.internalError(w, "dismiss deal", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	result, err := s.scanner.RunOnce(r.Context())
	if err != nil {
		s.internalError(w, "scan", err)
		return
	}
	writeJSON(w, http.StatusOK, toBatchJSON(result))
}

// -----------------------------------------------------------------------------
// Wire shapes
// -----------------------------------------------------------------------------

type itemJSON struct {
	ID             string    `json:"id"`
	Label          string    `json:"label,omitempty"`
	Title          string    `json:"title,omitempty"`
	Brand          string    `json:"brand,omitempty"`
	Category       string    `json:"category,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	TargetBuyPrice *float64  `json:"target_buy_price,omitempty"`
	Active         bool      `json:"active"`
	AddedAt        time.Time `json:"added_at"`
}

func toItemJSON(it model.Item) itemJSON {
	return itemJSON{
		ID:             it.ID,
		Label:          it.Label,
		Title:          it.Title,
		Brand:          it.Brand,
		Category:       it.Category,
		ImageURL:       it.ImageURL,
		TargetBuyPrice: it.TargetBuyPrice,
		Active:         it.Active,
		AddedAt:        it.AddedAt,
	}
}

type recordJSON struct {
	ObservedAt     time.Time `json:"observed_at"`
	Price          float64   `json:"price"`
	Currency       string    `json:"currency"`
	Available      bool      `json:"available"`
	ListPrice      *float64  `json:"list_price,omitempty"`
	BuyBoxPrice    *float64  `json:"buy_box_price,omitempty"`
	SavingsPercent *float64  `json:"savings_percent,omitempty"`
	SalesRank      *int      `json:"sales_rank,omitempty"`
	Avg30          *float64  `json:"avg_30d,omitempty"`
	Avg90          *float64  `json:"avg_90d,omitempty"`
	Avg180         *float64  `json:"avg_180d,omitempty"`
	AllTimeLow     *float64  `json:"all_time_low,omitempty"`
	AllTimeHigh    *float64  `json:"all_time_high,omitempty"`
}

func toRecordJSON(rec model.PriceRecord) recordJSON {
	return recordJSON{
		ObservedAt:     rec.ObservedAt,
		Price:          rec.Price,
		Currency:       rec.Currency,
		Available:      rec.Available,
		ListPrice:      rec.ListPrice,
		BuyBoxPrice:    rec.BuyBoxPrice,
		SavingsPercent: rec.SavingsPercent,
		SalesRank:      rec.SalesRank,
		Avg30:          rec.Avg30,
		Avg90:          rec.Avg90,
		Avg180:         rec.Avg180,
		AllTimeLow:     rec.AllTimeLow,
		AllTimeHigh:    rec.AllTimeHigh,
	}
}

type dealJSON struct {
	ID              uuid.UUID `json:"id"`
	ItemID          string    `json:"item_id"`
	DealType        string    `json:"deal_type"`
	CurrentPrice    float64   `json:"current_price"`
	ReferencePrice  float64   `json:"reference_price,omitempty"`
	DropPercent     float64   `json:"drop_percent,omitempty"`
	EstimatedProfit float64   `json:"estimated_profit,omitempty"`
	EstimatedROI    float64   `json:"estimated_roi,omitempty"`
	Window          string    `json:"window,omitempty"`
	DetectedAt      time.Time `json:"detected_at"`
}

func toDealJSON(d storage.Deal) dealJSON {
	return dealJSON{
		ID:              d.ID,
		ItemID:          d.ItemID,
		DealType:        string(d.Type),
		CurrentPrice:    d.CurrentPrice,
		ReferencePrice:  d.ReferencePrice,
		DropPercent:     d.DropPercent,
		EstimatedProfit: d.EstimatedProfit,
		EstimatedROI:    d.EstimatedROI,
		Window:          d.Window,
		DetectedAt:      d.DetectedAt,
	}
}

type batchJSON struct {
	StartedAt  time.Time     `json:"started_at"`
	DurationMS int64         `json:"duration_ms"`
	Attempted  int           `json:"attempted"`
	Succeeded  int           `json:"succeeded"`
	Failures   []failureJSON `json:"failures,omitempty"`
	Candidates int           `json:"candidates"`
	Notified   int           `json:"notified"`
	Suppressed int           `json:"suppressed"`
}

type failureJSON struct {
	ItemID string `json:"item_id"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

func toBatchJSON(r model.BatchResult) batchJSON {
	out := batchJSON{
		StartedAt:  r.StartedAt,
		DurationMS: r.Duration.Milliseconds(),
		Attempted:  r.Attempted,
		Succeeded:  r.Succeeded,
		Candidates: r.Candidates,
		Notified:   r.Notified,
		Suppressed: r.Suppressed,
	}
	for _, f := range r.Failures {
		out.Failures = append(out.Failures, failureJSON{ItemID: f.ItemID, Stage: f.Stage, Reason: f.Reason})
	}
	return out
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error("request failed", "op", op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
