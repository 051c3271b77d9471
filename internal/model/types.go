package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Watchlist Types
// -----------------------------------------------------------------------------

// Item is a catalog product tracked for price monitoring.
type Item struct {
	ID             string    // Opaque catalog identifier (e.g. ASIN)
	Label          string    // User-assigned label
	Title          string    // Product title from the live source
	Brand          string    // Brand from the live source
	Category       string    // Category from the live source
	ImageURL       string    // Product image from the live source
	TargetBuyPrice *float64  // Desired acquisition cost, nil if unset
	Active         bool      // Soft-delete flag; inactive items are skipped
	AddedAt        time.Time // When tracking started
	UpdatedAt      time.Time // Last metadata refresh
}

// -----------------------------------------------------------------------------
// Price Types
// -----------------------------------------------------------------------------

// PriceRecord is one observation of an item, merged from the live-price
// source and the historical-stats source. Immutable once built; one record
// per (item, check time).
type PriceRecord struct {
	ItemID     string
	ObservedAt time.Time
	Price      float64 // Current live price, always > 0 in a valid record
	Currency   string
	Available  bool

	// Live-source extras, nil when the provider omits them.
	ListPrice      *float64
	BuyBoxPrice    *float64
	SavingsPercent *float64
	SalesRank      *int

	// Trailing statistics, nil until the history source has data.
	Avg30       *float64
	Avg90       *float64
	Avg180      *float64
	AllTimeLow  *float64
	AllTimeHigh *float64
}

// -----------------------------------------------------------------------------
// Deal Types
// -----------------------------------------------------------------------------

// DealType identifies which strategy produced a candidate.
type DealType string

const (
	DealPriceDrop         DealType = "price_drop"
	DealClearance         DealType = "clearance"
	DealBelowAverage      DealType = "below_average"
	DealAllTimeLow        DealType = "all_time_low"
	DealMarginOpportunity DealType = "margin_opportunity"
)

// DealCandidate is a detected buying opportunity before deduplication.
type DealCandidate struct {
	ID              uuid.UUID
	ItemID          string
	Type            DealType
	CurrentPrice    float64
	ReferencePrice  float64 // Price the trigger compared against
	DropPercent     float64 // Savings vs reference, percent
	EstimatedProfit float64 // Margin-opportunity only
	EstimatedROI    float64 // Margin-opportunity only, percent
	Window          string  // Below-average only: "30d", "90d" or "180d"
	DetectedAt      time.Time
}

// Signature returns the deterministic dedup key for the candidate: the same
// item, deal type and window at the same cent price always hashes alike.
func (c DealCandidate) Signature() string {
	return Signature(c.ItemID, c.Type, c.Window, c.CurrentPrice)
}

// Signature computes a dedup key from its parts. The price is rounded to
// whole cents so float noise between ticks cannot split a signature.
func Signature(itemID string, dealType DealType, window string, price float64) string {
	cents := int64(math.Round(price * 100))
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", itemID, dealType, window, cents)))
	return hex.EncodeToString(sum[:16])
}

// -----------------------------------------------------------------------------
// Alert Types
// -----------------------------------------------------------------------------

// AlertLogEntry records that a signature has been notified and until when
// repeats are suppressed.
type AlertLogEntry struct {
	Signature       string
	FirstNotifiedAt time.Time
	CooldownExpires time.Time
}

// -----------------------------------------------------------------------------
// Batch Types
// -----------------------------------------------------------------------------

// ItemFailure names why one item's check was abandoned during a tick.
type ItemFailure struct {
	ItemID string
	Stage  string // "fetch", "merge", "persist"
	Reason string
}

// BatchResult summarizes one tick over the active watchlist.
type BatchResult struct {
	StartedAt  time.Time
	Duration   time.Duration
	Attempted  int
	Succeeded  int
	Failures   []ItemFailure
	Candidates int // Deal candidates produced by detection
	Notified   int // Candidates that passed dedup and were notified
	Suppressed int // Candidates suppressed inside their cooldown
}
