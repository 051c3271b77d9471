package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/priceops/dealwatch/internal/model"
)

// Store provides access to the watchlist, price history, deals and alert
// audit log. Safe for concurrent use; all methods go through the pool.
type Store struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewStore wraps a connection pool.
func NewStore(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Init creates the schema if it does not exist.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id               TEXT PRIMARY KEY,
			label            TEXT NOT NULL DEFAULT '',
			title            TEXT NOT NULL DEFAULT '',
			brand            TEXT NOT NULL DEFAULT '',
			category         TEXT NOT NULL DEFAULT '',
			image_url        TEXT NOT NULL DEFAULT '',
			target_buy_price DOUBLE PRECISION,
			active           BOOLEAN NOT NULL DEFAULT TRUE,
			added_at         TIMESTAMPTZ NOT NULL,
			updated_at       TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS price_records (
			id              BIGSERIAL PRIMARY KEY,
			item_id         TEXT NOT NULL REFERENCES items(id),
			observed_at     TIMESTAMPTZ NOT NULL,
			price           DOUBLE PRECISION NOT NULL,
			currency        TEXT NOT NULL DEFAULT 'USD',
			available       BOOLEAN NOT NULL,
			list_price      DOUBLE PRECISION,
			buy_box_price   DOUBLE PRECISION,
			savings_percent DOUBLE PRECISION,
			sales_rank      BIGINT,
			avg30           DOUBLE PRECISION,
			avg90           DOUBLE PRECISION,
			avg180          DOUBLE PRECISION,
			all_time_low    DOUBLE PRECISION,
			all_time_high   DOUBLE PRECISION,
			UNIQUE (item_id, observed_at)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_records_item_time
			ON price_records (item_id, observed_at DESC)`,
		`CREATE TABLE IF NOT EXISTS deals (
			id               UUID PRIMARY KEY,
			item_id          TEXT NOT NULL REFERENCES items(id),
			deal_type        TEXT NOT NULL,
			current_price    DOUBLE PRECISION NOT NULL,
			reference_price  DOUBLE PRECISION NOT NULL DEFAULT 0,
			drop_percent     DOUBLE PRECISION NOT NULL DEFAULT 0,
			estimated_profit DOUBLE PRECISION NOT NULL DEFAULT 0,
			estimated_roi    DOUBLE PRECISION NOT NULL DEFAULT 0,
			price_window     TEXT NOT NULL DEFAULT '',
			active           BOOLEAN NOT NULL DEFAULT TRUE,
			detected_at      TIMESTAMPTZ NOT NULL,
			dismissed_at     TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_deals_active
			ON deals (item_id) WHERE active`,
		`CREATE TABLE IF NOT EXISTS alerts (
			id        BIGSERIAL PRIMARY KEY,
			signature TEXT NOT NULL,
			item_id   TEXT NOT NULL,
			deal_type TEXT NOT NULL,
			message   TEXT NOT NULL,
			sent_at   TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Items
// -----------------------------------------------------------------------------

// UpsertItem inserts or updates a watchlist item. Metadata columns are
// refreshed; added_at survives the update.
func (s *Store) UpsertItem(ctx context.Context, item model.Item) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO items (id, label, title, brand, category, image_url, target_buy_price, active, added_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			label            = EXCLUDED.label,
			title            = EXCLUDED.title,
			brand            = EXCLUDED.brand,
			category         = EXCLUDED.category,
			image_url        = EXCLUDED.image_url,
			target_buy_price = EXCLUDED.target_buy_price,
			active           = EXCLUDED.active,
			updated_at       = EXCLUDED.updated_at
	`, item.ID, item.Label, item.Title, item.Brand, item.Category, item.ImageURL,
		item.TargetBuyPrice, item.Active, item.AddedAt, item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert item %s: %w", item.ID, err)
	}
	return nil
}

// DeactivateItem soft-deletes an item; its history stays queryable.
func (s *Store) DeactivateItem(ctx context.Context, itemID string, now time.Time) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE items SET active = FALSE, updated_at = $2 WHERE id = $1
	`, itemID, now)
	if err != nil {
		return fmt.Errorf("deactivate item %s: %w", itemID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("deactivate item %s: %w", itemID, pgx.ErrNoRows)
	}
	return nil
}

// GetItem fetches one item by id. Returns pgx.ErrNoRows when absent.
func (s *Store) GetItem(ctx context.Context, itemID string) (model.Item, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, label, title, brand, category, image_url, target_buy_price, active, added_at, updated_at
		FROM items WHERE id = $1
	`, itemID)

	var item model.Item
	err := row.Scan(&item.ID, &item.Label, &item.Title, &item.Brand, &item.Category,
		&item.ImageURL, &item.TargetBuyPrice, &item.Active, &item.AddedAt, &item.UpdatedAt)
	if err != nil {
		return model.Item{}, fmt.Errorf("get item %s: %w", itemID, err)
	}
	return item, nil
}

// ActiveItems lists the items due for checking, oldest first.
func (s *Store) ActiveItems(ctx context.Context) ([]model.Item, error) {
	return s.listItems(ctx, `
		SELECT id, label, title, brand, category, image_url, target_buy_price, active, added_at, updated_at
		FROM items WHERE active ORDER BY added_at
	`)
}

// ListItems lists every item, active or not.
func (s *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	return s.listItems(ctx, `
		SELECT id, label, title, brand, category, image_url, target_buy_price, active, added_at, updated_at
		FROM items ORDER BY added_at
	`)
}

func (s *Store) listItems(ctx context.Context, query string) ([]model.Item, error) {
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Label, &item.Title, &item.Brand, &item.Category,
			&item.ImageURL, &item.TargetBuyPrice, &item.Active, &item.AddedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// -----------------------------------------------------------------------------
// Price records
// -----------------------------------------------------------------------------

// SaveRecord inserts one observation. A record for the same (item,
// observed_at) already present is left untouched.
func (s *Store) SaveRecord(ctx context.Context, rec model.PriceRecord) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO price_records (item_id, observed_at, price, currency, available,
			list_price, buy_box_price, savings_percent, sales_rank,
			avg30, avg90, avg180, all_time_low, all_time_high)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (item_id, observed_at) DO NOTHING
	`, rec.ItemID, rec.ObservedAt, rec.Price, rec.Currency, rec.Available,
		rec.ListPrice, rec.BuyBoxPrice, rec.SavingsPercent, rec.SalesRank,
		rec.Avg30, rec.Avg90, rec.Avg180, rec.AllTimeLow, rec.AllTimeHigh)
	if err != nil {
		return fmt.Errorf("save record for %s: %w", rec.ItemID, err)
	}
	return nil
}

// RecentHistory returns the item's last limit records ordered by time,
// most recent last.
func (s *Store) RecentHistory(ctx context.Context, itemID string, limit int) ([]model.PriceRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT item_id, observed_at, price, currency, available,
			list_price, buy_box_price, savings_percent, sales_rank,
			avg30, avg90, avg180, all_time_low, all_time_high
		FROM price_records
		WHERE item_id = $1
		ORDER BY observed_at DESC
		LIMIT $2
	`, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent history for %s: %w", itemID, err)
	}
	defer rows.Close()

	var recs []model.PriceRecord
	for rows.Next() {
		var rec model.PriceRecord
		if err := rows.Scan(&rec.ItemID, &rec.ObservedAt, &rec.Price, &rec.Currency, &rec.Available,
			&rec.ListPrice, &rec.BuyBoxPrice, &rec.SavingsPercent, &rec.SalesRank,
			&rec.Avg30, &rec.Avg90, &rec.Avg180, &rec.AllTimeLow, &rec.AllTimeHigh); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest-first for the index; callers expect oldest-first.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// -----------------------------------------------------------------------------
// Deals
// -----------------------------------------------------------------------------

// SaveDeals replaces the item's active deals with the given candidates:
// prior active deals are retired, then the new batch is inserted.
func (s *Store) SaveDeals(ctx context.Context, itemID string, cands []model.DealCandidate) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin deals tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		UPDATE deals SET active = FALSE WHERE item_id = $1 AND active
	`, itemID); err != nil {
		return fmt.Errorf("retire deals for %s: %w", itemID, err)
	}

	if len(cands) > 0 {
		batch := &pgx.Batch{}
		for _, c := range cands {
			batch.Queue(`
				INSERT INTO deals (id, item_id, deal_type, current_price, reference_price,
					drop_percent, estimated_profit, estimated_roi, price_window, active, detected_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE, $10)
				ON CONFLICT (id) DO NOTHING
			`, c.ID, c.ItemID, string(c.Type), c.CurrentPrice, c.ReferencePrice,
				c.DropPercent, c.EstimatedProfit, c.EstimatedROI, c.Window, c.DetectedAt)
		}

		results := tx.SendBatch(ctx, batch)
		for range cands {
			if _, err := results.Exec(); err != nil {
				results.Close()
				return fmt.Errorf("insert deals for %s: %w", itemID, err)
			}
		}
		if err := results.Close(); err != nil {
			return fmt.Errorf("close deals batch: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// DealFilter narrows ListDeals. Zero values mean no constraint.
type DealFilter struct {
	Type   model.DealType
	MinROI float64
}

// Deal is a stored deal row.
type Deal struct {
	model.DealCandidate
	Active      bool
	DismissedAt *time.Time
}

// ListDeals returns active deals matching the filter, newest first.
func (s *Store) ListDeals(ctx context.Context, filter DealFilter) ([]Deal, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, item_id, deal_type, current_price, reference_price,
			drop_percent, estimated_profit, estimated_roi, price_window, active, detected_at, dismissed_at
		FROM deals
		WHERE active
			AND ($1 = '' OR deal_type = $1)
			AND estimated_roi >= $2
		ORDER BY detected_at DESC
	`, string(filter.Type), filter.MinROI)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		var dealType string
		if err := rows.Scan(&d.ID, &d.ItemID, &dealType, &d.CurrentPrice, &d.ReferencePrice,
			&d.DropPercent, &d.EstimatedProfit, &d.EstimatedROI, &d.Window,
			&d.Active, &d.DetectedAt, &d.DismissedAt); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		d.Type = model.DealType(dealType)
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// DismissDeal marks one deal inactive with a dismissal timestamp.
func (s *Store) DismissDeal(ctx context.Context, id uuid.UUID, now time.Time) error {
	ct, err := s.db.Exec(ctx, `
		UPDATE deals SET active = FALSE, dismissed_at = $2 WHERE id = $1 AND active
	`, id, now)
	if err != nil {
		return fmt.Errorf("dismiss deal %s: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("dismiss deal %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Alerts
// -----------------------------------------------------------------------------

// SaveAlert records one sent notification for audit.
func (s *Store) SaveAlert(ctx context.Context, c model.DealCandidate, message string, sentAt time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO alerts (signature, item_id, deal_type, message, sent_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.Signature(), c.ItemID, string(c.Type), message, sentAt)
	if err != nil {
		return fmt.Errorf("save alert for %s: %w", c.ItemID, err)
	}
	return nil
}
