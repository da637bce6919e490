package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type factStore struct {
	db        *DB
	batchSize int
}

// NewFactStore builds the Postgres-backed fact store. batchSize bounds memory
// and round trips on bulk reads; results do not depend on it.
func NewFactStore(db *DB, batchSize int) *factStore {
	if batchSize < 1 {
		batchSize = 500
	}
	return &factStore{db: db, batchSize: batchSize}
}

func (s *factStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDataSourceUnavailable, err)
	}
	return nil
}

// FetchFactTables reads one snapshot of the five source tables. Column lists
// are explicit so a missing column surfaces as a schema mismatch instead of a
// zero-valued field; sqlx's field mapping keeps the lookup case-insensitive.
func (s *factStore) FetchFactTables(ctx context.Context) (*domain.FactTables, error) {
	inventory, err := fetchChunked[domain.InventoryRecord](ctx, s.db, s.batchSize, `
		SELECT inventory_id, article_id, location_id, stock_actual, stock_minimo,
		       stock_recomendado, margin, replenishment_lead_time, safety_stock, avg_demand
		FROM inventory
		ORDER BY inventory_id`)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}

	history, err := fetchChunked[domain.HistoryRecord](ctx, s.db, s.batchSize, `
		SELECT inventory_id, location_id, year, month, imported_qty, exported_qty,
		       stock_start, stock_end
		FROM monthly_history
		ORDER BY inventory_id, year, month`)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	articles, err := fetchChunked[domain.ArticleRecord](ctx, s.db, s.batchSize, `
		SELECT article_id, category, supplier_price, sale_price, season
		FROM articles
		ORDER BY article_id`)
	if err != nil {
		return nil, fmt.Errorf("fetch articles: %w", err)
	}

	orderLines, err := fetchChunked[domain.OrderLineRecord](ctx, s.db, s.batchSize, `
		SELECT order_id, inventory_id, quantity, unit_price
		FROM order_lines
		ORDER BY order_id, inventory_id`)
	if err != nil {
		return nil, fmt.Errorf("fetch order lines: %w", err)
	}

	orders, err := fetchChunked[domain.OrderRecord](ctx, s.db, s.batchSize, `
		SELECT order_id, creation_date, delivery_date, organization, state, total, payment_method
		FROM orders
		ORDER BY order_id`)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}

	return &domain.FactTables{
		Inventory:  inventory,
		History:    history,
		Articles:   articles,
		OrderLines: orderLines,
		Orders:     orders,
	}, nil
}

// UpdateStockMinimo applies one UPDATE per inventory row. Updates are
// independent: a failing row is counted and logged, the rest still land.
func (s *factStore) UpdateStockMinimo(ctx context.Context, updates []domain.ReplenishmentUpdate) (domain.WriteBackResult, error) {
	result := domain.WriteBackResult{Attempted: len(updates)}
	if len(updates) == 0 {
		return result, nil
	}

	if err := s.db.Acquire(ctx); err != nil {
		return result, fmt.Errorf("%w: %v", domain.ErrDataSourceUnavailable, err)
	}
	defer s.db.Release()

	stmt, err := s.db.PreparexContext(ctx, `
		UPDATE inventory SET stock_minimo = $1 WHERE inventory_id = $2`)
	if err != nil {
		return result, fmt.Errorf("%w: prepare stock_minimo update: %v", domain.ErrDataSourceUnavailable, err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.NewStockMinimo, u.InventoryID); err != nil {
			result.Failed++
			log.Warn().Err(err).
				Int64("inventory_id", u.InventoryID).
				Int("new_stock_minimo", u.NewStockMinimo).
				Msg("stock_minimo update failed")
			continue
		}
		result.Succeeded++
	}

	return result, nil
}

// fetchChunked pages through query with LIMIT/OFFSET so one bulk read never
// materializes more than batch rows per round trip. Each bulk read holds one
// slot of the DB's bounded operation budget.
func fetchChunked[T any](ctx context.Context, db *DB, batch int, query string) ([]T, error) {
	if err := db.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDataSourceUnavailable, err)
	}
	defer db.Release()

	paged := query + " LIMIT $1 OFFSET $2"

	var out []T
	for offset := 0; ; offset += batch {
		var page []T
		if err := sqlx.SelectContext(ctx, db, &page, paged, batch, offset); err != nil {
			return nil, classifyReadError(err)
		}
		out = append(out, page...)
		if len(page) < batch {
			break
		}
	}
	return out, nil
}

// classifyReadError folds driver errors into the pipeline's taxonomy: missing
// relations/columns are schema mismatches, everything else is an unavailable
// source.
func classifyReadError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "does not exist") || strings.Contains(msg, "missing destination name") {
		return fmt.Errorf("%w: %v", domain.ErrSchemaMismatch, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrDataSourceUnavailable, err)
}
