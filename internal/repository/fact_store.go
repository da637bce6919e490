package repository

import (
	"context"

	"github.com/andresuchdata/stockcast/internal/domain"
)

// FactStore is the read/write boundary to the backing catalog. Reads are bulk
// snapshots of the five logical tables; the only mutation is the per-PK
// stock_minimo update.
type FactStore interface {
	Ping(ctx context.Context) error
	FetchFactTables(ctx context.Context) (*domain.FactTables, error)
	UpdateStockMinimo(ctx context.Context, updates []domain.ReplenishmentUpdate) (domain.WriteBackResult, error)
}

// QualityStore serves the ad-hoc data-quality report.
type QualityStore interface {
	QualityReport(ctx context.Context) (*QualityReport, error)
}

// QualityReport summarizes the health of the five source tables.
type QualityReport struct {
	InventoryRows  int64
	HistoryRows    int64
	ArticleRows    int64
	OrderLineRows  int64
	OrderRows      int64
	NullKeyHistory int64 // history rows whose inventory_id matches no inventory row
	DuplicatePairs int64 // (article, location) pairs with more than one inventory row
	FirstPeriod    string
	LastPeriod     string
}
