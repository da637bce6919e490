// internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord is one row of the inventory table; one row per
// (article, location) pair. StockMinimo is the only field this system writes.
type InventoryRecord struct {
	InventoryID           int64           `db:"inventory_id"`
	ArticleID             string          `db:"article_id"`
	LocationID            string          `db:"location_id"`
	StockActual           int             `db:"stock_actual"`
	StockMinimo           int             `db:"stock_minimo"`
	StockRecomendado      int             `db:"stock_recomendado"`
	Margin                decimal.Decimal `db:"margin"`
	ReplenishmentLeadTime int             `db:"replenishment_lead_time"`
	SafetyStock           int             `db:"safety_stock"`
	AvgDemand             float64         `db:"avg_demand"`
}

// HistoryRecord is one row of the monthly history table, one per
// (inventory, calendar-month). ExportedQty is read as the units-sold proxy.
type HistoryRecord struct {
	InventoryID int64  `db:"inventory_id"`
	LocationID  string `db:"location_id"`
	Year        int    `db:"year"`
	Month       int    `db:"month"`
	ImportedQty int    `db:"imported_qty"`
	ExportedQty int    `db:"exported_qty"`
	StockStart  int    `db:"stock_start"`
	StockEnd    int    `db:"stock_end"`
}

// ArticleRecord is the catalog dimension.
type ArticleRecord struct {
	ArticleID     string          `db:"article_id"`
	Category      string          `db:"category"`
	SupplierPrice decimal.Decimal `db:"supplier_price"`
	SalePrice     decimal.Decimal `db:"sale_price"`
	Season        string          `db:"season"`
}

// OrderRecord carries only the keys and date fields the pipeline joins on.
type OrderRecord struct {
	OrderID       int64           `db:"order_id"`
	CreationDate  time.Time       `db:"creation_date"`
	DeliveryDate  time.Time       `db:"delivery_date"`
	Organization  string          `db:"organization"`
	State         string          `db:"state"`
	Total         decimal.Decimal `db:"total"`
	PaymentMethod string          `db:"payment_method"`
}

// OrderLineRecord links orders to inventory rows.
type OrderLineRecord struct {
	OrderID     int64           `db:"order_id"`
	InventoryID int64           `db:"inventory_id"`
	Quantity    int             `db:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price"`
}

// FactTables bundles one consistent snapshot of the five source tables.
type FactTables struct {
	Inventory  []InventoryRecord
	History    []HistoryRecord
	Articles   []ArticleRecord
	OrderLines []OrderLineRecord
	Orders     []OrderRecord
}

// SalesAggregate is the monthly (article, location) units-sold series.
// Unique per (ArticleID, LocationID, Year, Month).
type SalesAggregate struct {
	ArticleID  string
	LocationID string
	Year       int
	Month      int
	UnitsSold  float64
	PeriodDate time.Time
}

// ForecastRecord is one next-period prediction per (article, location) pair.
// PredictedUnits is rounded and clipped at zero.
type ForecastRecord struct {
	ArticleID      string
	LocationID     string
	PeriodDate     time.Time
	PredictedUnits int
}

// ReplenishmentUpdate is the final write-back payload for one inventory row.
type ReplenishmentUpdate struct {
	InventoryID    int64
	ArticleID      string
	LocationID     string
	PredictedUnits int
	NewStockMinimo int
}
