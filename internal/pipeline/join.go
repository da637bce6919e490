package pipeline

import (
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/shopspring/decimal"
)

// ColumnPrecedence declares which source table wins when two tables define the
// same field. The join never mixes copies: inventory's version is used for
// every collision except the import/export quantities, which only make sense
// per history month.
var ColumnPrecedence = map[string]string{
	"location_id":             "inventory",
	"replenishment_lead_time": "inventory",
	"imported_qty":            "monthly_history",
	"exported_qty":            "monthly_history",
}

// JoinedFact is one denormalized row of the five-way left join. Every
// inventory row survives; the Has* flags mark which optional sides matched.
type JoinedFact struct {
	InventoryID           int64
	ArticleID             string
	LocationID            string
	StockActual           int
	StockMinimo           int
	ReplenishmentLeadTime int

	HasHistory  bool
	Year        int
	Month       int
	ImportedQty int
	ExportedQty int
	StockStart  int
	StockEnd    int

	HasArticle    bool
	Category      string
	SupplierPrice decimal.Decimal
	SalePrice     decimal.Decimal
	Season        string

	HasOrderLine bool
	OrderID      int64
	Quantity     int
	UnitPrice    decimal.Decimal

	HasOrder     bool
	CreationDate time.Time
	DeliveryDate time.Time
	Organization string
	OrderState   string
}

// JoinFacts reconciles the five table snapshots into one row set, left-joining
// history, articles, order lines and orders onto inventory. A row without
// history or orders still comes out, with the corresponding flags unset.
func JoinFacts(tables *domain.FactTables) ([]JoinedFact, error) {
	if tables == nil {
		return nil, fmt.Errorf("%w: no fact tables fetched", domain.ErrDataSourceUnavailable)
	}
	if err := checkJoinKeys(tables); err != nil {
		return nil, err
	}

	historyByInv := make(map[int64][]domain.HistoryRecord, len(tables.Inventory))
	for _, h := range tables.History {
		historyByInv[h.InventoryID] = append(historyByInv[h.InventoryID], h)
	}
	articleByID := make(map[string]domain.ArticleRecord, len(tables.Articles))
	for _, a := range tables.Articles {
		articleByID[a.ArticleID] = a
	}
	linesByInv := make(map[int64][]domain.OrderLineRecord)
	for _, l := range tables.OrderLines {
		linesByInv[l.InventoryID] = append(linesByInv[l.InventoryID], l)
	}
	orderByID := make(map[int64]domain.OrderRecord, len(tables.Orders))
	for _, o := range tables.Orders {
		orderByID[o.OrderID] = o
	}

	facts := make([]JoinedFact, 0, len(tables.Inventory))
	for _, inv := range tables.Inventory {
		base := JoinedFact{
			InventoryID:           inv.InventoryID,
			ArticleID:             inv.ArticleID,
			LocationID:            inv.LocationID,
			StockActual:           inv.StockActual,
			StockMinimo:           inv.StockMinimo,
			ReplenishmentLeadTime: inv.ReplenishmentLeadTime,
		}
		if art, ok := articleByID[inv.ArticleID]; ok {
			base.HasArticle = true
			base.Category = art.Category
			base.SupplierPrice = art.SupplierPrice
			base.SalePrice = art.SalePrice
			base.Season = art.Season
		}

		histories := historyByInv[inv.InventoryID]
		lines := linesByInv[inv.InventoryID]

		// Left join: a missing side contributes a single unmatched slot so the
		// inventory row is never dropped.
		historySlots := len(histories)
		if historySlots == 0 {
			historySlots = 1
		}
		lineSlots := len(lines)
		if lineSlots == 0 {
			lineSlots = 1
		}

		for hi := 0; hi < historySlots; hi++ {
			for li := 0; li < lineSlots; li++ {
				row := base
				if hi < len(histories) {
					h := histories[hi]
					row.HasHistory = true
					row.Year = h.Year
					row.Month = h.Month
					row.ImportedQty = h.ImportedQty
					row.ExportedQty = h.ExportedQty
					row.StockStart = h.StockStart
					row.StockEnd = h.StockEnd
				}
				if li < len(lines) {
					l := lines[li]
					row.HasOrderLine = true
					row.OrderID = l.OrderID
					row.Quantity = l.Quantity
					row.UnitPrice = l.UnitPrice
					if o, ok := orderByID[l.OrderID]; ok {
						row.HasOrder = true
						row.CreationDate = o.CreationDate
						row.DeliveryDate = o.DeliveryDate
						row.Organization = o.Organization
						row.OrderState = o.State
					}
				}
				facts = append(facts, row)
			}
		}
	}

	return facts, nil
}

// checkJoinKeys rejects snapshots whose join keys are structurally unusable.
// Column presence is already enforced by the adapter's explicit selects; this
// guards against a schema where the keys exist but were never populated.
func checkJoinKeys(tables *domain.FactTables) error {
	for _, inv := range tables.Inventory {
		if inv.InventoryID == 0 {
			return fmt.Errorf("%w: inventory row without inventory_id", domain.ErrSchemaMismatch)
		}
	}
	for _, a := range tables.Articles {
		if a.ArticleID == "" {
			return fmt.Errorf("%w: article row without article_id", domain.ErrSchemaMismatch)
		}
	}
	for _, o := range tables.Orders {
		if o.OrderID == 0 {
			return fmt.Errorf("%w: order row without order_id", domain.ErrSchemaMismatch)
		}
	}
	return nil
}
