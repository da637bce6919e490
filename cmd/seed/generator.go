package main

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	categories     = []string{"electronics", "apparel", "home", "toys", "sports"}
	seasons        = []string{"all_year", "summer", "winter"}
	paymentMethods = []string{"card", "transfer", "cash"}
)

type generator struct {
	rng *rand.Rand
}

func newGenerator(seed int64) *generator {
	return &generator{rng: rand.New(rand.NewSource(seed))}
}

type seedData struct {
	Articles   []domain.ArticleRecord
	Inventory  []domain.InventoryRecord
	History    []domain.HistoryRecord
	Orders     []domain.OrderRecord
	OrderLines []domain.OrderLineRecord
}

// Generate produces a coherent synthetic catalog: one inventory row per
// (article, location) pair and a seasonal monthly history ending last month.
func (g *generator) Generate(articleCount, locationCount, months int) *seedData {
	data := &seedData{}

	for i := 0; i < articleCount; i++ {
		supplier := 5 + g.rng.Float64()*45
		data.Articles = append(data.Articles, domain.ArticleRecord{
			ArticleID:     fmt.Sprintf("A%04d", i+1),
			Category:      categories[g.rng.Intn(len(categories))],
			SupplierPrice: decimal.NewFromFloat(supplier).Round(2),
			SalePrice:     decimal.NewFromFloat(supplier * (1.2 + g.rng.Float64()*0.8)).Round(2),
			Season:        seasons[g.rng.Intn(len(seasons))],
		})
	}

	locations := make([]string, locationCount)
	for i := range locations {
		locations[i] = fmt.Sprintf("L%02d", i+1)
	}

	// History ends on the first day of last month.
	now := time.Now().UTC()
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)

	var inventoryID int64
	for _, art := range data.Articles {
		// Per-article demand level; the monthly curve adds seasonality on top.
		level := 10 + g.rng.Float64()*60

		for _, loc := range locations {
			inventoryID++
			avgDemand := level * (0.7 + g.rng.Float64()*0.6)
			data.Inventory = append(data.Inventory, domain.InventoryRecord{
				InventoryID:           inventoryID,
				ArticleID:             art.ArticleID,
				LocationID:            loc,
				StockActual:           g.rng.Intn(200),
				StockMinimo:           1 + g.rng.Intn(20),
				StockRecomendado:      10 + g.rng.Intn(40),
				Margin:                decimal.NewFromFloat(0.1 + g.rng.Float64()*0.4).Round(3),
				ReplenishmentLeadTime: 3 + g.rng.Intn(18),
				SafetyStock:           g.rng.Intn(15),
				AvgDemand:             math.Round(avgDemand*100) / 100,
			})

			stock := 100 + g.rng.Intn(200)
			for m := months - 1; m >= 0; m-- {
				period := end.AddDate(0, -m, 0)
				seasonal := 1 + 0.35*math.Sin(2*math.Pi*float64(int(period.Month())-1)/12)
				exported := int(math.Max(0, avgDemand*seasonal+g.rng.NormFloat64()*level*0.15))
				imported := exported + g.rng.Intn(20) - 5
				if imported < 0 {
					imported = 0
				}
				data.History = append(data.History, domain.HistoryRecord{
					InventoryID: inventoryID,
					LocationID:  loc,
					Year:        period.Year(),
					Month:       int(period.Month()),
					ImportedQty: imported,
					ExportedQty: exported,
					StockStart:  stock,
					StockEnd:    stock + imported - exported,
				})
				stock += imported - exported
				if stock < 0 {
					stock = 0
				}
			}
		}
	}

	// A modest order book referencing random inventory rows.
	orderCount := len(data.Inventory) / 2
	for i := 0; i < orderCount; i++ {
		orderID := int64(i + 1)
		created := end.AddDate(0, -g.rng.Intn(months), g.rng.Intn(28))
		var total decimal.Decimal

		lines := 1 + g.rng.Intn(3)
		for l := 0; l < lines; l++ {
			inv := data.Inventory[g.rng.Intn(len(data.Inventory))]
			qty := 1 + g.rng.Intn(30)
			price := decimal.NewFromFloat(5 + g.rng.Float64()*80).Round(2)
			data.OrderLines = append(data.OrderLines, domain.OrderLineRecord{
				OrderID:     orderID,
				InventoryID: inv.InventoryID,
				Quantity:    qty,
				UnitPrice:   price,
			})
			total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}

		data.Orders = append(data.Orders, domain.OrderRecord{
			OrderID:       orderID,
			CreationDate:  created,
			DeliveryDate:  created.AddDate(0, 0, 2+g.rng.Intn(12)),
			Organization:  locations[g.rng.Intn(len(locations))],
			State:         "delivered",
			Total:         total,
			PaymentMethod: paymentMethods[g.rng.Intn(len(paymentMethods))],
		})
	}

	return data
}
