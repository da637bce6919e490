package pipeline

import (
	"sort"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
)

type aggregateKey struct {
	ArticleID  string
	LocationID string
	Year       int
	Month      int
}

// AggregateSales collapses the joined facts into the monthly (article,
// location) units-sold series. Units sold come from the history table's export
// quantity; each history month contributes once per inventory row no matter
// how many order lines fanned out in the join. Rows with no article, no
// location or no history month are unjoinable and excluded.
func AggregateSales(facts []JoinedFact) []domain.SalesAggregate {
	sums := make(map[aggregateKey]float64)
	seen := make(map[historyKey]struct{})
	excluded := 0

	for _, f := range facts {
		if !f.HasHistory || f.ArticleID == "" || f.LocationID == "" {
			excluded++
			continue
		}

		hk := historyKey{InventoryID: f.InventoryID, Year: f.Year, Month: f.Month}
		if _, dup := seen[hk]; dup {
			continue
		}
		seen[hk] = struct{}{}

		key := aggregateKey{
			ArticleID:  f.ArticleID,
			LocationID: f.LocationID,
			Year:       f.Year,
			Month:      f.Month,
		}
		sums[key] += float64(f.ExportedQty)
	}

	if excluded > 0 {
		log.Info().Int("rows", excluded).Msg("excluded unjoinable fact rows from sales aggregate")
	}

	aggregates := make([]domain.SalesAggregate, 0, len(sums))
	for key, units := range sums {
		aggregates = append(aggregates, domain.SalesAggregate{
			ArticleID:  key.ArticleID,
			LocationID: key.LocationID,
			Year:       key.Year,
			Month:      key.Month,
			UnitsSold:  units,
			PeriodDate: periodDate(key.Year, key.Month),
		})
	}

	// Map iteration order is random; sort for a stable series.
	sort.Slice(aggregates, func(i, j int) bool {
		a, b := aggregates[i], aggregates[j]
		if !a.PeriodDate.Equal(b.PeriodDate) {
			return a.PeriodDate.Before(b.PeriodDate)
		}
		if a.ArticleID != b.ArticleID {
			return a.ArticleID < b.ArticleID
		}
		return a.LocationID < b.LocationID
	})

	return aggregates
}

type historyKey struct {
	InventoryID int64
	Year        int
	Month       int
}

// periodDate is the first day of (year, month), UTC, for deterministic
// time-ordering.
func periodDate(year, month int) time.Time {
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
}
