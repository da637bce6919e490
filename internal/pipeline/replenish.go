package pipeline

import (
	"math"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// ReplenishmentPolicy turns predicted demand into a bounded minimum-stock
// target.
type ReplenishmentPolicy struct {
	SafetyFactor  float64
	MinStockFloor int
}

// TargetFor computes max(floor, round(predicted × safety_factor)).
func (p ReplenishmentPolicy) TargetFor(predictedUnits float64) int {
	target := int(math.Round(predictedUnits * p.SafetyFactor))
	if target < p.MinStockFloor {
		target = p.MinStockFloor
	}
	return target
}

type pairKey struct {
	ArticleID  string
	LocationID string
}

// BuildUpdates joins forecasts to the current inventory snapshot by (article,
// location) and applies the policy. Duplicate inventory rows for a pair keep
// the first occurrence; later duplicates never become update targets. A
// forecast with no matching inventory row has no destination key and is
// dropped with a warning; an inventory pair the model produced no forecast
// for is skipped and logged the same way.
func BuildUpdates(forecasts []domain.ForecastRecord, inventory []domain.InventoryRecord, policy ReplenishmentPolicy) []domain.ReplenishmentUpdate {
	inventoryByPair := make(map[pairKey]domain.InventoryRecord, len(inventory))
	for _, inv := range inventory {
		key := pairKey{ArticleID: inv.ArticleID, LocationID: inv.LocationID}
		if _, seen := inventoryByPair[key]; seen {
			continue
		}
		inventoryByPair[key] = inv
	}

	updates := make([]domain.ReplenishmentUpdate, 0, len(forecasts))
	forecasted := make(map[pairKey]bool, len(forecasts))
	dropped := 0
	for _, fc := range forecasts {
		forecasted[pairKey{ArticleID: fc.ArticleID, LocationID: fc.LocationID}] = true
		inv, ok := inventoryByPair[pairKey{ArticleID: fc.ArticleID, LocationID: fc.LocationID}]
		if !ok {
			dropped++
			log.Warn().
				Str("article_id", fc.ArticleID).
				Str("location_id", fc.LocationID).
				Msg("forecast has no inventory row, dropping")
			continue
		}

		updates = append(updates, domain.ReplenishmentUpdate{
			InventoryID:    inv.InventoryID,
			ArticleID:      fc.ArticleID,
			LocationID:     fc.LocationID,
			PredictedUnits: fc.PredictedUnits,
			NewStockMinimo: policy.TargetFor(float64(fc.PredictedUnits)),
		})
	}

	if dropped > 0 {
		log.Warn().Int("forecasts", dropped).Msg("forecasts dropped without inventory targets")
	}

	skipped := 0
	for key := range inventoryByPair {
		if forecasted[key] {
			continue
		}
		skipped++
		log.Warn().
			Str("article_id", key.ArticleID).
			Str("location_id", key.LocationID).
			Msg("inventory pair has no forecast, skipping")
	}
	if skipped > 0 {
		log.Warn().Int("pairs", skipped).Msg("inventory pairs skipped without forecasts")
	}

	return updates
}
