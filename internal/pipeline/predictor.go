package pipeline

import (
	"fmt"
	"math"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/rs/zerolog/log"
)

// PredictNextPeriod scores the calendar month immediately following the last
// observed period, for the full article×location cross-product. Pairs that
// had no sales in the latest period still get a forecast. Predictions are
// rounded to the nearest integer and clipped at zero.
func PredictNextPeriod(artifact *TrainedArtifact) ([]domain.ForecastRecord, error) {
	if artifact == nil || artifact.Model == nil {
		return nil, fmt.Errorf("predict: no trained artifact")
	}

	next := artifact.LastPeriod.AddDate(0, 1, 0)
	year, month := next.Year(), int(next.Month())

	locations := artifact.LocationEncoder.Classes()
	articles := artifact.ArticleEncoder.Classes()
	log.Info().
		Time("period", next).
		Int("articles", len(articles)).
		Int("locations", len(locations)).
		Msg("building inference cross-product")

	forecasts := make([]domain.ForecastRecord, 0, len(locations)*len(articles))
	for _, loc := range locations {
		locCode, err := artifact.LocationEncoder.Transform(loc)
		if err != nil {
			// Should be impossible: the cross-product comes from the encoder
			// itself. Checked anyway so a stale encoder fails loudly.
			return nil, fmt.Errorf("inference location: %w", err)
		}
		for _, art := range articles {
			artCode, err := artifact.ArticleEncoder.Transform(art)
			if err != nil {
				return nil, fmt.Errorf("inference article: %w", err)
			}

			pred, err := artifact.Model.Predict(featureRow(locCode, artCode, year, month))
			if err != nil {
				return nil, fmt.Errorf("predict %s@%s: %w", art, loc, err)
			}

			units := int(math.Round(pred))
			if units < 0 {
				units = 0
			}
			forecasts = append(forecasts, domain.ForecastRecord{
				ArticleID:      art,
				LocationID:     loc,
				PeriodDate:     next,
				PredictedUnits: units,
			})
		}
	}

	return forecasts, nil
}
