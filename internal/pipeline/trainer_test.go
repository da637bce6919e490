package pipeline

import (
	"testing"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModelConfig() model.GBTConfig {
	return model.GBTConfig{Estimators: 20, MaxDepth: 3, LearningRate: 0.1, Seed: 42}
}

// thirteenMonths builds the two-article, one-location series from Jan 2024
// through Jan 2025.
func thirteenMonths() []domain.SalesAggregate {
	var aggs []domain.SalesAggregate
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for m := 0; m < 13; m++ {
		period := start.AddDate(0, m, 0)
		for i, article := range []string{"A1", "A2"} {
			aggs = append(aggs, domain.SalesAggregate{
				ArticleID:  article,
				LocationID: "L1",
				Year:       period.Year(),
				Month:      int(period.Month()),
				UnitsSold:  float64(20 + 10*i + m),
				PeriodDate: period,
			})
		}
	}
	return aggs
}

func TestSplitTemporal(t *testing.T) {
	fs, err := BuildFeatures(thirteenMonths())
	require.NoError(t, err)

	trainIdx, holdoutIdx, last := SplitTemporal(fs.Periods)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), last)
	assert.Len(t, trainIdx, 24, "12 months × 2 articles")
	assert.Len(t, holdoutIdx, 2, "holdout is the single latest period")

	// Disjoint, and together they cover the full feature table.
	seen := map[int]bool{}
	for _, i := range trainIdx {
		assert.True(t, fs.Periods[i].Before(last))
		seen[i] = true
	}
	for _, i := range holdoutIdx {
		assert.True(t, fs.Periods[i].Equal(last))
		assert.False(t, seen[i])
		seen[i] = true
	}
	assert.Len(t, seen, len(fs.Rows))
}

func TestTrainForecasterProducesMetrics(t *testing.T) {
	fs, err := BuildFeatures(thirteenMonths())
	require.NoError(t, err)

	artifact, err := TrainForecaster(fs, 10, testModelConfig())
	require.NoError(t, err)

	assert.Equal(t, 24, artifact.TrainRows)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), artifact.LastPeriod)
	require.NotNil(t, artifact.Metrics)
	assert.Equal(t, 2, artifact.Metrics.Rows)
	assert.False(t, artifact.Metrics.MAE < 0)
	assert.GreaterOrEqual(t, artifact.Metrics.RMSE, artifact.Metrics.MAE)

	// Encoders travel with the model, not as shared state.
	assert.Same(t, fs.LocationEncoder, artifact.LocationEncoder)
	assert.Same(t, fs.ArticleEncoder, artifact.ArticleEncoder)
}

func TestTrainForecasterInsufficientData(t *testing.T) {
	aggs := thirteenMonths()[:6] // 3 periods, 4 training rows
	fs, err := BuildFeatures(aggs)
	require.NoError(t, err)

	_, err = TrainForecaster(fs, 10, testModelConfig())
	assert.ErrorIs(t, err, domain.ErrInsufficientTrainingData)

	_, err = TrainForecaster(nil, 10, testModelConfig())
	assert.ErrorIs(t, err, domain.ErrInsufficientTrainingData)
}

func TestTrainForecasterDeterministic(t *testing.T) {
	fs1, err := BuildFeatures(thirteenMonths())
	require.NoError(t, err)
	fs2, err := BuildFeatures(thirteenMonths())
	require.NoError(t, err)

	a, err := TrainForecaster(fs1, 10, testModelConfig())
	require.NoError(t, err)
	b, err := TrainForecaster(fs2, 10, testModelConfig())
	require.NoError(t, err)

	fa, err := PredictNextPeriod(a)
	require.NoError(t, err)
	fb, err := PredictNextPeriod(b)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}
