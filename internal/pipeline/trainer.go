package pipeline

import (
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/model"
	"github.com/rs/zerolog/log"
)

// HoldoutMetrics reports model quality on the held-out period. Informational
// only; they never gate the run.
type HoldoutMetrics struct {
	MAE  float64
	RMSE float64
	Rows int
}

// TrainedArtifact bundles everything the prediction and persistence stages
// need from training: the fitted model, the encoders fit in the same run, and
// the last observed period. It is never mutated after training.
type TrainedArtifact struct {
	Model           *model.GBTRegressor
	LocationEncoder *LabelEncoder
	ArticleEncoder  *LabelEncoder
	LastPeriod      time.Time
	TrainRows       int
	Metrics         *HoldoutMetrics
}

// SplitTemporal partitions row indices into a training set (strictly before
// the latest period) and a holdout (exactly the latest period). The two are
// disjoint and together cover every row.
func SplitTemporal(periods []time.Time) (trainIdx, holdoutIdx []int, lastPeriod time.Time) {
	for _, p := range periods {
		if p.After(lastPeriod) {
			lastPeriod = p
		}
	}
	for i, p := range periods {
		if p.Before(lastPeriod) {
			trainIdx = append(trainIdx, i)
		} else {
			holdoutIdx = append(holdoutIdx, i)
		}
	}
	return trainIdx, holdoutIdx, lastPeriod
}

// TrainForecaster fits the demand regressor on all periods before the latest
// one and evaluates on the latest.
func TrainForecaster(fs *FeatureSet, minTrainingRows int, cfg model.GBTConfig) (*TrainedArtifact, error) {
	if fs == nil || len(fs.Rows) == 0 {
		return nil, fmt.Errorf("%w: empty feature set", domain.ErrInsufficientTrainingData)
	}

	trainIdx, holdoutIdx, lastPeriod := SplitTemporal(fs.Periods)
	log.Info().
		Time("last_period", lastPeriod).
		Int("train_rows", len(trainIdx)).
		Int("holdout_rows", len(holdoutIdx)).
		Msg("temporal split")

	if len(trainIdx) < minTrainingRows {
		return nil, fmt.Errorf("%w: %d training rows, need at least %d",
			domain.ErrInsufficientTrainingData, len(trainIdx), minTrainingRows)
	}

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]float64, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = fs.Rows[idx]
		trainY[i] = fs.Targets[idx]
	}

	reg := model.NewGBTRegressor(cfg)
	if err := reg.Fit(trainX, trainY); err != nil {
		return nil, fmt.Errorf("fit regressor: %w", err)
	}

	artifact := &TrainedArtifact{
		Model:           reg,
		LocationEncoder: fs.LocationEncoder,
		ArticleEncoder:  fs.ArticleEncoder,
		LastPeriod:      lastPeriod,
		TrainRows:       len(trainIdx),
	}

	if len(holdoutIdx) > 0 {
		observed := make([]float64, len(holdoutIdx))
		predicted := make([]float64, len(holdoutIdx))
		for i, idx := range holdoutIdx {
			observed[i] = fs.Targets[idx]
			pred, err := reg.Predict(fs.Rows[idx])
			if err != nil {
				return nil, fmt.Errorf("score holdout: %w", err)
			}
			predicted[i] = pred
		}
		artifact.Metrics = &HoldoutMetrics{
			MAE:  model.MAE(observed, predicted),
			RMSE: model.RMSE(observed, predicted),
			Rows: len(holdoutIdx),
		}
		log.Info().
			Float64("mae", artifact.Metrics.MAE).
			Float64("rmse", artifact.Metrics.RMSE).
			Int("rows", artifact.Metrics.Rows).
			Msg("holdout evaluation")
	}

	return artifact, nil
}
