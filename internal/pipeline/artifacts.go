package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/storage"
	"github.com/rs/zerolog/log"
)

// ArtifactWriter persists the fitted model, the encoders and the run's
// prediction/update tables, each tagged with the run date, for audit and
// potential reuse. The local directory is the source of truth; the optional
// object store is a mirror.
type ArtifactWriter struct {
	dir   string
	store storage.ObjectStorage
}

func NewArtifactWriter(dir string, store storage.ObjectStorage) *ArtifactWriter {
	return &ArtifactWriter{dir: dir, store: store}
}

type encoderArtifact struct {
	LocationEncoder *LabelEncoder `json:"location_encoder"`
	ArticleEncoder  *LabelEncoder `json:"article_encoder"`
}

// Write serializes all run artifacts.
func (w *ArtifactWriter) Write(ctx context.Context, runDate time.Time, artifact *TrainedArtifact, forecasts []domain.ForecastRecord, updates []domain.ReplenishmentUpdate) error {
	tag := runDate.Format("20060102")
	modelsDir := filepath.Join(w.dir, "models")
	resultsDir := filepath.Join(w.dir, "results")
	for _, dir := range []string{modelsDir, resultsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact dir %s: %w", dir, err)
		}
	}

	modelPath := filepath.Join(modelsDir, fmt.Sprintf("inventory_model_%s.json", tag))
	if err := writeJSON(modelPath, artifact.Model); err != nil {
		return fmt.Errorf("write model artifact: %w", err)
	}

	encodersPath := filepath.Join(modelsDir, fmt.Sprintf("inventory_encoders_%s.json", tag))
	if err := writeJSON(encodersPath, encoderArtifact{
		LocationEncoder: artifact.LocationEncoder,
		ArticleEncoder:  artifact.ArticleEncoder,
	}); err != nil {
		return fmt.Errorf("write encoder artifact: %w", err)
	}

	predictionsPath := filepath.Join(resultsDir, fmt.Sprintf("predictions_%s.csv", tag))
	if err := writeForecastCSV(predictionsPath, forecasts); err != nil {
		return fmt.Errorf("write predictions artifact: %w", err)
	}

	updatesPath := filepath.Join(resultsDir, fmt.Sprintf("stock_updates_%s.csv", tag))
	if err := writeUpdateCSV(updatesPath, updates); err != nil {
		return fmt.Errorf("write updates artifact: %w", err)
	}

	log.Info().
		Str("model", modelPath).
		Str("encoders", encodersPath).
		Str("predictions", predictionsPath).
		Str("updates", updatesPath).
		Msg("artifacts written")

	w.upload(ctx, modelPath, encodersPath, predictionsPath, updatesPath)
	return nil
}

// upload mirrors artifacts to the object store when one is configured. Upload
// failures are warnings, not run failures.
func (w *ArtifactWriter) upload(ctx context.Context, paths ...string) {
	if w.store == nil {
		return
	}
	for _, path := range paths {
		key, err := filepath.Rel(w.dir, path)
		if err != nil {
			key = filepath.Base(path)
		}
		key = filepath.ToSlash(key)
		if err := w.store.UploadFile(ctx, key, path); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("artifact upload failed")
		}
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeForecastCSV(path string, forecasts []domain.ForecastRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"article_id", "location_id", "period_date", "predicted_units"}); err != nil {
		return err
	}
	for _, fc := range forecasts {
		record := []string{
			fc.ArticleID,
			fc.LocationID,
			fc.PeriodDate.Format("2006-01-02"),
			strconv.Itoa(fc.PredictedUnits),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeUpdateCSV(path string, updates []domain.ReplenishmentUpdate) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"inventory_id", "article_id", "location_id", "predicted_units", "new_stock_minimo"}); err != nil {
		return err
	}
	for _, u := range updates {
		record := []string{
			strconv.FormatInt(u.InventoryID, 10),
			u.ArticleID,
			u.LocationID,
			strconv.Itoa(u.PredictedUnits),
			strconv.Itoa(u.NewStockMinimo),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
