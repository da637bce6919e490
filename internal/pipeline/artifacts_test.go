package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStorage struct {
	keys []string
}

func (r *recordingStorage) UploadFile(ctx context.Context, key, path string) error {
	r.keys = append(r.keys, key)
	return nil
}

func trainedFixture(t *testing.T) *TrainedArtifact {
	t.Helper()
	fs, err := BuildFeatures(thirteenMonths())
	require.NoError(t, err)
	artifact, err := TrainForecaster(fs, 10, testModelConfig())
	require.NoError(t, err)
	return artifact
}

func TestArtifactWriterWritesDatedFiles(t *testing.T) {
	dir := t.TempDir()
	store := &recordingStorage{}
	writer := NewArtifactWriter(dir, store)

	artifact := trainedFixture(t)
	forecasts, err := PredictNextPeriod(artifact)
	require.NoError(t, err)
	updates := BuildUpdates(forecasts, fixtureTables().Inventory, ReplenishmentPolicy{SafetyFactor: 1.2, MinStockFloor: 1})

	runDate := time.Date(2025, 2, 3, 9, 0, 0, 0, time.UTC)
	require.NoError(t, writer.Write(context.Background(), runDate, artifact, forecasts, updates))

	wantFiles := []string{
		"models/inventory_model_20250203.json",
		"models/inventory_encoders_20250203.json",
		"results/predictions_20250203.csv",
		"results/stock_updates_20250203.csv",
	}
	for _, rel := range wantFiles {
		_, err := os.Stat(filepath.Join(dir, rel))
		assert.NoError(t, err, "expected artifact %s", rel)
	}
	assert.ElementsMatch(t, wantFiles, store.keys, "every artifact is mirrored to object storage")
}

func TestArtifactEncodersRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writer := NewArtifactWriter(dir, nil)
	artifact := trainedFixture(t)

	runDate := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, writer.Write(context.Background(), runDate, artifact, nil, nil))

	data, err := os.ReadFile(filepath.Join(dir, "models", "inventory_encoders_20250203.json"))
	require.NoError(t, err)

	var restored encoderArtifact
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, artifact.LocationEncoder.Classes(), restored.LocationEncoder.Classes())
	assert.Equal(t, artifact.ArticleEncoder.Classes(), restored.ArticleEncoder.Classes())
}

func TestArtifactPredictionCSVShape(t *testing.T) {
	dir := t.TempDir()
	writer := NewArtifactWriter(dir, nil)
	artifact := trainedFixture(t)

	forecasts, err := PredictNextPeriod(artifact)
	require.NoError(t, err)

	runDate := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, writer.Write(context.Background(), runDate, artifact, forecasts, nil))

	f, err := os.Open(filepath.Join(dir, "results", "predictions_20250203.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(forecasts)+1)
	assert.Equal(t, []string{"article_id", "location_id", "period_date", "predicted_units"}, rows[0])
	assert.Equal(t, "2025-02-01", rows[1][2])
}
