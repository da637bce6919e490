package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryFactStore is an in-memory FactStore for orchestrator tests.
type memoryFactStore struct {
	tables   *domain.FactTables
	pingErr  error
	fetchErr error

	failAll   bool
	failRows  map[int64]bool
	written   map[int64]int
	writeCall int
}

func newMemoryFactStore(tables *domain.FactTables) *memoryFactStore {
	return &memoryFactStore{
		tables:   tables,
		failRows: map[int64]bool{},
		written:  map[int64]int{},
	}
}

func (m *memoryFactStore) Ping(ctx context.Context) error {
	return m.pingErr
}

func (m *memoryFactStore) FetchFactTables(ctx context.Context) (*domain.FactTables, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.tables, nil
}

func (m *memoryFactStore) UpdateStockMinimo(ctx context.Context, updates []domain.ReplenishmentUpdate) (domain.WriteBackResult, error) {
	m.writeCall++
	result := domain.WriteBackResult{Attempted: len(updates)}
	for _, u := range updates {
		if m.failAll || m.failRows[u.InventoryID] {
			result.Failed++
			continue
		}
		m.written[u.InventoryID] = u.NewStockMinimo
		result.Succeeded++
	}
	return result, nil
}

// fixtureTables builds a two-article, one-location catalog with 13 months of
// history ending Jan 2025.
func fixtureTables() *domain.FactTables {
	tables := &domain.FactTables{
		Inventory: []domain.InventoryRecord{
			{InventoryID: 1, ArticleID: "A1", LocationID: "L1", StockMinimo: 2},
			{InventoryID: 2, ArticleID: "A2", LocationID: "L1", StockMinimo: 2},
		},
		Articles: []domain.ArticleRecord{
			{ArticleID: "A1", Category: "home"},
			{ArticleID: "A2", Category: "toys"},
		},
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for m := 0; m < 13; m++ {
		period := start.AddDate(0, m, 0)
		for inv := int64(1); inv <= 2; inv++ {
			tables.History = append(tables.History, domain.HistoryRecord{
				InventoryID: inv,
				LocationID:  "L1",
				Year:        period.Year(),
				Month:       int(period.Month()),
				ExportedQty: int(20 + inv*5 + int64(m)),
			})
		}
	}
	return tables
}

func testOptions() Options {
	return Options{
		SafetyFactor:    1.2,
		MinStockFloor:   1,
		MinTrainingRows: 10,
		Model:           testModelConfig(),
	}
}

func TestOrchestratorHappyPath(t *testing.T) {
	store := newMemoryFactStore(fixtureTables())
	artifacts := NewArtifactWriter(t.TempDir(), nil)
	orch := NewOrchestrator(store, artifacts, testOptions())

	result := orch.Run(context.Background())
	require.True(t, result.Succeeded(), "run failed: %v", result.Err)

	assert.Equal(t, StageDone, result.Stage)
	assert.Equal(t, 2, result.Forecasts, "one forecast per (article, location) pair")
	assert.Equal(t, 2, result.Updates)
	assert.Equal(t, 2, result.WriteBack.Succeeded)
	require.NotNil(t, result.Metrics)

	for inv, value := range store.written {
		assert.GreaterOrEqual(t, value, 1, "floor invariant for inventory %d", inv)
	}
	require.Len(t, store.written, 2)
}

func TestOrchestratorDeterministicRuns(t *testing.T) {
	a := newMemoryFactStore(fixtureTables())
	b := newMemoryFactStore(fixtureTables())

	resA := NewOrchestrator(a, nil, testOptions()).Run(context.Background())
	resB := NewOrchestrator(b, nil, testOptions()).Run(context.Background())

	require.True(t, resA.Succeeded())
	require.True(t, resB.Succeeded())
	assert.Equal(t, a.written, b.written, "same snapshot and seed must write the same targets")
}

func TestOrchestratorFailsOnConnect(t *testing.T) {
	store := newMemoryFactStore(fixtureTables())
	store.pingErr = domain.ErrDataSourceUnavailable

	result := NewOrchestrator(store, nil, testOptions()).Run(context.Background())
	assert.Equal(t, StageFailed, result.Stage)
	assert.Equal(t, StageConnect, result.FailedAt)
	assert.ErrorIs(t, result.Err, domain.ErrDataSourceUnavailable)
	assert.Zero(t, store.writeCall, "no mutation before a working connection")
}

func TestOrchestratorFailsOnFetch(t *testing.T) {
	store := newMemoryFactStore(fixtureTables())
	store.fetchErr = errors.New("connection reset")

	result := NewOrchestrator(store, nil, testOptions()).Run(context.Background())
	assert.Equal(t, StageFailed, result.Stage)
	assert.Equal(t, StageFetch, result.FailedAt)
	assert.Zero(t, store.writeCall)
}

func TestOrchestratorFailsOnInsufficientHistory(t *testing.T) {
	tables := fixtureTables()
	tables.History = tables.History[:4] // two periods only

	store := newMemoryFactStore(tables)
	result := NewOrchestrator(store, nil, testOptions()).Run(context.Background())

	assert.Equal(t, StageFailed, result.Stage)
	assert.Equal(t, StageTrain, result.FailedAt)
	assert.ErrorIs(t, result.Err, domain.ErrInsufficientTrainingData)
	assert.Zero(t, store.writeCall, "failed run must not mutate the catalog")
}

func TestOrchestratorAllWritesFailingIsFatal(t *testing.T) {
	store := newMemoryFactStore(fixtureTables())
	store.failAll = true

	result := NewOrchestrator(store, nil, testOptions()).Run(context.Background())
	assert.Equal(t, StageFailed, result.Stage)
	assert.Equal(t, StagePersist, result.FailedAt)
}

func TestOrchestratorPartialWriteFailureStillSucceeds(t *testing.T) {
	store := newMemoryFactStore(fixtureTables())
	store.failRows[2] = true

	result := NewOrchestrator(store, nil, testOptions()).Run(context.Background())
	require.True(t, result.Succeeded())

	assert.Equal(t, 1, result.WriteBack.Failed)
	assert.Equal(t, 1, result.WriteBack.Succeeded)
	assert.True(t, result.WriteBack.Partial())
	assert.Len(t, store.written, 1)
}
