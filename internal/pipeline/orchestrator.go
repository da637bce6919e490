package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/stockcast/internal/domain"
	"github.com/andresuchdata/stockcast/internal/model"
	"github.com/andresuchdata/stockcast/internal/repository"
	"github.com/rs/zerolog/log"
)

// Stage names the sequential states of one run.
type Stage string

const (
	StageConnect         Stage = "connect"
	StageFetch           Stage = "fetch"
	StageAggregate       Stage = "aggregate"
	StageFeatureEngineer Stage = "feature_engineer"
	StageTrain           Stage = "train"
	StagePredict         Stage = "predict"
	StageReplenish       Stage = "replenish"
	StagePersist         Stage = "persist"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// Options are the run parameters the orchestrator needs.
type Options struct {
	SafetyFactor         float64
	MinStockFloor        int
	MinTrainingRows      int
	TrainingWindowMonths int
	Model                model.GBTConfig
}

// RunResult summarizes a finished run. Stage is either StageDone or
// StageFailed; FailedAt records where a failed run stopped.
type RunResult struct {
	Stage     Stage
	FailedAt  Stage
	Err       error
	Metrics   *HoldoutMetrics
	Forecasts int
	Updates   int
	WriteBack domain.WriteBackResult
}

// Succeeded reports the boolean contract exposed to the external scheduler.
func (r *RunResult) Succeeded() bool {
	return r.Stage == StageDone
}

// Orchestrator drives one run through the stage sequence. Any stage error
// short-circuits to Failed; no stage is retried. Each run owns its store
// snapshot, encoders and model exclusively.
type Orchestrator struct {
	store     repository.FactStore
	artifacts *ArtifactWriter
	opts      Options
	now       func() time.Time
}

func NewOrchestrator(store repository.FactStore, artifacts *ArtifactWriter, opts Options) *Orchestrator {
	return &Orchestrator{
		store:     store,
		artifacts: artifacts,
		opts:      opts,
		now:       time.Now,
	}
}

// Run executes the full pipeline once and reports the terminal state.
func (o *Orchestrator) Run(ctx context.Context) *RunResult {
	result := &RunResult{}
	started := o.now()
	log.Info().Time("started", started).Msg("stock update run starting")

	fail := func(stage Stage, err error) *RunResult {
		result.Stage = StageFailed
		result.FailedAt = stage
		result.Err = err
		log.Error().Err(err).Str("stage", string(stage)).Msg("run failed")
		return result
	}

	// Connect
	o.enter(StageConnect)
	if err := o.store.Ping(ctx); err != nil {
		return fail(StageConnect, err)
	}

	// Fetch
	o.enter(StageFetch)
	tables, err := o.store.FetchFactTables(ctx)
	if err != nil {
		return fail(StageFetch, err)
	}
	facts, err := JoinFacts(tables)
	if err != nil {
		return fail(StageFetch, err)
	}
	log.Info().
		Int("inventory", len(tables.Inventory)).
		Int("history", len(tables.History)).
		Int("fact_rows", len(facts)).
		Msg("facts joined")

	// Aggregate
	o.enter(StageAggregate)
	aggregates := AggregateSales(facts)
	if len(aggregates) == 0 {
		return fail(StageAggregate, fmt.Errorf("%w: no sales aggregates", domain.ErrInsufficientTrainingData))
	}
	log.Info().Int("rows", len(aggregates)).Msg("monthly sales aggregated")

	// FeatureEngineer
	o.enter(StageFeatureEngineer)
	featureSet, err := BuildFeatures(aggregates)
	if err != nil {
		return fail(StageFeatureEngineer, err)
	}
	if o.opts.TrainingWindowMonths > 0 {
		// Accepted for observability; eligibility is enforced upstream.
		log.Info().Int("training_window_months", o.opts.TrainingWindowMonths).Msg("training window hint")
	}

	// Train
	o.enter(StageTrain)
	artifact, err := TrainForecaster(featureSet, o.opts.MinTrainingRows, o.opts.Model)
	if err != nil {
		return fail(StageTrain, err)
	}
	result.Metrics = artifact.Metrics

	// Predict
	o.enter(StagePredict)
	forecasts, err := PredictNextPeriod(artifact)
	if err != nil {
		return fail(StagePredict, err)
	}
	result.Forecasts = len(forecasts)

	// Replenish
	o.enter(StageReplenish)
	policy := ReplenishmentPolicy{
		SafetyFactor:  o.opts.SafetyFactor,
		MinStockFloor: o.opts.MinStockFloor,
	}
	updates := BuildUpdates(forecasts, tables.Inventory, policy)
	result.Updates = len(updates)

	// Persist
	o.enter(StagePersist)
	writeBack, err := o.store.UpdateStockMinimo(ctx, updates)
	if err != nil {
		return fail(StagePersist, err)
	}
	result.WriteBack = writeBack
	if writeBack.Attempted > 0 && writeBack.Succeeded == 0 {
		return fail(StagePersist, fmt.Errorf("all %d stock_minimo updates failed", writeBack.Attempted))
	}
	if writeBack.Partial() {
		log.Warn().
			Int("failed", writeBack.Failed).
			Int("succeeded", writeBack.Succeeded).
			Msg("write-back partial failure")
	}
	if o.artifacts != nil {
		if err := o.artifacts.Write(ctx, o.now(), artifact, forecasts, updates); err != nil {
			return fail(StagePersist, err)
		}
	}

	result.Stage = StageDone
	log.Info().
		Dur("elapsed", o.now().Sub(started)).
		Int("forecasts", result.Forecasts).
		Int("updates_written", writeBack.Succeeded).
		Msg("stock update run completed")
	return result
}

func (o *Orchestrator) enter(stage Stage) {
	log.Info().Str("stage", string(stage)).Msg("stage entered")
}
