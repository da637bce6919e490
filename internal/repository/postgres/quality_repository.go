package postgres

import (
	"context"
	"fmt"

	"github.com/andresuchdata/stockcast/internal/repository"
)

type qualityRepository struct {
	db *DB
}

func NewQualityRepository(db *DB) *qualityRepository {
	return &qualityRepository{db: db}
}

// QualityReport runs the ad-hoc source-table checks: row counts, orphaned
// history keys, duplicate (article, location) inventory pairs, history span.
func (r *qualityRepository) QualityReport(ctx context.Context) (*repository.QualityReport, error) {
	report := &repository.QualityReport{}

	counts := map[string]*int64{
		"inventory":       &report.InventoryRows,
		"monthly_history": &report.HistoryRows,
		"articles":        &report.ArticleRows,
		"order_lines":     &report.OrderLineRows,
		"orders":          &report.OrderRows,
	}
	for table, dest := range counts {
		if err := r.db.GetContext(ctx, dest, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)); err != nil {
			return nil, classifyReadError(err)
		}
	}

	if err := r.db.GetContext(ctx, &report.NullKeyHistory, `
		SELECT COUNT(*)
		FROM monthly_history h
		LEFT JOIN inventory i ON i.inventory_id = h.inventory_id
		WHERE i.inventory_id IS NULL`); err != nil {
		return nil, classifyReadError(err)
	}

	if err := r.db.GetContext(ctx, &report.DuplicatePairs, `
		SELECT COUNT(*) FROM (
			SELECT article_id, location_id
			FROM inventory
			GROUP BY article_id, location_id
			HAVING COUNT(*) > 1
		) dupes`); err != nil {
		return nil, classifyReadError(err)
	}

	var span struct {
		First *string `db:"first_period"`
		Last  *string `db:"last_period"`
	}
	if err := r.db.GetContext(ctx, &span, `
		SELECT MIN(make_date(year, month, 1))::text AS first_period,
		       MAX(make_date(year, month, 1))::text AS last_period
		FROM monthly_history`); err != nil {
		return nil, classifyReadError(err)
	}
	if span.First != nil {
		report.FirstPeriod = *span.First
	}
	if span.Last != nil {
		report.LastPeriod = *span.Last
	}

	return report, nil
}
