package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var dropStatements = []string{
	`DROP TABLE IF EXISTS order_lines`,
	`DROP TABLE IF EXISTS orders`,
	`DROP TABLE IF EXISTS monthly_history`,
	`DROP TABLE IF EXISTS inventory`,
	`DROP TABLE IF EXISTS articles`,
}

var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		article_id     TEXT PRIMARY KEY,
		category       TEXT NOT NULL,
		supplier_price NUMERIC(12,2) NOT NULL,
		sale_price     NUMERIC(12,2) NOT NULL,
		season         TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		inventory_id            BIGINT PRIMARY KEY,
		article_id              TEXT NOT NULL,
		location_id             TEXT NOT NULL,
		stock_actual            INT NOT NULL,
		stock_minimo            INT NOT NULL,
		stock_recomendado       INT NOT NULL,
		margin                  NUMERIC(6,3) NOT NULL,
		replenishment_lead_time INT NOT NULL,
		safety_stock            INT NOT NULL,
		avg_demand              DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS monthly_history (
		inventory_id BIGINT NOT NULL,
		location_id  TEXT NOT NULL,
		year         INT NOT NULL,
		month        INT NOT NULL,
		imported_qty INT NOT NULL,
		exported_qty INT NOT NULL,
		stock_start  INT NOT NULL,
		stock_end    INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id       BIGINT PRIMARY KEY,
		creation_date  TIMESTAMPTZ NOT NULL,
		delivery_date  TIMESTAMPTZ NOT NULL,
		organization   TEXT NOT NULL,
		state          TEXT NOT NULL,
		total          NUMERIC(14,2) NOT NULL,
		payment_method TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		order_id     BIGINT NOT NULL,
		inventory_id BIGINT NOT NULL,
		quantity     INT NOT NULL,
		unit_price   NUMERIC(12,2) NOT NULL
	)`,
}

func createSchema(ctx context.Context, db *sqlx.DB, drop bool) error {
	if drop {
		for _, stmt := range dropStatements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("drop table: %w", err)
			}
		}
	}
	for _, stmt := range createStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

const insertBatch = 500

func insertAll(ctx context.Context, db *sqlx.DB, data *seedData) error {
	if err := batchInsert(ctx, db, `
		INSERT INTO articles (article_id, category, supplier_price, sale_price, season)
		VALUES (:article_id, :category, :supplier_price, :sale_price, :season)`,
		data.Articles); err != nil {
		return fmt.Errorf("insert articles: %w", err)
	}
	if err := batchInsert(ctx, db, `
		INSERT INTO inventory (inventory_id, article_id, location_id, stock_actual, stock_minimo,
			stock_recomendado, margin, replenishment_lead_time, safety_stock, avg_demand)
		VALUES (:inventory_id, :article_id, :location_id, :stock_actual, :stock_minimo,
			:stock_recomendado, :margin, :replenishment_lead_time, :safety_stock, :avg_demand)`,
		data.Inventory); err != nil {
		return fmt.Errorf("insert inventory: %w", err)
	}
	if err := batchInsert(ctx, db, `
		INSERT INTO monthly_history (inventory_id, location_id, year, month, imported_qty,
			exported_qty, stock_start, stock_end)
		VALUES (:inventory_id, :location_id, :year, :month, :imported_qty,
			:exported_qty, :stock_start, :stock_end)`,
		data.History); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	if err := batchInsert(ctx, db, `
		INSERT INTO orders (order_id, creation_date, delivery_date, organization, state, total, payment_method)
		VALUES (:order_id, :creation_date, :delivery_date, :organization, :state, :total, :payment_method)`,
		data.Orders); err != nil {
		return fmt.Errorf("insert orders: %w", err)
	}
	if err := batchInsert(ctx, db, `
		INSERT INTO order_lines (order_id, inventory_id, quantity, unit_price)
		VALUES (:order_id, :inventory_id, :quantity, :unit_price)`,
		data.OrderLines); err != nil {
		return fmt.Errorf("insert order lines: %w", err)
	}
	return nil
}

func batchInsert[T any](ctx context.Context, db *sqlx.DB, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertBatch {
		end := start + insertBatch
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := db.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
