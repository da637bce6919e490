package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the catalog with synthetic historical data",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db-url",
				Usage:    "Database connection string",
				Required: true,
				EnvVars:  []string{"DATABASE_URL"},
			},
			&cli.IntFlag{
				Name:  "articles",
				Usage: "Number of synthetic articles",
				Value: 40,
			},
			&cli.IntFlag{
				Name:  "locations",
				Usage: "Number of synthetic locations",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "months",
				Usage: "Months of history to generate, ending last month",
				Value: 13,
			},
			&cli.Int64Flag{
				Name:  "seed",
				Usage: "Random seed for reproducible data",
				Value: 42,
			},
			&cli.BoolFlag{
				Name:  "drop",
				Usage: "Drop and recreate the five tables first",
			},
		},
		Action: runSeed,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSeed(c *cli.Context) error {
	db, err := sqlx.Connect("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := createSchema(c.Context, db, c.Bool("drop")); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	gen := newGenerator(c.Int64("seed"))
	data := gen.Generate(c.Int("articles"), c.Int("locations"), c.Int("months"))

	if err := insertAll(c.Context, db, data); err != nil {
		return fmt.Errorf("failed to insert seed data: %w", err)
	}

	log.Printf("seeded %d articles, %d inventory rows, %d history rows, %d orders, %d order lines",
		len(data.Articles), len(data.Inventory), len(data.History), len(data.Orders), len(data.OrderLines))
	return nil
}
