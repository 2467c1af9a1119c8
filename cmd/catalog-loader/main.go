// Package main provides a bulk catalog loader.
// It reads product records from a JSON file and upserts them into the
// products table in batches. Intended for seeding environments and for
// periodic catalog refreshes.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	"github.com/freshmart/orderflow/internal/adapters/outbound/postgres"
	"github.com/freshmart/orderflow/internal/domain/entity"
	"github.com/freshmart/orderflow/internal/pkg/env"
)

// productRecord is one entry of the input file. Price is a decimal
// string; omit it for products without pricing.
type productRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         string `json:"price,omitempty"`
	StockQuantity int    `json:"stockQuantity"`
}

func main() {
	file := flag.String("file", "", "Path to the JSON catalog file (required)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)

	if *file == "" {
		logger.Error("-file flag is required")
		os.Exit(1)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Error("DATABASE_URL environment variable is required")
		os.Exit(1)
	}

	records, err := readCatalog(*file)
	if err != nil {
		logger.Error("failed to read catalog file", "file", *file, "error", err)
		os.Exit(1)
	}

	products := make([]*entity.Product, 0, len(records))
	for _, rec := range records {
		p, err := toProduct(rec)
		if err != nil {
			logger.Error("invalid catalog record", "id", rec.ID, "error", err)
			os.Exit(1)
		}
		products = append(products, p)
	}

	ctx := context.Background()
	pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(databaseURL))
	if err != nil {
		logger.Error("failed to open database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo, err := postgres.NewProductRepository(pool, logger, env.GetInt("PRODUCT_BATCH_SIZE", 0))
	if err != nil {
		logger.Error("failed to create product repository", "error", err)
		os.Exit(1)
	}

	if err := repo.UpsertProducts(ctx, products); err != nil {
		logger.Error("catalog upsert failed", "error", err)
		os.Exit(1)
	}

	logger.Info("catalog loaded", "products", len(products), "file", *file)
}

func readCatalog(path string) ([]productRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []productRecord
	if err := json.NewDecoder(f).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func toProduct(rec productRecord) (*entity.Product, error) {
	var price decimal.NullDecimal
	if rec.Price != "" {
		d, err := decimal.NewFromString(rec.Price)
		if err != nil {
			return nil, err
		}
		price = decimal.NullDecimal{Decimal: d, Valid: true}
	}
	return entity.NewProduct(rec.ID, rec.Name, price, rec.StockQuantity)
}
