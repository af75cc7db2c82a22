// cmd/seedstock receives a small demo catalog into one branch through the
// regular stock-in path. Running it twice adds a second batch per product.
// Usage: go run ./cmd/seedstock -branch <uuid>
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/bamskydbest/pharm-back/internal/config"
	"github.com/bamskydbest/pharm-back/internal/dto"
	"github.com/bamskydbest/pharm-back/internal/infra"
	"github.com/bamskydbest/pharm-back/internal/model"
	"github.com/bamskydbest/pharm-back/internal/repository"
	"github.com/bamskydbest/pharm-back/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type demoItem struct {
	barcode, name, category, batch string
	months, qty                    int
	cost, price                    string
}

var catalog = []demoItem{
	{"6001234500011", "Paracetamol 500mg", "Analgesic", "PCM-2401", 18, 200, "0.60", "1.00"},
	{"6001234500028", "Amoxicillin 250mg", "Antibiotic", "AMX-2402", 12, 120, "1.80", "3.00"},
	{"6001234500035", "Ibuprofen 200mg", "Analgesic", "IBU-2403", 24, 150, "0.90", "1.50"},
	{"6001234500042", "Vitamin C 1000mg", "Supplement", "VTC-2404", 9, 80, "2.10", "3.50"},
	{"6001234500059", "ORS Sachet", "Rehydration", "ORS-2405", 2, 60, "0.40", "0.80"},
}

func main() {
	var branch string
	flag.StringVar(&branch, "branch", "", "branch id to receive the stock")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	branchID, err := uuid.Parse(branch)
	if err != nil {
		log.Fatal().Str("branch", branch).Msg("-branch must be a uuid")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	batchRepo := repository.NewBatchRepository(db)
	inv := service.NewInventoryService(
		repository.NewProductRepository(db),
		batchRepo,
		repository.NewStockMovementRepository(db),
		service.NewFEFOSelector(batchRepo, nil),
		nil,
		service.ExpiryThresholds{CriticalDays: cfg.ExpiryCriticalDays, WarningDays: cfg.ExpiryWarningDays},
	)

	seeder := model.Principal{ID: uuid.New(), Name: "Seed", Role: model.RoleAdmin, BranchID: branchID}
	ctx := context.Background()
	for _, it := range catalog {
		resp, err := inv.StockIn(ctx, seeder, dto.StockInRequest{
			Barcode:      it.barcode,
			Name:         it.name,
			Category:     it.category,
			BatchNumber:  it.batch,
			ExpiryDate:   time.Now().UTC().AddDate(0, it.months, 0).Format("2006-01-02"),
			Quantity:     it.qty,
			CostPrice:    decimal.RequireFromString(it.cost),
			SellingPrice: decimal.RequireFromString(it.price),
		})
		if err != nil {
			log.Fatal().Err(err).Str("barcode", it.barcode).Msg("stock in failed")
		}
		log.Info().Str("product", resp.Product.Name).Str("batch_id", resp.Batch.ID).Int("quantity", it.qty).Msg("seeded")
	}
}
