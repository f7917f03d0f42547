// Command seed applies the embedded schema and loads demo catalog data.
package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/printhub/coupon-platform/db"
	"github.com/printhub/coupon-platform/internal/config"
	"github.com/printhub/coupon-platform/internal/model"
	"github.com/printhub/coupon-platform/internal/repository"
	"github.com/printhub/coupon-platform/pkg/database"
)

var demoProducts = []model.Product{
	{Name: "P2502W Wireless Laser Printer", Category: "Printers", Price: 299.99, IsActive: true},
	{Name: "M6552NW Laser MFP", Category: "Printers", Price: 449.00, IsActive: true},
	{Name: "TL-410 Toner Cartridge", Category: "Cartridges", Price: 64.99, IsActive: true},
	{Name: "A4 Premium Paper 500 Sheets", Category: "Paper", Price: 12.50, IsActive: true},
	{Name: "USB-C Printer Cable 2m", Category: "Accessories", Price: 18.90, IsActive: true},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := database.ApplySchema(ctx, pool, db.Schema); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}
	log.Info().Msg("schema applied")

	products := repository.NewProductRepository(pool)
	existing, err := products.ListActive(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to check catalog")
	}
	if len(existing) > 0 {
		log.Info().Int("products", len(existing)).Msg("catalog already seeded, nothing to do")
		return
	}

	for _, p := range demoProducts {
		p.ID = uuid.NewString()
		if err := products.Insert(ctx, &p); err != nil {
			log.Fatal().Err(err).Str("name", p.Name).Msg("failed to seed product")
		}
		log.Info().Str("name", p.Name).Str("category", p.Category).Msg("seeded product")
	}
	log.Info().Int("products", len(demoProducts)).Msg("seed complete")
}
