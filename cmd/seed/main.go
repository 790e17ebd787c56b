package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"time"

	cli "github.com/jawher/mow.cli"

	"github.com/esraeslem/hm-global-price-tracker/internal/config"
	"github.com/esraeslem/hm-global-price-tracker/internal/database"
	"github.com/esraeslem/hm-global-price-tracker/internal/region"
)

var productNames = []string{
	"Slim Fit T-shirt", "Oversized Hoodie", "Regular Fit Jeans",
	"Ribbed Tank Top", "Linen-blend Shirt", "Pleated Skirt",
	"Wide-leg Trousers", "Knit Sweater", "Denim Jacket",
	"Jersey Dress", "Cotton Shorts", "Puffer Vest",
	"Crew-neck Sweatshirt", "Satin Blouse", "Cargo Pants",
}

var categories = []string{"dresses", "tops", "trousers", "outerwear"}

// Local price level per unit of USD, roughly matching storefront pricing.
var localFactor = map[string]float64{
	"TRY": 36.0,
	"USD": 1.0,
	"GBP": 0.79,
	"EUR": 0.93,
	"SEK": 10.4,
}

func main() {
	app := cli.App("seed", "Populate the price tracker database with generated sample data")

	var (
		products = app.IntOpt("n products", 15, "number of products to generate")
		days     = app.IntOpt("d days", 14, "days of observation history per product")
		seed     = app.IntOpt("seed", 42, "random seed, fixed for reproducible datasets")
	)

	app.Action = func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		slog.SetDefault(logger)

		if err := run(*products, *days, int64(*seed), logger); err != nil {
			logger.Error("seeding failed", "error", err)
			cli.Exit(1)
		}
	}

	app.Run(os.Args)
}

func run(products, days int, seed int64, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx := context.Background()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	regions := region.All()
	inserted := 0

	for i := 0; i < products; i++ {
		articleCode := fmt.Sprintf("%010d", 100000000+rng.Intn(900000000))
		product := &database.Product{
			ArticleCode: articleCode,
			Name:        productNames[rng.Intn(len(productNames))],
			Category:    categories[rng.Intn(len(categories))],
			ImageURL:    fmt.Sprintf("https://image.hm.com/sample/%s.jpg", articleCode),
		}
		if err := db.UpsertProduct(ctx, product); err != nil {
			return err
		}

		// One base USD price per product; regions drift around it so the
		// dashboard has real cross-region spread to show.
		baseUSD := 5 + rng.Float64()*60

		for _, reg := range regions {
			regionalUSD := baseUSD * (0.85 + rng.Float64()*0.3)

			for day := 0; day < days; day++ {
				priceUSD := regionalUSD * (0.95 + rng.Float64()*0.1)

				discount := 0.0
				if rng.Float64() < 0.25 {
					discount = round2(10 + rng.Float64()*40)
					priceUSD *= 1 - discount/100
				}

				local := round2(priceUSD * localFactor[reg.Currency])

				obs := &database.PriceObservation{
					ArticleCode:        articleCode,
					Region:             string(reg.Code),
					PriceOriginal:      local,
					Currency:           reg.Currency,
					PriceInUSD:         round2(priceUSD),
					DiscountPercentage: discount,
					InStock:            rng.Float64() > 0.05,
					ObservedAt:         time.Now().UTC().AddDate(0, 0, -(days - 1 - day)),
				}
				if err := db.InsertPriceObservation(ctx, obs); err != nil {
					return err
				}
				inserted++
			}
		}
	}

	logger.Info("sample data generated",
		"products", products,
		"regions", len(regions),
		"observations", inserted)

	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
