// Command refresher runs one full data refresh: ingest the static recipe
// catalog when missing, pull a bazaar snapshot, rebuild the profit table and
// top up the price history. Meant for cron or a first-time setup.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"shard-profit-tracker/internal/bazaar"
	"shard-profit-tracker/internal/config"
	"shard-profit-tracker/internal/database"
	"shard-profit-tracker/internal/history"
	"shard-profit-tracker/internal/ingest"
	"shard-profit-tracker/internal/logger"
	"shard-profit-tracker/internal/models"
	"shard-profit-tracker/internal/profit"
	"shard-profit-tracker/internal/store"
)

func main() {
	fusionCSV := flag.String("fusion-csv", "data/fusion_data.csv", "path to the fusion recipe CSV")
	shardsJSON := flag.String("shards-json", "data/shards.json", "path to the shard catalog JSON")
	reingest := flag.Bool("reingest", false, "rebuild the catalog and recipe tables even when populated")
	copeMode := flag.Bool("cope", false, "apply the bonus-yield uplift to reptile-ingredient recipes")
	skipEmpty := flag.Bool("skip-empty-orders", true, "skip recipes whose ingredients have no resting buy orders")
	ingredientPrice := flag.String("ingredient-price", "", "ingredient price field (buyPrice or sellPrice, default from config)")
	outputPrice := flag.String("output-price", "", "output price field (buyPrice or sellPrice, default from config)")
	withHistory := flag.Bool("history", true, "run the price history job and wait for it")
	flag.Parse()

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	s := store.NewStore(db, log, cfg.Bazaar.Aliases)
	client := bazaar.NewClient(&cfg.Bazaar, log)

	// Static data only needs ingesting once; -reingest forces it.
	recipes, err := s.AllRecipes()
	if err != nil {
		log.Fatal("Failed to load recipes", zap.Error(err))
	}
	if len(recipes) == 0 || *reingest {
		log.Info("Ingesting recipe catalog",
			zap.String("fusion_csv", *fusionCSV),
			zap.String("shards_json", *shardsJSON))
		if err := ingest.Run(s, log, *fusionCSV, *shardsJSON); err != nil {
			log.Fatal("Ingest failed", zap.Error(err))
		}
	}

	opts := profit.Options{
		Policy:          profit.NewPolicy(cfg.Pricing.IngredientPriceField, cfg.Pricing.OutputPriceField),
		CopeMode:        cfg.Pricing.CopeMode,
		SkipEmptyOrders: cfg.Pricing.SkipEmptyOrders,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cope":
			opts.CopeMode = *copeMode
		case "skip-empty-orders":
			opts.SkipEmptyOrders = *skipEmpty
		}
	})
	if *ingredientPrice != "" || *outputPrice != "" {
		ing := cfg.Pricing.IngredientPriceField
		if *ingredientPrice != "" {
			ing = *ingredientPrice
		}
		out := cfg.Pricing.OutputPriceField
		if *outputPrice != "" {
			out = *outputPrice
		}
		opts.Policy = profit.NewPolicy(ing, out)
	}

	quotes, err := client.GetBazaarQuotes()
	if err != nil {
		log.Fatal("Failed to fetch bazaar data", zap.Error(err))
	}
	if err := s.ReplaceQuotes(quotes); err != nil {
		log.Fatal("Failed to store bazaar snapshot", zap.Error(err))
	}

	records, err := profit.NewEngine(s, log).Rebuild(opts)
	if err != nil {
		log.Fatal("Failed to rebuild profit table", zap.Error(err))
	}
	log.Info("Profit table rebuilt", zap.Int("records", len(records)))

	now := time.Now().UTC().Format(time.RFC3339)
	if err := s.SetMeta(models.MetaKeyLastUpdate, now); err != nil {
		log.Fatal("Failed to record update time", zap.Error(err))
	}

	if *withHistory {
		refresher := history.NewRefresher(s, client, &cfg.History, log)
		refresher.Start()
		for {
			st := refresher.Status()
			if !st.Running {
				if st.Error != "" {
					log.Fatal("Price history update failed", zap.String("error", st.Error))
				}
				break
			}
			time.Sleep(2 * time.Second)
		}
		log.Info("Price history up to date")
	}

	log.Info("Refresh complete", zap.String("last_update", now))
}
