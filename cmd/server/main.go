package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shard-profit-tracker/internal/api"
	"shard-profit-tracker/internal/bazaar"
	"shard-profit-tracker/internal/config"
	"shard-profit-tracker/internal/database"
	"shard-profit-tracker/internal/history"
	"shard-profit-tracker/internal/logger"
	"shard-profit-tracker/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Connect to the database
	db, err := database.NewDatabase(&cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	s := store.NewStore(db, log, cfg.Bazaar.Aliases)
	client := bazaar.NewClient(&cfg.Bazaar, log)
	refresher := history.NewRefresher(s, client, &cfg.History, log)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	api.SetupRoutes(r.Group("/api"), s, client, refresher, cfg.Pricing, log)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting web server", zap.String("address", addr))

	if err := r.Run(addr); err != nil {
		log.Fatal("Web server failed", zap.Error(err))
	}
}
