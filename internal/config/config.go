package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Bazaar   Bazaar   `mapstructure:"bazaar"`
	History  History  `mapstructure:"history"`
	Pricing  Pricing  `mapstructure:"pricing"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// Bazaar holds the configuration for the Hypixel bazaar API.
type Bazaar struct {
	ApiKey         string  `mapstructure:"apiKey"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
	// Aliases maps retired legacy product IDs to the product whose feed
	// entry now carries their quote. Quotes for the target are persisted a
	// second time under the legacy ID so old recipes keep resolving.
	Aliases map[string]string `mapstructure:"aliases"`
}

// History holds the configuration for the price history refresh job.
type History struct {
	RateLimit        float64 `mapstructure:"rate_limit"`
	RateLimitBurst   int     `mapstructure:"rate_limit_burst"`
	FreshnessMinutes int     `mapstructure:"freshness_minutes"`
}

// Pricing holds the default pricing policy applied when a caller supplies
// none (or an invalid one).
type Pricing struct {
	IngredientPriceField string `mapstructure:"ingredient_price_field"`
	OutputPriceField     string `mapstructure:"output_price_field"`
	SkipEmptyOrders      bool   `mapstructure:"skip_empty_orders"`
	CopeMode             bool   `mapstructure:"cope_mode"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("bazaar.rate_limit", 2) // requests per second
	viper.SetDefault("bazaar.rate_limit_burst", 2)
	viper.SetDefault("bazaar.aliases", map[string]string{
		"SHARD_BOGGED":       "SHARD_SEA_ARCHER",
		"SHARD_LOCH_EMPEROR": "SHARD_SEA_EMPEROR",
	})
	viper.SetDefault("history.rate_limit", 1) // the coflnet API dislikes bursts
	viper.SetDefault("history.rate_limit_burst", 1)
	viper.SetDefault("history.freshness_minutes", 120)
	viper.SetDefault("pricing.ingredient_price_field", "buyPrice")
	viper.SetDefault("pricing.output_price_field", "buyPrice")
	viper.SetDefault("pricing.skip_empty_orders", true)
	viper.SetDefault("pricing.cope_mode", false)
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("database.dsn", "shard_recipes.db")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
