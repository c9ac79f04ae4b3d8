package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shard-profit-tracker/internal/bazaar"
	"shard-profit-tracker/internal/models"
)

func setupStore(t *testing.T, aliases map[string]string) *Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Recipe{},
		&models.BazaarQuote{},
		&models.ProfitRecord{},
		&models.PriceSample{},
		&models.MetaInfo{},
	))

	return NewStore(db, zap.NewNop(), aliases)
}

func TestReplaceQuotes(t *testing.T) {
	s := setupStore(t, nil)

	require.NoError(t, s.ReplaceQuotes(map[string]bazaar.QuickStatus{
		"SHARD_A": {ProductID: "SHARD_A", BuyPrice: 100, BuyOrders: 5},
		"SHARD_B": {ProductID: "SHARD_B", BuyPrice: 50, BuyOrders: 2},
	}))

	quotes, err := s.AllQuotes()
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
	assert.Equal(t, 100.0, quotes["SHARD_A"].BuyPrice)

	// A later snapshot fully replaces the earlier one.
	require.NoError(t, s.ReplaceQuotes(map[string]bazaar.QuickStatus{
		"SHARD_C": {ProductID: "SHARD_C", BuyPrice: 7},
	}))

	quotes, err = s.AllQuotes()
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
	_, ok := quotes["SHARD_A"]
	assert.False(t, ok)
}

func TestReplaceQuotesAliases(t *testing.T) {
	s := setupStore(t, map[string]string{
		"SHARD_BOGGED": "SHARD_SEA_ARCHER",
		"SHARD_GHOST":  "SHARD_NOT_IN_FEED",
	})

	require.NoError(t, s.ReplaceQuotes(map[string]bazaar.QuickStatus{
		"SHARD_SEA_ARCHER": {ProductID: "SHARD_SEA_ARCHER", BuyPrice: 42, BuyOrders: 3},
	}))

	quotes, err := s.AllQuotes()
	require.NoError(t, err)

	// The alias target's quote is duplicated under the legacy ID.
	require.Contains(t, quotes, "SHARD_BOGGED")
	assert.Equal(t, 42.0, quotes["SHARD_BOGGED"].BuyPrice)
	assert.Equal(t, int64(3), quotes["SHARD_BOGGED"].BuyOrders)

	// An alias whose target is absent writes nothing.
	_, ok := quotes["SHARD_GHOST"]
	assert.False(t, ok)
}

func TestReplaceCatalogAssignsStableRecipeIDs(t *testing.T) {
	s := setupStore(t, nil)

	products := []models.Product{
		{ProductID: "SHARD_A", Name: "Alpha", Rarity: "Common", CraftingID: "1"},
		{ProductID: "SHARD_B", Name: "Beta", Rarity: "Rare", CraftingID: "2"},
	}
	recipes := []models.Recipe{
		{Quantity1: 2, Ingredient1: "SHARD_A", Quantity2: 1, Ingredient2: "SHARD_B", OutputQuantity: 1, OutputItem: "SHARD_C"},
		{Quantity1: 1, Ingredient1: "SHARD_B", Quantity2: 1, Ingredient2: "SHARD_A", OutputQuantity: 2, OutputItem: "SHARD_D"},
	}
	require.NoError(t, s.ReplaceCatalog(products, recipes))

	loaded, err := s.AllRecipes()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, uint(1), loaded[0].ID)
	assert.Equal(t, uint(2), loaded[1].ID)
	assert.Equal(t, "SHARD_C", loaded[0].OutputItem)

	byName, err := s.ProductByName("Beta")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, "SHARD_B", byName.ProductID)

	missing, err := s.ProductByName("Nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestReplaceProfitRecords(t *testing.T) {
	s := setupStore(t, nil)

	first := []models.ProfitRecord{
		{RecipeID: 1, OutputItem: "Gamma", Profit: 100, Ingredients: "[]"},
		{RecipeID: 2, OutputItem: "Gamma", Profit: 300, Ingredients: "[]"},
		{RecipeID: 3, OutputItem: "Delta", Profit: 200, Ingredients: "[]"},
	}
	require.NoError(t, s.ReplaceProfitRecords(first))

	records, err := s.AllProfitRecords()
	require.NoError(t, err)
	require.Len(t, records, 3)
	// Sorted by profit, best first.
	assert.Equal(t, int64(300), records[0].Profit)
	assert.Equal(t, int64(100), records[2].Profit)

	gamma, err := s.ProfitRecordsByOutput("Gamma")
	require.NoError(t, err)
	assert.Len(t, gamma, 2)

	require.NoError(t, s.ReplaceProfitRecords(nil))
	records, err = s.AllProfitRecords()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPriceSamples(t *testing.T) {
	s := setupStore(t, nil)

	latest, err := s.LatestSampleTimestamp()
	require.NoError(t, err)
	assert.Equal(t, "", latest)

	samples := []models.PriceSample{
		{ProductID: "SHARD_A", Timestamp: "2025-08-01T00:00:00Z", BuyPrice: 1, SellPrice: 2},
		{ProductID: "SHARD_A", Timestamp: "2025-08-01T01:00:00Z", BuyPrice: 3, SellPrice: 4},
	}
	require.NoError(t, s.InsertSamples(samples))

	// Duplicates on (product, timestamp) are ignored, not an error.
	require.NoError(t, s.InsertSamples(samples[:1]))

	loaded, err := s.SamplesFor("SHARD_A")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "2025-08-01T00:00:00Z", loaded[0].Timestamp)

	latest, err = s.LatestSampleTimestamp()
	require.NoError(t, err)
	assert.Equal(t, "2025-08-01T01:00:00Z", latest)
}

func TestMeta(t *testing.T) {
	s := setupStore(t, nil)

	value, err := s.GetMeta(models.MetaKeyLastUpdate)
	require.NoError(t, err)
	assert.Equal(t, "", value)

	require.NoError(t, s.SetMeta(models.MetaKeyLastUpdate, "2025-08-29T10:00:00Z"))
	require.NoError(t, s.SetMeta(models.MetaKeyLastUpdate, "2025-08-29T12:00:00Z"))

	value, err = s.GetMeta(models.MetaKeyLastUpdate)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-29T12:00:00Z", value)
}
