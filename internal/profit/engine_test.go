package profit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shard-profit-tracker/internal/models"
)

func baseRecipe() models.Recipe {
	return models.Recipe{
		ID:             1,
		Quantity1:      2,
		Ingredient1:    "SHARD_A",
		Quantity2:      1,
		Ingredient2:    "SHARD_B",
		OutputQuantity: 1,
		OutputItem:     "SHARD_C",
	}
}

func baseQuotes() map[string]models.BazaarQuote {
	return map[string]models.BazaarQuote{
		"SHARD_A": {ProductID: "SHARD_A", BuyPrice: 100, SellPrice: 80, BuyOrders: 5},
		"SHARD_B": {ProductID: "SHARD_B", BuyPrice: 50, SellPrice: 40, BuyOrders: 3},
		"SHARD_C": {ProductID: "SHARD_C", BuyPrice: 500, SellPrice: 450, SellVolume: 10, BuyOrders: 7},
	}
}

func baseCatalog() map[string]models.Product {
	return map[string]models.Product{
		"SHARD_A": {ProductID: "SHARD_A", Name: "Alpha", Rarity: "Common", Family: "Aquatic", CraftingID: "1"},
		"SHARD_B": {ProductID: "SHARD_B", Name: "Beta", Rarity: "Rare", Family: "Forest", CraftingID: "12"},
		"SHARD_C": {ProductID: "SHARD_C", Name: "Gamma", Rarity: "Epic", Family: "Forest", CraftingID: "7"},
	}
}

func TestComputeBaseScenario(t *testing.T) {
	records := Compute([]models.Recipe{baseRecipe()}, baseQuotes(), baseCatalog(), DefaultOptions(), zap.NewNop())

	require.Len(t, records, 1)
	rec := records[0]

	assert.Equal(t, uint(1), rec.RecipeID)
	assert.Equal(t, "Gamma", rec.OutputItem)
	assert.Equal(t, int64(250), rec.Cost)   // 2*100 + 1*50
	assert.Equal(t, int64(250), rec.Profit) // 500*1 - 250
	assert.Equal(t, int64(10), rec.Demand)
	assert.Equal(t, int64(500), rec.CurrentPrice)
	assert.Equal(t, "E7", rec.DisplayCode)

	ingredients, err := rec.ParseIngredients()
	require.NoError(t, err)
	require.Len(t, ingredients, 2)
	assert.Equal(t, models.IngredientEntry{Name: "Alpha", Amount: 2, Cost: 200}, ingredients[0])
	assert.Equal(t, models.IngredientEntry{Name: "Beta", Amount: 1, Cost: 50}, ingredients[1])
}

// Cost additivity must hold for every record: the stored cost is the sum of
// the two floored ingredient costs, and profit is floored revenue minus it.
func TestComputeCostAdditivity(t *testing.T) {
	quotes := baseQuotes()
	// Fractional prices exercise the flooring.
	quotes["SHARD_A"] = models.BazaarQuote{ProductID: "SHARD_A", BuyPrice: 99.9, BuyOrders: 5}
	quotes["SHARD_B"] = models.BazaarQuote{ProductID: "SHARD_B", BuyPrice: 50.7, BuyOrders: 3}
	quotes["SHARD_C"] = models.BazaarQuote{ProductID: "SHARD_C", BuyPrice: 500.4, SellVolume: 10.9, BuyOrders: 7}

	records := Compute([]models.Recipe{baseRecipe()}, quotes, baseCatalog(), DefaultOptions(), zap.NewNop())
	require.Len(t, records, 1)
	rec := records[0]

	ingredients, err := rec.ParseIngredients()
	require.NoError(t, err)
	assert.Equal(t, int64(199), ingredients[0].Cost) // floor(99.9*2)
	assert.Equal(t, int64(50), ingredients[1].Cost)  // floor(50.7*1)
	assert.Equal(t, ingredients[0].Cost+ingredients[1].Cost, rec.Cost)
	assert.Equal(t, int64(500)-rec.Cost, rec.Profit) // floor(500.4) - cost
	assert.Equal(t, int64(10), rec.Demand)           // floor(10.9)
}

func TestComputeMissingOutputQuote(t *testing.T) {
	quotes := baseQuotes()
	delete(quotes, "SHARD_C")

	records := Compute([]models.Recipe{baseRecipe()}, quotes, baseCatalog(), DefaultOptions(), zap.NewNop())

	assert.Empty(t, records)
}

func TestComputeThinMarketSkip(t *testing.T) {
	quotes := baseQuotes()
	quotes["SHARD_B"] = models.BazaarQuote{ProductID: "SHARD_B", BuyPrice: 50, BuyOrders: 0}

	t.Run("SkipEnabled", func(t *testing.T) {
		records := Compute([]models.Recipe{baseRecipe()}, quotes, baseCatalog(), DefaultOptions(), zap.NewNop())
		assert.Empty(t, records)
	})

	t.Run("SkipDisabled", func(t *testing.T) {
		opts := DefaultOptions()
		opts.SkipEmptyOrders = false
		records := Compute([]models.Recipe{baseRecipe()}, quotes, baseCatalog(), opts, zap.NewNop())
		require.Len(t, records, 1)
		assert.Equal(t, int64(250), records[0].Cost)
	})
}

func TestComputeMissingIngredientQuote(t *testing.T) {
	quotes := baseQuotes()
	delete(quotes, "SHARD_B")

	// An absent quote behaves as a zero-valued one: skipped under the
	// default policy, priced at zero cost when skipping is off.
	records := Compute([]models.Recipe{baseRecipe()}, quotes, baseCatalog(), DefaultOptions(), zap.NewNop())
	assert.Empty(t, records)

	opts := DefaultOptions()
	opts.SkipEmptyOrders = false
	records = Compute([]models.Recipe{baseRecipe()}, quotes, baseCatalog(), opts, zap.NewNop())
	require.Len(t, records, 1)
	assert.Equal(t, int64(200), records[0].Cost) // only SHARD_A contributes
}

func TestComputeCopeMode(t *testing.T) {
	catalog := baseCatalog()
	reptile := catalog["SHARD_A"]
	reptile.Family = models.BonusFamily
	catalog["SHARD_A"] = reptile

	opts := DefaultOptions()
	opts.CopeMode = true

	records := Compute([]models.Recipe{baseRecipe()}, baseQuotes(), catalog, opts, zap.NewNop())
	require.Len(t, records, 1)

	// revenue = 500 * 1.2 = 600, cost unchanged
	assert.Equal(t, int64(250), records[0].Cost)
	assert.Equal(t, int64(350), records[0].Profit)
}

// Enabling COPE never decreases profit for a bonus-eligible recipe and
// never changes it for everyone else.
func TestComputeCopeMonotonicity(t *testing.T) {
	t.Run("EligibleNeverWorse", func(t *testing.T) {
		catalog := baseCatalog()
		reptile := catalog["SHARD_B"]
		reptile.Family = models.BonusFamily
		catalog["SHARD_B"] = reptile

		plain := Compute([]models.Recipe{baseRecipe()}, baseQuotes(), catalog, DefaultOptions(), zap.NewNop())
		opts := DefaultOptions()
		opts.CopeMode = true
		boosted := Compute([]models.Recipe{baseRecipe()}, baseQuotes(), catalog, opts, zap.NewNop())

		require.Len(t, plain, 1)
		require.Len(t, boosted, 1)
		assert.GreaterOrEqual(t, boosted[0].Profit, plain[0].Profit)
	})

	t.Run("IneligibleUnchanged", func(t *testing.T) {
		plain := Compute([]models.Recipe{baseRecipe()}, baseQuotes(), baseCatalog(), DefaultOptions(), zap.NewNop())
		opts := DefaultOptions()
		opts.CopeMode = true
		boosted := Compute([]models.Recipe{baseRecipe()}, baseQuotes(), baseCatalog(), opts, zap.NewNop())

		require.Len(t, plain, 1)
		require.Len(t, boosted, 1)
		assert.Equal(t, plain[0].Profit, boosted[0].Profit)
	})
}

func TestComputeSellPricePolicy(t *testing.T) {
	opts := DefaultOptions()
	opts.Policy = NewPolicy(PriceFieldSell, PriceFieldSell)

	records := Compute([]models.Recipe{baseRecipe()}, baseQuotes(), baseCatalog(), opts, zap.NewNop())
	require.Len(t, records, 1)

	assert.Equal(t, int64(200), records[0].Cost)   // 2*80 + 1*40
	assert.Equal(t, int64(250), records[0].Profit) // 450 - 200
	assert.Equal(t, int64(450), records[0].CurrentPrice)
}

func TestComputeUntranslatableIdentifiers(t *testing.T) {
	catalog := baseCatalog()
	delete(catalog, "SHARD_B")
	delete(catalog, "SHARD_C")

	records := Compute([]models.Recipe{baseRecipe()}, baseQuotes(), catalog, DefaultOptions(), zap.NewNop())
	require.Len(t, records, 1)

	// Raw identifiers pass through; the missing output entry also means no
	// display code can be derived.
	assert.Equal(t, "SHARD_C", records[0].OutputItem)
	assert.Equal(t, "", records[0].DisplayCode)

	ingredients, err := records[0].ParseIngredients()
	require.NoError(t, err)
	assert.Equal(t, "SHARD_B", ingredients[1].Name)
}

func TestNewPolicyValidation(t *testing.T) {
	testCases := []struct {
		name       string
		ingredient string
		output     string
		want       Policy
	}{
		{"BothValid", "sellPrice", "buyPrice", Policy{PriceFieldSell, PriceFieldBuy}},
		{"BothEmpty", "", "", DefaultPolicy()},
		{"Garbage", "midPrice", "weirdPrice", DefaultPolicy()},
		{"MixedCase", "SellPrice", "sellPrice", Policy{PriceFieldBuy, PriceFieldSell}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewPolicy(tc.ingredient, tc.output))
		})
	}
}

func TestCurrentPrice(t *testing.T) {
	price, ok := CurrentPrice(baseQuotes(), DefaultPolicy(), "SHARD_C")
	assert.True(t, ok)
	assert.Equal(t, int64(500), price)

	_, ok = CurrentPrice(baseQuotes(), DefaultPolicy(), "SHARD_MISSING")
	assert.False(t, ok)
}
