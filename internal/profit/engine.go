// Package profit joins the recipe table, the bazaar snapshot and the product
// catalog into one profitability record per craftable recipe.
package profit

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"shard-profit-tracker/internal/models"
	"shard-profit-tracker/internal/store"
)

// copeBonusFactor models the 20% double-output chance of bonus-family
// ingredients as a flat expected-value uplift. Deterministic on purpose:
// downstream sorting assumes reproducible profit values.
const copeBonusFactor = 1.2

// Options configures a single engine run.
type Options struct {
	Policy Policy
	// CopeMode applies the bonus-yield uplift to recipes with at least one
	// bonus-family ingredient.
	CopeMode bool
	// SkipEmptyOrders drops recipes where either ingredient has no resting
	// buy orders; those quotes are too thin to price a craft from.
	SkipEmptyOrders bool
}

// DefaultOptions returns the engine defaults: buy-price policy, COPE off,
// thin markets skipped.
func DefaultOptions() Options {
	return Options{
		Policy:          DefaultPolicy(),
		CopeMode:        false,
		SkipEmptyOrders: true,
	}
}

// Compute produces one profit record per priceable recipe. Recipes whose
// output has no quote are omitted, not zeroed; ingredient identifiers with
// no catalog entry pass through untranslated. Neither is an error.
func Compute(recipes []models.Recipe, quotes map[string]models.BazaarQuote, catalog map[string]models.Product, opts Options, logger *zap.Logger) []models.ProfitRecord {
	records := make([]models.ProfitRecord, 0, len(recipes))

	for _, recipe := range recipes {
		outQuote, ok := quotes[recipe.OutputItem]
		if !ok {
			logger.Info("Output item not found in bazaar data, skipping recipe",
				zap.Uint("recipe_id", recipe.ID),
				zap.String("output_item", recipe.OutputItem))
			continue
		}

		// Missing ingredient quotes behave as zero-valued ones: no resting
		// orders, zero price. Under the default skip policy that excludes
		// the recipe below.
		ing1Quote := quotes[recipe.Ingredient1]
		ing2Quote := quotes[recipe.Ingredient2]

		if opts.SkipEmptyOrders && (ing1Quote.BuyOrders == 0 || ing2Quote.BuyOrders == 0) {
			logger.Info("Skipping recipe due to empty ingredient buy orders",
				zap.Uint("recipe_id", recipe.ID),
				zap.String("output_item", recipe.OutputItem))
			continue
		}

		costIngredient1 := opts.Policy.IngredientPrice(ing1Quote) * float64(recipe.Quantity1)
		costIngredient2 := opts.Policy.IngredientPrice(ing2Quote) * float64(recipe.Quantity2)
		outputPrice := opts.Policy.OutputPrice(outQuote)

		revenue := outputPrice * float64(recipe.OutputQuantity)
		if opts.CopeMode && hasBonusIngredient(recipe, catalog) {
			revenue *= copeBonusFactor
		}

		cost := floor(costIngredient1) + floor(costIngredient2)
		netProfit := floor(revenue) - cost

		ingredients, err := models.EncodeIngredients([]models.IngredientEntry{
			{Name: displayName(recipe.Ingredient1, catalog, logger), Amount: recipe.Quantity1, Cost: floor(costIngredient1)},
			{Name: displayName(recipe.Ingredient2, catalog, logger), Amount: recipe.Quantity2, Cost: floor(costIngredient2)},
		})
		if err != nil {
			logger.Warn("Failed to encode ingredient list, skipping recipe",
				zap.Uint("recipe_id", recipe.ID), zap.Error(err))
			continue
		}

		records = append(records, models.ProfitRecord{
			RecipeID:     recipe.ID,
			OutputItem:   displayName(recipe.OutputItem, catalog, logger),
			Demand:       floor(outQuote.SellVolume),
			Profit:       netProfit,
			Cost:         cost,
			Ingredients:  ingredients,
			DisplayCode:  displayCode(recipe.OutputItem, catalog),
			CurrentPrice: floor(outputPrice),
		})
	}

	return records
}

// CurrentPrice returns the policy-priced value of a single product, for
// point lookups outside a full engine run.
func CurrentPrice(quotes map[string]models.BazaarQuote, policy Policy, productID string) (int64, bool) {
	quote, ok := quotes[productID]
	if !ok {
		return 0, false
	}
	return floor(policy.OutputPrice(quote)), true
}

func hasBonusIngredient(recipe models.Recipe, catalog map[string]models.Product) bool {
	return catalog[recipe.Ingredient1].Family == models.BonusFamily ||
		catalog[recipe.Ingredient2].Family == models.BonusFamily
}

// displayName translates a product ID via the catalog, keeping the raw ID
// when no entry exists.
func displayName(productID string, catalog map[string]models.Product, logger *zap.Logger) string {
	if product, ok := catalog[productID]; ok {
		return product.Name
	}
	logger.Warn("Product not found in catalog, keeping raw identifier",
		zap.String("product_id", productID))
	return productID
}

// displayCode builds the icon code: uppercased rarity initial + crafting ID.
func displayCode(productID string, catalog map[string]models.Product) string {
	product, ok := catalog[productID]
	if !ok || product.Rarity == "" {
		return ""
	}
	return strings.ToUpper(product.Rarity[:1]) + product.CraftingID
}

func floor(v float64) int64 {
	return int64(math.Floor(v))
}

// Engine runs the computation against the database and rebuilds the derived
// table atomically.
type Engine struct {
	store  *store.Store
	logger *zap.Logger
}

// NewEngine creates a new profit engine.
func NewEngine(s *store.Store, logger *zap.Logger) *Engine {
	return &Engine{store: s, logger: logger}
}

// Rebuild loads the three source tables, computes profitability and swaps
// the derived table in one transaction. Any load failure aborts the run
// before the old table is touched.
func (e *Engine) Rebuild(opts Options) ([]models.ProfitRecord, error) {
	recipes, err := e.store.AllRecipes()
	if err != nil {
		return nil, err
	}
	quotes, err := e.store.AllQuotes()
	if err != nil {
		return nil, err
	}
	catalog, err := e.store.AllProducts()
	if err != nil {
		return nil, err
	}

	records := Compute(recipes, quotes, catalog, opts, e.logger)
	if err := e.store.ReplaceProfitRecords(records); err != nil {
		return nil, err
	}
	return records, nil
}
