// Package api exposes the dashboard JSON API over gin.
package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shard-profit-tracker/internal/bazaar"
	"shard-profit-tracker/internal/config"
	"shard-profit-tracker/internal/history"
	"shard-profit-tracker/internal/models"
	"shard-profit-tracker/internal/profit"
	"shard-profit-tracker/internal/resolver"
	"shard-profit-tracker/internal/store"
)

const (
	priceHistoryWindow = 7 * 24 * time.Hour
	averagePriceWindow = 24 * time.Hour
)

// Handler bundles the services behind the API routes.
type Handler struct {
	store     *store.Store
	client    bazaar.ClientInterface
	refresher *history.Refresher
	resolver  *resolver.Resolver
	engine    *profit.Engine
	pricing   config.Pricing
	logger    *zap.Logger
}

// SetupRoutes registers all dashboard routes on the given group.
func SetupRoutes(r *gin.RouterGroup, s *store.Store, client bazaar.ClientInterface, refresher *history.Refresher, pricing config.Pricing, logger *zap.Logger) *Handler {
	handler := &Handler{
		store:     s,
		client:    client,
		refresher: refresher,
		resolver:  resolver.NewResolver(s, logger),
		engine:    profit.NewEngine(s, logger),
		pricing:   pricing,
		logger:    logger.Named("api"),
	}

	r.GET("/items", handler.GetItems)
	r.GET("/items-cope", handler.GetItemsCope)
	r.GET("/shard-recipes", handler.GetShardRecipes)
	r.GET("/shards", handler.GetShards)
	r.GET("/price-history", handler.GetPriceHistory)
	r.GET("/price-history-status", handler.GetPriceHistoryStatus)
	r.POST("/update-data", handler.UpdateData)
	r.GET("/last-update", handler.GetLastUpdate)

	return handler
}

// GetItems returns every profit record, grouped by output name. Within a
// group records keep the global profit-descending order.
func (h *Handler) GetItems(c *gin.Context) {
	records, err := h.store.AllProfitRecords()
	if err != nil {
		h.logger.Error("Failed to load profit records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": groupByOutput(records)})
}

// GetItemsCope returns profit records with the bonus-yield uplift re-applied
// on top of the stored figures for recipes with a bonus-family ingredient.
// The derived table stores plain profits; this view recomputes revenue from
// profit + ingredient costs and scales it, leaving costs untouched.
func (h *Handler) GetItemsCope(c *gin.Context) {
	records, err := h.store.AllProfitRecords()
	if err != nil {
		h.logger.Error("Failed to load profit records", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch COPE items"})
		return
	}
	recipes, err := h.store.AllRecipes()
	if err != nil {
		h.logger.Error("Failed to load recipes", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch COPE items"})
		return
	}
	catalog, err := h.store.AllProducts()
	if err != nil {
		h.logger.Error("Failed to load product catalog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch COPE items"})
		return
	}

	recipesByID := make(map[uint]models.Recipe, len(recipes))
	for _, recipe := range recipes {
		recipesByID[recipe.ID] = recipe
	}

	for i, record := range records {
		recipe, ok := recipesByID[record.RecipeID]
		if !ok {
			continue
		}
		if catalog[recipe.Ingredient1].Family != models.BonusFamily &&
			catalog[recipe.Ingredient2].Family != models.BonusFamily {
			continue
		}

		entries, err := record.ParseIngredients()
		if err != nil {
			h.logger.Warn("Malformed ingredient payload, serving record unadjusted",
				zap.Uint("recipe_id", record.RecipeID), zap.Error(err))
			continue
		}

		var totalCost int64
		for _, entry := range entries {
			totalCost += entry.Cost
		}
		revenue := record.Profit + totalCost
		bonusRevenue := int64(math.Floor(float64(revenue) * 1.2))
		records[i].Profit = bonusRevenue - totalCost
	}

	c.JSON(http.StatusOK, gin.H{"items": groupByOutput(records)})
}

// GetShardRecipes resolves recipes that consume the given shard.
func (h *Handler) GetShardRecipes(c *gin.Context) {
	shard := c.Query("shard")
	if shard == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shard name is required"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	recipes, pagination, err := h.resolver.FindRecipesUsing(shard, page, limit)
	if err != nil {
		h.logger.Error("Failed to resolve shard recipes", zap.String("shard", shard), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shard recipes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recipes":    recipes,
		"shardName":  shard,
		"pagination": pagination,
	})
}

// GetShards lists the full product catalog in name order.
func (h *Handler) GetShards(c *gin.Context) {
	shards, err := h.store.ProductsSorted()
	if err != nil {
		h.logger.Error("Failed to load product catalog", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch shards"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"shards": shards})
}

type pricePoint struct {
	BuyPrice  float64 `json:"buy_price"`
	Timestamp string  `json:"timestamp"`
}

// GetPriceHistory returns the last week of samples for a shard, plus the
// 24h average buy price and the current policy price from the derived table.
func (h *Handler) GetPriceHistory(c *gin.Context) {
	shard := c.Query("shard")
	if shard == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Shard name is required"})
		return
	}

	product, err := h.store.ProductByName(shard)
	if err != nil {
		h.logger.Error("Failed to look up shard", zap.String("shard", shard), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch price history"})
		return
	}
	if product == nil {
		c.JSON(http.StatusOK, gin.H{
			"priceHistory": []pricePoint{},
			"currentPrice": nil,
			"averagePrice": nil,
		})
		return
	}

	samples, err := h.store.SamplesFor(product.ProductID)
	if err != nil {
		h.logger.Error("Failed to load price history", zap.String("shard", shard), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch price history"})
		return
	}

	now := time.Now()
	points := make([]pricePoint, 0, len(samples))
	var avgSum float64
	var avgCount int
	for _, sample := range samples {
		ts, err := history.ParseTimestamp(sample.Timestamp)
		if err != nil {
			continue
		}
		age := now.Sub(ts)
		if age > priceHistoryWindow {
			continue
		}
		points = append(points, pricePoint{BuyPrice: sample.BuyPrice, Timestamp: sample.Timestamp})
		if age <= averagePriceWindow {
			avgSum += sample.BuyPrice
			avgCount++
		}
	}

	var averagePrice interface{}
	if avgCount > 0 {
		averagePrice = avgSum / float64(avgCount)
	}

	var currentPrice interface{}
	if records, err := h.store.ProfitRecordsByOutput(shard); err == nil && len(records) > 0 {
		currentPrice = records[0].CurrentPrice
	}

	c.JSON(http.StatusOK, gin.H{
		"priceHistory": points,
		"currentPrice": currentPrice,
		"averagePrice": averagePrice,
	})
}

// GetPriceHistoryStatus reports the refresh job state.
func (h *Handler) GetPriceHistoryStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.refresher.Status())
}

type updateRequest struct {
	SkipEmptyOrders     *bool  `json:"skip_empty_orders"`
	CopeMode            *bool  `json:"cope_mode"`
	IngredientPriceType string `json:"ingredient_price_type"`
	OutputPriceType     string `json:"output_price_type"`
}

// UpdateData fetches a fresh bazaar snapshot, rebuilds the profit table and
// kicks off the price history job in the background. An upstream fetch
// failure leaves all tables untouched.
func (h *Handler) UpdateData(c *gin.Context) {
	req := updateRequest{
		IngredientPriceType: h.pricing.IngredientPriceField,
		OutputPriceType:     h.pricing.OutputPriceField,
	}
	// The body is optional; an empty or absent one means "use defaults".
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	opts := profit.Options{
		Policy:          profit.NewPolicy(req.IngredientPriceType, req.OutputPriceType),
		CopeMode:        h.pricing.CopeMode,
		SkipEmptyOrders: h.pricing.SkipEmptyOrders,
	}
	if req.CopeMode != nil {
		opts.CopeMode = *req.CopeMode
	}
	if req.SkipEmptyOrders != nil {
		opts.SkipEmptyOrders = *req.SkipEmptyOrders
	}

	quotes, err := h.client.GetBazaarQuotes()
	if err != nil {
		h.logger.Error("Failed to fetch bazaar data", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch bazaar data"})
		return
	}

	if err := h.store.ReplaceQuotes(quotes); err != nil {
		h.logger.Error("Failed to store bazaar snapshot", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update data"})
		return
	}

	if _, err := h.engine.Rebuild(opts); err != nil {
		h.logger.Error("Failed to rebuild profit table", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update data"})
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := h.store.SetMeta(models.MetaKeyLastUpdate, now); err != nil {
		h.logger.Error("Failed to record update time", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update data"})
		return
	}

	if h.refresher != nil {
		h.refresher.Start()
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "lastUpdate": now})
}

// GetLastUpdate returns when the bazaar snapshot was last refreshed.
func (h *Handler) GetLastUpdate(c *gin.Context) {
	value, err := h.store.GetMeta(models.MetaKeyLastUpdate)
	if err != nil {
		h.logger.Error("Failed to read last update time", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get last update time"})
		return
	}

	var lastUpdate interface{}
	if value != "" {
		lastUpdate = value
	}
	c.JSON(http.StatusOK, gin.H{"lastUpdate": lastUpdate})
}

func groupByOutput(records []models.ProfitRecord) map[string][]models.ProfitRecord {
	grouped := make(map[string][]models.ProfitRecord, len(records))
	for _, record := range records {
		grouped[record.OutputItem] = append(grouped[record.OutputItem], record)
	}
	return grouped
}
