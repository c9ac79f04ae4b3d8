// Package resolver answers ingredient-centric queries: given a shard, every
// recipe consuming it, joined with its profitability record.
package resolver

import (
	"sort"

	"go.uber.org/zap"

	"shard-profit-tracker/internal/models"
	"shard-profit-tracker/internal/store"
)

const defaultPageSize = 20

// ResolvedRecipe is a profit record merged with its recipe definition,
// ingredient names already translated.
type ResolvedRecipe struct {
	models.ProfitRecord
	Quantity1      int    `json:"quantity_1"`
	Ingredient1    string `json:"ingredient_1"`
	Quantity2      int    `json:"quantity_2"`
	Ingredient2    string `json:"ingredient_2"`
	OutputQuantity int    `json:"output_quantity"`
}

// Pagination describes the slice a query returned.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

// Resolver joins recipes against the derived profit table.
type Resolver struct {
	store  *store.Store
	logger *zap.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(s *store.Store, logger *zap.Logger) *Resolver {
	return &Resolver{store: s, logger: logger}
}

// FindRecipesUsing returns one page of resolved recipes that consume the
// given shard (display name or raw product ID) in either ingredient slot,
// sorted by profit descending. An unknown shard yields an empty page, not
// an error.
func (r *Resolver) FindRecipesUsing(shard string, page, pageSize int) ([]ResolvedRecipe, Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	catalog, err := r.store.AllProducts()
	if err != nil {
		return nil, Pagination{}, err
	}

	productID, ok := r.resolveShard(shard, catalog)
	if !ok {
		r.logger.Info("Unknown shard in recipe query", zap.String("shard", shard))
		return []ResolvedRecipe{}, paginate(0, page, pageSize), nil
	}

	recipes, err := r.store.AllRecipes()
	if err != nil {
		return nil, Pagination{}, err
	}

	var matching []models.Recipe
	for _, recipe := range recipes {
		if recipe.UsesIngredient(productID) {
			matching = append(matching, recipe)
		}
	}
	if len(matching) == 0 {
		return []ResolvedRecipe{}, paginate(0, page, pageSize), nil
	}

	records, err := r.store.AllProfitRecords()
	if err != nil {
		return nil, Pagination{}, err
	}
	byRecipeID := make(map[uint]models.ProfitRecord, len(records))
	byOutput := make(map[string][]models.ProfitRecord)
	for _, record := range records {
		byRecipeID[record.RecipeID] = record
		byOutput[record.OutputItem] = append(byOutput[record.OutputItem], record)
	}

	translate := func(id string) string {
		if product, ok := catalog[id]; ok {
			return product.Name
		}
		return id
	}

	var resolved []ResolvedRecipe
	for _, recipe := range matching {
		record, found := r.matchRecord(recipe, byRecipeID, byOutput, translate)
		if !found {
			// Recipe has no priceable record this cycle (missing quote or
			// thin market); nothing to show.
			continue
		}
		resolved = append(resolved, ResolvedRecipe{
			ProfitRecord:   record,
			Quantity1:      recipe.Quantity1,
			Ingredient1:    translate(recipe.Ingredient1),
			Quantity2:      recipe.Quantity2,
			Ingredient2:    translate(recipe.Ingredient2),
			OutputQuantity: recipe.OutputQuantity,
		})
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].Profit > resolved[j].Profit
	})

	pagination := paginate(len(resolved), page, pageSize)
	start := (page - 1) * pageSize
	if start >= len(resolved) {
		return []ResolvedRecipe{}, pagination, nil
	}
	end := start + pageSize
	if end > len(resolved) {
		end = len(resolved)
	}
	return resolved[start:end], pagination, nil
}

// resolveShard maps a display name to its product ID, accepting raw product
// IDs as given.
func (r *Resolver) resolveShard(shard string, catalog map[string]models.Product) (string, bool) {
	if _, ok := catalog[shard]; ok {
		return shard, true
	}
	for _, product := range catalog {
		if product.Name == shard {
			return product.ProductID, true
		}
	}
	return "", false
}

// matchRecord finds the profit record belonging to a recipe. The stable
// recipe ID is the primary join; records written before the key existed are
// reconciled by comparing both (name, quantity) ingredient pairs in either
// order, the only ground the two representations share.
func (r *Resolver) matchRecord(recipe models.Recipe, byRecipeID map[uint]models.ProfitRecord, byOutput map[string][]models.ProfitRecord, translate func(string) string) (models.ProfitRecord, bool) {
	if record, ok := byRecipeID[recipe.ID]; ok {
		return record, true
	}

	outputName := translate(recipe.OutputItem)
	name1, name2 := translate(recipe.Ingredient1), translate(recipe.Ingredient2)

	for _, candidate := range byOutput[outputName] {
		entries, err := candidate.ParseIngredients()
		if err != nil {
			r.logger.Warn("Skipping profit record with malformed ingredient payload",
				zap.Uint("recipe_id", candidate.RecipeID), zap.Error(err))
			continue
		}
		if len(entries) != 2 {
			continue
		}
		if containsEntry(entries, name1, recipe.Quantity1) && containsEntry(entries, name2, recipe.Quantity2) {
			return candidate, true
		}
	}
	return models.ProfitRecord{}, false
}

func containsEntry(entries []models.IngredientEntry, name string, amount int) bool {
	for _, entry := range entries {
		if entry.Name == name && entry.Amount == amount {
			return true
		}
	}
	return false
}

func paginate(total, page, pageSize int) Pagination {
	totalPages := (total + pageSize - 1) / pageSize
	return Pagination{
		Page:       page,
		Limit:      pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    page*pageSize < total,
	}
}
