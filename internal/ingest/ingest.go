// Package ingest builds the product catalog and recipe table from the two
// maintained source files: the community fusion-list CSV and the cleaned
// shards JSON. It runs rarely (first boot, or when either file changes) and
// rewrites both tables wholesale.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"shard-profit-tracker/internal/models"
	"shard-profit-tracker/internal/store"
)

// nameCorrections fixes known typos in the upstream fusion list so its names
// line up with the shards JSON.
var nameCorrections = map[string]string{
	"Sea Serpant": "Sea Serpent",
	"Star Centry": "Star Sentry",
}

// parenthetical strips trailing "(...)" notes from item tokens.
var parenthetical = regexp.MustCompile(`\s*\(.*\)`)

// shardsFile is the shape of shards_cleaned.json.
type shardsFile struct {
	Shards map[string]shardInfo `json:"shards"`
}

type shardInfo struct {
	Name      string   `json:"name"`
	ProductID string   `json:"productID"`
	Rarity    string   `json:"rarity"`
	Family    []string `json:"family"`
	ID        string   `json:"id"`
}

// FusionRow is one recipe parsed from the CSV, still in display names.
type FusionRow struct {
	Quantity1      int
	Ingredient1    string
	Quantity2      int
	Ingredient2    string
	OutputQuantity int
	OutputItem     string
}

// splitAndClean parses a fusion-list cell of the form "x2 Name (note)" into
// its quantity and cleaned name.
func splitAndClean(value string) (int, string) {
	if value == "" {
		return 0, ""
	}
	parts := strings.SplitN(value, " ", 2)

	quantity := 0
	if digits := strings.ReplaceAll(parts[0], "x", ""); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			quantity = n
		}
	}

	name := ""
	if len(parts) > 1 {
		name = strings.TrimSpace(parenthetical.ReplaceAllString(parts[1], ""))
	}
	return quantity, name
}

// ParseFusionCSV reads the fusion list. The file carries a banner line above
// the real header, up to three outputs per row (each becomes its own
// recipe), and occasional duplicate rows, which are suppressed on the
// (sorted ingredient pair, output) key.
func ParseFusionCSV(r io.Reader) ([]FusionRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil { // banner line
		return nil, fmt.Errorf("failed to read fusion list banner: %w", err)
	}
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read fusion list header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	cell := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	type fusionKey struct {
		inputA, inputB, output string
	}
	seen := make(map[fusionKey]struct{})
	var rows []FusionRow

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read fusion list row: %w", err)
		}

		quantity1, ingredient1 := splitAndClean(cell(record, "Input #1"))
		quantity2, ingredient2 := splitAndClean(cell(record, "Input #2"))

		for i := 1; i <= 3; i++ {
			outputQuantity, outputItem := splitAndClean(cell(record, fmt.Sprintf("Output #%d", i)))
			if outputItem == "" {
				continue
			}

			pair := []string{ingredient1, ingredient2}
			sort.Strings(pair)
			key := fusionKey{pair[0], pair[1], outputItem}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			rows = append(rows, FusionRow{
				Quantity1:      quantity1,
				Ingredient1:    ingredient1,
				Quantity2:      quantity2,
				Ingredient2:    ingredient2,
				OutputQuantity: outputQuantity,
				OutputItem:     outputItem,
			})
		}
	}

	return rows, nil
}

// ParseShards reads shards_cleaned.json into catalog rows, applying the name
// corrections and collapsing the family list to its first entry.
func ParseShards(r io.Reader) ([]models.Product, error) {
	var file shardsFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode shards file: %w", err)
	}

	products := make([]models.Product, 0, len(file.Shards))
	for name, info := range file.Shards {
		if corrected, ok := nameCorrections[name]; ok {
			name = corrected
		}
		family := ""
		if len(info.Family) > 0 {
			family = info.Family[0]
		}
		products = append(products, models.Product{
			ProductID:  info.ProductID,
			Name:       name,
			Rarity:     info.Rarity,
			Family:     family,
			CraftingID: info.ID,
		})
	}

	// Deterministic insertion order; map iteration is not.
	sort.Slice(products, func(i, j int) bool {
		return products[i].Name < products[j].Name
	})
	return products, nil
}

// BuildRecipes rewrites the name-based fusion rows into product-ID recipes.
// Names with no catalog entry stay as-is; the profit engine reports them as
// untranslatable instead of losing the recipe here.
func BuildRecipes(rows []FusionRow, products []models.Product) []models.Recipe {
	nameToID := make(map[string]string, len(products))
	for _, p := range products {
		nameToID[p.Name] = p.ProductID
	}
	toID := func(name string) string {
		if name == "" {
			return name
		}
		if corrected, ok := nameCorrections[name]; ok {
			name = corrected
		}
		if id, ok := nameToID[name]; ok {
			return id
		}
		return name
	}

	recipes := make([]models.Recipe, 0, len(rows))
	for _, row := range rows {
		recipes = append(recipes, models.Recipe{
			Quantity1:      row.Quantity1,
			Ingredient1:    toID(row.Ingredient1),
			Quantity2:      row.Quantity2,
			Ingredient2:    toID(row.Ingredient2),
			OutputQuantity: row.OutputQuantity,
			OutputItem:     toID(row.OutputItem),
		})
	}
	return recipes
}

// Run ingests both source files and replaces the catalog and recipe tables.
// Recipe IDs are reassigned, so the caller must rerun the profit engine.
func Run(s *store.Store, logger *zap.Logger, fusionCSVPath, shardsJSONPath string) error {
	shardsSrc, err := os.Open(shardsJSONPath)
	if err != nil {
		return fmt.Errorf("failed to open shards file: %w", err)
	}
	defer shardsSrc.Close()

	products, err := ParseShards(shardsSrc)
	if err != nil {
		return err
	}

	fusionFile, err := os.Open(fusionCSVPath)
	if err != nil {
		return fmt.Errorf("failed to open fusion list: %w", err)
	}
	defer fusionFile.Close()

	rows, err := ParseFusionCSV(fusionFile)
	if err != nil {
		return err
	}

	recipes := BuildRecipes(rows, products)
	if err := s.ReplaceCatalog(products, recipes); err != nil {
		return err
	}

	logger.Warn("Catalog rebuilt; recipe IDs were reassigned and the profit table must be recomputed",
		zap.Int("products", len(products)),
		zap.Int("recipes", len(recipes)))
	return nil
}
