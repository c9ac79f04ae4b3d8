package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitAndClean(t *testing.T) {
	tests := []struct {
		input    string
		quantity int
		name     string
	}{
		{"x2 Mist", 2, "Mist"},
		{"x10 Sea Serpent", 10, "Sea Serpent"},
		{"x1 Megalith (fishing)", 1, "Megalith"},
		{"x3", 3, ""},
		{"", 0, ""},
	}
	for _, tt := range tests {
		quantity, name := splitAndClean(tt.input)
		assert.Equal(t, tt.quantity, quantity, tt.input)
		assert.Equal(t, tt.name, name, tt.input)
	}
}

const fusionSample = `Fusion list maintained by the community,,,,,
Input #1,Input #2,Output #1,Output #2,Output #3
x2 Mist,x1 Bal,x1 Megalith (rare),x2 Tide,
x2 Mist,x1 Bal,x1 Megalith,,
x5 Crab,x5 Newt,x1 Sea Serpant,,
`

func TestParseFusionCSV(t *testing.T) {
	rows, err := ParseFusionCSV(strings.NewReader(fusionSample))
	require.NoError(t, err)

	// Row one yields two recipes (two outputs); row two is a duplicate of
	// its first output and is dropped.
	require.Len(t, rows, 3)

	assert.Equal(t, FusionRow{Quantity1: 2, Ingredient1: "Mist", Quantity2: 1, Ingredient2: "Bal", OutputQuantity: 1, OutputItem: "Megalith"}, rows[0])
	assert.Equal(t, "Tide", rows[1].OutputItem)
	assert.Equal(t, 2, rows[1].OutputQuantity)
	assert.Equal(t, "Sea Serpant", rows[2].OutputItem)
}

func TestParseFusionCSVDedupesReversedPairs(t *testing.T) {
	sample := `banner,,,,
Input #1,Input #2,Output #1,Output #2,Output #3
x2 Mist,x1 Bal,x1 Megalith,,
x1 Bal,x2 Mist,x1 Megalith,,
`
	rows, err := ParseFusionCSV(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

const shardsSample = `{
  "shards": {
    "Mist": {"name": "Mist", "productID": "SHARD_MIST", "rarity": "common", "family": ["Valley", "Mythological"], "id": "1"},
    "Sea Serpant": {"name": "Sea Serpant", "productID": "SHARD_SEA_SERPENT", "rarity": "epic", "family": ["Aquatic"], "id": "40"},
    "Bal": {"name": "Bal", "productID": "SHARD_BAL", "rarity": "legendary", "family": [], "id": "9"}
  }
}`

func TestParseShards(t *testing.T) {
	products, err := ParseShards(strings.NewReader(shardsSample))
	require.NoError(t, err)
	require.Len(t, products, 3)

	// Sorted by name, typo corrected, family collapsed to its first entry.
	assert.Equal(t, "Bal", products[0].Name)
	assert.Equal(t, "", products[0].Family)
	assert.Equal(t, "Mist", products[1].Name)
	assert.Equal(t, "Valley", products[1].Family)
	assert.Equal(t, "Sea Serpent", products[2].Name)
	assert.Equal(t, "SHARD_SEA_SERPENT", products[2].ProductID)
	assert.Equal(t, "40", products[2].CraftingID)
}

func TestBuildRecipes(t *testing.T) {
	products, err := ParseShards(strings.NewReader(shardsSample))
	require.NoError(t, err)

	rows := []FusionRow{
		{Quantity1: 2, Ingredient1: "Mist", Quantity2: 1, Ingredient2: "Bal", OutputQuantity: 1, OutputItem: "Sea Serpant"},
		{Quantity1: 1, Ingredient1: "Mist", Quantity2: 1, Ingredient2: "Unknown Shard", OutputQuantity: 1, OutputItem: "Bal"},
	}
	recipes := BuildRecipes(rows, products)
	require.Len(t, recipes, 2)

	// Names are rewritten to product IDs, with the typo correction applied
	// before lookup.
	assert.Equal(t, "SHARD_MIST", recipes[0].Ingredient1)
	assert.Equal(t, "SHARD_BAL", recipes[0].Ingredient2)
	assert.Equal(t, "SHARD_SEA_SERPENT", recipes[0].OutputItem)

	// Untranslatable names pass through so the recipe is not lost here.
	assert.Equal(t, "Unknown Shard", recipes[1].Ingredient2)
}
