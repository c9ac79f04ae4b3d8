package models

import "encoding/json"

// IngredientEntry is one element of a profit record's serialized ingredient
// list: display name, required amount and its floored cost share.
type IngredientEntry struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
	Cost   int64  `json:"cost"`
}

// ProfitRecord is one row of the derived profitability table. The table is
// dropped and fully rebuilt on every engine run, keyed by the stable recipe
// ID of the originating recipe.
type ProfitRecord struct {
	RecipeID     uint   `gorm:"primaryKey;column:recipe_id" json:"recipe_id"`
	OutputItem   string `gorm:"column:output_item" json:"output_item"`
	Demand       int64  `gorm:"column:demand" json:"demand"`
	Profit       int64  `gorm:"column:profit" json:"profit"`
	Cost         int64  `gorm:"column:cost" json:"cost"`
	Ingredients  string `gorm:"column:ingredients" json:"ingredients"`
	DisplayCode  string `gorm:"column:id" json:"id"`
	CurrentPrice int64  `gorm:"column:current_price" json:"current_price"`
}

func (ProfitRecord) TableName() string {
	return "shard_profit_data"
}

// ParseIngredients decodes the serialized ingredient list. A record written
// by an older build may hold a malformed payload; callers treat an error as
// "skip this candidate", never as fatal.
func (p ProfitRecord) ParseIngredients() ([]IngredientEntry, error) {
	var entries []IngredientEntry
	if err := json.Unmarshal([]byte(p.Ingredients), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EncodeIngredients serializes the ingredient list for storage.
func EncodeIngredients(entries []IngredientEntry) (string, error) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
