package models

// Recipe is a single two-ingredient fusion rule, expressed in product IDs.
// ID is assigned once at ingest time and is the stable key profit records
// carry, so storage order never doubles as identity.
type Recipe struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Quantity1      int    `gorm:"column:quantity_1" json:"quantity_1"`
	Ingredient1    string `gorm:"column:ingredient_1" json:"ingredient_1"`
	Quantity2      int    `gorm:"column:quantity_2" json:"quantity_2"`
	Ingredient2    string `gorm:"column:ingredient_2" json:"ingredient_2"`
	OutputQuantity int    `gorm:"column:output_quantity" json:"output_quantity"`
	OutputItem     string `gorm:"column:output_item" json:"output_item"`
}

func (Recipe) TableName() string {
	return "shard_recipes_processed"
}

// UsesIngredient reports whether the recipe consumes the given product in
// either ingredient slot.
func (r Recipe) UsesIngredient(productID string) bool {
	return r.Ingredient1 == productID || r.Ingredient2 == productID
}
