package models

// BonusFamily is the shard family whose members trigger the COPE revenue
// uplift when used as an ingredient.
const BonusFamily = "Reptile"

// Product maps an internal bazaar product ID to its display name and the
// attributes the dashboard needs (rarity letter + crafting ID form the icon
// code, family drives COPE eligibility).
type Product struct {
	ProductID  string `gorm:"primaryKey;column:productID" json:"product_id"`
	Name       string `gorm:"uniqueIndex;column:name" json:"name"`
	Rarity     string `gorm:"column:rarity" json:"rarity"`
	Family     string `gorm:"column:family" json:"family"`
	CraftingID string `gorm:"column:craftingID" json:"crafting_id"`
}

func (Product) TableName() string {
	return "shard_to_productid"
}
