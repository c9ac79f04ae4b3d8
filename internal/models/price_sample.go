package models

// PriceSample is one historical (buy, sell) observation for a product.
// Append-only; duplicates on (product, timestamp) are silently ignored.
type PriceSample struct {
	ProductID string  `gorm:"primaryKey;column:product_id" json:"product_id"`
	Timestamp string  `gorm:"primaryKey;column:timestamp" json:"timestamp"`
	BuyPrice  float64 `gorm:"column:buy_price" json:"buy_price"`
	SellPrice float64 `gorm:"column:sell_price" json:"sell_price"`
}

func (PriceSample) TableName() string {
	return "product_price_history"
}
