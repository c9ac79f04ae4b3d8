package models

// BazaarQuote is the latest bazaar snapshot for a single product.
// The whole table is replaced on every refresh; there is no history here.
type BazaarQuote struct {
	ProductID      string  `gorm:"primaryKey;column:product_id" json:"product_id"`
	SellPrice      float64 `gorm:"column:sell_price" json:"sell_price"`
	SellVolume     float64 `gorm:"column:sell_volume" json:"sell_volume"`
	SellMovingWeek float64 `gorm:"column:sell_moving_week" json:"sell_moving_week"`
	SellOrders     int64   `gorm:"column:sell_orders" json:"sell_orders"`
	BuyPrice       float64 `gorm:"column:buy_price" json:"buy_price"`
	BuyVolume      float64 `gorm:"column:buy_volume" json:"buy_volume"`
	BuyMovingWeek  float64 `gorm:"column:buy_moving_week" json:"buy_moving_week"`
	BuyOrders      int64   `gorm:"column:buy_orders" json:"buy_orders"`
}

// TableName keeps the table compatible with databases built by earlier versions.
func (BazaarQuote) TableName() string {
	return "bazaar_info"
}
