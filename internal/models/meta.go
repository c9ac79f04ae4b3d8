package models

// MetaKeyLastUpdate records when the bazaar snapshot was last refreshed.
const MetaKeyLastUpdate = "last_update"

// MetaInfo is a small key/value table for bookkeeping values.
type MetaInfo struct {
	Key   string `gorm:"primaryKey;column:key" json:"key"`
	Value string `gorm:"column:value" json:"value"`
}

func (MetaInfo) TableName() string {
	return "meta_info"
}
