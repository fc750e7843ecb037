package schema

import (
	"time"
)

// GoodsItem represents the goods_items table - merchandise purchasable with points
type GoodsItem struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ArtistID int64  `gorm:"column:artist_id;not null;index"`
	Name     string `gorm:"column:name;not null;type:text"`
	Price    int64  `gorm:"column:price;not null"`
	ImageURL string `gorm:"column:image_url;type:text"`
}

// TableName specifies the table name for the GoodsItem model
func (GoodsItem) TableName() string {
	return "goods_items"
}

// GoodsPurchase represents the goods_purchases table. The unique
// (user_id, goods_item_id) pair makes a repeat purchase a conflict rather
// than a second debit.
type GoodsPurchase struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int64     `gorm:"column:user_id;not null;uniqueIndex:idx_purchases_user_item,priority:1"`
	GoodsItemID int64     `gorm:"column:goods_item_id;not null;uniqueIndex:idx_purchases_user_item,priority:2"`
	PricePaid   int64     `gorm:"column:price_paid;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Item GoodsItem `gorm:"foreignKey:GoodsItemID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the GoodsPurchase model
func (GoodsPurchase) TableName() string {
	return "goods_purchases"
}
