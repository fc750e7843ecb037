package schema

import (
	"time"

	"github.com/yapdol/hype-ledger/internal/domain"
)

// PromotionHistory represents the promotion_history table - append-only record
// of completed yapping missions
type PromotionHistory struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the submitting user
	UserID int64 `gorm:"column:user_id;not null;index:idx_promotion_user_created,priority:1"`
	// ArtistID references the promoted artist
	ArtistID int64 `gorm:"column:artist_id;not null"`
	// Platform is the social platform the post was published on
	Platform domain.Platform `gorm:"column:platform;not null;type:text"`
	// Link is the URL of the published post
	Link string `gorm:"column:link;not null;type:text"`
	// Content is the post text captured at submission time
	Content string `gorm:"column:content;not null;type:text"`
	// CreatedAt is the submission timestamp; rows are never updated
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz;index:idx_promotion_user_created,priority:2,sort:desc"`

	// Associations
	Artist Artist `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the PromotionHistory model
func (PromotionHistory) TableName() string {
	return "promotion_history"
}
