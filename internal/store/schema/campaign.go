package schema

import (
	"time"

	"github.com/yapdol/hype-ledger/internal/domain"
)

// Campaign represents the campaigns table - agency-run promotion drives
type Campaign struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// AgencyID references the agency user running the campaign
	AgencyID int64 `gorm:"column:agency_id;not null;index"`
	// ArtistID references the promoted artist
	ArtistID int64 `gorm:"column:artist_id;not null"`
	// Status is the campaign state (active, pending)
	Status domain.CampaignStatus `gorm:"column:status;not null;type:text"`
	// CreatedAt is the timestamp when the campaign was opened
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Artist Artist `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Campaign model
func (Campaign) TableName() string {
	return "campaigns"
}

// CampaignPromotionLog represents the campaign_promotion_log table - posts
// fans published for a campaign, shown on the agency dashboard
type CampaignPromotionLog struct {
	ID                int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ArtistID          int64           `gorm:"column:artist_id;not null;index:idx_campaign_log_artist_created,priority:1"`
	Platform          domain.Platform `gorm:"column:platform;not null;type:text"`
	PublisherUsername string          `gorm:"column:publisher_username;not null;type:text"`
	Content           string          `gorm:"column:content;not null;type:text"`
	Link              string          `gorm:"column:link;not null;type:text"`
	CreatedAt         time.Time       `gorm:"column:created_at;not null;default:now();type:timestamptz;index:idx_campaign_log_artist_created,priority:2,sort:desc"`
}

// TableName specifies the table name for the CampaignPromotionLog model
func (CampaignPromotionLog) TableName() string {
	return "campaign_promotion_log"
}
