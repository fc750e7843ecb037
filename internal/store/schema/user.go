package schema

import (
	"time"
)

// User represents the users table - one row per wallet identity
type User struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// WalletAddress is the lowercased EVM address keying the account
	WalletAddress string `gorm:"column:wallet_address;not null;uniqueIndex;type:text"`
	// Username is the display name shown in rankings and activity feeds
	Username string `gorm:"column:username;not null;type:text"`
	// ProfileImage is the avatar URL
	ProfileImage string `gorm:"column:profile_image;type:text"`
	// TotalPoints is the denormalized hype point balance across all artists
	TotalPoints int64 `gorm:"column:total_points;not null;default:0"`
	// GlobalRank is the user's position on the global leaderboard
	GlobalRank int64 `gorm:"column:global_rank;not null;default:0"`
	// ROIPercentage is the portfolio return figure shown on the profile
	ROIPercentage float64 `gorm:"column:roi_percentage;not null;default:0"`
	// IsAgency marks agency accounts that manage campaigns
	IsAgency bool `gorm:"column:is_agency;not null;default:false"`
	// AgencyName is the agency display name (nil for fan accounts)
	AgencyName *string `gorm:"column:agency_name;type:text"`
	// CreatedAt is the timestamp when the account was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Holdings   []Holding          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Promotions []PromotionHistory `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Activity   []ActivityEntry    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}
