package schema

import (
	"time"

	"github.com/yapdol/hype-ledger/internal/domain"
)

// Artist represents the artists table - the roster across both divisions
type Artist struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EnglishName is the romanized stage name
	EnglishName string `gorm:"column:english_name;not null;type:text;index:idx_artists_status_name,priority:2"`
	// KoreanName is the hangul stage name
	KoreanName string `gorm:"column:korean_name;not null;type:text"`
	// Agency is the managing agency's display name
	Agency string `gorm:"column:agency;not null;type:text"`
	// ImageURL is the profile image
	ImageURL string `gorm:"column:image_url;type:text"`
	// Status is the lifecycle stage (funding, market, inactive)
	Status domain.ArtistStatus `gorm:"column:status;not null;type:text;index:idx_artists_status_name,priority:1"`
	// HypePoints is the denormalized sum of all point activity for the artist
	HypePoints int64 `gorm:"column:hype_points;not null;default:0"`
	// DDay is days remaining in the funding window (nil once debuted)
	DDay *int `gorm:"column:d_day"`
	// ContributorCount is the number of distinct supporters
	ContributorCount int64 `gorm:"column:contributor_count;not null;default:0"`
	// YoutubeID is the embedded showcase video (nil when none)
	YoutubeID *string `gorm:"column:youtube_id;type:text"`
	// CreatedAt is the timestamp when the artist was listed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`

	// Associations
	Holdings    []Holding    `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE"`
	GoodsItems  []GoodsItem  `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE"`
	VaultAssets []VaultAsset `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Artist model
func (Artist) TableName() string {
	return "artists"
}
