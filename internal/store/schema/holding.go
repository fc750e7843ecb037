package schema

import (
	"time"
)

// Holding represents the user_portfolio table - per-user per-artist position
type Holding struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the owning user
	UserID int64 `gorm:"column:user_id;not null;uniqueIndex:idx_portfolio_user_artist,priority:1"`
	// ArtistID references the artist the position is in
	ArtistID int64 `gorm:"column:artist_id;not null;uniqueIndex:idx_portfolio_user_artist,priority:2"`
	// Holdings is the share count displayed in the portfolio view
	Holdings int64 `gorm:"column:holdings;not null;default:0"`
	// MyPoints is the denormalized per-artist hype point balance
	MyPoints int64 `gorm:"column:my_points;not null;default:0"`
	// TokenBalance is the artist-token units credited by swaps
	TokenBalance int64 `gorm:"column:token_balance;not null;default:0"`
	// CreatedAt is the timestamp when the position was opened
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp of the last balance change
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`

	// Associations
	Artist Artist `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Holding model
func (Holding) TableName() string {
	return "user_portfolio"
}
