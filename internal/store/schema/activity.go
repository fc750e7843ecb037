package schema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/yapdol/hype-ledger/internal/domain"
)

// ActivityEntry represents the activity_ledger table - the append-only point
// ledger. Denormalized totals on users, user_portfolio and artists are
// projections of this table and are repaired by the sweeper when they drift.
type ActivityEntry struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// UserID references the user whose balance moved
	UserID int64 `gorm:"column:user_id;not null;index:idx_activity_user_created,priority:1"`
	// ArtistID references the artist the points are attributed to
	ArtistID int64 `gorm:"column:artist_id;not null"`
	// ActivityType is the movement kind (SUPPORT, DIVIDEND, CAMPAIGN, SWAP)
	ActivityType domain.ActivityType `gorm:"column:activity_type;not null;type:text"`
	// Amount is the signed point delta
	Amount int64 `gorm:"column:amount;not null"`
	// Meta carries movement-specific detail (swap token credit, goods item, ...)
	Meta datatypes.JSON `gorm:"column:meta;type:jsonb"`
	// CreatedAt is the ledger timestamp; rows are never updated or deleted
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz;index:idx_activity_user_created,priority:2,sort:desc"`

	// Associations
	Artist Artist `gorm:"foreignKey:ArtistID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the ActivityEntry model
func (ActivityEntry) TableName() string {
	return "activity_ledger"
}
