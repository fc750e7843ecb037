package schema

// VaultAsset represents the vault_assets table - gated media for holders.
// Real URLs are only served to callers with a positive per-artist balance;
// everyone else gets the placeholder.
type VaultAsset struct {
	ID             int64  `gorm:"column:id;primaryKey;autoIncrement"`
	ArtistID       int64  `gorm:"column:artist_id;not null;index"`
	ImageURL       string `gorm:"column:image_url;not null;type:text"`
	PlaceholderURL string `gorm:"column:placeholder_url;not null;type:text"`
	Caption        string `gorm:"column:caption;type:text"`
}

// TableName specifies the table name for the VaultAsset model
func (VaultAsset) TableName() string {
	return "vault_assets"
}
