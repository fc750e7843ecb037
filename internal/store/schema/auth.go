package schema

import (
	"time"
)

// AuthChallenge represents the auth_challenges table - single-use nonces for
// sign-in-with-wallet
type AuthChallenge struct {
	// Nonce is the challenge UUID signed by the wallet
	Nonce string `gorm:"column:nonce;primaryKey;type:uuid"`
	// WalletAddress is the lowercased address the challenge was issued for
	WalletAddress string `gorm:"column:wallet_address;not null;type:text;index"`
	// IssuedAt is when the challenge was created
	IssuedAt time.Time `gorm:"column:issued_at;not null;default:now();type:timestamptz"`
	// ExpiresAt is the end of the validity window
	ExpiresAt time.Time `gorm:"column:expires_at;not null;type:timestamptz"`
	// Used marks a consumed nonce; a challenge verifies at most once
	Used bool `gorm:"column:used;not null;default:false"`
}

// TableName specifies the table name for the AuthChallenge model
func (AuthChallenge) TableName() string {
	return "auth_challenges"
}
