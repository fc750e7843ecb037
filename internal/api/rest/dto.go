package rest

import (
	"errors"

	"github.com/yapdol/hype-ledger/internal/domain"
)

// CreatePromotionRequest is the body of POST /api/promotion-history
type CreatePromotionRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	ArtistID      int64  `json:"artistId" binding:"required"`
	Platform      string `json:"platform" binding:"required"`
	Link          string `json:"link" binding:"required"`
	Content       string `json:"content" binding:"required"`
}

// SupportRequest is the body of POST /api/support
type SupportRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	ArtistID      int64  `json:"artistId" binding:"required"`
	Amount        int64  `json:"amount" binding:"required"`
}

// Validate checks the gift amount before it reaches the ledger
func (r *SupportRequest) Validate() error {
	if r.Amount <= 0 {
		return errors.New("amount must be positive")
	}
	return nil
}

// SwapRequest is the body of POST /api/swap
type SwapRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	ArtistID      int64  `json:"artistId" binding:"required"`
}

// PurchaseRequest is the body of POST /api/goods/purchase
type PurchaseRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	ItemID        int64  `json:"itemId" binding:"required"`
}

// AuthChallengeRequest is the body of POST /api/auth/challenge
type AuthChallengeRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
}

// AuthChallengeResponse carries the nonce and the exact message the wallet
// must sign
type AuthChallengeResponse struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

// AuthVerifyRequest is the body of POST /api/auth/verify
type AuthVerifyRequest struct {
	WalletAddress string `json:"walletAddress" binding:"required"`
	Nonce         string `json:"nonce" binding:"required"`
	Signature     string `json:"signature" binding:"required"`
}

// AuthVerifyResponse carries the session token for a verified wallet
type AuthVerifyResponse struct {
	Token string `json:"token"`
}

// wallet normalizes a client-supplied address for store lookups
func wallet(addr string) domain.WalletAddress {
	return domain.NewWalletAddress(addr)
}
