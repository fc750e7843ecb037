package store

import (
	"context"
	"time"

	"github.com/yapdol/hype-ledger/internal/domain"
	"github.com/yapdol/hype-ledger/internal/store/schema"
)

// Read caps for the history-shaped endpoints
const (
	PromotionHistoryLimit = 10
	ActivityLimit         = 20
	CampaignLogLimit      = 10
)

// HoldingView is a portfolio row joined with the artist summary fields the
// portfolio page renders
type HoldingView struct {
	ArtistID     int64               `json:"artist_id"`
	EnglishName  string              `json:"english_name"`
	KoreanName   string              `json:"korean_name"`
	Agency       string              `json:"agency"`
	ImageURL     string              `json:"image_url"`
	Status       domain.ArtistStatus `json:"status"`
	Holdings     int64               `json:"holdings"`
	MyPoints     int64               `json:"my_points"`
	TokenBalance int64               `json:"token_balance"`
}

// ActivityView is a ledger entry joined with the artist's display name
type ActivityView struct {
	ID           int64               `json:"id"`
	ArtistID     int64               `json:"artist_id"`
	ArtistName   string              `json:"artist_name"`
	ActivityType domain.ActivityType `json:"activity_type"`
	Amount       int64               `json:"amount"`
	CreatedAt    time.Time           `json:"created_at"`
}

// CampaignView is a campaign row joined with the artist's display name
type CampaignView struct {
	ID         int64                 `json:"id"`
	ArtistID   int64                 `json:"artist_id"`
	ArtistName string                `json:"artist_name"`
	Status     domain.CampaignStatus `json:"status"`
	CreatedAt  time.Time             `json:"created_at"`
}

// AgencyStats holds the four dashboard counts. Each count is an independent
// read; they are not guaranteed mutually consistent.
type AgencyStats struct {
	ActiveTrainees   int64 `json:"activeTrainees"`
	GlobalIcons      int64 `json:"globalIcons"`
	ActiveCampaigns  int64 `json:"activeCampaigns"`
	PendingCampaigns int64 `json:"pendingCampaigns"`
}

// SwapResult reports a completed hype-to-token swap
type SwapResult struct {
	PointsDebited  int64 `json:"points_debited"`
	TokensCredited int64 `json:"tokens_credited"`
	TokenBalance   int64 `json:"token_balance"`
}

// VaultAssetView is a vault image as served to a specific caller. Locked
// assets carry the placeholder URL in place of the real one.
type VaultAssetView struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"image_url"`
	Caption  string `json:"caption"`
	Locked   bool   `json:"locked"`
}

// GoodsView is a goods item with the caller's purchase state
type GoodsView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"image_url"`
	Purchased bool   `json:"purchased"`
}

// BalanceDrift reports the difference between stored totals and the fold of
// the activity ledger for one user
type BalanceDrift struct {
	UserID         int64
	StoredTotal    int64
	LedgerTotal    int64
	DriftedArtists []int64
	Repaired       bool
}

// Store defines the interface for ledger database operations
type Store interface {
	// GetUser retrieves a user by wallet address; nil when absent
	GetUser(ctx context.Context, wallet domain.WalletAddress) (*schema.User, error)
	// GetPortfolio retrieves the user's holdings joined with artist summaries
	GetPortfolio(ctx context.Context, wallet domain.WalletAddress) ([]HoldingView, error)
	// GetPromotionCounts retrieves per-platform submission counts for a
	// wallet/artist pair; every known platform key is present, zero-filled
	GetPromotionCounts(ctx context.Context, wallet domain.WalletAddress, artistID int64) (map[domain.Platform]int64, error)
	// GetPromotionHistory retrieves the most recent submissions, newest first
	GetPromotionHistory(ctx context.Context, wallet domain.WalletAddress, artistID int64) ([]schema.PromotionHistory, error)
	// CreatePromotionSubmission validates and records a yapping submission
	CreatePromotionSubmission(ctx context.Context, input CreatePromotionInput) (*schema.PromotionHistory, error)
	// GetActivity retrieves the user's most recent ledger entries, newest first
	GetActivity(ctx context.Context, wallet domain.WalletAddress) ([]ActivityView, error)
	// ListArtists retrieves all artists ordered by (status, english name)
	ListArtists(ctx context.Context) ([]schema.Artist, error)
	// GetArtist retrieves one artist by ID; nil when absent
	GetArtist(ctx context.Context, artistID int64) (*schema.Artist, error)
	// ListCampaigns retrieves an agency's campaigns, newest first
	ListCampaigns(ctx context.Context, agencyWallet domain.WalletAddress) ([]CampaignView, error)
	// GetCampaignLog retrieves recent campaign promotion posts for an artist
	GetCampaignLog(ctx context.Context, artistID int64) ([]schema.CampaignPromotionLog, error)
	// GetAgencyStats retrieves the four agency dashboard counts
	GetAgencyStats(ctx context.Context) (*AgencyStats, error)

	// CreateSupport records a gift and credits the denormalized balances
	CreateSupport(ctx context.Context, wallet domain.WalletAddress, artistID int64, amount int64) (*schema.ActivityEntry, error)
	// SwapPoints converts the full per-artist hype balance into tokens
	SwapPoints(ctx context.Context, wallet domain.WalletAddress, artistID int64) (*SwapResult, error)
	// PurchaseGoods debits a goods price exactly once per (user, item)
	PurchaseGoods(ctx context.Context, wallet domain.WalletAddress, itemID int64) (*schema.GoodsPurchase, error)
	// ListGoods retrieves an artist's goods with the caller's purchase state
	ListGoods(ctx context.Context, wallet domain.WalletAddress, artistID int64) ([]GoodsView, error)
	// GetVaultAssets retrieves vault images, gated by the caller's balance
	GetVaultAssets(ctx context.Context, wallet domain.WalletAddress, artistID int64) ([]VaultAssetView, error)

	// CreateAuthChallenge stores a sign-in nonce for a wallet
	CreateAuthChallenge(ctx context.Context, challenge *schema.AuthChallenge) error
	// ConsumeAuthChallenge marks a nonce used; a nonce verifies at most once
	ConsumeAuthChallenge(ctx context.Context, wallet domain.WalletAddress, nonce string, now time.Time) error

	// ListUserIDs retrieves every user ID for reconciliation fan-out
	ListUserIDs(ctx context.Context) ([]int64, error)
	// RecomputeBalances folds the activity ledger for one user and optionally
	// repairs drifted denormalized totals
	RecomputeBalances(ctx context.Context, userID int64, repair bool) (*BalanceDrift, error)
}

// CreatePromotionInput carries a validated-at-the-store yapping submission
type CreatePromotionInput struct {
	Wallet   domain.WalletAddress
	ArtistID int64
	Platform domain.Platform
	Link     string
	Content  string
}
