package domain

import (
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ArtistStatus represents the lifecycle stage of an artist
type ArtistStatus string

const (
	// ArtistStatusFunding marks a pre-debut trainee in the funding cohort (Division 01)
	ArtistStatusFunding ArtistStatus = "funding"
	// ArtistStatusMarket marks a debuted artist trading on the market (Division 02)
	ArtistStatusMarket ArtistStatus = "market"
	// ArtistStatusInactive marks an artist no longer listed
	ArtistStatusInactive ArtistStatus = "inactive"
)

// IsValidArtistStatus checks if an artist status is valid
func IsValidArtistStatus(s ArtistStatus) bool {
	return s == ArtistStatusFunding || s == ArtistStatusMarket || s == ArtistStatusInactive
}

// Platform represents the social platform a promotion was published on
type Platform string

const (
	PlatformX         Platform = "x"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformWeChat    Platform = "wechat"
	PlatformWeibo     Platform = "weibo"
)

// Platforms lists every known platform. The promotion-counts contract
// guarantees a zero entry for each of these even when no rows exist.
var Platforms = []Platform{
	PlatformX,
	PlatformInstagram,
	PlatformYouTube,
	PlatformWeChat,
	PlatformWeibo,
}

// IsValidPlatform checks if a platform is one of the known values
func IsValidPlatform(p Platform) bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// ActivityType represents the kind of point movement recorded in the ledger
type ActivityType string

const (
	ActivitySupport  ActivityType = "SUPPORT"
	ActivityDividend ActivityType = "DIVIDEND"
	ActivityCampaign ActivityType = "CAMPAIGN"
	ActivitySwap     ActivityType = "SWAP"
)

// CampaignStatus represents the state of an agency campaign
type CampaignStatus string

const (
	CampaignStatusActive  CampaignStatus = "active"
	CampaignStatusPending CampaignStatus = "pending"
)

// WalletAddress is a case-normalized EVM wallet address used as the user identity key
type WalletAddress string

// NewWalletAddress normalizes a raw address to its canonical lowercase form
func NewWalletAddress(raw string) WalletAddress {
	return WalletAddress(strings.ToLower(strings.TrimSpace(raw)))
}

// Valid reports whether the address is a well-formed hex address
func (w WalletAddress) Valid() bool {
	return common.IsHexAddress(string(w))
}

func (w WalletAddress) String() string {
	return string(w)
}

// ValidPromotionLink reports whether a submitted promotion URL is usable:
// non-empty, absolute, and http(s)
func ValidPromotionLink(link string) bool {
	if strings.TrimSpace(link) == "" {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
