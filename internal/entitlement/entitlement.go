// Package entitlement derives unlock state, progress percentages and
// conversion outputs from point balances. Pure computation, no I/O.
package entitlement

import (
	"github.com/yapdol/hype-ledger/internal/domain"
)

const (
	// CampaignCeiling is the hype point target a funding campaign runs toward
	CampaignCeiling = 200000
	// VaultThreshold is the point balance at which vault progress reads 100
	VaultThreshold = 100000
	// SwapRate is the number of hype points per artist-token unit
	SwapRate = 100
)

// FundingProgress returns the funding completion percentage, clamped to
// [0, 100]. A goal of zero or less reads as fully funded rather than a
// division fault.
func FundingProgress(currentFunding, fundingGoal int64) int64 {
	if fundingGoal <= 0 {
		return 100
	}
	if currentFunding <= 0 {
		return 0
	}
	pct := currentFunding * 100 / fundingGoal
	if pct > 100 {
		return 100
	}
	return pct
}

// HypeProgress returns the campaign progress percentage for an artist.
// Market artists have completed their campaign and always read 100.
func HypeProgress(hypePoints int64, status domain.ArtistStatus) int64 {
	if status == domain.ArtistStatusMarket {
		return 100
	}
	return FundingProgress(hypePoints, CampaignCeiling)
}

// VaultUnlockProgress returns how far the user is toward the vault threshold,
// clamped to [0, 100]
func VaultUnlockProgress(userPoints int64) int64 {
	return FundingProgress(userPoints, VaultThreshold)
}

// Unlocked reports whether vault content renders unobscured: an authenticated
// viewer with any positive balance qualifies
func Unlocked(authenticated bool, userPoints int64) bool {
	return authenticated && userPoints > 0
}

// SwapOutput returns the artist-token units a full-balance swap yields.
// The remainder below one token is forfeited with the rest of the balance;
// a swap is all-or-nothing.
func SwapOutput(hypePoints int64) int64 {
	if hypePoints <= 0 {
		return 0
	}
	return hypePoints / SwapRate
}

// CanAfford reports whether a token balance covers a goods price
func CanAfford(tokenBalance, price int64) bool {
	return tokenBalance >= price
}
