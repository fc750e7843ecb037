package domain

import "errors"

var (
	// ErrValidation indicates malformed or missing input rejected before persistence
	ErrValidation = errors.New("validation error")

	// ErrUserNotFound indicates no user row exists for the wallet
	ErrUserNotFound = errors.New("user not found")

	// ErrArtistNotFound indicates no artist row exists for the ID
	ErrArtistNotFound = errors.New("artist not found")

	// ErrCampaignNotFound indicates no campaign row exists for the ID
	ErrCampaignNotFound = errors.New("campaign not found")

	// ErrNothingToSwap indicates the balance is below one whole token at the swap rate
	ErrNothingToSwap = errors.New("nothing to swap")

	// ErrInsufficientBalance indicates the purchase price exceeds the point balance
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadyPurchased indicates the goods item was already bought by this wallet
	ErrAlreadyPurchased = errors.New("already purchased")

	// ErrChallengeNotFound indicates the sign-in nonce is unknown or already consumed
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrChallengeExpired indicates the sign-in nonce outlived its validity window
	ErrChallengeExpired = errors.New("challenge expired")

	// ErrInvalidSignature indicates the signature does not recover the claimed wallet
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrUnauthorized indicates a missing or invalid session token
	ErrUnauthorized = errors.New("unauthorized")
)
