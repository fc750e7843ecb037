// Package auth implements sign-in-with-wallet: a single-use nonce challenge
// signed by the wallet's key, exchanged for a JWT session token. Write
// endpoints accept a wallet address as identity only when it is backed by
// such a token.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yapdol/hype-ledger/internal/adapter"
	"github.com/yapdol/hype-ledger/internal/domain"
	"github.com/yapdol/hype-ledger/internal/store/schema"
)

const (
	// DefaultChallengeTTL is how long an issued nonce stays valid
	DefaultChallengeTTL = 5 * time.Minute
	// DefaultTokenTTL is the session token lifetime
	DefaultTokenTTL = 24 * time.Hour

	tokenIssuer = "hype-ledger"
)

// ChallengeStore persists sign-in nonces
type ChallengeStore interface {
	CreateAuthChallenge(ctx context.Context, challenge *schema.AuthChallenge) error
	ConsumeAuthChallenge(ctx context.Context, wallet domain.WalletAddress, nonce string, now time.Time) error
}

// Config holds auth service configuration
type Config struct {
	// JWTSecret signs session tokens; required
	JWTSecret string
	// ChallengeTTL overrides the nonce validity window when positive
	ChallengeTTL time.Duration
	// TokenTTL overrides the session lifetime when positive
	TokenTTL time.Duration
}

// Service issues challenges and session tokens
type Service struct {
	store        ChallengeStore
	clock        adapter.Clock
	secret       []byte
	challengeTTL time.Duration
	tokenTTL     time.Duration
}

// NewService creates an auth service
func NewService(store ChallengeStore, clock adapter.Clock, cfg Config) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	challengeTTL := cfg.ChallengeTTL
	if challengeTTL <= 0 {
		challengeTTL = DefaultChallengeTTL
	}
	tokenTTL := cfg.TokenTTL
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &Service{
		store:        store,
		clock:        clock,
		secret:       []byte(cfg.JWTSecret),
		challengeTTL: challengeTTL,
		tokenTTL:     tokenTTL,
	}, nil
}

// ChallengeMessage is the exact text the wallet signs for a nonce
func ChallengeMessage(wallet domain.WalletAddress, nonce string) string {
	return fmt.Sprintf("Sign in to Hype Ledger\nWallet: %s\nNonce: %s", wallet, nonce)
}

// Challenge issues a fresh single-use nonce for a wallet and returns the
// message the wallet must sign
func (s *Service) Challenge(ctx context.Context, wallet domain.WalletAddress) (nonce, message string, err error) {
	if !wallet.Valid() {
		return "", "", fmt.Errorf("%w: invalid wallet address", domain.ErrValidation)
	}

	nonce = uuid.NewString()
	now := s.clock.Now().UTC()
	challenge := &schema.AuthChallenge{
		Nonce:         nonce,
		WalletAddress: wallet.String(),
		IssuedAt:      now,
		ExpiresAt:     now.Add(s.challengeTTL),
	}
	if err := s.store.CreateAuthChallenge(ctx, challenge); err != nil {
		return "", "", err
	}

	return nonce, ChallengeMessage(wallet, nonce), nil
}

// Verify checks that the signature over the challenge message recovers the
// claimed wallet, consumes the nonce, and returns a session token
func (s *Service) Verify(ctx context.Context, wallet domain.WalletAddress, nonce, signature string) (string, error) {
	if !wallet.Valid() {
		return "", fmt.Errorf("%w: invalid wallet address", domain.ErrValidation)
	}
	if nonce == "" || signature == "" {
		return "", fmt.Errorf("%w: missing nonce or signature", domain.ErrValidation)
	}

	now := s.clock.Now().UTC()
	if err := s.store.ConsumeAuthChallenge(ctx, wallet, nonce, now); err != nil {
		return "", err
	}

	recovered, err := recoverSigner(ChallengeMessage(wallet, nonce), signature)
	if err != nil {
		return "", err
	}
	if recovered != wallet {
		return "", domain.ErrInvalidSignature
	}

	return s.issueToken(wallet, now)
}

// recoverSigner recovers the wallet that personal-signed the message
func recoverSigner(message, signature string) (domain.WalletAddress, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != crypto.SignatureLength {
		return "", domain.ErrInvalidSignature
	}

	// personal_sign encodes the recovery id as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig = append([]byte{}, sig...)
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pubKey, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", domain.ErrInvalidSignature
	}

	return domain.NewWalletAddress(crypto.PubkeyToAddress(*pubKey).Hex()), nil
}

func (s *Service) issueToken(wallet domain.WalletAddress, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   wallet.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a session token and returns the wallet it is bound to
func (s *Service) ParseToken(tokenString string) (domain.WalletAddress, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return "", domain.ErrUnauthorized
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(func() time.Time { return s.clock.Now() }))
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrUnauthorized
	}

	wallet := domain.NewWalletAddress(claims.Subject)
	if !wallet.Valid() {
		return "", domain.ErrUnauthorized
	}
	return wallet, nil
}
