package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yapdol/hype-ledger/internal/domain"
	"github.com/yapdol/hype-ledger/internal/logger"
)

// AUTH_WALLET_KEY is the gin context key holding the authenticated wallet
// address after the Auth middleware has run
const AUTH_WALLET_KEY = "auth_wallet"

// TokenVerifier validates a session token and returns the wallet it is
// bound to
type TokenVerifier interface {
	ParseToken(tokenString string) (domain.WalletAddress, error)
}

// Auth returns a gin middleware that requires a valid Bearer session token.
// The wallet the token is bound to is stored in the request context for
// handlers to check against request bodies.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, err := authenticate(c.GetHeader("Authorization"), verifier)
		if err != nil {
			logger.Warn("Authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Authentication failed",
				},
			})
			return
		}

		c.Set(AUTH_WALLET_KEY, wallet)
		c.Next()
	}
}

// AuthedWallet returns the wallet address the Auth middleware stored for
// this request
func AuthedWallet(c *gin.Context) (domain.WalletAddress, bool) {
	v, ok := c.Get(AUTH_WALLET_KEY)
	if !ok {
		return "", false
	}
	wallet, ok := v.(domain.WalletAddress)
	return wallet, ok
}

// authenticate parses the Authorization header and validates the token
func authenticate(authHeader string, verifier TokenVerifier) (domain.WalletAddress, error) {
	if authHeader == "" {
		return "", errors.New("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.New("invalid Authorization header format")
	}

	wallet, err := verifier.ParseToken(parts[1])
	if err != nil {
		return "", err
	}

	return wallet, nil
}
