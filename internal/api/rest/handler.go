package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yapdol/hype-ledger/internal/api/middleware"
	"github.com/yapdol/hype-ledger/internal/domain"
	"github.com/yapdol/hype-ledger/internal/live"
	"github.com/yapdol/hype-ledger/internal/store"
)

// AuthService issues sign-in challenges and verifies wallet signatures
type AuthService interface {
	// Challenge stores a single-use nonce and returns the message to sign
	Challenge(ctx context.Context, wallet domain.WalletAddress) (nonce, message string, err error)
	// Verify checks the signature against the nonce and returns a session token
	Verify(ctx context.Context, wallet domain.WalletAddress, nonce, signature string) (string, error)
}

// Handler defines the interface for REST API handlers
type Handler interface {
	// GetUser retrieves a user by wallet address
	// GET /api/user/:walletAddress
	GetUser(c *gin.Context)

	// GetPortfolio retrieves the user's holdings with artist summaries
	// GET /api/portfolio/:walletAddress
	GetPortfolio(c *gin.Context)

	// GetPromotionCounts retrieves per-platform submission counts
	// GET /api/promotion-counts/:walletAddress/:artistId
	GetPromotionCounts(c *gin.Context)

	// GetPromotionHistory retrieves recent submissions, newest first
	// GET /api/promotion-history/:walletAddress/:artistId
	GetPromotionHistory(c *gin.Context)

	// CreatePromotion records a yapping submission (requires session token)
	// POST /api/promotion-history
	CreatePromotion(c *gin.Context)

	// GetActivity retrieves recent ledger entries, newest first
	// GET /api/activity/:walletAddress
	GetActivity(c *gin.Context)

	// ListArtists retrieves all artists ordered by (status, english name)
	// GET /api/artists
	ListArtists(c *gin.Context)

	// GetArtist retrieves one artist by ID
	// GET /api/artists/:artistId
	GetArtist(c *gin.Context)

	// ListCampaigns retrieves an agency's campaigns, newest first
	// GET /api/campaigns/:agencyWallet
	ListCampaigns(c *gin.Context)

	// GetCampaignLog retrieves recent campaign promotion posts
	// GET /api/campaign-log/:artistId
	GetCampaignLog(c *gin.Context)

	// GetAgencyStats retrieves the four agency dashboard counts
	// GET /api/agency-stats
	GetAgencyStats(c *gin.Context)

	// CreateSupport records a gift and credits balances (requires session token)
	// POST /api/support
	CreateSupport(c *gin.Context)

	// SwapPoints converts the full hype balance into tokens (requires session token)
	// POST /api/swap
	SwapPoints(c *gin.Context)

	// PurchaseGoods buys a goods item exactly once (requires session token)
	// POST /api/goods/purchase
	PurchaseGoods(c *gin.Context)

	// ListGoods retrieves an artist's goods with the caller's purchase state
	// GET /api/goods/:walletAddress/:artistId
	ListGoods(c *gin.Context)

	// GetVaultAssets retrieves vault images gated by the caller's balance
	// GET /api/vault/:walletAddress/:artistId
	GetVaultAssets(c *gin.Context)

	// CreateAuthChallenge issues a sign-in nonce for a wallet
	// POST /api/auth/challenge
	CreateAuthChallenge(c *gin.Context)

	// VerifyAuthChallenge verifies a signed nonce and returns a session token
	// POST /api/auth/verify
	VerifyAuthChallenge(c *gin.Context)

	// StreamLiveMetrics streams live metric events for an artist as SSE
	// GET /api/live/:artistId
	StreamLiveMetrics(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	store store.Store
	auth  AuthService
	feed  live.Feed
}

// NewHandler creates a new REST API handler
func NewHandler(st store.Store, authSvc AuthService, feed live.Feed) Handler {
	return &handler{
		store: st,
		auth:  authSvc,
		feed:  feed,
	}
}

// GetUser retrieves a user by wallet address
func (h *handler) GetUser(c *gin.Context) {
	user, err := h.store.GetUser(c.Request.Context(), wallet(c.Param("walletAddress")))
	if err != nil {
		respondInternalError(c, err, "Failed to get user")
		return
	}
	if user == nil {
		respondNotFound(c, "User not found")
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetPortfolio retrieves the user's holdings with artist summaries
func (h *handler) GetPortfolio(c *gin.Context) {
	holdings, err := h.store.GetPortfolio(c.Request.Context(), wallet(c.Param("walletAddress")))
	if err != nil {
		respondInternalError(c, err, "Failed to get portfolio")
		return
	}

	c.JSON(http.StatusOK, holdings)
}

// GetPromotionCounts retrieves per-platform submission counts
func (h *handler) GetPromotionCounts(c *gin.Context) {
	artistID, ok := parseArtistID(c)
	if !ok {
		return
	}

	counts, err := h.store.GetPromotionCounts(c.Request.Context(), wallet(c.Param("walletAddress")), artistID)
	if err != nil {
		respondInternalError(c, err, "Failed to get promotion counts")
		return
	}

	c.JSON(http.StatusOK, counts)
}

// GetPromotionHistory retrieves recent submissions, newest first
func (h *handler) GetPromotionHistory(c *gin.Context) {
	artistID, ok := parseArtistID(c)
	if !ok {
		return
	}

	history, err := h.store.GetPromotionHistory(c.Request.Context(), wallet(c.Param("walletAddress")), artistID)
	if err != nil {
		respondInternalError(c, err, "Failed to get promotion history")
		return
	}

	c.JSON(http.StatusOK, history)
}

// CreatePromotion records a yapping submission
func (h *handler) CreatePromotion(c *gin.Context) {
	var req CreatePromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if !h.walletMatchesSession(c, req.WalletAddress) {
		return
	}

	row, err := h.store.CreatePromotionSubmission(c.Request.Context(), store.CreatePromotionInput{
		Wallet:   wallet(req.WalletAddress),
		ArtistID: req.ArtistID,
		Platform: domain.Platform(req.Platform),
		Link:     req.Link,
		Content:  req.Content,
	})
	if err != nil {
		respondStoreError(c, err, "Failed to create promotion submission")
		return
	}

	c.JSON(http.StatusOK, row)
}

// GetActivity retrieves recent ledger entries, newest first
func (h *handler) GetActivity(c *gin.Context) {
	activity, err := h.store.GetActivity(c.Request.Context(), wallet(c.Param("walletAddress")))
	if err != nil {
		respondInternalError(c, err, "Failed to get activity")
		return
	}

	c.JSON(http.StatusOK, activity)
}

// ListArtists retrieves all artists ordered by (status, english name)
func (h *handler) ListArtists(c *gin.Context) {
	artists, err := h.store.ListArtists(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to list artists")
		return
	}

	c.JSON(http.StatusOK, artists)
}

// GetArtist retrieves one artist by ID
func (h *handler) GetArtist(c *gin.Context) {
	artistID, ok := parseArtistID(c)
	if !ok {
		return
	}

	artist, err := h.store.GetArtist(c.Request.Context(), artistID)
	if err != nil {
		respondInternalError(c, err, "Failed to get artist")
		return
	}
	if artist == nil {
		respondNotFound(c, "Artist not found")
		return
	}

	c.JSON(http.StatusOK, artist)
}

// ListCampaigns retrieves an agency's campaigns, newest first
func (h *handler) ListCampaigns(c *gin.Context) {
	campaigns, err := h.store.ListCampaigns(c.Request.Context(), wallet(c.Param("agencyWallet")))
	if err != nil {
		respondInternalError(c, err, "Failed to list campaigns")
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

// GetCampaignLog retrieves recent campaign promotion posts
func (h *handler) GetCampaignLog(c *gin.Context) {
	artistID, ok := parseArtistID(c)
	if !ok {
		return
	}

	log, err := h.store.GetCampaignLog(c.Request.Context(), artistID)
	if err != nil {
		respondInternalError(c, err, "Failed to get campaign log")
		return
	}

	c.JSON(http.StatusOK, log)
}

// GetAgencyStats retrieves the four agency dashboard counts
func (h *handler) GetAgencyStats(c *gin.Context) {
	stats, err := h.store.GetAgencyStats(c.Request.Context())
	if err != nil {
		respondInternalError(c, err, "Failed to get agency stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// CreateSupport records a gift and credits balances
func (h *handler) CreateSupport(c *gin.Context) {
	var req SupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if !h.walletMatchesSession(c, req.WalletAddress) {
		return
	}

	entry, err := h.store.CreateSupport(c.Request.Context(), wallet(req.WalletAddress), req.ArtistID, req.Amount)
	if err != nil {
		respondStoreError(c, err, "Failed to create support")
		return
	}

	c.JSON(http.StatusOK, entry)
}

// SwapPoints converts the full hype balance into tokens
func (h *handler) SwapPoints(c *gin.Context) {
	var req SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if !h.walletMatchesSession(c, req.WalletAddress) {
		return
	}

	result, err := h.store.SwapPoints(c.Request.Context(), wallet(req.WalletAddress), req.ArtistID)
	if err != nil {
		respondStoreError(c, err, "Failed to swap points")
		return
	}

	c.JSON(http.StatusOK, result)
}

// PurchaseGoods buys a goods item exactly once
func (h *handler) PurchaseGoods(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if !h.walletMatchesSession(c, req.WalletAddress) {
		return
	}

	purchase, err := h.store.PurchaseGoods(c.Request.Context(), wallet(req.WalletAddress), req.ItemID)
	if err != nil {
		respondStoreError(c, err, "Failed to purchase goods")
		return
	}

	c.JSON(http.StatusOK, purchase)
}

// ListGoods retrieves an artist's goods with the caller's purchase state
func (h *handler) ListGoods(c *gin.Context) {
	artistID, ok := parseArtistID(c)
	if !ok {
		return
	}

	goods, err := h.store.ListGoods(c.Request.Context(), wallet(c.Param("walletAddress")), artistID)
	if err != nil {
		respondInternalError(c, err, "Failed to list goods")
		return
	}

	c.JSON(http.StatusOK, goods)
}

// GetVaultAssets retrieves vault images. Unlocking requires both a session
// bound to the path wallet and a positive point balance; the URLs stay
// obscured otherwise.
func (h *handler) GetVaultAssets(c *gin.Context) {
	artistID, ok := parseArtistID(c)
	if !ok {
		return
	}
	if !h.walletMatchesSession(c, c.Param("walletAddress")) {
		return
	}

	assets, err := h.store.GetVaultAssets(c.Request.Context(), wallet(c.Param("walletAddress")), artistID)
	if err != nil {
		respondInternalError(c, err, "Failed to get vault assets")
		return
	}

	c.JSON(http.StatusOK, assets)
}

// CreateAuthChallenge issues a sign-in nonce for a wallet
func (h *handler) CreateAuthChallenge(c *gin.Context) {
	var req AuthChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	nonce, message, err := h.auth.Challenge(c.Request.Context(), wallet(req.WalletAddress))
	if err != nil {
		respondStoreError(c, err, "Failed to create auth challenge")
		return
	}

	c.JSON(http.StatusOK, AuthChallengeResponse{
		Nonce:   nonce,
		Message: message,
	})
}

// VerifyAuthChallenge verifies a signed nonce and returns a session token
func (h *handler) VerifyAuthChallenge(c *gin.Context) {
	var req AuthVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	token, err := h.auth.Verify(c.Request.Context(), wallet(req.WalletAddress), req.Nonce, req.Signature)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthVerifyResponse{Token: token})
}

// StreamLiveMetrics streams live metric events for an artist as SSE
func (h *handler) StreamLiveMetrics(c *gin.Context) {
	artistID, ok := parseArtistID(c)
	if !ok {
		return
	}

	events, cancel, err := h.feed.Subscribe(c.Request.Context(), artistID)
	if err != nil {
		respondInternalError(c, err, "Failed to subscribe to live feed",
			zap.Int64("artist_id", artistID))
		return
	}
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-events:
			if !open {
				return false
			}
			c.SSEvent("metric", event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "hype-ledger-api",
	})
}

// walletMatchesSession rejects requests whose claimed wallet differs from
// the wallet the session token is bound to
func (h *handler) walletMatchesSession(c *gin.Context, bodyWallet string) bool {
	authed, ok := middleware.AuthedWallet(c)
	if !ok {
		respondUnauthorized(c, "Missing session")
		return false
	}
	if authed != wallet(bodyWallet) {
		respondUnauthorized(c, "Wallet does not match session")
		return false
	}
	return true
}

// respondAuthError maps sign-in verification failures onto HTTP statuses
func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		respondValidationError(c, err.Error())
	case errors.Is(err, domain.ErrChallengeNotFound):
		respondNotFound(c, err.Error())
	case errors.Is(err, domain.ErrChallengeExpired),
		errors.Is(err, domain.ErrInvalidSignature),
		errors.Is(err, domain.ErrUnauthorized):
		respondUnauthorized(c, err.Error())
	default:
		respondInternalError(c, err, "Failed to verify auth challenge")
	}
}

// parseArtistID parses the :artistId path parameter or responds 400
func parseArtistID(c *gin.Context) (int64, bool) {
	artistID, err := strconv.ParseInt(c.Param("artistId"), 10, 64)
	if err != nil || artistID <= 0 {
		respondBadRequest(c, "Invalid artist ID")
		return 0, false
	}
	return artistID, true
}
