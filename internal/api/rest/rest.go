package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/yapdol/hype-ledger/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, verifier middleware.TokenVerifier) {
	// Health check endpoint (no auth, no path prefix)
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	{
		// Sign-in with wallet (open)
		api.POST("/auth/challenge", handler.CreateAuthChallenge)
		api.POST("/auth/verify", handler.VerifyAuthChallenge)

		// Read endpoints (public)
		api.GET("/user/:walletAddress", handler.GetUser)
		api.GET("/portfolio/:walletAddress", handler.GetPortfolio)
		api.GET("/promotion-counts/:walletAddress/:artistId", handler.GetPromotionCounts)
		api.GET("/promotion-history/:walletAddress/:artistId", handler.GetPromotionHistory)
		api.GET("/activity/:walletAddress", handler.GetActivity)
		api.GET("/artists", handler.ListArtists)
		api.GET("/artists/:artistId", handler.GetArtist)
		api.GET("/campaigns/:agencyWallet", handler.ListCampaigns)
		api.GET("/campaign-log/:artistId", handler.GetCampaignLog)
		api.GET("/agency-stats", handler.GetAgencyStats)
		api.GET("/goods/:walletAddress/:artistId", handler.ListGoods)

		// Live metrics feed (public, SSE)
		api.GET("/live/:artistId", handler.StreamLiveMetrics)

		// Endpoints that require a wallet-bound session token. The vault
		// read is gated too so naming a rich wallet in the path is not
		// enough to pull its unlocked asset URLs.
		authed := api.Group("", middleware.Auth(verifier))
		{
			authed.GET("/vault/:walletAddress/:artistId", handler.GetVaultAssets)
			authed.POST("/promotion-history", handler.CreatePromotion)
			authed.POST("/support", handler.CreateSupport)
			authed.POST("/swap", handler.SwapPoints)
			authed.POST("/goods/purchase", handler.PurchaseGoods)
		}
	}
}
