package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yapdol/hype-ledger/internal/domain"
	"github.com/yapdol/hype-ledger/internal/store/schema"
)

// =============================================================================
// Test Data Builders
// =============================================================================

const (
	testWalletA = "0x1111111111111111111111111111111111111111"
	testWalletB = "0x2222222222222222222222222222222222222222"
	testAgency  = "0x3333333333333333333333333333333333333333"
)

func seedUser(t *testing.T, db *gorm.DB, wallet, username string) *schema.User {
	user := &schema.User{
		WalletAddress: wallet,
		Username:      username,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedAgency(t *testing.T, db *gorm.DB, wallet, name string) *schema.User {
	user := &schema.User{
		WalletAddress: wallet,
		Username:      name,
		IsAgency:      true,
		AgencyName:    &name,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedArtist(t *testing.T, db *gorm.DB, name string, status domain.ArtistStatus) *schema.Artist {
	artist := &schema.Artist{
		EnglishName: name,
		KoreanName:  name,
		Agency:      "Starlight Ent.",
		Status:      status,
	}
	if status == domain.ArtistStatusFunding {
		dday := 30
		artist.DDay = &dday
	}
	require.NoError(t, db.Create(artist).Error)
	return artist
}

func seedHolding(t *testing.T, db *gorm.DB, userID, artistID, myPoints, tokenBalance int64) *schema.Holding {
	h := &schema.Holding{
		UserID:       userID,
		ArtistID:     artistID,
		Holdings:     1,
		MyPoints:     myPoints,
		TokenBalance: tokenBalance,
	}
	require.NoError(t, db.Create(h).Error)
	return h
}

func seedPromotion(t *testing.T, db *gorm.DB, userID, artistID int64, platform domain.Platform, createdAt time.Time) {
	row := &schema.PromotionHistory{
		UserID:    userID,
		ArtistID:  artistID,
		Platform:  platform,
		Link:      "https://example.com/post",
		Content:   "teaser",
		CreatedAt: createdAt,
	}
	require.NoError(t, db.Create(row).Error)
}

func seedActivity(t *testing.T, db *gorm.DB, userID, artistID, amount int64, activityType domain.ActivityType, createdAt time.Time) {
	row := &schema.ActivityEntry{
		UserID:       userID,
		ArtistID:     artistID,
		ActivityType: activityType,
		Amount:       amount,
		CreatedAt:    createdAt,
	}
	require.NoError(t, db.Create(row).Error)
}

// =============================================================================
// Suite
// =============================================================================

// RunStoreTests runs the full store test suite against an implementation
func RunStoreTests(t *testing.T, initDB func(t *testing.T) (Store, *gorm.DB)) {
	t.Run("GetUser", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		seedUser(t, db, testWalletA, "hypefan")

		user, err := s.GetUser(ctx, domain.NewWalletAddress(testWalletA))
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "hypefan", user.Username)

		missing, err := s.GetUser(ctx, domain.NewWalletAddress(testWalletB))
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("GetPortfolioEmptyForUnknownWallet", func(t *testing.T) {
		s, _ := initDB(t)

		rows, err := s.GetPortfolio(context.Background(), domain.NewWalletAddress(testWalletB))
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.NotNil(t, rows)
	})

	t.Run("GetPortfolioJoinsArtistSummary", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)
		seedHolding(t, db, user.ID, artist.ID, 500, 0)

		rows, err := s.GetPortfolio(ctx, domain.NewWalletAddress(testWalletA))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "AURA", rows[0].EnglishName)
		assert.Equal(t, domain.ArtistStatusFunding, rows[0].Status)
		assert.Equal(t, int64(500), rows[0].MyPoints)
	})

	t.Run("GetPromotionCountsAlwaysCarriesEveryPlatform", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		counts, err := s.GetPromotionCounts(ctx, domain.NewWalletAddress(testWalletA), artist.ID)
		require.NoError(t, err)
		require.Len(t, counts, len(domain.Platforms))
		for _, p := range domain.Platforms {
			assert.Equal(t, int64(0), counts[p])
		}

		now := time.Now().UTC()
		seedPromotion(t, db, user.ID, artist.ID, domain.PlatformX, now)
		seedPromotion(t, db, user.ID, artist.ID, domain.PlatformX, now)
		seedPromotion(t, db, user.ID, artist.ID, domain.PlatformWeibo, now)

		counts, err = s.GetPromotionCounts(ctx, domain.NewWalletAddress(testWalletA), artist.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[domain.PlatformX])
		assert.Equal(t, int64(1), counts[domain.PlatformWeibo])
		assert.Equal(t, int64(0), counts[domain.PlatformInstagram])
		assert.Equal(t, int64(0), counts[domain.PlatformYouTube])
		assert.Equal(t, int64(0), counts[domain.PlatformWeChat])
	})

	t.Run("GetPromotionHistoryCappedAndNewestFirst", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		base := time.Now().UTC().Add(-time.Hour)
		for i := 0; i < 15; i++ {
			seedPromotion(t, db, user.ID, artist.ID, domain.PlatformX, base.Add(time.Duration(i)*time.Minute))
		}

		rows, err := s.GetPromotionHistory(ctx, domain.NewWalletAddress(testWalletA), artist.ID)
		require.NoError(t, err)
		require.Len(t, rows, PromotionHistoryLimit)
		for i := 1; i < len(rows); i++ {
			assert.True(t, !rows[i-1].CreatedAt.Before(rows[i].CreatedAt),
				"history must be sorted newest first")
		}
	})

	t.Run("CreatePromotionSubmission", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		created, err := s.CreatePromotionSubmission(ctx, CreatePromotionInput{
			Wallet:   domain.NewWalletAddress(testWalletA),
			ArtistID: artist.ID,
			Platform: domain.PlatformX,
			Link:     "https://x.com/p/1",
			Content:  "teaser",
		})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.NotZero(t, created.ID)
		assert.NotZero(t, created.CreatedAt)

		counts, err := s.GetPromotionCounts(ctx, domain.NewWalletAddress(testWalletA), artist.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), counts[domain.PlatformX])
	})

	t.Run("CreatePromotionSubmissionUnknownWalletWritesNothing", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		_, err := s.CreatePromotionSubmission(ctx, CreatePromotionInput{
			Wallet:   domain.NewWalletAddress(testWalletB),
			ArtistID: artist.ID,
			Platform: domain.PlatformX,
			Link:     "https://x.com/p/1",
			Content:  "teaser",
		})
		require.ErrorIs(t, err, domain.ErrUserNotFound)

		var count int64
		require.NoError(t, db.Model(&schema.PromotionHistory{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("CreatePromotionSubmissionValidatesBeforePersistence", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		cases := []struct {
			name  string
			input CreatePromotionInput
		}{
			{
				name: "unknown platform",
				input: CreatePromotionInput{
					Wallet: domain.NewWalletAddress(testWalletA), ArtistID: artist.ID,
					Platform: "tiktok", Link: "https://x.com/p/1", Content: "teaser",
				},
			},
			{
				name: "empty link",
				input: CreatePromotionInput{
					Wallet: domain.NewWalletAddress(testWalletA), ArtistID: artist.ID,
					Platform: domain.PlatformX, Link: "", Content: "teaser",
				},
			},
			{
				name: "relative link",
				input: CreatePromotionInput{
					Wallet: domain.NewWalletAddress(testWalletA), ArtistID: artist.ID,
					Platform: domain.PlatformX, Link: "/p/1", Content: "teaser",
				},
			},
			{
				name: "empty content",
				input: CreatePromotionInput{
					Wallet: domain.NewWalletAddress(testWalletA), ArtistID: artist.ID,
					Platform: domain.PlatformX, Link: "https://x.com/p/1", Content: "",
				},
			},
			{
				name: "malformed wallet",
				input: CreatePromotionInput{
					Wallet: domain.NewWalletAddress("not-a-wallet"), ArtistID: artist.ID,
					Platform: domain.PlatformX, Link: "https://x.com/p/1", Content: "teaser",
				},
			},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := s.CreatePromotionSubmission(ctx, tc.input)
				require.ErrorIs(t, err, domain.ErrValidation)
			})
		}

		var count int64
		require.NoError(t, db.Model(&schema.PromotionHistory{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("GetActivityCappedAndNewestFirst", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		base := time.Now().UTC().Add(-time.Hour)
		for i := 0; i < 25; i++ {
			seedActivity(t, db, user.ID, artist.ID, 100, domain.ActivitySupport, base.Add(time.Duration(i)*time.Minute))
		}

		rows, err := s.GetActivity(ctx, domain.NewWalletAddress(testWalletA))
		require.NoError(t, err)
		require.Len(t, rows, ActivityLimit)
		assert.Equal(t, "AURA", rows[0].ArtistName)
		for i := 1; i < len(rows); i++ {
			assert.True(t, !rows[i-1].CreatedAt.Before(rows[i].CreatedAt),
				"activity must be sorted newest first")
		}
	})

	t.Run("ListArtistsOrderedByStatusThenName", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		seedArtist(t, db, "Zenith", domain.ArtistStatusMarket)
		seedArtist(t, db, "Bloom", domain.ArtistStatusFunding)
		seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		artists, err := s.ListArtists(ctx)
		require.NoError(t, err)
		require.Len(t, artists, 3)
		assert.Equal(t, "AURA", artists[0].EnglishName)
		assert.Equal(t, "Bloom", artists[1].EnglishName)
		assert.Equal(t, "Zenith", artists[2].EnglishName)
	})

	t.Run("ListCampaignsNewestFirst", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		agency := seedAgency(t, db, testAgency, "Starlight Ent.")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		older := schema.Campaign{AgencyID: agency.ID, ArtistID: artist.ID, Status: domain.CampaignStatusActive, CreatedAt: time.Now().UTC().Add(-time.Hour)}
		newer := schema.Campaign{AgencyID: agency.ID, ArtistID: artist.ID, Status: domain.CampaignStatusPending, CreatedAt: time.Now().UTC()}
		require.NoError(t, db.Create(&older).Error)
		require.NoError(t, db.Create(&newer).Error)

		rows, err := s.ListCampaigns(ctx, domain.NewWalletAddress(testAgency))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, domain.CampaignStatusPending, rows[0].Status)
		assert.Equal(t, "AURA", rows[0].ArtistName)
	})

	t.Run("GetCampaignLogCapped", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)
		base := time.Now().UTC().Add(-time.Hour)
		for i := 0; i < 12; i++ {
			row := schema.CampaignPromotionLog{
				ArtistID:          artist.ID,
				Platform:          domain.PlatformInstagram,
				PublisherUsername: fmt.Sprintf("fan_%d", i),
				Content:           "post",
				Link:              "https://instagram.com/p/1",
				CreatedAt:         base.Add(time.Duration(i) * time.Minute),
			}
			require.NoError(t, db.Create(&row).Error)
		}

		rows, err := s.GetCampaignLog(ctx, artist.ID)
		require.NoError(t, err)
		require.Len(t, rows, CampaignLogLimit)
		assert.Equal(t, "fan_11", rows[0].PublisherUsername)
	})

	t.Run("GetAgencyStats", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		agency := seedAgency(t, db, testAgency, "Starlight Ent.")
		funding := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)
		seedArtist(t, db, "Bloom", domain.ArtistStatusFunding)
		seedArtist(t, db, "Zenith", domain.ArtistStatusMarket)

		require.NoError(t, db.Create(&schema.Campaign{AgencyID: agency.ID, ArtistID: funding.ID, Status: domain.CampaignStatusActive}).Error)
		require.NoError(t, db.Create(&schema.Campaign{AgencyID: agency.ID, ArtistID: funding.ID, Status: domain.CampaignStatusPending}).Error)

		stats, err := s.GetAgencyStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), stats.ActiveTrainees)
		assert.Equal(t, int64(1), stats.GlobalIcons)
		assert.Equal(t, int64(1), stats.ActiveCampaigns)
		assert.Equal(t, int64(1), stats.PendingCampaigns)
	})

	t.Run("CreateSupportCreditsLedgerAndTotals", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		entry, err := s.CreateSupport(ctx, domain.NewWalletAddress(testWalletA), artist.ID, 300)
		require.NoError(t, err)
		assert.Equal(t, domain.ActivitySupport, entry.ActivityType)
		assert.Equal(t, int64(300), entry.Amount)

		var gotUser schema.User
		require.NoError(t, db.First(&gotUser, user.ID).Error)
		assert.Equal(t, int64(300), gotUser.TotalPoints)

		var holding schema.Holding
		require.NoError(t, db.Where("user_id = ? AND artist_id = ?", user.ID, artist.ID).First(&holding).Error)
		assert.Equal(t, int64(300), holding.MyPoints)

		var gotArtist schema.Artist
		require.NoError(t, db.First(&gotArtist, artist.ID).Error)
		assert.Equal(t, int64(300), gotArtist.HypePoints)
		assert.Equal(t, int64(1), gotArtist.ContributorCount)

		// A second support tops up the same holding and does not count a
		// second contributor
		_, err = s.CreateSupport(ctx, domain.NewWalletAddress(testWalletA), artist.ID, 200)
		require.NoError(t, err)
		require.NoError(t, db.First(&gotArtist, artist.ID).Error)
		assert.Equal(t, int64(500), gotArtist.HypePoints)
		assert.Equal(t, int64(1), gotArtist.ContributorCount)
	})

	t.Run("SwapPointsAllOrNothing", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "Zenith", domain.ArtistStatusMarket)
		seedHolding(t, db, user.ID, artist.ID, 84200, 0)
		require.NoError(t, db.Model(&schema.User{}).Where("id = ?", user.ID).Update("total_points", 84200).Error)

		result, err := s.SwapPoints(ctx, domain.NewWalletAddress(testWalletA), artist.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(84200), result.PointsDebited)
		assert.Equal(t, int64(842), result.TokensCredited)
		assert.Equal(t, int64(842), result.TokenBalance)

		var holding schema.Holding
		require.NoError(t, db.Where("user_id = ? AND artist_id = ?", user.ID, artist.ID).First(&holding).Error)
		assert.Equal(t, int64(0), holding.MyPoints)
		assert.Equal(t, int64(842), holding.TokenBalance)

		var entry schema.ActivityEntry
		require.NoError(t, db.Where("user_id = ? AND activity_type = ?", user.ID, domain.ActivitySwap).First(&entry).Error)
		assert.Equal(t, int64(-84200), entry.Amount)
	})

	t.Run("SwapPointsNothingToSwap", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "Zenith", domain.ArtistStatusMarket)
		seedHolding(t, db, user.ID, artist.ID, 99, 0)

		_, err := s.SwapPoints(ctx, domain.NewWalletAddress(testWalletA), artist.ID)
		require.ErrorIs(t, err, domain.ErrNothingToSwap)

		var holding schema.Holding
		require.NoError(t, db.Where("user_id = ? AND artist_id = ?", user.ID, artist.ID).First(&holding).Error)
		assert.Equal(t, int64(99), holding.MyPoints, "a failed swap must not touch the balance")
	})

	t.Run("PurchaseGoodsInsufficientBalance", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "Zenith", domain.ArtistStatusMarket)
		seedHolding(t, db, user.ID, artist.ID, 0, 100)
		item := schema.GoodsItem{ArtistID: artist.ID, Name: "Photocard Set", Price: 200}
		require.NoError(t, db.Create(&item).Error)

		_, err := s.PurchaseGoods(ctx, domain.NewWalletAddress(testWalletA), item.ID)
		require.ErrorIs(t, err, domain.ErrInsufficientBalance)

		var holding schema.Holding
		require.NoError(t, db.Where("user_id = ?", user.ID).First(&holding).Error)
		assert.Equal(t, int64(100), holding.TokenBalance)

		var count int64
		require.NoError(t, db.Model(&schema.GoodsPurchase{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("PurchaseGoodsIdempotent", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "Zenith", domain.ArtistStatusMarket)
		seedHolding(t, db, user.ID, artist.ID, 0, 500)
		item := schema.GoodsItem{ArtistID: artist.ID, Name: "Photocard Set", Price: 200}
		require.NoError(t, db.Create(&item).Error)

		purchase, err := s.PurchaseGoods(ctx, domain.NewWalletAddress(testWalletA), item.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(200), purchase.PricePaid)

		_, err = s.PurchaseGoods(ctx, domain.NewWalletAddress(testWalletA), item.ID)
		require.ErrorIs(t, err, domain.ErrAlreadyPurchased)

		var holding schema.Holding
		require.NoError(t, db.Where("user_id = ?", user.ID).First(&holding).Error)
		assert.Equal(t, int64(300), holding.TokenBalance, "balance debited exactly once")

		var count int64
		require.NoError(t, db.Model(&schema.GoodsPurchase{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("ListGoodsCarriesPurchaseState", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "Zenith", domain.ArtistStatusMarket)
		seedHolding(t, db, user.ID, artist.ID, 0, 500)
		bought := schema.GoodsItem{ArtistID: artist.ID, Name: "Photocard Set", Price: 200}
		other := schema.GoodsItem{ArtistID: artist.ID, Name: "Light Stick", Price: 400}
		require.NoError(t, db.Create(&bought).Error)
		require.NoError(t, db.Create(&other).Error)

		_, err := s.PurchaseGoods(ctx, domain.NewWalletAddress(testWalletA), bought.ID)
		require.NoError(t, err)

		goods, err := s.ListGoods(ctx, domain.NewWalletAddress(testWalletA), artist.ID)
		require.NoError(t, err)
		require.Len(t, goods, 2)
		assert.True(t, goods[0].Purchased)
		assert.False(t, goods[1].Purchased)
	})

	t.Run("GetVaultAssetsGatedByBalance", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)
		asset := schema.VaultAsset{
			ArtistID:       artist.ID,
			ImageURL:       "https://cdn.example.com/vault/aura-1.jpg",
			PlaceholderURL: "https://cdn.example.com/vault/locked.jpg",
			Caption:        "Backstage",
		}
		require.NoError(t, db.Create(&asset).Error)

		// Zero points: placeholder only
		views, err := s.GetVaultAssets(ctx, domain.NewWalletAddress(testWalletA), artist.ID)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.True(t, views[0].Locked)
		assert.Equal(t, asset.PlaceholderURL, views[0].ImageURL)

		// Any positive balance unlocks the real URL
		_, err = s.CreateSupport(ctx, domain.NewWalletAddress(testWalletA), artist.ID, 1)
		require.NoError(t, err)

		views, err = s.GetVaultAssets(ctx, domain.NewWalletAddress(testWalletA), artist.ID)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.False(t, views[0].Locked)
		assert.Equal(t, asset.ImageURL, views[0].ImageURL)
	})

	t.Run("AuthChallengeSingleUse", func(t *testing.T) {
		s, _ := initDB(t)
		ctx := context.Background()

		nonce := uuid.NewString()
		now := time.Now().UTC()
		require.NoError(t, s.CreateAuthChallenge(ctx, &schema.AuthChallenge{
			Nonce:         nonce,
			WalletAddress: testWalletA,
			IssuedAt:      now,
			ExpiresAt:     now.Add(5 * time.Minute),
		}))

		require.NoError(t, s.ConsumeAuthChallenge(ctx, domain.NewWalletAddress(testWalletA), nonce, now))

		err := s.ConsumeAuthChallenge(ctx, domain.NewWalletAddress(testWalletA), nonce, now)
		require.ErrorIs(t, err, domain.ErrChallengeNotFound)
	})

	t.Run("AuthChallengeExpired", func(t *testing.T) {
		s, _ := initDB(t)
		ctx := context.Background()

		nonce := uuid.NewString()
		now := time.Now().UTC()
		require.NoError(t, s.CreateAuthChallenge(ctx, &schema.AuthChallenge{
			Nonce:         nonce,
			WalletAddress: testWalletA,
			IssuedAt:      now.Add(-10 * time.Minute),
			ExpiresAt:     now.Add(-5 * time.Minute),
		}))

		err := s.ConsumeAuthChallenge(ctx, domain.NewWalletAddress(testWalletA), nonce, now)
		require.ErrorIs(t, err, domain.ErrChallengeExpired)
	})

	t.Run("RecomputeBalancesConsistentLedger", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)

		// Balances written through the store stay consistent with the ledger
		_, err := s.CreateSupport(ctx, domain.NewWalletAddress(testWalletA), artist.ID, 250)
		require.NoError(t, err)

		drift, err := s.RecomputeBalances(ctx, user.ID, false)
		require.NoError(t, err)
		assert.Equal(t, drift.StoredTotal, drift.LedgerTotal)
		assert.Empty(t, drift.DriftedArtists)
		assert.False(t, drift.Repaired)
	})

	t.Run("RecomputeBalancesRepairsDrift", func(t *testing.T) {
		s, db := initDB(t)
		ctx := context.Background()

		user := seedUser(t, db, testWalletA, "hypefan")
		artist := seedArtist(t, db, "AURA", domain.ArtistStatusFunding)
		seedHolding(t, db, user.ID, artist.ID, 999, 0)
		require.NoError(t, db.Model(&schema.User{}).Where("id = ?", user.ID).Update("total_points", 999).Error)

		// The ledger says 400, the stored totals say 999
		seedActivity(t, db, user.ID, artist.ID, 400, domain.ActivitySupport, time.Now().UTC())

		drift, err := s.RecomputeBalances(ctx, user.ID, true)
		require.NoError(t, err)
		assert.Equal(t, int64(999), drift.StoredTotal)
		assert.Equal(t, int64(400), drift.LedgerTotal)
		assert.Contains(t, drift.DriftedArtists, artist.ID)
		assert.True(t, drift.Repaired)

		var gotUser schema.User
		require.NoError(t, db.First(&gotUser, user.ID).Error)
		assert.Equal(t, int64(400), gotUser.TotalPoints)

		var holding schema.Holding
		require.NoError(t, db.Where("user_id = ?", user.ID).First(&holding).Error)
		assert.Equal(t, int64(400), holding.MyPoints)
	})

	t.Run("RecomputeBalancesUnknownUser", func(t *testing.T) {
		s, _ := initDB(t)

		_, err := s.RecomputeBalances(context.Background(), 424242, false)
		require.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}
