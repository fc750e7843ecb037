package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yapdol/hype-ledger/internal/domain"
	"github.com/yapdol/hype-ledger/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// GetUser retrieves a user by wallet address
func (s *pgStore) GetUser(ctx context.Context, wallet domain.WalletAddress) (*schema.User, error) {
	var user schema.User
	err := s.db.WithContext(ctx).Where("wallet_address = ?", wallet.String()).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// getUserTx resolves a wallet to its user row inside a transaction, locking
// the row for balance updates
func getUserTx(tx *gorm.DB, wallet domain.WalletAddress, forUpdate bool) (*schema.User, error) {
	q := tx.Where("wallet_address = ?", wallet.String())
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var user schema.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// GetPortfolio retrieves the user's holdings joined with artist summaries.
// An unknown wallet yields an empty list, not an error.
func (s *pgStore) GetPortfolio(ctx context.Context, wallet domain.WalletAddress) ([]HoldingView, error) {
	var rows []HoldingView
	err := s.db.WithContext(ctx).
		Model(&schema.Holding{}).
		Select("user_portfolio.artist_id, artists.english_name, artists.korean_name, artists.agency, artists.image_url, artists.status, user_portfolio.holdings, user_portfolio.my_points, user_portfolio.token_balance").
		Joins("JOIN artists ON artists.id = user_portfolio.artist_id").
		Joins("JOIN users ON users.id = user_portfolio.user_id").
		Where("users.wallet_address = ?", wallet.String()).
		Order("user_portfolio.my_points DESC, user_portfolio.artist_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio: %w", err)
	}
	if rows == nil {
		rows = []HoldingView{}
	}
	return rows, nil
}

// GetPromotionCounts retrieves per-platform submission counts. The result
// always carries every known platform key, zero-filled when no rows exist.
func (s *pgStore) GetPromotionCounts(ctx context.Context, wallet domain.WalletAddress, artistID int64) (map[domain.Platform]int64, error) {
	type platformCount struct {
		Platform domain.Platform
		Count    int64
	}
	var rows []platformCount
	err := s.db.WithContext(ctx).
		Model(&schema.PromotionHistory{}).
		Select("promotion_history.platform, COUNT(*) as count").
		Joins("JOIN users ON users.id = promotion_history.user_id").
		Where("users.wallet_address = ? AND promotion_history.artist_id = ?", wallet.String(), artistID).
		Group("promotion_history.platform").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion counts: %w", err)
	}

	counts := make(map[domain.Platform]int64, len(domain.Platforms))
	for _, p := range domain.Platforms {
		counts[p] = 0
	}
	for _, row := range rows {
		counts[row.Platform] = row.Count
	}
	return counts, nil
}

// GetPromotionHistory retrieves the most recent submissions, newest first
func (s *pgStore) GetPromotionHistory(ctx context.Context, wallet domain.WalletAddress, artistID int64) ([]schema.PromotionHistory, error) {
	var rows []schema.PromotionHistory
	err := s.db.WithContext(ctx).
		Joins("JOIN users ON users.id = promotion_history.user_id").
		Where("users.wallet_address = ? AND promotion_history.artist_id = ?", wallet.String(), artistID).
		Order("promotion_history.created_at DESC").
		Limit(PromotionHistoryLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion history: %w", err)
	}
	return rows, nil
}

func validatePromotionInput(input CreatePromotionInput) error {
	if !input.Wallet.Valid() {
		return fmt.Errorf("%w: invalid wallet address", domain.ErrValidation)
	}
	if input.ArtistID <= 0 {
		return fmt.Errorf("%w: missing artist id", domain.ErrValidation)
	}
	if !domain.IsValidPlatform(input.Platform) {
		return fmt.Errorf("%w: unknown platform %q", domain.ErrValidation, input.Platform)
	}
	if !domain.ValidPromotionLink(input.Link) {
		return fmt.Errorf("%w: link must be an absolute http(s) URL", domain.ErrValidation)
	}
	if input.Content == "" {
		return fmt.Errorf("%w: missing content", domain.ErrValidation)
	}
	return nil
}

// CreatePromotionSubmission validates and records a yapping submission.
// Validation failures never reach the database.
func (s *pgStore) CreatePromotionSubmission(ctx context.Context, input CreatePromotionInput) (*schema.PromotionHistory, error) {
	if err := validatePromotionInput(input); err != nil {
		return nil, err
	}

	var created schema.PromotionHistory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getUserTx(tx, input.Wallet, false)
		if err != nil {
			return err
		}

		var artist schema.Artist
		if err := tx.Where("id = ?", input.ArtistID).First(&artist).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrArtistNotFound
			}
			return fmt.Errorf("failed to get artist: %w", err)
		}

		created = schema.PromotionHistory{
			UserID:   user.ID,
			ArtistID: artist.ID,
			Platform: input.Platform,
			Link:     input.Link,
			Content:  input.Content,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("failed to create promotion submission: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetActivity retrieves the user's most recent ledger entries, newest first,
// each joined with the artist's display name
func (s *pgStore) GetActivity(ctx context.Context, wallet domain.WalletAddress) ([]ActivityView, error) {
	var rows []ActivityView
	err := s.db.WithContext(ctx).
		Model(&schema.ActivityEntry{}).
		Select("activity_ledger.id, activity_ledger.artist_id, artists.english_name as artist_name, activity_ledger.activity_type, activity_ledger.amount, activity_ledger.created_at").
		Joins("JOIN users ON users.id = activity_ledger.user_id").
		Joins("JOIN artists ON artists.id = activity_ledger.artist_id").
		Where("users.wallet_address = ?", wallet.String()).
		Order("activity_ledger.created_at DESC").
		Limit(ActivityLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	if rows == nil {
		rows = []ActivityView{}
	}
	return rows, nil
}

// ListArtists retrieves all artists ordered by (status, english name)
func (s *pgStore) ListArtists(ctx context.Context) ([]schema.Artist, error) {
	var artists []schema.Artist
	err := s.db.WithContext(ctx).
		Order("status ASC, english_name ASC").
		Find(&artists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	return artists, nil
}

// GetArtist retrieves one artist by ID
func (s *pgStore) GetArtist(ctx context.Context, artistID int64) (*schema.Artist, error) {
	var artist schema.Artist
	err := s.db.WithContext(ctx).Where("id = ?", artistID).First(&artist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}
	return &artist, nil
}

// ListCampaigns retrieves an agency's campaigns, newest first
func (s *pgStore) ListCampaigns(ctx context.Context, agencyWallet domain.WalletAddress) ([]CampaignView, error) {
	var rows []CampaignView
	err := s.db.WithContext(ctx).
		Model(&schema.Campaign{}).
		Select("campaigns.id, campaigns.artist_id, artists.english_name as artist_name, campaigns.status, campaigns.created_at").
		Joins("JOIN users ON users.id = campaigns.agency_id").
		Joins("JOIN artists ON artists.id = campaigns.artist_id").
		Where("users.wallet_address = ?", agencyWallet.String()).
		Order("campaigns.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	if rows == nil {
		rows = []CampaignView{}
	}
	return rows, nil
}

// GetCampaignLog retrieves recent campaign promotion posts for an artist
func (s *pgStore) GetCampaignLog(ctx context.Context, artistID int64) ([]schema.CampaignPromotionLog, error) {
	var rows []schema.CampaignPromotionLog
	err := s.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("created_at DESC").
		Limit(CampaignLogLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign log: %w", err)
	}
	return rows, nil
}

// GetAgencyStats retrieves the four agency dashboard counts. Four separate
// reads; no snapshot consistency across them.
func (s *pgStore) GetAgencyStats(ctx context.Context) (*AgencyStats, error) {
	var stats AgencyStats

	err := s.db.WithContext(ctx).Model(&schema.Artist{}).
		Where("status = ?", domain.ArtistStatusFunding).
		Count(&stats.ActiveTrainees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active trainees: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&schema.Artist{}).
		Where("status = ?", domain.ArtistStatusMarket).
		Count(&stats.GlobalIcons).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count global icons: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&schema.Campaign{}).
		Where("status = ?", domain.CampaignStatusActive).
		Count(&stats.ActiveCampaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active campaigns: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&schema.Campaign{}).
		Where("status = ?", domain.CampaignStatusPending).
		Count(&stats.PendingCampaigns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count pending campaigns: %w", err)
	}

	return &stats, nil
}

// CreateSupport records a gift as a SUPPORT ledger entry and credits the
// denormalized totals on user, holding and artist in one transaction
func (s *pgStore) CreateSupport(ctx context.Context, wallet domain.WalletAddress, artistID int64, amount int64) (*schema.ActivityEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: support amount must be positive", domain.ErrValidation)
	}

	var entry schema.ActivityEntry
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getUserTx(tx, wallet, true)
		if err != nil {
			return err
		}

		var artist schema.Artist
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", artistID).First(&artist).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrArtistNotFound
			}
			return fmt.Errorf("failed to get artist: %w", err)
		}

		entry = schema.ActivityEntry{
			UserID:       user.ID,
			ArtistID:     artist.ID,
			ActivityType: domain.ActivitySupport,
			Amount:       amount,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}

		// First support for this pair opens the position and counts a
		// new contributor
		holding := schema.Holding{
			UserID:   user.ID,
			ArtistID: artist.ID,
			MyPoints: amount,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "artist_id"}},
			DoNothing: true,
		}).Create(&holding)
		if res.Error != nil {
			return fmt.Errorf("failed to upsert holding: %w", res.Error)
		}
		newHolding := res.RowsAffected > 0
		if !newHolding {
			if err := tx.Model(&schema.Holding{}).
				Where("user_id = ? AND artist_id = ?", user.ID, artist.ID).
				Updates(map[string]interface{}{
					"my_points":  gorm.Expr("my_points + ?", amount),
					"updated_at": gorm.Expr("now()"),
				}).Error; err != nil {
				return fmt.Errorf("failed to credit holding: %w", err)
			}
		}

		if err := tx.Model(&schema.User{}).Where("id = ?", user.ID).
			Update("total_points", gorm.Expr("total_points + ?", amount)).Error; err != nil {
			return fmt.Errorf("failed to credit user total: %w", err)
		}

		artistUpdates := map[string]interface{}{
			"hype_points": gorm.Expr("hype_points + ?", amount),
		}
		if newHolding {
			artistUpdates["contributor_count"] = gorm.Expr("contributor_count + 1")
		}
		if err := tx.Model(&schema.Artist{}).Where("id = ?", artist.ID).
			Updates(artistUpdates).Error; err != nil {
			return fmt.Errorf("failed to credit artist hype: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// SwapPoints converts the caller's full per-artist hype balance into artist
// tokens at the fixed rate. All-or-nothing: the debit, the token credit and
// the ledger entry commit together or not at all.
func (s *pgStore) SwapPoints(ctx context.Context, wallet domain.WalletAddress, artistID int64) (*SwapResult, error) {
	const rate = 100

	var result SwapResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getUserTx(tx, wallet, true)
		if err != nil {
			return err
		}

		var holding schema.Holding
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND artist_id = ?", user.ID, artistID).
			First(&holding).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNothingToSwap
			}
			return fmt.Errorf("failed to get holding: %w", err)
		}

		tokens := holding.MyPoints / rate
		if holding.MyPoints <= 0 || tokens == 0 {
			return domain.ErrNothingToSwap
		}
		points := holding.MyPoints

		if err := tx.Model(&schema.Holding{}).Where("id = ?", holding.ID).
			Updates(map[string]interface{}{
				"my_points":     0,
				"token_balance": gorm.Expr("token_balance + ?", tokens),
				"updated_at":    gorm.Expr("now()"),
			}).Error; err != nil {
			return fmt.Errorf("failed to settle swap: %w", err)
		}

		if err := tx.Model(&schema.User{}).Where("id = ?", user.ID).
			Update("total_points", gorm.Expr("total_points - ?", points)).Error; err != nil {
			return fmt.Errorf("failed to debit user total: %w", err)
		}

		entry := schema.ActivityEntry{
			UserID:       user.ID,
			ArtistID:     artistID,
			ActivityType: domain.ActivitySwap,
			Amount:       -points,
			Meta:         datatypes.JSON(fmt.Sprintf(`{"tokens_credited": %d}`, tokens)),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to create ledger entry: %w", err)
		}

		result = SwapResult{
			PointsDebited:  points,
			TokensCredited: tokens,
			TokenBalance:   holding.TokenBalance + tokens,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// PurchaseGoods debits a goods price exactly once per (user, item). A repeat
// purchase is rejected without touching the balance.
func (s *pgStore) PurchaseGoods(ctx context.Context, wallet domain.WalletAddress, itemID int64) (*schema.GoodsPurchase, error) {
	var purchase schema.GoodsPurchase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := getUserTx(tx, wallet, true)
		if err != nil {
			return err
		}

		var item schema.GoodsItem
		if err := tx.Where("id = ?", itemID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown goods item", domain.ErrValidation)
			}
			return fmt.Errorf("failed to get goods item: %w", err)
		}

		var holding schema.Holding
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND artist_id = ?", user.ID, item.ArtistID).
			First(&holding).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrInsufficientBalance
			}
			return fmt.Errorf("failed to get holding: %w", err)
		}

		if holding.TokenBalance < item.Price {
			return domain.ErrInsufficientBalance
		}

		// The unique (user_id, goods_item_id) pair turns a re-purchase
		// into a conflict; DO NOTHING leaves ID zero
		purchase = schema.GoodsPurchase{
			UserID:      user.ID,
			GoodsItemID: item.ID,
			PricePaid:   item.Price,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "goods_item_id"}},
			DoNothing: true,
		}).Create(&purchase)
		if res.Error != nil {
			return fmt.Errorf("failed to create purchase: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyPurchased
		}

		if err := tx.Model(&schema.Holding{}).Where("id = ?", holding.ID).
			Updates(map[string]interface{}{
				"token_balance": gorm.Expr("token_balance - ?", item.Price),
				"updated_at":    gorm.Expr("now()"),
			}).Error; err != nil {
			return fmt.Errorf("failed to debit token balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListGoods retrieves an artist's goods with the caller's purchase state
func (s *pgStore) ListGoods(ctx context.Context, wallet domain.WalletAddress, artistID int64) ([]GoodsView, error) {
	var rows []GoodsView
	err := s.db.WithContext(ctx).
		Model(&schema.GoodsItem{}).
		Select("goods_items.id, goods_items.name, goods_items.price, goods_items.image_url, (goods_purchases.id IS NOT NULL) as purchased").
		Joins("LEFT JOIN goods_purchases ON goods_purchases.goods_item_id = goods_items.id AND goods_purchases.user_id = (SELECT id FROM users WHERE wallet_address = ?)", wallet.String()).
		Where("goods_items.artist_id = ?", artistID).
		Order("goods_items.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list goods: %w", err)
	}
	if rows == nil {
		rows = []GoodsView{}
	}
	return rows, nil
}

// GetVaultAssets retrieves vault images for an artist. Callers with a zero
// per-artist balance receive placeholder references instead of the real URLs,
// so the unlock condition is enforced here rather than in the client.
func (s *pgStore) GetVaultAssets(ctx context.Context, wallet domain.WalletAddress, artistID int64) ([]VaultAssetView, error) {
	var myPoints int64
	err := s.db.WithContext(ctx).
		Model(&schema.Holding{}).
		Select("COALESCE(SUM(user_portfolio.my_points), 0)").
		Joins("JOIN users ON users.id = user_portfolio.user_id").
		Where("users.wallet_address = ? AND user_portfolio.artist_id = ?", wallet.String(), artistID).
		Scan(&myPoints).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get vault balance: %w", err)
	}
	unlocked := myPoints > 0

	var assets []schema.VaultAsset
	if err := s.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("id ASC").
		Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to get vault assets: %w", err)
	}

	views := make([]VaultAssetView, 0, len(assets))
	for _, a := range assets {
		v := VaultAssetView{
			ID:      a.ID,
			Caption: a.Caption,
			Locked:  !unlocked,
		}
		if unlocked {
			v.ImageURL = a.ImageURL
		} else {
			v.ImageURL = a.PlaceholderURL
		}
		views = append(views, v)
	}
	return views, nil
}

// CreateAuthChallenge stores a sign-in nonce for a wallet
func (s *pgStore) CreateAuthChallenge(ctx context.Context, challenge *schema.AuthChallenge) error {
	if err := s.db.WithContext(ctx).Create(challenge).Error; err != nil {
		return fmt.Errorf("failed to create auth challenge: %w", err)
	}
	return nil
}

// ConsumeAuthChallenge marks a nonce used. An unknown or already-used nonce
// and an expired one are distinct failures so the caller can respond 401
// with the right message.
func (s *pgStore) ConsumeAuthChallenge(ctx context.Context, wallet domain.WalletAddress, nonce string, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var challenge schema.AuthChallenge
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("nonce = ? AND wallet_address = ? AND used = false", nonce, wallet.String()).
			First(&challenge).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrChallengeNotFound
			}
			return fmt.Errorf("failed to get auth challenge: %w", err)
		}

		if now.After(challenge.ExpiresAt) {
			return domain.ErrChallengeExpired
		}

		if err := tx.Model(&schema.AuthChallenge{}).
			Where("nonce = ?", nonce).
			Update("used", true).Error; err != nil {
			return fmt.Errorf("failed to consume auth challenge: %w", err)
		}
		return nil
	})
}

// ListUserIDs retrieves every user ID for reconciliation fan-out
func (s *pgStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).
		Model(&schema.User{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	return ids, nil
}

// RecomputeBalances folds the activity ledger for one user and compares the
// result with the stored denormalized totals. With repair set, drifted totals
// are rewritten from the ledger in the same transaction.
func (s *pgStore) RecomputeBalances(ctx context.Context, userID int64, repair bool) (*BalanceDrift, error) {
	var drift BalanceDrift
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user schema.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("failed to get user: %w", err)
		}

		type artistSum struct {
			ArtistID int64
			Total    int64
		}
		var sums []artistSum
		if err := tx.Model(&schema.ActivityEntry{}).
			Select("artist_id, COALESCE(SUM(amount), 0) as total").
			Where("user_id = ?", userID).
			Group("artist_id").
			Scan(&sums).Error; err != nil {
			return fmt.Errorf("failed to fold ledger: %w", err)
		}

		drift = BalanceDrift{UserID: userID, StoredTotal: user.TotalPoints}
		perArtist := make(map[int64]int64, len(sums))
		for _, s := range sums {
			perArtist[s.ArtistID] = s.Total
			drift.LedgerTotal += s.Total
		}

		var holdings []schema.Holding
		if err := tx.Where("user_id = ?", userID).Find(&holdings).Error; err != nil {
			return fmt.Errorf("failed to get holdings: %w", err)
		}
		for _, h := range holdings {
			want := perArtist[h.ArtistID]
			delete(perArtist, h.ArtistID)
			if h.MyPoints == want {
				continue
			}
			drift.DriftedArtists = append(drift.DriftedArtists, h.ArtistID)
			if repair {
				if err := tx.Model(&schema.Holding{}).Where("id = ?", h.ID).
					Updates(map[string]interface{}{
						"my_points":  want,
						"updated_at": gorm.Expr("now()"),
					}).Error; err != nil {
					return fmt.Errorf("failed to repair holding: %w", err)
				}
			}
		}
		// Ledger entries for artists with no holding row count as drift too
		for artistID, want := range perArtist {
			if want == 0 {
				continue
			}
			drift.DriftedArtists = append(drift.DriftedArtists, artistID)
			if repair {
				h := schema.Holding{UserID: userID, ArtistID: artistID, MyPoints: want}
				if err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "user_id"}, {Name: "artist_id"}},
					DoUpdates: clause.AssignmentColumns([]string{"my_points"}),
				}).Create(&h).Error; err != nil {
					return fmt.Errorf("failed to repair missing holding: %w", err)
				}
			}
		}

		if repair && drift.StoredTotal != drift.LedgerTotal {
			if err := tx.Model(&schema.User{}).Where("id = ?", userID).
				Update("total_points", drift.LedgerTotal).Error; err != nil {
				return fmt.Errorf("failed to repair user total: %w", err)
			}
		}
		drift.Repaired = repair && (drift.StoredTotal != drift.LedgerTotal || len(drift.DriftedArtists) > 0)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &drift, nil
}
