package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"time"

	gateway "github.com/god-protocol/assay-verifier/services/assay-gateway/models"
	"github.com/god-protocol/assay-verifier/services/ledger-service/models"
)

// CreditService allocates backing credits for verified samples
type CreditService struct {
	db     *sql.DB
	config *models.CreditsConfig
}

// NewCreditService creates a credit service
func NewCreditService(db *sql.DB, config *models.CreditsConfig) *CreditService {
	if config == nil {
		config = models.DefaultCreditsConfig()
	}

	return &CreditService{
		db:     db,
		config: config,
	}
}

// DistributeCredits allocates one round of backing credits across the batch.
// Each user's share of the gold and silver pools is proportional to the fine
// weight their verified samples contributed, grams of metal times purity.
func (cs *CreditService) DistributeCredits(ctx context.Context, req *models.CreditDistributionRequest) (*models.CreditDistributionResult, error) {
	log.Printf("Starting credit distribution for batch %s with %d samples", req.BatchID, len(req.Samples))

	totalGoldWeight, totalSilverWeight := cs.totalFineWeightByMetal(req.Samples)

	if totalGoldWeight <= 0 && totalSilverWeight <= 0 {
		return &models.CreditDistributionResult{
			BatchID:      req.BatchID,
			Status:       "failed",
			ErrorMessage: "no fine weight to distribute",
			ProcessedAt:  time.Now(),
		}, fmt.Errorf("no fine weight found for distribution")
	}

	goldCredits := int(float64(cs.config.TotalPoolCredits) * cs.config.GoldRatio)
	silverCredits := int(float64(cs.config.TotalPoolCredits) * cs.config.SilverRatio)

	log.Printf("Fine weight totals - gold: %.3fg, silver: %.3fg", totalGoldWeight, totalSilverWeight)
	log.Printf("Credit pools - gold: %d, silver: %d", goldCredits, silverCredits)

	userWeightMap := cs.aggregateUserFineWeight(req.Samples)

	userAllocations := make([]models.UserCreditResult, 0, len(userWeightMap))
	for userWallet, weights := range userWeightMap {
		result := cs.allocateUserCredits(userWallet, weights, goldCredits, silverCredits, totalGoldWeight, totalSilverWeight)
		userAllocations = append(userAllocations, result)
	}

	successCount := 0
	for i := range userAllocations {
		err := cs.persistUserCredits(ctx, &userAllocations[i], req.BatchID)
		if err != nil {
			userAllocations[i].UpdateStatus = "failed"
			userAllocations[i].UpdateError = err.Error()
			log.Printf("Failed to update credits for user %s: %v", userAllocations[i].UserWallet, err)
		} else {
			userAllocations[i].UpdateStatus = "success"
			successCount++
		}
	}

	status := "success"
	if successCount == 0 {
		status = "failed"
	} else if successCount < len(userAllocations) {
		status = "partial"
	}

	result := &models.CreditDistributionResult{
		BatchID:           req.BatchID,
		TotalPoolCredits:  cs.config.TotalPoolCredits,
		GoldCredits:       goldCredits,
		SilverCredits:     silverCredits,
		TotalGoldWeight:   totalGoldWeight,
		TotalSilverWeight: totalSilverWeight,
		UserAllocations:   userAllocations,
		ProcessedAt:       time.Now(),
		Status:            status,
	}

	log.Printf("Credit distribution completed for batch %s: %s (%d/%d users updated)",
		req.BatchID, status, successCount, len(userAllocations))

	return result, nil
}

// totalFineWeightByMetal sums contributed fine weight per metal
func (cs *CreditService) totalFineWeightByMetal(samples []models.VerifiedSample) (goldWeight, silverWeight float64) {
	for _, sample := range samples {
		switch sample.MetalType {
		case gateway.MetalTypeGold:
			goldWeight += sample.FineWeight()
		case gateway.MetalTypeSilver:
			silverWeight += sample.FineWeight()
		}
	}
	return
}

// aggregateUserFineWeight sums each user's fine-weight contribution per metal
func (cs *CreditService) aggregateUserFineWeight(samples []models.VerifiedSample) map[string]map[int]float64 {
	userWeightMap := make(map[string]map[int]float64)

	for _, sample := range samples {
		if _, exists := userWeightMap[sample.UserWallet]; !exists {
			userWeightMap[sample.UserWallet] = map[int]float64{
				gateway.MetalTypeGold:   0,
				gateway.MetalTypeSilver: 0,
			}
		}
		userWeightMap[sample.UserWallet][sample.MetalType] += sample.FineWeight()
	}

	return userWeightMap
}

// allocateUserCredits computes one user's proportional share of both pools
func (cs *CreditService) allocateUserCredits(userWallet string, weights map[int]float64, goldCredits, silverCredits int, totalGoldWeight, totalSilverWeight float64) models.UserCreditResult {
	goldWeight := weights[gateway.MetalTypeGold]
	silverWeight := weights[gateway.MetalTypeSilver]

	var goldEarned, silverEarned float64

	if totalGoldWeight > 0 && goldWeight > 0 {
		goldEarned = float64(goldCredits) * goldWeight / totalGoldWeight
	}

	if totalSilverWeight > 0 && silverWeight > 0 {
		silverEarned = float64(silverCredits) * silverWeight / totalSilverWeight
	}

	totalCredits := goldEarned + silverEarned

	return models.UserCreditResult{
		UserWallet:     userWallet,
		GoldWeight:     goldWeight,
		SilverWeight:   silverWeight,
		GoldCredits:    goldEarned,
		SilverCredits:  silverEarned,
		TotalCredits:   totalCredits,
		RoundedCredits: int(math.Round(totalCredits)),
	}
}

// persistUserCredits writes one user's allocation inside a transaction
func (cs *CreditService) persistUserCredits(ctx context.Context, userResult *models.UserCreditResult, batchID string) error {
	if userResult.RoundedCredits <= 0 {
		return nil
	}

	tx, err := cs.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE user_profiles
		SET total_credits = total_credits + ?,
		    updated_at = ?
		WHERE wallet_address = ?
	`
	_, err = tx.ExecContext(ctx, updateQuery, userResult.RoundedCredits, time.Now(), userResult.UserWallet)
	if err != nil {
		return fmt.Errorf("failed to update user total credits: %w", err)
	}

	historyQuery := `
		INSERT INTO credits_history (wallet_address, date, source, credits, tx_ref, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	today := time.Now().Format("2006-01-02")
	source := "Verification Distribution"

	_, err = tx.ExecContext(ctx, historyQuery,
		userResult.UserWallet, today, source, userResult.RoundedCredits, batchID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert credit history: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetUserCredits returns a user's backing-credit balance
func (cs *CreditService) GetUserCredits(ctx context.Context, walletAddress string) (int, error) {
	query := "SELECT total_credits FROM user_profiles WHERE wallet_address = ?"
	var totalCredits int
	err := cs.db.QueryRowContext(ctx, query, walletAddress).Scan(&totalCredits)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, fmt.Errorf("user not found: %s", walletAddress)
		}
		return 0, fmt.Errorf("failed to get user credits: %w", err)
	}
	return totalCredits, nil
}

// GetCreditHistory returns a user's credit history, newest first
func (cs *CreditService) GetCreditHistory(ctx context.Context, walletAddress string, limit int) ([]models.CreditRecord, error) {
	if limit <= 0 || limit > cs.config.HistoryLimit {
		limit = cs.config.HistoryLimit
	}

	query := `
		SELECT wallet_address, date, source, credits, COALESCE(tx_ref, '') as tx_ref, created_at
		FROM credits_history
		WHERE wallet_address = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := cs.db.QueryContext(ctx, query, walletAddress, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit history: %w", err)
	}
	defer rows.Close()

	var records []models.CreditRecord
	for rows.Next() {
		var record models.CreditRecord
		err := rows.Scan(&record.WalletAddress, &record.Date, &record.Source, &record.Credits, &record.TxRef, &record.CreatedAt)
		if err != nil {
			log.Printf("Error scanning credit record: %v", err)
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// GetCreditStats returns ledger-wide distribution statistics
func (cs *CreditService) GetCreditStats(ctx context.Context) (*models.CreditStats, error) {
	statsQuery := `
		SELECT
			COUNT(DISTINCT tx_ref) as total_distributions,
			COALESCE(SUM(credits), 0) as total_credits,
			COUNT(DISTINCT wallet_address) as active_users,
			MAX(created_at) as last_distribution
		FROM credits_history
		WHERE tx_ref IS NOT NULL AND tx_ref != ''
	`

	var stats models.CreditStats
	var lastDist sql.NullTime

	err := cs.db.QueryRowContext(ctx, statsQuery).Scan(
		&stats.TotalDistributions,
		&stats.TotalCreditsIssued,
		&stats.ActiveUsers,
		&lastDist,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit stats: %w", err)
	}

	if lastDist.Valid {
		stats.LastDistribution = lastDist.Time
	}

	if stats.ActiveUsers > 0 {
		stats.AvgCreditsPerUser = float64(stats.TotalCreditsIssued) / float64(stats.ActiveUsers)
	}

	return &stats, nil
}

// UpdateConfig swaps the pool configuration
func (cs *CreditService) UpdateConfig(config *models.CreditsConfig) {
	if config != nil {
		cs.config = config
		log.Printf("Credit configuration updated: %+v", config)
	}
}

// GetConfig returns the current pool configuration
func (cs *CreditService) GetConfig() *models.CreditsConfig {
	return cs.config
}
