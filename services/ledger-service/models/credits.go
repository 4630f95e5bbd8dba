package models

import (
	"time"
)

// CreditDistributionRequest asks for backing credits covering a batch of
// verified samples
type CreditDistributionRequest struct {
	BatchID     string           `json:"batch_id" validate:"required"`
	TriggerType string           `json:"trigger_type"` // "verification" or "scheduled"
	Timestamp   time.Time        `json:"timestamp"`
	Samples     []VerifiedSample `json:"samples" validate:"required,min=1"`
}

// VerifiedSample is one verified sample's share of the distribution. Credits
// are weighted by fine weight, the grams of pure metal (weight times purity).
type VerifiedSample struct {
	UserWallet     string  `json:"user_wallet" validate:"required"`
	SampleType     string  `json:"sample_type"` // "gold_bar", "silver_bar" or "batch_assay"
	MetalType      int     `json:"metal_type" validate:"required"`
	WeightGrams    float64 `json:"weight_grams" validate:"gt=0"`
	Purity         float64 `json:"purity" validate:"gt=0,lte=1"`
	ClockValue     int     `json:"clock_value" validate:"min=0"`
	SampleID       string  `json:"sample_id"`
	VerificationID string  `json:"verification_id"`
}

// FineWeight returns the grams of pure metal the sample contributes
func (vs *VerifiedSample) FineWeight() float64 {
	return vs.WeightGrams * vs.Purity
}

// CreditDistributionResult is the outcome of one distribution round
type CreditDistributionResult struct {
	BatchID           string             `json:"batch_id"`
	TotalPoolCredits  int                `json:"total_pool_credits"`
	GoldCredits       int                `json:"gold_credits"`   // Gold pool share
	SilverCredits     int                `json:"silver_credits"` // Silver pool share
	TotalGoldWeight   float64            `json:"total_gold_fine_weight"`
	TotalSilverWeight float64            `json:"total_silver_fine_weight"`
	UserAllocations   []UserCreditResult `json:"user_allocations"`
	ProcessedAt       time.Time          `json:"processed_at"`
	Status            string             `json:"status"` // "success", "failed", "partial"
	ErrorMessage      string             `json:"error_message,omitempty"`
}

// UserCreditResult is one user's allocation within a round
type UserCreditResult struct {
	UserWallet     string  `json:"user_wallet"`
	GoldWeight     float64 `json:"gold_fine_weight"`
	SilverWeight   float64 `json:"silver_fine_weight"`
	GoldCredits    float64 `json:"gold_credits"`
	SilverCredits  float64 `json:"silver_credits"`
	TotalCredits   float64 `json:"total_credits"`
	RoundedCredits int     `json:"rounded_credits"`
	UpdateStatus   string  `json:"update_status"` // "success", "failed"
	UpdateError    string  `json:"update_error,omitempty"`
}

// CreditRecord is one row of a user's credit history
type CreditRecord struct {
	WalletAddress string    `json:"wallet_address" db:"wallet_address"`
	Date          string    `json:"date" db:"date"` // "2023-10-20"
	Source        string    `json:"source" db:"source"`
	Credits       int       `json:"credits" db:"credits"`
	TxRef         string    `json:"tx_ref,omitempty" db:"tx_ref"` // Batch ID as reference
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CreditsConfig tunes the distribution pool
type CreditsConfig struct {
	TotalPoolCredits int     `json:"total_pool_credits"` // Pool per round, default 100
	GoldRatio        float64 `json:"gold_ratio"`         // Gold share, default 0.6
	SilverRatio      float64 `json:"silver_ratio"`       // Silver share, default 0.4
	HistoryLimit     int     `json:"history_limit"`      // History query cap, default 1000
}

// DefaultCreditsConfig returns the default pool configuration
func DefaultCreditsConfig() *CreditsConfig {
	return &CreditsConfig{
		TotalPoolCredits: 100,
		GoldRatio:        0.6,
		SilverRatio:      0.4,
		HistoryLimit:     1000,
	}
}

// CreditStats summarizes distribution activity
type CreditStats struct {
	TotalDistributions int       `json:"total_distributions"`
	TotalCreditsIssued int       `json:"total_credits_issued"`
	ActiveUsers        int       `json:"active_users"`
	LastDistribution   time.Time `json:"last_distribution"`
	AvgCreditsPerUser  float64   `json:"avg_credits_per_user"`
}
