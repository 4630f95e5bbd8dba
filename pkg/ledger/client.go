package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is the backing-credit ledger service client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a ledger service client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreditDistributionRequest requests backing credits for a batch of verified samples
type CreditDistributionRequest struct {
	BatchID     string           `json:"batch_id"`
	TriggerType string           `json:"trigger_type"` // "verification" or "scheduled"
	Timestamp   time.Time        `json:"timestamp"`
	Samples     []VerifiedSample `json:"samples"`
}

// VerifiedSample carries one verified sample's contribution. The ledger
// weighs allocations by fine weight (weight_grams times purity).
type VerifiedSample struct {
	UserWallet     string  `json:"user_wallet"`
	SampleType     string  `json:"sample_type"` // "gold_bar", "silver_bar" or "batch_assay"
	MetalType      int     `json:"metal_type"`
	WeightGrams    float64 `json:"weight_grams"`
	Purity         float64 `json:"purity"`
	ClockValue     int     `json:"clock_value"`
	SampleID       string  `json:"sample_id"`
	VerificationID string  `json:"verification_id"`
}

// CreditDistributionResult is the ledger's allocation outcome
type CreditDistributionResult struct {
	BatchID           string             `json:"batch_id"`
	TotalPoolCredits  int                `json:"total_pool_credits"`
	GoldCredits       int                `json:"gold_credits"`
	SilverCredits     int                `json:"silver_credits"`
	TotalGoldWeight   float64            `json:"total_gold_fine_weight"`
	TotalSilverWeight float64            `json:"total_silver_fine_weight"`
	UserAllocations   []UserCreditResult `json:"user_allocations"`
	ProcessedAt       time.Time          `json:"processed_at"`
	Status            string             `json:"status"`
	ErrorMessage      string             `json:"error_message,omitempty"`
}

// UserCreditResult is one user's backing-credit allocation
type UserCreditResult struct {
	UserWallet     string  `json:"user_wallet"`
	GoldWeight     float64 `json:"gold_fine_weight"`
	SilverWeight   float64 `json:"silver_fine_weight"`
	GoldCredits    float64 `json:"gold_credits"`
	SilverCredits  float64 `json:"silver_credits"`
	TotalCredits   float64 `json:"total_credits"`
	RoundedCredits int     `json:"rounded_credits"`
	UpdateStatus   string  `json:"update_status"`
	UpdateError    string  `json:"update_error,omitempty"`
}

// DistributeCredits distributes backing credits for verified samples
func (c *Client) DistributeCredits(ctx context.Context, req *CreditDistributionRequest) (*CreditDistributionResult, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/credits/distribute", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errorResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorResp)
		return nil, fmt.Errorf("ledger service error (status %d): %v", resp.StatusCode, errorResp)
	}

	var response struct {
		Status string                   `json:"status"`
		Data   CreditDistributionResult `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response.Data, nil
}

// GetUserCredits gets a user's backing-credit balance
func (c *Client) GetUserCredits(ctx context.Context, walletAddress string) (int, error) {
	url := fmt.Sprintf("%s/api/v1/credits/user/%s", c.baseURL, walletAddress)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("failed to get user credits (status %d)", resp.StatusCode)
	}

	var response struct {
		Status string `json:"status"`
		Data   struct {
			TotalCredits int `json:"total_credits"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Data.TotalCredits, nil
}

// HealthCheck checks ledger service health
func (c *Client) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed (status %d)", resp.StatusCode)
	}

	return nil
}
