package cert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is the certificate service client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a certificate service client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IssueCertificateRequest requests an on-chain assay certificate for a
// verified sample
type IssueCertificateRequest struct {
	WalletAddress  string  `json:"wallet_address"`
	SampleID       string  `json:"sample_id"`
	VerificationID string  `json:"verification_id"`
	MetalType      int     `json:"metal_type"`
	WeightGrams    float64 `json:"weight_grams"`
	Purity         float64 `json:"purity"`
	Confidence     float64 `json:"confidence"`
	VerifiedAt     string  `json:"verified_at"` // RFC 3339
	ImageURL       string  `json:"image_url,omitempty"`
}

// IssueCertificateResponse is the certificate service's minting outcome
type IssueCertificateResponse struct {
	Status          string `json:"status"`
	TokenURI        string `json:"token_uri"`
	TokenID         string `json:"token_id"`
	ContractAddress string `json:"contract_address"`
	Message         string `json:"message,omitempty"`
}

// IssueCertificate requests the minting of an assay certificate
func (c *Client) IssueCertificate(ctx context.Context, req *IssueCertificateRequest) (*IssueCertificateResponse, error) {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/certificates", c.baseURL)
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

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var errorResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errorResp)
		return nil, fmt.Errorf("certificate service error (status %d): %v", resp.StatusCode, errorResp)
	}

	var response IssueCertificateResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, nil
}

// HealthCheck checks certificate service health
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
