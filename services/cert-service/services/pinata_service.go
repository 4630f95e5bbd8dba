package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/god-protocol/assay-verifier/services/cert-service/models"
)

// PinataService pins certificate metadata to IPFS via Pinata
type PinataService struct {
	apiKey    string
	secretKey string
	baseURL   string
	client    *http.Client
}

// NewPinataService creates a new Pinata service
func NewPinataService(apiKey, secretKey string) *PinataService {
	return &PinataService{
		apiKey:    apiKey,
		secretKey: secretKey,
		baseURL:   "https://api.pinata.cloud",
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UploadJSON pins a JSON document and returns the pin result
func (ps *PinataService) UploadJSON(ctx context.Context, content interface{}, name string) (*models.PinataResponse, error) {
	uploadReq := &models.PinataUploadRequest{
		PinataContent: content,
		PinataMetadata: &models.PinataMetadata{
			Name: name,
			KeyValues: map[string]string{
				"type":      "assay_certificate",
				"timestamp": fmt.Sprintf("%d", time.Now().Unix()),
			},
		},
		PinataOptions: &models.PinataOptions{
			CidVersion: 1,
		},
	}

	reqBody, err := json.Marshal(uploadReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", ps.baseURL+"/pinning/pinJSONToIPFS", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	ps.authorize(req)

	resp, err := ps.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("pinata API error: %d - %s", resp.StatusCode, string(body))
	}

	var pinataResp models.PinataResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinataResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	return &pinataResp, nil
}

// UnpinContent removes a pin
func (ps *PinataService) UnpinContent(ctx context.Context, ipfsHash string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", ps.baseURL+"/pinning/unpin/"+ipfsHash, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	ps.authorize(req)

	resp, err := ps.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pinata API error: %d - %s", resp.StatusCode, string(body))
	}

	return nil
}

// TestConnection checks the Pinata credentials
func (ps *PinataService) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", ps.baseURL+"/data/testAuthentication", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}

	ps.authorize(req)

	resp, err := ps.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pinata authentication failed: %d - %s", resp.StatusCode, string(body))
	}

	return nil
}

func (ps *PinataService) authorize(req *http.Request) {
	req.Header.Set("pinata_api_key", ps.apiKey)
	req.Header.Set("pinata_secret_api_key", ps.secretKey)
}

// FormatIPFSURI formats an IPFS hash as a token URI
func FormatIPFSURI(ipfsHash string) string {
	return fmt.Sprintf("ipfs://%s", ipfsHash)
}
