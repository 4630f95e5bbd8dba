package services

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/god-protocol/assay-verifier/pkg/crypto"
	"github.com/god-protocol/assay-verifier/pkg/protocol"
)

// AnalystClient handles communication with analyst services
type AnalystClient struct {
	config     *protocol.NetworkConfig
	httpClient *http.Client
	stationID  string
	signingKey *ecdsa.PrivateKey
}

// NewAnalystClient creates a new analyst client
func NewAnalystClient(config *protocol.NetworkConfig, stationID string, signingKey *ecdsa.PrivateKey) *AnalystClient {
	return &AnalystClient{
		config:     config,
		stationID:  stationID,
		signingKey: signingKey,
		httpClient: &http.Client{
			Timeout: config.RequestTimeout,
		},
	}
}

// RequestAnalysis sends the analysis request to all configured analysts and
// collects their votes
func (ac *AnalystClient) RequestAnalysis(ctx context.Context, request *protocol.AnalysisRequest) ([]*protocol.AnalystVoteResponse, error) {
	if request.RequestID == "" {
		request.RequestID = uuid.New().String()
	}

	if err := ac.signMessage(&request.BaseMessage); err != nil {
		return nil, fmt.Errorf("failed to sign message: %v", err)
	}

	// Send to all analysts in parallel
	var wg sync.WaitGroup
	votes := make([]*protocol.AnalystVoteResponse, 0, len(ac.config.AnalystEndpoints))
	errors := make([]error, 0, len(ac.config.AnalystEndpoints))
	voteMutex := sync.Mutex{}

	for _, endpoint := range ac.config.AnalystEndpoints {
		wg.Add(1)
		go func(ep protocol.AnalystEndpoint) {
			defer wg.Done()

			vote, err := ac.sendToAnalyst(ctx, request, ep)

			voteMutex.Lock()
			defer voteMutex.Unlock()

			if err != nil {
				errors = append(errors, fmt.Errorf("analyst %s error: %v", ep.ID, err))
			} else if vote != nil {
				// The combination weight is assigned by the station, not the
				// analyst, so a misconfigured analyst cannot inflate its say.
				vote.Weight = ep.Weight
				votes = append(votes, vote)
			}
		}(endpoint)
	}

	wg.Wait()

	if len(votes) == 0 {
		return nil, fmt.Errorf("no votes received from analysts: %v", errors)
	}

	return votes, nil
}

// sendToAnalyst sends request to a single analyst
func (ac *AnalystClient) sendToAnalyst(ctx context.Context, request *protocol.AnalysisRequest, endpoint protocol.AnalystEndpoint) (*protocol.AnalystVoteResponse, error) {
	analysisReq := &protocol.AnalysisServiceRequest{
		AnalysisRequest: request,
	}

	reqBody, err := json.Marshal(analysisReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	url := endpoint.URL + protocol.AnalyzeEndpoint

	// Retry logic
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= ac.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(ac.config.RetryInterval)
		}

		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %v", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Station-ID", ac.stationID)
		req.Header.Set("X-Request-ID", request.RequestID)

		resp, lastErr = ac.httpClient.Do(req)
		if lastErr == nil && resp.StatusCode == http.StatusOK {
			break
		}

		if resp != nil {
			resp.Body.Close()
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("failed after %d attempts: %v", ac.config.MaxRetries+1, lastErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyst returned status %d", resp.StatusCode)
	}

	var analysisResp protocol.AnalysisServiceResponse
	if err := json.NewDecoder(resp.Body).Decode(&analysisResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %v", err)
	}

	if !analysisResp.Success {
		return nil, fmt.Errorf("analysis failed: %s", analysisResp.Error)
	}

	if analysisResp.Vote == nil {
		return nil, fmt.Errorf("analyst returned no vote")
	}

	if analysisResp.Vote.Signature == "" {
		return nil, fmt.Errorf("missing vote signature")
	}

	return analysisResp.Vote, nil
}

// CheckAnalystHealth checks health of all analysts
func (ac *AnalystClient) CheckAnalystHealth(ctx context.Context) map[string]bool {
	results := make(map[string]bool)
	var wg sync.WaitGroup
	resultMutex := sync.Mutex{}

	for _, endpoint := range ac.config.AnalystEndpoints {
		wg.Add(1)
		go func(ep protocol.AnalystEndpoint) {
			defer wg.Done()

			healthy := ac.checkSingleAnalystHealth(ctx, ep)

			resultMutex.Lock()
			results[ep.ID] = healthy
			resultMutex.Unlock()
		}(endpoint)
	}

	wg.Wait()
	return results
}

// checkSingleAnalystHealth checks health of a single analyst
func (ac *AnalystClient) checkSingleAnalystHealth(ctx context.Context, endpoint protocol.AnalystEndpoint) bool {
	url := endpoint.URL + protocol.HealthEndpoint
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false
	}

	resp, err := ac.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// signMessage signs the base message with the station's private key
func (ac *AnalystClient) signMessage(message *protocol.BaseMessage) error {
	if ac.signingKey == nil {
		return fmt.Errorf("no signing key configured")
	}

	digest := fmt.Sprintf("%s:%s:%d", message.Type, message.MessageID, message.Timestamp.UnixNano())
	signature, err := crypto.SignData(ac.signingKey, []byte(digest))
	if err != nil {
		return err
	}

	message.Signature = signature
	return nil
}
