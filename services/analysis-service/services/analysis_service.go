package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/god-protocol/assay-verifier/pkg/crypto"
	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/services/analysis-service/models"
	"github.com/god-protocol/assay-verifier/services/analysis-service/plugins"
)

// AnalysisService handles analyst business logic
type AnalysisService struct {
	config           *models.AnalystConfig
	clockService     *ClockService
	materialAssessor plugins.MaterialAssessor
	quantumSimulator plugins.QuantumSimulator
	formatValidator  plugins.FormatValidator

	mu              sync.Mutex
	processedEvents map[string]bool // Prevent replay attacks
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	config *models.AnalystConfig,
	clockService *ClockService,
	materialAssessor plugins.MaterialAssessor,
	quantumSimulator plugins.QuantumSimulator,
	formatValidator plugins.FormatValidator,
) *AnalysisService {
	return &AnalysisService{
		config:           config,
		clockService:     clockService,
		materialAssessor: materialAssessor,
		quantumSimulator: quantumSimulator,
		formatValidator:  formatValidator,
		processedEvents:  make(map[string]bool),
	}
}

// AnalyzeSample analyzes a sample request and generates a vote
func (as *AnalysisService) AnalyzeSample(ctx context.Context, request *protocol.AnalysisRequest) (*protocol.AnalystVoteResponse, error) {
	// 1. Validate time window (prevent too old or too new messages)
	now := time.Now()
	if request.Timestamp.Before(now.Add(-5*time.Minute)) ||
		request.Timestamp.After(now.Add(1*time.Minute)) {
		return nil, fmt.Errorf("invalid timestamp: %v", request.Timestamp)
	}

	// 2. Verify station signature. This must come before the replay guard,
	// an unauthenticated request must not be able to burn an event ID.
	if err := as.verifyStationSignature(request); err != nil {
		return nil, fmt.Errorf("invalid station signature: %v", err)
	}

	// 3. Prevent replay attack check
	if !as.markProcessed(request.EventID) {
		return nil, fmt.Errorf("event already processed: %s", request.EventID)
	}

	// 4. Execute analysis based on analyst role
	var vote *protocol.AnalystVoteResponse
	var err error

	switch as.config.Role {
	case models.MaterialAnalystRole:
		vote, err = as.analyzeAsMaterialAnalyst(ctx, request)
	case models.QuantumAnalystRole:
		vote, err = as.analyzeAsQuantumAnalyst(ctx, request)
	default:
		return nil, fmt.Errorf("unknown analyst role: %s", as.config.Role)
	}

	if err != nil {
		return nil, err
	}

	// 5. Sign vote
	if err := as.signVote(vote); err != nil {
		return nil, fmt.Errorf("failed to sign vote: %v", err)
	}

	return vote, nil
}

// analyzeAsMaterialAnalyst runs density and purity analysis, with station
// clock tracking as a side responsibility
func (as *AnalysisService) analyzeAsMaterialAnalyst(ctx context.Context, request *protocol.AnalysisRequest) (*protocol.AnalystVoteResponse, error) {
	vote := as.newVote(request)

	// 1. Clock validation (the material analyst tracks the station clock)
	if !as.clockService.ValidateClockSequence(request.Clock, 1) { // Station ID = 1
		vote.Vote = "reject"
		vote.Confidence = 0.0
		vote.Reason = "clock validation failed: invalid sequence"
		vote.ClockState = as.clockService.GetCurrentClock()
		return vote, nil
	}

	// 2. Sync clock state
	as.clockService.UpdateStationClock(request.Clock)

	// 3. Format validation
	formatResult := as.formatValidator.ValidateFormat(request)
	if !formatResult.Valid {
		vote.Vote = "reject"
		vote.Confidence = 0.0
		vote.Reason = fmt.Sprintf("format validation failed: %s", formatResult.Reason)
		vote.ClockState = as.clockService.GetCurrentClock()
		return vote, nil
	}

	// 4. Material assessment
	result := as.materialAssessor.Assess(request)

	vote.Confidence = result.Confidence
	vote.Readings = result.Readings
	vote.ClockState = as.clockService.GetCurrentClock()

	if result.Accept {
		vote.Vote = "accept"
		vote.Reason = result.Reason
	} else {
		vote.Vote = "reject"
		vote.Reason = result.Reason
	}

	return vote, nil
}

// analyzeAsQuantumAnalyst runs quantum sensor verification
func (as *AnalysisService) analyzeAsQuantumAnalyst(ctx context.Context, request *protocol.AnalysisRequest) (*protocol.AnalystVoteResponse, error) {
	vote := as.newVote(request)
	vote.ClockState = as.clockService.GetCurrentClock()

	// 1. Clock format check (simplified, the quantum analyst does not track
	// the full sequence)
	if request.Clock == nil || len(request.Clock.Values) == 0 {
		vote.Vote = "reject"
		vote.Confidence = 0.0
		vote.Reason = "invalid clock format"
		return vote, nil
	}

	// 2. Format validation
	formatResult := as.formatValidator.ValidateFormat(request)
	if !formatResult.Valid {
		vote.Vote = "reject"
		vote.Confidence = 0.0
		vote.Reason = fmt.Sprintf("format validation failed: %s", formatResult.Reason)
		return vote, nil
	}

	// 3. Proof signature check (if present)
	if request.Proof != nil && request.Proof.Signature == "" && request.Proof.Provider != "" {
		// An assay proof carrying a provider but no signature is suspect
		vote.Vote = "reject"
		vote.Confidence = 0.3
		vote.Reason = "assay proof missing signature"
		return vote, nil
	}

	// 4. Quantum verification
	result := as.quantumSimulator.Verify(request)

	vote.Confidence = result.Confidence
	vote.Readings = result.Readings

	if result.Accept {
		vote.Vote = "accept"
		vote.Reason = result.Reason
	} else {
		vote.Vote = "reject"
		vote.Reason = result.Reason
	}

	return vote, nil
}

// newVote builds the vote skeleton for a request
func (as *AnalysisService) newVote(request *protocol.AnalysisRequest) *protocol.AnalystVoteResponse {
	return &protocol.AnalystVoteResponse{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.AnalystVoteMessage,
			MessageID: uuid.New().String(),
			Timestamp: time.Now(),
		},
		EventID:     request.EventID,
		AnalystID:   as.config.ID,
		AnalystRole: string(as.config.Role),
		Weight:      as.config.Weight,
		RequestID:   request.RequestID,
	}
}

// markProcessed records an event, returning false if it was already seen
func (as *AnalysisService) markProcessed(eventID string) bool {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.processedEvents[eventID] {
		return false
	}
	as.processedEvents[eventID] = true
	return true
}

// verifyStationSignature verifies the gateway's signature on the request
func (as *AnalysisService) verifyStationSignature(request *protocol.AnalysisRequest) error {
	if request.Signature == "" {
		return fmt.Errorf("missing signature")
	}

	// Without a configured station key only presence is checked
	if as.config.StationPublicKey == "" {
		return nil
	}

	publicKey, err := crypto.LoadPublicKeyFromHex(as.config.StationPublicKey)
	if err != nil {
		return fmt.Errorf("invalid station public key: %v", err)
	}

	digest := fmt.Sprintf("%s:%s:%d", request.Type, request.MessageID, request.Timestamp.UnixNano())
	valid, err := crypto.VerifySignature(publicKey, []byte(digest), request.Signature)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("signature mismatch")
	}

	return nil
}

// signVote signs the analyst vote
func (as *AnalysisService) signVote(vote *protocol.AnalystVoteResponse) error {
	data := map[string]interface{}{
		"event_id":   vote.EventID,
		"analyst_id": vote.AnalystID,
		"vote":       vote.Vote,
		"confidence": vote.Confidence,
		"timestamp":  vote.BaseMessage.Timestamp.Unix(),
	}

	dataBytes, err := json.Marshal(data)
	if err != nil {
		return err
	}

	signature, err := crypto.SignData(as.config.PrivateKey, dataBytes)
	if err != nil {
		return err
	}

	vote.Signature = signature
	return nil
}

// GetAnalystInfo returns analyst information
func (as *AnalysisService) GetAnalystInfo() *models.AnalystConfig {
	return as.config
}

// GetClockState returns the analyst's view of the clocks
func (as *AnalysisService) GetClockState() map[string]interface{} {
	return as.clockService.GetCurrentClockState()
}
