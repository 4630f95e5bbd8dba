package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/god-protocol/assay-verifier/pkg/clock"
	"github.com/god-protocol/assay-verifier/pkg/crypto"
	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/pkg/sensor"
	"github.com/god-protocol/assay-verifier/services/analysis-service/models"
	"github.com/god-protocol/assay-verifier/services/analysis-service/plugins"
)

func newTestService(t *testing.T, role models.AnalystRole, stationPublicKey string) *AnalysisService {
	t.Helper()

	privateKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	config := &models.AnalystConfig{
		ID:               "analyst-1",
		Role:             role,
		Weight:           0.6,
		PrivateKey:       privateKey,
		PublicKey:        crypto.PublicKeyToHex(&privateKey.PublicKey),
		StationPublicKey: stationPublicKey,
	}

	return NewAnalysisService(
		config,
		NewClockService(config.ID),
		plugins.NewNovaMaterialAssessor(),
		plugins.NewFrameQuantumSimulator(),
		plugins.NewSampleFormatValidator(),
	)
}

func newTestRequest(stationTicks int) *protocol.AnalysisRequest {
	stationClock := clock.New(1)
	for i := 0; i < stationTicks; i++ {
		stationClock.Tick()
	}

	return &protocol.AnalysisRequest{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.AnalysisRequestMessage,
			MessageID: uuid.New().String(),
			Timestamp: time.Now(),
			Signature: "test-signature",
		},
		SampleID:  "sample-1",
		StationID: "station-1",
		EventID:   uuid.New().String(),
		Clock:     stationClock,
		Claim: protocol.SampleClaim{
			MetalType:   1,
			WeightGrams: 100,
			Purity:      0.999,
		},
		SensorFrame: sensor.FlatFrame(16, 0.5),
		RequestID:   uuid.New().String(),
	}
}

func TestMaterialAnalystAcceptsValidSample(t *testing.T) {
	service := newTestService(t, models.MaterialAnalystRole, "")
	request := newTestRequest(1)

	vote, err := service.AnalyzeSample(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, "accept", vote.Vote)
	assert.InDelta(t, 0.85, vote.Confidence, 1e-9)
	assert.Equal(t, "analyst-1", vote.AnalystID)
	assert.Equal(t, string(models.MaterialAnalystRole), vote.AnalystRole)
	assert.InDelta(t, 0.6, vote.Weight, 1e-9)
	assert.Equal(t, request.EventID, vote.EventID)
	assert.NotEmpty(t, vote.Signature)
}

func TestAnalyzeSampleRejectsReplay(t *testing.T) {
	service := newTestService(t, models.MaterialAnalystRole, "")
	request := newTestRequest(1)

	_, err := service.AnalyzeSample(context.Background(), request)
	require.NoError(t, err)

	_, err = service.AnalyzeSample(context.Background(), request)
	assert.ErrorContains(t, err, "already processed")
}

func TestAnalyzeSampleRejectsStaleTimestamp(t *testing.T) {
	service := newTestService(t, models.MaterialAnalystRole, "")

	request := newTestRequest(1)
	request.Timestamp = time.Now().Add(-10 * time.Minute)

	_, err := service.AnalyzeSample(context.Background(), request)
	assert.ErrorContains(t, err, "invalid timestamp")
}

func TestAnalyzeSampleRequiresSignature(t *testing.T) {
	service := newTestService(t, models.MaterialAnalystRole, "")

	request := newTestRequest(1)
	request.Signature = ""

	_, err := service.AnalyzeSample(context.Background(), request)
	assert.ErrorContains(t, err, "signature")
}

func TestAnalyzeSampleVerifiesStationSignature(t *testing.T) {
	stationKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	service := newTestService(t, models.MaterialAnalystRole, crypto.PublicKeyToHex(&stationKey.PublicKey))

	request := newTestRequest(1)
	digest := fmt.Sprintf("%s:%s:%d", request.Type, request.MessageID, request.Timestamp.UnixNano())
	request.Signature, err = crypto.SignData(stationKey, []byte(digest))
	require.NoError(t, err)

	vote, err := service.AnalyzeSample(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, "accept", vote.Vote)

	// A forged signature does not pass
	forged := newTestRequest(2)
	forged.Signature, err = crypto.SignData(stationKey, []byte("something else"))
	require.NoError(t, err)

	_, err = service.AnalyzeSample(context.Background(), forged)
	assert.ErrorContains(t, err, "signature")
}

func TestForgedRequestDoesNotBurnEventID(t *testing.T) {
	stationKey, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)

	service := newTestService(t, models.MaterialAnalystRole, crypto.PublicKeyToHex(&stationKey.PublicKey))

	// A forged request carrying the victim's event ID fails on the signature
	forged := newTestRequest(1)
	forged.Signature, err = crypto.SignData(stationKey, []byte("not the digest"))
	require.NoError(t, err)

	_, err = service.AnalyzeSample(context.Background(), forged)
	require.ErrorContains(t, err, "signature")

	// The legitimate signed request with the same event ID must still go
	// through, not get bounced as a replay
	genuine := newTestRequest(1)
	genuine.EventID = forged.EventID
	digest := fmt.Sprintf("%s:%s:%d", genuine.Type, genuine.MessageID, genuine.Timestamp.UnixNano())
	genuine.Signature, err = crypto.SignData(stationKey, []byte(digest))
	require.NoError(t, err)

	vote, err := service.AnalyzeSample(context.Background(), genuine)
	require.NoError(t, err)
	assert.Equal(t, "accept", vote.Vote)
}

func TestMaterialAnalystRejectsStaleClock(t *testing.T) {
	service := newTestService(t, models.MaterialAnalystRole, "")

	first := newTestRequest(2)
	vote, err := service.AnalyzeSample(context.Background(), first)
	require.NoError(t, err)
	require.Equal(t, "accept", vote.Vote)

	// A later request reporting an older station clock must be rejected
	stale := newTestRequest(1)
	vote, err = service.AnalyzeSample(context.Background(), stale)
	require.NoError(t, err)

	assert.Equal(t, "reject", vote.Vote)
	assert.Zero(t, vote.Confidence)
	assert.Contains(t, vote.Reason, "clock")
}

func TestMaterialAnalystRejectsBadFormat(t *testing.T) {
	service := newTestService(t, models.MaterialAnalystRole, "")

	request := newTestRequest(1)
	request.Claim.MetalType = 9

	vote, err := service.AnalyzeSample(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, "reject", vote.Vote)
	assert.Contains(t, vote.Reason, "format")
}

func TestQuantumAnalystAcceptsSteadyFrame(t *testing.T) {
	service := newTestService(t, models.QuantumAnalystRole, "")

	vote, err := service.AnalyzeSample(context.Background(), newTestRequest(1))
	require.NoError(t, err)

	assert.Equal(t, "accept", vote.Vote)
	assert.InDelta(t, 1.0, vote.Confidence, 1e-9)
	assert.InDelta(t, 1.0, vote.Readings["quantum_stability"], 1e-9)
}

func TestQuantumAnalystRejectsMissingClock(t *testing.T) {
	service := newTestService(t, models.QuantumAnalystRole, "")

	request := newTestRequest(1)
	request.Clock = nil

	vote, err := service.AnalyzeSample(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, "reject", vote.Vote)
	assert.Zero(t, vote.Confidence)
}

func TestQuantumAnalystRejectsUnsignedProof(t *testing.T) {
	service := newTestService(t, models.QuantumAnalystRole, "")

	request := newTestRequest(1)
	request.Proof = &protocol.AssayProof{
		Provider: "nova-middle-layer",
		Evidence: map[string]interface{}{"conductivity": 0.9},
	}

	vote, err := service.AnalyzeSample(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, "reject", vote.Vote)
	assert.InDelta(t, 0.3, vote.Confidence, 1e-9)
}

func TestVoteSignatureVerifies(t *testing.T) {
	service := newTestService(t, models.QuantumAnalystRole, "")

	vote, err := service.AnalyzeSample(context.Background(), newTestRequest(1))
	require.NoError(t, err)

	data := map[string]interface{}{
		"event_id":   vote.EventID,
		"analyst_id": vote.AnalystID,
		"vote":       vote.Vote,
		"confidence": vote.Confidence,
		"timestamp":  vote.BaseMessage.Timestamp.Unix(),
	}
	dataBytes, err := json.Marshal(data)
	require.NoError(t, err)

	publicKey, err := crypto.LoadPublicKeyFromHex(service.GetAnalystInfo().PublicKey)
	require.NoError(t, err)

	valid, err := crypto.VerifySignature(publicKey, dataBytes, vote.Signature)
	require.NoError(t, err)
	assert.True(t, valid)
}
