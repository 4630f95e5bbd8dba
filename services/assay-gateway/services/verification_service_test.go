package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/pkg/sensor"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

func TestMeetsThresholdIsStrict(t *testing.T) {
	vs := &VerificationService{threshold: 0.8}

	assert.False(t, vs.meetsThreshold(0.8), "confidence equal to the threshold must not verify")
	assert.False(t, vs.meetsThreshold(0.79))
	assert.True(t, vs.meetsThreshold(0.81))
	assert.True(t, vs.meetsThreshold(0.8000001))
}

func TestCombineVotesWeightedAverage(t *testing.T) {
	votes := []*protocol.AnalystVoteResponse{
		{
			AnalystRole: protocol.RoleMaterialAnalyst,
			Vote:        "accept",
			Confidence:  0.85,
			Weight:      0.6,
			Readings:    map[string]float64{"conductivity": 0.9},
		},
		{
			AnalystRole: protocol.RoleQuantumAnalyst,
			Vote:        "accept",
			Confidence:  0.9,
			Weight:      0.4,
			Readings:    map[string]float64{"entanglement_score": 0.8},
		},
	}

	overall, aiConf, quantumConf, aiReadings, quantumReadings := combineVotes(votes)

	assert.InDelta(t, 0.87, overall, 1e-9)
	assert.Equal(t, 0.85, aiConf)
	assert.Equal(t, 0.9, quantumConf)
	assert.Equal(t, 0.9, aiReadings["conductivity"])
	assert.Equal(t, 0.8, quantumReadings["entanglement_score"])
}

func TestCombineVotesRejectZeroesConfidence(t *testing.T) {
	votes := []*protocol.AnalystVoteResponse{
		{
			AnalystRole: protocol.RoleMaterialAnalyst,
			Vote:        "reject",
			Confidence:  0.95,
			Weight:      0.6,
		},
		{
			AnalystRole: protocol.RoleQuantumAnalyst,
			Vote:        "accept",
			Confidence:  0.9,
			Weight:      0.4,
		},
	}

	overall, aiConf, _, _, _ := combineVotes(votes)

	// 0.6*0 + 0.4*0.9
	assert.InDelta(t, 0.36, overall, 1e-9)
	assert.Equal(t, 0.0, aiConf)
}

func TestCombineVotesRenormalizesPartialPanel(t *testing.T) {
	// Only the material analyst responded
	votes := []*protocol.AnalystVoteResponse{
		{
			AnalystRole: protocol.RoleMaterialAnalyst,
			Vote:        "accept",
			Confidence:  0.85,
			Weight:      0.6,
		},
	}

	overall, _, _, _, _ := combineVotes(votes)

	// The single answering vote carries full weight
	assert.InDelta(t, 0.85, overall, 1e-9)
}

func TestLocalVotesMatchReferenceReadings(t *testing.T) {
	vs := &VerificationService{threshold: 0.8}

	sample := &models.Sample{
		ID:         "sample-1",
		SampleType: models.GoldBarSample,
		MetalType:  models.MetalTypeGold,
		Purity:     0.999,
	}
	frame := sensor.FlatFrame(8, 0.5)

	votes := vs.localVotes(sample, frame, nil)
	require.Len(t, votes, 2)

	overall, aiConf, quantumConf, aiReadings, quantumReadings := combineVotes(votes)

	// Built-in analysis: 0.6*0.85 + 0.4*0.9
	assert.InDelta(t, 0.87, overall, 1e-9)
	assert.True(t, vs.meetsThreshold(overall))

	assert.Equal(t, 0.85, aiConf)
	assert.Equal(t, 0.9, quantumConf)
	assert.Equal(t, 0.9, aiReadings["conductivity"])
	assert.Equal(t, models.GoldDensity, aiReadings["density"])
	assert.Equal(t, 0.999, aiReadings["purity"])
	assert.Equal(t, 0.8, quantumReadings["entanglement_score"])
	assert.InDelta(t, 0.5, quantumReadings["frame_mean"], 1e-9)
}

func TestPayloadFloatValue(t *testing.T) {
	payload := map[string]interface{}{
		"weight_grams": 100.0,
		"count":        int(3),
		"name":         "bar",
	}

	v, ok := payloadFloatValue(payload, "weight_grams")
	assert.True(t, ok)
	assert.Equal(t, 100.0, v)

	v, ok = payloadFloatValue(payload, "count")
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	_, ok = payloadFloatValue(payload, "name")
	assert.False(t, ok)

	_, ok = payloadFloatValue(payload, "missing")
	assert.False(t, ok)
}

func TestPayloadFrame(t *testing.T) {
	payload := map[string]interface{}{
		"sensor_frame": []interface{}{0.1, 0.2, 0.3},
	}

	frame := payloadFrame(payload)
	require.Len(t, frame, 3)
	assert.Equal(t, sensor.Frame{0.1, 0.2, 0.3}, frame)

	assert.Nil(t, payloadFrame(map[string]interface{}{}))
	assert.Nil(t, payloadFrame(map[string]interface{}{"sensor_frame": "nope"}))
	assert.Nil(t, payloadFrame(map[string]interface{}{"sensor_frame": []interface{}{0.1, "bad"}}))
}
