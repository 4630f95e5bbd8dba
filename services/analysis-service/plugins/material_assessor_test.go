package plugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/god-protocol/assay-verifier/pkg/protocol"
	gateway "github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

func materialRequest(metalType int, purity float64) *protocol.AnalysisRequest {
	return &protocol.AnalysisRequest{
		SampleID:  "sample-1",
		StationID: "station-1",
		Claim: protocol.SampleClaim{
			MetalType:   metalType,
			WeightGrams: 100,
			Purity:      purity,
		},
	}
}

func TestAssessBareProofUsesReferenceConfidence(t *testing.T) {
	assessor := NewNovaMaterialAssessor()

	result := assessor.Assess(materialRequest(gateway.MetalTypeGold, 0.999))

	require.True(t, result.Accept)
	assert.InDelta(t, 0.85, result.Confidence, 1e-9)
	assert.InDelta(t, gateway.GoldDensity, result.Readings["density"], 1e-9)
	assert.InDelta(t, gateway.GoldDensity, result.Readings["reference_density"], 1e-9)
	assert.InDelta(t, 0.999, result.Readings["purity"], 1e-9)
}

func TestAssessAveragesEmbeddedReadings(t *testing.T) {
	assessor := NewNovaMaterialAssessor()

	request := materialRequest(gateway.MetalTypeSilver, 0.925)
	request.Proof = &protocol.AssayProof{
		Provider: "nova-middle-layer",
		Evidence: map[string]interface{}{
			"ai_embedded_efficiency":    0.9,
			"thermal_stability":         0.8,
			"neural_interface_strength": 0.7,
		},
	}

	result := assessor.Assess(request)

	require.True(t, result.Accept)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.InDelta(t, 0.9, result.Readings["ai_embedded_efficiency"], 1e-9)
	assert.InDelta(t, 0.7, result.Readings["neural_interface_strength"], 1e-9)
}

func TestAssessPartialEmbeddedReadings(t *testing.T) {
	assessor := NewNovaMaterialAssessor()

	request := materialRequest(gateway.MetalTypeGold, 0.999)
	request.Proof = &protocol.AssayProof{
		Evidence: map[string]interface{}{
			"thermal_stability": 0.92,
		},
	}

	result := assessor.Assess(request)

	require.True(t, result.Accept)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
}

func TestAssessRejectsDensityOutsideTolerance(t *testing.T) {
	assessor := NewNovaMaterialAssessor()

	request := materialRequest(gateway.MetalTypeGold, 0.999)
	request.Proof = &protocol.AssayProof{
		Evidence: map[string]interface{}{
			"density": gateway.GoldDensity + 1.5,
		},
	}

	result := assessor.Assess(request)

	assert.False(t, result.Accept)
	assert.Zero(t, result.Confidence)
}

func TestAssessAcceptsDensityAtToleranceEdge(t *testing.T) {
	assessor := NewNovaMaterialAssessor()

	request := materialRequest(gateway.MetalTypeSilver, 0.925)
	request.Proof = &protocol.AssayProof{
		Evidence: map[string]interface{}{
			"density": gateway.SilverDensity + 1.0,
		},
	}

	result := assessor.Assess(request)

	assert.True(t, result.Accept)
}

func TestAssessRejectsPurityDrift(t *testing.T) {
	assessor := NewNovaMaterialAssessor()

	request := materialRequest(gateway.MetalTypeGold, 0.999)
	request.Proof = &protocol.AssayProof{
		Evidence: map[string]interface{}{
			"purity": 0.90,
		},
	}

	result := assessor.Assess(request)

	assert.False(t, result.Accept)
	assert.Zero(t, result.Confidence)
}

func TestAssessRejectsUnknownMetal(t *testing.T) {
	assessor := NewNovaMaterialAssessor()

	result := assessor.Assess(materialRequest(7, 0.999))

	assert.False(t, result.Accept)
	assert.Zero(t, result.Confidence)
}
