package plugins

import (
	"fmt"
	"math"

	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/services/analysis-service/models"
	gateway "github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

// MaterialAssessor defines the interface for material analysis
type MaterialAssessor interface {
	Assess(request *protocol.AnalysisRequest) *models.AssessmentResult
}

// NovaMaterialAssessor assesses material claims against NOVA assay evidence.
// Density must sit within tolerance of the reference density for the claimed
// metal, and the measured purity within tolerance of the claimed purity.
type NovaMaterialAssessor struct{}

// NewNovaMaterialAssessor creates a new material assessor
func NewNovaMaterialAssessor() *NovaMaterialAssessor {
	return &NovaMaterialAssessor{}
}

// Assess runs the material analysis for one request
func (nma *NovaMaterialAssessor) Assess(request *protocol.AnalysisRequest) *models.AssessmentResult {
	claim := request.Claim

	reference := referenceDensity(claim.MetalType)
	if reference == 0 {
		return &models.AssessmentResult{
			Accept:     false,
			Confidence: 0,
			Reason:     fmt.Sprintf("unknown metal type: %d", claim.MetalType),
			Readings:   map[string]float64{},
		}
	}

	evidence := evidenceReadings(request)

	// Measured density, falling back to the reference when the assay layer
	// did not report one
	density, hasDensity := evidence["density"]
	if !hasDensity {
		density = reference
	}

	// Measured purity, falling back to the claim
	purity, hasPurity := evidence["purity"]
	if !hasPurity {
		purity = claim.Purity
	}

	readings := map[string]float64{
		"density":           density,
		"reference_density": reference,
		"purity":            purity,
		"claimed_purity":    claim.Purity,
	}

	if math.Abs(density-reference) > models.DensityTolerance {
		return &models.AssessmentResult{
			Accept:     false,
			Confidence: 0,
			Reason: fmt.Sprintf("density %.2f outside tolerance of reference %.2f for metal type %d",
				density, reference, claim.MetalType),
			Readings: readings,
		}
	}

	if math.Abs(purity-claim.Purity) > models.PurityTolerance {
		return &models.AssessmentResult{
			Accept:     false,
			Confidence: 0,
			Reason: fmt.Sprintf("measured purity %.3f deviates from claimed %.3f beyond tolerance",
				purity, claim.Purity),
			Readings: readings,
		}
	}

	// Confidence is the mean of the embedded-AI readings the assay layer
	// reported. A bare proof gets the reference-rig confidence.
	confidence, aiReadings := embeddedConfidence(evidence)
	for k, v := range aiReadings {
		readings[k] = v
	}

	return &models.AssessmentResult{
		Accept:     true,
		Confidence: confidence,
		Reason:     fmt.Sprintf("material analysis passed, confidence %.2f", confidence),
		Readings:   readings,
	}
}

// embeddedConfidence averages the embedded-AI evidence readings
func embeddedConfidence(evidence map[string]float64) (float64, map[string]float64) {
	keys := []string{"ai_embedded_efficiency", "thermal_stability", "neural_interface_strength"}

	readings := make(map[string]float64)
	sum := 0.0
	count := 0

	for _, key := range keys {
		if v, ok := evidence[key]; ok {
			readings[key] = v
			sum += v
			count++
		}
	}

	if count == 0 {
		// Reference-rig fallback
		return 0.85, readings
	}

	return sum / float64(count), readings
}

// evidenceReadings extracts numeric readings from the assay proof evidence
func evidenceReadings(request *protocol.AnalysisRequest) map[string]float64 {
	readings := make(map[string]float64)

	if request.Proof == nil || request.Proof.Evidence == nil {
		return readings
	}

	for key, raw := range request.Proof.Evidence {
		switch v := raw.(type) {
		case float64:
			readings[key] = v
		case int:
			readings[key] = float64(v)
		}
	}

	return readings
}

// referenceDensity returns the reference density for a metal code
func referenceDensity(metalType int) float64 {
	switch metalType {
	case gateway.MetalTypeGold:
		return gateway.GoldDensity
	case gateway.MetalTypeSilver:
		return gateway.SilverDensity
	default:
		return 0
	}
}
