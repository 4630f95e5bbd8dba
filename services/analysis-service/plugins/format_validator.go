package plugins

import (
	"fmt"

	"github.com/god-protocol/assay-verifier/pkg/protocol"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

// FormatValidator defines the interface for request format validation
type FormatValidator interface {
	ValidateFormat(request *protocol.AnalysisRequest) *FormatResult
}

// FormatResult represents the result of format validation
type FormatResult struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// SampleFormatValidator validates analysis request format for metal samples
type SampleFormatValidator struct{}

// NewSampleFormatValidator creates a new sample format validator
func NewSampleFormatValidator() *SampleFormatValidator {
	return &SampleFormatValidator{}
}

// ValidateFormat validates the structure of an analysis request
func (sfv *SampleFormatValidator) ValidateFormat(request *protocol.AnalysisRequest) *FormatResult {
	if request.SampleID == "" {
		return &FormatResult{Valid: false, Reason: "missing sample_id"}
	}

	if request.StationID == "" {
		return &FormatResult{Valid: false, Reason: "missing station_id"}
	}

	claim := request.Claim
	if claim.MetalType != models.MetalTypeGold && claim.MetalType != models.MetalTypeSilver {
		return &FormatResult{
			Valid:  false,
			Reason: fmt.Sprintf("unknown metal type: %d", claim.MetalType),
		}
	}

	if claim.WeightGrams <= 0 {
		return &FormatResult{
			Valid:  false,
			Reason: fmt.Sprintf("weight must be positive, got %v", claim.WeightGrams),
		}
	}

	if claim.Purity <= 0 || claim.Purity > 1 {
		return &FormatResult{
			Valid:  false,
			Reason: fmt.Sprintf("purity must be in (0, 1], got %v", claim.Purity),
		}
	}

	if len(request.SensorFrame) > 0 {
		if err := request.SensorFrame.Validate(); err != nil {
			return &FormatResult{
				Valid:  false,
				Reason: fmt.Sprintf("invalid sensor frame: %v", err),
			}
		}
	}

	return &FormatResult{Valid: true}
}
