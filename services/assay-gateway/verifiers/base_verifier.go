package verifiers

import (
	"context"
	"errors"

	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

// SampleVerifier defines the interface for pluggable sample intake verification strategies
type SampleVerifier interface {
	// ValidateSync performs synchronous verification against the external assay layer
	ValidateSync(ctx context.Context, payload map[string]interface{}) (bool, *models.AssayProof, error)

	// RegisterAsyncWatch registers an async watch for slow assay completion
	RegisterAsyncWatch(ctx context.Context, payload map[string]interface{}) (watchID string, err error)

	// CheckAsyncStatus checks the status of an async watch
	CheckAsyncStatus(ctx context.Context, watchID string) (completed bool, proof *models.AssayProof, err error)

	// GetSampleType returns the sample type this verifier handles
	GetSampleType() models.SampleType

	// ValidatePayload validates the payload format for this sample type
	ValidatePayload(payload map[string]interface{}) error
}

// BaseVerifier provides common functionality for all verifiers
type BaseVerifier struct {
	SampleType models.SampleType
}

// NewBaseVerifier creates a new base verifier
func NewBaseVerifier(sampleType models.SampleType) *BaseVerifier {
	return &BaseVerifier{
		SampleType: sampleType,
	}
}

// GetSampleType returns the sample type
func (bv *BaseVerifier) GetSampleType() models.SampleType {
	return bv.SampleType
}

// VerifierRegistry manages all sample verifiers
type VerifierRegistry struct {
	verifiers map[models.SampleType]SampleVerifier
}

// NewVerifierRegistry creates a new verifier registry
func NewVerifierRegistry() *VerifierRegistry {
	return &VerifierRegistry{
		verifiers: make(map[models.SampleType]SampleVerifier),
	}
}

// Register registers a verifier for a sample type
func (vr *VerifierRegistry) Register(verifier SampleVerifier) {
	vr.verifiers[verifier.GetSampleType()] = verifier
}

// GetVerifier returns a verifier for the given sample type
func (vr *VerifierRegistry) GetVerifier(sampleType models.SampleType) (SampleVerifier, error) {
	verifier, exists := vr.verifiers[sampleType]
	if !exists {
		return nil, errors.New("no verifier registered for sample type: " + string(sampleType))
	}
	return verifier, nil
}

// GetSupportedSampleTypes returns all supported sample types
func (vr *VerifierRegistry) GetSupportedSampleTypes() []models.SampleType {
	types := make([]models.SampleType, 0, len(vr.verifiers))
	for sampleType := range vr.verifiers {
		types = append(types, sampleType)
	}
	return types
}
