package verifiers

import (
	"context"
	"fmt"
	"time"

	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

// BatchAssayVerifier validates batch re-verification payloads. The actual
// re-verification work happens in the batch assayer worker pool; intake only
// checks the payload shape.
type BatchAssayVerifier struct {
	*BaseVerifier
}

// NewBatchAssayVerifier creates a batch assay intake verifier
func NewBatchAssayVerifier() *BatchAssayVerifier {
	return &BatchAssayVerifier{
		BaseVerifier: NewBaseVerifier(models.BatchAssaySample),
	}
}

// ValidatePayload validates the batch payload format
func (bv *BatchAssayVerifier) ValidatePayload(payload map[string]interface{}) error {
	raw, exists := payload["samples"]
	if !exists {
		return fmt.Errorf("samples is required")
	}

	samples, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("samples must be an array")
	}

	if len(samples) == 0 {
		return fmt.Errorf("samples cannot be empty")
	}

	if len(samples) > 1000 {
		return fmt.Errorf("batch too large: %d samples, maximum is 1000", len(samples))
	}

	for i, s := range samples {
		entry, ok := s.(map[string]interface{})
		if !ok {
			return fmt.Errorf("samples[%d] must be an object", i)
		}
		if id, ok := entry["sample_id"].(string); !ok || id == "" {
			return fmt.Errorf("samples[%d].sample_id is required", i)
		}
	}

	return nil
}

// ValidateSync accepts the batch immediately; the worker pool does the work
func (bv *BatchAssayVerifier) ValidateSync(ctx context.Context, payload map[string]interface{}) (bool, *models.AssayProof, error) {
	if err := bv.ValidatePayload(payload); err != nil {
		return false, nil, err
	}

	return true, &models.AssayProof{
		Provider:   "batch-assayer",
		VerifiedAt: time.Now(),
		Evidence: map[string]interface{}{
			"queued": true,
		},
	}, nil
}

// RegisterAsyncWatch is not used for batch assays
func (bv *BatchAssayVerifier) RegisterAsyncWatch(ctx context.Context, payload map[string]interface{}) (string, error) {
	return "", fmt.Errorf("batch assays do not support async watch")
}

// CheckAsyncStatus is not used for batch assays
func (bv *BatchAssayVerifier) CheckAsyncStatus(ctx context.Context, watchID string) (bool, *models.AssayProof, error) {
	return false, nil, fmt.Errorf("batch assays do not support async watch")
}
