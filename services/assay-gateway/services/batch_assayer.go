package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/god-protocol/assay-verifier/pkg/crypto"
	"github.com/god-protocol/assay-verifier/pkg/ledger"
	"github.com/god-protocol/assay-verifier/services/assay-gateway/models"
)

// BatchAssayer re-verifies batches of recorded samples through a worker pool.
// Re-verification checks the stored record's integrity: a verified record
// must reproduce its own verification identifier from its recorded claim.
type BatchAssayer struct {
	store        *RecordStore
	clockService *EnhancedClockService
	ledgerClient *ledger.Client

	// Async processing queue
	sampleQueue chan *models.Sample
	workers     int
	mu          sync.RWMutex
	running     bool
}

// SampleRef identifies one recorded sample inside a batch
type SampleRef struct {
	SampleID   string `json:"sample_id"`
	UserWallet string `json:"user_wallet"`
}

// BatchAssayPayload is the payload of a batch_assay sample
type BatchAssayPayload struct {
	StartTime string      `json:"start_time"`
	EndTime   string      `json:"end_time"`
	BatchSize int         `json:"batch_size"`
	Samples   []SampleRef `json:"samples"`
}

// BatchAssayResult summarizes one batch re-verification
type BatchAssayResult struct {
	TotalSamples      int       `json:"total_samples"`
	ReverifiedSamples int       `json:"reverified_samples"`
	FailedSamples     int       `json:"failed_samples"`
	ClockIncrement    int       `json:"clock_increment"`
	ProcessedAt       time.Time `json:"processed_at"`
}

// NewBatchAssayer creates a batch assayer
func NewBatchAssayer(store *RecordStore, clockService *EnhancedClockService, ledgerServiceURL string, workers int) *BatchAssayer {
	if workers <= 0 {
		workers = 5 // Default 5 workers
	}

	var ledgerClient *ledger.Client
	if ledgerServiceURL != "" {
		ledgerClient = ledger.NewClient(ledgerServiceURL)
	}

	return &BatchAssayer{
		store:        store,
		clockService: clockService,
		ledgerClient: ledgerClient,
		sampleQueue:  make(chan *models.Sample, 1000), // Queue buffer
		workers:      workers,
	}
}

// Start starts the batch assayer workers
func (ba *BatchAssayer) Start(ctx context.Context) error {
	ba.mu.Lock()
	defer ba.mu.Unlock()

	if ba.running {
		return fmt.Errorf("batch assayer is already running")
	}

	ba.running = true

	for i := 0; i < ba.workers; i++ {
		go ba.worker(ctx, i)
	}

	log.Printf("BatchAssayer started with %d workers", ba.workers)
	return nil
}

// Stop stops the batch assayer
func (ba *BatchAssayer) Stop() {
	ba.mu.Lock()
	defer ba.mu.Unlock()

	if !ba.running {
		return
	}

	ba.running = false
	close(ba.sampleQueue)
	log.Println("BatchAssayer stopped")
}

// SubmitBatch queues a batch_assay sample for processing
func (ba *BatchAssayer) SubmitBatch(sample *models.Sample) error {
	ba.mu.RLock()
	defer ba.mu.RUnlock()

	if !ba.running {
		return fmt.Errorf("batch assayer is not running")
	}

	select {
	case ba.sampleQueue <- sample:
		go func() {
			ctx := context.Background()
			ba.store.UpdateSampleStatus(ctx, sample.ID, models.SampleProcessing)
		}()
		return nil
	default:
		return fmt.Errorf("sample queue is full")
	}
}

// worker processes queued batches
func (ba *BatchAssayer) worker(ctx context.Context, workerID int) {
	log.Printf("BatchAssayer worker %d started", workerID)

	for sample := range ba.sampleQueue {
		select {
		case <-ctx.Done():
			return
		default:
			ba.processBatchSample(ctx, sample, workerID)
		}
	}

	log.Printf("BatchAssayer worker %d stopped", workerID)
}

// processBatchSample re-verifies all samples referenced by one batch
func (ba *BatchAssayer) processBatchSample(ctx context.Context, sample *models.Sample, workerID int) {
	log.Printf("Worker %d processing batch %s", workerID, sample.ID)

	var payload BatchAssayPayload
	payloadJSON, _ := json.Marshal(sample.Payload)
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		ba.handleError(ctx, sample.ID, fmt.Errorf("failed to unmarshal payload: %w", err))
		return
	}

	// Process in chunks to avoid hammering the store
	const chunkSize = 10
	reverified := 0
	failed := 0

	for i := 0; i < len(payload.Samples); i += chunkSize {
		end := i + chunkSize
		if end > len(payload.Samples) {
			end = len(payload.Samples)
		}

		chunk := payload.Samples[i:end]
		ok, bad := ba.processChunk(ctx, chunk, workerID)
		reverified += ok
		failed += bad

		select {
		case <-ctx.Done():
			return
		case <-time.After(1 * time.Second):
			// Continue processing
		}
	}

	result := BatchAssayResult{
		TotalSamples:      len(payload.Samples),
		ReverifiedSamples: reverified,
		FailedSamples:     failed,
		ClockIncrement:    minInt(reverified, 10), // Maximum increment of 10
		ProcessedAt:       time.Now(),
	}

	resultJSON, _ := json.Marshal(result)

	if err := ba.store.UpdateSampleStatusWithProof(ctx, sample.ID, models.SampleVerified, resultJSON); err != nil {
		ba.handleError(ctx, sample.ID, fmt.Errorf("failed to update sample status: %w", err))
		return
	}

	// Advance the station clock for the batch
	if result.ClockIncrement > 0 {
		clockPayload := map[string]interface{}{
			"increment":        result.ClockIncrement,
			"batch_size":       result.TotalSamples,
			"reverified_count": result.ReverifiedSamples,
		}
		ba.clockService.TickForSample(ctx, sample.ID, models.BatchAssaySample, "verification", clockPayload)
	}

	if ba.ledgerClient != nil && result.ReverifiedSamples > 0 {
		if err := ba.distributeCreditsForBatch(ctx, sample.ID, payload.Samples); err != nil {
			log.Printf("Warning: failed to distribute credits for batch %s: %v", sample.ID, err)
		}
	}

	log.Printf("Worker %d completed batch %s: %d/%d reverified", workerID, sample.ID, reverified, len(payload.Samples))
}

// processChunk re-verifies one chunk of sample references
func (ba *BatchAssayer) processChunk(ctx context.Context, refs []SampleRef, workerID int) (reverified, failed int) {
	log.Printf("Worker %d processing chunk of %d samples", workerID, len(refs))

	for _, ref := range refs {
		select {
		case <-ctx.Done():
			return reverified, failed
		default:
			if ba.reverifySampleWithRetry(ctx, ref.SampleID) {
				reverified++
			} else {
				failed++
			}
		}
	}
	return reverified, failed
}

// reverifySampleWithRetry re-verifies a recorded sample with retries on
// store errors
func (ba *BatchAssayer) reverifySampleWithRetry(ctx context.Context, sampleID string) bool {
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return false
		default:
			ok, retryable := ba.reverifySample(ctx, sampleID)
			if ok {
				return true
			}
			if !retryable {
				return false
			}

			retryDelay := time.Duration(i+1) * time.Second
			select {
			case <-ctx.Done():
				return false
			case <-time.After(retryDelay):
				continue
			}
		}
	}
	return false
}

// reverifySample checks a stored verification record's integrity. The second
// return value reports whether the failure is worth retrying.
func (ba *BatchAssayer) reverifySample(ctx context.Context, sampleID string) (bool, bool) {
	record, err := ba.store.GetRecordBySample(ctx, sampleID)
	if err != nil {
		// Store error, retryable
		return false, true
	}

	if !record.Verified {
		return false, false
	}

	// The identifier must reproduce from the recorded claim
	want := crypto.MintVerificationID(record.MetalType, record.WeightGrams, record.Purity, record.Timestamp)
	return record.VerificationID == want, false
}

// handleError marks the batch sample as failed
func (ba *BatchAssayer) handleError(ctx context.Context, sampleID string, err error) {
	log.Printf("Error processing batch %s: %v", sampleID, err)

	errorResult := map[string]interface{}{
		"error":     err.Error(),
		"timestamp": time.Now(),
	}
	errorJSON, _ := json.Marshal(errorResult)
	ba.store.UpdateSampleStatusWithProof(ctx, sampleID, models.SampleFailed, errorJSON)
}

// GetQueueStats returns queue statistics
func (ba *BatchAssayer) GetQueueStats() map[string]interface{} {
	ba.mu.RLock()
	defer ba.mu.RUnlock()

	return map[string]interface{}{
		"running":    ba.running,
		"workers":    ba.workers,
		"queue_size": len(ba.sampleQueue),
		"queue_cap":  cap(ba.sampleQueue),
	}
}

// minInt returns the smaller of two integers
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// distributeCreditsForBatch distributes backing credits for reverified samples
func (ba *BatchAssayer) distributeCreditsForBatch(ctx context.Context, batchID string, refs []SampleRef) error {
	log.Printf("Starting credit distribution for batch %s", batchID)

	verifiedSamples := make([]ledger.VerifiedSample, 0, len(refs))

	for _, ref := range refs {
		record, err := ba.store.GetRecordBySample(ctx, ref.SampleID)
		if err != nil || !record.Verified {
			continue
		}

		clockValue := 1
		if record.Clock != nil {
			clockValue = record.Clock.GetValue(record.Clock.StationID)
		}

		verifiedSamples = append(verifiedSamples, ledger.VerifiedSample{
			UserWallet:     ref.UserWallet,
			SampleType:     sampleTypeForMetal(record.MetalType),
			MetalType:      record.MetalType,
			WeightGrams:    record.WeightGrams,
			Purity:         record.Purity,
			ClockValue:     clockValue,
			SampleID:       ref.SampleID,
			VerificationID: record.VerificationID,
		})
	}

	if len(verifiedSamples) == 0 {
		return nil
	}

	req := &ledger.CreditDistributionRequest{
		BatchID:     batchID,
		TriggerType: "scheduled",
		Timestamp:   time.Now(),
		Samples:     verifiedSamples,
	}

	result, err := ba.ledgerClient.DistributeCredits(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to call ledger service: %w", err)
	}

	log.Printf("Credit distribution completed for batch %s: status=%s, users=%d, total_credits=%d",
		batchID, result.Status, len(result.UserAllocations), result.TotalPoolCredits)

	if result.Status == "failed" {
		return fmt.Errorf("credit distribution failed: %s", result.ErrorMessage)
	}

	return nil
}

// sampleTypeForMetal maps a metal code back to its sample type string
func sampleTypeForMetal(metalType int) string {
	switch metalType {
	case models.MetalTypeGold:
		return string(models.GoldBarSample)
	case models.MetalTypeSilver:
		return string(models.SilverBarSample)
	default:
		return string(models.BatchAssaySample)
	}
}
